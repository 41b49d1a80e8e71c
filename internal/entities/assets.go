package entities

import (
	"encoding/json"
	"fmt"
)

// Assets is the unstructured configuration stored in company.assets
// Example: {"internet":{"provider":"Vivo","speed_mbps":500},"mobile_devices":[{"model":"A54","quantity":3}]}
type Assets struct {
	Internet      *InternetAsset `json:"internet,omitempty"`
	TV            *TVAsset       `json:"tv,omitempty"`
	MobileDevices []MobileDevice `json:"mobile_devices,omitempty"`
}

// InternetAsset describes the company's internet link
type InternetAsset struct {
	Provider   string `json:"provider"`
	SpeedMbps  int    `json:"speed_mbps"`
	Technology string `json:"technology,omitempty"` // fiber, radio, adsl, ...
}

// TVAsset describes the company's pay TV contract
type TVAsset struct {
	Provider string `json:"provider"`
	Package  string `json:"package,omitempty"`
	Points   int    `json:"points,omitempty"`
}

// MobileDevice is a group of identical handsets on the same line plan
type MobileDevice struct {
	Model    string `json:"model"`
	Quantity int    `json:"quantity"`
	Line     string `json:"line,omitempty"`
}

// Validate checks if the assets document is valid
func (a *Assets) Validate() error {
	if a == nil {
		return nil
	}
	if a.Internet != nil {
		if a.Internet.Provider == "" {
			return fmt.Errorf("internet provider is required")
		}
		if a.Internet.SpeedMbps < 0 {
			return fmt.Errorf("internet speed must be non-negative, got %d", a.Internet.SpeedMbps)
		}
	}
	if a.TV != nil && a.TV.Provider == "" {
		return fmt.Errorf("tv provider is required")
	}
	for i, d := range a.MobileDevices {
		if d.Model == "" {
			return fmt.Errorf("mobile device %d: model is required", i)
		}
		if d.Quantity < 1 {
			return fmt.Errorf("mobile device %d: quantity must be at least 1, got %d", i, d.Quantity)
		}
	}
	return nil
}

// TotalDevices returns the number of handsets across all device groups
func (a *Assets) TotalDevices() int {
	if a == nil {
		return 0
	}
	total := 0
	for _, d := range a.MobileDevices {
		total += d.Quantity
	}
	return total
}

// ParseAssets decodes a stored assets document. Empty input means no assets.
func ParseAssets(raw []byte) (*Assets, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var a Assets
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode assets: %w", err)
	}
	return &a, nil
}

// AssetsArg returns the value bound for the assets column: nil for SQL NULL,
// otherwise the JSON text.
func AssetsArg(a *Assets) (any, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode assets: %w", err)
	}
	return string(b), nil
}
