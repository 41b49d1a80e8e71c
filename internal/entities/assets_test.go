package entities

import (
	"reflect"
	"testing"
)

func TestAssets_Validate(t *testing.T) {
	tests := []struct {
		name    string
		assets  *Assets
		wantErr bool
	}{
		{name: "nil assets", assets: nil},
		{name: "empty assets", assets: &Assets{}},
		{
			name: "complete assets",
			assets: &Assets{
				Internet:      &InternetAsset{Provider: "Vivo", SpeedMbps: 500, Technology: "fiber"},
				TV:            &TVAsset{Provider: "Claro", Package: "HD Max", Points: 2},
				MobileDevices: []MobileDevice{{Model: "Galaxy A54", Quantity: 3, Line: "controle"}},
			},
		},
		{name: "internet without provider", assets: &Assets{Internet: &InternetAsset{SpeedMbps: 100}}, wantErr: true},
		{name: "negative speed", assets: &Assets{Internet: &InternetAsset{Provider: "Oi", SpeedMbps: -1}}, wantErr: true},
		{name: "tv without provider", assets: &Assets{TV: &TVAsset{Package: "Basic"}}, wantErr: true},
		{name: "device without model", assets: &Assets{MobileDevices: []MobileDevice{{Quantity: 1}}}, wantErr: true},
		{name: "zero devices", assets: &Assets{MobileDevices: []MobileDevice{{Model: "iPhone 13", Quantity: 0}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.assets.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Assets.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAssets_TotalDevices(t *testing.T) {
	a := &Assets{MobileDevices: []MobileDevice{{Model: "A", Quantity: 2}, {Model: "B", Quantity: 5}}}
	if got := a.TotalDevices(); got != 7 {
		t.Errorf("TotalDevices() = %d, want 7", got)
	}
	var none *Assets
	if got := none.TotalDevices(); got != 0 {
		t.Errorf("nil TotalDevices() = %d, want 0", got)
	}
}

func TestParseAssets(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *Assets
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "json null", raw: "null", want: nil},
		{
			name: "internet only",
			raw:  `{"internet":{"provider":"Vivo","speed_mbps":300}}`,
			want: &Assets{Internet: &InternetAsset{Provider: "Vivo", SpeedMbps: 300}},
		},
		{name: "malformed", raw: `{"internet":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAssets([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAssets() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseAssets() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAssetsArg(t *testing.T) {
	v, err := AssetsArg(nil)
	if err != nil || v != nil {
		t.Errorf("AssetsArg(nil) = %v, %v; want nil, nil", v, err)
	}

	v, err = AssetsArg(&Assets{TV: &TVAsset{Provider: "Sky"}})
	if err != nil {
		t.Fatalf("AssetsArg() error = %v", err)
	}
	if v != `{"tv":{"provider":"Sky"}}` {
		t.Errorf("AssetsArg() = %v", v)
	}
}
