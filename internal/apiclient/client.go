// Package apiclient is a small client for the application's REST backend,
// used to smoke-test persistence end to end.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/asakaida/telops/internal/entities"
)

// ErrNoToken is returned when the response of a login carries no token
var ErrNoToken = errors.New("login response carries no token")

// APIError is returned for non-2xx responses
type APIError struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), body)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks JSON to the backend
type Client struct {
	BaseURL string
	HTTP    *http.Client
	token   string
}

// New creates a client for baseURL
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Token returns the bearer token obtained by Login
func (c *Client) Token() string {
	return c.token
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

// Login authenticates and keeps the token for later requests
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return err
	}

	token := resp.AccessToken
	if token == "" {
		token = resp.Token
	}
	if token == "" {
		return ErrNoToken
	}
	c.token = token
	return nil
}

// CreateCompany posts a company and returns the stored representation
func (c *Client) CreateCompany(ctx context.Context, company *entities.Company) (*entities.Company, error) {
	var created entities.Company
	if err := c.do(ctx, http.MethodPost, "/companies", company, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCompany fetches one company
func (c *Client) GetCompany(ctx context.Context, id int64) (*entities.Company, error) {
	var company entities.Company
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/companies/%d", id), nil, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// ListCompanies fetches all companies
func (c *Client) ListCompanies(ctx context.Context) ([]entities.Company, error) {
	var companies []entities.Company
	if err := c.do(ctx, http.MethodGet, "/companies", nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// ListSegments fetches all segments
func (c *Client) ListSegments(ctx context.Context) ([]entities.Segment, error) {
	var segments []entities.Segment
	if err := c.do(ctx, http.MethodGet, "/segments", nil, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Method: method, Path: path, Body: string(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// unwrap returns the "data" member of an enveloped response, raw otherwise
func unwrap(raw []byte) []byte {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
			return envelope.Data
		}
	}
	return raw
}
