package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Classification of a failed protected request. Callers branch on these with
// errors.Is: a 401 forces logout, anything else maps to one of two distinct
// user-facing messages.
var (
	ErrUnauthorized       = errors.New("backend rejected credential")
	ErrBackendError       = errors.New("backend returned an error status")
	ErrBackendUnreachable = errors.New("backend unreachable")
)

// AuthError is returned when a login attempt is rejected. Detail carries the
// server's error text when the response body had one, else the raw status.
type AuthError struct {
	Status int
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("login failed with status %d", e.Status)
}

// Record is one attendance entry as returned by the backend. Field names are
// not uniform across backend versions, so entries stay untyped and alias
// resolution happens at display time.
type Record map[string]any

// Credential is the bearer token and admin identity returned by a login.
type Credential struct {
	Token string `json:"token"`
	Admin string `json:"admin"`
}

// Client calls the attendance backend service.
type Client struct {
	BaseURL     string
	LoginPath   string
	RecordsPath string
	ReportPath  string
	HTTP        *http.Client
}

// New creates a client for the backend at baseURL using the default endpoint
// paths.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		LoginPath:   "/admin/login",
		RecordsPath: "/attendance/records",
		ReportPath:  "/attendance/report",
		HTTP:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges admin credentials for a bearer token. The backend speaks
// the OAuth2 password flow, so the email travels in the "username" form
// field. A single failed attempt is surfaced immediately; there is no retry.
func (c *Client) Login(ctx context.Context, email, password string) (Credential, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+c.LoginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return Credential{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Credential{}, &AuthError{Status: resp.StatusCode, Detail: errorDetail(resp)}
	}

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Admin       struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"admin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Credential{}, fmt.Errorf("failed to decode login response: %w", err)
	}
	if out.AccessToken == "" {
		return Credential{}, errors.New("login response carried no token")
	}

	admin := out.Admin.Name
	if admin == "" {
		admin = out.Admin.Email
	}
	if admin == "" {
		admin = email
	}
	return Credential{Token: out.AccessToken, Admin: admin}, nil
}

// ListRecords fetches the current attendance record set. Records come back
// exactly as the backend sent them: same order, same fields, no filtering.
func (c *Client) ListRecords(ctx context.Context, token string) ([]Record, error) {
	resp, err := c.get(ctx, c.RecordsPath, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := classify(resp); err != nil {
		return nil, err
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// DownloadReport fetches the backend's file-form report. Returns the payload
// bytes and the reported content type.
func (c *Client) DownloadReport(ctx context.Context, token string) ([]byte, string, error) {
	resp, err := c.get(ctx, c.ReportPath, token)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := classify(resp); err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read report: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// Ping reports whether the backend answers HTTP at all. Any response counts,
// including error statuses; only a transport failure is unhealthy.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (c *Client) get(ctx context.Context, path, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	return resp, nil
}

// classify maps a protected-request response to the three-way error model:
// nil on success, ErrUnauthorized on 401, ErrBackendError otherwise.
func classify(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, errorDetail(resp))
	default:
		return fmt.Errorf("%w: status %s", ErrBackendError, resp.Status)
	}
}

// errorDetail pulls the "detail" field out of a JSON error body, falling back
// to the raw body text.
func errorDetail(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var out struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &out); err == nil && out.Detail != "" {
		return out.Detail
	}
	return strings.TrimSpace(string(body))
}
