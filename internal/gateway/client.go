// Package gateway is the single chokepoint for HTTP calls to the
// UploadDoc backend. Every transport or server failure is normalized
// into the domain error taxonomy before it reaches a caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/you/uploaddoc/domain"
)

const snippetLimit = 200

// Client talks to the UploadDoc REST backend. It is stateless per
// invocation and safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// request performs one HTTP call. A JSON body is sent when body is
// non-nil; the bearer token is attached when token is non-empty; the
// 2xx response body is decoded into out when out is non-nil.
func (c *Client) request(ctx context.Context, method, endpoint string, body interface{}, token string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.do(req, out)
}

// do sends an already-built request and normalizes the outcome. Used
// directly by multipart uploads, which set their own Content-Type.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{BaseURL: c.baseURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &domain.APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil {
			return &domain.MalformedResponseError{
				StatusCode: resp.StatusCode,
				Snippet:    snippet(raw),
				Err:        err,
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.MalformedResponseError{
			StatusCode: resp.StatusCode,
			Snippet:    snippet(raw),
			Err:        err,
		}
	}
	return nil
}

func snippet(raw []byte) string {
	if len(raw) > snippetLimit {
		return string(raw[:snippetLimit])
	}
	return string(raw)
}

// Login implements domain.AuthAPI.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.Credentials, error) {
	var creds domain.Credentials
	if err := c.request(ctx, http.MethodPost, "/api/auth/login", req, "", &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Register implements domain.AuthAPI.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterAck, error) {
	var ack domain.RegisterAck
	if err := c.request(ctx, http.MethodPost, "/api/auth/register", req, "", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// VerifyEmail implements domain.AuthAPI.
func (c *Client) VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) (*domain.Credentials, error) {
	var creds domain.Credentials
	if err := c.request(ctx, http.MethodPost, "/api/auth/verify-email", req, "", &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// ResendVerification implements domain.AuthAPI.
func (c *Client) ResendVerification(ctx context.Context, email string) (*domain.ResendAck, error) {
	var ack domain.ResendAck
	body := map[string]string{"email": email}
	if err := c.request(ctx, http.MethodPost, "/api/auth/resend-verification", body, "", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// CheckStatus implements domain.AuthAPI. The response carries the fresh
// server-side user; a token field is present only if the backend rotated
// the credential.
func (c *Client) CheckStatus(ctx context.Context, token string) (*domain.Credentials, error) {
	var creds domain.Credentials
	if err := c.request(ctx, http.MethodGet, "/api/auth/status", nil, token, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// ForgotPassword implements domain.AuthAPI.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*domain.PasswordResetAck, error) {
	var ack domain.PasswordResetAck
	body := map[string]string{"email": email}
	if err := c.request(ctx, http.MethodPost, "/api/auth/forgot-password", body, "", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// ResetPassword implements domain.AuthAPI.
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (*domain.PasswordResetAck, error) {
	var ack domain.PasswordResetAck
	body := map[string]string{"email": email, "otp": otp, "newPassword": newPassword}
	if err := c.request(ctx, http.MethodPost, "/api/auth/reset-password", body, "", &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// UpdateProfile implements domain.ProfileAPI.
func (c *Client) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest, token string) (*domain.User, error) {
	var resp struct {
		Message string       `json:"message"`
		User    *domain.User `json:"user"`
	}
	if err := c.request(ctx, http.MethodPut, "/api/users/update-profile", req, token, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// UserProfile implements domain.ProfileAPI.
func (c *Client) UserProfile(ctx context.Context, userID, token string) (*domain.User, error) {
	var user domain.User
	if err := c.request(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID), nil, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Providers implements domain.DirectoryAPI.
func (c *Client) Providers(ctx context.Context, page, limit int, search, token string) (*domain.ProviderPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if search != "" {
		q.Set("search", search)
	}

	var result domain.ProviderPage
	if err := c.request(ctx, http.MethodGet, "/api/users/admins?"+q.Encode(), nil, token, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StudentProjects implements domain.ProjectAPI.
func (c *Client) StudentProjects(ctx context.Context, studentID string, page, limit int, token string) (*domain.ProjectPage, error) {
	return c.projectPage(ctx, "/api/projects/student/"+url.PathEscape(studentID), page, limit, token)
}

// AssignedProjects implements domain.ProjectAPI.
func (c *Client) AssignedProjects(ctx context.Context, adminID string, page, limit int, token string) (*domain.ProjectPage, error) {
	return c.projectPage(ctx, "/api/projects/assigned/"+url.PathEscape(adminID), page, limit, token)
}

func (c *Client) projectPage(ctx context.Context, path string, page, limit int, token string) (*domain.ProjectPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var result domain.ProjectPage
	if err := c.request(ctx, http.MethodGet, path+"?"+q.Encode(), nil, token, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AcceptProject implements domain.ProjectAPI.
func (c *Client) AcceptProject(ctx context.Context, projectID, token string) (*domain.Project, error) {
	var resp struct {
		Message string          `json:"message"`
		Project *domain.Project `json:"project"`
	}
	path := "/api/projects/accept/" + url.PathEscape(projectID)
	if err := c.request(ctx, http.MethodPut, path, nil, token, &resp); err != nil {
		return nil, err
	}
	return resp.Project, nil
}

// DeleteProject implements domain.ProjectAPI.
func (c *Client) DeleteProject(ctx context.Context, projectID, token string) error {
	return c.request(ctx, http.MethodDelete, "/api/projects/"+url.PathEscape(projectID), nil, token, nil)
}
