package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"habittrack/backend"
)

const (
	// requestTimeout bounds a single API round trip
	requestTimeout = 30 * time.Second

	// pingTimeout keeps online checks from blocking the caller
	pingTimeout = 3 * time.Second
)

// APIClient handles HTTP communication with a habittrack sync server
type APIClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPIClient creates a new sync server API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// SetToken installs the session token used for authenticated requests
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token, empty when logged out
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// credentialRequest is the request body for login and register
type credentialRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse is returned by login and register
type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// categoryRecord is the wire form of a category. LastModified exists only
// on the remote side, to support deduplication during cloud repair; it is
// never a local entity field.
type categoryRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// habitRecord is the wire form of a habit
type habitRecord struct {
	ID           string `json:"id"`
	CategoryID   string `json:"categoryId"`
	Name         string `json:"name"`
	ReminderTime string `json:"reminderTime,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// logRecord is the wire form of a habit log
type logRecord struct {
	ID           string `json:"id"`
	HabitID      string `json:"habitId"`
	Timestamp    int64  `json:"timestamp"`
	Note         string `json:"note,omitempty"`
	IsMakeup     bool   `json:"isMakeup,omitempty"`
	OriginalDate int64  `json:"originalDate,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// snapshotPayload is the complete remote dataset, the same shape in both
// directions of a full sync
type snapshotPayload struct {
	Categories []categoryRecord `json:"categories"`
	Habits     []habitRecord    `json:"habits"`
	Logs       []logRecord      `json:"habitLogs"`
}

// deltaPayload carries an incremental push: upserts per kind plus deleted
// ids per kind. Applying it twice is a remote no-op because everything is
// keyed by id.
type deltaPayload struct {
	Upserts snapshotPayload     `json:"upserts"`
	Deletes map[string][]string `json:"deletes"`
}

// doRequest performs an HTTP request with authentication
func (c *APIClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	url := c.baseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// call runs a request and classifies failures into ProviderError: network
// errors are connectivity (transient), HTTP error statuses keep their code
// so callers can distinguish authorization failures.
func (c *APIClient) call(ctx context.Context, operation, method, endpoint string, body, out interface{}) error {
	resp, err := c.doRequest(ctx, method, endpoint, body)
	if err != nil {
		return backend.NewConnectivityError(operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return backend.NewProviderError(operation, resp.StatusCode, http.StatusText(resp.StatusCode)).
			WithBody(string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backend.NewProviderError(operation, 0, "failed to decode response").WithError(err)
		}
	}
	return nil
}

// Login authenticates and returns the session
func (c *APIClient) Login(ctx context.Context, email, password string) (*sessionResponse, error) {
	var session sessionResponse
	err := c.call(ctx, "Login", http.MethodPost, "/auth/login", credentialRequest{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Register creates an account and returns the session
func (c *APIClient) Register(ctx context.Context, email, password string) (*sessionResponse, error) {
	var session sessionResponse
	err := c.call(ctx, "Register", http.MethodPost, "/auth/register", credentialRequest{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout invalidates the session server-side
func (c *APIClient) Logout(ctx context.Context) error {
	return c.call(ctx, "Logout", http.MethodPost, "/auth/logout", nil, nil)
}

// Ping checks reachability with a short timeout
func (c *APIClient) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	resp, err := c.doRequest(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// GetSnapshot downloads the complete remote dataset
func (c *APIClient) GetSnapshot(ctx context.Context) (*snapshotPayload, error) {
	var snapshot snapshotPayload
	if err := c.call(ctx, "FullSyncDown", http.MethodGet, "/snapshot", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// PutSnapshot replaces the remote dataset with exactly the given one
func (c *APIClient) PutSnapshot(ctx context.Context, snapshot snapshotPayload) error {
	return c.call(ctx, "FullSyncUp", http.MethodPut, "/snapshot", snapshot, nil)
}

// PostDelta applies an incremental change set remotely
func (c *APIClient) PostDelta(ctx context.Context, delta deltaPayload) error {
	return c.call(ctx, "DeltaSync", http.MethodPost, "/delta", delta, nil)
}

// DeleteAll wipes everything belonging to the current account
func (c *APIClient) DeleteAll(ctx context.Context) error {
	return c.call(ctx, "ClearRemote", http.MethodDelete, "/snapshot", nil, nil)
}
