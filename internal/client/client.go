package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Dan9191/world-service/internal/models"
	"github.com/sirupsen/logrus"
)

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// AuthResponse is returned by login and registration
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// HealthStatus is returned by the health endpoint
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Client talks to the worlds REST API
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     *logrus.Logger
}

// New creates a client for the server at baseURL, e.g. "http://localhost:3001"
func New(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	return c.token
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and keeps the returned token
func (c *Client) Register(ctx context.Context, email, username, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "username": username, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Login authenticates and keeps the returned token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// ListWorlds fetches the caller's worlds
func (c *Client) ListWorlds(ctx context.Context) ([]models.World, error) {
	var out []models.World
	if err := c.do(ctx, http.MethodGet, "/api/worlds", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateWorld creates a world; description may be nil
func (c *Client) CreateWorld(ctx context.Context, name string, description *string) (*models.World, error) {
	body := map[string]any{"name": name}
	if description != nil {
		body["description"] = *description
	}
	var out models.World
	if err := c.do(ctx, http.MethodPost, "/api/worlds", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetWorld fetches one world with its contents
func (c *Client) GetWorld(ctx context.Context, id string) (*models.WorldDetail, error) {
	var out models.WorldDetail
	if err := c.do(ctx, http.MethodGet, worldPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateWorld sends a partial update
func (c *Client) UpdateWorld(ctx context.Context, id string, patch models.WorldPatch) (*models.World, error) {
	var out models.World
	if err := c.do(ctx, http.MethodPut, worldPath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteWorld removes a world
func (c *Client) DeleteWorld(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, worldPath(id), nil, nil)
}

// ExportWorld downloads the XML export of a world
func (c *Client) ExportWorld(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, worldPath(id)+"/export", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func worldPath(id string) string {
	return "/api/worlds/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs the request and turns non-2xx answers into *APIError
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	c.log.Debugf("%s %s -> %d", method, path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return nil, apiErr
	}
	return resp, nil
}
