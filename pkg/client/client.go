// Package client provides a Go client for the Autodrop API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// Client is an Autodrop API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithTimeout sets the timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the authentication token
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new Autodrop API client
func NewClient(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Login authenticates against the platform and stores the session token
// for subsequent requests
func (c *Client) Login(email, password string) (api.Identity, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return api.Identity{}, err
	}

	resp, err := c.doRequest("POST", "/api/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return api.Identity{}, err
	}
	defer resp.Body.Close()

	var result struct {
		User  api.Identity `json:"user"`
		Token string       `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return api.Identity{}, err
	}

	c.token = result.Token
	return result.User, nil
}

// Upload sends a zip archive to the platform and returns the upload result
func (c *Client) Upload(zipPath string) (*api.UploadResponse, error) {
	file, err := os.Open(zipPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("frontend", filepath.Base(zipPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := c.doRequest("POST", "/api/upload", writer.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result api.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListTemplates returns the backend template catalog
func (c *Client) ListTemplates() ([]api.Template, error) {
	resp, err := c.doRequest("GET", "/api/templates", "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Templates []api.Template `json:"templates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result.Templates, nil
}

// Deploy starts a deployment from a completed upload
func (c *Client) Deploy(req api.DeployRequest) (*api.DeployResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest("POST", "/api/deploy", "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result api.DeployResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Status returns the deployment status of an app
func (c *Client) Status(appID string) (*api.StatusRecord, error) {
	resp, err := c.doRequest("GET", fmt.Sprintf("/api/status/%s", appID), "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var record api.StatusRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, err
	}

	return &record, nil
}

// MyApps lists the caller's deployed apps
func (c *Client) MyApps() ([]api.AppSummary, error) {
	resp, err := c.doRequest("GET", "/api/my-apps", "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Apps []api.AppSummary `json:"apps"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result.Apps, nil
}

// DeleteApp removes a deployed app
func (c *Client) DeleteApp(appID string) error {
	resp, err := c.doRequest("DELETE", fmt.Sprintf("/api/apps/%s", appID), "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		var apiErr api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return nil, fmt.Errorf("HTTP error: %s", resp.Status)
		}
		return nil, fmt.Errorf("API error: %d - %s", resp.StatusCode, apiErr.Error)
	}

	return resp, nil
}
