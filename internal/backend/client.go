// Package backend is a typed client for the Remote Agent Service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JaimeStill/agent-console/internal/config"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// Client issues authenticated calls against the Remote Agent Service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client from configuration. The configured token is attached
// as a bearer credential to every typed call.
func New(cfg *config.BackendConfig, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg.BaseURL, cfg.Token, &http.Client{
		Timeout: cfg.TimeoutDuration(),
	}, logger)
}

// NewWithHTTPClient creates a client with a caller-supplied http.Client.
func NewWithHTTPClient(baseURL, token string, hc *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    hc,
		logger:  logger.With("system", "backend"),
	}
}

// WithToken returns a copy of the client that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var out []Agent
	if err := c.getJSON(ctx, "/agents", nil, &out); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if out == nil {
		out = []Agent{}
	}
	return out, nil
}

// SaveAgent creates or updates an agent and returns the stored record.
func (c *Client) SaveAgent(ctx context.Context, agent Agent) (Agent, error) {
	var out Agent
	if err := c.postJSON(ctx, "/update-agent", agent, &out); err != nil {
		return Agent{}, fmt.Errorf("save agent: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	q := url.Values{"agent_id": {agentID}}
	if err := c.do(ctx, http.MethodGet, "/delete-agent", q, nil, "", nil); err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	return nil
}

// ListDocuments returns the documents of an agent. An unknown agent yields an empty list.
func (c *Client) ListDocuments(ctx context.Context, agentID string) ([]Document, error) {
	var out documentList
	q := url.Values{"agent_id": {agentID}}
	if err := c.getJSON(ctx, "/documents/", q, &out); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return []Document{}, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if out.Documents == nil {
		out.Documents = []Document{}
	}
	return out.Documents, nil
}

// UploadDocument sends one file as multipart form data with its category.
func (c *Client) UploadDocument(ctx context.Context, agentID, fileName string, data []byte, category string) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload document: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return UploadResult{}, fmt.Errorf("upload document: %w", err)
	}
	if err := mw.WriteField("categories", category); err != nil {
		return UploadResult{}, fmt.Errorf("upload document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("upload document: %w", err)
	}

	var out UploadResult
	q := url.Values{"agent_id": {agentID}}
	if err := c.do(ctx, http.MethodPost, "/upload/agent", q, &buf, mw.FormDataContentType(), &out); err != nil {
		return UploadResult{}, fmt.Errorf("upload document: %w", err)
	}
	return out, nil
}

func (c *Client) UploadStatus(ctx context.Context, taskID string) (UploadStatus, error) {
	var out UploadStatus
	if err := c.getJSON(ctx, "/upload/status/"+url.PathEscape(taskID), nil, &out); err != nil {
		return UploadStatus{}, fmt.Errorf("upload status: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, agentID, documentID string) error {
	q := url.Values{"document_id": {documentID}, "agent_id": {agentID}}
	if err := c.do(ctx, http.MethodDelete, "/documents/", q, nil, "", nil); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (c *Client) ListAccessKeys(ctx context.Context, agentID string) ([]AccessKey, error) {
	var out []AccessKey
	q := url.Values{"agent_id": {agentID}}
	if err := c.getJSON(ctx, "/get-accesskeys", q, &out); err != nil {
		return nil, fmt.Errorf("list access keys: %w", err)
	}
	if out == nil {
		out = []AccessKey{}
	}
	return out, nil
}

// CreateAccessKey mints an access key that expires at expiry.
func (c *Client) CreateAccessKey(ctx context.Context, agentID, name string, expiry time.Time) (AccessKey, error) {
	var out AccessKey
	q := url.Values{
		"agent_id":    {agentID},
		"name":        {name},
		"expiry_date": {expiry.UTC().Format(time.RFC3339)},
	}
	if err := c.getJSON(ctx, "/new-accesskey", q, &out); err != nil {
		return AccessKey{}, fmt.Errorf("create access key: %w", err)
	}
	return out, nil
}

func (c *Client) RevokeAccessKey(ctx context.Context, agentID, accessKeyID string) error {
	q := url.Values{"access_key_id": {accessKeyID}, "agent_id": {agentID}}
	if err := c.do(ctx, http.MethodGet, "/revoke-accesskey", q, nil, "", nil); err != nil {
		return fmt.Errorf("revoke access key: %w", err)
	}
	return nil
}

func (c *Client) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var out []APIKey
	if err := c.getJSON(ctx, "/api-keys", nil, &out); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	if out == nil {
		out = []APIKey{}
	}
	return out, nil
}

func (c *Client) CreateAPIKey(ctx context.Context, key NewAPIKey) (APIKey, error) {
	var out APIKey
	if err := c.postJSON(ctx, "/api-keys", key, &out); err != nil {
		return APIKey{}, fmt.Errorf("create api key: %w", err)
	}
	return out, nil
}

// APIKeySecret fetches the raw secret of a stored key.
func (c *Client) APIKeySecret(ctx context.Context, keyID string) (APIKeySecret, error) {
	var out APIKeySecret
	if err := c.getJSON(ctx, "/api-keys/"+url.PathEscape(keyID), nil, &out); err != nil {
		return APIKeySecret{}, fmt.Errorf("api key secret: %w", err)
	}
	return out, nil
}

func (c *Client) Providers(ctx context.Context) (Providers, error) {
	var out Providers
	if err := c.getJSON(ctx, "/providers", nil, &out); err != nil {
		return Providers{}, fmt.Errorf("providers: %w", err)
	}
	return out, nil
}

// Models lists chat models for a provider as "provider:model" entries.
func (c *Client) Models(ctx context.Context, provider, apiKey string) ([]string, error) {
	var out []string
	if err := c.postJSON(ctx, "/get_models", modelQuery{Provider: provider, APIKey: apiKey}, &out); err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	return out, nil
}

// EmbeddingModels lists embedding models for a provider as "provider:model" entries.
func (c *Client) EmbeddingModels(ctx context.Context, provider, apiKey string) ([]string, error) {
	var out []string
	if err := c.postJSON(ctx, "/get_embedding_models", modelQuery{Provider: provider, APIKey: apiKey}, &out); err != nil {
		return nil, fmt.Errorf("embedding models: %w", err)
	}
	return out, nil
}

// Forward issues a raw request authenticated as token and returns the
// upstream response unread. The caller must close the body.
func (c *Client) Forward(ctx context.Context, token, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	req, err := c.newRequest(ctx, token, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("forwarded", "method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, bytes.NewReader(data), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	req, err := c.newRequest(ctx, c.token, method, path, query, body, contentType)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newStatusError(resp.StatusCode, data)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, token, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
