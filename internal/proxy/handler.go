// Package proxy exposes the console's HTTP API: thin authenticated routes
// that forward each caller's session token to the Remote Agent Service and
// relay its answer.
package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/catalog"
	"github.com/JaimeStill/agent-console/pkg/handlers"
	"github.com/JaimeStill/agent-console/pkg/routes"
)

const maxJSONBody = 10 << 20

// param maps an incoming query parameter to its upstream name.
type param struct {
	in, out string
}

// passthrough describes a route forwarded without interpretation.
type passthrough struct {
	method   string
	upstream string
	params   []param

	// pathParam names an incoming parameter appended, escaped, to upstream.
	pathParam string
	body      bool
}

// Handler provides the proxy endpoints.
type Handler struct {
	client        *backend.Client
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a proxy handler. Upload bodies above maxUploadSize are rejected.
func NewHandler(client *backend.Client, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		client:        client,
		logger:        logger.With("handler", "proxy"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the proxy route group.
func (h *Handler) Routes() routes.Group {
	agentID := param{"agentId", "agent_id"}

	return routes.Group{
		Prefix:      "/api",
		Description: "Authenticated pass-through to the Remote Agent Service",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/fetch-agents", Handler: h.pass(passthrough{
				method: http.MethodGet, upstream: "/agents",
			})},
			{Method: "POST", Pattern: "/set-agent", Handler: h.pass(passthrough{
				method: http.MethodPost, upstream: "/update-agent", body: true,
			})},
			{Method: "GET", Pattern: "/delete-agent", Handler: h.pass(passthrough{
				method: http.MethodGet, upstream: "/delete-agent", params: []param{agentID},
			})},
			{Method: "GET", Pattern: "/fetch-documents", Handler: h.pass(passthrough{
				method: http.MethodGet, upstream: "/documents/", params: []param{agentID},
			})},
			{Method: "POST", Pattern: "/upload-document", Handler: h.UploadDocument},
			{Method: "GET", Pattern: "/upload-status", Handler: h.pass(passthrough{
				method: http.MethodGet, upstream: "/upload/status/", pathParam: "taskId",
			})},
			{Method: "GET", Pattern: "/delete-document", Handler: h.pass(passthrough{
				method:   http.MethodDelete,
				upstream: "/documents/",
				params:   []param{agentID, {"documentId", "document_id"}},
			})},
			{Method: "GET", Pattern: "/fetch-access-keys", Handler: h.pass(passthrough{
				method: http.MethodGet, upstream: "/get-accesskeys", params: []param{agentID},
			})},
			{Method: "GET", Pattern: "/new-access-key", Handler: h.pass(passthrough{
				method:   http.MethodGet,
				upstream: "/new-accesskey",
				params:   []param{agentID, {"accessKeyName", "name"}, {"expiryDate", "expiry_date"}},
			})},
			{Method: "GET", Pattern: "/revoke-access-key", Handler: h.pass(passthrough{
				method:   http.MethodGet,
				upstream: "/revoke-accesskey",
				params:   []param{agentID, {"accessKeyId", "access_key_id"}},
			})},
			{Method: "GET", Pattern: "/get-api-keys", Handler: h.pass(passthrough{
				method: http.MethodGet, upstream: "/api-keys",
			})},
			{Method: "POST", Pattern: "/get-api-keys", Handler: h.pass(passthrough{
				method: http.MethodPost, upstream: "/api-keys", body: true,
			})},
			{Method: "GET", Pattern: "/get-api-keys/{keyId}", Handler: h.APIKeySecret},
			{Method: "GET", Pattern: "/get-providers", Handler: h.pass(passthrough{
				method: http.MethodGet, upstream: "/providers",
			})},
			{Method: "POST", Pattern: "/get-models", Handler: h.Models},
			{Method: "POST", Pattern: "/get-embedding-models", Handler: h.EmbeddingModels},
		},
	}
}

func (h *Handler) pass(p passthrough) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := h.session(w, r)
		if !ok {
			return
		}

		in := r.URL.Query()
		query := url.Values{}
		for _, prm := range p.params {
			v := in.Get(prm.in)
			if v == "" {
				handlers.RespondError(w, h.logger, http.StatusBadRequest, missingParam(prm.in))
				return
			}
			query.Set(prm.out, v)
		}

		path := p.upstream
		if p.pathParam != "" {
			v := in.Get(p.pathParam)
			if v == "" {
				handlers.RespondError(w, h.logger, http.StatusBadRequest, missingParam(p.pathParam))
				return
			}
			path += url.PathEscape(v)
		}

		var body io.Reader
		var contentType string
		if p.body {
			body = http.MaxBytesReader(w, r.Body, maxJSONBody)
			contentType = "application/json"
		}

		h.forward(w, r, token, p.method, path, query, body, contentType)
	}
}

// UploadDocument streams the multipart body to the service unchanged,
// keeping the caller's boundary.
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	token, ok := h.session(w, r)
	if !ok {
		return
	}

	agentID := r.URL.Query().Get("agentId")
	if agentID == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, missingParam("agentId"))
		return
	}

	if r.ContentLength > h.maxUploadSize {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrTooLarge)
		return
	}
	body := http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	query := url.Values{"agent_id": {agentID}}
	h.forward(w, r, token, http.MethodPost, "/upload/agent", query, body, r.Header.Get("Content-Type"))
}

func (h *Handler) APIKeySecret(w http.ResponseWriter, r *http.Request) {
	token, ok := h.session(w, r)
	if !ok {
		return
	}
	h.forward(w, r, token, http.MethodGet, "/api-keys/"+url.PathEscape(r.PathValue("keyId")), nil, nil, "")
}

func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	h.listModels(w, r, false)
}

func (h *Handler) EmbeddingModels(w http.ResponseWriter, r *http.Request) {
	h.listModels(w, r, true)
}

type modelRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
}

func (h *Handler) listModels(w http.ResponseWriter, r *http.Request, embedding bool) {
	token, ok := h.session(w, r)
	if !ok {
		return
	}

	var req modelRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		h.logger.Debug("model query not decoded", "error", err)
	}

	cat := catalog.New(h.client.WithToken(token), h.logger)

	var models []string
	var err error
	if embedding {
		models, err = cat.EmbeddingModels(r.Context(), req.Provider, req.APIKey)
	} else {
		models, err = cat.Models(r.Context(), req.Provider, req.APIKey)
	}
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), upstreamMessage(err))
		return
	}

	if models == nil {
		models = []string{}
	}
	handlers.RespondJSON(w, http.StatusOK, models)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := SessionToken(r)
	if token == "" {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrNoToken)
		return "", false
	}
	return token, true
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request, token, method, path string, query url.Values, body io.Reader, contentType string) {
	resp, err := h.client.Forward(r.Context(), token, method, path, query, body, contentType)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadGateway, err)
		return
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("relay interrupted", "path", path, "error", err)
	}
}
