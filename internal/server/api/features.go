package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/peekaboo/internal/app"
	"github.com/ayusman/peekaboo/internal/catalog"
)

// Controller exposes the frame loop's feature state and accepts toggle
// requests. *app.App implements it.
type Controller interface {
	Features() []app.FeatureStatus
	RequestToggle(kind catalog.Kind) error
}

// FeatureHandler handles /api/features requests.
type FeatureHandler struct {
	controller Controller
}

// NewFeatureHandler creates a FeatureHandler over c.
func NewFeatureHandler(c Controller) *FeatureHandler {
	return &FeatureHandler{controller: c}
}

// ServeHTTP routes /api/features and /api/features/{kind}/toggle.
func (h *FeatureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/features")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	kind, action, ok := strings.Cut(path, "/")
	if !ok || action != "toggle" || kind == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.toggle(w, r, catalog.Kind(kind))
}

type listFeaturesResponse struct {
	Features []app.FeatureStatus `json:"features"`
}

type toggleResponse struct {
	Kind   catalog.Kind `json:"kind"`
	Status string       `json:"status"`
}

// list handles GET /api/features.
func (h *FeatureHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listFeaturesResponse{Features: h.controller.Features()})
}

// toggle handles POST /api/features/{kind}/toggle. The toggle is applied by
// the frame loop on its next poll, so the response is 202.
func (h *FeatureHandler) toggle(w http.ResponseWriter, r *http.Request, kind catalog.Kind) {
	err := h.controller.RequestToggle(kind)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, toggleResponse{Kind: kind, Status: "queued"})
	case errors.Is(err, app.ErrUnknownKind):
		writeError(w, http.StatusNotFound, "Unknown feature kind")
	case errors.Is(err, app.ErrQueueFull), errors.Is(err, app.ErrNoRemote):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Failed to toggle feature")
	}
}
