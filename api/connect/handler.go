// Package connect exposes the session integration endpoint:
// GET /connect/{tier}?session={id}.
package connect

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/DevBash1/trackpadal/core/model"
	"github.com/DevBash1/trackpadal/core/session"
	"github.com/DevBash1/trackpadal/infra/logger"
)

type response struct {
	URL string `json:"url"`
}

// NewHandler returns the HTTP handler for integration links. An
// upstream failure is logged and answered with an empty url, not an
// error status; the client simply retries on its next visit.
func NewHandler(cache *session.Cache, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		tierStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/connect/"), "/")
		tier, err := model.ParseTier(tierStr)
		if err != nil {
			http.Error(w, "unknown tier", http.StatusNotFound)
			return
		}
		sess := r.URL.Query().Get("session")
		if sess == "" {
			sess = "dummy-" + string(tier)
		}

		url, err := cache.URL(r.Context(), tier, sess)
		if err != nil {
			log.Errorf("integration for session %s: %v", sess, err)
			url = ""
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response{URL: url}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
