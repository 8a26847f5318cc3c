package web

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// metadata is the server build/version info surfaced to API consumers.
type metadata struct {
	Version   string `json:"version"`
	CommitSHA string `json:"commitSHA"`
	ReadOnly  bool   `json:"readOnly"`
}

// mountAssets registers the root route. This build carries no bundled
// frontend, so it serves a small JSON landing page describing the running
// server and its API surface rather than a SPA shell; a future frontend
// build can replace this with an embedded asset mount without touching the
// API handlers above.
func (s *Server) mountAssets(mux *http.ServeMux) {
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		meta := metadata{
			Version:   s.Version,
			CommitSHA: s.CommitSHA,
			ReadOnly:  s.ReadOnly,
		}
		s.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(struct {
			metadata
			Endpoints []string `json:"endpoints"`
		}{
			metadata: meta,
			Endpoints: []string{
				"GET /api/source",
				"PUT /api/source",
				"GET /api/accounts",
				"GET /api/balances",
			},
		}); err != nil {
			http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
		}
	})
}
