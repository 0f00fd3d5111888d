package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aleister1102/pagewatch/internal/mask"
	"github.com/aleister1102/pagewatch/internal/normalizer"
	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("error encoding json response: %s", err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("Request failed")
	}
	if err := writeJSON(w, status, map[string]string{"error": err.Error()}); err != nil {
		s.logger.Error().Err(err).Msg("Error writing response")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("Health check failed")
		_ = writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	resp := map[string]any{"status": "ok"}
	if s.diagnostics != nil {
		if snap, ok := s.diagnostics.Last(); ok {
			resp["diagnostics"] = snap
		}
	}
	_ = writeJSON(w, http.StatusOK, resp)
}

// handlePreview renders the stored snapshot of a link with its mask shown
// as markers.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["url"]
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	linkURL, err := normalizer.NormalizeURL(target)
	if err != nil {
		s.writeError(w, err)
		return
	}

	link, err := s.store.GetLink(r.Context(), linkURL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// html only changes together with change_stamp.
	key := fmt.Sprintf("%s\x00%d\x00%s", link.URL, link.ChangeStamp.UnixNano(), link.Mask)
	page, ok := s.previewCache.Get(key)
	if !ok {
		masked, err := mask.Apply(link.HTML, link.Mask, mask.StrategyMarker)
		if err != nil {
			s.writeError(w, err)
			return
		}
		page = s.policy.Sanitize(masked)
		s.previewCache.Add(key, page)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(page)); err != nil {
		s.logger.Debug().Err(err).Str("url", linkURL).Msg("Error writing preview")
	}
}
