package web

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/getcher123/UD-MVP/internal/model"
	"github.com/getcher123/UD-MVP/internal/recon"
)

// BatchProcessor is the reconciler surface the web layer needs.
type BatchProcessor interface {
	Process(ctx context.Context, batch model.Batch) (*model.Response, error)
}

type errorBody struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func (s *Server) handleImportListings(w http.ResponseWriter, r *http.Request) {
	var batch model.Batch
	// Unknown fields are ignored: extraction payloads carry extra keys.
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "malformed request body: " + err.Error(),
			Status: string(recon.StatusSchemaInvalid),
		})
		return
	}

	resp, err := s.recon.Process(r.Context(), batch)
	if err != nil {
		status := recon.StatusOf(err)
		s.log.Warn("import failed",
			zap.String("request_id", batch.RequestID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		writeJSON(w, httpStatus(status), errorBody{Error: err.Error(), Status: string(status)})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func httpStatus(status recon.Status) int {
	switch status {
	case recon.StatusSchemaInvalid:
		return http.StatusBadRequest
	case recon.StatusConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
