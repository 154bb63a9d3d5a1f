package bridge

import (
	"encoding/json"
	"errors"
	"net/http"

	"tgbridge/pkg/telegram"

	"github.com/go-chi/chi/v5/middleware"
)

// errorKindHeader carries the error classification next to the uniform body.
const errorKindHeader = "X-Error-Kind"

type errorResponse struct {
	Detail string `json:"detail"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// writeJSON encodes payload with the given status code.
func (s *Service) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write response", "error", err)
	}
}

// writeError reports every failure as a server error whose detail is the
// error text.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := telegram.KindOf(err)

	op := ""
	var categorized *telegram.Error
	if errors.As(err, &categorized) {
		op = categorized.Op
	}

	s.log.Error("Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"kind", kind,
		"op", op,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)

	w.Header().Set(errorKindHeader, string(kind))
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
}
