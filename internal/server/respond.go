package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/toozej/curator/internal/errs"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// codeBadRequest is returned for bodies that do not decode.
const codeBadRequest = "BAD_REQUEST"

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Violations []string       `json:"violations,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// statusFor maps engine error kinds onto HTTP statuses: malformed input is a 400,
// everything the engine rejected on semantic grounds is a 422.
func statusFor(err error) (int, errorResponse) {
	var agg *errs.AggregateError
	if errors.As(err, &agg) {
		resp := errorResponse{Code: errs.CodeAggregate, Message: err.Error()}
		for _, e := range agg.Errors {
			resp.Violations = append(resp.Violations, e.Error())
		}
		return http.StatusUnprocessableEntity, resp
	}

	var e *errs.Error
	if errors.As(err, &e) {
		resp := errorResponse{Code: e.Code, Message: e.Message, Violations: e.Violations, Meta: e.Meta}
		if e.Kind == errs.KindValidation {
			return http.StatusBadRequest, resp
		}
		return http.StatusUnprocessableEntity, resp
	}

	return http.StatusInternalServerError, errorResponse{Code: "INTERNAL_ERROR", Message: err.Error()}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := statusFor(err)
	s.metrics.engineErrors.WithLabelValues(resp.Code).Inc()

	entry := s.logger.WithFields(log.Fields{
		"component": "server",
		"path":      r.URL.Path,
		"status":    status,
		"code":      resp.Code,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	writeJSON(w, status, resp)
}

func (s *Server) writeBadRequest(w http.ResponseWriter, err error) {
	s.metrics.engineErrors.WithLabelValues(codeBadRequest).Inc()
	writeJSON(w, http.StatusBadRequest, errorResponse{Code: codeBadRequest, Message: err.Error()})
}
