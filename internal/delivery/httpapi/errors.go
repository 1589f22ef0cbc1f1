package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
	"github.com/aliskhannn/quran-audio-quiz/internal/service"
	"github.com/aliskhannn/quran-audio-quiz/internal/storage"
)

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidConfiguration),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrUnrecognizedAnswer),
		errors.Is(err, entities.ErrMalformedVerseRef):
		return http.StatusBadRequest

	case errors.Is(err, storage.ErrSessionNotFound):
		return http.StatusNotFound

	case errors.Is(err, entities.ErrAdvanceInProgress),
		errors.Is(err, entities.ErrNotAnswered),
		errors.Is(err, entities.ErrNoQuestion):
		return http.StatusConflict

	case errors.Is(err, service.ErrFetch):
		return http.StatusBadGateway

	case errors.Is(err, entities.ErrPoolExhausted),
		errors.Is(err, entities.ErrSessionFinished):
		return http.StatusGone

	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal error"
	}

	writeJSON(w, status, errorResponse{Error: msg})
}
