package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aliskhannn/quran-audio-quiz/internal/offline"
)

// replyPort buffers the replies the controller posts while handling a message.
type replyPort struct {
	replies []any
}

func (p *replyPort) PostMessage(v any) error {
	p.replies = append(p.replies, v)
	return nil
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var msg offline.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	port := &replyPort{}
	if err := h.controller.HandleMessage(r.Context(), msg, port); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, offline.ErrUnknownMessage):
			status = http.StatusBadRequest
		case errors.Is(err, offline.ErrInvalidTransition):
			status = http.StatusConflict
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	if len(port.replies) == 0 {
		writeJSON(w, http.StatusAccepted, map[string]string{"state": string(h.controller.State())})
		return
	}
	writeJSON(w, http.StatusOK, port.replies[0])
}

func (h *Handler) CacheStatus(w http.ResponseWriter, _ *http.Request) {
	info := h.controller.Info()
	writeJSON(w, http.StatusOK, cacheStatusResponse{
		CacheName:   info.CacheName,
		Version:     info.Version,
		App:         info.App,
		State:       string(h.controller.State()),
		Controlling: h.controller.Controlling(),
	})
}
