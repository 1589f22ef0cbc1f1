package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*entities.QuizSession, bool) {
	session, err := h.quizStorage.Get(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return session, true
}

// decodeOptional decodes a JSON body into v; an empty body keeps v unchanged.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	req := newStartRequest(entities.DefaultQuizConfiguration())
	if err := decodeOptional(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	cfg := req.configuration()

	session, err := h.quizService.Start(r.Context(), cfg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.quizStorage.Store(session)

	writeJSON(w, http.StatusCreated, newSessionResponse(h.quizService.Summary(session)))
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(h.quizService.Summary(session)))
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req nextRequest
	if err := decodeOptional(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	q, err := h.quizService.Next(r.Context(), session, req.Skip)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newQuestionResponse(session.ID, q))
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var (
		res entities.AnswerResult
		err error
	)
	if req.Text != "" {
		res, err = h.quizService.SubmitText(session, req.Text)
	} else {
		res, err = h.quizService.Submit(session, entities.VerseRef{Surah: req.Surah, Ayah: req.Ayah})
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newAnswerResponse(res))
}

func (h *Handler) RevealAnswer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	reveal, err := h.quizService.Reveal(session)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reveal)
}

func (h *Handler) FocusQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.quizService.Focus(session)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BlurQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.quizService.Blur(session)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) FinishQuiz(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	resp := newSessionResponse(h.quizService.Finish(session))
	h.quizStorage.Delete(session.ID)

	writeJSON(w, http.StatusOK, resp)
}
