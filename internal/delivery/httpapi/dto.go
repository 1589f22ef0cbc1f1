package httpapi

import (
	"encoding/json"
	"time"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

type errorResponse struct {
	Error string `json:"error"`
}

// attemptsValue accepts the attempts count as a JSON string or number.
type attemptsValue string

func (a *attemptsValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = attemptsValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = attemptsValue(n.String())
	return nil
}

// startRequest is a quiz configuration whose attempts field may be numeric.
type startRequest struct {
	entities.QuizConfiguration
	Attempts attemptsValue `json:"attempts"`
}

func newStartRequest(defaults entities.QuizConfiguration) startRequest {
	return startRequest{QuizConfiguration: defaults, Attempts: attemptsValue(defaults.Attempts)}
}

func (r startRequest) configuration() entities.QuizConfiguration {
	cfg := r.QuizConfiguration
	cfg.Attempts = string(r.Attempts)
	return cfg
}

type nextRequest struct {
	Skip bool `json:"skip"`
}

// answerRequest carries either a structured reference or free text such as "2:255" or "baqara 255".
type answerRequest struct {
	Surah int    `json:"surah"`
	Ayah  int    `json:"ayah"`
	Text  string `json:"text"`
}

// questionResponse is a displayed question without its ground truth.
type questionResponse struct {
	SessionID string              `json:"session_id"`
	Mode      entities.QuizMode   `json:"mode"`
	Text      string              `json:"text,omitempty"`
	AudioURL  string              `json:"audio_url,omitempty"`
	Options   []entities.VerseRef `json:"options"`
}

func newQuestionResponse(sessionID string, q *entities.Question) questionResponse {
	resp := questionResponse{
		SessionID: sessionID,
		Mode:      q.Mode,
		Options:   q.Options,
	}
	if q.Mode == entities.ModeAudio {
		resp.AudioURL = q.AudioURL
	} else {
		resp.Text = q.Text
	}
	return resp
}

type answerResponse struct {
	Accepted     bool                    `json:"accepted"`
	Duplicate    bool                    `json:"duplicate"`
	Correct      bool                    `json:"correct"`
	AttemptsLeft int                     `json:"attempts_left"`
	Record       *entities.HistoryRecord `json:"record,omitempty"`
}

func newAnswerResponse(res entities.AnswerResult) answerResponse {
	return answerResponse{
		Accepted:     res.Accepted,
		Duplicate:    res.Duplicate,
		Correct:      res.Correct,
		AttemptsLeft: res.AttemptsLeft,
		Record:       res.Record,
	}
}

type sessionResponse struct {
	entities.SessionSnapshot
	Finished       bool              `json:"finished"`
	Score          float64           `json:"score"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	Question       *questionResponse `json:"question,omitempty"`
}

func newSessionResponse(s entities.SessionSnapshot) sessionResponse {
	resp := sessionResponse{
		SessionSnapshot: s,
		Finished:        s.Finished(),
		Score:           s.Score(),
		ElapsedSeconds:  s.Elapsed.Round(time.Millisecond).Seconds(),
	}
	if s.Current != nil && !s.Finished() {
		q := newQuestionResponse(s.ID, s.Current)
		resp.Question = &q
	}
	return resp
}

type cacheStatusResponse struct {
	CacheName   string `json:"cacheName"`
	Version     string `json:"version"`
	App         string `json:"app"`
	State       string `json:"state"`
	Controlling bool   `json:"controlling"`
}
