package httpapi

import (
	"context"
	"net/http"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
	"github.com/aliskhannn/quran-audio-quiz/internal/offline"
)

type QuizService interface {
	Start(ctx context.Context, cfg entities.QuizConfiguration) (*entities.QuizSession, error)
	Next(ctx context.Context, session *entities.QuizSession, skip bool) (*entities.Question, error)
	Submit(session *entities.QuizSession, answer entities.VerseRef) (entities.AnswerResult, error)
	SubmitText(session *entities.QuizSession, input string) (entities.AnswerResult, error)
	Reveal(session *entities.QuizSession) (entities.Reveal, error)
	Focus(session *entities.QuizSession)
	Blur(session *entities.QuizSession)
	Finish(session *entities.QuizSession) entities.SessionSnapshot
	Summary(session *entities.QuizSession) entities.SessionSnapshot
}

type QuizStorage interface {
	Store(session *entities.QuizSession)
	Get(id string) (*entities.QuizSession, error)
	Delete(id string)
}

type SurahRepository interface {
	GetAll(ctx context.Context) ([]*entities.Surah, error)
}

type ReciterRepository interface {
	GetAll(ctx context.Context) ([]*entities.Reciter, error)
}

// OfflineController serves the shell and answers page messages.
type OfflineController interface {
	http.Handler
	HandleMessage(ctx context.Context, msg offline.Message, port offline.ReplyPort) error
	Info() offline.CacheInfo
	State() offline.State
	Controlling() bool
}
