package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type QuizService interface {
	Start(ctx context.Context, cfg entities.QuizConfiguration) (*entities.QuizSession, error)
	Next(ctx context.Context, session *entities.QuizSession, skip bool) (*entities.Question, error)
	Submit(session *entities.QuizSession, answer entities.VerseRef) (entities.AnswerResult, error)
	SubmitText(session *entities.QuizSession, input string) (entities.AnswerResult, error)
	Reveal(session *entities.QuizSession) (entities.Reveal, error)
	Finish(session *entities.QuizSession) entities.SessionSnapshot
	Summary(session *entities.QuizSession) entities.SessionSnapshot
}

type QuizStorage interface {
	BindChat(chatID int64, session *entities.QuizSession) (*entities.QuizSession, bool)
	GetByChat(chatID int64) (*entities.QuizSession, error)
	UnbindChat(chatID int64) (*entities.QuizSession, bool)
}

type ReciterRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Reciter, error)
	GetAll(ctx context.Context) ([]*entities.Reciter, error)
}
