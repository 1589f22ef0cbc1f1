package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Remove the user's "clock".
	defer func() {
		if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			h.logger.Debug("callback answer error", zap.Error(err))
		}
	}()

	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	data := decodeCallback(cb.Data)

	var fn HandlerFunc
	switch data.Action {
	case actionAnswer:
		ref, ok := parseAnswerCallback(data)
		if !ok {
			h.logger.Warn("invalid answer callback", zap.String("data", cb.Data))
			return
		}
		fn = h.handleAnswerOption(ref)
	case actionNext:
		fn = h.handleNext(false)
	case actionSkip:
		fn = h.handleNext(true)
	case actionReveal:
		fn = h.handleReveal()
	case actionStop:
		fn = h.handleStop()
	default:
		h.logger.Debug("unknown callback", zap.String("data", cb.Data))
		return
	}

	_ = h.withErrorHandling(fn)(ctx, chatID)
}

func (h *Handler) handleAnswerOption(ref entities.VerseRef) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		session, err := h.quizStorage.GetByChat(chatID)
		if err != nil {
			return err
		}

		res, err := h.quizService.Submit(session, ref)
		if err != nil {
			return err
		}

		return h.sendAnswerResult(chatID, session, res)
	}
}
