package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// withErrorHandling reports expected errors to the user and logs the rest.
func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		if err == nil {
			return nil
		}

		if text, ok := userMessage(err); ok {
			h.logger.Debug("request rejected",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.sendError(chatID, text)
			return nil
		}

		h.logger.Error("handle error",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		h.sendError(chatID, msgInternalError)
		return nil
	}
}

// errUsage wraps a message shown verbatim to the user.
type errUsage struct {
	text string
}

func (e errUsage) Error() string { return e.text }

func usage(text string) error {
	return errUsage{text: text}
}

func userMessage(err error) (string, bool) {
	var u errUsage
	if errors.As(err, &u) {
		return u.text, true
	}

	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.text, true
		}
	}
	return "", false
}
