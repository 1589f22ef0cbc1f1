package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Handler struct {
	bot         BotAPI
	logger      *zap.Logger
	quizService QuizService
	quizStorage QuizStorage
	reciterRepo ReciterRepository
}

func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	quizService QuizService,
	quizStorage QuizStorage,
	reciterRepo ReciterRepository,
) *Handler {
	return &Handler{
		bot:         bot,
		logger:      logger,
		quizService: quizService,
		quizStorage: quizStorage,
		reciterRepo: reciterRepo,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	chatID := update.Message.Chat.ID

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start", "help":
			h.send(newHTMLMessage(chatID, msgWelcome))

		case "quiz":
			_ = h.withErrorHandling(h.handleQuiz(update.Message.CommandArguments()))(ctx, chatID)

		case "next":
			_ = h.withErrorHandling(h.handleNext(false))(ctx, chatID)

		case "skip":
			_ = h.withErrorHandling(h.handleNext(true))(ctx, chatID)

		case "reveal":
			_ = h.withErrorHandling(h.handleReveal())(ctx, chatID)

		case "stop":
			_ = h.withErrorHandling(h.handleStop())(ctx, chatID)

		case "reciters":
			_ = h.withErrorHandling(h.handleReciters())(ctx, chatID)

		default:
			h.send(newHTMLMessage(chatID, msgUnknownCommand))
		}

		return
	}

	_ = h.withErrorHandling(h.handleAnswerText(update.Message.Text))(ctx, chatID)
}

func (h *Handler) sendError(chatID int64, text string) {
	h.send(newHTMLMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}
