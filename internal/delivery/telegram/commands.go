package telegram

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
	"github.com/aliskhannn/quran-audio-quiz/internal/storage"
)

// parseQuizArgs parses "FROM TO [audio] [reciter] [attempts]".
func parseQuizArgs(args string) (entities.QuizConfiguration, error) {
	cfg := entities.DefaultQuizConfiguration()

	fields := strings.Fields(args)
	if len(fields) < 2 {
		return cfg, usage(msgQuizUsage)
	}

	start, err := entities.ParseVerseRef(fields[0])
	if err != nil {
		return cfg, usage(msgQuizUsage)
	}
	end, err := entities.ParseVerseRef(fields[1])
	if err != nil {
		return cfg, usage(msgQuizUsage)
	}

	cfg.StartSurah, cfg.StartVerse = start.Surah, start.Ayah
	cfg.EndSurah, cfg.EndVerse = end.Surah, end.Ayah

	for _, tok := range fields[2:] {
		switch {
		case strings.EqualFold(tok, "audio"):
			cfg.Mode = entities.ModeAudio
		case strings.EqualFold(tok, "text"):
			cfg.Mode = entities.ModeVerseNumber
		case isDigits(tok):
			cfg.Attempts = tok
		default:
			cfg.Reciter = tok
		}
	}

	return cfg, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// handleQuiz starts a quiz for the chat, replacing any running one.
func (h *Handler) handleQuiz(args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		cfg, err := parseQuizArgs(args)
		if err != nil {
			return err
		}

		session, err := h.quizService.Start(ctx, cfg)
		if err != nil {
			return err
		}

		if prev, hadPrev := h.quizStorage.BindChat(chatID, session); hadPrev {
			h.quizService.Finish(prev)
			h.logger.Debug("previous quiz replaced",
				zap.Int64("chat_id", chatID),
				zap.String("session_id", prev.ID),
			)
		}

		h.send(newHTMLMessage(chatID, formatQuizStarted(h.quizService.Summary(session))))

		return h.sendNext(ctx, chatID, session, false)
	}
}

func (h *Handler) handleNext(skip bool) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		session, err := h.quizStorage.GetByChat(chatID)
		if err != nil {
			return err
		}
		return h.sendNext(ctx, chatID, session, skip)
	}
}

// sendNext advances the session and sends the new question. An exhausted
// pool ends the quiz with its summary.
func (h *Handler) sendNext(ctx context.Context, chatID int64, session *entities.QuizSession, skip bool) error {
	q, err := h.quizService.Next(ctx, session, skip)
	if errors.Is(err, entities.ErrPoolExhausted) {
		h.send(newHTMLMessage(chatID, msgPoolExhausted))
		return h.finish(chatID)
	}
	if err != nil {
		return err
	}

	text := formatQuestion(q, h.quizService.Summary(session))
	kb := buildQuestionKeyboard(q)

	if q.Mode == entities.ModeAudio {
		audio := buildVerseAudio(q, chatID, text)
		audio.ReplyMarkup = kb
		h.send(audio)
		return nil
	}

	msg := newHTMLMessage(chatID, text)
	msg.ReplyMarkup = kb
	h.send(msg)

	return nil
}

func (h *Handler) handleReveal() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		session, err := h.quizStorage.GetByChat(chatID)
		if err != nil {
			return err
		}

		rev, err := h.quizService.Reveal(session)
		if err != nil {
			return err
		}

		msg := newHTMLMessage(chatID, formatReveal(rev))
		msg.ReplyMarkup = buildAfterAnswerKeyboard()
		h.send(msg)

		return nil
	}
}

func (h *Handler) handleStop() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.finish(chatID)
	}
}

// finish ends the chat's quiz and sends the summary.
func (h *Handler) finish(chatID int64) error {
	session, ok := h.quizStorage.UnbindChat(chatID)
	if !ok {
		return storage.ErrSessionNotFound
	}

	summary := h.quizService.Finish(session)
	h.send(newHTMLMessage(chatID, formatSummary(summary)))

	return nil
}

func (h *Handler) handleReciters() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		reciters, err := h.reciterRepo.GetAll(ctx)
		if err != nil {
			return err
		}
		h.send(newHTMLMessage(chatID, formatReciters(reciters)))
		return nil
	}
}

func (h *Handler) handleAnswerText(text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		session, err := h.quizStorage.GetByChat(chatID)
		if err != nil {
			return err
		}

		res, err := h.quizService.SubmitText(session, text)
		if err != nil {
			return err
		}

		return h.sendAnswerResult(chatID, session, res)
	}
}

func (h *Handler) sendAnswerResult(chatID int64, session *entities.QuizSession, res entities.AnswerResult) error {
	switch {
	case res.Duplicate:
		h.send(newHTMLMessage(chatID, msgAlreadyAnswered))
		return nil

	case !res.Accepted:
		h.send(newHTMLMessage(chatID, formatAttemptsLeft(res.AttemptsLeft)))
		return nil
	}

	// the question is scored, so revealing it costs nothing
	rev, err := h.quizService.Reveal(session)
	if err != nil {
		return err
	}

	msg := newHTMLMessage(chatID, formatScored(res.Correct, rev))
	msg.ReplyMarkup = buildAfterAnswerKeyboard()
	h.send(msg)

	return nil
}
