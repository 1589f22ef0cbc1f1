package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

// buildQuestionKeyboard builds keyboard for quiz question: two options per row, then controls.
func buildQuestionKeyboard(q *entities.Question) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var row []tgbotapi.InlineKeyboardButton
	for _, option := range q.Options {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(option.String(), buildAnswerCallback(option)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", actionSkip),
		tgbotapi.NewInlineKeyboardButtonData("👁 Reveal", actionReveal),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildAfterAnswerKeyboard builds keyboard shown once a question is scored.
func buildAfterAnswerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Next", actionNext),
			tgbotapi.NewInlineKeyboardButtonData("🏁 Finish", actionStop),
		),
	)
}
