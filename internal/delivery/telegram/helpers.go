package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

func buildVerseAudio(q *entities.Question, chatID int64, caption string) tgbotapi.AudioConfig {
	a := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(q.AudioURL))
	a.Caption = caption
	a.ParseMode = tgbotapi.ModeHTML
	a.Title = "?"
	a.Performer = q.Reciter.Name
	return a
}

func newHTMLMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}
