// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
	"github.com/aliskhannn/quran-audio-quiz/internal/service"
	"github.com/aliskhannn/quran-audio-quiz/internal/storage"
)

const rlm = "\u200F"

// Error and status messages.
const (
	msgInternalError   = "Something went wrong. Please try again later."
	msgUnknownCommand  = "Unknown command.\n\n" + msgCommands
	msgQuizUsage       = "Usage: /quiz FROM TO [audio] [reciter] [attempts]\nExample: <code>/quiz 2:1 2:20 audio ar.alafasy 3</code>"
	msgNoQuiz          = "No quiz is running. Start one with <code>/quiz 1:1 2:5</code>."
	msgNotAnswered     = "Answer the current question first, or /skip it."
	msgLoading         = "The next question is still loading, please wait."
	msgQuizOver        = "This quiz is over. Start a new one with /quiz."
	msgNoQuestion      = "No question yet. Send /next."
	msgFetchFailed     = "Could not load the verse. Try /next again."
	msgBadAnswer       = "Send your answer as surah:verse, e.g. <code>2:255</code> or <code>baqarah 255</code>."
	msgInvalidRange    = "That verse range is not valid. The start must come before the end and both must exist."
	msgInvalidQuiz     = "That quiz configuration is not valid.\n\n" + msgQuizUsage
	msgAlreadyAnswered = "This question is already scored. Tap Next for another one."
	msgPoolExhausted   = "You have gone through every verse in the range."
)

const msgCommands = "/quiz FROM TO [audio] [reciter] [attempts] — start a quiz\n" +
	"/next — next question\n" +
	"/skip — skip the current question\n" +
	"/reveal — show the answer\n" +
	"/stop — finish and show the summary\n" +
	"/reciters — list reciters"

const msgWelcome = "<b>Quran Audio Quiz</b>\n\n" +
	"Guess the surah and verse number of what you read or hear.\n" +
	"Answer with <code>surah:verse</code> or tap one of the options.\n\n" +
	msgCommands

var errorMessages = []struct {
	err  error
	text string
}{
	{storage.ErrSessionNotFound, msgNoQuiz},
	{entities.ErrNotAnswered, msgNotAnswered},
	{entities.ErrAdvanceInProgress, msgLoading},
	{entities.ErrSessionFinished, msgQuizOver},
	{entities.ErrNoQuestion, msgNoQuestion},
	{service.ErrFetch, msgFetchFailed},
	{service.ErrUnrecognizedAnswer, msgBadAnswer},
	{entities.ErrMalformedVerseRef, msgBadAnswer},
	{service.ErrInvalidRange, msgInvalidRange},
	{service.ErrInvalidConfiguration, msgInvalidQuiz},
}

func formatQuizStarted(snap entities.SessionSnapshot) string {
	cfg := snap.Config
	return fmt.Sprintf(
		"🎯 <b>Quiz started</b>\nRange: %s → %s (%d verses)\nMode: %s\nAttempts per question: %s",
		cfg.Start(), cfg.End(), snap.PoolSize, formatMode(cfg.Mode), html.EscapeString(cfg.Attempts),
	)
}

func formatMode(m entities.QuizMode) string {
	if m == entities.ModeAudio {
		return "audio"
	}
	return "verse text"
}

// formatQuestion renders a question without its ground truth.
func formatQuestion(q *entities.Question, snap entities.SessionSnapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>Question %d</b>", len(snap.History)+snap.Skipped+1))
	if snap.Round > 1 {
		sb.WriteString(fmt.Sprintf(" (round %d)", snap.Round))
	}
	sb.WriteString("\n\n")

	if q.Mode == entities.ModeAudio {
		sb.WriteString("🎧 Which verse is this?")
	} else {
		sb.WriteString(rlm)
		sb.WriteString(html.EscapeString(q.Text))
		sb.WriteString("\n\nWhich verse is this?")
	}

	sb.WriteString(fmt.Sprintf("\n\n✅ %d  ❌ %d  ⏱ %s", snap.Correct, snap.Incorrect, service.FormatDuration(snap.Elapsed)))

	return sb.String()
}

func formatAttemptsLeft(n int) string {
	if n == 1 {
		return "❌ Not quite. 1 attempt left."
	}
	return fmt.Sprintf("❌ Not quite. %d attempts left.", n)
}

func formatScored(correct bool, rev entities.Reveal) string {
	if correct {
		return fmt.Sprintf("✅ Correct! %s", formatRevealLine(rev))
	}
	return fmt.Sprintf("❌ Wrong. It was %s", formatRevealLine(rev))
}

func formatRevealLine(rev entities.Reveal) string {
	name := rev.SurahEnglish
	if name == "" {
		name = rev.SurahName
	}
	return fmt.Sprintf("<b>%s</b> (%s)", rev.Ref, html.EscapeString(name))
}

func formatReveal(rev entities.Reveal) string {
	var sb strings.Builder

	sb.WriteString("📖 ")
	sb.WriteString(formatRevealLine(rev))
	if rev.SurahName != "" && rev.SurahName != rev.SurahEnglish {
		sb.WriteString("\n")
		sb.WriteString(rlm)
		sb.WriteString(html.EscapeString(rev.SurahName))
	}
	if rev.Text != "" {
		sb.WriteString("\n\n")
		sb.WriteString(rlm)
		sb.WriteString(html.EscapeString(rev.Text))
	}
	if rev.ReciterName != "" {
		sb.WriteString("\n\n🎙 ")
		sb.WriteString(html.EscapeString(rev.ReciterName))
	}

	return sb.String()
}

func formatSummary(snap entities.SessionSnapshot) string {
	return fmt.Sprintf(
		"🏁 <b>Quiz finished</b>\n\n✅ Correct: %d\n❌ Incorrect: %d\n⏭ Skipped: %d\n🎯 Score: %.0f%%\n⏱ Time: %s",
		snap.Correct, snap.Incorrect, snap.Skipped, snap.Score(), service.FormatDuration(snap.Elapsed),
	)
}

func formatReciters(reciters []*entities.Reciter) string {
	var sb strings.Builder
	sb.WriteString("<b>Reciters</b>\n\n")
	for _, r := range reciters {
		sb.WriteString(fmt.Sprintf("<code>%s</code> — %s\n", html.EscapeString(r.ID), html.EscapeString(r.Name)))
	}
	return sb.String()
}
