package telegram

import (
	"context"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/quran-audio-quiz/internal/client"
	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
	"github.com/aliskhannn/quran-audio-quiz/internal/metrics"
	"github.com/aliskhannn/quran-audio-quiz/internal/repository"
	"github.com/aliskhannn/quran-audio-quiz/internal/service"
	"github.com/aliskhannn/quran-audio-quiz/internal/storage"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

// last returns the text or caption of the last sent message.
func (b *fakeBot) last(t *testing.T) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	require.NotEmpty(t, b.sent)
	switch m := b.sent[len(b.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.AudioConfig:
		return m.Caption
	default:
		t.Fatalf("unexpected chattable %T", m)
		return ""
	}
}

func (b *fakeBot) lastChattable() tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[len(b.sent)-1]
}

type stubQuranAPI struct{}

func (stubQuranAPI) GetAyah(_ context.Context, ref entities.VerseRef, edition string) (client.Ayah, error) {
	return client.Ayah{
		Text:             "verse " + ref.String(),
		SurahNumber:      ref.Surah,
		NumberInSurah:    ref.Ayah,
		SurahEnglishName: "Al-Faatiha",
		Audio:            "https://cdn.example.org/" + edition + "/" + ref.String() + ".mp3",
	}, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeBot) {
	t.Helper()

	surahs, err := repository.NewSurahRepository("../../../assets/data/surahs.json")
	require.NoError(t, err)
	reciters, err := repository.NewReciterRepository("../../../assets/data/reciters.json")
	require.NoError(t, err)

	svc, err := service.NewQuizService(context.Background(), surahs, reciters, stubQuranAPI{},
		service.NewQuestionSelectorWithSeed(7), metrics.NewNop(), zap.NewNop(), service.QuizOptions{})
	require.NoError(t, err)

	bot := &fakeBot{}
	return NewHandler(bot, zap.NewNop(), svc, storage.NewQuizStorage(), reciters), bot
}

func command(chatID int64, text, cmd string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(cmd) + 1},
		},
	}}
}

func text(chatID int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
		Text: s,
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func TestParseQuizArgs(t *testing.T) {
	cfg, err := parseQuizArgs("2:1 2:20 audio ar.alafasy 3")
	require.NoError(t, err)
	assert.Equal(t, entities.VerseRef{Surah: 2, Ayah: 1}, cfg.Start())
	assert.Equal(t, entities.VerseRef{Surah: 2, Ayah: 20}, cfg.End())
	assert.Equal(t, entities.ModeAudio, cfg.Mode)
	assert.Equal(t, "ar.alafasy", cfg.Reciter)
	assert.Equal(t, "3", cfg.Attempts)

	cfg, err = parseQuizArgs("1:1 1:7")
	require.NoError(t, err)
	assert.Equal(t, entities.ModeVerseNumber, cfg.Mode)
	assert.Equal(t, "5", cfg.Attempts)

	_, err = parseQuizArgs("1:1")
	assert.Error(t, err)

	_, err = parseQuizArgs("one two")
	assert.Error(t, err)
}

func TestAnswerCallbackRoundTrip(t *testing.T) {
	ref := entities.VerseRef{Surah: 2, Ayah: 255}
	got, ok := parseAnswerCallback(decodeCallback(buildAnswerCallback(ref)))
	require.True(t, ok)
	assert.Equal(t, ref, got)

	_, ok = parseAnswerCallback(decodeCallback("answer:x"))
	assert.False(t, ok)
}

func TestHandler_QuizFlowWithTypedAnswer(t *testing.T) {
	h, bot := newTestHandler(t)
	ctx := context.Background()

	h.handleUpdate(ctx, command(1, "/quiz 1:1 1:1 1", "quiz"))
	assert.Contains(t, bot.last(t), "verse 1:1")

	h.handleUpdate(ctx, text(1, "1:1"))
	assert.Contains(t, bot.last(t), "Correct")

	h.handleUpdate(ctx, text(1, "1:2"))
	assert.Equal(t, msgAlreadyAnswered, bot.last(t))

	h.handleUpdate(ctx, command(1, "/next", "next"))
	assert.Contains(t, bot.last(t), "Quiz finished")

	h.handleUpdate(ctx, command(1, "/next", "next"))
	assert.Equal(t, msgNoQuiz, bot.last(t))
}

func TestHandler_WrongGuessKeepsAttempts(t *testing.T) {
	h, bot := newTestHandler(t)
	ctx := context.Background()

	h.handleUpdate(ctx, command(1, "/quiz 1:1 1:1 2", "quiz"))

	h.handleUpdate(ctx, text(1, "2:1"))
	assert.Contains(t, bot.last(t), "1 attempt left")

	h.handleUpdate(ctx, callback(1, buildAnswerCallback(entities.VerseRef{Surah: 2, Ayah: 2})))
	assert.Contains(t, bot.last(t), "Wrong")
	assert.Contains(t, bot.last(t), "1:1")

	assert.Len(t, bot.requests, 1, "callback answered")
}

func TestHandler_AudioModeSendsAudio(t *testing.T) {
	h, bot := newTestHandler(t)
	ctx := context.Background()

	h.handleUpdate(ctx, command(5, "/quiz 1:1 1:3 audio ar.alafasy", "quiz"))

	audio, ok := bot.lastChattable().(tgbotapi.AudioConfig)
	require.True(t, ok)
	assert.Contains(t, string(audio.File.(tgbotapi.FileURL)), "ar.alafasy")
	assert.NotContains(t, audio.Caption, "verse 1:", "verse text is hidden in audio mode")
}

func TestHandler_Errors(t *testing.T) {
	h, bot := newTestHandler(t)
	ctx := context.Background()

	h.handleUpdate(ctx, command(1, "/quiz", "quiz"))
	assert.Equal(t, msgQuizUsage, bot.last(t))

	h.handleUpdate(ctx, command(1, "/quiz 3:1 2:1", "quiz"))
	assert.Equal(t, msgInvalidRange, bot.last(t))

	h.handleUpdate(ctx, command(1, "/reveal", "reveal"))
	assert.Equal(t, msgNoQuiz, bot.last(t))

	h.handleUpdate(ctx, command(1, "/quiz 2:1 2:10", "quiz"))
	h.handleUpdate(ctx, command(1, "/next", "next"))
	assert.Equal(t, msgNotAnswered, bot.last(t))

	h.handleUpdate(ctx, text(1, "hello"))
	assert.Equal(t, msgBadAnswer, bot.last(t))

	h.handleUpdate(ctx, command(1, "/skip", "skip"))
	assert.Contains(t, bot.last(t), "Question 2")

	h.handleUpdate(ctx, command(1, "/stop", "stop"))
	assert.Contains(t, bot.last(t), "Skipped: 1")

	h.handleUpdate(ctx, command(1, "/dance", "dance"))
	assert.Equal(t, msgUnknownCommand, bot.last(t))
}

func TestHandler_RunStopsWhenUpdatesClose(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.NoError(t, h.Run(context.Background()))
}
