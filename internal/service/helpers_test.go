package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/quran-audio-quiz/internal/client"
	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
	"github.com/aliskhannn/quran-audio-quiz/internal/metrics"
	"github.com/aliskhannn/quran-audio-quiz/internal/repository"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeQuranAPI struct {
	mu      sync.Mutex
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeQuranAPI) GetAyah(ctx context.Context, ref entities.VerseRef, edition string) (client.Ayah, error) {
	f.mu.Lock()
	f.calls++
	err, started, release := f.err, f.started, f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return client.Ayah{}, ctx.Err()
		}
	}
	if err != nil {
		return client.Ayah{}, err
	}

	ayah := client.Ayah{
		Text:          "verse " + ref.String(),
		NumberInSurah: ref.Ayah,
		SurahNumber:   ref.Surah,
		SurahName:     "سورة",
	}
	if strings.HasPrefix(edition, "ar.") {
		ayah.Audio = "https://cdn.example.org/" + edition + "/" + ref.String() + ".mp3"
	}
	return ayah, nil
}

func (f *fakeQuranAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func loadSurahs(t *testing.T) *repository.SurahRepository {
	t.Helper()
	repo, err := repository.NewSurahRepository("../../assets/data/surahs.json")
	require.NoError(t, err)
	return repo
}

func newTestService(t *testing.T, api QuranAPI, policy entities.ExhaustionPolicy) (*QuizService, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	reciters := repository.NewReciterRepositoryFrom([]*entities.Reciter{
		{ID: "ar.alafasy", Name: "Mishary Rashid Alafasy"},
		{ID: "ar.shuraym", Name: "Saood Ash-Shuraym"},
	})

	svc, err := NewQuizService(
		context.Background(),
		loadSurahs(t),
		reciters,
		api,
		NewQuestionSelectorWithSeed(42),
		metrics.NewNop(),
		zap.NewNop(),
		QuizOptions{Policy: policy, Now: clock.Now},
	)
	require.NoError(t, err)

	return svc, clock
}

func rangeConfig(startSurah, startVerse, endSurah, endVerse int, attempts string) entities.QuizConfiguration {
	cfg := entities.DefaultQuizConfiguration()
	cfg.StartSurah, cfg.StartVerse = startSurah, startVerse
	cfg.EndSurah, cfg.EndVerse = endSurah, endVerse
	cfg.Attempts = attempts
	return cfg
}
