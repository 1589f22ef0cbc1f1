package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

func TestBuildPool_SingleSurah(t *testing.T) {
	pool, err := BuildPool(context.Background(), loadSurahs(t), rangeConfig(2, 1, 2, 3, "1"))
	require.NoError(t, err)

	assert.Equal(t, []entities.VerseRef{{Surah: 2, Ayah: 1}, {Surah: 2, Ayah: 2}, {Surah: 2, Ayah: 3}}, pool)
}

func TestBuildPool_CrossesSurahs(t *testing.T) {
	pool, err := BuildPool(context.Background(), loadSurahs(t), rangeConfig(1, 6, 2, 2, "1"))
	require.NoError(t, err)

	assert.Equal(t, []entities.VerseRef{
		{Surah: 1, Ayah: 6},
		{Surah: 1, Ayah: 7},
		{Surah: 2, Ayah: 1},
		{Surah: 2, Ayah: 2},
	}, pool)
}

func TestBuildPool_WholeQuran(t *testing.T) {
	pool, err := BuildPool(context.Background(), loadSurahs(t), rangeConfig(1, 1, 114, 6, "1"))
	require.NoError(t, err)
	assert.Len(t, pool, 6236)
}

func TestBuildPool_InvalidRanges(t *testing.T) {
	tests := []struct {
		name string
		cfg  entities.QuizConfiguration
	}{
		{name: "end surah before start surah", cfg: rangeConfig(3, 1, 2, 1, "1")},
		{name: "end verse before start verse", cfg: rangeConfig(2, 10, 2, 5, "1")},
		{name: "start verse beyond surah", cfg: rangeConfig(1, 8, 2, 1, "1")},
		{name: "end verse beyond surah", cfg: rangeConfig(1, 1, 1, 8, "1")},
		{name: "verse zero", cfg: rangeConfig(1, 0, 1, 3, "1")},
		{name: "surah zero", cfg: rangeConfig(0, 1, 1, 3, "1")},
		{name: "surah past the end", cfg: rangeConfig(1, 1, 115, 1, "1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPool(context.Background(), loadSurahs(t), tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestBuildPool_SizeMatchesRange(t *testing.T) {
	surahs := loadSurahs(t)
	all, err := surahs.GetAll(context.Background())
	require.NoError(t, err)

	// global index of the first verse of every surah
	offsets := make([]int, len(all)+1)
	for i, s := range all {
		offsets[i+1] = offsets[i] + s.Ayahs
	}
	index := func(ref entities.VerseRef) int { return offsets[ref.Surah-1] + ref.Ayah }

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		s1 := 1 + rng.Intn(114)
		s2 := s1 + rng.Intn(114-s1+1)
		v1 := 1 + rng.Intn(all[s1-1].Ayahs)
		v2 := 1 + rng.Intn(all[s2-1].Ayahs)
		if s1 == s2 && v2 < v1 {
			v1, v2 = v2, v1
		}

		cfg := rangeConfig(s1, v1, s2, v2, "1")
		pool, err := BuildPool(context.Background(), surahs, cfg)
		require.NoError(t, err)

		want := index(cfg.End()) - index(cfg.Start()) + 1
		require.Len(t, pool, want, "range %s → %s", cfg.Start(), cfg.End())

		seen := make(map[entities.VerseRef]struct{}, len(pool))
		for _, ref := range pool {
			seen[ref] = struct{}{}
		}
		require.Len(t, seen, len(pool))
	}
}
