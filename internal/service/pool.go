package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

var ErrInvalidRange = errors.New("invalid verse range")

// BuildPool expands the configured start→end range into an ordered list of verse references.
// The range is inclusive and never wraps around.
func BuildPool(ctx context.Context, surahs SurahRepository, cfg entities.QuizConfiguration) ([]entities.VerseRef, error) {
	start, end := cfg.Start(), cfg.End()

	if start.Surah < 1 || end.Surah > entities.SurahCount || end.Surah < start.Surah {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidRange, start, end)
	}

	first, err := surahs.GetByNumber(ctx, start.Surah)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	last, err := surahs.GetByNumber(ctx, end.Surah)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}

	if start.Ayah < 1 || start.Ayah > first.Ayahs {
		return nil, fmt.Errorf("%w: surah %d has no verse %d", ErrInvalidRange, start.Surah, start.Ayah)
	}
	if end.Ayah < 1 || end.Ayah > last.Ayahs {
		return nil, fmt.Errorf("%w: surah %d has no verse %d", ErrInvalidRange, end.Surah, end.Ayah)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, end, start)
	}

	var pool []entities.VerseRef
	for n := start.Surah; n <= end.Surah; n++ {
		surah, err := surahs.GetByNumber(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}

		from, to := 1, surah.Ayahs
		if n == start.Surah {
			from = start.Ayah
		}
		if n == end.Surah {
			to = end.Ayah
		}

		for a := from; a <= to; a++ {
			pool = append(pool, entities.VerseRef{Surah: n, Ayah: a})
		}
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: empty range", ErrInvalidRange)
	}

	return pool, nil
}
