package service

import (
	"context"

	"github.com/aliskhannn/quran-audio-quiz/internal/client"
	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

type SurahRepository interface {
	GetByNumber(ctx context.Context, number int) (*entities.Surah, error)
	GetAll(ctx context.Context) ([]*entities.Surah, error)
}

type ReciterRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Reciter, error)
	GetAll(ctx context.Context) ([]*entities.Reciter, error)
}

// QuranAPI is the remote source of verse text and recitations.
type QuranAPI interface {
	GetAyah(ctx context.Context, ref entities.VerseRef, edition string) (client.Ayah, error)
}
