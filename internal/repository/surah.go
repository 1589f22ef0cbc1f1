package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

var (
	ErrSurahNotFound   = errors.New("surah not found")
	ErrInvalidNumber   = errors.New("invalid surah number")
	ErrReciterNotFound = errors.New("reciter not found")
)

// SurahRepository provides access to the static chapter catalog.
type SurahRepository struct {
	surahs []*entities.Surah
}

// NewSurahRepository loads the 114 surahs from a JSON file.
func NewSurahRepository(path string) (*SurahRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return NewSurahRepositoryFromJSON(data)
}

// NewSurahRepositoryFromJSON parses a catalog of the form {"surahs": [...]}.
func NewSurahRepositoryFromJSON(data []byte) (*SurahRepository, error) {
	var wrapper struct {
		Surahs []*entities.Surah `json:"surahs"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal surahs JSON: %w", err)
	}

	if len(wrapper.Surahs) != entities.SurahCount {
		return nil, fmt.Errorf("expected %d surahs, got %d", entities.SurahCount, len(wrapper.Surahs))
	}

	for i, s := range wrapper.Surahs {
		if s.Number != i+1 || s.Ayahs < 1 {
			return nil, fmt.Errorf("malformed surah entry at position %d", i+1)
		}
	}

	return &SurahRepository{surahs: wrapper.Surahs}, nil
}

// GetByNumber retrieves a surah by its number (1-114).
func (r *SurahRepository) GetByNumber(_ context.Context, number int) (*entities.Surah, error) {
	if number < 1 || number > entities.SurahCount {
		return nil, ErrInvalidNumber
	}

	// Entries are validated to be ordered by number.
	return r.surahs[number-1], nil
}

// GetAll retrieves all 114 surahs.
func (r *SurahRepository) GetAll(_ context.Context) ([]*entities.Surah, error) {
	return r.surahs, nil
}

// ReciterRepository provides access to the reciter editions.
type ReciterRepository struct {
	reciters []*entities.Reciter
}

// NewReciterRepository loads reciters from a JSON file of the form {"reciters": [...]}.
func NewReciterRepository(path string) (*ReciterRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Reciters []*entities.Reciter `json:"reciters"`
	}
	if err = json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reciters JSON: %w", err)
	}

	if len(wrapper.Reciters) == 0 {
		return nil, errors.New("reciters list is empty")
	}

	return &ReciterRepository{reciters: wrapper.Reciters}, nil
}

// NewReciterRepositoryFrom builds a repository from an in-memory list.
func NewReciterRepositoryFrom(reciters []*entities.Reciter) *ReciterRepository {
	return &ReciterRepository{reciters: reciters}
}

// GetByID retrieves a reciter by its edition identifier.
func (r *ReciterRepository) GetByID(_ context.Context, id string) (*entities.Reciter, error) {
	for _, rec := range r.reciters {
		if rec.ID == id {
			return rec, nil
		}
	}

	return nil, ErrReciterNotFound
}

// GetAll retrieves every reciter.
func (r *ReciterRepository) GetAll(_ context.Context) ([]*entities.Reciter, error) {
	return r.reciters, nil
}
