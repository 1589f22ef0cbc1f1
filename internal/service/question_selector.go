package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

// QuestionSelector picks verses uniformly at random.
type QuestionSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewQuestionSelector creates a new QuestionSelector seeded from the clock.
func NewQuestionSelector() *QuestionSelector {
	return NewQuestionSelectorWithSeed(time.Now().UnixNano())
}

// NewQuestionSelectorWithSeed creates a deterministic QuestionSelector.
func NewQuestionSelectorWithSeed(seed int64) *QuestionSelector {
	return &QuestionSelector{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Pick returns one of the candidates. Candidates must not be empty.
func (s *QuestionSelector) Pick(candidates []entities.VerseRef) entities.VerseRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return candidates[s.rng.Intn(len(candidates))]
}

// Shuffled returns a shuffled copy of the input slice.
func (s *QuestionSelector) Shuffled(in []entities.VerseRef) []entities.VerseRef {
	out := append([]entities.VerseRef(nil), in...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	return out
}
