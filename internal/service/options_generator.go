package service

import (
	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

const optionsPerQuestion = 4

// OptionGenerator generates multiple choice options for quiz questions.
type OptionGenerator struct {
	selector *QuestionSelector
}

// NewOptionGenerator creates a new option generator.
func NewOptionGenerator(selector *QuestionSelector) *OptionGenerator {
	return &OptionGenerator{selector: selector}
}

// GenerateOptions returns up to 4 distinct references including correct, and the index of correct.
// Distractors come from the pool so they stay inside the range being practised.
func (g *OptionGenerator) GenerateOptions(correct entities.VerseRef, pool []entities.VerseRef) ([]entities.VerseRef, int) {
	options := make([]entities.VerseRef, 0, optionsPerQuestion)
	options = append(options, correct)

	for _, candidate := range g.selector.Shuffled(pool) {
		if len(options) == optionsPerQuestion {
			break
		}
		if candidate == correct {
			continue
		}
		options = append(options, candidate)
	}

	options = g.selector.Shuffled(options)

	correctIndex := 0
	for i, opt := range options {
		if opt == correct {
			correctIndex = i
			break
		}
	}

	return options, correctIndex
}
