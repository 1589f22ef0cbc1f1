package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

var ErrUnrecognizedAnswer = errors.New("unrecognized answer")

// AnswerParser turns typed answers ("2:255", "Al-Baqarah 255", "baqara 255") into verse references.
// Surah names are matched with fuzzy matching support.
type AnswerParser struct {
	threshold float64 // Similarity threshold (0.0 - 1.0)
	names     map[string]int
}

// NewAnswerParser creates a new AnswerParser over the surah catalog.
func NewAnswerParser(surahs []*entities.Surah) *AnswerParser {
	names := make(map[string]int, len(surahs)*2)
	for _, s := range surahs {
		names[normalizeName(s.Name)] = s.Number

		// Also index the name without its article ("Al-Baqarah" → "baqarah").
		if head, rest, ok := strings.Cut(s.Name, "-"); ok && len(head) <= 3 && strings.HasPrefix(strings.ToLower(head), "a") {
			names[normalizeName(rest)] = s.Number
		}
	}

	return &AnswerParser{
		threshold: 0.8, // 80% similarity required
		names:     names,
	}
}

// Parse parses the input into a verse reference.
func (p *AnswerParser) Parse(input string) (entities.VerseRef, error) {
	if ref, err := entities.ParseVerseRef(input); err == nil {
		return ref, nil
	}

	fields := strings.Fields(input)
	if len(fields) < 2 {
		return entities.VerseRef{}, fmt.Errorf("%w: %q", ErrUnrecognizedAnswer, input)
	}

	ayah, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return entities.VerseRef{}, fmt.Errorf("%w: %q", ErrUnrecognizedAnswer, input)
	}

	surah, ok := p.matchSurah(strings.Join(fields[:len(fields)-1], " "))
	if !ok {
		return entities.VerseRef{}, fmt.Errorf("%w: %q", ErrUnrecognizedAnswer, input)
	}

	return entities.VerseRef{Surah: surah, Ayah: ayah}, nil
}

// matchSurah resolves a surah given by number or by (possibly misspelled) name.
func (p *AnswerParser) matchSurah(s string) (int, bool) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n, true
	}

	name := normalizeName(s)
	if name == "" {
		return 0, false
	}

	// Exact match
	if n, ok := p.names[name]; ok {
		return n, true
	}

	// Fuzzy match using Levenshtein distance
	best, bestScore := 0, 0.0
	for candidate, n := range p.names {
		score := similarity(name, candidate)
		if score > bestScore || (score == bestScore && n < best) {
			best, bestScore = n, score
		}
	}

	return best, bestScore >= p.threshold
}

// normalizeName lowercases s and keeps letters only, dropping a leading "surah" word.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, prefix := range []string{"surah ", "surat ", "sura "} {
		s = strings.TrimPrefix(s, prefix)
	}

	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

// similarity calculates the similarity between two strings using Levenshtein distance.
func similarity(s1, s2 string) float64 {
	distance := levenshteinDistance(s1, s2)
	maxLen := max(len([]rune(s1)), len([]rune(s2)))

	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

// levenshteinDistance calculates the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)

	rows := len(r1) + 1
	cols := len(r2) + 1

	// Use two rows instead of full matrix for space optimization
	prev := make([]int, cols)
	curr := make([]int, cols)

	for j := 0; j < cols; j++ {
		prev[j] = j
	}

	for i := 1; i < rows; i++ {
		curr[0] = i

		for j := 1; j < cols; j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}

			curr[j] = min(
				curr[j-1]+1,    // Insertion
				prev[j]+1,      // Deletion
				prev[j-1]+cost, // Substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[cols-1]
}
