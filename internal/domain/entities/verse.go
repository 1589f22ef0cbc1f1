// Package entities contains domain entities used across the application.
package entities

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SurahCount is the number of chapters in the Quran.
const SurahCount = 114

var ErrMalformedVerseRef = errors.New("malformed verse reference")

// VerseRef identifies one verse by its chapter (surah) and verse (ayah) number.
type VerseRef struct {
	Surah int `json:"surah"` // chapter number (1-114)
	Ayah  int `json:"ayah"`  // verse number inside the chapter
}

// String formats the reference as "surah:ayah".
func (v VerseRef) String() string {
	return fmt.Sprintf("%d:%d", v.Surah, v.Ayah)
}

// Before reports whether v comes strictly before other in mushaf order.
func (v VerseRef) Before(other VerseRef) bool {
	if v.Surah != other.Surah {
		return v.Surah < other.Surah
	}
	return v.Ayah < other.Ayah
}

// ParseVerseRef parses "2:255" (also accepting "2.255" and "2 255").
func ParseVerseRef(s string) (VerseRef, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == '.' || r == ' ' || r == '/'
	})
	if len(parts) != 2 {
		return VerseRef{}, fmt.Errorf("%w: %q", ErrMalformedVerseRef, s)
	}

	surah, err1 := strconv.Atoi(toWesternDigits(parts[0]))
	ayah, err2 := strconv.Atoi(toWesternDigits(parts[1]))
	if err1 != nil || err2 != nil {
		return VerseRef{}, fmt.Errorf("%w: %q", ErrMalformedVerseRef, s)
	}

	return VerseRef{Surah: surah, Ayah: ayah}, nil
}

// toWesternDigits maps Arabic-Indic and Persian digits to ASCII digits.
func toWesternDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

// Surah describes one chapter of the Quran.
type Surah struct {
	Number int    `json:"number"` // chapter number (1-114)
	Name   string `json:"name"`   // transliterated name
	Ayahs  int    `json:"ayahs"`  // number of verses
}

// Reciter is a named audio source identified by a short edition code.
type Reciter struct {
	ID   string `json:"id"`   // edition identifier, e.g. "ar.alafasy"
	Name string `json:"name"` // display name
}
