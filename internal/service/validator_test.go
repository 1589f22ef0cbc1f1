package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

func TestAnswerParser_Parse(t *testing.T) {
	surahs, err := loadSurahs(t).GetAll(context.Background())
	require.NoError(t, err)
	p := NewAnswerParser(surahs)

	tests := []struct {
		input   string
		want    entities.VerseRef
		wantErr bool
	}{
		{input: "2:255", want: entities.VerseRef{Surah: 2, Ayah: 255}},
		{input: " 18.10 ", want: entities.VerseRef{Surah: 18, Ayah: 10}},
		{input: "٢:٢٥٥", want: entities.VerseRef{Surah: 2, Ayah: 255}},
		{input: "Al-Baqarah 255", want: entities.VerseRef{Surah: 2, Ayah: 255}},
		{input: "surah kahf 10", want: entities.VerseRef{Surah: 18, Ayah: 10}},
		{input: "Yasin 1", want: entities.VerseRef{Surah: 36, Ayah: 1}},
		{input: "al ikhlas 4", want: entities.VerseRef{Surah: 112, Ayah: 4}},
		{input: "ikhlas", wantErr: true},
		{input: "xyzzy 3", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := p.Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnrecognizedAnswer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("kahf", "kahf"))
	assert.Equal(t, 1, levenshteinDistance("baqara", "baqarah"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 4, levenshteinDistance("", "abcd"))
}
