package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

var ErrUnavailable = errors.New("quran api unavailable")

// Ayah is one verse as returned by the remote source.
type Ayah struct {
	Number           int    // global verse number (1-6236)
	NumberInSurah    int    // verse number inside its surah
	Text             string // verse text in the requested edition
	Audio            string // recitation URL, only for audio editions
	SurahNumber      int
	SurahName        string // Arabic surah name
	SurahEnglishName string
}

type ayahResponse struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type ayahData struct {
	Number        int    `json:"number"`
	Text          string `json:"text"`
	Audio         string `json:"audio"`
	NumberInSurah int    `json:"numberInSurah"`
	Surah         struct {
		Number      int    `json:"number"`
		Name        string `json:"name"`
		EnglishName string `json:"englishName"`
	} `json:"surah"`
}

// AlQuranAPI talks to the alquran.cloud API.
type AlQuranAPI struct {
	baseURL string
	http    *http.Client
}

// NewAlQuranAPI creates a client for baseURL (e.g. https://api.alquran.cloud/v1).
func NewAlQuranAPI(baseURL string, timeout time.Duration) *AlQuranAPI {
	return &AlQuranAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// GetAyah fetches one verse in the given edition. Audio editions also carry the recitation URL.
func (a *AlQuranAPI) GetAyah(ctx context.Context, ref entities.VerseRef, edition string) (Ayah, error) {
	url := fmt.Sprintf("%s/ayah/%d:%d/%s", a.baseURL, ref.Surah, ref.Ayah, edition)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Ayah{}, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return Ayah{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var body ayahResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Ayah{}, fmt.Errorf("%w: decode ayah %s: %v", ErrUnavailable, ref, err)
	}

	if resp.StatusCode != http.StatusOK || body.Code != http.StatusOK {
		return Ayah{}, fmt.Errorf("%w: ayah %s/%s: status %d", ErrUnavailable, ref, edition, resp.StatusCode)
	}

	var data ayahData
	if err := json.Unmarshal(body.Data, &data); err != nil {
		return Ayah{}, fmt.Errorf("%w: decode ayah %s: %v", ErrUnavailable, ref, err)
	}

	return Ayah{
		Number:           data.Number,
		NumberInSurah:    data.NumberInSurah,
		Text:             data.Text,
		Audio:            data.Audio,
		SurahNumber:      data.Surah.Number,
		SurahName:        data.Surah.Name,
		SurahEnglishName: data.Surah.EnglishName,
	}, nil
}
