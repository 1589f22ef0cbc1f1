package entities

// Question is one displayed quiz question.
type Question struct {
	Ref          VerseRef   // ground truth
	Mode         QuizMode   // presentation mode
	Text         string     // verse text (Arabic)
	SurahName    string     // Arabic surah name from the remote source
	SurahEnglish string     // transliterated surah name
	AudioURL     string     // recitation URL, audio mode only
	Reciter      Reciter    // reciter used for the audio
	Options      []VerseRef // multiple choice
	CorrectIndex int
}

// Reveal is the ground truth of a question with its explanatory metadata.
type Reveal struct {
	Ref          VerseRef `json:"ref"`
	SurahName    string   `json:"surah_name"`
	SurahEnglish string   `json:"surah_english"`
	Text         string   `json:"text"`
	ReciterName  string   `json:"reciter_name,omitempty"`
	AudioURL     string   `json:"audio_url,omitempty"`
}

// RevealOf builds the reveal for q. Reciter details are only surfaced in audio mode.
func RevealOf(q *Question) Reveal {
	r := Reveal{
		Ref:          q.Ref,
		SurahName:    q.SurahName,
		SurahEnglish: q.SurahEnglish,
		Text:         q.Text,
	}
	if q.Mode == ModeAudio {
		r.ReciterName = q.Reciter.Name
		r.AudioURL = q.AudioURL
	}
	return r
}
