package telegram

import (
	"strconv"
	"strings"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

// Callback action constants.
const (
	actionAnswer = "answer"
	actionNext   = "next"
	actionSkip   = "skip"
	actionReveal = "reveal"
	actionStop   = "stop"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	if len(parts) == 0 {
		return callbackData{Raw: data}
	}

	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildAnswerCallback carries the chosen reference itself so stale buttons cannot answer a newer question by index.
func buildAnswerCallback(ref entities.VerseRef) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{strconv.Itoa(ref.Surah), strconv.Itoa(ref.Ayah)},
	}.encode()
}

func parseAnswerCallback(cd callbackData) (entities.VerseRef, bool) {
	if cd.Action != actionAnswer || len(cd.Params) != 2 {
		return entities.VerseRef{}, false
	}

	surah, err1 := strconv.Atoi(cd.Params[0])
	ayah, err2 := strconv.Atoi(cd.Params[1])
	if err1 != nil || err2 != nil {
		return entities.VerseRef{}, false
	}

	return entities.VerseRef{Surah: surah, Ayah: ayah}, true
}
