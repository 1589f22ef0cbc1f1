package entities

import (
	"errors"
	"sync"
	"time"
)

// QuizMode selects how a question is presented.
type QuizMode string

const (
	ModeVerseNumber QuizMode = "verse-number" // show the verse text, ask for its reference
	ModeAudio       QuizMode = "audio"        // play the recitation, ask for its reference
)

// ExhaustionPolicy decides what happens once every verse of the pool was asked.
type ExhaustionPolicy string

const (
	PolicyEnd       ExhaustionPolicy = "end"
	PolicyReshuffle ExhaustionPolicy = "reshuffle"
)

var (
	ErrAdvanceInProgress = errors.New("another advance is in progress")
	ErrNotAnswered       = errors.New("current question has not been answered")
	ErrPoolExhausted     = errors.New("question pool exhausted")
	ErrSessionFinished   = errors.New("quiz session is finished")
	ErrNoQuestion        = errors.New("no question is displayed")
)

// QuizConfiguration is set once at quiz start and never changes during a run.
type QuizConfiguration struct {
	StartSurah int      `json:"start_surah"`
	StartVerse int      `json:"start_verse"`
	EndSurah   int      `json:"end_surah"`
	EndVerse   int      `json:"end_verse"`
	Attempts   string   `json:"attempts" validate:"required,numeric"` // guesses allowed per question
	Reciter    string   `json:"reciter" validate:"required"`
	Mode       QuizMode `json:"mode" validate:"required,oneof=verse-number audio"`
}

// DefaultQuizConfiguration returns the configuration the quiz page opens with.
func DefaultQuizConfiguration() QuizConfiguration {
	return QuizConfiguration{
		StartSurah: 1,
		StartVerse: 1,
		EndSurah:   SurahCount,
		EndVerse:   6,
		Attempts:   "5",
		Reciter:    "ar.shuraym",
		Mode:       ModeVerseNumber,
	}
}

// Start returns the first verse of the configured range.
func (c QuizConfiguration) Start() VerseRef {
	return VerseRef{Surah: c.StartSurah, Ayah: c.StartVerse}
}

// End returns the last verse of the configured range.
func (c QuizConfiguration) End() VerseRef {
	return VerseRef{Surah: c.EndSurah, Ayah: c.EndVerse}
}

// HistoryRecord is one scored question.
type HistoryRecord struct {
	Ref       VerseRef      `json:"ref"`
	Answer    *VerseRef     `json:"answer,omitempty"` // nil when the question was forfeited by a reveal
	Correct   bool          `json:"correct"`
	Attempts  int           `json:"attempts"`
	TimeTaken time.Duration `json:"time_taken"`
}

// AnswerResult describes what happened to a submitted answer.
type AnswerResult struct {
	Accepted     bool           // the question was scored by this answer
	Duplicate    bool           // the question had already been scored; nothing changed
	Correct      bool           // the guess matched the ground truth
	AttemptsLeft int            // remaining guesses when a wrong guess was not yet scored
	Record       *HistoryRecord // set when Accepted
}

// AdvancePlan is the outcome of BeginAdvance, applied by CommitAdvance.
type AdvancePlan struct {
	Ref       VerseRef
	Skip      bool
	Reshuffle bool
}

// QuizSession is the state of one quiz run. All methods are safe for concurrent use.
type QuizSession struct {
	ID          string
	Config      QuizConfiguration
	Pool        []VerseRef
	MaxAttempts int
	Policy      ExhaustionPolicy

	mu              sync.Mutex
	asked           map[VerseRef]struct{}
	correct         int
	incorrect       int
	skipped         int
	round           int
	startedAt       time.Time
	endedAt         *time.Time
	activeElapsed   time.Duration
	lastFocus       *time.Time
	history         []HistoryRecord
	answeredCurrent bool
	advancing       bool
	current         *Question
	shownAt         time.Duration // active elapsed time when current was displayed
	attemptsUsed    int
}

// NewQuizSession creates a focused session whose timer starts at now.
func NewQuizSession(
	id string,
	cfg QuizConfiguration,
	pool []VerseRef,
	maxAttempts int,
	policy ExhaustionPolicy,
	now time.Time,
) *QuizSession {
	focus := now
	return &QuizSession{
		ID:          id,
		Config:      cfg,
		Pool:        pool,
		MaxAttempts: maxAttempts,
		Policy:      policy,
		asked:       make(map[VerseRef]struct{}, len(pool)),
		round:       1,
		startedAt:   now,
		lastFocus:   &focus,
	}
}

// Focus resumes the timer. It is a no-op when already focused or finished.
func (s *QuizSession) Focus(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endedAt != nil || s.lastFocus != nil {
		return
	}
	s.lastFocus = &now
}

// Blur pauses the timer, banking the focused interval.
func (s *QuizSession) Blur(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeIntervalLocked(now)
}

// Elapsed returns the focused time spent in the quiz so far.
func (s *QuizSession) Elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked(now)
}

func (s *QuizSession) elapsedLocked(now time.Time) time.Duration {
	d := s.activeElapsed
	if s.lastFocus != nil && now.After(*s.lastFocus) {
		d += now.Sub(*s.lastFocus)
	}
	return d
}

func (s *QuizSession) closeIntervalLocked(now time.Time) {
	if s.lastFocus == nil {
		return
	}
	if now.After(*s.lastFocus) {
		s.activeElapsed += now.Sub(*s.lastFocus)
	}
	s.lastFocus = nil
}

// BeginAdvance reserves the session for an advance and picks the next verse.
// Exactly one advance may be in flight; it must be closed by CommitAdvance or AbortAdvance.
func (s *QuizSession) BeginAdvance(skip bool, now time.Time, pick func([]VerseRef) VerseRef) (AdvancePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endedAt != nil {
		return AdvancePlan{}, ErrSessionFinished
	}
	if s.advancing {
		return AdvancePlan{}, ErrAdvanceInProgress
	}

	pending := s.current != nil && !s.answeredCurrent
	if pending && !skip {
		return AdvancePlan{}, ErrNotAnswered
	}

	plan := AdvancePlan{Skip: pending}

	remaining := s.remainingLocked()
	if len(remaining) == 0 {
		if s.Policy != PolicyReshuffle {
			if pending {
				s.markSkippedLocked()
			}
			s.finishLocked(now)
			return AdvancePlan{}, ErrPoolExhausted
		}

		plan.Reshuffle = true
		remaining = s.reshuffledLocked()
	}

	plan.Ref = pick(remaining)
	s.advancing = true

	return plan, nil
}

// AbortAdvance releases the session after a failed advance, leaving it untouched.
func (s *QuizSession) AbortAdvance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advancing = false
}

// CommitAdvance displays q as the current question.
func (s *QuizSession) CommitAdvance(plan AdvancePlan, q *Question, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.advancing = false
	if s.endedAt != nil {
		return ErrSessionFinished
	}

	if plan.Skip && s.current != nil && !s.answeredCurrent {
		s.markSkippedLocked()
	}
	if plan.Reshuffle {
		s.asked = make(map[VerseRef]struct{}, len(s.Pool))
		s.round++
	}

	s.current = q
	s.answeredCurrent = false
	s.attemptsUsed = 0
	s.shownAt = s.elapsedLocked(now)

	return nil
}

// Submit records an answer for the displayed question.
// Once the question is scored further answers are ignored until the next advance.
func (s *QuizSession) Submit(answer VerseRef, now time.Time) (AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endedAt != nil {
		return AnswerResult{}, ErrSessionFinished
	}
	if s.current == nil {
		return AnswerResult{}, ErrNoQuestion
	}
	if s.answeredCurrent {
		return AnswerResult{Duplicate: true}, nil
	}

	s.attemptsUsed++
	correct := answer == s.current.Ref

	if !correct && s.attemptsUsed < s.MaxAttempts {
		return AnswerResult{AttemptsLeft: s.MaxAttempts - s.attemptsUsed}, nil
	}

	rec := s.scoreLocked(&answer, correct, now)
	return AnswerResult{Accepted: true, Correct: correct, Record: rec}, nil
}

// Reveal returns the ground truth of the displayed question.
// Revealing an unanswered question forfeits it as incorrect.
func (s *QuizSession) Reveal(now time.Time) (Reveal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return Reveal{}, ErrNoQuestion
	}
	if !s.answeredCurrent && s.endedAt == nil {
		s.scoreLocked(nil, false, now)
	}

	return RevealOf(s.current), nil
}

func (s *QuizSession) scoreLocked(answer *VerseRef, correct bool, now time.Time) *HistoryRecord {
	if correct {
		s.correct++
	} else {
		s.incorrect++
	}

	rec := HistoryRecord{
		Ref:       s.current.Ref,
		Answer:    answer,
		Correct:   correct,
		Attempts:  s.attemptsUsed,
		TimeTaken: s.elapsedLocked(now) - s.shownAt,
	}
	s.history = append(s.history, rec)
	s.answeredCurrent = true
	s.asked[s.current.Ref] = struct{}{}

	return &rec
}

func (s *QuizSession) markSkippedLocked() {
	s.asked[s.current.Ref] = struct{}{}
	s.skipped++
	s.answeredCurrent = true
}

// remainingLocked lists pool entries not yet asked, excluding the displayed question.
func (s *QuizSession) remainingLocked() []VerseRef {
	out := make([]VerseRef, 0, len(s.Pool)-len(s.asked))
	for _, ref := range s.Pool {
		if _, ok := s.asked[ref]; ok {
			continue
		}
		if s.current != nil && s.current.Ref == ref {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// reshuffledLocked lists the whole pool for a new round, avoiding an immediate repeat.
func (s *QuizSession) reshuffledLocked() []VerseRef {
	if len(s.Pool) == 1 || s.current == nil {
		return append([]VerseRef(nil), s.Pool...)
	}
	out := make([]VerseRef, 0, len(s.Pool)-1)
	for _, ref := range s.Pool {
		if ref != s.current.Ref {
			out = append(out, ref)
		}
	}
	return out
}

// Finish closes the run. It is idempotent.
func (s *QuizSession) Finish(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked(now)
}

func (s *QuizSession) finishLocked(now time.Time) {
	if s.endedAt != nil {
		return
	}
	s.closeIntervalLocked(now)
	s.endedAt = &now
}

// SessionSnapshot is a consistent read-only view of a session.
type SessionSnapshot struct {
	ID              string            `json:"id"`
	Config          QuizConfiguration `json:"config"`
	PoolSize        int               `json:"pool_size"`
	Asked           int               `json:"asked"`
	Correct         int               `json:"correct"`
	Incorrect       int               `json:"incorrect"`
	Skipped         int               `json:"skipped"`
	Round           int               `json:"round"`
	StartedAt       time.Time         `json:"started_at"`
	EndedAt         *time.Time        `json:"ended_at,omitempty"`
	Elapsed         time.Duration     `json:"elapsed"`
	Focused         bool              `json:"focused"`
	AnsweredCurrent bool              `json:"answered_current"`
	AttemptsUsed    int               `json:"attempts_used"`
	History         []HistoryRecord   `json:"history"`
	Current         *Question         `json:"-"`
}

// Finished reports whether the run is over.
func (s SessionSnapshot) Finished() bool {
	return s.EndedAt != nil
}

// Score returns the share of correct answers in percent.
func (s SessionSnapshot) Score() float64 {
	total := s.Correct + s.Incorrect
	if total == 0 {
		return 0
	}
	return float64(s.Correct) * 100 / float64(total)
}

// Snapshot copies the session state at now.
func (s *QuizSession) Snapshot(now time.Time) SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionSnapshot{
		ID:              s.ID,
		Config:          s.Config,
		PoolSize:        len(s.Pool),
		Asked:           len(s.asked),
		Correct:         s.correct,
		Incorrect:       s.incorrect,
		Skipped:         s.skipped,
		Round:           s.round,
		StartedAt:       s.startedAt,
		EndedAt:         s.endedAt,
		Elapsed:         s.elapsedLocked(now),
		Focused:         s.lastFocus != nil,
		AnsweredCurrent: s.answeredCurrent,
		AttemptsUsed:    s.attemptsUsed,
		History:         append([]HistoryRecord(nil), s.history...),
		Current:         s.current,
	}
}
