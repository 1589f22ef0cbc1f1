package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
	"github.com/aliskhannn/quran-audio-quiz/internal/metrics"
	"github.com/aliskhannn/quran-audio-quiz/pkg/validator"
)

var (
	ErrInvalidConfiguration = errors.New("invalid quiz configuration")
	ErrFetch                = errors.New("failed to load question")
)

// QuizOptions holds engine-wide settings.
type QuizOptions struct {
	Policy      entities.ExhaustionPolicy
	TextEdition string           // edition used for verse text in verse-number mode
	Now         func() time.Time // clock, defaults to time.Now
}

// QuizService drives quiz sessions: start, advance, answer, reveal and timing.
// It holds no session state itself; every operation receives the session it acts on.
type QuizService struct {
	surahRepo   SurahRepository
	reciterRepo ReciterRepository
	api         QuranAPI
	selector    *QuestionSelector
	options     *OptionGenerator
	parser      *AnswerParser
	metrics     *metrics.Metrics
	logger      *zap.Logger

	policy      entities.ExhaustionPolicy
	textEdition string
	now         func() time.Time
}

func NewQuizService(
	ctx context.Context,
	surahRepo SurahRepository,
	reciterRepo ReciterRepository,
	api QuranAPI,
	selector *QuestionSelector,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts QuizOptions,
) (*QuizService, error) {
	surahs, err := surahRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load surahs: %w", err)
	}

	if opts.Policy == "" {
		opts.Policy = entities.PolicyEnd
	}
	if opts.TextEdition == "" {
		opts.TextEdition = "quran-uthmani"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &QuizService{
		surahRepo:   surahRepo,
		reciterRepo: reciterRepo,
		api:         api,
		selector:    selector,
		options:     NewOptionGenerator(selector),
		parser:      NewAnswerParser(surahs),
		metrics:     m,
		logger:      logger,
		policy:      opts.Policy,
		textEdition: opts.TextEdition,
		now:         opts.Now,
	}, nil
}

// Start validates cfg, builds the question pool and opens a new session.
func (s *QuizService) Start(ctx context.Context, cfg entities.QuizConfiguration) (*entities.QuizSession, error) {
	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	attempts, err := strconv.Atoi(cfg.Attempts)
	if err != nil || attempts < 1 {
		return nil, fmt.Errorf("%w: attempts must be a positive integer, got %q", ErrInvalidConfiguration, cfg.Attempts)
	}

	if cfg.Mode == entities.ModeAudio {
		if _, err := s.reciterRepo.GetByID(ctx, cfg.Reciter); err != nil {
			return nil, fmt.Errorf("%w: reciter %q: %v", ErrInvalidConfiguration, cfg.Reciter, err)
		}
	}

	pool, err := BuildPool(ctx, s.surahRepo, cfg)
	if err != nil {
		return nil, err
	}

	session := entities.NewQuizSession(uuid.NewString(), cfg, pool, attempts, s.policy, s.now())
	s.metrics.QuizSessions.Inc()

	s.logger.Info("quiz started",
		zap.String("session_id", session.ID),
		zap.String("mode", string(cfg.Mode)),
		zap.String("from", cfg.Start().String()),
		zap.String("to", cfg.End().String()),
		zap.Int("pool_size", len(pool)),
	)

	return session, nil
}

// Next advances to a new question. The current question must be answered unless skip is set.
// On fetch failure the session is left untouched and the call may be retried.
func (s *QuizService) Next(ctx context.Context, session *entities.QuizSession, skip bool) (*entities.Question, error) {
	plan, err := session.BeginAdvance(skip, s.now(), s.selector.Pick)
	if err != nil {
		if errors.Is(err, entities.ErrPoolExhausted) {
			s.logger.Info("question pool exhausted", zap.String("session_id", session.ID))
		}
		return nil, err
	}

	q, err := s.buildQuestion(ctx, session, plan.Ref)
	if err != nil {
		session.AbortAdvance()
		s.metrics.QuizFetchErrors.Inc()
		s.logger.Warn("failed to load question",
			zap.String("session_id", session.ID),
			zap.String("verse", plan.Ref.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	if err := session.CommitAdvance(plan, q, s.now()); err != nil {
		return nil, err
	}

	return q, nil
}

func (s *QuizService) buildQuestion(ctx context.Context, session *entities.QuizSession, ref entities.VerseRef) (*entities.Question, error) {
	cfg := session.Config

	edition := s.textEdition
	if cfg.Mode == entities.ModeAudio {
		edition = cfg.Reciter
	}

	ayah, err := s.api.GetAyah(ctx, ref, edition)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == entities.ModeAudio && ayah.Audio == "" {
		return nil, fmt.Errorf("edition %q has no audio for %s", edition, ref)
	}

	q := &entities.Question{
		Ref:          ref,
		Mode:         cfg.Mode,
		Text:         ayah.Text,
		SurahName:    ayah.SurahName,
		SurahEnglish: ayah.SurahEnglishName,
	}

	if surah, err := s.surahRepo.GetByNumber(ctx, ref.Surah); err == nil && q.SurahEnglish == "" {
		q.SurahEnglish = surah.Name
	}

	if cfg.Mode == entities.ModeAudio {
		q.AudioURL = ayah.Audio
		q.Reciter = entities.Reciter{ID: cfg.Reciter}
		if rec, err := s.reciterRepo.GetByID(ctx, cfg.Reciter); err == nil {
			q.Reciter = *rec
		}
	}

	q.Options, q.CorrectIndex = s.options.GenerateOptions(ref, session.Pool)

	return q, nil
}

// Submit records an answer for the displayed question.
func (s *QuizService) Submit(session *entities.QuizSession, answer entities.VerseRef) (entities.AnswerResult, error) {
	res, err := session.Submit(answer, s.now())
	if err != nil {
		return res, err
	}

	if res.Accepted {
		s.metrics.QuizAnswers.WithLabelValues(string(session.Config.Mode), strconv.FormatBool(res.Correct)).Inc()
	}

	return res, nil
}

// SubmitText parses a typed answer and records it.
func (s *QuizService) SubmitText(session *entities.QuizSession, input string) (entities.AnswerResult, error) {
	ref, err := s.parser.Parse(input)
	if err != nil {
		return entities.AnswerResult{}, err
	}
	return s.Submit(session, ref)
}

// Reveal exposes the ground truth of the displayed question.
func (s *QuizService) Reveal(session *entities.QuizSession) (entities.Reveal, error) {
	return session.Reveal(s.now())
}

// Focus resumes the session timer.
func (s *QuizService) Focus(session *entities.QuizSession) {
	session.Focus(s.now())
}

// Blur pauses the session timer.
func (s *QuizService) Blur(session *entities.QuizSession) {
	session.Blur(s.now())
}

// Finish ends the run and returns its summary.
func (s *QuizService) Finish(session *entities.QuizSession) entities.SessionSnapshot {
	now := s.now()
	session.Finish(now)

	summary := session.Snapshot(now)
	s.logger.Info("quiz finished",
		zap.String("session_id", session.ID),
		zap.Int("correct", summary.Correct),
		zap.Int("incorrect", summary.Incorrect),
		zap.Duration("elapsed", summary.Elapsed),
	)

	return summary
}

// Summary returns the current state of the session.
func (s *QuizService) Summary(session *entities.QuizSession) entities.SessionSnapshot {
	return session.Snapshot(s.now())
}

// FormatDuration renders d as mm:ss, or h:mm:ss past one hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	h, m, sec := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
