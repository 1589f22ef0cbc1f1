package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
)

var ErrSessionNotFound = errors.New("quiz session not found")

// QuizStorage provides in-memory storage for quiz sessions by session ID,
// plus the active session of each Telegram chat.
type QuizStorage struct {
	mu       sync.RWMutex
	sessions map[string]*entities.QuizSession
	touched  map[string]time.Time
	chats    map[int64]string
	now      func() time.Time
}

// NewQuizStorage creates a new QuizStorage.
func NewQuizStorage() *QuizStorage {
	return &QuizStorage{
		sessions: make(map[string]*entities.QuizSession),
		touched:  make(map[string]time.Time),
		chats:    make(map[int64]string),
		now:      time.Now,
	}
}

// Store saves a session under its ID.
func (s *QuizStorage) Store(session *entities.QuizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	s.touched[session.ID] = s.now()
}

// Get retrieves a session by ID and marks it as used.
func (s *QuizStorage) Get(id string) (*entities.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touched[id] = s.now()
	return session, nil
}

// Delete removes a session and any chat bound to it.
func (s *QuizStorage) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id)
}

func (s *QuizStorage) deleteLocked(id string) {
	delete(s.sessions, id)
	delete(s.touched, id)
	for chatID, sid := range s.chats {
		if sid == id {
			delete(s.chats, chatID)
		}
	}
}

// Sweep removes sessions that were not used for longer than idle and
// returns how many were removed.
func (s *QuizStorage) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	removed := 0
	for id, at := range s.touched {
		if at.Before(cutoff) {
			s.deleteLocked(id)
			removed++
		}
	}
	return removed
}

// BindChat stores session as the active session of chatID and returns the one it replaced.
func (s *QuizStorage) BindChat(chatID int64, session *entities.QuizSession) (prev *entities.QuizSession, hadPrev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.chats[chatID]; ok {
		prev, hadPrev = s.sessions[id]
		delete(s.sessions, id)
		delete(s.touched, id)
	}

	s.sessions[session.ID] = session
	s.touched[session.ID] = s.now()
	s.chats[chatID] = session.ID

	return prev, hadPrev
}

// GetByChat returns the active session of chatID.
func (s *QuizStorage) GetByChat(chatID int64) (*entities.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.chats[chatID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touched[id] = s.now()
	return session, nil
}

// UnbindChat removes the active session of chatID and returns it.
func (s *QuizStorage) UnbindChat(chatID int64) (*entities.QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.chats[chatID]
	if !ok {
		return nil, false
	}
	delete(s.chats, chatID)

	session, ok := s.sessions[id]
	delete(s.sessions, id)
	delete(s.touched, id)
	return session, ok
}

// Len returns the number of stored sessions.
func (s *QuizStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
