package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"vaultview/internal/catalog"
	"vaultview/internal/player"
)

// Session is the transient state of one page load: its player and the ids
// hidden after playback failures.
type Session struct {
	ID        string
	Player    *player.Player
	Broken    *catalog.BrokenSet
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Config struct {
	IdleTimeout time.Duration
	Player      player.Config
}

// Store keeps sessions in memory only.
type Store struct {
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(cfg Config, logger zerolog.Logger) *Store {
	return &Store{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (s *Store) Create() *Session {
	now := s.now()
	broken := catalog.NewBrokenSet()
	id := uuid.NewString()

	sess := &Session{
		ID:        id,
		Broken:    broken,
		Player:    player.New(broken, s.cfg.Player, s.logger.With().Str("session", id).Logger()),
		CreatedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Debug().Str("session", id).Msg("session created")
	return sess
}

// Get returns the session and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.Player.Stop()
	}
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the configured timeout.
func (s *Store) Sweep() int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.IdleTimeout)

	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Player.Stop()
	}
	return len(expired)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.cfg.IdleTimeout <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug().Msg("session sweeper stopped")
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Info().Int("expired", n).Int("remaining", s.Len()).Msg("expired idle sessions")
				}
			}
		}
	}()
}
