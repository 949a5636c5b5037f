package services

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrSessionNotFound is returned for unknown or expired form sessions
var ErrSessionNotFound = errors.New("search session not found")

// ErrSessionsStopped is returned by Open once the service has been stopped
var ErrSessionsStopped = errors.New("search sessions are shutting down")

// FormSession is one mounted search form, i.e. one page view
type FormSession struct {
	ID        string
	ClientID  string
	Form      *SearchForm
	CreatedAt time.Time

	seq      uint64 // open order, oldest first
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *FormSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns when the session was last used
func (s *FormSession) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// FormFactory builds a fresh, unmounted search form
type FormFactory func() *SearchForm

// FormSessionService keeps the open search forms and closes idle ones
type FormSessionService struct {
	newForm      FormFactory
	logger       *logrus.Logger
	idleTTL      time.Duration
	interval     time.Duration
	maxPerClient int
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*FormSession
	seq      uint64
	stopped  bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewFormSessionService creates a session registry. A client holding
// maxPerClient sessions has its oldest one closed on the next Open;
// zero means no cap.
func NewFormSessionService(newForm FormFactory, idleTTL, interval time.Duration, maxPerClient int, logger *logrus.Logger) *FormSessionService {
	return &FormSessionService{
		newForm:      newForm,
		logger:       logger,
		idleTTL:      idleTTL,
		interval:     interval,
		maxPerClient: maxPerClient,
		now:          time.Now,
		sessions:     make(map[string]*FormSession),
		stopCh:       make(chan struct{}),
	}
}

// Open mounts a new form for the client and registers it
func (s *FormSessionService) Open(clientID string) (*FormSession, error) {
	form := s.newForm()
	now := s.now()
	session := &FormSession{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Form:      form,
		CreatedAt: now,
		lastSeen:  now,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		form.Close()
		return nil, ErrSessionsStopped
	}
	evicted := s.evictOldestLocked(clientID)
	s.seq++
	session.seq = s.seq
	s.sessions[session.ID] = session
	s.mu.Unlock()

	// A concurrent Stop may already have closed the form; Mount is then a no-op
	form.Mount(nil)
	closeForms(evicted)

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"client_id":  clientID,
		"evicted":    len(evicted),
	}).Info("Search session opened")

	return session, nil
}

// evictOldestLocked unregisters the client's oldest sessions so one more
// fits under the cap. Caller holds s.mu and closes the returned forms.
func (s *FormSessionService) evictOldestLocked(clientID string) map[string]*FormSession {
	if s.maxPerClient <= 0 {
		return nil
	}

	var owned []*FormSession
	for _, session := range s.sessions {
		if session.ClientID == clientID {
			owned = append(owned, session)
		}
	}
	if len(owned) < s.maxPerClient {
		return nil
	}

	sort.Slice(owned, func(i, j int) bool { return owned[i].seq < owned[j].seq })
	evicted := make(map[string]*FormSession)
	for _, session := range owned[:len(owned)-s.maxPerClient+1] {
		evicted[session.ID] = session
		delete(s.sessions, session.ID)
	}
	return evicted
}

// Get returns an open session and marks it as used
func (s *FormSessionService) Get(id string) (*FormSession, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	session.touch(s.now())
	return session, nil
}

// Close tears down one session
func (s *FormSessionService) Close(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Form.Close()
	s.logger.WithField("session_id", id).Info("Search session closed")
	return nil
}

// Count returns the number of open sessions
func (s *FormSessionService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Start begins the idle-session sweeper
func (s *FormSessionService) Start() {
	s.logger.WithFields(logrus.Fields{
		"idle_ttl": s.idleTTL.String(),
		"interval": s.interval.String(),
	}).Info("Starting search session sweeper")
	go s.run()
}

// Stop halts the sweeper and closes every open session
func (s *FormSessionService) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping search session sweeper")
		close(s.stopCh)
	})

	s.mu.Lock()
	s.stopped = true
	sessions := s.sessions
	s.sessions = make(map[string]*FormSession)
	s.mu.Unlock()

	closeForms(sessions)
}

// closeForms tears forms down concurrently; each Close waits for its own
// in-flight backend calls
func closeForms(sessions map[string]*FormSession) {
	var g errgroup.Group
	g.SetLimit(16)
	for _, session := range sessions {
		form := session.Form
		g.Go(func() error {
			form.Close()
			return nil
		})
	}
	_ = g.Wait()
}

func (s *FormSessionService) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepIdle()
		case <-s.stopCh:
			s.logger.Info("Search session sweeper stopped")
			return
		}
	}
}

// SweepIdle closes sessions unused for longer than the idle TTL
func (s *FormSessionService) SweepIdle() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	expired := make(map[string]*FormSession)
	for id, session := range s.sessions {
		if session.LastSeen().Before(cutoff) {
			expired[id] = session
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	closeForms(expired)

	if len(expired) > 0 {
		s.logger.WithField("count", len(expired)).Info("Closed idle search sessions")
	}
	return len(expired)
}
