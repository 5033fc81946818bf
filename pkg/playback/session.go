package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the lifecycle state of a playback session.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateDenied   State = "denied"
	StateExpired  State = "expired"
)

// Grant is an access grant returned by the gate.
type Grant struct {
	Locator      string
	Binding      string
	Kind         string
	ExpiresAt    time.Time
	RevalidateIn time.Duration
}

// Revalidation is the gate's answer to a mid-playback recheck.
type Revalidation struct {
	Valid  bool
	Reason string
}

// DeniedError marks a definitive denial from the gate, as opposed to a
// transport failure. Only this error type moves a session to Denied.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "access denied: " + e.Reason
}

// AccessClient is the gate-facing side of a player.
type AccessClient interface {
	RequestAccess(ctx context.Context, resourceID string) (*Grant, error)
	Revalidate(ctx context.Context, resourceID, binding string) (*Revalidation, error)
}

// Config tunes session timing.
type Config struct {
	// RefreshBuffer is how long before expiry a fresh grant is requested.
	RefreshBuffer time.Duration
	// RefreshRetry is the delay before retrying a failed refresh.
	RefreshRetry time.Duration
	// RevalidateFallback is the revalidation interval used when a grant
	// does not carry one.
	RevalidateFallback time.Duration
}

// DefaultConfig returns session timing defaults.
func DefaultConfig() Config {
	return Config{
		RefreshBuffer:      60 * time.Second,
		RefreshRetry:       10 * time.Second,
		RevalidateFallback: 45 * time.Second,
	}
}

type commandKind int

const (
	cmdPlay commandKind = iota
	cmdPause
	cmdResume
	cmdStop
	cmdRevoke
)

type command struct {
	kind   commandKind
	reason string
	done   chan struct{}
}

// Session drives one resource's playback lifecycle against the gate. A
// single goroutine owns all timers and state transitions; callers
// interact through commands only.
//
// Two rules shape every transition: a transport failure never revokes
// playback (only an explicit denial does), and pausing suspends both
// the revalidation ticker and the refresh timer so a paused player
// makes no network calls at all.
type Session struct {
	client     AccessClient
	resourceID string
	cfg        Config
	logger     *zap.SugaredLogger

	cmds chan command

	mu      sync.RWMutex
	state   State
	grant   *Grant
	lastErr error

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewSession creates a session in Idle. Start must be called before any
// command has effect.
func NewSession(client AccessClient, resourceID string, cfg Config, logger *zap.SugaredLogger) *Session {
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = DefaultConfig().RefreshBuffer
	}
	if cfg.RefreshRetry <= 0 {
		cfg.RefreshRetry = DefaultConfig().RefreshRetry
	}
	if cfg.RevalidateFallback <= 0 {
		cfg.RevalidateFallback = DefaultConfig().RevalidateFallback
	}
	return &Session{
		client:     client,
		resourceID: resourceID,
		cfg:        cfg,
		logger:     logger,
		cmds:       make(chan command),
		state:      StateIdle,
		stopped:    make(chan struct{}),
	}
}

// Start launches the session goroutine. It returns immediately.
func (s *Session) Start(ctx context.Context) {
	go s.run(ctx)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Grant returns the active grant, or nil outside Playing/Paused.
func (s *Session) Grant() *Grant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grant
}

// LastErr returns the most recent transport error, if any. It is
// informational; the session keeps playing through transport errors.
func (s *Session) LastErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Play requests access and starts playback. Valid from Idle, Denied and
// Expired; a no-op elsewhere.
func (s *Session) Play() { s.send(command{kind: cmdPlay}) }

// Pause suspends playback and all timers. Valid from Playing.
func (s *Session) Pause() { s.send(command{kind: cmdPause}) }

// Resume revalidates immediately and, if still entitled, continues
// playback. Valid from Paused.
func (s *Session) Resume() { s.send(command{kind: cmdResume}) }

// Stop returns the session to Idle and discards the grant.
func (s *Session) Stop() { s.send(command{kind: cmdStop}) }

// Revoke forces the session to Denied. Wired to the gate's revocation
// push channel so a push beats the next timer tick.
func (s *Session) Revoke(reason string) { s.send(command{kind: cmdRevoke, reason: reason}) }

func (s *Session) send(cmd command) {
	cmd.done = make(chan struct{})
	select {
	case s.cmds <- cmd:
		<-cmd.done
	case <-s.stopped:
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) setGrant(g *Grant) {
	s.mu.Lock()
	s.grant = g
	s.mu.Unlock()
}

func (s *Session) setLastErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Session) run(ctx context.Context) {
	defer s.stopOnce.Do(func() { close(s.stopped) })

	// Both timers are created stopped and armed only while Playing.
	revalidate := time.NewTimer(time.Hour)
	revalidate.Stop()
	refresh := time.NewTimer(time.Hour)
	refresh.Stop()
	defer revalidate.Stop()
	defer refresh.Stop()

	stopTimers := func() {
		stopTimer(revalidate)
		stopTimer(refresh)
	}

	armTimers := func(g *Grant) {
		resetTimer(revalidate, s.revalidateEvery(g))

		untilRefresh := time.Until(g.ExpiresAt.Add(-s.cfg.RefreshBuffer))
		if untilRefresh < 0 {
			untilRefresh = 0
		}
		resetTimer(refresh, untilRefresh)
	}

	for {
		select {
		case <-ctx.Done():
			stopTimers()
			s.setState(StateIdle)
			return

		case cmd := <-s.cmds:
			s.handleCommand(ctx, cmd, stopTimers, armTimers)
			close(cmd.done)

		case <-revalidate.C:
			if s.State() != StatePlaying {
				continue
			}
			g := s.Grant()
			result, err := s.client.Revalidate(ctx, s.resourceID, g.Binding)
			if err != nil {
				// Transport failure: keep playing, try again next tick.
				s.setLastErr(err)
				s.logger.Warnw("revalidation failed, continuing playback",
					"resource_id", s.resourceID,
					"error", err,
				)
				resetTimer(revalidate, s.revalidateEvery(g))
				continue
			}
			s.setLastErr(nil)
			if !result.Valid {
				stopTimers()
				s.setGrant(nil)
				s.setState(StateDenied)
				s.logger.Infow("playback revoked",
					"resource_id", s.resourceID,
					"reason", result.Reason,
				)
				continue
			}
			resetTimer(revalidate, s.revalidateEvery(g))

		case <-refresh.C:
			if s.State() != StatePlaying {
				continue
			}
			grant, err := s.client.RequestAccess(ctx, s.resourceID)
			if err != nil {
				var denied *DeniedError
				if errors.As(err, &denied) {
					stopTimers()
					s.setGrant(nil)
					s.setState(StateDenied)
					continue
				}
				s.setLastErr(err)
				old := s.Grant()
				if old != nil && time.Now().After(old.ExpiresAt) {
					// Grant ran out while the gate was unreachable.
					stopTimers()
					s.setGrant(nil)
					s.setState(StateExpired)
					continue
				}
				resetTimer(refresh, s.cfg.RefreshRetry)
				continue
			}
			s.setLastErr(nil)
			s.setGrant(grant)
			armTimers(grant)
		}
	}
}

func (s *Session) handleCommand(ctx context.Context, cmd command, stopTimers func(), armTimers func(*Grant)) {
	switch cmd.kind {
	case cmdPlay:
		switch s.State() {
		case StateIdle, StateDenied, StateExpired:
		default:
			return
		}
		s.setState(StateFetching)
		grant, err := s.client.RequestAccess(ctx, s.resourceID)
		if err != nil {
			var denied *DeniedError
			if errors.As(err, &denied) {
				s.setState(StateDenied)
				return
			}
			// Could not reach the gate: back to Idle, caller may retry.
			s.setLastErr(err)
			s.setState(StateIdle)
			return
		}
		s.setLastErr(nil)
		s.setGrant(grant)
		s.setState(StatePlaying)
		armTimers(grant)

	case cmdPause:
		if s.State() != StatePlaying {
			return
		}
		stopTimers()
		s.setState(StatePaused)

	case cmdResume:
		if s.State() != StatePaused {
			return
		}
		g := s.Grant()
		if g == nil || time.Now().After(g.ExpiresAt) {
			// Paused past expiry: a resume is a fresh Play.
			s.setState(StateIdle)
			s.handleCommand(ctx, command{kind: cmdPlay}, stopTimers, armTimers)
			return
		}
		// Revalidate before resuming; the entitlement may have been
		// revoked while paused.
		result, err := s.client.Revalidate(ctx, s.resourceID, g.Binding)
		if err != nil {
			s.setLastErr(err)
			s.setState(StatePlaying)
			armTimers(g)
			return
		}
		if !result.Valid {
			s.setGrant(nil)
			s.setState(StateDenied)
			return
		}
		s.setState(StatePlaying)
		armTimers(g)

	case cmdStop:
		stopTimers()
		s.setGrant(nil)
		s.setState(StateIdle)

	case cmdRevoke:
		switch s.State() {
		case StatePlaying, StatePaused, StateFetching:
			stopTimers()
			s.setGrant(nil)
			s.setState(StateDenied)
			s.logger.Infow("playback revoked by push",
				"resource_id", s.resourceID,
				"reason", cmd.reason,
			)
		}
	}
}

// revalidateEvery resolves a grant's revalidation interval. Grants
// without one fall back to the configured interval on every arm and
// re-arm, so a missing interval can never degenerate into a tight loop.
func (s *Session) revalidateEvery(g *Grant) time.Duration {
	if g.RevalidateIn > 0 {
		return g.RevalidateIn
	}
	return s.cfg.RevalidateFallback
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	if d <= 0 {
		d = time.Nanosecond
	}
	t.Reset(d)
}
