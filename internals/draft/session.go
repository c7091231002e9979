package draft

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/portfoligo/api-server/internals/roster"
	"github.com/portfoligo/api-server/internals/stocks"
)

type Option func(*Session)

func WithStore(st Store) Option {
	return func(s *Session) { s.store = st }
}

func WithListener(l Listener) Option {
	return func(s *Session) { s.listener = l }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session allocates stocks from a pool to teams in turn. Every operation holds
// the session lock for its whole read-modify-write.
type Session struct {
	mu        sync.Mutex
	cfg       Config
	teams     []Team
	teamIndex map[string]int
	rosters   []*roster.Roster
	pool      *stocks.Pool
	picks     []Pick
	progress  Progress

	store    Store
	listener Listener
	log      zerolog.Logger
	now      func() time.Time

	timerGen  uint64
	stopTimer func()
}

// NewSession builds a waiting session.
func NewSession(cfg Config, teams []Team, pool []stocks.Stock, opts ...Option) (*Session, error) {
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: no teams", ErrInvalidConfiguration)
	}
	if cfg.RosterLimit <= 0 {
		return nil, fmt.Errorf("%w: roster limit must be positive", ErrInvalidConfiguration)
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeStrict
	}
	if cfg.Mode != ModeStrict && cfg.Mode != ModeCommissioner {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfiguration, cfg.Mode)
	}
	if cfg.PickSeconds < 0 {
		return nil, fmt.Errorf("%w: negative pick clock", ErrInvalidConfiguration)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}

	s := &Session{
		cfg:       cfg,
		teams:     make([]Team, len(teams)),
		teamIndex: make(map[string]int, len(teams)),
		rosters:   make([]*roster.Roster, len(teams)),
		pool:      stocks.NewPool(pool),
		progress:  Progress{Status: StatusWaiting, CurrentPick: 1, TimeRemaining: cfg.PickSeconds},
		store:     nopStore{},
		listener:  func(Event) {},
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	copy(s.teams, teams)
	for i, t := range teams {
		if _, dup := s.teamIndex[t.ID]; dup || t.ID == "" {
			return nil, fmt.Errorf("%w: duplicate or empty team id %q", ErrInvalidConfiguration, t.ID)
		}
		s.teamIndex[t.ID] = i
		s.rosters[i] = roster.New(cfg.RosterLimit)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StartDraft builds a session and starts it.
func StartDraft(ctx context.Context, cfg Config, teams []Team, pool []stocks.Stock, opts ...Option) (*Session, error) {
	s, err := NewSession(cfg, teams, pool, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Config() Config {
	return s.cfg
}

func (s *Session) totalPicks() int {
	return len(s.teams) * s.cfg.RosterLimit
}

func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress.Status != StatusWaiting {
		return ErrInvalidTransition
	}
	next := s.progress
	next.Status = StatusActive
	next.TimeRemaining = s.cfg.PickSeconds
	now := s.now()
	next.StartedAt = &now
	if err := s.store.SaveState(ctx, next); err != nil {
		return err
	}
	s.progress = next
	s.startTimerLocked()
	s.emitLocked(EventStarted, nil)
	return nil
}

// Pick drafts stockID to teamID. In commissioner mode an empty teamID means
// the team on the clock.
func (s *Session) Pick(ctx context.Context, teamID, stockID string) (Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickLocked(ctx, teamID, stockID, false)
}

func (s *Session) pickLocked(ctx context.Context, teamID, stockID string, auto bool) (Pick, error) {
	if s.progress.Status != StatusActive {
		return Pick{}, ErrSessionNotActive
	}

	onClock := s.progress.CurrentTeamIndex
	ti, known := s.teamIndex[teamID]
	if s.cfg.Mode == ModeStrict {
		if !known || ti != onClock {
			return Pick{}, ErrNotYourTurn
		}
	} else {
		if teamID == "" {
			ti, known = onClock, true
		}
		if !known {
			return Pick{}, ErrTeamNotFound
		}
	}

	stock, ok := s.pool.Get(stockID)
	if !ok {
		return Pick{}, ErrStockUnavailable
	}
	r := s.rosters[ti]
	if r.Full() {
		return Pick{}, ErrRosterFull
	}
	if r.Has(stockID) {
		return Pick{}, ErrStockAlreadyOwned
	}

	team := s.teams[ti]
	p := Pick{
		Number:        s.progress.CurrentPick,
		TeamID:        team.ID,
		OwnerID:       team.OwnerID,
		StockID:       stock.ID,
		Stock:         stock,
		DraftPosition: r.Len() + 1,
		PickedAt:      s.now(),
		Auto:          auto,
	}
	next := s.progress
	next.CurrentPick++
	next.CurrentTeamIndex = (next.CurrentTeamIndex + 1) % len(s.teams)
	next.TimeRemaining = s.cfg.PickSeconds
	if next.CurrentPick > s.totalPicks() {
		next.Status = StatusCompleted
		done := p.PickedAt
		next.CompletedAt = &done
	}

	if err := s.store.SavePick(ctx, p, next); err != nil {
		return Pick{}, err
	}

	s.pool.Take(stock.ID)
	r.Add(stock)
	s.picks = append(s.picks, p)
	s.progress = next

	if next.Status == StatusCompleted {
		s.stopTimerLocked()
	} else {
		s.startTimerLocked()
	}
	s.emitLocked(EventPick, &p)
	if next.Status == StatusCompleted {
		s.emitLocked(EventCompleted, nil)
	}
	return p, nil
}

// AutoPick drafts the best available stock for the team on the clock.
func (s *Session) AutoPick(ctx context.Context) (Pick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPickLocked(ctx)
}

func (s *Session) autoPickLocked(ctx context.Context) (Pick, error) {
	if s.progress.Status != StatusActive {
		return Pick{}, ErrSessionNotActive
	}
	best, ok := s.pool.Best()
	if !ok {
		return Pick{}, ErrStockUnavailable
	}
	team := s.teams[s.progress.CurrentTeamIndex]
	return s.pickLocked(ctx, team.ID, best.ID, true)
}

func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress.Status != StatusActive {
		return ErrInvalidTransition
	}
	next := s.progress
	next.Status = StatusPaused
	if err := s.store.SaveState(ctx, next); err != nil {
		return err
	}
	s.progress = next
	s.stopTimerLocked()
	s.emitLocked(EventPaused, nil)
	return nil
}

// Resume continues the pick clock from where Pause stopped it.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress.Status != StatusPaused {
		return ErrInvalidTransition
	}
	next := s.progress
	next.Status = StatusActive
	if err := s.store.SaveState(ctx, next); err != nil {
		return err
	}
	s.progress = next
	s.startTimerLocked()
	s.emitLocked(EventResumed, nil)
	return nil
}

// End completes the draft before every slot is filled.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress.Status != StatusActive && s.progress.Status != StatusPaused {
		return ErrInvalidTransition
	}
	return s.completeLocked(ctx)
}

func (s *Session) completeLocked(ctx context.Context) error {
	next := s.progress
	next.Status = StatusCompleted
	now := s.now()
	next.CompletedAt = &now
	if err := s.store.SaveState(ctx, next); err != nil {
		return err
	}
	s.progress = next
	s.stopTimerLocked()
	s.emitLocked(EventCompleted, nil)
	return nil
}

// Reset returns every drafted stock to the pool, clears the rosters and the
// pick log and puts the session back in waiting. It returns the stocks that
// went back to the pool.
func (s *Session) Reset(ctx context.Context) ([]stocks.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Progress{Status: StatusWaiting, CurrentPick: 1, TimeRemaining: s.cfg.PickSeconds}
	if err := s.store.ResetDraft(ctx, next); err != nil {
		return nil, err
	}

	s.stopTimerLocked()
	returned := make([]stocks.Stock, 0, len(s.picks))
	for i := len(s.picks) - 1; i >= 0; i-- {
		returned = append(returned, s.picks[i].Stock)
		s.pool.Restore(s.picks[i].Stock)
	}
	for _, r := range s.rosters {
		r.Clear()
	}
	s.picks = nil
	s.progress = next
	s.emitLocked(EventReset, nil)
	return returned, nil
}

// Replay rebuilds a waiting session from a persisted pick log and progress.
// Rosters hold the logged snapshots, not the pool's current values.
func (s *Session) Replay(picks []Pick, p Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.picks) > 0 || s.progress.Status != StatusWaiting {
		return ErrInvalidTransition
	}

	sorted := make([]Pick, len(picks))
	copy(sorted, picks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	held := make(map[string]bool, len(sorted))
	counts := make([]int, len(s.teams))
	for i, pk := range sorted {
		if pk.Number != i+1 {
			return fmt.Errorf("%w: pick log is not contiguous at %d", ErrInvalidConfiguration, i+1)
		}
		ti, ok := s.teamIndex[pk.TeamID]
		if !ok {
			return ErrTeamNotFound
		}
		if held[pk.StockID] {
			return ErrStockAlreadyOwned
		}
		held[pk.StockID] = true
		counts[ti]++
		if counts[ti] > s.cfg.RosterLimit {
			return ErrRosterFull
		}
	}

	for _, pk := range sorted {
		s.pool.Take(pk.StockID)
		s.rosters[s.teamIndex[pk.TeamID]].Add(pk.Stock)
	}
	s.picks = sorted
	if p.CurrentPick == 0 {
		p.CurrentPick = len(sorted) + 1
		p.CurrentTeamIndex = len(sorted) % len(s.teams)
	}
	if p.Status == "" {
		p.Status = StatusWaiting
	}
	s.progress = p
	if p.Status == StatusActive {
		s.startTimerLocked()
	}
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	teams := make([]TeamState, len(s.teams))
	for i, t := range s.teams {
		teams[i] = TeamState{Team: t, Roster: s.rosters[i].Entries()}
	}
	st := State{
		Progress:    s.progress,
		Mode:        s.cfg.Mode,
		RosterLimit: s.cfg.RosterLimit,
		TotalPicks:  s.totalPicks(),
		Available:   s.pool.Len(),
		Teams:       teams,
	}
	if s.progress.Status != StatusCompleted {
		st.OnTheClock = s.teams[s.progress.CurrentTeamIndex].ID
	}
	return st
}

func (s *Session) Picks() []Pick {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Pick, len(s.picks))
	copy(out, s.picks)
	return out
}

func (s *Session) Available() []stocks.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Available()
}

func (s *Session) Search(f stocks.Filter) []stocks.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Search(f)
}

// Roster lists the stocks of one team in draft order.
func (s *Session) Roster(teamID string) ([]stocks.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ti, ok := s.teamIndex[teamID]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return s.rosters[ti].List(), nil
}

// Close stops the pick clock without changing the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

func (s *Session) emitLocked(t EventType, p *Pick) {
	s.listener(Event{Type: t, State: s.stateLocked(), Pick: p})
}

// startTimerLocked (re)starts the pick clock. Ticks from an older clock are
// ignored through the generation counter.
func (s *Session) startTimerLocked() {
	s.stopTimerLocked()
	if !s.cfg.timed() {
		return
	}
	s.timerGen++
	gen := s.timerGen
	done := make(chan struct{})
	s.stopTimer = func() { close(done) }
	go s.runTimer(gen, done)
}

func (s *Session) stopTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	s.timerGen++
}

func (s *Session) runTimer(gen uint64, done <-chan struct{}) {
	t := time.NewTicker(s.cfg.TickInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			s.mu.Lock()
			if gen == s.timerGen {
				s.tickLocked(context.Background())
			}
			s.mu.Unlock()
		}
	}
}

func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(context.Background())
}

// tickLocked counts the clock down by one and auto-picks when it runs out. An
// exhausted pool ends the draft.
func (s *Session) tickLocked(ctx context.Context) {
	if s.progress.Status != StatusActive || !s.cfg.timed() {
		return
	}
	if s.progress.TimeRemaining > 0 {
		s.progress.TimeRemaining--
	}
	if s.progress.TimeRemaining > 0 {
		s.emitLocked(EventTick, nil)
		return
	}

	p, err := s.autoPickLocked(ctx)
	switch {
	case err == nil:
		s.log.Info().Int("pick", p.Number).Str("team_id", p.TeamID).Str("stock_id", p.StockID).Msg("pick clock expired, auto-picked")
	case errors.Is(err, ErrStockUnavailable):
		if err := s.completeLocked(ctx); err != nil {
			s.log.Error().Err(err).Msg("could not complete draft with an empty pool")
		}
	default:
		s.log.Error().Err(err).Msg("auto-pick failed, retrying on next tick")
	}
}
