package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/cache"
	"github.com/portfoligo/api-server/internals/leagues"
	"github.com/portfoligo/api-server/internals/notification"
	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

// CompleteHook runs once a league's draft has completed.
type CompleteHook func(ctx context.Context, leagueID string) error

// DraftService runs the draft of every league served by this process, one
// Session per league.
type DraftService struct {
	KV       kvstore.KVStore
	DB       *gorm.DB
	Leagues  *leagues.LeagueService
	Stocks   *stocks.StockService
	Notifier *notification.NotificationService
	Cache    *cache.CacheService

	log          zerolog.Logger
	tickInterval time.Duration
	onComplete   []CompleteHook

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(kv kvstore.KVStore, db *gorm.DB, log zerolog.Logger) *DraftService {
	return &DraftService{
		KV:           kv,
		DB:           db,
		Leagues:      leagues.New(kv, db),
		Stocks:       stocks.New(db),
		Notifier:     notification.New(kv, db),
		Cache:        cache.New(db, kv),
		log:          log.With().Str("component", "draft").Logger(),
		tickInterval: time.Second,
		sessions:     make(map[string]*Session),
	}
}

func (d *DraftService) SetTickInterval(interval time.Duration) {
	d.tickInterval = interval
}

func (d *DraftService) OnComplete(hook CompleteHook) {
	d.onComplete = append(d.onComplete, hook)
}

// Channel is the KV pub/sub channel carrying a league's draft events.
func Channel(leagueID string) string {
	return "draft_" + leagueID
}

func (d *DraftService) requireCommissioner(ctx context.Context, leagueID string, userID int) error {
	ok, err := d.Leagues.IsCommissioner(ctx, leagueID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return leagues.ErrNotCommissioner
	}
	return nil
}

// Start begins the league's draft. Teams draft in the order they joined.
func (d *DraftService) Start(ctx context.Context, leagueID string, userID int) (State, error) {
	if _, err := d.Leagues.GetLeague(ctx, leagueID); err != nil {
		return State{}, err
	}
	if err := d.requireCommissioner(ctx, leagueID, userID); err != nil {
		return State{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// a waiting draft is rebuilt so that teams and settings changed since a
	// reset are picked up
	s, err := d.sessionLocked(ctx, leagueID)
	switch {
	case errors.Is(err, ErrDraftNotFound):
	case err != nil:
		return State{}, err
	case s.State().Status != StatusWaiting:
		return State{}, ErrInvalidTransition
	default:
		s.Close()
	}

	s, err = d.prepareLocked(ctx, leagueID)
	if err != nil {
		return State{}, err
	}
	if err := s.Start(ctx); err != nil {
		return State{}, err
	}
	d.log.Info().Str("league_id", leagueID).Int("user_id", userID).Msg("draft started")
	return s.State(), nil
}

// prepareLocked builds a waiting session from the league's current settings
// and writes its record.
func (d *DraftService) prepareLocked(ctx context.Context, leagueID string) (*Session, error) {
	league, err := d.Leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	settings, err := d.Leagues.GetSettings(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	var rec SessionRecord
	err = d.DB.WithContext(ctx).Where("league_id = ?", leagueID).Take(&rec).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !exists {
		rec = SessionRecord{ID: uuid.NewString(), LeagueID: leagueID}
	}
	rec.Status = string(StatusWaiting)
	rec.Mode = settings.DraftMode
	rec.RosterLimit = league.RosterSize
	rec.PickSeconds = settings.PickSeconds
	rec.CurrentPick = 1
	rec.CurrentTeamIndex = 0
	rec.TimeRemaining = settings.PickSeconds
	rec.StartedAt = nil
	rec.CompletedAt = nil

	s, err := d.build(ctx, league, rec)
	if err != nil {
		return nil, err
	}
	if exists {
		err = d.DB.WithContext(ctx).Save(&rec).Error
	} else {
		err = d.DB.WithContext(ctx).Create(&rec).Error
	}
	if err != nil {
		return nil, fmt.Errorf("error writing draft session: %w", err)
	}
	d.sessions[leagueID] = s
	return s, nil
}

// build creates a waiting session for rec over the league's members and the
// current stock list.
func (d *DraftService) build(ctx context.Context, league leagues.League, rec SessionRecord) (*Session, error) {
	members, err := d.Leagues.Members(ctx, league.ID)
	if err != nil {
		return nil, err
	}
	teams := make([]Team, len(members))
	for i, m := range members {
		teams[i] = Team{ID: m.ID, Name: m.TeamName, OwnerID: m.UserID}
	}
	pool, err := d.Stocks.All(ctx)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		RosterLimit:  rec.RosterLimit,
		Mode:         Mode(rec.Mode),
		PickSeconds:  rec.PickSeconds,
		TickInterval: d.tickInterval,
	}
	log := d.log.With().Str("league_id", league.ID).Logger()
	return NewSession(cfg, teams, pool,
		WithStore(&gormStore{db: d.DB, sessionID: rec.ID, leagueID: league.ID}),
		WithListener(d.listener(league)),
		WithLogger(log),
	)
}

// session returns the league's live session, restoring it from the database
// after a restart.
func (d *DraftService) session(ctx context.Context, leagueID string) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessionLocked(ctx, leagueID)
}

func (d *DraftService) sessionLocked(ctx context.Context, leagueID string) (*Session, error) {
	if s, ok := d.sessions[leagueID]; ok {
		return s, nil
	}

	var rec SessionRecord
	err := d.DB.WithContext(ctx).Where("league_id = ?", leagueID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	league, err := d.Leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	s, err := d.build(ctx, league, rec)
	if err != nil {
		return nil, err
	}

	var records []PickRecord
	err = d.DB.WithContext(ctx).Where("draft_session_id = ?", rec.ID).Order("pick_number ASC").Find(&records).Error
	if err != nil {
		return nil, err
	}
	picks := make([]Pick, len(records))
	for i, r := range records {
		picks[i] = r.pick()
	}
	if err := s.Replay(picks, rec.progress()); err != nil {
		return nil, fmt.Errorf("error restoring draft of league %s: %w", leagueID, err)
	}
	d.log.Info().Str("league_id", leagueID).Int("picks", len(picks)).Msg("draft session restored")
	d.sessions[leagueID] = s
	return s, nil
}

// Pick drafts a stock. In strict mode the caller drafts for their own team.
// In commissioner mode the commissioner drafts for teamID, or for the team on
// the clock when teamID is empty.
func (d *DraftService) Pick(ctx context.Context, leagueID string, userID int, teamID, stockID string) (Pick, error) {
	s, err := d.session(ctx, leagueID)
	if err != nil {
		return Pick{}, err
	}

	if s.Config().Mode == ModeCommissioner {
		if err := d.requireCommissioner(ctx, leagueID, userID); err != nil {
			return Pick{}, err
		}
		p, err := s.Pick(ctx, teamID, stockID)
		if err != nil {
			return Pick{}, err
		}
		if p.OwnerID != userID {
			d.notify(ctx, notification.Notification{
				UserID:      p.OwnerID,
				LeagueID:    leagueID,
				Entity:      notification.EntityDraft,
				Actor:       userID,
				Description: fmt.Sprintf("The commissioner drafted %s to your team with pick %d", p.Stock.Symbol, p.Number),
			})
		}
		return p, nil
	}

	member, err := d.Leagues.Member(ctx, leagueID, userID)
	if err != nil {
		return Pick{}, err
	}
	return s.Pick(ctx, member.ID, stockID)
}

// AutoPick drafts the best available stock for the team on the clock. The
// commissioner and the owner of that team may ask for it.
func (d *DraftService) AutoPick(ctx context.Context, leagueID string, userID int) (Pick, error) {
	s, err := d.session(ctx, leagueID)
	if err != nil {
		return Pick{}, err
	}
	if err := d.requireCommissioner(ctx, leagueID, userID); err != nil {
		if !errors.Is(err, leagues.ErrNotCommissioner) {
			return Pick{}, err
		}
		member, merr := d.Leagues.Member(ctx, leagueID, userID)
		if merr != nil {
			return Pick{}, merr
		}
		if s.State().OnTheClock != member.ID {
			return Pick{}, ErrNotYourTurn
		}
	}
	return s.AutoPick(ctx)
}

func (d *DraftService) Pause(ctx context.Context, leagueID string, userID int) error {
	return d.control(ctx, leagueID, userID, (*Session).Pause)
}

func (d *DraftService) Resume(ctx context.Context, leagueID string, userID int) error {
	return d.control(ctx, leagueID, userID, (*Session).Resume)
}

func (d *DraftService) End(ctx context.Context, leagueID string, userID int) error {
	return d.control(ctx, leagueID, userID, (*Session).End)
}

func (d *DraftService) control(ctx context.Context, leagueID string, userID int, op func(*Session, context.Context) error) error {
	if err := d.requireCommissioner(ctx, leagueID, userID); err != nil {
		return err
	}
	s, err := d.session(ctx, leagueID)
	if err != nil {
		return err
	}
	return op(s, ctx)
}

// Reset clears the league's draft. The league goes back to draft_pending.
func (d *DraftService) Reset(ctx context.Context, leagueID string, userID int) ([]stocks.Stock, error) {
	if err := d.requireCommissioner(ctx, leagueID, userID); err != nil {
		return nil, err
	}
	s, err := d.session(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	returned, err := s.Reset(ctx)
	if err != nil {
		return nil, err
	}
	d.log.Info().Str("league_id", leagueID).Int("returned", len(returned)).Msg("draft reset")
	return returned, nil
}

func (d *DraftService) State(ctx context.Context, leagueID string) (State, error) {
	s, err := d.session(ctx, leagueID)
	if err != nil {
		return State{}, err
	}
	return s.State(), nil
}

func (d *DraftService) Picks(ctx context.Context, leagueID string) ([]Pick, error) {
	s, err := d.session(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return s.Picks(), nil
}

// Available lists the undrafted stocks matching f. Before a draft exists every
// stock is available.
func (d *DraftService) Available(ctx context.Context, leagueID string, f stocks.Filter) ([]stocks.Stock, error) {
	s, err := d.session(ctx, leagueID)
	if errors.Is(err, ErrDraftNotFound) {
		return d.Stocks.List(ctx, f)
	}
	if err != nil {
		return nil, err
	}
	return s.Search(f), nil
}

// Discard stops and forgets a league's draft and deletes its records.
func (d *DraftService) Discard(ctx context.Context, leagueID string) error {
	d.mu.Lock()
	if s, ok := d.sessions[leagueID]; ok {
		s.Close()
		delete(d.sessions, leagueID)
	}
	d.mu.Unlock()

	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("league_id = ?", leagueID).Delete(&PickRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("league_id = ?", leagueID).Delete(&SessionRecord{}).Error
	})
}

// Close stops every pick clock.
func (d *DraftService) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.sessions {
		s.Close()
	}
}

func (d *DraftService) notify(ctx context.Context, n notification.Notification) {
	if err := d.Notifier.Notify(ctx, n); err != nil {
		d.log.Error().Err(err).Int("user_id", n.UserID).Msg("could not send notification")
	}
}

// listener publishes every event of the league's session, keeps the roster
// cache in step with the picks, notifies owners of auto-picks and runs the
// completion hooks.
func (d *DraftService) listener(league leagues.League) Listener {
	log := d.log.With().Str("league_id", league.ID).Logger()
	return func(e Event) {
		ctx := context.Background()

		if out, err := json.Marshal(e); err != nil {
			log.Error().Err(err).Msg("could not encode draft event")
		} else if err := d.KV.Publish(Channel(league.ID), string(out)); err != nil {
			log.Error().Err(err).Str("event", string(e.Type)).Msg("could not publish draft event")
		}

		switch e.Type {
		case EventPick:
			p := e.Pick
			if err := d.Cache.InvalidateRoster(league.ID, p.OwnerID); err != nil {
				log.Warn().Err(err).Msg("could not invalidate roster cache")
			}
			if p.Auto {
				d.notify(ctx, notification.Notification{
					UserID:      p.OwnerID,
					LeagueID:    league.ID,
					Entity:      notification.EntityDraft,
					Description: fmt.Sprintf("%s was auto-drafted to your team with pick %d", p.Stock.Symbol, p.Number),
				})
			}
		case EventReset:
			if err := d.Cache.InvalidateLeague(league.ID); err != nil {
				log.Warn().Err(err).Msg("could not invalidate roster cache")
			}
		case EventCompleted:
			for _, t := range e.State.Teams {
				d.notify(ctx, notification.Notification{
					UserID:      t.OwnerID,
					LeagueID:    league.ID,
					Entity:      notification.EntityLeague,
					Description: fmt.Sprintf("The draft of %s is complete, your season starts now", league.Name),
				})
			}
			for _, hook := range d.onComplete {
				if err := hook(ctx, league.ID); err != nil {
					log.Error().Err(err).Msg("draft completion hook failed")
				}
			}
			log.Info().Int("picks", e.State.CurrentPick-1).Msg("draft completed")
		}
	}
}
