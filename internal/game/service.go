// Package game exposes the guessing-game operations on top of the hub: it
// loads catalog pools, draws targets and renders per-viewer session views.
package game

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/DoyleJ11/pokeguess-backend/internal/hub"
	"github.com/DoyleJ11/pokeguess-backend/internal/lobby"
	"github.com/DoyleJ11/pokeguess-backend/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Catalog is the part of the catalog a draw needs.
type Catalog interface {
	BaseEvolution(ctx context.Context) ([]catalog.Creature, error)
	NonLegendary(ctx context.Context) ([]catalog.Creature, error)
	FinalEvolution(ctx context.Context) ([]catalog.Creature, error)
	LegendaryOrMythical(ctx context.Context) ([]catalog.Creature, error)
}

type Options struct {
	Rand   engine.Rand
	Clock  func() time.Time
	Logger *zap.Logger
}

type Service struct {
	hub     *hub.Hub
	catalog Catalog
	rng     engine.Rand
	clock   func() time.Time
	log     *zap.Logger
}

func NewService(h *hub.Hub, cat Catalog, opts Options) *Service {
	if opts.Rand == nil {
		now := uint64(time.Now().UnixNano())
		opts.Rand = NewLockedRand(now, now>>17|1)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		hub:     h,
		catalog: cat,
		rng:     opts.Rand,
		clock:   opts.Clock,
		log:     opts.Logger.Named("game"),
	}
}

func (s *Service) CreateSession(ctx context.Context, player1 string) (types.CreatedSession, error) {
	lb, err := s.hub.Create(ctx, player1)
	if err != nil {
		return types.CreatedSession{}, err
	}
	v, err := lb.State(ctx)
	if err != nil {
		return types.CreatedSession{}, err
	}
	return types.CreatedSession{SessionID: v.Session.ID, JoinCode: v.Session.JoinCode}, nil
}

// StartSession draws the targets for mode and starts the session. playerID
// may be empty; when set it must belong to the session.
func (s *Service) StartSession(ctx context.Context, sessionID, playerID, mode string, solo bool) (types.SessionView, error) {
	m, err := engine.ParseMode(mode)
	if err != nil {
		return types.SessionView{}, err
	}
	lb, err := s.hub.Get(ctx, sessionID)
	if err != nil {
		return types.SessionView{}, err
	}
	current, err := lb.State(ctx)
	if err != nil {
		return types.SessionView{}, err
	}

	pools, err := s.loadPools(ctx, m)
	if err != nil {
		return types.SessionView{}, err
	}
	targets, err := engine.DrawTargets(m, pools, s.rng, current.Session.Rules.RareProbability)
	if err != nil {
		return types.SessionView{}, err
	}

	res, err := s.do(ctx, sessionID, engine.Command{
		Type:     engine.CmdStart,
		PlayerID: playerID,
		Mode:     m,
		Solo:     solo,
		Targets:  targets,
	})
	if err != nil {
		return types.SessionView{}, err
	}
	s.log.Info("session started",
		zap.String("session_id", sessionID),
		zap.String("mode", string(m)),
		zap.Bool("solo", solo),
	)
	return BuildView(res.Session, playerID, res.At), nil
}

// loadPools fetches the pools mode draws from, concurrently.
func (s *Service) loadPools(ctx context.Context, mode engine.Mode) (engine.Pools, error) {
	var pools engine.Pools
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range mode.Pools() {
		switch kind {
		case engine.PoolBase:
			g.Go(func() (err error) { pools.Base, err = s.catalog.BaseEvolution(gctx); return })
		case engine.PoolNonLegendary:
			g.Go(func() (err error) { pools.NonLegendary, err = s.catalog.NonLegendary(gctx); return })
		case engine.PoolFinal:
			g.Go(func() (err error) { pools.Final, err = s.catalog.FinalEvolution(gctx); return })
		case engine.PoolRare:
			g.Go(func() (err error) { pools.Rare, err = s.catalog.LegendaryOrMythical(gctx); return })
		}
	}
	if err := g.Wait(); err != nil {
		return engine.Pools{}, err
	}
	return pools, nil
}

func (s *Service) JoinSession(ctx context.Context, code, player2 string) (types.SessionView, error) {
	lb, err := s.hub.GetByCode(ctx, code)
	if err != nil {
		return types.SessionView{}, err
	}
	res, err := lb.Do(ctx, engine.Command{Type: engine.CmdJoin, PlayerID: player2})
	if err != nil {
		return types.SessionView{}, err
	}
	return BuildView(res.Session, player2, res.At), nil
}

func (s *Service) GetSession(ctx context.Context, sessionID, viewer string) (types.SessionView, error) {
	sess, err := s.state(ctx, sessionID)
	if err != nil {
		return types.SessionView{}, err
	}
	return BuildView(sess, viewer, s.clock()), nil
}

func (s *Service) SubmitGuess(ctx context.Context, sessionID, playerID, text string) (types.GuessResult, error) {
	res, err := s.do(ctx, sessionID, engine.Command{Type: engine.CmdSubmitGuess, PlayerID: playerID, Text: text})
	if err != nil {
		return types.GuessResult{}, err
	}
	summary := engine.Summarize(res.Events, res.Session, playerID)
	return toGuessResult(summary, BuildView(res.Session, playerID, res.At)), nil
}

func (s *Service) UseHint(ctx context.Context, sessionID, playerID, kind string) (types.SessionView, error) {
	res, err := s.do(ctx, sessionID, engine.Command{Type: engine.CmdUseHint, PlayerID: playerID, Hint: engine.HintKind(kind)})
	if err != nil {
		return types.SessionView{}, err
	}
	return BuildView(res.Session, playerID, res.At), nil
}

func (s *Service) GetRemainingTime(ctx context.Context, sessionID, playerID string) (float64, error) {
	sess, err := s.state(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return engine.RemainingTime(sess, playerID, s.clock())
}

func (s *Service) ResetTimer(ctx context.Context, sessionID, playerID string) error {
	_, err := s.do(ctx, sessionID, engine.Command{Type: engine.CmdResetTimer, PlayerID: playerID})
	return err
}

// View renders a committed session for viewer; the websocket stream uses it.
func (s *Service) View(sess engine.Session, viewer string) types.SessionView {
	return BuildView(sess, viewer, s.clock())
}

// Watch subscribes out to snapshots of a session.
func (s *Service) Watch(ctx context.Context, sessionID, clientID string, out chan lobby.Snapshot) (*lobby.Lobby, error) {
	lb, err := s.hub.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !lb.Send(lobby.Join{ClientID: clientID, Outbox: out}) {
		return nil, lobby.ErrStopped
	}
	return lb, nil
}

func (s *Service) state(ctx context.Context, sessionID string) (engine.Session, error) {
	lb, err := s.hub.Get(ctx, sessionID)
	if err != nil {
		return engine.Session{}, err
	}
	v, err := lb.State(ctx)
	if errors.Is(err, lobby.ErrStopped) {
		// evicted between lookup and read; the hub rehydrates it
		if lb, err = s.hub.Get(ctx, sessionID); err != nil {
			return engine.Session{}, err
		}
		v, err = lb.State(ctx)
	}
	return v.Session, err
}

// do runs cmd on the session's actor. A finished game is evicted from the
// hub afterwards; its state stays in the store.
func (s *Service) do(ctx context.Context, sessionID string, cmd engine.Command) (lobby.Result, error) {
	lb, err := s.hub.Get(ctx, sessionID)
	if err != nil {
		return lobby.Result{}, err
	}
	res, err := lb.Do(ctx, cmd)
	if errors.Is(err, lobby.ErrStopped) {
		if lb, err = s.hub.Get(ctx, sessionID); err != nil {
			return lobby.Result{}, err
		}
		res, err = lb.Do(ctx, cmd)
	}
	if err != nil {
		return res, err
	}

	if engine.ContainsEvent(res.Events, engine.EvtGameCompleted) {
		s.log.Info("session finished", zap.String("session_id", sessionID), zap.Int("version", res.Session.Version))
		s.hub.Remove(sessionID)
	}
	return res, nil
}
