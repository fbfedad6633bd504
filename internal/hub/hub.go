package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/DoyleJ11/pokeguess-backend/internal/lobby"
	"github.com/DoyleJ11/pokeguess-backend/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxCodeAttempts = 32

var ErrCodeExhausted = fmt.Errorf("%w: could not allocate a free join code", apperr.ErrFailure)
var ErrStopped = fmt.Errorf("%w: hub stopped", apperr.ErrFailure)

type HubMsg interface{ isHubMsg() }

type Found struct {
	Lobby *lobby.Lobby
	Err   error
}

type CreateLobby struct {
	Player1 string
	Reply   chan Found
}

type GetLobby struct {
	ID    string
	Reply chan Found
}

type GetLobbyByCode struct {
	Code  string
	Reply chan Found
}

type RemoveLobby struct {
	ID string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg()    {}
func (GetLobby) isHubMsg()       {}
func (GetLobbyByCode) isHubMsg() {}
func (RemoveLobby) isHubMsg()    {}
func (ShutdownHub) isHubMsg()    {}

type Options struct {
	Store store.Store
	Codes CodeSource
	NewID func() string
	Rules engine.Rules
	// CodeTTL is how long a waiting session keeps its join code. Zero means forever.
	CodeTTL time.Duration
	Clock   func() time.Time
	Logger  *zap.Logger
	// Lobby is passed to every lobby the hub starts. Store, Clock and Logger
	// are filled from the hub's own when empty.
	Lobby lobby.Options
}

// Hub owns the live session actors. Every registry change and every code
// allocation runs on its loop, so a code is checked and reserved atomically.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Codes == nil {
		opts.Codes = GenerateCode
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Rules.RoundSeconds == 0 {
		opts.Rules = engine.DefaultRules()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Lobby.Store == nil {
		opts.Lobby.Store = opts.Store
	}
	if opts.Lobby.Clock == nil {
		opts.Lobby.Clock = opts.Clock
	}
	if opts.Lobby.Logger == nil {
		opts.Lobby.Logger = opts.Logger
	}

	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     opts.Logger.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				lb, err := h.create(msg.Player1)
				msg.Reply <- Found{Lobby: lb, Err: err}

			case GetLobby:
				lb, err := h.byID(msg.ID)
				msg.Reply <- Found{Lobby: lb, Err: err}

			case GetLobbyByCode:
				lb, err := h.byCode(msg.Code)
				msg.Reply <- Found{Lobby: lb, Err: err}

			case RemoveLobby:
				if lb := h.lobbies[msg.ID]; lb != nil {
					lb.Stop()
					// a later Get must rehydrate from the last write-through
					<-lb.Done()
					delete(h.lobbies, msg.ID)
					h.log.Debug("lobby evicted", zap.String("session_id", msg.ID))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(player1 string) (*lobby.Lobby, error) {
	code, err := h.allocateCode()
	if err != nil {
		return nil, err
	}

	s := engine.NewSession(h.opts.NewID(), code, player1, h.opts.Rules, h.opts.Clock())
	if err := h.opts.Store.Put(h.ctx, s); err != nil {
		return nil, err
	}
	lb := h.start(s)
	h.log.Info("session created",
		zap.String("session_id", s.ID),
		zap.String("join_code", code),
		zap.String("player_id", player1),
	)
	return lb, nil
}

// allocateCode draws codes until one is not held by a live waiting session.
func (h *Hub) allocateCode() (string, error) {
	for range maxCodeAttempts {
		code, err := h.opts.Codes()
		if err != nil {
			return "", fmt.Errorf("%w: generate join code: %w", apperr.ErrFailure, err)
		}
		code = store.NormalizeCode(code)

		holder, err := h.opts.Store.GetByCode(h.ctx, code)
		if errors.Is(err, apperr.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		if !h.holdsCode(holder) {
			return code, nil
		}
		h.log.Debug("collision on code, regenerating", zap.String("join_code", code))
	}
	return "", ErrCodeExhausted
}

// holdsCode reports whether s still owns its join code: it is waiting for a
// second player and its code has not expired.
func (h *Hub) holdsCode(s engine.Session) bool {
	return s.Status == engine.StatusWaiting && !h.expired(s)
}

func (h *Hub) expired(s engine.Session) bool {
	return h.opts.CodeTTL > 0 && h.opts.Clock().Sub(s.CreatedAt) >= h.opts.CodeTTL
}

func (h *Hub) byID(id string) (*lobby.Lobby, error) {
	if lb := h.lobbies[id]; lb != nil {
		return lb, nil
	}
	s, err := h.opts.Store.Get(h.ctx, id)
	if err != nil {
		return nil, err
	}
	h.log.Debug("rehydrating lobby", zap.String("session_id", id), zap.Int("version", s.Version))
	return h.start(s), nil
}

// byCode resolves the newest session registered under code. A session that
// already has its second player still resolves, so a late join is told the
// session is full rather than unknown.
func (h *Hub) byCode(code string) (*lobby.Lobby, error) {
	code = store.NormalizeCode(code)
	s, err := h.opts.Store.GetByCode(h.ctx, code)
	if err != nil {
		return nil, err
	}
	if s.Status == engine.StatusWaiting && h.expired(s) {
		return nil, fmt.Errorf("%w: join code %s expired", apperr.ErrNotFound, code)
	}
	return h.byID(s.ID)
}

func (h *Hub) start(s engine.Session) *lobby.Lobby {
	lb := lobby.NewLobby(h.ctx, s, h.opts.Lobby)
	h.lobbies[s.ID] = lb
	return lb
}

func (h *Hub) shutdown() {
	for id, lb := range h.lobbies {
		lb.Stop()
		delete(h.lobbies, id)
	}
	h.cancel()
}

func (h *Hub) ask(ctx context.Context, msg HubMsg, reply chan Found) (*lobby.Lobby, error) {
	select {
	case h.inbox <- msg:
	case <-h.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case f := <-reply:
		return f.Lobby, f.Err
	case <-h.done:
		select {
		case f := <-reply:
			return f.Lobby, f.Err
		default:
			return nil, ErrStopped
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Create registers a new waiting session owned by player1.
func (h *Hub) Create(ctx context.Context, player1 string) (*lobby.Lobby, error) {
	reply := make(chan Found, 1)
	return h.ask(ctx, CreateLobby{Player1: player1, Reply: reply}, reply)
}

// Get returns the live lobby for id, starting it from the store if needed.
func (h *Hub) Get(ctx context.Context, id string) (*lobby.Lobby, error) {
	reply := make(chan Found, 1)
	return h.ask(ctx, GetLobby{ID: id, Reply: reply}, reply)
}

// GetByCode returns the lobby registered under a join code, ignoring case
// and surrounding whitespace.
func (h *Hub) GetByCode(ctx context.Context, code string) (*lobby.Lobby, error) {
	reply := make(chan Found, 1)
	return h.ask(ctx, GetLobbyByCode{Code: code, Reply: reply}, reply)
}

// Remove stops the lobby for id. Its committed state stays in the store.
func (h *Hub) Remove(id string) {
	select {
	case h.inbox <- RemoveLobby{ID: id}:
	case <-h.done:
	}
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.done:
	}
	<-h.done
}
