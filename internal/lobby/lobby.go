package lobby

import (
	"context"
	"fmt"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/DoyleJ11/pokeguess-backend/internal/store"
	"go.uber.org/zap"
)

var ErrStopped = fmt.Errorf("%w: session actor stopped", apperr.ErrFailure)

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	Cmd   engine.Command
	Reply chan Result
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Result answers a FromClient. On error Session is the unchanged state.
type Result struct {
	Events  []engine.Event
	Session engine.Session
	At      time.Time
	Err     error
}

type Snapshot struct {
	Version int
	Session engine.Session
	Events  []engine.Event
}

type View struct {
	Version    int
	NumClients int
	Session    engine.Session
}

// Sink receives the events of a command before it is committed. An error
// aborts the command and leaves the session as it was.
type Sink interface {
	Publish(ctx context.Context, s engine.Session, events []engine.Event) error
}

// Notifier receives the events of a committed command. Failures are logged.
type Notifier interface {
	Notify(ctx context.Context, s engine.Session, events []engine.Event) error
}

type Options struct {
	Store    store.Store
	Sink     Sink
	Notifier Notifier
	Clock    func() time.Time
	Logger   *zap.Logger
}

type Lobby struct {
	inbox   chan Msg
	state   engine.Session
	clients map[string]chan Snapshot
	opts    Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewLobby(parent context.Context, initial engine.Session, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		state:   initial,
		clients: make(map[string]chan Snapshot),
		opts:    opts,
		log:     opts.Logger.With(zap.String("session_id", initial.ID)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Snapshot{Version: l.state.Version, Session: l.state.Clone()}

			case Leave:
				if ch, ok := l.clients[msg.ClientID]; ok {
					close(ch)
					delete(l.clients, msg.ClientID)
				}

			case FromClient:
				msg.Reply <- l.handle(msg.Cmd)

			case GetState:
				msg.Reply <- View{
					Version:    l.state.Version,
					NumClients: len(l.clients),
					Session:    l.state.Clone(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// handle runs one command: apply, hand the events to the sink, write
// through, and only then commit and broadcast.
func (l *Lobby) handle(cmd engine.Command) Result {
	now := l.opts.Clock()
	// a command picked off the inbox after Stop is never applied
	if l.ctx.Err() != nil {
		return Result{Session: l.state.Clone(), At: now, Err: ErrStopped}
	}
	events, next, err := engine.Apply(l.state, cmd, now)
	if err != nil {
		return Result{Session: l.state.Clone(), At: now, Err: err}
	}
	if len(events) == 0 {
		return Result{Session: l.state.Clone(), At: now}
	}
	next.Version = l.state.Version + 1

	if l.opts.Sink != nil {
		if err := l.opts.Sink.Publish(l.ctx, next, events); err != nil {
			l.log.Warn("event sink rejected command", zap.String("cmd", string(cmd.Type)), zap.Error(err))
			return Result{Session: l.state.Clone(), At: now, Err: err}
		}
	}
	if l.opts.Store != nil {
		if err := l.opts.Store.Put(l.ctx, next); err != nil {
			l.log.Error("write-through failed", zap.Int("version", next.Version), zap.Error(err))
			return Result{Session: l.state.Clone(), At: now, Err: err}
		}
	}

	l.state = next
	l.log.Debug("committed",
		zap.String("cmd", string(cmd.Type)),
		zap.String("player_id", cmd.PlayerID),
		zap.Int("version", next.Version),
		zap.Int("events", len(events)),
	)

	if l.opts.Notifier != nil {
		if err := l.opts.Notifier.Notify(l.ctx, next, events); err != nil {
			l.log.Warn("event notification failed", zap.Error(err))
		}
	}
	l.broadcast(Snapshot{Version: next.Version, Session: next.Clone(), Events: events})
	return Result{Events: events, Session: next.Clone(), At: now}
}

func (l *Lobby) shutdown() {
	for id, ch := range l.clients {
		close(ch) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id, ch := range l.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			l.log.Info("dropping slow watcher", zap.String("client_id", id))
			close(ch)
			delete(l.clients, id)
		}
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers m unless the lobby has stopped.
func (l *Lobby) Send(m Msg) bool {
	select {
	case l.inbox <- m:
		return true
	case <-l.done:
		return false
	}
}

// Do runs cmd through the actor and waits for its result. Every reply is
// sent before the loop exits, so once done is closed a missing reply means
// the command was never applied.
func (l *Lobby) Do(ctx context.Context, cmd engine.Command) (Result, error) {
	reply := make(chan Result, 1)
	if !l.Send(FromClient{Cmd: cmd, Reply: reply}) {
		return Result{}, ErrStopped
	}

	select {
	case res := <-reply:
		return res, res.Err
	case <-l.done:
		select {
		case res := <-reply:
			return res, res.Err
		default:
			return Result{}, ErrStopped
		}
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// State returns the committed session.
func (l *Lobby) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if !l.Send(GetState{Reply: reply}) {
		return View{}, ErrStopped
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.done:
		select {
		case v := <-reply:
			return v, nil
		default:
			return View{}, ErrStopped
		}
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Stop ends the actor without going through the inbox.
func (l *Lobby) Stop() { l.cancel() }

// Done is closed once the actor loop has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }
