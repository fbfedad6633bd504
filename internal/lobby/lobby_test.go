package lobby

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"github.com/DoyleJ11/pokeguess-backend/internal/catalog"
	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/DoyleJ11/pokeguess-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return t0 }

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvClosed(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("outbox not closed within %v", within)
		}
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func waitingSession() engine.Session {
	return engine.NewSession("s1", "ABC123", "ash", engine.DefaultRules(), t0)
}

func startedSession(t *testing.T) engine.Session {
	t.Helper()
	s := waitingSession()
	targets := make([]catalog.Creature, engine.RoundsPerGame)
	for i := range targets {
		targets[i] = catalog.Creature{PokedexNumber: 25, NameFr: "Pikachu"}
	}
	_, s, err := engine.Apply(s, engine.Command{
		Type:    engine.CmdStart,
		Mode:    engine.ModeStandard,
		Solo:    true,
		Targets: [2][]catalog.Creature{targets, nil},
	}, t0)
	require.NoError(t, err)
	return s
}

type sinkFunc func(context.Context, engine.Session, []engine.Event) error

func (f sinkFunc) Publish(ctx context.Context, s engine.Session, events []engine.Event) error {
	return f(ctx, s, events)
}

func TestLobby_Join_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.NewMemoryStore()
	l := NewLobby(ctx, waitingSession(), Options{Store: st, Clock: fixedClock})

	clientOut := make(chan Snapshot, 2)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: clientOut}

	first := recvSnapshot(t, clientOut, 100*time.Millisecond)
	assert.Equal(t, 0, first.Version)
	assert.Equal(t, engine.StatusWaiting, first.Session.Status)

	res, err := l.Do(ctx, engine.Command{Type: engine.CmdJoin, PlayerID: "misty"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Session.Version)
	assert.True(t, res.At.Equal(t0))

	next := recvSnapshot(t, clientOut, 100*time.Millisecond)
	assert.Equal(t, 1, next.Version)
	assert.Equal(t, "misty", next.Session.Players[1].PlayerID)
	assert.True(t, engine.ContainsEvent(next.Events, engine.EvtPlayerJoined))

	stored, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, engine.StatusReady, stored.Status)

	l.Inbox() <- Shutdown{}
	recvClosed(t, clientOut, 100*time.Millisecond)
}

func TestLobby_RejectedCommandLeavesStateAlone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, waitingSession(), Options{Clock: fixedClock})

	res, err := l.Do(ctx, engine.Command{Type: engine.CmdJoin, PlayerID: "ash"})
	assert.ErrorIs(t, err, engine.ErrOwnSession)
	assert.Equal(t, 0, res.Session.Version)

	view, err := l.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Version)
	assert.Empty(t, view.Session.Players[1].PlayerID)
}

func TestLobby_SinkFailureAbortsCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.NewMemoryStore()
	boom := errors.New("account store down")
	var seen []engine.EventType
	sink := sinkFunc(func(_ context.Context, _ engine.Session, events []engine.Event) error {
		for _, e := range events {
			seen = append(seen, e.Type)
		}
		return boom
	})

	l := NewLobby(ctx, startedSession(t), Options{Store: st, Sink: sink, Clock: fixedClock})

	_, err := l.Do(ctx, engine.Command{Type: engine.CmdSubmitGuess, PlayerID: "ash", Text: "pikachu"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, seen, engine.EvtRoundWon)

	view, err := l.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Session.Players[0].CurrentIndex)
	assert.Equal(t, 0, view.Session.Players[0].Score)

	_, err = st.Get(ctx, "s1")
	assert.Error(t, err, "nothing should have been written through")
}

func TestLobby_NoOpDoesNotBumpVersion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, startedSession(t), Options{Clock: fixedClock})

	_, err := l.Do(ctx, engine.Command{Type: engine.CmdUseHint, PlayerID: "ash", Hint: engine.HintStats})
	require.NoError(t, err)
	res, err := l.Do(ctx, engine.Command{Type: engine.CmdUseHint, PlayerID: "ash", Hint: engine.HintStats})
	require.NoError(t, err)

	assert.Empty(t, res.Events)
	assert.Equal(t, 1, res.Session.Version)
	assert.Equal(t, 53.0, res.Session.Players[0].TimeRemaining)
}

func TestLobby_DropSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, waitingSession(), Options{Clock: fixedClock})

	clientOut := make(chan Snapshot, 1)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: clientOut}

	// outbox still holds the join snapshot, so the broadcast cannot be delivered
	_, err := l.Do(ctx, engine.Command{Type: engine.CmdJoin, PlayerID: "misty"})
	require.NoError(t, err)

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
}

func TestLobby_LeaveClosesOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewLobby(ctx, waitingSession(), Options{Clock: fixedClock})

	out := make(chan Snapshot, 2)
	l.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	l.Inbox() <- Leave{ClientID: "c1"}
	recvClosed(t, out, 100*time.Millisecond)
}

func TestLobby_StoppedRejectsCommands(t *testing.T) {
	l := NewLobby(context.Background(), waitingSession(), Options{Clock: fixedClock})
	l.Stop()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby did not stop")
	}

	_, err := l.Do(context.Background(), engine.Command{Type: engine.CmdJoin, PlayerID: "misty"})
	assert.ErrorIs(t, err, ErrStopped)
	_, err = l.State(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestLobby_CommandAfterStopIsNotApplied(t *testing.T) {
	st := store.NewMemoryStore()
	published := 0
	sink := sinkFunc(func(context.Context, engine.Session, []engine.Event) error {
		published++
		return nil
	})
	l := NewLobby(context.Background(), waitingSession(), Options{Store: st, Sink: sink, Clock: fixedClock})
	l.Stop()
	<-l.Done()

	// the loop can still pick a queued command once the context is cancelled
	res := l.handle(engine.Command{Type: engine.CmdJoin, PlayerID: "misty"})
	assert.ErrorIs(t, res.Err, ErrStopped)
	assert.Empty(t, res.Events)
	assert.Equal(t, 0, res.Session.Version)
	assert.Empty(t, res.Session.Players[1].PlayerID)
	assert.Zero(t, published)

	_, err := st.Get(context.Background(), res.Session.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
