package lifecycle_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/dailyfocus/focus/internal/focus"
	"github.com/dailyfocus/focus/internal/handler/lifecycle"
	"github.com/dailyfocus/focus/internal/session"
)

// fakeEmitter fails a pretend session on the first non-active state.
type fakeEmitter struct {
	mu     sync.Mutex
	states []session.AppState
	active bool
}

func (f *fakeEmitter) Emit(_ context.Context, s session.AppState) (*focus.SessionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, s)
	if f.active && s != session.AppActive {
		f.active = false
		return &focus.SessionResult{StoryID: "s1-001", Outcome: focus.OutcomeFailed, Reason: focus.ReasonBackgrounded}, nil
	}
	return nil, nil
}

func newServer(t *testing.T, e lifecycle.Emitter) *httptest.Server {
	t.Helper()
	h := lifecycle.NewHandler(e, slog.New(slog.DiscardHandler))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestStream(t *testing.T) {
	em := &fakeEmitter{active: true}
	srv := newServer(t, em)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	send := func(state string) lifecycle.Ack {
		t.Helper()
		if err := conn.Write(ctx, websocket.MessageText, []byte(state)); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var ack lifecycle.Ack
		if err := json.Unmarshal(data, &ack); err != nil {
			t.Fatalf("decoding ack: %v", err)
		}
		return ack
	}

	if ack := send("active"); ack.Result != nil {
		t.Errorf("expected no result for active, got %+v", ack.Result)
	}
	ack := send(" Background ")
	if ack.State != session.AppBackground {
		t.Errorf("expected normalized state, got %q", ack.State)
	}
	if ack.Result == nil || ack.Result.Reason != focus.ReasonBackgrounded {
		t.Errorf("expected backgrounded failure, got %+v", ack.Result)
	}
	if ack := send("background"); ack.Result != nil {
		t.Errorf("expected repeated state not to fail again, got %+v", ack.Result)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestPost(t *testing.T) {
	em := &fakeEmitter{active: true}
	srv := newServer(t, em)

	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{"state":"inactive"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ack lifecycle.Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if ack.Result == nil || ack.Result.Outcome != focus.OutcomeFailed {
		t.Errorf("expected failure, got %+v", ack)
	}
}

func TestPostRequiresState(t *testing.T) {
	srv := newServer(t, &fakeEmitter{})

	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
