package client_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"github.com/fuad-daoud/ferrisgo/client"
	"github.com/fuad-daoud/ferrisgo/events"
	"github.com/fuad-daoud/ferrisgo/ferris"
)

type serverConn struct {
	ws     *websocket.Conn
	frames chan map[string]any
	seq    int

	// conns receives follow-up connections from the same fake server, so a
	// test can follow the client across a reconnect.
	conns chan *serverConn
}

func newFakeGateway(t *testing.T) (string, chan *serverConn) {
	conns := make(chan *serverConn, 4)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := &serverConn{ws: ws, frames: make(chan map[string]any, 16), conns: conns}
		go func() {
			defer close(c.frames)
			for {
				var f map[string]any
				if err := ws.ReadJSON(&f); err != nil {
					return
				}
				c.frames <- f
			}
		}()
		conns <- c
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), conns
}

func (c *serverConn) expect(t *testing.T, command string) map[string]any {
	t.Helper()
	for {
		select {
		case f, ok := <-c.frames:
			if !ok {
				t.Fatalf("connection closed while waiting for %s", command)
			}
			if f["c"] == command {
				return f
			}
			if f["c"] == "Heartbeat" {
				continue
			}
			t.Fatalf("expected %s, got %v", command, f["c"])
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for %s", command)
		}
	}
}

// dispatch sends a dispatch frame with the next sequence number.
func (c *serverConn) dispatch(t *testing.T, command string, data map[string]any) {
	t.Helper()
	c.seq++
	f := map[string]any{"c": command, "s": c.seq, "d": data}
	if err := c.ws.WriteJSON(f); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

// openClient connects a client against a fake gateway and completes the
// identify handshake with the given initial state.
func openClient(t *testing.T, accept map[string]any, opts ...client.ConfigOpt) (*client.Client, *serverConn) {
	t.Helper()
	url, conns := newFakeGateway(t)

	c := client.New("tok-123", append(opts, client.WithGatewayURL(url))...)
	t.Cleanup(c.Close)

	errs := make(chan error, 1)
	go func() { errs <- c.Open(context.Background()) }()

	var conn *serverConn
	select {
	case conn = <-conns:
	case <-time.After(3 * time.Second):
		t.Fatal("client never connected")
	}
	conn.expect(t, "Identify")

	if accept == nil {
		accept = map[string]any{}
	}
	if accept["session_id"] == nil {
		accept["session_id"] = "sess-1"
	}
	if accept["heartbeat_interval"] == nil {
		accept["heartbeat_interval"] = 60_000
	}
	if err := conn.ws.WriteJSON(map[string]any{"c": "IdentifyAccepted", "d": accept}); err != nil {
		t.Fatalf("server write: %v", err)
	}
	require.NoError(t, <-errs)
	return c, conn
}

func awaitEvent[E events.Event](t *testing.T, ch chan E) E {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("event never delivered")
		panic("unreachable")
	}
}

func TestReadyAppliesInitialState(t *testing.T) {
	ready := make(chan events.Ready, 1)
	login := make(chan events.Login, 1)

	c, _ := openClient(t, map[string]any{
		"user": map[string]any{"id": "7", "name": "bot"},
		"guilds": []map[string]any{
			{
				"id":       "1",
				"name":     "home",
				"channels": []map[string]any{{"id": "2", "name": "general"}},
			},
		},
	},
		client.WithEventListenerFunc(func(e events.Ready) { ready <- e }),
		client.WithEventListenerFunc(func(e events.Login) { login <- e }),
	)

	l := awaitEvent(t, login)
	assert.Equal(t, "bot", l.User.Name)

	r := awaitEvent(t, ready)
	assert.Equal(t, ferris.ID(7), r.User.ID)
	require.Len(t, r.Guilds, 1)

	g, ok := c.Caches().Guilds().Get(1)
	require.True(t, ok)
	assert.Equal(t, "home", g.Name)

	ch, ok := c.Caches().Channels().Get(2)
	require.True(t, ok)
	assert.Equal(t, ferris.ID(1), ch.GuildID)

	self, ok := c.Caches().SelfUser()
	require.True(t, ok)
	assert.Equal(t, "bot", self.Name)
}

func TestChannelCreateCachesAndEmitsOnce(t *testing.T) {
	got := make(chan events.ChannelCreate, 4)
	c, conn := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.ChannelCreate) { got <- e }),
	)

	conn.dispatch(t, "ChannelCreate", map[string]any{"id": "42", "name": "general", "guild_id": "1"})

	e := awaitEvent(t, got)
	assert.Equal(t, ferris.ID(42), e.Channel.ID)

	// the cache was updated before the event was emitted
	ch, ok := c.Caches().Channels().Get(42)
	require.True(t, ok)
	assert.Equal(t, "general", ch.Name)

	select {
	case extra := <-got:
		t.Fatalf("unexpected second event: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestMessageUpdateEmitsOldAndNew(t *testing.T) {
	created := make(chan events.MessageCreate, 1)
	updated := make(chan events.MessageUpdate, 1)
	c, conn := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.MessageCreate) { created <- e }),
		client.WithEventListenerFunc(func(e events.MessageUpdate) { updated <- e }),
	)

	conn.dispatch(t, "MessageCreate", map[string]any{
		"id": "5", "content": "hello", "channel_id": "2", "author_id": "7",
	})
	awaitEvent(t, created)

	// only the changed field rides the update frame
	conn.dispatch(t, "MessageUpdate", map[string]any{
		"id": "5", "message": map[string]any{"content": "edited"},
	})

	e := awaitEvent(t, updated)
	assert.Equal(t, "hello", e.Old.Content)
	assert.Equal(t, "edited", e.New.Content)
	assert.Equal(t, ferris.ID(2), e.New.ChannelID)
	assert.Equal(t, ferris.ID(7), e.New.AuthorID)

	m, ok := c.Caches().Messages().Get(5)
	require.True(t, ok)
	assert.Equal(t, "edited", m.Content)
}

func TestUpdateForUncachedEntityBecomesCreate(t *testing.T) {
	created := make(chan events.MessageCreate, 1)
	_, conn := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.MessageCreate) { created <- e }),
	)

	conn.dispatch(t, "MessageUpdate", map[string]any{
		"id": "5", "message": map[string]any{"content": "late"},
	})

	e := awaitEvent(t, created)
	assert.Equal(t, ferris.ID(5), e.Message.ID)
	assert.Equal(t, "late", e.Message.Content)
}

func TestDeleteForUncachedEntityEmitsNothing(t *testing.T) {
	deleted := make(chan events.MessageDelete, 1)
	chans := make(chan events.ChannelCreate, 1)
	_, conn := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.MessageDelete) { deleted <- e }),
		client.WithEventListenerFunc(func(e events.ChannelCreate) { chans <- e }),
	)

	conn.dispatch(t, "MessageDelete", map[string]any{"id": "5"})
	conn.dispatch(t, "ChannelCreate", map[string]any{"id": "6"})

	awaitEvent(t, chans)
	select {
	case e := <-deleted:
		t.Fatalf("delete of uncached message emitted %+v", e)
	default:
	}
}

func TestChannelDeleteDropsItsMessages(t *testing.T) {
	deleted := make(chan events.ChannelDelete, 1)
	created := make(chan events.MessageCreate, 1)
	c, conn := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.ChannelDelete) { deleted <- e }),
		client.WithEventListenerFunc(func(e events.MessageCreate) { created <- e }),
	)

	conn.dispatch(t, "ChannelCreate", map[string]any{"id": "2", "name": "general"})
	conn.dispatch(t, "MessageCreate", map[string]any{"id": "5", "channel_id": "2"})
	awaitEvent(t, created)

	conn.dispatch(t, "ChannelDelete", map[string]any{"id": "2"})
	e := awaitEvent(t, deleted)
	assert.Equal(t, "general", e.Channel.Name)

	_, ok := c.Caches().Messages().Get(5)
	assert.False(t, ok)
}

func TestGuildDeleteCascades(t *testing.T) {
	deleted := make(chan events.GuildDelete, 1)
	c, conn := openClient(t, map[string]any{
		"user": map[string]any{"id": "7"},
		"guilds": []map[string]any{
			{"id": "1", "name": "home", "channels": []map[string]any{{"id": "2"}}},
		},
	},
		client.WithEventListenerFunc(func(e events.GuildDelete) { deleted <- e }),
	)

	conn.dispatch(t, "GuildDelete", map[string]any{"id": "1"})
	awaitEvent(t, deleted)

	_, ok := c.Caches().Guilds().Get(1)
	assert.False(t, ok)
	_, ok = c.Caches().Channels().Get(2)
	assert.False(t, ok)
}

func TestUnknownCommandIsIgnored(t *testing.T) {
	errs := make(chan events.Error, 1)
	chans := make(chan events.ChannelCreate, 1)
	_, conn := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.Error) { errs <- e }),
		client.WithEventListenerFunc(func(e events.ChannelCreate) { chans <- e }),
	)

	conn.dispatch(t, "Typing", map[string]any{"user_id": "7"})
	conn.dispatch(t, "ChannelCreate", map[string]any{"id": "6"})

	awaitEvent(t, chans)
	select {
	case e := <-errs:
		t.Fatalf("unknown command produced error event: %v", e.Err)
	default:
	}
}

func TestListenerPanicIsRecovered(t *testing.T) {
	errs := make(chan events.Error, 1)
	got := make(chan events.MessageCreate, 2)
	first := true
	_, conn := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.MessageCreate) {
			got <- e
			if first {
				first = false
				panic("listener bug")
			}
		}),
		client.WithEventListenerFunc(func(e events.Error) { errs <- e }),
	)

	conn.dispatch(t, "MessageCreate", map[string]any{"id": "1"})
	awaitEvent(t, got)

	e := awaitEvent(t, errs)
	assert.Contains(t, e.Err.Error(), "listener panic")

	// delivery survives the panic
	conn.dispatch(t, "MessageCreate", map[string]any{"id": "2"})
	m := awaitEvent(t, got)
	assert.Equal(t, ferris.ID(2), m.Message.ID)
}

func TestLifecycleEventOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	ready := make(chan struct{})
	openClient(t, map[string]any{"user": map[string]any{"id": "7", "name": "bot"}},
		client.WithEventListenerFunc(func(e events.Event) {
			mu.Lock()
			order = append(order, e.EventType())
			mu.Unlock()
			if _, ok := e.(events.Ready); ok {
				close(ready)
			}
		}),
	)

	select {
	case <-ready:
	case <-time.After(3 * time.Second):
		t.Fatal("ready never delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"login", "connect", "ready"}, order)
}

func TestCloseDuringDispatchFlood(t *testing.T) {
	got := make(chan events.MessageCreate, 1024)
	c, conn := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.MessageCreate) { got <- e }),
	)

	// keep frames arriving while the client shuts down; writes racing the
	// teardown are allowed to fail, the client must not panic
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 500; i++ {
			f := map[string]any{
				"c": "MessageCreate",
				"s": i,
				"d": map[string]any{"id": strconv.Itoa(i)},
			}
			if err := conn.ws.WriteJSON(f); err != nil {
				return
			}
		}
	}()

	awaitEvent(t, got)
	c.Close()
	<-done
}

func TestResumeDoesNotRepeatLogin(t *testing.T) {
	login := make(chan events.Login, 2)
	connect := make(chan events.Connect, 2)
	_, conn := openClient(t, map[string]any{"user": map[string]any{"id": "7"}},
		client.WithEventListenerFunc(func(e events.Login) { login <- e }),
		client.WithEventListenerFunc(func(e events.Connect) { connect <- e }),
	)
	awaitEvent(t, login)
	awaitEvent(t, connect)

	if err := conn.ws.WriteJSON(map[string]any{"c": "Reconnect"}); err != nil {
		t.Fatal(err)
	}

	var next *serverConn
	select {
	case next = <-conn.conns:
	case <-time.After(5 * time.Second):
		t.Fatal("client never reconnected")
	}
	next.expect(t, "Resume")
	if err := next.ws.WriteJSON(map[string]any{"c": "ResumeAccepted", "d": map[string]any{}}); err != nil {
		t.Fatal(err)
	}

	// the resumed session reconnects but does not log in again
	awaitEvent(t, connect)
	select {
	case <-login:
		t.Fatal("login re-emitted on resume")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseEmitsCloseEvent(t *testing.T) {
	closed := make(chan events.Close, 1)
	c, _ := openClient(t, nil,
		client.WithEventListenerFunc(func(e events.Close) { closed <- e }),
	)

	c.Close()
	awaitEvent(t, closed)
}
