// Package gateway maintains the persistent websocket session with the chat
// service: the identify/resume handshake, the heartbeat, sequence tracking
// and reconnection with capped exponential backoff.
package gateway

import (
	"errors"
	"fmt"
	"sync"
	"time"

	simplejson "github.com/bitly/go-simplejson"
	"github.com/gorilla/websocket"
	"golang.org/x/net/context"

	"github.com/fuad-daoud/ferrisgo/logger/dlog"
)

// ErrNotConnected is returned when a send is attempted without a live
// transport.
var ErrNotConnected = errors.New("gateway: not connected")

// ErrAlreadyOpen is returned by Open on a gateway that was opened before.
var ErrAlreadyOpen = errors.New("gateway: already open")

// FrameHandler receives every dispatch frame in arrival order, on the read
// loop goroutine. It must only update in-memory state; slow work belongs
// behind the handler.
type FrameHandler func(command string, seq int64, data []byte)

type ConfigOpt func(*Gateway)

// WithOnStatusChange observes lifecycle transitions.
func WithOnStatusChange(f func(old, new Status)) ConfigOpt {
	return func(g *Gateway) { g.onStatus = f }
}

// WithOnFatal observes unrecoverable failures (bad credentials). The
// gateway is closed when it fires; there is no automatic retry.
func WithOnFatal(f func(err error)) ConfigOpt {
	return func(g *Gateway) { g.onFatal = f }
}

// WithMaxReconnectDelay caps the reconnect backoff.
func WithMaxReconnectDelay(d time.Duration) ConfigOpt {
	return func(g *Gateway) { g.maxReconnectDelay = d }
}

// WithHeartbeatInterval sets the fallback heartbeat interval used when the
// server does not announce one.
func WithHeartbeatInterval(d time.Duration) ConfigOpt {
	return func(g *Gateway) { g.heartbeatInterval = d }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) ConfigOpt {
	return func(g *Gateway) { g.dialer = d }
}

// Gateway drives one connection state machine. It is created per client and
// never reused after Close.
type Gateway struct {
	token       string
	url         string
	handleFrame FrameHandler

	onStatus func(old, new Status)
	onFatal  func(err error)

	maxReconnectDelay time.Duration
	heartbeatInterval time.Duration
	dialer            *websocket.Dialer

	mu             sync.Mutex
	conn           *websocket.Conn
	status         Status
	sessionID      string
	lastSeq        int64
	heartbeatAcked bool
	connCancel     context.CancelFunc
	opened         bool

	writeMu sync.Mutex

	rootCtx    context.Context
	rootCancel context.CancelFunc

	rmu          sync.Mutex
	reconPending bool
	reconActive  bool

	openResult chan error
}

func New(token string, url string, handler FrameHandler, opts ...ConfigOpt) *Gateway {
	g := &Gateway{
		token:             token,
		url:               url,
		handleFrame:       handler,
		maxReconnectDelay: time.Minute,
		heartbeatInterval: 45 * time.Second,
		dialer:            websocket.DefaultDialer,
		status:            StatusDisconnected,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Status returns the current lifecycle state.
func (g *Gateway) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// SessionID returns the current session id, empty before the first
// successful identify.
func (g *Gateway) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessionID
}

// LastSeq returns the sequence number of the last applied dispatch frame.
func (g *Gateway) LastSeq() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSeq
}

// Open connects, identifies and waits for the server to accept the session
// or reject the credentials. A credential rejection is returned immediately
// and is final. After Open returns nil the gateway keeps itself connected
// until Close.
func (g *Gateway) Open(ctx context.Context) error {
	g.mu.Lock()
	if g.status != StatusDisconnected {
		g.mu.Unlock()
		return ErrAlreadyOpen
	}
	g.mu.Unlock()

	g.rootCtx, g.rootCancel = context.WithCancel(context.Background())
	g.openResult = make(chan error, 1)

	if err := g.connect(ctx, false); err != nil {
		g.rootCancel()
		g.setStatus(StatusDisconnected)
		return err
	}

	select {
	case err := <-g.openResult:
		if err != nil {
			g.Close()
			return err
		}
		return nil
	case <-ctx.Done():
		g.Close()
		return ctx.Err()
	}
}

// Close shuts the session down for good: heartbeat stopped, transport
// closed, no reconnection. Queued waits are cancelled.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.status == StatusClosed {
		g.mu.Unlock()
		return
	}
	conn := g.conn
	g.conn = nil
	if g.connCancel != nil {
		g.connCancel()
	}
	g.mu.Unlock()

	if g.rootCancel != nil {
		g.rootCancel()
	}
	g.setStatus(StatusClosed)

	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}
	dlog.Info("Gateway closed")
}

func (g *Gateway) setStatus(s Status) {
	g.mu.Lock()
	old := g.status
	if old == StatusClosed && s != StatusClosed {
		// closed is terminal
		g.mu.Unlock()
		return
	}
	g.status = s
	g.mu.Unlock()
	if old != s && g.onStatus != nil {
		g.onStatus(old, s)
	}
}

func (g *Gateway) connect(ctx context.Context, resume bool) error {
	if !resume {
		g.setStatus(StatusConnecting)
	}

	conn, _, err := g.dialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("gateway: dial %s: %w", g.url, err)
	}

	connCtx, connCancel := context.WithCancel(g.rootCtx)

	g.mu.Lock()
	g.conn = conn
	g.connCancel = connCancel
	g.heartbeatAcked = true
	if !resume {
		g.sessionID = ""
		g.lastSeq = 0
	}
	sessionID := g.sessionID
	lastSeq := g.lastSeq
	g.mu.Unlock()

	go g.readLoop(connCtx, conn)

	if resume {
		dlog.Info("Resuming gateway session", "session_id", sessionID, "seq", lastSeq)
		return g.send(frame{C: CommandResume, D: resumeData{SessionID: sessionID, Seq: lastSeq}})
	}

	g.setStatus(StatusAuthenticating)
	dlog.Info("Identifying with gateway", "url", g.url)
	return g.send(frame{C: CommandIdentify, D: identifyData{Token: g.token}})
}

func (g *Gateway) send(f frame) error {
	g.mu.Lock()
	conn := g.conn
	g.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(f)
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || g.Status() == StatusClosed {
				return
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == CloseAuthenticationFailed {
				g.fail(fmt.Errorf("gateway: authentication failed: %w", err))
				return
			}
			dlog.Warn("Gateway connection lost", "err", err)
			go g.reconnect()
			return
		}
		if !g.handleMessage(ctx, data) {
			return
		}
	}
}

// handleMessage processes one frame. It returns false when the read loop
// must stop because a reconnect has been triggered.
func (g *Gateway) handleMessage(ctx context.Context, data []byte) bool {
	j, err := simplejson.NewJson(data)
	if err != nil {
		dlog.Error("Malformed gateway frame", "err", err)
		go g.reconnect()
		return false
	}
	command := j.Get("c").MustString()
	seq := j.Get("s").MustInt64()

	switch command {
	case CommandIdentifyAccepted:
		d := j.Get("d")
		g.mu.Lock()
		g.sessionID = d.Get("session_id").MustString()
		if ms := d.Get("heartbeat_interval").MustInt64(); ms > 0 {
			g.heartbeatInterval = time.Duration(ms) * time.Millisecond
		}
		interval := g.heartbeatInterval
		g.mu.Unlock()
		g.setStatus(StatusConnected)
		go g.heartbeat(ctx, interval)
		g.signalOpen(nil)
		dlog.Info("Gateway session established", "session_id", g.SessionID(), "heartbeat_interval", interval)
		raw, _ := d.Encode()
		g.handleFrame(command, seq, raw)

	case CommandResumeAccepted:
		g.mu.Lock()
		if ms := j.Get("d").Get("heartbeat_interval").MustInt64(); ms > 0 {
			g.heartbeatInterval = time.Duration(ms) * time.Millisecond
		}
		interval := g.heartbeatInterval
		seqNow := g.lastSeq
		g.mu.Unlock()
		g.setStatus(StatusConnected)
		go g.heartbeat(ctx, interval)
		dlog.Info("Gateway session resumed", "seq", seqNow)

	case CommandHeartbeatAck:
		g.mu.Lock()
		g.heartbeatAcked = true
		g.mu.Unlock()

	case CommandReconnect:
		dlog.Info("Server requested reconnect")
		go g.reconnect()
		return false

	case CommandInvalidSession:
		dlog.Warn("Session rejected, identifying fresh")
		g.mu.Lock()
		g.sessionID = ""
		g.lastSeq = 0
		g.mu.Unlock()
		g.setStatus(StatusAuthenticating)
		if err := g.send(frame{C: CommandIdentify, D: identifyData{Token: g.token}}); err != nil {
			go g.reconnect()
			return false
		}

	default:
		g.mu.Lock()
		expected := g.lastSeq + 1
		if seq != expected {
			g.mu.Unlock()
			dlog.Warn("Sequence gap, resuming", "expected", expected, "received", seq)
			go g.reconnect()
			return false
		}
		g.lastSeq = seq
		g.mu.Unlock()
		raw, _ := j.Get("d").Encode()
		g.handleFrame(command, seq, raw)
	}
	return true
}

// heartbeat sends a no-op frame every interval. A beat that was never
// acknowledged counts the connection as dead and enters the resume path.
func (g *Gateway) heartbeat(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			g.mu.Lock()
			acked := g.heartbeatAcked
			g.heartbeatAcked = false
			seq := g.lastSeq
			g.mu.Unlock()
			if !acked {
				dlog.Warn("Heartbeat ack missing, reconnecting")
				go g.reconnect()
				return
			}
			if err := g.send(frame{C: CommandHeartbeat, D: heartbeatData{Seq: seq}}); err != nil {
				dlog.Warn("Heartbeat send failed", "err", err)
				go g.reconnect()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// reconnect tears the current transport down and retries with capped
// exponential backoff, forever, until the root context is cancelled.
// Resume is attempted while a session is held; the server answering
// InvalidSession downgrades to a fresh identify. A request arriving while a
// reconnect is already running is remembered, so a replacement connection
// that dies straight away gets redialed instead of dropped.
func (g *Gateway) reconnect() {
	if g.rootCtx.Err() != nil {
		return
	}
	g.rmu.Lock()
	g.reconPending = true
	if g.reconActive {
		g.rmu.Unlock()
		return
	}
	g.reconActive = true
	g.rmu.Unlock()

	for {
		g.rmu.Lock()
		if !g.reconPending || g.rootCtx.Err() != nil {
			g.reconActive = false
			g.rmu.Unlock()
			return
		}
		g.reconPending = false
		g.rmu.Unlock()

		g.setStatus(StatusReconnecting)

		g.mu.Lock()
		if g.connCancel != nil {
			g.connCancel()
		}
		conn := g.conn
		g.conn = nil
		canResume := g.sessionID != ""
		g.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}

		delay := time.Second
		for {
			select {
			case <-g.rootCtx.Done():
				g.rmu.Lock()
				g.reconActive = false
				g.rmu.Unlock()
				return
			case <-time.After(delay):
			}

			err := g.connect(g.rootCtx, canResume)
			if err == nil {
				break
			}
			dlog.Warn("Reconnect attempt failed", "err", err, "next_try_in", delay)
			delay *= 2
			if delay > g.maxReconnectDelay {
				delay = g.maxReconnectDelay
			}
		}
	}
}

// fail ends the gateway without reconnection and reports err.
func (g *Gateway) fail(err error) {
	dlog.Error("Gateway failed", "err", err)
	g.signalOpen(err)
	g.Close()
	if g.onFatal != nil {
		g.onFatal(err)
	}
}

// signalOpen delivers the initial Open outcome exactly once.
func (g *Gateway) signalOpen(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.opened {
		return
	}
	g.opened = true
	if g.openResult != nil {
		g.openResult <- err
	}
}
