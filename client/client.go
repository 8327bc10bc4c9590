// Package client ties the pieces together: the REST transport, the gateway
// session, the entity cache and the event pipeline. One Client is one
// logged-in session.
package client

import (
	"sync"

	"golang.org/x/net/context"

	"github.com/fuad-daoud/ferrisgo/cache"
	"github.com/fuad-daoud/ferrisgo/events"
	"github.com/fuad-daoud/ferrisgo/ferris"
	"github.com/fuad-daoud/ferrisgo/gateway"
	"github.com/fuad-daoud/ferrisgo/logger/dlog"
	"github.com/fuad-daoud/ferrisgo/rest"
)

type Client struct {
	token   string
	rest    *rest.Client
	caches  *cache.Caches
	em      *eventManager
	config  Config
	gateway *gateway.Gateway

	mu       sync.Mutex
	closed   bool
	loggedIn bool
}

func New(token string, opts ...ConfigOpt) *Client {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	c := &Client{
		token:  token,
		rest:   rest.New(token, cfg.RestOpts...),
		caches: cache.New(),
		config: cfg,
	}
	c.em = newEventManager(cfg.Listeners)
	return c
}

// Rest exposes the REST transport for calls the client has no helper for.
func (c *Client) Rest() *rest.Client { return c.rest }

// Caches exposes the entity cache. Reads return snapshots.
func (c *Client) Caches() *cache.Caches { return c.caches }

// Gateway returns the live gateway, nil before Open.
func (c *Client) Gateway() *gateway.Gateway {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gateway
}

// Open looks up the gateway URL, connects and identifies. It returns once
// the session is accepted (nil) or the credentials are rejected (final
// error). From then on the client keeps itself connected until Close.
func (c *Client) Open(ctx context.Context) error {
	url := c.config.GatewayURL
	if url == "" {
		var err error
		if url, err = c.rest.WSInfo(ctx); err != nil {
			return err
		}
	}

	opts := append([]gateway.ConfigOpt{
		gateway.WithOnStatusChange(c.onStatusChange),
		gateway.WithOnFatal(c.onFatal),
	}, c.config.GatewayOpts...)

	gw := gateway.New(c.token, url, c.handleFrame, opts...)
	c.mu.Lock()
	c.gateway = gw
	c.mu.Unlock()

	return gw.Open(ctx)
}

// Close ends the session, flushes pending events and emits Close.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	gw := c.gateway
	c.mu.Unlock()

	if gw != nil {
		gw.Close()
	}
	c.em.emit(events.Close{})
	c.em.close()
	dlog.Info("Client closed")
}

// SendMessage posts a message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID ferris.ID, content string) (ferris.Message, error) {
	return c.rest.CreateMessage(ctx, channelID, content)
}

func (c *Client) onStatusChange(old, new gateway.Status) {
	dlog.Debug("Gateway status", "from", old.String(), "to", new.String())
	// a fresh identify reaches Connected before its accept payload is
	// dispatched; the dispatcher announces those connections itself so that
	// Connect follows Login. Only a resumed session needs the hook.
	if old == gateway.StatusReconnecting && new == gateway.StatusConnected {
		c.em.emit(events.Connect{})
	}
}

func (c *Client) onFatal(err error) {
	c.em.emit(events.Error{Err: err})
}
