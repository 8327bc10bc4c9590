package client

import (
	"github.com/fuad-daoud/ferrisgo/events"
	"github.com/fuad-daoud/ferrisgo/gateway"
	"github.com/fuad-daoud/ferrisgo/rest"
)

// Config collects everything New needs. Options mutate it in order.
type Config struct {
	RestOpts    []rest.Option
	GatewayOpts []gateway.ConfigOpt
	GatewayURL  string
	Listeners   []EventListener
}

type ConfigOpt func(*Config)

// WithGatewayURL skips the /ws/info lookup and connects straight to url.
func WithGatewayURL(url string) ConfigOpt {
	return func(c *Config) { c.GatewayURL = url }
}

// WithRestOpts forwards options to the REST client.
func WithRestOpts(opts ...rest.Option) ConfigOpt {
	return func(c *Config) { c.RestOpts = append(c.RestOpts, opts...) }
}

// WithGatewayOpts forwards options to the gateway.
func WithGatewayOpts(opts ...gateway.ConfigOpt) ConfigOpt {
	return func(c *Config) { c.GatewayOpts = append(c.GatewayOpts, opts...) }
}

// WithEventListeners subscribes listeners to every event.
func WithEventListeners(listeners ...EventListener) ConfigOpt {
	return func(c *Config) { c.Listeners = append(c.Listeners, listeners...) }
}

// WithEventListenerFunc subscribes a function to a single event type.
func WithEventListenerFunc[E events.Event](f func(e E)) ConfigOpt {
	return func(c *Config) { c.Listeners = append(c.Listeners, NewListenerFunc(f)) }
}
