package rest

import (
	"fmt"
	"net/http"
	"net/url"
)

// Route is an endpoint template. Its Method plus the uncompiled Path form
// the rate-limit bucket key, so all requests hitting the same endpoint share
// one quota regardless of the concrete IDs involved.
type Route struct {
	Method string
	Path   string
}

var (
	GetWSInfo = Route{http.MethodGet, "/ws/info"}

	PostAuth   = Route{http.MethodPost, "/auth/%s"}
	CreateUser = Route{http.MethodPost, "/users"}
	GetUser    = Route{http.MethodGet, "/users/%s"}

	CreateGuild = Route{http.MethodPost, "/guilds"}
	GetGuild    = Route{http.MethodGet, "/guilds/%s"}
	DeleteGuild = Route{http.MethodDelete, "/guilds/%s"}

	CreateChannel = Route{http.MethodPost, "/guilds/%s/channels"}
	GetChannel    = Route{http.MethodGet, "/channels/%s"}
	DeleteChannel = Route{http.MethodDelete, "/channels/%s"}

	CreateMessage = Route{http.MethodPost, "/channels/%s/messages"}
	GetMessage    = Route{http.MethodGet, "/messages/%s"}
	DeleteMessage = Route{http.MethodDelete, "/messages/%s"}

	GetMember    = Route{http.MethodGet, "/guilds/%s/members/%s"}
	DeleteMember = Route{http.MethodDelete, "/guilds/%s/members/%s"}

	CreateInvite = Route{http.MethodPost, "/guilds/%s/invites"}
	GetInvite    = Route{http.MethodGet, "/invites/%s"}
	JoinInvite   = Route{http.MethodPost, "/invites/%s"}
)

// CompiledRoute is a Route with its parameters filled in, ready to send.
type CompiledRoute struct {
	Method string
	Path   string
	Bucket string
	Query  url.Values
	Header http.Header
}

// Compile fills the route's path parameters. Parameters are formatted with
// %s so both snowflakes and invite codes fit.
func (r Route) Compile(params ...any) CompiledRoute {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = url.PathEscape(fmt.Sprint(p))
	}
	return CompiledRoute{
		Method: r.Method,
		Path:   fmt.Sprintf(r.Path, args...),
		Bucket: r.Method + " " + r.Path,
	}
}

// WithQuery attaches query parameters.
func (c CompiledRoute) WithQuery(q url.Values) CompiledRoute {
	c.Query = q
	return c
}

// WithHeader attaches an extra request header.
func (c CompiledRoute) WithHeader(key, value string) CompiledRoute {
	if c.Header == nil {
		c.Header = http.Header{}
	}
	c.Header.Set(key, value)
	return c
}

// URL joins the route onto base.
func (c CompiledRoute) URL(base string) string {
	u := base + c.Path
	if len(c.Query) > 0 {
		u += "?" + c.Query.Encode()
	}
	return u
}
