package rest

import (
	"net/url"
	"strconv"

	"golang.org/x/net/context"

	"github.com/fuad-daoud/ferrisgo/ferris"
)

// The typed accessors below are the thin boundary over Do. Responses feed
// the caller; the client package decides what to mirror into its cache.

type wsInfo struct {
	URL string `json:"url"`
}

// WSInfo returns the gateway URL to connect to.
func (c *Client) WSInfo(ctx context.Context) (string, error) {
	var info wsInfo
	if err := c.Do(ctx, GetWSInfo.Compile(), nil, &info); err != nil {
		return "", err
	}
	return info.URL, nil
}

type tokenResponse struct {
	Token string `json:"token"`
}

// TokenFromEmailPassword exchanges account credentials for a token. An
// Unauthorized result is final; retrying the same credential cannot succeed.
func (c *Client) TokenFromEmailPassword(ctx context.Context, email, password string, id ferris.ID) (string, error) {
	route := PostAuth.Compile(id).
		WithHeader("Email", email).
		WithHeader("Password", password)
	var resp tokenResponse
	if err := c.Do(ctx, route, nil, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// CreateUser registers a new account. No authentication required.
func (c *Client) CreateUser(ctx context.Context, username, email, password string) (ferris.User, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var u ferris.User
	err := c.Do(ctx, CreateUser.Compile(), body, &u)
	return u, err
}

func (c *Client) User(ctx context.Context, id ferris.ID) (ferris.User, error) {
	var u ferris.User
	err := c.Do(ctx, GetUser.Compile(id), nil, &u)
	return u, err
}

func (c *Client) CreateGuild(ctx context.Context, name string) (ferris.GuildPayload, error) {
	var g ferris.GuildPayload
	err := c.Do(ctx, CreateGuild.Compile(), map[string]string{"name": name}, &g)
	return g, err
}

// Guild fetches a guild, optionally with its members and channels inlined.
func (c *Client) Guild(ctx context.Context, id ferris.ID, withMembers, withChannels bool) (ferris.GuildPayload, error) {
	q := url.Values{}
	q.Set("members", strconv.FormatBool(withMembers))
	q.Set("channels", strconv.FormatBool(withChannels))
	var g ferris.GuildPayload
	err := c.Do(ctx, GetGuild.Compile(id).WithQuery(q), nil, &g)
	return g, err
}

func (c *Client) DeleteGuild(ctx context.Context, id ferris.ID) error {
	return c.Do(ctx, DeleteGuild.Compile(id), nil, nil)
}

func (c *Client) CreateChannel(ctx context.Context, guildID ferris.ID, name string) (ferris.Channel, error) {
	var ch ferris.Channel
	err := c.Do(ctx, CreateChannel.Compile(guildID), map[string]string{"name": name}, &ch)
	return ch, err
}

func (c *Client) Channel(ctx context.Context, id ferris.ID) (ferris.Channel, error) {
	var ch ferris.Channel
	err := c.Do(ctx, GetChannel.Compile(id), nil, &ch)
	return ch, err
}

func (c *Client) DeleteChannel(ctx context.Context, id ferris.ID) error {
	return c.Do(ctx, DeleteChannel.Compile(id), nil, nil)
}

func (c *Client) CreateMessage(ctx context.Context, channelID ferris.ID, content string) (ferris.Message, error) {
	var m ferris.Message
	err := c.Do(ctx, CreateMessage.Compile(channelID), map[string]string{"content": content}, &m)
	return m, err
}

func (c *Client) Message(ctx context.Context, id ferris.ID) (ferris.Message, error) {
	var m ferris.Message
	err := c.Do(ctx, GetMessage.Compile(id), nil, &m)
	return m, err
}

func (c *Client) DeleteMessage(ctx context.Context, id ferris.ID) error {
	return c.Do(ctx, DeleteMessage.Compile(id), nil, nil)
}

func (c *Client) Member(ctx context.Context, guildID, userID ferris.ID) (ferris.MemberPayload, error) {
	var m ferris.MemberPayload
	err := c.Do(ctx, GetMember.Compile(guildID, userID), nil, &m)
	return m, err
}

// KickMember removes a member from a guild.
func (c *Client) KickMember(ctx context.Context, guildID, userID ferris.ID) error {
	return c.Do(ctx, DeleteMember.Compile(guildID, userID), nil, nil)
}

func (c *Client) CreateInvite(ctx context.Context, guildID ferris.ID, maxUses, maxAge int) (ferris.Invite, error) {
	body := map[string]int{"max_uses": maxUses, "max_age": maxAge}
	var inv ferris.Invite
	err := c.Do(ctx, CreateInvite.Compile(guildID), body, &inv)
	return inv, err
}

func (c *Client) Invite(ctx context.Context, code string) (ferris.Invite, error) {
	var inv ferris.Invite
	err := c.Do(ctx, GetInvite.Compile(code), nil, &inv)
	return inv, err
}

// UseInvite joins the guild behind the invite code.
func (c *Client) UseInvite(ctx context.Context, code string) (ferris.GuildPayload, error) {
	var g ferris.GuildPayload
	err := c.Do(ctx, JoinInvite.Compile(code), nil, &g)
	return g, err
}
