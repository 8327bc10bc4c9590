package client

import (
	"encoding/json"

	"github.com/fuad-daoud/ferrisgo/cache"
	"github.com/fuad-daoud/ferrisgo/events"
	"github.com/fuad-daoud/ferrisgo/ferris"
	"github.com/fuad-daoud/ferrisgo/logger/dlog"
)

// frameHandlers routes dispatch frames by command name. The gateway read
// loop calls these in arrival order; each applies the cache change first
// and emits the event after, so a listener reading the cache always sees
// the post-event state.
var frameHandlers = map[string]func(c *Client, data []byte){
	"IdentifyAccepted": (*Client).handleIdentifyAccepted,
	"MessageCreate":    (*Client).handleMessageCreate,
	"MessageUpdate":    (*Client).handleMessageUpdate,
	"MessageDelete":    (*Client).handleMessageDelete,
	"ChannelCreate":    (*Client).handleChannelCreate,
	"ChannelUpdate":    (*Client).handleChannelUpdate,
	"ChannelDelete":    (*Client).handleChannelDelete,
	"GuildCreate":      (*Client).handleGuildCreate,
	"GuildUpdate":      (*Client).handleGuildUpdate,
	"GuildDelete":      (*Client).handleGuildDelete,
	"MemberCreate":     (*Client).handleMemberCreate,
	"MemberUpdate":     (*Client).handleMemberUpdate,
	"MemberDelete":     (*Client).handleMemberDelete,
	"UserCreate":       (*Client).handleUserCreate,
	"UserUpdate":       (*Client).handleUserUpdate,
	"InviteCreate":     (*Client).handleInviteCreate,
	"InviteDelete":     (*Client).handleInviteDelete,
	"RoleCreate":       (*Client).handleRoleCreate,
	"RoleUpdate":       (*Client).handleRoleUpdate,
	"RoleDelete":       (*Client).handleRoleDelete,
}

func (c *Client) handleFrame(command string, seq int64, data []byte) {
	h, ok := frameHandlers[command]
	if !ok {
		dlog.Warn("Unhandled gateway command", "command", command, "seq", seq)
		return
	}
	h(c, data)
}

func (c *Client) decodeErr(command string, err error) {
	dlog.Error("Malformed dispatch payload", "command", command, "err", err)
	c.em.emit(events.Error{Err: err})
}

type identifyAcceptedData struct {
	User   ferris.User           `json:"user"`
	Guilds []ferris.GuildPayload `json:"guilds"`
}

func (c *Client) handleIdentifyAccepted(data []byte) {
	var d identifyAcceptedData
	if err := json.Unmarshal(data, &d); err != nil {
		c.decodeErr("IdentifyAccepted", err)
		return
	}

	c.mu.Lock()
	first := !c.loggedIn
	c.loggedIn = true
	c.mu.Unlock()
	if first {
		c.em.emit(events.Login{User: d.User})
	}
	c.em.emit(events.Connect{})

	c.caches.Users().Put(d.User.ID, d.User)
	c.caches.SetSelfUserID(d.User.ID)
	for _, g := range d.Guilds {
		c.caches.PutGuildPayload(g)
	}
	c.em.emit(events.Ready{User: d.User, Guilds: d.Guilds})
}

// updateFrame is the wire shape of every *Update dispatch: the entity id
// plus only the fields that changed, under a key named after the kind.
type updateFrame struct {
	ID      ferris.ID      `json:"id"`
	Message map[string]any `json:"message"`
	Channel map[string]any `json:"channel"`
	Guild   map[string]any `json:"guild"`
	Member  map[string]any `json:"member"`
	User    map[string]any `json:"user"`
	Role    map[string]any `json:"role"`
}

type deleteFrame struct {
	ID      ferris.ID `json:"id"`
	GuildID ferris.ID `json:"guild_id"`
	UserID  ferris.ID `json:"user_id"`
	Code    string    `json:"code"`
}

func (c *Client) handleMessageCreate(data []byte) {
	var m ferris.Message
	if err := json.Unmarshal(data, &m); err != nil {
		c.decodeErr("MessageCreate", err)
		return
	}
	c.caches.Messages().Put(m.ID, m)
	c.em.emit(events.MessageCreate{Message: m})
}

func (c *Client) handleMessageUpdate(data []byte) {
	var f updateFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("MessageUpdate", err)
		return
	}
	old, updated, existed, err := c.caches.Messages().Patch(f.ID, f.Message)
	if err != nil {
		c.decodeErr("MessageUpdate", err)
		return
	}
	if !existed {
		// update for an uncached entity degrades to a create
		updated.ID = f.ID
		c.caches.Messages().Put(f.ID, updated)
		c.em.emit(events.MessageCreate{Message: updated})
		return
	}
	c.em.emit(events.MessageUpdate{Old: old, New: updated})
}

func (c *Client) handleMessageDelete(data []byte) {
	var f deleteFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("MessageDelete", err)
		return
	}
	if m, ok := c.caches.Messages().Remove(f.ID); ok {
		c.em.emit(events.MessageDelete{Message: m})
	}
}

func (c *Client) handleChannelCreate(data []byte) {
	var ch ferris.Channel
	if err := json.Unmarshal(data, &ch); err != nil {
		c.decodeErr("ChannelCreate", err)
		return
	}
	c.caches.Channels().Put(ch.ID, ch)
	c.em.emit(events.ChannelCreate{Channel: ch})
}

func (c *Client) handleChannelUpdate(data []byte) {
	var f updateFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("ChannelUpdate", err)
		return
	}
	old, updated, existed, err := c.caches.Channels().Patch(f.ID, f.Channel)
	if err != nil {
		c.decodeErr("ChannelUpdate", err)
		return
	}
	if !existed {
		updated.ID = f.ID
		c.caches.Channels().Put(f.ID, updated)
		c.em.emit(events.ChannelCreate{Channel: updated})
		return
	}
	c.em.emit(events.ChannelUpdate{Old: old, New: updated})
}

func (c *Client) handleChannelDelete(data []byte) {
	var f deleteFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("ChannelDelete", err)
		return
	}
	if ch, ok := c.caches.RemoveChannel(f.ID); ok {
		c.em.emit(events.ChannelDelete{Channel: ch})
	}
}

func (c *Client) handleGuildCreate(data []byte) {
	var g ferris.GuildPayload
	if err := json.Unmarshal(data, &g); err != nil {
		c.decodeErr("GuildCreate", err)
		return
	}
	c.caches.PutGuildPayload(g)
	c.em.emit(events.GuildCreate{Guild: g})
}

func (c *Client) handleGuildUpdate(data []byte) {
	var f updateFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("GuildUpdate", err)
		return
	}
	old, updated, existed, err := c.caches.Guilds().Patch(f.ID, f.Guild)
	if err != nil {
		c.decodeErr("GuildUpdate", err)
		return
	}
	if !existed {
		updated.ID = f.ID
		c.caches.Guilds().Put(f.ID, updated)
		c.em.emit(events.GuildCreate{Guild: ferris.GuildPayload{Guild: updated}})
		return
	}
	c.em.emit(events.GuildUpdate{Old: old, New: updated})
}

func (c *Client) handleGuildDelete(data []byte) {
	var f deleteFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("GuildDelete", err)
		return
	}
	if g, ok := c.caches.RemoveGuild(f.ID); ok {
		c.em.emit(events.GuildDelete{Guild: g})
	}
}

func (c *Client) handleMemberCreate(data []byte) {
	var m ferris.MemberPayload
	if err := json.Unmarshal(data, &m); err != nil {
		c.decodeErr("MemberCreate", err)
		return
	}
	c.caches.Members().Put(cache.MemberKey{GuildID: m.GuildID, UserID: m.UserID}, m.Member)
	if m.User != nil {
		c.caches.Users().Put(m.User.ID, *m.User)
	}
	c.em.emit(events.MemberCreate{Member: m})
}

func (c *Client) handleMemberUpdate(data []byte) {
	var f struct {
		GuildID ferris.ID      `json:"guild_id"`
		UserID  ferris.ID      `json:"user_id"`
		Member  map[string]any `json:"member"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("MemberUpdate", err)
		return
	}
	key := cache.MemberKey{GuildID: f.GuildID, UserID: f.UserID}
	old, updated, existed, err := c.caches.Members().Patch(key, f.Member)
	if err != nil {
		c.decodeErr("MemberUpdate", err)
		return
	}
	if !existed {
		updated.GuildID = f.GuildID
		updated.UserID = f.UserID
		c.caches.Members().Put(key, updated)
		c.em.emit(events.MemberCreate{Member: ferris.MemberPayload{Member: updated}})
		return
	}
	c.em.emit(events.MemberUpdate{Old: old, New: updated})
}

func (c *Client) handleMemberDelete(data []byte) {
	var f deleteFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("MemberDelete", err)
		return
	}
	key := cache.MemberKey{GuildID: f.GuildID, UserID: f.UserID}
	if m, ok := c.caches.Members().Remove(key); ok {
		c.em.emit(events.MemberDelete{Member: m})
	}
}

func (c *Client) handleUserCreate(data []byte) {
	var u ferris.User
	if err := json.Unmarshal(data, &u); err != nil {
		c.decodeErr("UserCreate", err)
		return
	}
	c.caches.Users().Put(u.ID, u)
	c.em.emit(events.UserCreate{User: u})
}

func (c *Client) handleUserUpdate(data []byte) {
	var f updateFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("UserUpdate", err)
		return
	}
	old, updated, existed, err := c.caches.Users().Patch(f.ID, f.User)
	if err != nil {
		c.decodeErr("UserUpdate", err)
		return
	}
	if !existed {
		updated.ID = f.ID
		c.caches.Users().Put(f.ID, updated)
		c.em.emit(events.UserCreate{User: updated})
		return
	}
	c.em.emit(events.UserUpdate{Old: old, New: updated})
}

func (c *Client) handleInviteCreate(data []byte) {
	var inv ferris.Invite
	if err := json.Unmarshal(data, &inv); err != nil {
		c.decodeErr("InviteCreate", err)
		return
	}
	c.caches.Invites().Put(inv.Code, inv)
	c.em.emit(events.InviteCreate{Invite: inv})
}

func (c *Client) handleInviteDelete(data []byte) {
	var f deleteFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("InviteDelete", err)
		return
	}
	if inv, ok := c.caches.Invites().Remove(f.Code); ok {
		c.em.emit(events.InviteDelete{Invite: inv})
	}
}

func (c *Client) handleRoleCreate(data []byte) {
	var r ferris.Role
	if err := json.Unmarshal(data, &r); err != nil {
		c.decodeErr("RoleCreate", err)
		return
	}
	c.caches.Roles().Put(r.ID, r)
	c.em.emit(events.RoleCreate{Role: r})
}

func (c *Client) handleRoleUpdate(data []byte) {
	var f updateFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("RoleUpdate", err)
		return
	}
	old, updated, existed, err := c.caches.Roles().Patch(f.ID, f.Role)
	if err != nil {
		c.decodeErr("RoleUpdate", err)
		return
	}
	if !existed {
		updated.ID = f.ID
		c.caches.Roles().Put(f.ID, updated)
		c.em.emit(events.RoleCreate{Role: updated})
		return
	}
	c.em.emit(events.RoleUpdate{Old: old, New: updated})
}

func (c *Client) handleRoleDelete(data []byte) {
	var f deleteFrame
	if err := json.Unmarshal(data, &f); err != nil {
		c.decodeErr("RoleDelete", err)
		return
	}
	if r, ok := c.caches.Roles().Remove(f.ID); ok {
		c.em.emit(events.RoleDelete{Role: r})
	}
}
