// Package events defines the typed payloads delivered to listeners. Every
// event is a value type carrying snapshots; mutating one never touches the
// cache.
package events

import "github.com/fuad-daoud/ferrisgo/ferris"

// Event is implemented by every payload in this package. EventType returns
// the wire name of the dispatch the event came from, or a synthetic name
// for lifecycle events.
type Event interface {
	EventType() string
}

// Login fires once per Open, after credentials were accepted and before any
// cache state exists. It does not fire again on resume.
type Login struct {
	User ferris.User
}

func (Login) EventType() string { return "login" }

// Connect fires whenever a connection is established, including after
// automatic reconnects.
type Connect struct{}

func (Connect) EventType() string { return "connect" }

// Ready fires after the initial state from the server has been applied to
// the cache.
type Ready struct {
	User   ferris.User
	Guilds []ferris.GuildPayload
}

func (Ready) EventType() string { return "ready" }

// Close fires when the client shuts down for good.
type Close struct{}

func (Close) EventType() string { return "close" }

// Error wraps failures that happen outside a call path the user can observe
// directly, including panics recovered from listeners.
type Error struct {
	Err error
}

func (Error) EventType() string { return "error" }

type MessageCreate struct {
	Message ferris.Message
}

func (MessageCreate) EventType() string { return "message" }

type MessageUpdate struct {
	Old ferris.Message
	New ferris.Message
}

func (MessageUpdate) EventType() string { return "message_edit" }

type MessageDelete struct {
	Message ferris.Message
}

func (MessageDelete) EventType() string { return "message_delete" }

type ChannelCreate struct {
	Channel ferris.Channel
}

func (ChannelCreate) EventType() string { return "channel_create" }

type ChannelUpdate struct {
	Old ferris.Channel
	New ferris.Channel
}

func (ChannelUpdate) EventType() string { return "channel_update" }

type ChannelDelete struct {
	Channel ferris.Channel
}

func (ChannelDelete) EventType() string { return "channel_delete" }

type GuildCreate struct {
	Guild ferris.GuildPayload
}

func (GuildCreate) EventType() string { return "guild_create" }

type GuildUpdate struct {
	Old ferris.Guild
	New ferris.Guild
}

func (GuildUpdate) EventType() string { return "guild_update" }

type GuildDelete struct {
	Guild ferris.Guild
}

func (GuildDelete) EventType() string { return "guild_delete" }

type MemberCreate struct {
	Member ferris.MemberPayload
}

func (MemberCreate) EventType() string { return "member_create" }

type MemberUpdate struct {
	Old ferris.Member
	New ferris.Member
}

func (MemberUpdate) EventType() string { return "member_update" }

type MemberDelete struct {
	Member ferris.Member
}

func (MemberDelete) EventType() string { return "member_delete" }

type UserCreate struct {
	User ferris.User
}

func (UserCreate) EventType() string { return "user_create" }

type UserUpdate struct {
	Old ferris.User
	New ferris.User
}

func (UserUpdate) EventType() string { return "user_update" }

type InviteCreate struct {
	Invite ferris.Invite
}

func (InviteCreate) EventType() string { return "invite_create" }

type InviteDelete struct {
	Invite ferris.Invite
}

func (InviteDelete) EventType() string { return "invite_delete" }

type RoleCreate struct {
	Role ferris.Role
}

func (RoleCreate) EventType() string { return "role_create" }

type RoleUpdate struct {
	Old ferris.Role
	New ferris.Role
}

func (RoleUpdate) EventType() string { return "role_update" }

type RoleDelete struct {
	Role ferris.Role
}

func (RoleDelete) EventType() string { return "role_delete" }
