package cache

import (
	"sync"

	"github.com/fuad-daoud/ferrisgo/ferris"
)

// MemberKey identifies a guild membership.
type MemberKey struct {
	GuildID ferris.ID
	UserID  ferris.ID
}

// Caches aggregates one store per entity kind. A Caches instance belongs to
// exactly one client; the dispatcher is its only writer.
type Caches struct {
	guilds   *Store[ferris.ID, ferris.Guild]
	channels *Store[ferris.ID, ferris.Channel]
	messages *Store[ferris.ID, ferris.Message]
	users    *Store[ferris.ID, ferris.User]
	roles    *Store[ferris.ID, ferris.Role]
	invites  *Store[string, ferris.Invite]
	members  *Store[MemberKey, ferris.Member]

	mu         sync.RWMutex
	selfUserID ferris.ID
}

func New() *Caches {
	return &Caches{
		guilds:   NewStore[ferris.ID, ferris.Guild](),
		channels: NewStore[ferris.ID, ferris.Channel](),
		messages: NewStore[ferris.ID, ferris.Message](),
		users:    NewStore[ferris.ID, ferris.User](),
		roles:    NewStore[ferris.ID, ferris.Role](),
		invites:  NewStore[string, ferris.Invite](),
		members:  NewStore[MemberKey, ferris.Member](),
	}
}

func (c *Caches) Guilds() *Store[ferris.ID, ferris.Guild]      { return c.guilds }
func (c *Caches) Channels() *Store[ferris.ID, ferris.Channel]  { return c.channels }
func (c *Caches) Messages() *Store[ferris.ID, ferris.Message]  { return c.messages }
func (c *Caches) Users() *Store[ferris.ID, ferris.User]        { return c.users }
func (c *Caches) Roles() *Store[ferris.ID, ferris.Role]        { return c.roles }
func (c *Caches) Invites() *Store[string, ferris.Invite]       { return c.invites }
func (c *Caches) Members() *Store[MemberKey, ferris.Member]    { return c.members }

// Member is a convenience lookup by guild and user ID.
func (c *Caches) Member(guildID, userID ferris.ID) (ferris.Member, bool) {
	return c.members.Get(MemberKey{GuildID: guildID, UserID: userID})
}

// GuildMembers returns all cached members of a guild.
func (c *Caches) GuildMembers(guildID ferris.ID) []ferris.Member {
	var out []ferris.Member
	c.members.ForEach(func(k MemberKey, m ferris.Member) bool {
		if k.GuildID == guildID {
			out = append(out, m)
		}
		return true
	})
	return out
}

// GuildChannels returns all cached channels of a guild.
func (c *Caches) GuildChannels(guildID ferris.ID) []ferris.Channel {
	var out []ferris.Channel
	c.channels.ForEach(func(_ ferris.ID, ch ferris.Channel) bool {
		if ch.GuildID == guildID {
			out = append(out, ch)
		}
		return true
	})
	return out
}

// RemoveGuild removes the guild and cascades to every descendant entity:
// its channels, members, roles, invites and the messages of its channels.
func (c *Caches) RemoveGuild(id ferris.ID) (ferris.Guild, bool) {
	guild, ok := c.guilds.Remove(id)
	removedChannels := c.channels.RemoveIf(func(_ ferris.ID, ch ferris.Channel) bool {
		return ch.GuildID == id
	})
	channelIDs := make(map[ferris.ID]struct{}, len(removedChannels))
	for _, ch := range removedChannels {
		channelIDs[ch.ID] = struct{}{}
	}
	c.messages.RemoveIf(func(_ ferris.ID, m ferris.Message) bool {
		_, gone := channelIDs[m.ChannelID]
		return gone
	})
	c.members.RemoveIf(func(k MemberKey, _ ferris.Member) bool {
		return k.GuildID == id
	})
	c.roles.RemoveIf(func(_ ferris.ID, r ferris.Role) bool {
		return r.GuildID == id
	})
	c.invites.RemoveIf(func(_ string, inv ferris.Invite) bool {
		return inv.GuildID == id
	})
	return guild, ok
}

// RemoveChannel removes the channel and every cached message in it.
func (c *Caches) RemoveChannel(id ferris.ID) (ferris.Channel, bool) {
	ch, ok := c.channels.Remove(id)
	c.messages.RemoveIf(func(_ ferris.ID, m ferris.Message) bool {
		return m.ChannelID == id
	})
	return ch, ok
}

// PutGuildPayload flattens a nested guild payload into the per-kind stores.
func (c *Caches) PutGuildPayload(p ferris.GuildPayload) {
	c.guilds.Put(p.ID, p.Guild)
	for _, ch := range p.Channels {
		if ch.GuildID == 0 {
			ch.GuildID = p.ID
		}
		c.channels.Put(ch.ID, ch)
	}
	for _, m := range p.Members {
		if m.GuildID == 0 {
			m.GuildID = p.ID
		}
		c.members.Put(MemberKey{GuildID: m.GuildID, UserID: m.UserID}, m.Member)
		if m.User != nil {
			c.users.Put(m.User.ID, *m.User)
		}
	}
}

// SetSelfUserID records which cached user is the logged-in account.
func (c *Caches) SetSelfUserID(id ferris.ID) {
	c.mu.Lock()
	c.selfUserID = id
	c.mu.Unlock()
}

// SelfUser returns the logged-in account's user snapshot, if known.
func (c *Caches) SelfUser() (ferris.User, bool) {
	c.mu.RLock()
	id := c.selfUserID
	c.mu.RUnlock()
	if id == 0 {
		return ferris.User{}, false
	}
	return c.users.Get(id)
}
