package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuad-daoud/ferrisgo/ferris"
)

func seedGuild(c *Caches, guildID ferris.ID) {
	c.Guilds().Put(guildID, ferris.Guild{ID: guildID, Name: "test"})
	c.Channels().Put(guildID+1, ferris.Channel{ID: guildID + 1, GuildID: guildID})
	c.Messages().Put(guildID+2, ferris.Message{ID: guildID + 2, ChannelID: guildID + 1})
	c.Members().Put(MemberKey{GuildID: guildID, UserID: 5}, ferris.Member{GuildID: guildID, UserID: 5})
	c.Roles().Put(guildID+3, ferris.Role{ID: guildID + 3, GuildID: guildID})
	c.Invites().Put("inv", ferris.Invite{Code: "inv", GuildID: guildID})
}

func TestRemoveGuildCascades(t *testing.T) {
	c := New()
	seedGuild(c, 100)
	// unrelated guild must survive
	c.Guilds().Put(900, ferris.Guild{ID: 900})
	c.Channels().Put(901, ferris.Channel{ID: 901, GuildID: 900})
	c.Messages().Put(902, ferris.Message{ID: 902, ChannelID: 901})

	g, ok := c.RemoveGuild(100)
	require.True(t, ok)
	assert.Equal(t, ferris.ID(100), g.ID)

	_, ok = c.Channels().Get(101)
	assert.False(t, ok)
	_, ok = c.Messages().Get(102)
	assert.False(t, ok)
	_, ok = c.Member(100, 5)
	assert.False(t, ok)
	_, ok = c.Roles().Get(103)
	assert.False(t, ok)
	_, ok = c.Invites().Get("inv")
	assert.False(t, ok)

	_, ok = c.Guilds().Get(900)
	assert.True(t, ok)
	_, ok = c.Channels().Get(901)
	assert.True(t, ok)
	_, ok = c.Messages().Get(902)
	assert.True(t, ok)
}

func TestRemoveGuildUnknownIsNoop(t *testing.T) {
	c := New()
	_, ok := c.RemoveGuild(1)
	assert.False(t, ok)
}

func TestRemoveChannelCascadesMessages(t *testing.T) {
	c := New()
	c.Channels().Put(1, ferris.Channel{ID: 1, GuildID: 10})
	c.Messages().Put(2, ferris.Message{ID: 2, ChannelID: 1})
	c.Messages().Put(3, ferris.Message{ID: 3, ChannelID: 99})

	ch, ok := c.RemoveChannel(1)
	require.True(t, ok)
	assert.Equal(t, ferris.ID(1), ch.ID)

	_, ok = c.Messages().Get(2)
	assert.False(t, ok)
	_, ok = c.Messages().Get(3)
	assert.True(t, ok)
}

func TestPutGuildPayloadFlattens(t *testing.T) {
	c := New()
	user := ferris.User{ID: 7, Name: "crab"}
	c.PutGuildPayload(ferris.GuildPayload{
		Guild:    ferris.Guild{ID: 1, Name: "g"},
		Channels: []ferris.Channel{{ID: 2}},
		Members: []ferris.MemberPayload{
			{Member: ferris.Member{UserID: 7}, User: &user},
		},
	})

	ch, ok := c.Channels().Get(2)
	require.True(t, ok)
	// guild id backfilled from the envelope
	assert.Equal(t, ferris.ID(1), ch.GuildID)

	m, ok := c.Member(1, 7)
	require.True(t, ok)
	assert.Equal(t, ferris.ID(1), m.GuildID)

	u, ok := c.Users().Get(7)
	require.True(t, ok)
	assert.Equal(t, "crab", u.Name)
}

func TestSelfUser(t *testing.T) {
	c := New()
	_, ok := c.SelfUser()
	assert.False(t, ok)

	c.Users().Put(7, ferris.User{ID: 7, Name: "me"})
	c.SetSelfUserID(7)

	u, ok := c.SelfUser()
	require.True(t, ok)
	assert.Equal(t, "me", u.Name)
}

func TestGuildChannelsAndMembers(t *testing.T) {
	c := New()
	seedGuild(c, 100)
	seedGuild(c, 200)

	assert.Len(t, c.GuildChannels(100), 1)
	assert.Len(t, c.GuildMembers(100), 1)
	assert.Empty(t, c.GuildChannels(999))
}
