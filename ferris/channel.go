package ferris

// Channel is a text channel snapshot.
type Channel struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	GuildID ID     `json:"guild_id"`
}

func (c Channel) Clone() Channel {
	return c
}
