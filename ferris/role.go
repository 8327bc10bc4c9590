package ferris

// Role is a guild role snapshot.
type Role struct {
	ID       ID     `json:"id"`
	GuildID  ID     `json:"guild_id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
}

func (r Role) Clone() Role {
	return r
}
