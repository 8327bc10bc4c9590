package ferris

// Guild is a guild snapshot. Channels and members are cached separately; see
// GuildPayload for the nested form the API returns.
type Guild struct {
	ID      ID     `json:"id"`
	OwnerID ID     `json:"owner_id"`
	Name    string `json:"name"`
}

func (g Guild) Clone() Guild {
	return g
}

// GuildPayload is a guild as returned by the API, with its nested channels
// and members. The dispatcher flattens it into the per-kind caches.
type GuildPayload struct {
	Guild
	Channels []Channel       `json:"channels,omitempty"`
	Members  []MemberPayload `json:"members,omitempty"`
}
