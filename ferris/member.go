package ferris

// Member is a guild membership snapshot. It is identified by the pair
// (GuildID, UserID); the user itself is cached under the user kind.
type Member struct {
	UserID  ID `json:"user_id"`
	GuildID ID `json:"guild_id"`
}

func (m Member) Clone() Member {
	return m
}

// MemberPayload is a member as returned by the API, with the nested user.
type MemberPayload struct {
	Member
	User *User `json:"user,omitempty"`
}
