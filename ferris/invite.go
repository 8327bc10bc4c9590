package ferris

import "time"

// Invite is an invite snapshot. Invites are keyed by their code, not by a
// snowflake.
type Invite struct {
	Code      string `json:"code"`
	OwnerID   ID     `json:"owner_id"`
	GuildID   ID     `json:"guild_id"`
	CreatedAt int64  `json:"created_at"`
	Uses      int    `json:"uses"`
	MaxUses   int    `json:"max_uses"`
	MaxAge    int    `json:"max_age"`
}

func (i Invite) Clone() Invite {
	return i
}

// CreatedTime converts the CreatedAt offset (seconds since the Ferris epoch)
// to wall-clock time.
func (i Invite) CreatedTime() time.Time {
	return time.Unix(i.CreatedAt+Epoch/1000, 0).UTC()
}
