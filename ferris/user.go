package ferris

// User is a user snapshot.
type User struct {
	ID       ID        `json:"id"`
	Name     string    `json:"name"`
	Flags    UserFlags `json:"flags,omitempty"`
	Pronouns *Pronouns `json:"pronouns,omitempty"`
}

func (u User) Clone() User {
	if u.Pronouns != nil {
		p := *u.Pronouns
		u.Pronouns = &p
	}
	return u
}

// UserPayload is a user as returned by the API, with the guilds the user can
// see. Only the identify payload populates Guilds.
type UserPayload struct {
	User
	Guilds []GuildPayload `json:"guilds,omitempty"`
}

// Pronouns enumerates the pronoun choices the API offers.
type Pronouns int

const (
	PronounsHeHim Pronouns = iota
	PronounsHeIt
	PronounsHeShe
	PronounsHeThey
	PronounsItHim
	PronounsItIts
	PronounsItShe
	PronounsItThey
	PronounsSheHe
	PronounsSheHer
	PronounsSheIt
	PronounsSheThey
	PronounsTheyHe
	PronounsTheyIt
	PronounsTheyShe
	PronounsTheyThem
	PronounsAny
	PronounsOtherAsk
	PronounsAvoid
)
