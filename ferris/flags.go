package ferris

// UserFlags is the bitmask of account badges and safety markers carried on a
// user snapshot.
type UserFlags uint64

const (
	UserFlagBotAccount UserFlags = 1 << iota
	UserFlagVerifiedScam
	UserFlagPossibleScam
	UserFlagCompromised
	UserFlagSystem
	UserFlagEarlyBot
	UserFlagEarlyBotDev
	UserFlagEarlySupporter
	UserFlagDonator
	UserFlagLibraryDev
	UserFlagContributor
	UserFlagMaintainer
	UserFlagEventWinner
	UserFlagBugHunter
)

// Has reports whether every bit of f is set.
func (u UserFlags) Has(f UserFlags) bool { return u&f == f }

// With returns the flags with f set.
func (u UserFlags) With(f UserFlags) UserFlags { return u | f }

// Without returns the flags with f cleared.
func (u UserFlags) Without(f UserFlags) UserFlags { return u &^ f }

// GuildFlags is the bitmask of moderation markers on a guild.
type GuildFlags uint64

const (
	GuildFlagVerified GuildFlags = 1 << iota
	GuildFlagVerifiedScam
)

func (g GuildFlags) Has(f GuildFlags) bool { return g&f == f }

func (g GuildFlags) With(f GuildFlags) GuildFlags { return g | f }

func (g GuildFlags) Without(f GuildFlags) GuildFlags { return g &^ f }
