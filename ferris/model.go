package ferris

// ModelType enumerates the entity kinds the API models.
type ModelType int

const (
	ModelGuild ModelType = iota
	ModelUser
	ModelChannel
	ModelMember
	ModelRole
)

func (m ModelType) String() string {
	switch m {
	case ModelGuild:
		return "guild"
	case ModelUser:
		return "user"
	case ModelChannel:
		return "channel"
	case ModelMember:
		return "member"
	case ModelRole:
		return "role"
	default:
		return "unknown"
	}
}
