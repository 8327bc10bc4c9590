package ferris

// Message is a message snapshot.
type Message struct {
	ID        ID     `json:"id"`
	Content   string `json:"content"`
	ChannelID ID     `json:"channel_id"`
	AuthorID  ID     `json:"author_id"`
}

func (m Message) Clone() Message {
	return m
}
