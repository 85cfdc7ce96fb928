package model

// Sender identifies who authored a chat message.
type Sender string

// Chat senders.
const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one entry of the chat log. IDs are unique and increase with
// send order, but need not be contiguous.
type Message struct {
	ID     int64
	Text   string
	Sender Sender
}
