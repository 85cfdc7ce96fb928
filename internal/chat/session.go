// Package chat manages the coaching conversation: the message log, the
// compose buffer and the pending flag shown while a reply is outstanding.
//
// A turn has two phases. Begin echoes the user's text into the log at once;
// Complete appends whatever the agent produced, or a fixed diagnostic when
// the request failed. Hosts that run the request asynchronously call the two
// phases themselves; Send does both in one call.
package chat

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/theirongolddev/fincoach/internal/model"
)

const (
	// Greeting opens every new session.
	Greeting = "Hello! How can I help you analyze your finances today?"
	// NoReplyText stands in for an empty reply.
	NoReplyText = "No reply returned."
	// BlockedText is appended when the agent could not be reached.
	BlockedText = "Error: The direct connection to the agent was blocked. If this happens, route the request through a server-side proxy."
)

// Agent answers one user message.
type Agent interface {
	Chat(ctx context.Context, text string) (string, error)
}

// Turn identifies an outstanding request started by Begin.
type Turn struct {
	ID   int64
	Text string
}

// Session is the conversation state. It is not safe for concurrent use;
// the owner serializes all calls.
type Session struct {
	log      []model.Message
	draft    string
	open     bool
	inflight int
	lastID   int64
	now      func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock used to derive message ids.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New returns a closed session holding only the greeting.
func New(opts ...Option) *Session {
	s := &Session{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.lastID = 1
	s.log = []model.Message{{ID: 1, Text: Greeting, Sender: model.SenderAssistant}}
	return s
}

// Log returns a copy of the conversation in send order.
func (s *Session) Log() []model.Message {
	return slices.Clone(s.log)
}

// Draft returns the compose buffer.
func (s *Session) Draft() string { return s.draft }

// SetDraft replaces the compose buffer.
func (s *Session) SetDraft(text string) { s.draft = text }

// Pending reports whether any reply is outstanding.
func (s *Session) Pending() bool { return s.inflight > 0 }

// IsOpen reports whether the chat overlay is visible.
func (s *Session) IsOpen() bool { return s.open }

// Open shows the overlay without touching the log.
func (s *Session) Open() { s.open = true }

// Close hides the overlay. The log is kept for the next Open.
func (s *Session) Close() { s.open = false }

// OpenWithContext starts a fresh conversation seeded with one assistant
// message and shows the overlay. Ids keep increasing across the reset.
func (s *Session) OpenWithContext(seed string) {
	s.log = []model.Message{s.message(seed, model.SenderAssistant)}
	s.open = true
}

// Begin records the user's message and marks a reply pending.
// It reports false, changing nothing, when text is blank.
func (s *Session) Begin(text string) (Turn, bool) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, false
	}
	msg := s.message(text, model.SenderUser)
	s.log = append(slices.Clip(s.log), msg)
	s.draft = ""
	s.inflight++
	return Turn{ID: msg.ID, Text: text}, true
}

// Complete appends the outcome of turn and releases its pending mark.
// The reply lands in the current log even if it was reset meanwhile.
func (s *Session) Complete(turn Turn, reply string, err error) model.Message {
	defer func() {
		if s.inflight > 0 {
			s.inflight--
		}
	}()

	text := reply
	switch {
	case err != nil:
		text = BlockedText
	case reply == "":
		text = NoReplyText
	}
	msg := s.message(text, model.SenderAssistant)
	s.log = append(slices.Clip(s.log), msg)
	return msg
}

// Send runs a whole turn against agent. It reports false when text is blank.
func (s *Session) Send(ctx context.Context, agent Agent, text string) (model.Message, bool) {
	turn, ok := s.Begin(text)
	if !ok {
		return model.Message{}, false
	}
	reply, err := agent.Chat(ctx, turn.Text)
	return s.Complete(turn, reply, err), true
}

// message stamps a new message with the next id: the current time in
// milliseconds, bumped past the last id issued.
func (s *Session) message(text string, sender model.Sender) model.Message {
	id := max(s.now().UnixMilli(), s.lastID+1)
	s.lastID = id
	return model.Message{ID: id, Text: text, Sender: sender}
}
