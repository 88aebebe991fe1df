// Package conversation holds the turn model and the bounded per-conversation
// history that every detector reads from.
package conversation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gender is the caller-supplied gender tag of a message author. The pipeline
// never infers gender from names or text; an unrecognized tag degrades to
// GenderUnknown and gender-keyed rules stay silent for it.
type Gender string

const (
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderUnknown Gender = "unknown"
)

// ParseGender normalizes a free-form tag to one of the three known values.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "female", "f", "woman":
		return GenderFemale
	case "male", "m", "man":
		return GenderMale
	default:
		return GenderUnknown
	}
}

// Message is a single turn in a multi-party conversation. Immutable once
// created; detectors receive copies, never pointers into the history.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Author         string    `json:"author"`
	Gender         Gender    `json:"gender"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewMessage builds a turn with a fresh ID and the current time.
func NewMessage(conversationID, author string, gender Gender, text string) Message {
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Author:         author,
		Gender:         gender,
		Text:           text,
		Timestamp:      time.Now().UTC(),
	}
}

// IsQuestion reports whether the turn reads as a question.
func (m Message) IsQuestion() bool {
	t := strings.TrimSpace(m.Text)
	return strings.HasSuffix(t, "?") || strings.HasSuffix(t, "？")
}
