package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/equalvoice/parley-mediator/parley/conversation"
)

func TestFingerprintStable(t *testing.T) {
	msg := conversation.Message{ConversationID: "c1", Author: "ana", Gender: conversation.GenderFemale, Text: "hello"}
	window := []conversation.Message{
		{ConversationID: "c1", Author: "ben", Gender: conversation.GenderMale, Text: "hi"},
	}

	assert.Equal(t, Fingerprint(msg, window), Fingerprint(msg, window))
}

func TestFingerprintSensitivity(t *testing.T) {
	msg := conversation.Message{ConversationID: "c1", Author: "ana", Gender: conversation.GenderFemale, Text: "hello"}
	base := Fingerprint(msg, nil)

	changedText := msg
	changedText.Text = "hello!"
	assert.NotEqual(t, base, Fingerprint(changedText, nil))

	changedGender := msg
	changedGender.Gender = conversation.GenderUnknown
	assert.NotEqual(t, base, Fingerprint(changedGender, nil))

	withWindow := Fingerprint(msg, []conversation.Message{{Author: "ben", Text: "hi"}})
	assert.NotEqual(t, base, withWindow)
}

func TestFingerprintIgnoresVolatileFields(t *testing.T) {
	// IDs and timestamps differ between retries of the same content; the
	// fingerprint must not see them.
	a := conversation.NewMessage("c1", "ana", conversation.GenderFemale, "same text")
	b := conversation.NewMessage("c1", "ana", conversation.GenderFemale, "same text")

	assert.Equal(t, Fingerprint(a, nil), Fingerprint(b, nil))
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	// Field separators keep adjacent fields from bleeding together.
	a := conversation.Message{ConversationID: "c1", Author: "ab", Text: "c"}
	b := conversation.Message{ConversationID: "c1", Author: "a", Text: "bc"}

	assert.NotEqual(t, Fingerprint(a, nil), Fingerprint(b, nil))
}
