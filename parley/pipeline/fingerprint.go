package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/equalvoice/parley-mediator/parley/conversation"
)

// Fingerprint derives the cache key for evaluating msg against the given
// preceding window. Two evaluations share a fingerprint only when the
// message content and the visible history are identical.
func Fingerprint(msg conversation.Message, window []conversation.Message) string {
	h := sha256.New()
	writeField(h, msg.ConversationID)
	writeField(h, msg.Author)
	writeField(h, string(msg.Gender))
	writeField(h, msg.Text)
	for _, turn := range window {
		writeField(h, turn.Author)
		writeField(h, string(turn.Gender))
		writeField(h, turn.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, field string) {
	io.WriteString(w, field)
	w.Write([]byte{0})
}
