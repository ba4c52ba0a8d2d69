package room

import (
	"slices"

	"github.com/listening-room/pkg/models"
)

// MaxChatHistory bounds the chat log; the oldest message is dropped first.
const MaxChatHistory = 50

func appendMessage(r *models.Room, msg models.ChatMessage) {
	r.ChatHistory = pushBounded(r.ChatHistory, msg, MaxChatHistory)
}

// toggleReaction adds userID to the emoji's reactors on messageID, or
// removes it if already present. An emoji left with no reactors is deleted.
func toggleReaction(r *models.Room, messageID, emoji, userID string) (found, added bool) {
	i := slices.IndexFunc(r.ChatHistory, func(m models.ChatMessage) bool { return m.ID == messageID })
	if i < 0 {
		return false, false
	}
	msg := &r.ChatHistory[i]

	users := msg.Reactions[emoji]
	if j := slices.Index(users, userID); j >= 0 {
		users = slices.Delete(slices.Clone(users), j, j+1)
		if len(users) == 0 {
			delete(msg.Reactions, emoji)
		} else {
			msg.Reactions[emoji] = users
		}
		if len(msg.Reactions) == 0 {
			msg.Reactions = nil
		}
		return true, false
	}

	if msg.Reactions == nil {
		msg.Reactions = make(map[string][]string)
	}
	msg.Reactions[emoji] = append(users, userID)
	return true, true
}
