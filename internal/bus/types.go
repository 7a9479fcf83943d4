// Package bus defines the message types exchanged between a message source
// and the bot core.
package bus

// Message is an inbound text message from a chat.
type Message struct {
	ChatID   int64  `json:"chat_id"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}

// Update is one entry of a fetched batch. Message is nil for updates the bot
// does not handle (edits, membership changes, media without caption); such
// updates still advance the offset.
type Update struct {
	UpdateID int      `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// NextOffset returns the offset that acknowledges every update in the batch,
// or current when the batch is empty.
func NextOffset(current int, updates []Update) int {
	next := current
	for _, u := range updates {
		if u.UpdateID+1 > next {
			next = u.UpdateID + 1
		}
	}
	return next
}
