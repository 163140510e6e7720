package telegram

import (
	"encoding/json"
	"fmt"

	"github.com/botfleet/linkrelay/internal/bot"
)

type update struct {
	UpdateID int64          `json:"update_id"`
	Message  *updateMessage `json:"message"`
}

type updateMessage struct {
	MessageID int64       `json:"message_id"`
	From      *updatePeer `json:"from"`
	Chat      *updatePeer `json:"chat"`
	Text      string      `json:"text"`
}

type updatePeer struct {
	ID int64 `json:"id"`
}

// ParseUpdate normalizes one webhook payload into a bot.Message. The second
// return is false for well-formed updates that carry no text message
// (edits, joins, stickers); those are acknowledged and ignored upstream.
func ParseUpdate(raw []byte) (bot.Message, bool, error) {
	var u update
	if err := json.Unmarshal(raw, &u); err != nil {
		return bot.Message{}, false, fmt.Errorf("decode update: %w", err)
	}
	if u.Message == nil || u.Message.Chat == nil || u.Message.Text == "" {
		return bot.Message{}, false, nil
	}
	msg := bot.Message{
		ChatID: u.Message.Chat.ID,
		Text:   u.Message.Text,
	}
	if u.Message.From != nil {
		msg.SenderID = u.Message.From.ID
	}
	return msg, true, nil
}
