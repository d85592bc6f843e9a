package botapi

import (
	"context"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

// maxText is Bot API message length limit.
const maxText = 4096

// Notifier reports errors to a Telegram user through a bot.
type Notifier struct {
	client *Client
	chatID string
}

// NewNotifier creates new Notifier.
func NewNotifier(client *Client, chatID string) *Notifier {
	return &Notifier{client: client, chatID: chatID}
}

// Notify sends error text.
func (n *Notifier) Notify(ctx context.Context, reported error) error {
	text := reported.Error()
	if text == "" {
		text = "unknown error"
	}
	if utf8.RuneCountInString(text) > maxText {
		text = string([]rune(text)[:maxText])
	}

	if err := n.client.SendMessage(ctx, SendMessageRequest{
		ChatID: n.chatID,
		Text:   text,
	}); err != nil {
		return errors.Wrap(err, "notify")
	}
	return nil
}
