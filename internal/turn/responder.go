package turn

import (
	"context"

	"lingua/voice/internal/dialogue"
)

// DialogueResponder adapts the dialogue client to the controller,
// recording each successful exchange in the session history.
type DialogueResponder struct {
	client *dialogue.Client
	hist   *dialogue.History
}

func NewDialogueResponder(client *dialogue.Client, hist *dialogue.History) *DialogueResponder {
	return &DialogueResponder{client: client, hist: hist}
}

func (d *DialogueResponder) Reply(ctx context.Context, userText string) (string, error) {
	reply, err := d.client.Reply(ctx, d.hist, userText)
	if err != nil {
		return "", err
	}
	d.hist.Append(userText, reply)
	return reply, nil
}
