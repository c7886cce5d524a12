// Package response provides reply helpers bound to an inbound request:
// channel messages and ephemeral replies via the Web API, and replies through
// the request's response URL.
package response

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/jeremyschulman/slackapptk/request"
)

// Response accumulates message content for a reply to the user who
// originated a request.
type Response struct {
	rqst *request.Request

	Text        string
	Blocks      []slack.Block
	Attachments []slack.Attachment
	ThreadTS    string
}

// New returns a Response addressed back at the origin of rqst.
func New(rqst request.Any) *Response {
	return &Response{rqst: rqst.Base()}
}

// WithText sets the message text and returns the response for chaining.
func (r *Response) WithText(text string) *Response {
	r.Text = text
	return r
}

// AddBlock appends a Block Kit block to the message body.
func (r *Response) AddBlock(block slack.Block) *Response {
	r.Blocks = append(r.Blocks, block)
	return r
}

// AddAttachment appends a legacy attachment to the message body.
func (r *Response) AddAttachment(att slack.Attachment) *Response {
	r.Attachments = append(r.Attachments, att)
	return r
}

func (r *Response) msgOptions() []slack.MsgOption {
	opts := make([]slack.MsgOption, 0, 4)
	if r.Text != "" {
		opts = append(opts, slack.MsgOptionText(r.Text, false))
	}
	if len(r.Blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(r.Blocks...))
	}
	if len(r.Attachments) > 0 {
		opts = append(opts, slack.MsgOptionAttachments(r.Attachments...))
	}
	if r.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(r.ThreadTS))
	}
	return opts
}

// Send posts the message to the request's channel. The reply honors any
// redirect a handler applied to rqst.Channel.
func (r *Response) Send() error {
	_, _, err := r.rqst.Client.PostMessage(r.rqst.Channel, r.msgOptions()...)
	if err != nil {
		return fmt.Errorf("chat.postMessage to %s: %w", r.rqst.Channel, err)
	}
	return nil
}

// SendEphemeral posts the message so that only the originating user sees it.
func (r *Response) SendEphemeral() error {
	_, err := r.rqst.Client.PostEphemeral(r.rqst.Channel, r.rqst.UserID, r.msgOptions()...)
	if err != nil {
		return fmt.Errorf("chat.postEphemeral to %s: %w", r.rqst.UserID, err)
	}
	return nil
}

// SendResponse replies through the request's response URL. Webhook options
// adjust delivery (ephemeral vs in-channel, replace/delete the original).
func (r *Response) SendResponse(opts ...WebhookOption) error {
	msg := &slack.WebhookMessage{
		Text:            r.Text,
		Attachments:     r.Attachments,
		ThreadTimestamp: r.ThreadTS,
	}
	if len(r.Blocks) > 0 {
		msg.Blocks = &slack.Blocks{BlockSet: r.Blocks}
	}
	for _, opt := range opts {
		opt(msg)
	}

	if err := slack.PostWebhook(r.rqst.ResponseURL, msg); err != nil {
		return fmt.Errorf("response_url post: %w", err)
	}
	return nil
}

// WebhookOption customizes a response-URL reply.
type WebhookOption func(*slack.WebhookMessage)

// InChannel makes the reply visible to the whole channel rather than
// ephemeral to the requesting user.
func InChannel() WebhookOption {
	return func(m *slack.WebhookMessage) { m.ResponseType = slack.ResponseTypeInChannel }
}

// ReplaceOriginal replaces the message the user interacted with.
func ReplaceOriginal() WebhookOption {
	return func(m *slack.WebhookMessage) { m.ReplaceOriginal = true }
}

// DeleteOriginal removes the message the user interacted with.
func DeleteOriginal() WebhookOption {
	return func(m *slack.WebhookMessage) { m.DeleteOriginal = true }
}

// RedirectToUserDM points the reply at the requesting user's DM when the bot
// cannot post in the originating channel (not a member, or the channel is
// not visible to it). This is a call-site compensating action, not a retry.
func RedirectToUserDM(rqst request.Any) {
	base := rqst.Base()

	info, err := base.Client.GetConversationInfo(&slack.GetConversationInfoInput{
		ChannelID: base.Channel,
	})
	switch {
	case err != nil:
		base.Log.Debug().Err(err).Str("channel", base.Channel).
			Msg("Channel not reachable, redirecting reply to user DM")
		base.Channel = base.UserID
	case !info.IsMember && !info.IsIM:
		base.Channel = base.UserID
	}
}
