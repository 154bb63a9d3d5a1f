// Package telegram defines the capability set the bridge needs from a Telegram
// user-account client, together with the closed view types that flow through it.
package telegram

import (
	"context"
	"time"
)

// Client is the messaging client the bridge forwards requests to.
//
// Implementations must be safe for concurrent use by in-flight requests.
type Client interface {
	Connected() bool
	Ping(ctx context.Context) error

	Self(ctx context.Context) (*User, error)
	Resolve(ctx context.Context, ref Ref) (Entity, error)
	Dialogs(ctx context.Context, limit int) ([]Dialog, error)

	Messages(ctx context.Context, peer Entity, query MessageQuery) ([]Message, error)
	SendMessage(ctx context.Context, peer Entity, text string, replyTo int) (Sent, error)
	SendFile(ctx context.Context, peer Entity, path string, opts FileOptions) (Sent, error)
	SendReaction(ctx context.Context, peer Entity, msgID int, emoji string, big bool) error
	EditMessage(ctx context.Context, peer Entity, msgID int, text string) (Sent, error)
	DeleteMessages(ctx context.Context, peer Entity, ids []int) error
	ForwardMessages(ctx context.Context, to Entity, from Entity, ids []int) (Sent, error)
	MarkRead(ctx context.Context, peer Entity) error
	PinMessage(ctx context.Context, peer Entity, msgID int) error

	ProfilePhotos(ctx context.Context, peer Entity, limit int) ([]Photo, error)
	InlineQuery(ctx context.Context, bot string, query string) ([]InlineResult, error)

	Contacts(ctx context.Context) ([]*User, error)
	SearchContacts(ctx context.Context, query string, limit int) ([]*User, error)
}

// MessageQuery selects messages from one chat, newest first.
type MessageQuery struct {
	Limit int
	// OffsetID returns only messages older than this ID when non-zero.
	OffsetID int
	// Search restricts results to messages matching the text when non-empty.
	Search string
}

// FileOptions controls how an uploaded file is sent.
type FileOptions struct {
	FileName  string
	Caption   string
	VoiceNote bool
}

// Sent identifies a message created or edited by the client.
//
// ID is zero when the platform did not report the resulting message.
type Sent struct {
	ID   int
	Date time.Time
}

// Message is one chat message with its sender resolved when known.
type Message struct {
	ID           int
	Date         time.Time
	Text         string
	Out          bool
	Sender       Entity
	ReplyToMsgID int
	Media        Media
	// Service marks actions such as joins or pins, which carry no text.
	Service bool
}

// Dialog is a conversation with its peer, unread count and newest message.
type Dialog struct {
	Entity      Entity
	UnreadCount int
	TopMessage  *Message
}

// Photo is one profile photo.
type Photo struct {
	ID   int64
	Date time.Time
}

// InlineResult is one result row of an inline bot query.
type InlineResult struct {
	ID          string
	Type        string
	Title       string
	Description string
}
