// Package format projects telegram view types onto the JSON shapes served by
// the bridge. Every function is pure; absent optional fields become JSON null.
package format

import (
	"strings"
	"time"
	"unicode/utf8"

	"tgbridge/pkg/telegram"
)

// TimeLayout renders timestamps the way Python's isoformat() does for UTC.
const TimeLayout = "2006-01-02T15:04:05-07:00"

// UnknownSender is the display name used when a message has no sender metadata.
const UnknownSender = "Unknown"

// LastMessagePreview bounds dialog previews, in characters.
const LastMessagePreview = 100

// Entity is the summary of a user, group or channel. Fields that do not apply
// to the entity's kind are left out; fields that apply but are absent are null.
type Entity struct {
	ID        int64
	Type      string
	FirstName *string
	LastName  *string
	Username  *string
	Phone     *string
	Title     *string

	kind telegram.EntityKind
}

// MarshalJSON emits exactly the key set of the entity's kind, with nulls kept.
func (e Entity) MarshalJSON() ([]byte, error) {
	fields := orderedFields{{"id", e.ID}, {"type", e.Type}}
	switch e.kind {
	case telegram.KindUser:
		fields = append(fields,
			field{"first_name", e.FirstName},
			field{"last_name", e.LastName},
			field{"username", e.Username},
			field{"phone", e.Phone},
		)
	case telegram.KindGroup:
		fields = append(fields, field{"title", e.Title})
	case telegram.KindChannel:
		fields = append(fields, field{"title", e.Title}, field{"username", e.Username})
	}

	return fields.MarshalJSON()
}

// Dialog is an Entity summary with unread count and last message preview.
type Dialog struct {
	Entity
	UnreadCount int
	LastMessage *string
}

func (d Dialog) MarshalJSON() ([]byte, error) {
	base, err := d.Entity.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return appendFields(base, orderedFields{
		{"unread_count", d.UnreadCount},
		{"last_message", d.LastMessage},
	})
}

// Message is the summary of one chat message.
type Message struct {
	ID           int     `json:"id"`
	Date         *string `json:"date"`
	Text         *string `json:"text"`
	Out          bool    `json:"out"`
	SenderName   string  `json:"sender_name"`
	SenderID     *int64  `json:"sender_id"`
	ReplyToMsgID *int    `json:"reply_to_msg_id"`
	HasMedia     bool    `json:"has_media"`
	MediaType    *string `json:"media_type"`
}

// Contact is the summary of a user from the contact list.
type Contact struct {
	ID        int64   `json:"id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
	Phone     *string `json:"phone"`
}

// Photo is the summary of a profile photo.
type Photo struct {
	ID   int64   `json:"id"`
	Date *string `json:"date"`
}

// Gif is one row of a GIF search. ID is the row's position in the result list.
type Gif struct {
	ID          int     `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// FormatEntity projects any entity variant onto its summary.
func FormatEntity(entity telegram.Entity) Entity {
	switch e := entity.(type) {
	case *telegram.User:
		return Entity{
			ID:        e.ID,
			Type:      string(telegram.KindUser),
			FirstName: optional(e.FirstName),
			LastName:  optional(e.LastName),
			Username:  optional(e.Username),
			Phone:     optional(e.Phone),
			kind:      telegram.KindUser,
		}
	case *telegram.Group:
		return Entity{
			ID:    e.ID,
			Type:  string(telegram.KindGroup),
			Title: optional(e.Title),
			kind:  telegram.KindGroup,
		}
	case *telegram.Channel:
		return Entity{
			ID:       e.ID,
			Type:     string(telegram.KindChannel),
			Title:    optional(e.Title),
			Username: optional(e.Username),
			kind:     telegram.KindChannel,
		}
	default:
		return Entity{}
	}
}

// FormatDialog projects a dialog onto its summary.
func FormatDialog(dialog telegram.Dialog) Dialog {
	var last *string
	if dialog.TopMessage != nil && dialog.TopMessage.Text != "" {
		preview := truncateRunes(dialog.TopMessage.Text, LastMessagePreview)
		last = &preview
	}

	return Dialog{
		Entity:      FormatEntity(dialog.Entity),
		UnreadCount: dialog.UnreadCount,
		LastMessage: last,
	}
}

// FormatMessage projects a message onto its summary.
func FormatMessage(msg telegram.Message) Message {
	out := Message{
		ID:         msg.ID,
		Date:       Timestamp(msg.Date),
		Out:        msg.Out,
		SenderName: SenderName(msg.Sender),
		HasMedia:   msg.Media.Present(),
	}

	if !msg.Service {
		text := msg.Text
		out.Text = &text
	}
	if msg.Sender != nil {
		id := msg.Sender.EntityID()
		out.SenderID = &id
	}
	if msg.ReplyToMsgID != 0 {
		replyTo := msg.ReplyToMsgID
		out.ReplyToMsgID = &replyTo
	}
	if out.HasMedia {
		out.MediaType = optional(msg.Media.Label())
	}

	return out
}

// FormatMessages projects a message list, never returning nil.
func FormatMessages(messages []telegram.Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, FormatMessage(msg))
	}

	return out
}

// FormatContact projects a user onto a contact summary.
func FormatContact(user *telegram.User) Contact {
	return Contact{
		ID:        user.ID,
		FirstName: optional(user.FirstName),
		LastName:  optional(user.LastName),
		Username:  optional(user.Username),
		Phone:     optional(user.Phone),
	}
}

// FormatPhoto projects a profile photo onto its summary.
func FormatPhoto(photo telegram.Photo) Photo {
	return Photo{ID: photo.ID, Date: Timestamp(photo.Date)}
}

// FormatGifs projects at most limit inline results, numbered by position.
func FormatGifs(results []telegram.InlineResult, limit int) []Gif {
	out := make([]Gif, 0, min(len(results), max(limit, 0)))
	for i, result := range results {
		if i >= limit {
			break
		}
		out = append(out, Gif{ID: i, Title: optional(result.Title), Description: optional(result.Description)})
	}

	return out
}

// SenderName returns "first last" for users, the title for groups and
// channels, and UnknownSender when neither is available.
func SenderName(sender telegram.Entity) string {
	switch s := sender.(type) {
	case *telegram.User:
		name := strings.TrimSpace(s.FirstName + " " + s.LastName)
		if name == "" {
			return UnknownSender
		}
		return name
	case *telegram.Group:
		return titleOrUnknown(s.Title)
	case *telegram.Channel:
		return titleOrUnknown(s.Title)
	default:
		return UnknownSender
	}
}

// Timestamp renders t, or nil for the zero time.
func Timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}

	value := t.UTC().Format(TimeLayout)
	return &value
}

func titleOrUnknown(title string) string {
	if title == "" {
		return UnknownSender
	}

	return title
}

func optional(value string) *string {
	if value == "" {
		return nil
	}

	return &value
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	return string(runes[:limit])
}
