package format

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tgbridge/pkg/telegram"

	"github.com/stretchr/testify/require"
)

func TestFormatEntityUserKeepsNulls(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(FormatEntity(&telegram.User{ID: 7, FirstName: "Ada"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":7,"type":"user","first_name":"Ada","last_name":null,"username":null,"phone":null}`, string(data))
}

func TestFormatEntityGroupAndChannel(t *testing.T) {
	t.Parallel()

	group, err := json.Marshal(FormatEntity(&telegram.Group{ID: 3}))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":3,"type":"chat","title":null}`, string(group))

	channel, err := json.Marshal(FormatEntity(&telegram.Channel{ID: 9, Title: "News", Username: "news"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":9,"type":"channel","title":"News","username":"news"}`, string(channel))
}

func TestFormatEntityKeyOrder(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(FormatEntity(&telegram.Channel{ID: 1, Title: "t"}))
	require.NoError(t, err)
	if got := string(data); got != `{"id":1,"type":"channel","title":"t","username":null}` {
		t.Fatalf("channel json = %s", got)
	}
}

func TestFormatDialogTruncatesPreview(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("é", LastMessagePreview+20)
	dialog := FormatDialog(telegram.Dialog{
		Entity:      &telegram.User{ID: 1, FirstName: "A"},
		UnreadCount: 4,
		TopMessage:  &telegram.Message{ID: 10, Text: text},
	})

	require.NotNil(t, dialog.LastMessage)
	require.Equal(t, LastMessagePreview, len([]rune(*dialog.LastMessage)))

	data, err := json.Marshal(dialog)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, float64(4), decoded["unread_count"])
	require.Equal(t, "user", decoded["type"])
}

func TestFormatDialogWithoutMessage(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(FormatDialog(telegram.Dialog{Entity: &telegram.Group{ID: 2, Title: "G"}}))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":2,"type":"chat","title":"G","unread_count":0,"last_message":null}`, string(data))
}

func TestFormatMessageSenderName(t *testing.T) {
	t.Parallel()

	msg := FormatMessage(telegram.Message{ID: 1, Sender: &telegram.User{ID: 5, FirstName: "Ada", LastName: ""}})
	if msg.SenderName != "Ada" {
		t.Fatalf("sender_name = %q, want %q", msg.SenderName, "Ada")
	}
	require.NotNil(t, msg.SenderID)
	require.Equal(t, int64(5), *msg.SenderID)

	msg = FormatMessage(telegram.Message{ID: 2, Sender: &telegram.Channel{ID: 6, Title: "News"}})
	require.Equal(t, "News", msg.SenderName)

	msg = FormatMessage(telegram.Message{ID: 3, Sender: &telegram.User{ID: 8}})
	require.Equal(t, UnknownSender, msg.SenderName)
}

func TestFormatMessageWithoutSender(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(FormatMessage(telegram.Message{ID: 11, Text: "hi"}))
	require.NoError(t, err)
	require.JSONEq(t, `{
		"id": 11, "date": null, "text": "hi", "out": false,
		"sender_name": "Unknown", "sender_id": null,
		"reply_to_msg_id": null, "has_media": false, "media_type": null
	}`, string(data))
}

func TestFormatServiceMessageHasNullText(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(FormatMessage(telegram.Message{ID: 13, Service: true}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "text")
	require.Nil(t, decoded["text"])

	empty := FormatMessage(telegram.Message{ID: 14})
	require.NotNil(t, empty.Text)
	require.Equal(t, "", *empty.Text)
}

func TestFormatMessageMediaAndReply(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	msg := FormatMessage(telegram.Message{
		ID:           12,
		Date:         date,
		Out:          true,
		ReplyToMsgID: 9,
		Media:        telegram.Media{Kind: telegram.MediaPhoto},
	})

	require.NotNil(t, msg.Date)
	require.Equal(t, "2024-03-01T12:30:00+00:00", *msg.Date)
	require.True(t, msg.Out)
	require.True(t, msg.HasMedia)
	require.Equal(t, "MessageMediaPhoto", *msg.MediaType)
	require.Equal(t, 9, *msg.ReplyToMsgID)
}

func TestFormatMessagesNeverNil(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(FormatMessages(nil))
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestFormatContact(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(FormatContact(&telegram.User{ID: 4, Username: "ada", Phone: "123"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":4,"first_name":null,"last_name":null,"username":"ada","phone":"123"}`, string(data))
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"UserStatusOnline":    "online",
		"UserStatusRecently":  "recently",
		"UserStatusLastWeek":  "last_week",
		"UserStatusLastMonth": "last_month",
		"UserStatusOffline":   "offline",
		"UserStatusEmpty":     "userstatusempty",
		"Unknown":             "unknown",
		"Foo":                 "foo",
	}
	for raw, want := range cases {
		if got := StatusLabel(raw); got != want {
			t.Fatalf("StatusLabel(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	t.Parallel()

	status := FormatStatus(&telegram.User{ID: 3, Status: telegram.PresenceLastMonth})
	require.Equal(t, Status{UserID: 3, Status: "last_month", RawStatus: "UserStatusLastMonth"}, status)

	status = FormatStatus(&telegram.Channel{ID: 4})
	require.Equal(t, Status{UserID: 4, Status: "unknown", RawStatus: "Unknown"}, status)
}

func TestFormatGifsNumbersByPosition(t *testing.T) {
	t.Parallel()

	results := []telegram.InlineResult{
		{ID: "a", Title: "Cat"},
		{ID: "b", Description: "dancing"},
		{ID: "c", Title: "Dog"},
	}

	data, err := json.Marshal(FormatGifs(results, 2))
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":0,"title":"Cat","description":null},{"id":1,"title":null,"description":"dancing"}]`, string(data))

	require.Empty(t, FormatGifs(results, 0))
	require.NotNil(t, FormatGifs(nil, 10))
}
