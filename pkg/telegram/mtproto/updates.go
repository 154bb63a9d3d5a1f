package mtproto

import (
	"tgbridge/pkg/telegram"

	"github.com/gotd/td/tg"
)

// sentFromUpdates finds the message a send, edit or forward produced. When
// randomID is non-zero the message is matched through its UpdateMessageID;
// otherwise the first new or edited message wins.
func sentFromUpdates(updates tg.UpdatesClass, randomID int64) telegram.Sent {
	var (
		list []tg.UpdateClass
		date int
	)

	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return telegram.Sent{ID: u.ID, Date: unixTime(u.Date)}
	case *tg.UpdateShort:
		list, date = []tg.UpdateClass{u.Update}, u.Date
	case *tg.Updates:
		list, date = u.Updates, u.Date
	case *tg.UpdatesCombined:
		list, date = u.Updates, u.Date
	default:
		return telegram.Sent{}
	}

	wantID := 0
	if randomID != 0 {
		for _, update := range list {
			if assigned, ok := update.(*tg.UpdateMessageID); ok && assigned.RandomID == randomID {
				wantID = assigned.ID
				break
			}
		}
	}

	for _, update := range list {
		msg, ok := updateMessage(update)
		if !ok {
			continue
		}
		if wantID != 0 && msg.ID != wantID {
			continue
		}
		return telegram.Sent{ID: msg.ID, Date: unixTime(msg.Date)}
	}

	if wantID != 0 {
		return telegram.Sent{ID: wantID, Date: unixTime(date)}
	}

	return telegram.Sent{}
}

func updateMessage(update tg.UpdateClass) (*tg.Message, bool) {
	var raw tg.MessageClass
	switch u := update.(type) {
	case *tg.UpdateNewMessage:
		raw = u.Message
	case *tg.UpdateNewChannelMessage:
		raw = u.Message
	case *tg.UpdateNewScheduledMessage:
		raw = u.Message
	case *tg.UpdateEditMessage:
		raw = u.Message
	case *tg.UpdateEditChannelMessage:
		raw = u.Message
	default:
		return nil, false
	}

	msg, ok := raw.(*tg.Message)
	return msg, ok
}

// rememberUpdates feeds users and chats carried by an updates container into
// the peer cache.
func (c *Client) rememberUpdates(updates tg.UpdatesClass) {
	switch u := updates.(type) {
	case *tg.Updates:
		c.peers.remember(u.Users, u.Chats)
	case *tg.UpdatesCombined:
		c.peers.remember(u.Users, u.Chats)
	}
}
