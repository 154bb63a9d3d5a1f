package mtproto

import (
	"time"

	"tgbridge/pkg/telegram"

	"github.com/gotd/td/tg"
)

func convertUser(user *tg.User) *telegram.User {
	return &telegram.User{
		ID:         user.ID,
		AccessHash: user.AccessHash,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Username:   user.Username,
		Phone:      user.Phone,
		Bot:        user.Bot,
		Self:       user.Self,
		Status:     convertStatus(user.Status),
	}
}

// convertChat returns nil for empty chats.
func convertChat(chat tg.ChatClass) telegram.Entity {
	switch c := chat.(type) {
	case *tg.Chat:
		return &telegram.Group{ID: c.ID, Title: c.Title}
	case *tg.ChatForbidden:
		return &telegram.Group{ID: c.ID, Title: c.Title}
	case *tg.Channel:
		return &telegram.Channel{
			ID:         c.ID,
			AccessHash: c.AccessHash,
			Title:      c.Title,
			Username:   c.Username,
			Megagroup:  c.Megagroup,
		}
	case *tg.ChannelForbidden:
		return &telegram.Channel{ID: c.ID, AccessHash: c.AccessHash, Title: c.Title, Megagroup: c.Megagroup}
	default:
		return nil
	}
}

func convertStatus(status tg.UserStatusClass) telegram.Presence {
	switch status.(type) {
	case *tg.UserStatusEmpty:
		return telegram.PresenceEmpty
	case *tg.UserStatusOnline:
		return telegram.PresenceOnline
	case *tg.UserStatusOffline:
		return telegram.PresenceOffline
	case *tg.UserStatusRecently:
		return telegram.PresenceRecently
	case *tg.UserStatusLastWeek:
		return telegram.PresenceLastWeek
	case *tg.UserStatusLastMonth:
		return telegram.PresenceLastMonth
	default:
		return telegram.PresenceUnknown
	}
}

func convertMedia(media tg.MessageMediaClass) telegram.Media {
	switch m := media.(type) {
	case nil, *tg.MessageMediaEmpty:
		return telegram.Media{}
	case *tg.MessageMediaPhoto:
		return telegram.Media{Kind: telegram.MediaPhoto}
	case *tg.MessageMediaDocument:
		return telegram.Media{Kind: telegram.MediaDocument}
	case *tg.MessageMediaGeo:
		return telegram.Media{Kind: telegram.MediaGeo}
	case *tg.MessageMediaGeoLive:
		return telegram.Media{Kind: telegram.MediaGeoLive}
	case *tg.MessageMediaVenue:
		return telegram.Media{Kind: telegram.MediaVenue}
	case *tg.MessageMediaContact:
		return telegram.Media{Kind: telegram.MediaContact}
	case *tg.MessageMediaWebPage:
		return telegram.Media{Kind: telegram.MediaWebPage}
	case *tg.MessageMediaGame:
		return telegram.Media{Kind: telegram.MediaGame}
	case *tg.MessageMediaInvoice:
		return telegram.Media{Kind: telegram.MediaInvoice}
	case *tg.MessageMediaPoll:
		return telegram.Media{Kind: telegram.MediaPoll}
	case *tg.MessageMediaDice:
		return telegram.Media{Kind: telegram.MediaDice}
	case *tg.MessageMediaStory:
		return telegram.Media{Kind: telegram.MediaStory}
	case *tg.MessageMediaGiveaway:
		return telegram.Media{Kind: telegram.MediaGiveaway}
	case *tg.MessageMediaUnsupported:
		return telegram.Media{Kind: telegram.MediaUnsupported}
	default:
		return telegram.Media{Kind: telegram.MediaOther, Tag: m.TypeName()}
	}
}

// convertMessage resolves the sender against the entities of the response
// the message came with. Messages without an author are attributed to the own
// account when outgoing, otherwise to the chat they were posted in.
func (c *Client) convertMessage(raw tg.MessageClass, set *entitySet) (telegram.Message, bool) {
	switch m := raw.(type) {
	case *tg.Message:
		out := telegram.Message{
			ID:    m.ID,
			Date:  unixTime(m.Date),
			Text:  m.Message,
			Out:   m.Out,
			Media: convertMedia(m.Media),
		}
		out.Sender = c.sender(set, m.FromID, m.Out, m.PeerID)
		if header, ok := m.ReplyTo.(*tg.MessageReplyHeader); ok {
			out.ReplyToMsgID = header.ReplyToMsgID
		}
		return out, true
	case *tg.MessageService:
		out := telegram.Message{
			ID:      m.ID,
			Date:    unixTime(m.Date),
			Out:     m.Out,
			Service: true,
		}
		out.Sender = c.sender(set, m.FromID, m.Out, m.PeerID)
		if header, ok := m.ReplyTo.(*tg.MessageReplyHeader); ok {
			out.ReplyToMsgID = header.ReplyToMsgID
		}
		return out, true
	default:
		return telegram.Message{}, false
	}
}

func (c *Client) convertMessages(raw []tg.MessageClass, set *entitySet) []telegram.Message {
	out := make([]telegram.Message, 0, len(raw))
	for _, msg := range raw {
		if converted, ok := c.convertMessage(msg, set); ok {
			out = append(out, converted)
		}
	}

	return out
}

func (c *Client) sender(set *entitySet, from tg.PeerClass, outgoing bool, chat tg.PeerClass) telegram.Entity {
	if from != nil {
		if entity, ok := set.forPeer(from); ok {
			return entity
		}
		return nil
	}
	if outgoing {
		self, ok := c.cachedSelf()
		if !ok {
			return nil
		}
		if entity, ok := set.lookup(telegram.KindUser, self.ID); ok {
			return entity
		}
		return self
	}
	if entity, ok := set.forPeer(chat); ok {
		return entity
	}

	return nil
}

func unixTime(seconds int) time.Time {
	if seconds == 0 {
		return time.Time{}
	}

	return time.Unix(int64(seconds), 0).UTC()
}
