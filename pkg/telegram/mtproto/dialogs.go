package mtproto

import (
	"context"

	"tgbridge/pkg/telegram"

	"github.com/gotd/td/tg"
)

// pageSize is the largest batch the server returns for list requests.
const pageSize = 100

type messageKey struct {
	kind telegram.EntityKind
	peer int64
	id   int
}

// Dialogs returns up to limit conversations, most recent first.
func (c *Client) Dialogs(ctx context.Context, limit int) ([]telegram.Dialog, error) {
	out := make([]telegram.Dialog, 0, min(limit, pageSize))

	request := &tg.MessagesGetDialogsRequest{OffsetPeer: &tg.InputPeerEmpty{}}
	for len(out) < limit {
		request.Limit = min(limit-len(out), pageSize)

		result, err := c.api().MessagesGetDialogs(ctx, request)
		if err != nil {
			return nil, classify("get dialogs", err)
		}

		var (
			dialogs  []tg.DialogClass
			messages []tg.MessageClass
			set      *entitySet
			last     bool
		)
		switch r := result.(type) {
		case *tg.MessagesDialogs:
			set = c.absorb(r.Users, r.Chats)
			dialogs, messages, last = r.Dialogs, r.Messages, true
		case *tg.MessagesDialogsSlice:
			set = c.absorb(r.Users, r.Chats)
			dialogs, messages = r.Dialogs, r.Messages
			last = len(r.Dialogs) < request.Limit
		default:
			return out, nil
		}

		byKey := indexMessages(messages)
		var (
			tailEntity       telegram.Entity
			tailID, tailDate int
		)
		for _, raw := range dialogs {
			dialog, ok := raw.(*tg.Dialog)
			if !ok {
				continue
			}
			entity, ok := set.forPeer(dialog.Peer)
			if !ok {
				continue
			}

			item := telegram.Dialog{Entity: entity, UnreadCount: dialog.UnreadCount}
			kind, peerID, _ := peerKey(dialog.Peer)
			if top, ok := byKey[messageKey{kind: kind, peer: peerID, id: dialog.TopMessage}]; ok {
				if msg, ok := c.convertMessage(top, set); ok {
					item.TopMessage = &msg
					tailEntity, tailID, tailDate = entity, msg.ID, int(msg.Date.Unix())
				}
			}
			out = append(out, item)
			if len(out) == limit {
				return out, nil
			}
		}

		if last || len(dialogs) == 0 || tailEntity == nil {
			break
		}

		offsetPeer, err := inputPeer(tailEntity)
		if err != nil {
			break
		}
		request.OffsetPeer = offsetPeer
		request.OffsetID = tailID
		request.OffsetDate = tailDate
	}

	return out, nil
}

func indexMessages(messages []tg.MessageClass) map[messageKey]tg.MessageClass {
	byKey := make(map[messageKey]tg.MessageClass, len(messages))
	for _, raw := range messages {
		var (
			peer tg.PeerClass
			id   int
		)
		switch m := raw.(type) {
		case *tg.Message:
			peer, id = m.PeerID, m.ID
		case *tg.MessageService:
			peer, id = m.PeerID, m.ID
		default:
			continue
		}
		kind, peerID, ok := peerKey(peer)
		if !ok {
			continue
		}
		byKey[messageKey{kind: kind, peer: peerID, id: id}] = raw
	}

	return byKey
}
