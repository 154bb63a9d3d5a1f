package mtproto

import (
	"context"
	"math/rand/v2"

	"tgbridge/pkg/telegram"

	"github.com/gotd/td/tg"
)

// Messages returns up to query.Limit messages of peer, newest first.
func (c *Client) Messages(ctx context.Context, peer telegram.Entity, query telegram.MessageQuery) ([]telegram.Message, error) {
	input, err := inputPeer(peer)
	if err != nil {
		return nil, err
	}

	out := make([]telegram.Message, 0, min(query.Limit, pageSize))
	offsetID := query.OffsetID
	for len(out) < query.Limit {
		batch := min(query.Limit-len(out), pageSize)

		var result tg.MessagesMessagesClass
		if query.Search != "" {
			result, err = c.api().MessagesSearch(ctx, &tg.MessagesSearchRequest{
				Peer:     input,
				Q:        query.Search,
				Filter:   &tg.InputMessagesFilterEmpty{},
				OffsetID: offsetID,
				Limit:    batch,
			})
		} else {
			result, err = c.api().MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
				Peer:     input,
				OffsetID: offsetID,
				Limit:    batch,
			})
		}
		if err != nil {
			return nil, classify("get messages", err)
		}

		raw, set, last := c.unpackMessages(result, batch)
		page := c.convertMessages(raw, set)
		if len(page) > batch {
			page = page[:batch]
		}
		out = append(out, page...)

		if last || len(page) == 0 {
			break
		}
		offsetID = page[len(page)-1].ID
	}

	return out, nil
}

// unpackMessages indexes the peers of a history response and reports whether
// it is the final page.
func (c *Client) unpackMessages(result tg.MessagesMessagesClass, requested int) ([]tg.MessageClass, *entitySet, bool) {
	switch r := result.(type) {
	case *tg.MessagesMessages:
		return r.Messages, c.absorb(r.Users, r.Chats), true
	case *tg.MessagesMessagesSlice:
		return r.Messages, c.absorb(r.Users, r.Chats), len(r.Messages) < requested
	case *tg.MessagesChannelMessages:
		return r.Messages, c.absorb(r.Users, r.Chats), len(r.Messages) < requested
	default:
		return nil, newEntitySet(nil, nil), true
	}
}

// SendMessage posts a text message, optionally as a reply.
func (c *Client) SendMessage(ctx context.Context, peer telegram.Entity, text string, replyTo int) (telegram.Sent, error) {
	input, err := inputPeer(peer)
	if err != nil {
		return telegram.Sent{}, err
	}

	request := &tg.MessagesSendMessageRequest{
		Peer:     input,
		Message:  text,
		RandomID: rand.Int64(),
	}
	if replyTo != 0 {
		request.ReplyTo = &tg.InputReplyToMessage{ReplyToMsgID: replyTo}
	}

	updates, err := c.api().MessagesSendMessage(ctx, request)
	if err != nil {
		return telegram.Sent{}, classify("send message", err)
	}
	c.rememberUpdates(updates)

	return sentFromUpdates(updates, request.RandomID), nil
}

// SendReaction sets an emoji reaction on one message.
func (c *Client) SendReaction(ctx context.Context, peer telegram.Entity, msgID int, emoji string, big bool) error {
	input, err := inputPeer(peer)
	if err != nil {
		return err
	}

	updates, err := c.api().MessagesSendReaction(ctx, &tg.MessagesSendReactionRequest{
		Peer:     input,
		MsgID:    msgID,
		Big:      big,
		Reaction: []tg.ReactionClass{&tg.ReactionEmoji{Emoticon: emoji}},
	})
	if err != nil {
		return classify("send reaction", err)
	}
	c.rememberUpdates(updates)

	return nil
}

// EditMessage replaces the text of one message.
func (c *Client) EditMessage(ctx context.Context, peer telegram.Entity, msgID int, text string) (telegram.Sent, error) {
	input, err := inputPeer(peer)
	if err != nil {
		return telegram.Sent{}, err
	}

	updates, err := c.api().MessagesEditMessage(ctx, &tg.MessagesEditMessageRequest{
		Peer:    input,
		ID:      msgID,
		Message: text,
	})
	if err != nil {
		return telegram.Sent{}, classify("edit message", err)
	}
	c.rememberUpdates(updates)

	sent := sentFromUpdates(updates, 0)
	if sent.ID == 0 {
		sent.ID = msgID
	}

	return sent, nil
}

// DeleteMessages deletes messages for everyone.
func (c *Client) DeleteMessages(ctx context.Context, peer telegram.Entity, ids []int) error {
	if channel, ok := asChannel(peer); ok {
		_, err := c.api().ChannelsDeleteMessages(ctx, &tg.ChannelsDeleteMessagesRequest{Channel: channel, ID: ids})
		return classify("delete messages", err)
	}

	_, err := c.api().MessagesDeleteMessages(ctx, &tg.MessagesDeleteMessagesRequest{Revoke: true, ID: ids})
	return classify("delete messages", err)
}

// ForwardMessages copies messages from one chat into another and returns the
// first forwarded message.
func (c *Client) ForwardMessages(ctx context.Context, to telegram.Entity, from telegram.Entity, ids []int) (telegram.Sent, error) {
	toPeer, err := inputPeer(to)
	if err != nil {
		return telegram.Sent{}, err
	}
	fromPeer, err := inputPeer(from)
	if err != nil {
		return telegram.Sent{}, err
	}

	randomIDs := make([]int64, len(ids))
	for i := range randomIDs {
		randomIDs[i] = rand.Int64()
	}

	updates, err := c.api().MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer: fromPeer,
		ID:       ids,
		RandomID: randomIDs,
		ToPeer:   toPeer,
	})
	if err != nil {
		return telegram.Sent{}, classify("forward messages", err)
	}
	c.rememberUpdates(updates)

	var first int64
	if len(randomIDs) > 0 {
		first = randomIDs[0]
	}

	return sentFromUpdates(updates, first), nil
}

// MarkRead marks the whole history of peer as read.
func (c *Client) MarkRead(ctx context.Context, peer telegram.Entity) error {
	if channel, ok := asChannel(peer); ok {
		_, err := c.api().ChannelsReadHistory(ctx, &tg.ChannelsReadHistoryRequest{Channel: channel})
		return classify("read history", err)
	}

	input, err := inputPeer(peer)
	if err != nil {
		return err
	}
	_, err = c.api().MessagesReadHistory(ctx, &tg.MessagesReadHistoryRequest{Peer: input})
	return classify("read history", err)
}

// PinMessage pins one message without notifying members.
func (c *Client) PinMessage(ctx context.Context, peer telegram.Entity, msgID int) error {
	input, err := inputPeer(peer)
	if err != nil {
		return err
	}

	updates, err := c.api().MessagesUpdatePinnedMessage(ctx, &tg.MessagesUpdatePinnedMessageRequest{
		Peer:   input,
		ID:     msgID,
		Silent: true,
	})
	if err != nil {
		return classify("pin message", err)
	}
	c.rememberUpdates(updates)

	return nil
}
