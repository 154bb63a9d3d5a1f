package mtproto

import (
	"context"
	"strings"

	"tgbridge/pkg/telegram"

	"github.com/gotd/td/tg"
)

// Contacts returns the account's contact list.
func (c *Client) Contacts(ctx context.Context) ([]*telegram.User, error) {
	result, err := c.api().ContactsGetContacts(ctx, 0)
	if err != nil {
		return nil, classify("get contacts", err)
	}

	contacts, ok := result.(*tg.ContactsContacts)
	if !ok {
		return []*telegram.User{}, nil
	}
	c.peers.remember(contacts.Users, nil)

	return convertUsers(contacts.Users), nil
}

// SearchContacts searches users by name or username.
func (c *Client) SearchContacts(ctx context.Context, query string, limit int) ([]*telegram.User, error) {
	found, err := c.api().ContactsSearch(ctx, &tg.ContactsSearchRequest{Q: query, Limit: limit})
	if err != nil {
		return nil, classify("search contacts", err)
	}
	c.peers.remember(found.Users, found.Chats)

	return convertUsers(found.Users), nil
}

// ProfilePhotos lists profile photos of a user, or the photo history of a
// group or channel.
func (c *Client) ProfilePhotos(ctx context.Context, peer telegram.Entity, limit int) ([]telegram.Photo, error) {
	if _, ok := peer.(*telegram.User); !ok {
		return c.chatPhotos(ctx, peer, limit)
	}

	user, err := inputUser(peer)
	if err != nil {
		return nil, err
	}

	result, err := c.api().PhotosGetUserPhotos(ctx, &tg.PhotosGetUserPhotosRequest{UserID: user, Limit: limit})
	if err != nil {
		return nil, classify("get profile photos", err)
	}

	var photos []tg.PhotoClass
	switch r := result.(type) {
	case *tg.PhotosPhotos:
		c.peers.remember(r.Users, nil)
		photos = r.Photos
	case *tg.PhotosPhotosSlice:
		c.peers.remember(r.Users, nil)
		photos = r.Photos
	}

	out := make([]telegram.Photo, 0, len(photos))
	for _, raw := range photos {
		if photo, ok := raw.(*tg.Photo); ok {
			out = append(out, telegram.Photo{ID: photo.ID, Date: unixTime(photo.Date)})
		}
	}

	return out, nil
}

func (c *Client) chatPhotos(ctx context.Context, peer telegram.Entity, limit int) ([]telegram.Photo, error) {
	input, err := inputPeer(peer)
	if err != nil {
		return nil, err
	}

	result, err := c.api().MessagesSearch(ctx, &tg.MessagesSearchRequest{
		Peer:   input,
		Filter: &tg.InputMessagesFilterChatPhotos{},
		Limit:  limit,
	})
	if err != nil {
		return nil, classify("get chat photos", err)
	}

	messages, _, _ := c.unpackMessages(result, limit)
	out := make([]telegram.Photo, 0, len(messages))
	for _, raw := range messages {
		service, ok := raw.(*tg.MessageService)
		if !ok {
			continue
		}
		action, ok := service.Action.(*tg.MessageActionChatEditPhoto)
		if !ok {
			continue
		}
		if photo, ok := action.Photo.(*tg.Photo); ok {
			out = append(out, telegram.Photo{ID: photo.ID, Date: unixTime(photo.Date)})
		}
	}

	return out, nil
}

// InlineQuery runs an inline query against bot from the own chat.
func (c *Client) InlineQuery(ctx context.Context, bot string, query string) ([]telegram.InlineResult, error) {
	entity, err := c.Resolve(ctx, telegram.Ref{Raw: bot, Handle: strings.TrimPrefix(strings.TrimSpace(bot), "@")})
	if err != nil {
		return nil, err
	}
	user, ok := entity.(*telegram.User)
	if !ok || !user.Bot {
		return nil, telegram.Invalidf("inline query", "%s is not a bot", bot)
	}
	input, err := inputUser(user)
	if err != nil {
		return nil, err
	}

	result, err := c.api().MessagesGetInlineBotResults(ctx, &tg.MessagesGetInlineBotResultsRequest{
		Bot:   input,
		Peer:  &tg.InputPeerSelf{},
		Query: query,
	})
	if err != nil {
		return nil, classify("inline query", err)
	}
	c.peers.remember(result.Users, nil)

	out := make([]telegram.InlineResult, 0, len(result.Results))
	for _, raw := range result.Results {
		switch r := raw.(type) {
		case *tg.BotInlineResult:
			out = append(out, telegram.InlineResult{ID: r.ID, Type: r.Type, Title: r.Title, Description: r.Description})
		case *tg.BotInlineMediaResult:
			out = append(out, telegram.InlineResult{ID: r.ID, Type: r.Type, Title: r.Title, Description: r.Description})
		}
	}

	return out, nil
}

func convertUsers(users []tg.UserClass) []*telegram.User {
	out := make([]*telegram.User, 0, len(users))
	for _, raw := range users {
		if user, ok := raw.(*tg.User); ok {
			out = append(out, convertUser(user))
		}
	}

	return out
}
