package mtproto

import (
	"context"
	"strings"
	"sync"

	"tgbridge/pkg/telegram"

	"github.com/gotd/td/tg"
)

// peerCache remembers the access hashes of users and channels seen in
// responses so numeric IDs can be turned back into input peers. Entity data is
// not kept; every resolution fetches it again.
type peerCache struct {
	mu       sync.RWMutex
	users    map[int64]accessHash
	channels map[int64]accessHash
}

// accessHash is min when it came from a "min" constructor, which is only
// valid inside the message it arrived with.
type accessHash struct {
	value int64
	min   bool
}

func newPeerCache() *peerCache {
	return &peerCache{
		users:    make(map[int64]accessHash),
		channels: make(map[int64]accessHash),
	}
}

func (p *peerCache) remember(users []tg.UserClass, chats []tg.ChatClass) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range users {
		if user, ok := raw.(*tg.User); ok {
			store(p.users, user.ID, accessHash{value: user.AccessHash, min: user.Min})
		}
	}
	for _, raw := range chats {
		switch chat := raw.(type) {
		case *tg.Channel:
			store(p.channels, chat.ID, accessHash{value: chat.AccessHash, min: chat.Min})
		case *tg.ChannelForbidden:
			store(p.channels, chat.ID, accessHash{value: chat.AccessHash})
		}
	}
}

func (p *peerCache) rememberUser(user *tg.User) {
	p.remember([]tg.UserClass{user}, nil)
}

// preload seeds hashes kept by an earlier session.
func (p *peerCache) preload(known []telegram.KnownPeer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, peer := range known {
		switch peer.Kind {
		case telegram.KindUser:
			store(p.users, peer.ID, accessHash{value: peer.AccessHash})
		case telegram.KindChannel:
			store(p.channels, peer.ID, accessHash{value: peer.AccessHash})
		}
	}
}

// store keeps a full hash over a min one.
func store(hashes map[int64]accessHash, id int64, hash accessHash) {
	if current, known := hashes[id]; known && hash.min && !current.min {
		return
	}
	hashes[id] = hash
}

// hash returns the remembered access hash, zero when unknown.
func (p *peerCache) hash(kind telegram.EntityKind, id int64) (int64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var (
		hash accessHash
		ok   bool
	)
	switch kind {
	case telegram.KindUser:
		hash, ok = p.users[id]
	case telegram.KindChannel:
		hash, ok = p.channels[id]
	}

	return hash.value, ok
}

// entitySet indexes the users and chats carried by one response.
type entitySet struct {
	users    map[int64]*telegram.User
	groups   map[int64]*telegram.Group
	channels map[int64]*telegram.Channel
}

func newEntitySet(users []tg.UserClass, chats []tg.ChatClass) *entitySet {
	set := &entitySet{
		users:    make(map[int64]*telegram.User, len(users)),
		groups:   make(map[int64]*telegram.Group),
		channels: make(map[int64]*telegram.Channel),
	}
	for _, raw := range users {
		if user, ok := raw.(*tg.User); ok {
			set.users[user.ID] = convertUser(user)
		}
	}
	for _, raw := range chats {
		switch entity := convertChat(raw).(type) {
		case *telegram.Group:
			set.groups[entity.ID] = entity
		case *telegram.Channel:
			set.channels[entity.ID] = entity
		}
	}

	return set
}

func (s *entitySet) lookup(kind telegram.EntityKind, id int64) (telegram.Entity, bool) {
	var (
		entity telegram.Entity
		ok     bool
	)
	switch kind {
	case telegram.KindUser:
		entity, ok = s.users[id]
	case telegram.KindGroup:
		entity, ok = s.groups[id]
	case telegram.KindChannel:
		entity, ok = s.channels[id]
	}
	if !ok {
		return nil, false
	}

	return entity, true
}

// forPeer maps a peer from the same response onto its entity.
func (s *entitySet) forPeer(peer tg.PeerClass) (telegram.Entity, bool) {
	kind, id, ok := peerKey(peer)
	if !ok {
		return nil, false
	}

	return s.lookup(kind, id)
}

// absorb remembers the access hashes of a response and indexes its entities.
func (c *Client) absorb(users []tg.UserClass, chats []tg.ChatClass) *entitySet {
	c.peers.remember(users, chats)
	return newEntitySet(users, chats)
}

func peerKey(peer tg.PeerClass) (telegram.EntityKind, int64, bool) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return telegram.KindUser, p.UserID, true
	case *tg.PeerChat:
		return telegram.KindGroup, p.ChatID, true
	case *tg.PeerChannel:
		return telegram.KindChannel, p.ChannelID, true
	default:
		return "", 0, false
	}
}

// Resolve turns a reference into an entity. Numeric references use the marked
// ID convention; handles are usernames, t.me links, "me" or phone numbers.
func (c *Client) Resolve(ctx context.Context, ref telegram.Ref) (telegram.Entity, error) {
	if ref.Numeric {
		return c.resolveID(ctx, ref.ID)
	}

	parsed, err := parseHandle(ref.Handle)
	if err != nil {
		return nil, err
	}

	switch parsed.kind {
	case handleSelf:
		return c.Self(ctx)
	case handlePhone:
		resolved, err := c.api().ContactsResolvePhone(ctx, parsed.value)
		if err != nil {
			return nil, classify("resolve phone", err)
		}
		return c.resolvedPeer(resolved, ref.Raw)
	default:
		resolved, err := c.api().ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: parsed.value})
		if err != nil {
			return nil, classify("resolve username", err)
		}
		return c.resolvedPeer(resolved, ref.Raw)
	}
}

func (c *Client) resolvedPeer(resolved *tg.ContactsResolvedPeer, raw string) (telegram.Entity, error) {
	entity, ok := c.absorb(resolved.Users, resolved.Chats).forPeer(resolved.Peer)
	if !ok {
		return nil, notFound("resolve", "cannot find any entity corresponding to %q", raw)
	}

	return entity, nil
}

// resolveID fetches a marked numeric ID using the remembered access hash.
// The entity is always fetched fresh so names and presence are current.
func (c *Client) resolveID(ctx context.Context, marked int64) (telegram.Entity, error) {
	kind, id := telegram.UnmarkID(marked)

	var set *entitySet
	switch kind {
	case telegram.KindUser:
		var input tg.InputUserClass = &tg.InputUserSelf{}
		if self, ok := c.cachedSelf(); !ok || self.ID != id {
			hash, _ := c.peers.hash(kind, id)
			input = &tg.InputUser{UserID: id, AccessHash: hash}
		}
		users, err := c.api().UsersGetUsers(ctx, []tg.InputUserClass{input})
		if err != nil {
			return nil, classify("get user", err)
		}
		set = c.absorb(users, nil)
	case telegram.KindGroup:
		chats, err := c.api().MessagesGetChats(ctx, []int64{id})
		if err != nil {
			return nil, classify("get chat", err)
		}
		set = c.absorb(nil, chatsOf(chats))
	case telegram.KindChannel:
		hash, _ := c.peers.hash(kind, id)
		chats, err := c.api().ChannelsGetChannels(ctx, []tg.InputChannelClass{&tg.InputChannel{ChannelID: id, AccessHash: hash}})
		if err != nil {
			return nil, classify("get channel", err)
		}
		set = c.absorb(nil, chatsOf(chats))
	}

	entity, ok := set.lookup(kind, id)
	if !ok {
		return nil, notFound("resolve", "could not find the input entity for %d", marked)
	}
	if user, isUser := entity.(*telegram.User); isUser && user.Self {
		c.setSelf(user)
	}

	return entity, nil
}

func chatsOf(result tg.MessagesChatsClass) []tg.ChatClass {
	switch r := result.(type) {
	case *tg.MessagesChats:
		return r.Chats
	case *tg.MessagesChatsSlice:
		return r.Chats
	default:
		return nil
	}
}

func inputPeer(entity telegram.Entity) (tg.InputPeerClass, error) {
	switch e := entity.(type) {
	case *telegram.User:
		if e.Self {
			return &tg.InputPeerSelf{}, nil
		}
		return &tg.InputPeerUser{UserID: e.ID, AccessHash: e.AccessHash}, nil
	case *telegram.Group:
		return &tg.InputPeerChat{ChatID: e.ID}, nil
	case *telegram.Channel:
		return &tg.InputPeerChannel{ChannelID: e.ID, AccessHash: e.AccessHash}, nil
	default:
		return nil, telegram.Invalidf("input peer", "unsupported entity %T", entity)
	}
}

func inputUser(entity telegram.Entity) (tg.InputUserClass, error) {
	user, ok := entity.(*telegram.User)
	if !ok {
		return nil, telegram.Invalidf("input user", "entity %d is a %s, not a user", entity.EntityID(), entity.Kind())
	}
	if user.Self {
		return &tg.InputUserSelf{}, nil
	}

	return &tg.InputUser{UserID: user.ID, AccessHash: user.AccessHash}, nil
}

func asChannel(entity telegram.Entity) (*tg.InputChannel, bool) {
	channel, ok := entity.(*telegram.Channel)
	if !ok {
		return nil, false
	}

	return &tg.InputChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}, true
}

type handleKind int

const (
	handleUsername handleKind = iota
	handleSelf
	handlePhone
)

type handle struct {
	kind  handleKind
	value string
}

var linkPrefixes = []string{"t.me/", "telegram.me/", "telegram.dog/"}

// parseHandle normalizes a textual reference.
func parseHandle(raw string) (handle, error) {
	value := strings.TrimSpace(raw)
	link := trimPrefixFold(trimPrefixFold(trimPrefixFold(value, "https://"), "http://"), "www.")

	for _, prefix := range linkPrefixes {
		if !hasPrefixFold(link, prefix) {
			continue
		}
		path := link[len(prefix):]
		if i := strings.IndexAny(path, "/?#"); i >= 0 {
			path = path[:i]
		}
		if path == "" || strings.HasPrefix(path, "+") || strings.EqualFold(path, "joinchat") {
			return handle{}, telegram.Invalidf("resolve", "invite links are not supported: %q", raw)
		}
		return username(path, raw)
	}

	switch strings.ToLower(value) {
	case "me", "self":
		return handle{kind: handleSelf}, nil
	}

	if phone, ok := phoneNumber(value); ok {
		return handle{kind: handlePhone, value: phone}, nil
	}

	return username(strings.TrimPrefix(value, "@"), raw)
}

func username(value string, raw string) (handle, error) {
	if value == "" {
		return handle{}, telegram.Invalidf("resolve", "cannot find any entity corresponding to %q", raw)
	}
	for _, r := range value {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isLetter && (r < '0' || r > '9') && r != '_' {
			return handle{}, telegram.Invalidf("resolve", "cannot find any entity corresponding to %q", raw)
		}
	}

	return handle{kind: handleUsername, value: value}, nil
}

// phoneNumber accepts "+" followed by digits, allowing spaces, dashes and
// parentheses as separators.
func phoneNumber(value string) (string, bool) {
	if !strings.HasPrefix(value, "+") {
		return "", false
	}

	var digits strings.Builder
	for _, r := range value[1:] {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", false
		}
	}
	if digits.Len() == 0 {
		return "", false
	}

	return digits.String(), true
}

func hasPrefixFold(value string, prefix string) bool {
	return len(value) >= len(prefix) && strings.EqualFold(value[:len(prefix)], prefix)
}

func trimPrefixFold(value string, prefix string) string {
	if hasPrefixFold(value, prefix) {
		return value[len(prefix):]
	}

	return value
}
