package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"tgbridge/pkg/telegram"
)

// fakeClient is an in-memory telegram.Client that records every call.
type fakeClient struct {
	mu sync.Mutex

	connected bool
	pingErr   error
	self      *telegram.User
	entities  map[string]telegram.Entity
	dialogs   []telegram.Dialog
	messages  []telegram.Message
	photos    []telegram.Photo
	inline    []telegram.InlineResult
	contacts  []*telegram.User
	sent      telegram.Sent

	// failNext is returned once by the next non-resolve call.
	failNext error

	calls       []string
	refs        []telegram.Ref
	lastQuery   telegram.MessageQuery
	lastLimit   int
	lastText    string
	lastReplyTo int
	lastMsgIDs  []int
	lastBot     string
	lastFile    fakeUpload
}

type fakeUpload struct {
	path    string
	content string
	opts    telegram.FileOptions
}

func newFakeClient() *fakeClient {
	ada := &telegram.User{ID: 1, FirstName: "Ada", Username: "ada", Status: telegram.PresenceOnline}
	return &fakeClient{
		connected: true,
		self:      &telegram.User{ID: 42, FirstName: "Me", Phone: "100", Self: true},
		entities: map[string]telegram.Entity{
			"1":              ada,
			"ada":            ada,
			"-5":             &telegram.Group{ID: 5, Title: "Friends"},
			"-1000000000009": &telegram.Channel{ID: 9, Title: "News", Username: "news"},
		},
	}
}

func (f *fakeClient) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call)
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeClient) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeClient) Connected() bool {
	return f.connected
}

func (f *fakeClient) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.pingErr
}

func (f *fakeClient) Self(context.Context) (*telegram.User, error) {
	if err := f.record("Self"); err != nil {
		return nil, err
	}
	return f.self, nil
}

func (f *fakeClient) Resolve(_ context.Context, ref telegram.Ref) (telegram.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "Resolve")
	f.refs = append(f.refs, ref)
	if entity, ok := f.entities[ref.Raw]; ok {
		return entity, nil
	}

	return nil, telegram.NewError(telegram.KindNotFound, "resolve", fmt.Errorf("Cannot find any entity corresponding to %q", ref.Raw))
}

func (f *fakeClient) Dialogs(_ context.Context, limit int) ([]telegram.Dialog, error) {
	if err := f.record("Dialogs"); err != nil {
		return nil, err
	}
	f.lastLimit = limit
	return f.dialogs, nil
}

func (f *fakeClient) Messages(_ context.Context, _ telegram.Entity, query telegram.MessageQuery) ([]telegram.Message, error) {
	if err := f.record("Messages"); err != nil {
		return nil, err
	}
	f.lastQuery = query
	return f.messages, nil
}

func (f *fakeClient) SendMessage(_ context.Context, _ telegram.Entity, text string, replyTo int) (telegram.Sent, error) {
	if err := f.record("SendMessage"); err != nil {
		return telegram.Sent{}, err
	}
	f.lastText, f.lastReplyTo = text, replyTo
	return f.sent, nil
}

func (f *fakeClient) SendFile(_ context.Context, _ telegram.Entity, path string, opts telegram.FileOptions) (telegram.Sent, error) {
	content, readErr := os.ReadFile(path)
	f.lastFile = fakeUpload{path: path, content: string(content), opts: opts}
	if err := f.record("SendFile"); err != nil {
		return telegram.Sent{}, err
	}
	if readErr != nil {
		return telegram.Sent{}, readErr
	}
	return f.sent, nil
}

func (f *fakeClient) SendReaction(_ context.Context, _ telegram.Entity, msgID int, emoji string, _ bool) error {
	f.lastMsgIDs, f.lastText = []int{msgID}, emoji
	return f.record("SendReaction")
}

func (f *fakeClient) EditMessage(_ context.Context, _ telegram.Entity, msgID int, text string) (telegram.Sent, error) {
	if err := f.record("EditMessage"); err != nil {
		return telegram.Sent{}, err
	}
	f.lastMsgIDs, f.lastText = []int{msgID}, text
	return telegram.Sent{ID: msgID}, nil
}

func (f *fakeClient) DeleteMessages(_ context.Context, _ telegram.Entity, ids []int) error {
	f.lastMsgIDs = ids
	return f.record("DeleteMessages")
}

func (f *fakeClient) ForwardMessages(_ context.Context, _ telegram.Entity, _ telegram.Entity, ids []int) (telegram.Sent, error) {
	if err := f.record("ForwardMessages"); err != nil {
		return telegram.Sent{}, err
	}
	f.lastMsgIDs = ids
	return f.sent, nil
}

func (f *fakeClient) MarkRead(context.Context, telegram.Entity) error {
	return f.record("MarkRead")
}

func (f *fakeClient) PinMessage(_ context.Context, _ telegram.Entity, msgID int) error {
	f.lastMsgIDs = []int{msgID}
	return f.record("PinMessage")
}

func (f *fakeClient) ProfilePhotos(_ context.Context, _ telegram.Entity, limit int) ([]telegram.Photo, error) {
	if err := f.record("ProfilePhotos"); err != nil {
		return nil, err
	}
	f.lastLimit = limit
	return f.photos, nil
}

func (f *fakeClient) InlineQuery(_ context.Context, bot string, query string) ([]telegram.InlineResult, error) {
	if err := f.record("InlineQuery"); err != nil {
		return nil, err
	}
	f.lastBot, f.lastText = bot, query
	return f.inline, nil
}

func (f *fakeClient) Contacts(context.Context) ([]*telegram.User, error) {
	if err := f.record("Contacts"); err != nil {
		return nil, err
	}
	return f.contacts, nil
}

func (f *fakeClient) SearchContacts(_ context.Context, query string, limit int) ([]*telegram.User, error) {
	if err := f.record("SearchContacts"); err != nil {
		return nil, err
	}
	f.lastText, f.lastLimit = query, limit
	return f.contacts, nil
}

var errFlood = errors.New("A wait of 30 seconds is required (caused by GetDialogsRequest)")
