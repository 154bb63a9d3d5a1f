// Package mtproto implements telegram.Client on top of gotd's MTProto client
// acting as a user account.
package mtproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"tgbridge/pkg/config"
	"tgbridge/pkg/telegram"

	tdclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned by Start when the session is not logged in.
var ErrUnauthorized = errors.New("session is not authorized; log in with another client and export the session first")

var errStopped = errors.New("client stopped")

// Client is a long-lived user-account connection. Create it with New, then
// call Start once before use and Close when done.
type Client struct {
	td  *tdclient.Client
	// raw overrides td.API() when set.
	raw *tg.Client
	log *slog.Logger

	peers *peerCache

	connected atomic.Bool
	mu        sync.Mutex
	self      *telegram.User
	cancel    context.CancelFunc
	done      chan struct{}
	runErr    error
}

var _ telegram.Client = (*Client)(nil)

// New validates credentials and constructs a client that is not yet connected.
func New(cfg config.TelegramConfig, storage tdclient.SessionStorage, zlog *zap.Logger, log *slog.Logger) (*Client, error) {
	if cfg.APIID <= 0 {
		return nil, errors.New("telegram.api_id is required")
	}
	if strings.TrimSpace(cfg.APIHash) == "" {
		return nil, errors.New("telegram.api_hash is required")
	}
	if storage == nil {
		return nil, errors.New("session storage is required")
	}
	if zlog == nil {
		zlog = zap.NewNop()
	}
	if log == nil {
		log = slog.Default()
	}

	td := tdclient.NewClient(cfg.APIID, strings.TrimSpace(cfg.APIHash), tdclient.Options{
		SessionStorage: storage,
		Logger:         zlog,
		NoUpdates:      true,
	})

	return &Client{
		td:    td,
		log:   log.With("component", "telegram.mtproto"),
		peers: newPeerCache(),
	}, nil
}

// Start connects, checks that the session is authorized and caches the own
// user. It returns once the connection is usable or has failed.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return errors.New("client already started")
	}
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	ready := make(chan error, 1)
	go func() {
		defer close(done)

		err := c.td.Run(runCtx, func(ctx context.Context) error {
			status, err := c.td.Auth().Status(ctx)
			if err != nil {
				ready <- classify("auth status", err)
				return err
			}
			if !status.Authorized || status.User == nil {
				ready <- ErrUnauthorized
				return ErrUnauthorized
			}

			c.peers.rememberUser(status.User)
			c.setSelf(convertUser(status.User))
			c.connected.Store(true)
			ready <- nil

			<-ctx.Done()
			return ctx.Err()
		})
		c.connected.Store(false)
		if err == nil || errors.Is(err, context.Canceled) {
			err = errStopped
		}

		c.mu.Lock()
		c.runErr = err
		c.mu.Unlock()

		select {
		case ready <- classify("connect", err):
		default:
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			cancel()
			<-done
			return err
		}
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}

	self, _ := c.cachedSelf()
	c.log.Info("Telegram client connected", "user_id", self.ID, "username", self.Username)
	return nil
}

// Close stops the connection and waits for the client loop to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done
	c.log.Info("Telegram client disconnected")
	return nil
}

// Err returns why the client loop exited, or nil while it runs.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.runErr
}

// Connected reports whether the client loop is running with an authorized session.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Ping performs one round trip to the server.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Connected() {
		return telegram.NewError(telegram.KindTransient, "ping", errors.New("client is not connected"))
	}

	return classify("ping", c.td.Ping(ctx))
}

// Self fetches the account the session belongs to.
func (c *Client) Self(ctx context.Context) (*telegram.User, error) {
	users, err := c.api().UsersGetUsers(ctx, []tg.InputUserClass{&tg.InputUserSelf{}})
	if err != nil {
		return nil, classify("get self", err)
	}
	c.peers.remember(users, nil)

	for _, raw := range users {
		if user, ok := raw.(*tg.User); ok {
			self := convertUser(user)
			c.setSelf(self)
			return self, nil
		}
	}

	return nil, telegram.NewError(telegram.KindNotFound, "get self", errors.New("own user was not returned"))
}

// Preload seeds access hashes remembered by an earlier session so their
// numeric IDs resolve before the peer has been seen again.
func (c *Client) Preload(known []telegram.KnownPeer) {
	c.peers.preload(known)
}

func (c *Client) api() *tg.Client {
	if c.raw != nil {
		return c.raw
	}

	return c.td.API()
}

func (c *Client) setSelf(user *telegram.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	user.Self = true
	c.self = user
}

func (c *Client) cachedSelf() (*telegram.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.self == nil {
		return &telegram.User{}, false
	}

	return c.self, true
}

func notFound(op string, format string, args ...any) error {
	return telegram.NewError(telegram.KindNotFound, op, fmt.Errorf(format, args...))
}
