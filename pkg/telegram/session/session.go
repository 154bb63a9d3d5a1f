// Package session turns the configured credential into a gotd session storage.
//
// Three sources are understood: a Telethon StringSession, a Telethon SQLite
// session file and a gotd JSON session file.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"tgbridge/pkg/config"
	"tgbridge/pkg/telegram"

	"github.com/gotd/td/crypto"
	gotdsession "github.com/gotd/td/session"
	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

// Source names where a credential came from.
type Source string

const (
	SourceString   Source = "telethon_string"
	SourceTelethon Source = "telethon_sqlite"
	SourceFile     Source = "gotd_file"

	fileSuffix = ".session"
)

var sqliteHeader = []byte("SQLite format 3\x00")

// ErrNoCredentials is returned when a session database holds no auth key.
var ErrNoCredentials = errors.New("session has no stored credentials")

// Credential is a resolved session storage ready to hand to the client.
type Credential struct {
	Storage gotdsession.Storage
	Source  Source
	// Path is the backing file, empty for string sessions.
	Path string
	// Peers are access hashes stored next to a Telethon session.
	Peers []telegram.KnownPeer
}

// Open resolves the configured credential. A session string wins over a
// session name.
func Open(ctx context.Context, cfg config.TelegramConfig) (*Credential, error) {
	if value := strings.TrimSpace(cfg.SessionString); value != "" {
		storage, err := FromString(ctx, value)
		if err != nil {
			return nil, err
		}
		return &Credential{Storage: storage, Source: SourceString}, nil
	}

	name := strings.TrimSpace(cfg.SessionName)
	if name == "" {
		return nil, errors.New("session name or session string is required")
	}

	path := ResolvePath(name)
	isSQLite, err := looksLikeSQLite(path)
	if err != nil {
		return nil, err
	}
	if !isSQLite {
		return &Credential{Storage: &gotdsession.FileStorage{Path: path}, Source: SourceFile, Path: path}, nil
	}

	storage, peers, err := readTelethonFile(ctx, path)
	if err != nil {
		return nil, err
	}

	return &Credential{Storage: storage, Source: SourceTelethon, Path: path, Peers: peers}, nil
}

// ResolvePath maps a session name onto a file. The name itself is used when
// it exists; otherwise the Telethon ".session" suffix is tried.
func ResolvePath(name string) string {
	if fileExists(name) {
		return name
	}
	if !strings.HasSuffix(name, fileSuffix) && fileExists(name+fileSuffix) {
		return name + fileSuffix
	}

	return name
}

// FromString decodes a Telethon StringSession into an in-memory storage.
func FromString(ctx context.Context, value string) (*gotdsession.StorageMemory, error) {
	data, err := gotdsession.TelethonSession(value)
	if err != nil {
		return nil, fmt.Errorf("decode session string: %w", err)
	}

	return memoryStorage(ctx, data)
}

// FromTelethonFile reads the auth key of a Telethon SQLite session file into
// an in-memory storage. The file is only read.
func FromTelethonFile(ctx context.Context, path string) (*gotdsession.StorageMemory, error) {
	storage, _, err := readTelethonFile(ctx, path)
	return storage, err
}

func readTelethonFile(ctx context.Context, path string) (*gotdsession.StorageMemory, []telegram.KnownPeer, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open session database: %w", err)
	}
	defer db.Close()

	var rows []telethonSession
	if err := db.SelectContext(ctx, &rows, "SELECT dc_id, server_address, port, auth_key FROM sessions"); err != nil {
		return nil, nil, fmt.Errorf("read session database: %w", err)
	}

	var data *gotdsession.Data
	for _, row := range rows {
		if len(row.AuthKey) == 0 {
			continue
		}
		if data, err = row.data(); err != nil {
			return nil, nil, err
		}
		break
	}
	if data == nil {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrNoCredentials)
	}

	peers, err := readEntities(ctx, db)
	if err != nil {
		return nil, nil, err
	}

	storage, err := memoryStorage(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	return storage, peers, nil
}

// readEntities loads the access hashes Telethon caches in its entities table.
// Files written before the table existed yield none.
func readEntities(ctx context.Context, db *sqlx.DB) ([]telegram.KnownPeer, error) {
	var tables int
	if err := db.GetContext(ctx, &tables, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'entities'"); err != nil {
		return nil, fmt.Errorf("inspect session database: %w", err)
	}
	if tables == 0 {
		return nil, nil
	}

	var rows []telethonEntity
	if err := db.SelectContext(ctx, &rows, "SELECT id, hash FROM entities"); err != nil {
		return nil, fmt.Errorf("read session entities: %w", err)
	}

	peers := make([]telegram.KnownPeer, 0, len(rows))
	for _, row := range rows {
		kind, id := telegram.UnmarkID(row.ID)
		if kind == telegram.KindGroup {
			continue
		}
		peers = append(peers, telegram.KnownPeer{Kind: kind, ID: id, AccessHash: row.Hash})
	}

	return peers, nil
}

// Export copies the credential into a gotd JSON session file at path.
func Export(ctx context.Context, src gotdsession.Storage, path string) error {
	data, err := (&gotdsession.Loader{Storage: src}).Load(ctx)
	if err != nil {
		if errors.Is(err, gotdsession.ErrNotFound) {
			return ErrNoCredentials
		}
		return fmt.Errorf("load session: %w", err)
	}

	dst := &gotdsession.Loader{Storage: &gotdsession.FileStorage{Path: path}}
	if err := dst.Save(ctx, data); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	return nil
}

type telethonEntity struct {
	ID   int64 `db:"id"`
	Hash int64 `db:"hash"`
}

type telethonSession struct {
	DC      int    `db:"dc_id"`
	Address string `db:"server_address"`
	Port    int    `db:"port"`
	AuthKey []byte `db:"auth_key"`
}

func (s telethonSession) data() (*gotdsession.Data, error) {
	var key crypto.Key
	if len(s.AuthKey) != len(key) {
		return nil, fmt.Errorf("session auth key has %d bytes, want %d", len(s.AuthKey), len(key))
	}
	copy(key[:], s.AuthKey)
	authKey := key.WithID()

	return &gotdsession.Data{
		DC:        s.DC,
		Addr:      net.JoinHostPort(s.Address, strconv.Itoa(s.Port)),
		AuthKey:   authKey.Value[:],
		AuthKeyID: authKey.ID[:],
	}, nil
}

func memoryStorage(ctx context.Context, data *gotdsession.Data) (*gotdsession.StorageMemory, error) {
	storage := new(gotdsession.StorageMemory)
	if err := (&gotdsession.Loader{Storage: storage}).Save(ctx, data); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return storage, nil
}

func looksLikeSQLite(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(file, header); err != nil {
		return false, nil
	}

	return bytes.Equal(header, sqliteHeader), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
