package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"testing"

	"tgbridge/pkg/config"
	"tgbridge/pkg/telegram"

	gotdsession "github.com/gotd/td/session"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func testAuthKey() []byte {
	return bytes.Repeat([]byte{0x5a, 0x01, 0xc3, 0x7e}, 64)
}

func writeTelethonDB(t *testing.T, path string, authKey []byte) {
	t.Helper()

	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	db.MustExec(`CREATE TABLE sessions (
		dc_id integer primary key,
		server_address text,
		port integer,
		auth_key blob,
		takeout_id integer
	)`)
	db.MustExec(`CREATE TABLE version (version integer primary key)`)
	db.MustExec(`INSERT INTO version VALUES (7)`)
	if authKey != nil {
		db.MustExec(`INSERT INTO sessions VALUES (?, ?, ?, ?, NULL)`, 2, "149.154.167.51", 443, authKey)
	}
}

func telethonString(dc byte, ip net.IP, port uint16, authKey []byte) string {
	buf := []byte{dc}
	buf = append(buf, ip.To4()...)
	buf = binary.BigEndian.AppendUint16(buf, port)
	buf = append(buf, authKey...)

	return "1" + base64.URLEncoding.EncodeToString(buf)
}

func loadData(t *testing.T, storage gotdsession.Storage) *gotdsession.Data {
	t.Helper()

	data, err := (&gotdsession.Loader{Storage: storage}).Load(context.Background())
	require.NoError(t, err)
	return data
}

func TestOpenTelethonSQLite(t *testing.T) {
	dir := t.TempDir()
	writeTelethonDB(t, filepath.Join(dir, "bridge.session"), testAuthKey())

	cred, err := Open(context.Background(), config.TelegramConfig{SessionName: filepath.Join(dir, "bridge")})
	require.NoError(t, err)
	require.Equal(t, SourceTelethon, cred.Source)
	require.Equal(t, filepath.Join(dir, "bridge.session"), cred.Path)

	data := loadData(t, cred.Storage)
	require.Equal(t, 2, data.DC)
	require.Equal(t, "149.154.167.51:443", data.Addr)
	require.Equal(t, testAuthKey(), data.AuthKey)
	require.Len(t, data.AuthKeyID, 8)
}

func TestOpenTelethonSQLiteReadsEntities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.session")
	writeTelethonDB(t, path, testAuthKey())

	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	db.MustExec(`CREATE TABLE entities (
		id integer primary key,
		hash integer not null,
		username text,
		phone integer,
		name text,
		date integer
	)`)
	db.MustExec(`INSERT INTO entities VALUES (7, 700, 'ada', 123, 'Ada', NULL)`)
	db.MustExec(`INSERT INTO entities VALUES (-1000000000009, 900, 'news', NULL, 'News', NULL)`)
	db.MustExec(`INSERT INTO entities VALUES (-5, 0, NULL, NULL, 'Group', NULL)`)
	require.NoError(t, db.Close())

	cred, err := Open(context.Background(), config.TelegramConfig{SessionName: path})
	require.NoError(t, err)
	require.ElementsMatch(t, []telegram.KnownPeer{
		{Kind: telegram.KindUser, ID: 7, AccessHash: 700},
		{Kind: telegram.KindChannel, ID: 9, AccessHash: 900},
	}, cred.Peers)
}

func TestOpenTelethonSQLiteWithoutEntitiesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.session")
	writeTelethonDB(t, path, testAuthKey())

	cred, err := Open(context.Background(), config.TelegramConfig{SessionName: path})
	require.NoError(t, err)
	require.Empty(t, cred.Peers)
}

func TestOpenTelethonSQLiteWithoutKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.session")
	writeTelethonDB(t, path, nil)

	_, err := Open(context.Background(), config.TelegramConfig{SessionName: path})
	require.ErrorIs(t, err, ErrNoCredentials)
}

func TestOpenSessionString(t *testing.T) {
	value := telethonString(4, net.ParseIP("149.154.167.91"), 443, testAuthKey())

	cred, err := Open(context.Background(), config.TelegramConfig{SessionString: value, SessionName: "ignored"})
	require.NoError(t, err)
	require.Equal(t, SourceString, cred.Source)
	require.Empty(t, cred.Path)

	data := loadData(t, cred.Storage)
	require.Equal(t, 4, data.DC)
	require.Equal(t, "149.154.167.91:443", data.Addr)
	require.Equal(t, testAuthKey(), data.AuthKey)
}

func TestOpenRejectsMalformedSessionString(t *testing.T) {
	_, err := Open(context.Background(), config.TelegramConfig{SessionString: "not-a-session"})
	require.Error(t, err)
}

func TestOpenFallsBackToFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.json")

	cred, err := Open(context.Background(), config.TelegramConfig{SessionName: path})
	require.NoError(t, err)
	require.Equal(t, SourceFile, cred.Source)

	storage, ok := cred.Storage.(*gotdsession.FileStorage)
	require.True(t, ok)
	require.Equal(t, path, storage.Path)
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(plain, []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "named.session"), []byte("{}"), 0o600))

	require.Equal(t, plain, ResolvePath(plain))
	require.Equal(t, filepath.Join(dir, "named.session"), ResolvePath(filepath.Join(dir, "named")))
	require.Equal(t, filepath.Join(dir, "missing"), ResolvePath(filepath.Join(dir, "missing")))
}

func TestExportWritesLoadableFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bridge.session")
	writeTelethonDB(t, src, testAuthKey())

	cred, err := Open(context.Background(), config.TelegramConfig{SessionName: src})
	require.NoError(t, err)

	out := filepath.Join(dir, "exported.json")
	require.NoError(t, Export(context.Background(), cred.Storage, out))

	reopened, err := Open(context.Background(), config.TelegramConfig{SessionName: out})
	require.NoError(t, err)
	require.Equal(t, SourceFile, reopened.Source)

	data := loadData(t, reopened.Storage)
	require.Equal(t, 2, data.DC)
	require.Equal(t, testAuthKey(), data.AuthKey)
}

func TestExportWithoutCredentials(t *testing.T) {
	err := Export(context.Background(), new(gotdsession.StorageMemory), filepath.Join(t.TempDir(), "out.json"))
	require.ErrorIs(t, err, ErrNoCredentials)
}
