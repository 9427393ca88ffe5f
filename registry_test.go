package mongodoc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// offlineClient returns a driver client without touching the network; the
// driver only dials on first operation, which these tests never perform.
func offlineClient(t *testing.T) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:27017"))
	require.NoError(t, err)
	return client
}

func stubConnect(t *testing.T, fn func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error)) {
	t.Helper()
	orig := connectFn
	connectFn = fn
	t.Cleanup(func() { connectFn = orig })
}

func TestInitDBThenOperate(t *testing.T) {
	resetRegistry()
	t.Cleanup(resetRegistry)

	var gotURI string
	stubConnect(t, func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
		gotURI = uri
		return offlineClient(t), nil
	})

	require.NoError(t, InitDB(context.Background(), "mongodb://db.example:27017", "appdb"))
	require.Equal(t, "mongodb://db.example:27017", gotURI)

	class, err := CreateCollectionClass("User", "users")
	require.NoError(t, err)
	require.Equal(t, "users", class.CollectionName())
}

func TestInitDBFirstCallWins(t *testing.T) {
	useMemory(t)

	stubConnect(t, func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
		t.Fatal("connect must not be called after an earlier initialization")
		return nil, nil
	})
	require.NoError(t, InitDB(context.Background(), "mongodb://ignored:27017", "ignored"))
}

func TestInitDBErrorPropagates(t *testing.T) {
	resetRegistry()
	t.Cleanup(resetRegistry)

	boom := errors.New("server selection timeout")
	stubConnect(t, func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
		return nil, boom
	})

	err := InitDB(context.Background(), "mongodb://bad", "appdb")
	require.ErrorIs(t, err, boom)

	// a failed init leaves the registry uninitialized
	stubConnect(t, func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
		return offlineClient(t), nil
	})
	require.NoError(t, InitDB(context.Background(), "mongodb://good", "appdb"))
}

func TestEnvFallback(t *testing.T) {
	resetRegistry()
	t.Cleanup(resetRegistry)

	t.Setenv("MONGO_DB_CONNECTION_STRING", "mongodb://env.example:27017")
	t.Setenv("MONGO_DB_NAME", "envdb")

	connects := 0
	var gotURI string
	stubConnect(t, func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
		connects++
		gotURI = uri
		return offlineClient(t), nil
	})

	_, err := CreateCollectionClass("User", "users")
	require.NoError(t, err)
	require.Equal(t, "mongodb://env.example:27017", gotURI)

	// the lazy connection is established once
	_, err = CreateCollectionClass("Book", "books")
	require.NoError(t, err)
	require.Equal(t, 1, connects)
}

func TestNoInitNoEnv(t *testing.T) {
	resetRegistry()
	t.Cleanup(resetRegistry)

	t.Setenv("MONGO_DB_CONNECTION_STRING", "")
	t.Setenv("MONGO_DB_NAME", "")

	stubConnect(t, func(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
		t.Fatal("connect must not be called without configuration")
		return nil, nil
	})

	_, err := CreateCollectionClass("User", "users")
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestUseDatabaseBypassesInit(t *testing.T) {
	resetRegistry()
	t.Cleanup(resetRegistry)

	t.Setenv("MONGO_DB_CONNECTION_STRING", "")
	t.Setenv("MONGO_DB_NAME", "")

	UseDatabase(NewMemoryDatabase())
	users, err := CreateCollectionClass("User", "users")
	require.NoError(t, err)

	u := users.NewFromMap(map[string]any{"name": "Alice"})
	require.NoError(t, u.Save(context.Background()))
}

func TestDisconnectClearsHandle(t *testing.T) {
	resetRegistry()
	t.Cleanup(resetRegistry)

	t.Setenv("MONGO_DB_CONNECTION_STRING", "")
	t.Setenv("MONGO_DB_NAME", "")

	UseDatabase(NewMemoryDatabase())
	require.NoError(t, Disconnect(context.Background()))

	_, err := CreateCollectionClass("User", "users")
	require.ErrorIs(t, err, ErrNotConnected)
}
