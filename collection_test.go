package mongodoc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCollectionName(t *testing.T) {
	useMemory(t)

	books, err := CreateCollectionClass("Book", "")
	require.NoError(t, err)
	require.Equal(t, "Book", books.Name())
	require.Equal(t, "Book", books.CollectionName())
}

func TestExplicitCollectionName(t *testing.T) {
	useMemory(t)

	books, err := CreateCollectionClass("Book", "books")
	require.NoError(t, err)
	require.Equal(t, "Book", books.Name())
	require.Equal(t, "books", books.CollectionName())
}

func TestTwoClassesOverOneCollection(t *testing.T) {
	useMemory(t)
	ctx := context.Background()

	a, err := CreateCollectionClass("Person", "people")
	require.NoError(t, err)
	b, err := CreateCollectionClass("Employee", "people")
	require.NoError(t, err)

	require.NoError(t, a.NewFromMap(map[string]any{"name": "Alice"}).Save(ctx))

	// both classes see the same underlying collection
	got, err := b.Find(map[string]any{"name": "Alice"}).First(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Employee", got.Class().Name())

	n, err := b.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestClassesRegistry(t *testing.T) {
	useMemory(t)

	_, err := CreateCollectionClass("User", "users")
	require.NoError(t, err)
	_, err = CreateCollectionClass("Book", "")
	require.NoError(t, err)

	classes := Classes()
	require.Contains(t, classes, "User")
	require.Contains(t, classes, "Book")
}

func TestInsertManyAndCount(t *testing.T) {
	useMemory(t)
	ctx := context.Background()

	users, err := CreateCollectionClass("User", "users")
	require.NoError(t, err)

	err = users.InsertMany(ctx, []map[string]any{
		{"name": "Alice"},
		{"name": "Bob"},
		{"name": "Carol"},
	})
	require.NoError(t, err)

	n, err := users.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestFindIn(t *testing.T) {
	useMemory(t)
	ctx := context.Background()

	users, err := CreateCollectionClass("User", "users")
	require.NoError(t, err)
	require.NoError(t, users.InsertMany(ctx, []map[string]any{
		{"name": "Alice"},
		{"name": "Bob"},
		{"name": "Carol"},
	}))

	res, err := users.FindIn("name", []any{"Alice", "Carol"}).All(ctx)
	require.NoError(t, err)
	require.Len(t, res, 2)
}

func TestDeleteMany(t *testing.T) {
	useMemory(t)
	ctx := context.Background()

	users, err := CreateCollectionClass("User", "users")
	require.NoError(t, err)
	require.NoError(t, users.InsertMany(ctx, []map[string]any{
		{"name": "Alice", "active": true},
		{"name": "Bob", "active": false},
		{"name": "Carol", "active": true},
	}))

	deleted, err := users.DeleteMany(ctx, map[string]any{"active": true})
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	n, err := users.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestGetByIDMalformed(t *testing.T) {
	useMemory(t)

	users, err := CreateCollectionClass("User", "users")
	require.NoError(t, err)

	got, err := users.GetByID(context.Background(), "not-a-hex-id")
	require.NoError(t, err)
	require.Nil(t, got)
}
