package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
)

func TestNewKeyRoundTrip(t *testing.T) {
	eventID := uuid.New()
	key := NewKey(PrefixCirculars, eventID, "memo.M4A")

	assert.True(t, strings.HasPrefix(key, "circulars/"+eventID.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".m4a"))

	got, ok := EventIDFromKey(key)
	require.True(t, ok)
	assert.Equal(t, eventID, got)
}

func TestEventIDFromKeyRejects(t *testing.T) {
	for _, key := range []string{"", "circulars", "other/" + uuid.NewString() + "/x", "chat/not-a-uuid/x", "chat/a/b/c"} {
		_, ok := EventIDFromKey(key)
		assert.False(t, ok, key)
	}
}

func TestCleanKey(t *testing.T) {
	key, ok := CleanKey("/chat/abc/file.png")
	assert.True(t, ok)
	assert.Equal(t, "chat/abc/file.png", key)

	for _, bad := range []string{"", "/", "chat/../secret", "chat//x", "chat\\x"} {
		_, ok := CleanKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	obj, err := store.Put(ctx, "chat/x/y.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(5), obj.Size)

	rc, info, err := store.Get(ctx, "chat/x/y.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "text/plain", info.ContentType)

	require.NoError(t, store.Delete(ctx, "chat/x/y.txt"))
	_, _, err = store.Get(ctx, "chat/x/y.txt")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}
