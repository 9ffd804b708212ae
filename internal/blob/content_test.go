package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventhub-api/internal/domain/common"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func TestSniffKeepsStream(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		active bool
	}{
		{"png", pngHeader, "image/png", false},
		{"pdf", "%PDF-1.4\n", "application/pdf", false},
		{"html", "<script>alert(1)</script>", "text/html", true},
		{"svg", `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`, "image/svg+xml", true},
		{"plain text", "just some notes", "text/plain", false},
		{"long body", strings.Repeat("a", 10000), "text/plain", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, r, err := Sniff(strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, BaseType(ct))
			assert.Equal(t, tt.active, IsActive(ct))

			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(data))
		})
	}
}

func TestInlineSafe(t *testing.T) {
	assert.True(t, InlineSafe("image/PNG"))
	assert.True(t, InlineSafe("audio/webm;codecs=opus"))
	assert.False(t, InlineSafe("image/svg+xml"))
	assert.False(t, InlineSafe("text/html; charset=utf-8"))
	assert.False(t, InlineSafe("application/pdf"))
	assert.False(t, InlineSafe(""))
}

func TestMemoryStoreStat(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Put(ctx, "chat/a/b.png", strings.NewReader(pngHeader), int64(len(pngHeader)), "image/png")
	require.NoError(t, err)

	obj, err := s.Stat(ctx, "chat/a/b.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(len(pngHeader)), obj.Size)

	_, err = s.Stat(ctx, "chat/a/missing.png")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
