package groupweb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CityWatch/internal/domain"
)

const wallHTML = `
<html><body>
  <div class="post" data-post-id="301" data-time="1767000000">
    <div class="wall_post_text">Garbage containers overflowing on Mira 4</div>
    <img src="photo.jpg"/>
  </div>
  <div class="post" data-post-id="300" data-time="1766990000">
    <div class="wall_post_text">Streetlight out near the school</div>
  </div>
  <div class="post" data-post-id="299">
    <div class="wall_post_text"></div>
  </div>
</body></html>`

func TestFetchRecent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(wallHTML))
	}))
	defer server.Close()

	posts, err := NewPoller(server.Client()).FetchRecent(context.Background(), server.URL, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2, "the textless post must be skipped")

	first := posts[0]
	assert.Equal(t, domain.SourceGroup, first.SourceKind)
	assert.Equal(t, "301", first.MessageID)
	assert.Equal(t, "Garbage containers overflowing on Mira 4", first.Text)
	assert.True(t, first.HasMedia)
	assert.False(t, first.PublishedAt.IsZero())

	assert.False(t, posts[1].HasMedia)
}

func TestFetchRecentHonorsLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(wallHTML))
	}))
	defer server.Close()

	posts, err := NewPoller(server.Client()).FetchRecent(context.Background(), server.URL, 1)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
