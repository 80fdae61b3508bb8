package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"CityWatch/internal/domain"
	"CityWatch/internal/logging"
)

func TestListenDeliversChannelPosts(t *testing.T) {
	t.Parallel()

	responses := []string{
		`{"ok": true, "result": [
			{"update_id": 10, "channel_post": {
				"message_id": 7, "date": 1767000000,
				"text": "pothole on Lenina street 15",
				"chat": {"id": -100123, "title": "City Problems", "username": "cityproblems"}
			}},
			{"update_id": 11, "channel_post": {
				"message_id": 8, "date": 1767000060,
				"text": "",
				"chat": {"id": -100123, "username": "cityproblems"}
			}}
		]}`,
		`{"ok": true, "result": []}`,
	}
	var mu sync.Mutex
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		body := `{"ok": true, "result": []}`
		if call < len(responses) {
			body = responses[call]
		}
		call++
		mu.Unlock()
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	l := NewListener("test-token", time.Second, logging.New("error"))
	l.apiBase = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received := make(chan domain.RawMessage, 4)
	go func() {
		_ = l.Listen(ctx, func(_ context.Context, msg domain.RawMessage) {
			received <- msg
		})
	}()

	var msg domain.RawMessage
	select {
	case msg = <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("no message delivered")
	}
	cancel()
	assert.Equal(t, domain.SourceChannel, msg.SourceKind)
	assert.Equal(t, "cityproblems", msg.SourceID)
	assert.Equal(t, "7", msg.MessageID)
	assert.Equal(t, "pothole on Lenina street 15", msg.Text)
	assert.Equal(t, "https://t.me/cityproblems/7", msg.Link)
	assert.False(t, msg.PublishedAt.IsZero())
}

func TestToRawMessageSkipsTextless(t *testing.T) {
	t.Parallel()

	_, ok := toRawMessage(update{UpdateID: 1})
	assert.False(t, ok, "updates without a channel post are skipped")
}
