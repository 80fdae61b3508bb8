// Package telegram implements the push-based channel feed on top of the bot
// API's long polling.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

const apiBase = "https://api.telegram.org"

// Listener long-polls getUpdates and invokes the pipeline handler once per
// incoming channel post. Processing is synchronous per message; backpressure
// comes from the pipeline's own latency.
type Listener struct {
	botToken    string
	pollTimeout time.Duration
	client      *http.Client
	logger      *slog.Logger
	apiBase     string
}

var _ ports.ChannelFeed = (*Listener)(nil)

// NewListener builds a listener; pollTimeout is the long-poll hold time.
func NewListener(botToken string, pollTimeout time.Duration, logger *slog.Logger) *Listener {
	if pollTimeout <= 0 {
		pollTimeout = 50 * time.Second
	}
	return &Listener{
		botToken:    botToken,
		pollTimeout: pollTimeout,
		// The request timeout must exceed the long-poll hold time.
		client:  &http.Client{Timeout: pollTimeout + 10*time.Second},
		logger:  logger,
		apiBase: apiBase,
	}
}

type update struct {
	UpdateID    int64 `json:"update_id"`
	ChannelPost *struct {
		MessageID int64             `json:"message_id"`
		Date      int64             `json:"date"`
		Text      string            `json:"text"`
		Caption   string            `json:"caption"`
		Photo     []json.RawMessage `json:"photo"`
		Chat      struct {
			ID       int64  `json:"id"`
			Title    string `json:"title"`
			Username string `json:"username"`
		} `json:"chat"`
	} `json:"channel_post"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// Listen blocks, delivering messages until ctx is cancelled. Transport errors
// are logged and retried after a short pause; one bad poll never stops the
// feed.
func (l *Listener) Listen(ctx context.Context, handler func(context.Context, domain.RawMessage)) error {
	if l.botToken == "" {
		return fmt.Errorf("telegram listener misconfigured: empty bot token")
	}

	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := l.fetchUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("getUpdates failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if msg, ok := toRawMessage(u); ok {
				handler(ctx, msg)
			}
		}
	}
}

func (l *Listener) fetchUpdates(ctx context.Context, offset int64) ([]update, error) {
	form := url.Values{}
	form.Set("timeout", strconv.Itoa(int(l.pollTimeout/time.Second)))
	form.Set("allowed_updates", `["channel_post"]`)
	if offset > 0 {
		form.Set("offset", strconv.FormatInt(offset, 10))
	}

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", l.apiBase, l.botToken, form.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("telegram error %s: %s", resp.Status, payload)
	}

	var parsed updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram responded ok=false")
	}
	return parsed.Result, nil
}

func toRawMessage(u update) (domain.RawMessage, bool) {
	post := u.ChannelPost
	if post == nil {
		return domain.RawMessage{}, false
	}

	text := post.Text
	if text == "" {
		text = post.Caption
	}
	if text == "" {
		return domain.RawMessage{}, false
	}

	sourceID := post.Chat.Username
	if sourceID == "" {
		sourceID = strconv.FormatInt(post.Chat.ID, 10)
	}

	var publishedAt time.Time
	if post.Date > 0 {
		publishedAt = time.Unix(post.Date, 0)
	}

	var link string
	if post.Chat.Username != "" {
		link = fmt.Sprintf("https://t.me/%s/%d", post.Chat.Username, post.MessageID)
	}

	return domain.RawMessage{
		SourceKind:  domain.SourceChannel,
		SourceID:    sourceID,
		MessageID:   strconv.FormatInt(post.MessageID, 10),
		Text:        text,
		PublishedAt: publishedAt,
		Link:        link,
		HasMedia:    len(post.Photo) > 0,
	}, true
}
