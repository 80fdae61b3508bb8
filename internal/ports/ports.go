package ports

import (
	"context"
	"time"

	"CityWatch/internal/domain"
)

// ChatBackend sends a prompt pair to the AI backend and returns the raw
// completion text.
type ChatBackend interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Geocoder resolves a free-form address to coordinates. The boolean reports
// whether the service returned a hit; a miss is not an error.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, bool, error)
}

// ComplaintRepository persists complaint records.
type ComplaintRepository interface {
	Save(ctx context.Context, c *domain.Complaint) error
	RecentByCategory(ctx context.Context, category string, since time.Time) ([]domain.Complaint, error)
	Active(ctx context.Context) ([]domain.Complaint, error)
	AddSupporter(ctx context.Context, id string) error
}

// Publisher delivers a payload to the external real-time store.
type Publisher interface {
	Publish(ctx context.Context, payload domain.PublishPayload) error
}

// ChannelFeed is the push-based source: Listen blocks, invoking handler once
// per incoming message until ctx is cancelled.
type ChannelFeed interface {
	Listen(ctx context.Context, handler func(context.Context, domain.RawMessage)) error
}

// GroupFeed is the poll-based source returning the most recent posts of one
// monitored group.
type GroupFeed interface {
	FetchRecent(ctx context.Context, groupURL string, limit int) ([]domain.RawMessage, error)
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
