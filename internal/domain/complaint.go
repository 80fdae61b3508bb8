package domain

import "time"

// SourceKind distinguishes the two intake feeds.
type SourceKind string

const (
	SourceChannel SourceKind = "channel"
	SourceGroup   SourceKind = "group"
	SourceDirect  SourceKind = "direct"
)

// RawMessage is one unit of intake from a source feed. It is immutable and
// discarded after processing.
type RawMessage struct {
	SourceKind  SourceKind
	SourceID    string
	MessageID   string
	Text        string
	PublishedAt time.Time // zero value means the source reported no timestamp
	Link        string
	HasMedia    bool
}

// ComplaintStatus enumerates moderation milestones. The ingestion pipeline
// only ever creates records in StatusOpen.
type ComplaintStatus string

const (
	StatusOpen       ComplaintStatus = "open"
	StatusPending    ComplaintStatus = "pending"
	StatusInProgress ComplaintStatus = "in_progress"
	StatusResolved   ComplaintStatus = "resolved"
)

// Complaint is the persisted record produced by the pipeline or by a direct
// user submission.
type Complaint struct {
	ID                string          `db:"id" json:"id"`
	Title             string          `db:"title" json:"title"`
	Description       string          `db:"description" json:"description"`
	Category          string          `db:"category" json:"category"`
	Status            ComplaintStatus `db:"status" json:"status"`
	Lat               *float64        `db:"lat" json:"lat,omitempty"`
	Lon               *float64        `db:"lon" json:"lon,omitempty"`
	Address           string          `db:"address" json:"address"`
	Source            string          `db:"source" json:"source"`
	SourceChannel     string          `db:"source_channel" json:"source_channel"`
	OrganizationName  string          `db:"organization_name" json:"organization_name,omitempty"`
	OrganizationEmail string          `db:"organization_email" json:"organization_email,omitempty"`
	SupporterCount    int             `db:"supporter_count" json:"supporter_count"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// HasCoords reports whether the record carries a full coordinate pair.
func (c Complaint) HasCoords() bool {
	return c.Lat != nil && c.Lon != nil
}

// PublishPayload is the outbound message handed to the delivery queue target.
type PublishPayload struct {
	Category   string   `json:"category"`
	Summary    string   `json:"summary"`
	Text       string   `json:"text"`
	Address    string   `json:"address"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	Source     string   `json:"source"`
	SourceName string   `json:"sourceName"`
	PostLink   string   `json:"postLink"`
	Provider   string   `json:"provider"`
}

// Cluster aggregates nearby active complaints for map rendering.
type Cluster struct {
	Label        int      `json:"label"`
	Count        int      `json:"count"`
	CenterLat    float64  `json:"center_lat"`
	CenterLon    float64  `json:"center_lon"`
	ComplaintIDs []string `json:"complaint_ids"`
}
