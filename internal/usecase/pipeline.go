// Package usecase composes the intake pipeline from the domain services.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"CityWatch/internal/classify"
	"CityWatch/internal/dedup"
	"CityWatch/internal/domain"
	"CityWatch/internal/filter"
	"CityWatch/internal/geo"
	"CityWatch/internal/guard"
	"CityWatch/internal/orgs"
	"CityWatch/internal/ports"
	"CityWatch/internal/queue"
)

const titleMaxLen = 80

// Pipeline runs one raw message through guard, filter, classification,
// location resolution, matching, dedup, persistence and delivery.
type Pipeline struct {
	guard      *guard.Guard
	filter     *filter.Filter
	classifier *classify.Classifier
	resolver   *geo.Resolver
	registry   *orgs.Registry
	dedup      *dedup.Checker
	ring       *dedup.PublishedRing
	repo       ports.ComplaintRepository
	queue      *queue.DeliveryQueue

	provider string
	logger   *slog.Logger
}

// PipelineDeps names every collaborator so the wiring site stays readable.
type PipelineDeps struct {
	Guard      *guard.Guard
	Filter     *filter.Filter
	Classifier *classify.Classifier
	Resolver   *geo.Resolver
	Registry   *orgs.Registry
	Dedup      *dedup.Checker
	Ring       *dedup.PublishedRing
	Repo       ports.ComplaintRepository
	Queue      *queue.DeliveryQueue
	Provider   string
	Logger     *slog.Logger
}

func NewPipeline(d PipelineDeps) *Pipeline {
	return &Pipeline{
		guard:      d.Guard,
		filter:     d.Filter,
		classifier: d.Classifier,
		resolver:   d.Resolver,
		registry:   d.Registry,
		dedup:      d.Dedup,
		ring:       d.Ring,
		repo:       d.Repo,
		queue:      d.Queue,
		provider:   d.Provider,
		logger:     d.Logger,
	}
}

// Process handles one incoming message. A message dropped by any stage is not
// an error; errors are reserved for infrastructure failures.
func (p *Pipeline) Process(ctx context.Context, msg domain.RawMessage) error {
	if !p.guard.IsNew(msg.PublishedAt) {
		p.logger.Debug("skip pre-start message", "source", msg.SourceID, "message", msg.MessageID)
		return nil
	}
	if p.guard.IsDuplicate(msg.SourceKind, msg.MessageID) {
		return nil
	}
	p.guard.MarkProcessed(msg.SourceKind, msg.MessageID)

	if p.filter.LooksLikeSpam(msg.Text) {
		p.logger.Debug("drop spam", "source", msg.SourceID, "message", msg.MessageID)
		return nil
	}

	cls := p.classifier.Classify(ctx, msg.Text)
	if !p.filter.IsRelevant(cls, msg.Text) {
		p.logger.Debug("drop irrelevant", "source", msg.SourceID, "message", msg.MessageID)
		return nil
	}

	loc := p.resolver.Resolve(ctx, cls, msg.Text)
	complaint := p.buildComplaint(msg, cls, loc)

	if dup, err := p.dedup.IsDuplicate(ctx, complaint); err != nil {
		return fmt.Errorf("dedup check: %w", err)
	} else if dup {
		p.logger.Info("drop duplicate", "category", complaint.Category, "address", complaint.Address)
		return nil
	}

	if err := p.repo.Save(ctx, complaint); err != nil {
		return fmt.Errorf("save complaint: %w", err)
	}
	p.logger.Info("complaint saved",
		"id", complaint.ID, "category", complaint.Category,
		"address", complaint.Address, "org", complaint.OrganizationName)

	payload := p.buildPayload(msg, cls, complaint)
	if p.ring.Seen(payload) {
		p.logger.Debug("skip recently published", "category", payload.Category)
		return nil
	}
	p.queue.Enqueue(payload)
	p.ring.Remember(payload)
	return nil
}

func (p *Pipeline) buildComplaint(msg domain.RawMessage, cls domain.ClassificationResult, loc domain.ResolvedLocation) *domain.Complaint {
	c := &domain.Complaint{
		ID:            uuid.NewString(),
		Title:         complaintTitle(cls, msg.Text),
		Description:   msg.Text,
		Category:      cls.Category,
		Status:        domain.StatusOpen,
		Lat:           loc.Lat,
		Lon:           loc.Lon,
		Address:       loc.Address,
		Source:        string(msg.SourceKind),
		SourceChannel: msg.SourceID,
	}
	if org, ok := p.registry.Match(loc.Address); ok {
		c.OrganizationName = org.Name
		c.OrganizationEmail = org.Email
	}
	return c
}

func (p *Pipeline) buildPayload(msg domain.RawMessage, cls domain.ClassificationResult, c *domain.Complaint) domain.PublishPayload {
	return domain.PublishPayload{
		Category:   c.Category,
		Summary:    cls.Summary,
		Text:       msg.Text,
		Address:    c.Address,
		Lat:        c.Lat,
		Lng:        c.Lon,
		Source:     string(msg.SourceKind),
		SourceName: msg.SourceID,
		PostLink:   msg.Link,
		Provider:   p.provider,
	}
}

func complaintTitle(cls domain.ClassificationResult, text string) string {
	title := strings.TrimSpace(cls.Summary)
	if title == "" {
		title = strings.TrimSpace(text)
	}
	runes := []rune(title)
	if len(runes) > titleMaxLen {
		title = string(runes[:titleMaxLen])
	}
	return title
}
