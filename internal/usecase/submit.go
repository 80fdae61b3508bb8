package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"CityWatch/internal/classify"
	"CityWatch/internal/domain"
	"CityWatch/internal/geo"
	"CityWatch/internal/orgs"
	"CityWatch/internal/ports"
	"CityWatch/internal/ratelimit"
)

// ErrRateLimited is returned when a user exceeds their submission quota.
var ErrRateLimited = errors.New("rate limit exceeded")

// ErrEmptySubmission is returned for blank direct submissions.
var ErrEmptySubmission = errors.New("submission text is empty")

// SubmitRequest is a direct user submission, optionally with a photo and the
// device's own coordinates.
type SubmitRequest struct {
	UserID   string
	Text     string
	HasPhoto bool
	Lat      *float64
	Lon      *float64
}

// SubmitResult reports what the system made of the submission.
type SubmitResult struct {
	Classification domain.ClassificationResult
	Location       domain.ResolvedLocation
	Complaint      *domain.Complaint
}

// Submitter handles direct submissions from the public API.
type Submitter struct {
	classifier *classify.Classifier
	resolver   *geo.Resolver
	registry   *orgs.Registry
	repo       ports.ComplaintRepository
	limits     *ratelimit.Set
	logger     *slog.Logger
}

func NewSubmitter(classifier *classify.Classifier, resolver *geo.Resolver, registry *orgs.Registry,
	repo ports.ComplaintRepository, limits *ratelimit.Set, logger *slog.Logger) *Submitter {
	return &Submitter{
		classifier: classifier,
		resolver:   resolver,
		registry:   registry,
		repo:       repo,
		limits:     limits,
		logger:     logger,
	}
}

// Submit classifies and stores one direct submission. Device coordinates, when
// present, take precedence over anything inferred from the text.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if !s.limits.Submit.Allow(req.UserID) {
		return SubmitResult{}, ErrRateLimited
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return SubmitResult{}, ErrEmptySubmission
	}

	cls := s.classifier.Classify(ctx, text)

	loc := s.resolver.Resolve(ctx, cls, text)
	if req.Lat != nil && req.Lon != nil {
		device := domain.ResolvedLocation{
			Lat:      req.Lat,
			Lon:      req.Lon,
			Accuracy: domain.AccuracyHigh,
			Source:   domain.ResolvedFromDevice,
		}
		loc = device.Merge(loc)
	}

	c := &domain.Complaint{
		ID:            uuid.NewString(),
		Title:         complaintTitle(cls, text),
		Description:   text,
		Category:      cls.Category,
		Status:        domain.StatusOpen,
		Lat:           loc.Lat,
		Lon:           loc.Lon,
		Address:       loc.Address,
		Source:        string(domain.SourceDirect),
		SourceChannel: req.UserID,
	}
	if org, ok := s.registry.Match(loc.Address); ok {
		c.OrganizationName = org.Name
		c.OrganizationEmail = org.Email
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return SubmitResult{}, fmt.Errorf("save submission: %w", err)
	}

	s.logger.Info("submission accepted",
		"id", c.ID, "user", req.UserID, "category", c.Category, "photo", req.HasPhoto)
	return SubmitResult{Classification: cls, Location: loc, Complaint: c}, nil
}

// Support registers one more supporter for an existing complaint.
func (s *Submitter) Support(ctx context.Context, userID, complaintID string) error {
	if !s.limits.General.Allow(userID) {
		return ErrRateLimited
	}
	return s.repo.AddSupporter(ctx, complaintID)
}
