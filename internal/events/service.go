package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for webhook events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	// List returns newest first.
	List(ctx context.Context, f Filter) ([]Event, error)
}

// Service journals webhook events.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("events: invalid event")

func (s *Service) Append(ctx context.Context, e Event) (Event, error) {
	if s.repo == nil {
		return Event{}, errors.New("events: repository not configured")
	}
	if e.Type == "" || e.Endpoint == "" {
		return Event{}, ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = s.clock()
	}
	e.ReceivedAt = e.ReceivedAt.UTC()
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// List clamps the limit to [1, MaxListLimit].
func (s *Service) List(ctx context.Context, f Filter) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("events: repository not configured")
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return s.repo.List(ctx, f)
}
