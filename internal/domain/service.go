// Package domain defines the activity directory and its signup rules.
package domain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"example.com/mergington/internal/events"
	"example.com/mergington/internal/observability"
)

// Repository captures the storage operations behind the directory. Roster
// changes must check and mutate atomically.
type Repository interface {
	List(ctx context.Context) (map[string]Activity, error)
	Get(ctx context.Context, name string) (*Activity, error)
	AddParticipant(ctx context.Context, name, email string, enforceCapacity bool) (*Activity, error)
	RemoveParticipant(ctx context.Context, name, email string) (*Activity, error)
}

// EventPublisher hands encoded events to a delivery mechanism.
type EventPublisher interface {
	Publish(ctx context.Context, msg events.Message) error
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher routes participation events to p.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCapacityEnforcement rejects signups once max_participants is reached.
func WithCapacityEnforcement(enabled bool) Option {
	return func(s *Service) { s.enforceCapacity = enabled }
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service orchestrates signup workflows.
type Service struct {
	repo            Repository
	publisher       EventPublisher
	logger          *zap.Logger
	enforceCapacity bool
	now             func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListActivities returns every activity keyed by name.
func (s *Service) ListActivities(ctx context.Context) (map[string]Activity, error) {
	return s.repo.List(ctx)
}

// GetActivity fetches a single activity by name.
func (s *Service) GetActivity(ctx context.Context, name string) (*Activity, error) {
	activity, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// Signup registers email for the named activity and returns a confirmation message.
func (s *Service) Signup(ctx context.Context, name, email string) (string, error) {
	activity, err := s.repo.AddParticipant(ctx, name, email, s.enforceCapacity)
	if err != nil {
		s.reject("signup", name, email, err)
		return "", err
	}
	observability.RecordSignup(activity.Name)
	s.logger.Info("participant signed up",
		zap.String("activity", activity.Name),
		zap.String("email", email),
		zap.Int("participants", len(activity.Participants)),
	)

	now := s.now().UTC()
	id := events.NewEventID()
	s.publish(ctx, id, events.TypeParticipantSignedUp, activity.Name, now, events.ParticipantSignedUp{
		EventID:          id,
		Activity:         activity.Name,
		Email:            email,
		ParticipantCount: len(activity.Participants),
		MaxParticipants:  activity.MaxParticipants,
		OccurredAt:       now,
	})

	return fmt.Sprintf("Signed up %s for %s", email, activity.Name), nil
}

// Unregister removes email from the named activity and returns a confirmation message.
func (s *Service) Unregister(ctx context.Context, name, email string) (string, error) {
	activity, err := s.repo.RemoveParticipant(ctx, name, email)
	if err != nil {
		s.reject("unregister", name, email, err)
		return "", err
	}
	observability.RecordUnregister(activity.Name)
	s.logger.Info("participant unregistered",
		zap.String("activity", activity.Name),
		zap.String("email", email),
		zap.Int("participants", len(activity.Participants)),
	)

	now := s.now().UTC()
	id := events.NewEventID()
	s.publish(ctx, id, events.TypeParticipantUnregistered, activity.Name, now, events.ParticipantUnregistered{
		EventID:          id,
		Activity:         activity.Name,
		Email:            email,
		ParticipantCount: len(activity.Participants),
		OccurredAt:       now,
	})

	return fmt.Sprintf("Unregistered %s from %s", email, activity.Name), nil
}

func (s *Service) reject(operation, name, email string, err error) {
	reason := RejectionReason(err)
	observability.RecordRejected(operation, reason)
	s.logger.Debug("roster change rejected",
		zap.String("operation", operation),
		zap.String("activity", name),
		zap.String("email", email),
		zap.String("reason", reason),
	)
}

// publish never fails the caller: the roster change has already been applied.
func (s *Service) publish(ctx context.Context, id, eventType, key string, at time.Time, payload any) {
	if s.publisher == nil {
		return
	}
	msg, err := events.Encode(id, eventType, key, at, payload)
	if err != nil {
		observability.RecordPublishFailure(eventType)
		s.logger.Error("encode event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		observability.RecordPublishFailure(eventType)
		s.logger.Warn("publish event",
			zap.String("event_type", eventType),
			zap.String("event_id", id),
			zap.Error(err),
		)
	}
}
