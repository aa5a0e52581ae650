package project

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/projecthub/internal/auth"
	"github.com/nerrad567/projecthub/internal/events"
)

// Service implements project management on top of a Repository.
type Service struct {
	repo   Repository
	events events.Publisher
	now    func() time.Time
}

// NewService creates a project service. A nil publisher discards events.
func NewService(repo Repository, publisher events.Publisher) *Service {
	return &Service{repo: repo, events: events.OrNoop(publisher), now: time.Now}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Initiate creates a project owned by the caller.
func (s *Service) Initiate(ctx context.Context, caller auth.Caller, in NewInput) (*Project, error) {
	if err := auth.Authorize(caller, auth.AnyAuthenticated); err != nil {
		return nil, err
	}
	d, err := in.validate()
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	p := &Project{
		ID:            uuid.NewString(),
		OwnerID:       caller.AccountID,
		InitiatedAt:   now,
		LastUpdatedAt: now,
	}
	d.apply(p)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ActionCreated, p)
	return p, nil
}

// List returns the caller's projects, or every project with owners for an
// elevated caller. Both are newest first.
func (s *Service) List(ctx context.Context, caller auth.Caller) ([]Project, error) {
	if err := auth.Authorize(caller, auth.AnyAuthenticated); err != nil {
		return nil, err
	}
	if caller.Elevated() {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByOwner(ctx, caller.AccountID)
}

// Get returns a project with its owner, if the caller may see it.
func (s *Service) Get(ctx context.Context, caller auth.Caller, id string) (*Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeRecord(caller, p.OwnerID); err != nil {
		return nil, err
	}
	return p, nil
}

// Edit merges the present fields of in into the project and returns the
// stored result. An empty edit returns the record untouched.
func (s *Service) Edit(ctx context.Context, caller auth.Caller, id string, in EditInput) (*Project, error) {
	d, err := in.validate()
	if err != nil {
		return nil, err
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeRecord(caller, p.OwnerID); err != nil {
		return nil, err
	}
	if in.Empty() {
		return p, nil
	}

	d.apply(p)
	p.LastUpdatedAt = s.timestamp()

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reloading project: %w", err)
	}

	s.publish(ctx, events.ActionUpdated, updated)
	return updated, nil
}

// Terminate deletes a project the caller may manage.
func (s *Service) Terminate(ctx context.Context, caller auth.Caller, id string) (*Termination, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeRecord(caller, p.OwnerID); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ActionDeleted, p)
	return &Termination{Confirmation: fmt.Sprintf("Project %s has been terminated", p.ID)}, nil
}

func (s *Service) publish(ctx context.Context, action events.Action, p *Project) {
	s.events.Publish(ctx, events.Event{
		Resource:   events.ResourceProject,
		Action:     action,
		ID:         p.ID,
		OwnerID:    p.OwnerID,
		OccurredAt: s.timestamp(),
		Data:       p,
	})
}
