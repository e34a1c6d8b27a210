package app

import (
	"context"
	"fmt"

	"github.com/akitl/plankaHub/internal/search"
	"github.com/akitl/plankaHub/internal/store"
	"github.com/akitl/plankaHub/internal/util"
)

type CreateDebateInput struct {
	Title       string
	Description *string
	Status      *string
	Position    *float64
}

// ListDebates returns a project's debates in position order together with
// the users referenced by them.
func (s *Service) ListDebates(ctx context.Context, session Session, projectID, status string) (map[string]any, error) {
	if _, err := s.requireProjectAccess(ctx, session, projectID); err != nil {
		return nil, err
	}

	items, err := s.store.ListDebates(ctx, projectID, status)
	if err != nil {
		return nil, fmt.Errorf("list debates: %w", err)
	}

	refs := make([]*string, 0, len(items))
	for i := range items {
		refs = append(refs, items[i].CreatorUserID)
	}
	users, err := s.includedUsers(ctx, refs)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"items": presentDebates(items),
		"included": map[string]any{
			"users": presentUsers(session, users),
		},
	}, nil
}

// CreateDebate appends a debate to the project unless an explicit position
// was supplied, in which case that position is stored as given.
func (s *Service) CreateDebate(ctx context.Context, session Session, projectID string, input CreateDebateInput) (map[string]any, error) {
	if _, err := s.requireProjectAccess(ctx, session, projectID); err != nil {
		return nil, err
	}

	status := store.DebateStatusActive
	if input.Status != nil {
		status = *input.Status
	}

	item := store.Debate{
		ID:            util.NewID("dbt"),
		ProjectID:     projectID,
		Title:         input.Title,
		Description:   input.Description,
		Status:        status,
		CreatorUserID: &session.UserID,
	}

	created, err := s.store.InsertDebate(ctx, item, input.Position)
	if err != nil {
		return nil, fmt.Errorf("insert debate: %w", err)
	}

	s.indexDebate(created)

	return presentDebate(created), nil
}

// UpdateDebate applies a partial update. Absent fields are untouched; an
// explicit position overwrites without renumbering siblings.
func (s *Service) UpdateDebate(ctx context.Context, session Session, debateID string, patch store.DebatePatch) (map[string]any, error) {
	current, err := s.store.GetDebate(ctx, debateID)
	if err != nil {
		if isNoRows(err) {
			return nil, errDebateNotFound()
		}
		return nil, fmt.Errorf("get debate: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, current.ProjectID); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateDebate(ctx, debateID, patch)
	if err != nil {
		if isNoRows(err) {
			return nil, errDebateNotFound()
		}
		return nil, fmt.Errorf("update debate: %w", err)
	}

	s.indexDebate(updated)

	return presentDebate(updated), nil
}

// DeleteDebate removes a debate and its replies in a single transaction and
// returns the deleted item. Sibling positions are left as they were.
func (s *Service) DeleteDebate(ctx context.Context, session Session, debateID string) (map[string]any, error) {
	current, err := s.store.GetDebate(ctx, debateID)
	if err != nil {
		if isNoRows(err) {
			return nil, errDebateNotFound()
		}
		return nil, fmt.Errorf("get debate: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, current.ProjectID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteDebate(ctx, debateID); err != nil {
		return nil, fmt.Errorf("delete debate: %w", err)
	}

	if s.search != nil {
		s.search.RemoveDebate(debateID)
	}

	return map[string]any{"item": presentDebate(current)}, nil
}

func (s *Service) indexDebate(d store.Debate) {
	if s.search == nil {
		return
	}
	desc := ""
	if d.Description != nil {
		desc = *d.Description
	}
	s.search.IndexDebate(search.DebateRecord{
		ID:          d.ID,
		Title:       d.Title,
		Description: desc,
		ProjectID:   d.ProjectID,
		Status:      d.Status,
	})
}

func (s *Service) includedUsers(ctx context.Context, refs []*string) ([]store.User, error) {
	ids := collectUserIDs(refs...)
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := s.store.ListUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
