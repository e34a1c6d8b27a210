package app

import (
	"context"
	"fmt"

	"github.com/akitl/plankaHub/internal/search"
	"github.com/akitl/plankaHub/internal/store"
	"github.com/akitl/plankaHub/internal/util"
)

const defaultImportance = 5

type CreateInfoCardInput struct {
	Title          string
	Content        *string
	Importance     *int
	AssignedUserID *string
	Position       *float64
}

// ListInfoCards returns a project's info cards in position order together
// with the users referenced by them.
func (s *Service) ListInfoCards(ctx context.Context, session Session, projectID string) (map[string]any, error) {
	if _, err := s.requireProjectAccess(ctx, session, projectID); err != nil {
		return nil, err
	}

	items, err := s.store.ListInfoCards(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list info cards: %w", err)
	}

	refs := make([]*string, 0, len(items)*2)
	for i := range items {
		refs = append(refs, items[i].CreatorUserID, items[i].AssignedUserID)
	}
	users, err := s.includedUsers(ctx, refs)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"items": presentInfoCards(items),
		"included": map[string]any{
			"users": presentUsers(session, users),
		},
	}, nil
}

// CreateInfoCard appends an info card to the project unless an explicit
// position was supplied, in which case that position is stored as given.
func (s *Service) CreateInfoCard(ctx context.Context, session Session, projectID string, input CreateInfoCardInput) (map[string]any, error) {
	if _, err := s.requireProjectAccess(ctx, session, projectID); err != nil {
		return nil, err
	}

	importance := defaultImportance
	if input.Importance != nil {
		importance = *input.Importance
	}

	item := store.InfoCard{
		ID:             util.NewID("inf"),
		ProjectID:      projectID,
		Title:          input.Title,
		Content:        input.Content,
		Importance:     importance,
		AssignedUserID: input.AssignedUserID,
		CreatorUserID:  &session.UserID,
	}

	created, err := s.store.InsertInfoCard(ctx, item, input.Position)
	if err != nil {
		return nil, fmt.Errorf("insert info card: %w", err)
	}

	s.indexInfoCard(created)

	return presentInfoCard(created), nil
}

// UpdateInfoCard applies a partial update. Absent fields are untouched; an
// explicit position overwrites without renumbering siblings.
func (s *Service) UpdateInfoCard(ctx context.Context, session Session, infoCardID string, patch store.InfoCardPatch) (map[string]any, error) {
	current, err := s.store.GetInfoCard(ctx, infoCardID)
	if err != nil {
		if isNoRows(err) {
			return nil, errInfoCardNotFound()
		}
		return nil, fmt.Errorf("get info card: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, current.ProjectID); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateInfoCard(ctx, infoCardID, patch)
	if err != nil {
		if isNoRows(err) {
			return nil, errInfoCardNotFound()
		}
		return nil, fmt.Errorf("update info card: %w", err)
	}

	s.indexInfoCard(updated)

	return presentInfoCard(updated), nil
}

// DeleteInfoCard removes an info card and its attachment rows in a single
// transaction and returns the deleted item. Blob cleanup is best effort.
func (s *Service) DeleteInfoCard(ctx context.Context, session Session, infoCardID string) (map[string]any, error) {
	current, err := s.store.GetInfoCard(ctx, infoCardID)
	if err != nil {
		if isNoRows(err) {
			return nil, errInfoCardNotFound()
		}
		return nil, fmt.Errorf("get info card: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, current.ProjectID); err != nil {
		return nil, err
	}

	attachments, err := s.store.ListAttachments(ctx, infoCardID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	if err := s.store.DeleteInfoCard(ctx, infoCardID); err != nil {
		return nil, fmt.Errorf("delete info card: %w", err)
	}

	if s.blobs != nil {
		for _, a := range attachments {
			// The row is already gone; a failed blob removal only leaks
			// storage, so it is not surfaced to the caller.
			_ = s.blobs.Remove(ctx, a.ObjectKey)
		}
	}
	if s.search != nil {
		s.search.RemoveInfoCard(infoCardID)
	}

	return map[string]any{"item": presentInfoCard(current)}, nil
}

func (s *Service) indexInfoCard(c store.InfoCard) {
	if s.search == nil {
		return
	}
	content := ""
	if c.Content != nil {
		content = *c.Content
	}
	s.search.IndexInfoCard(search.InfoCardRecord{
		ID:        c.ID,
		Title:     c.Title,
		Content:   content,
		ProjectID: c.ProjectID,
	})
}
