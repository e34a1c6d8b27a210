package app

import (
	"context"
	"fmt"

	"github.com/akitl/plankaHub/internal/store"
	"github.com/akitl/plankaHub/internal/util"
)

// ListDebateReplies returns a debate's replies oldest first, together with
// the users who wrote them.
func (s *Service) ListDebateReplies(ctx context.Context, session Session, debateID string) (map[string]any, error) {
	debate, err := s.store.GetDebate(ctx, debateID)
	if err != nil {
		if isNoRows(err) {
			return nil, errDebateNotFound()
		}
		return nil, fmt.Errorf("get debate: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, debate.ProjectID); err != nil {
		return nil, err
	}

	items, err := s.store.ListDebateReplies(ctx, debateID)
	if err != nil {
		return nil, fmt.Errorf("list debate replies: %w", err)
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
		"items": presentReplies(items),
		"included": map[string]any{
			"users": presentUsers(session, users),
		},
	}, nil
}

// CreateDebateReply appends a reply and bumps the debate's reply counter in
// the same transaction.
func (s *Service) CreateDebateReply(ctx context.Context, session Session, debateID, body string) (map[string]any, error) {
	debate, err := s.store.GetDebate(ctx, debateID)
	if err != nil {
		if isNoRows(err) {
			return nil, errDebateNotFound()
		}
		return nil, fmt.Errorf("get debate: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, debate.ProjectID); err != nil {
		return nil, err
	}

	item := store.DebateReply{
		ID:            util.NewID("rpl"),
		DebateID:      debateID,
		Body:          body,
		CreatorUserID: &session.UserID,
	}

	created, err := s.store.InsertDebateReply(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("insert debate reply: %w", err)
	}

	return presentReply(created), nil
}
