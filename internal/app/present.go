package app

import (
	"time"

	"github.com/akitl/plankaHub/internal/rbac"
	"github.com/akitl/plankaHub/internal/store"
)

// presentUser shapes a user for API output. Email addresses are only shown
// to admins and to the user themselves.
func presentUser(viewer Session, u store.User) map[string]any {
	out := map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"role":      u.Role,
		"createdAt": u.CreatedAt.Format(time.RFC3339),
	}
	if rbac.Normalize(viewer.Role) == rbac.RoleAdmin || viewer.UserID == u.ID {
		out["email"] = u.Email
	}
	return out
}

func presentUsers(viewer Session, users []store.User) []map[string]any {
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, presentUser(viewer, u))
	}
	return out
}

func presentDebate(d store.Debate) map[string]any {
	return map[string]any{
		"id":            d.ID,
		"projectId":     d.ProjectID,
		"title":         d.Title,
		"description":   strOrNil(d.Description),
		"status":        d.Status,
		"position":      d.Position,
		"repliesTotal":  d.RepliesTotal,
		"creatorUserId": strOrNil(d.CreatorUserID),
		"createdAt":     d.CreatedAt.Format(time.RFC3339),
		"updatedAt":     d.UpdatedAt.Format(time.RFC3339),
	}
}

func presentDebates(items []store.Debate) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, d := range items {
		out = append(out, presentDebate(d))
	}
	return out
}

func presentReply(r store.DebateReply) map[string]any {
	return map[string]any{
		"id":            r.ID,
		"debateId":      r.DebateID,
		"body":          r.Body,
		"creatorUserId": strOrNil(r.CreatorUserID),
		"createdAt":     r.CreatedAt.Format(time.RFC3339),
	}
}

func presentReplies(items []store.DebateReply) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, r := range items {
		out = append(out, presentReply(r))
	}
	return out
}

func presentInfoCard(c store.InfoCard) map[string]any {
	return map[string]any{
		"id":             c.ID,
		"projectId":      c.ProjectID,
		"title":          c.Title,
		"content":        strOrNil(c.Content),
		"importance":     c.Importance,
		"position":       c.Position,
		"assignedUserId": strOrNil(c.AssignedUserID),
		"creatorUserId":  strOrNil(c.CreatorUserID),
		"createdAt":      c.CreatedAt.Format(time.RFC3339),
		"updatedAt":      c.UpdatedAt.Format(time.RFC3339),
	}
}

func presentInfoCards(items []store.InfoCard) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, c := range items {
		out = append(out, presentInfoCard(c))
	}
	return out
}

func presentAttachment(a store.Attachment) map[string]any {
	return map[string]any{
		"id":            a.ID,
		"infoCardId":    a.InfoCardID,
		"name":          a.Name,
		"contentType":   a.ContentType,
		"size":          a.Size,
		"creatorUserId": strOrNil(a.CreatorUserID),
		"createdAt":     a.CreatedAt.Format(time.RFC3339),
	}
}

func presentAttachments(items []store.Attachment) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, a := range items {
		out = append(out, presentAttachment(a))
	}
	return out
}

func strOrNil(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// collectUserIDs gathers unique, non-nil user references from a set of
// pointer fields, preserving first-seen order.
func collectUserIDs(refs ...*string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		if _, ok := seen[*ref]; ok {
			continue
		}
		seen[*ref] = struct{}{}
		out = append(out, *ref)
	}
	return out
}
