package app

import (
	"context"
	"fmt"
	"io"

	"github.com/akitl/plankaHub/internal/store"
	"github.com/akitl/plankaHub/internal/util"
)

// ListAttachments returns an info card's attachment metadata.
func (s *Service) ListAttachments(ctx context.Context, session Session, infoCardID string) (map[string]any, error) {
	card, err := s.store.GetInfoCard(ctx, infoCardID)
	if err != nil {
		if isNoRows(err) {
			return nil, errInfoCardNotFound()
		}
		return nil, fmt.Errorf("get info card: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, card.ProjectID); err != nil {
		return nil, err
	}

	items, err := s.store.ListAttachments(ctx, infoCardID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	return map[string]any{"items": presentAttachments(items)}, nil
}

// UploadAttachment stores the file bytes and records the attachment.
func (s *Service) UploadAttachment(ctx context.Context, session Session, infoCardID, name, contentType string, size int64, reader io.Reader) (map[string]any, error) {
	if s.blobs == nil {
		return nil, errAttachmentsUnavailable()
	}

	card, err := s.store.GetInfoCard(ctx, infoCardID)
	if err != nil {
		if isNoRows(err) {
			return nil, errInfoCardNotFound()
		}
		return nil, fmt.Errorf("get info card: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, card.ProjectID); err != nil {
		return nil, err
	}

	id := util.NewID("att")
	objectKey := infoCardID + "/" + id

	if err := s.blobs.Put(ctx, objectKey, reader, size, contentType); err != nil {
		return nil, fmt.Errorf("store attachment blob: %w", err)
	}

	created, err := s.store.InsertAttachment(ctx, store.Attachment{
		ID:            id,
		InfoCardID:    infoCardID,
		Name:          name,
		ContentType:   contentType,
		Size:          size,
		ObjectKey:     objectKey,
		CreatorUserID: &session.UserID,
	})
	if err != nil {
		_ = s.blobs.Remove(ctx, objectKey)
		return nil, fmt.Errorf("insert attachment: %w", err)
	}

	return presentAttachment(created), nil
}

// OpenAttachment returns the attachment metadata and a reader over its
// bytes. The caller closes the reader.
func (s *Service) OpenAttachment(ctx context.Context, session Session, attachmentID string) (store.Attachment, io.ReadCloser, error) {
	if s.blobs == nil {
		return store.Attachment{}, nil, errAttachmentsUnavailable()
	}

	attachment, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		if isNoRows(err) {
			return store.Attachment{}, nil, errAttachmentNotFound()
		}
		return store.Attachment{}, nil, fmt.Errorf("get attachment: %w", err)
	}

	card, err := s.store.GetInfoCard(ctx, attachment.InfoCardID)
	if err != nil {
		if isNoRows(err) {
			return store.Attachment{}, nil, errInfoCardNotFound()
		}
		return store.Attachment{}, nil, fmt.Errorf("get info card: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, card.ProjectID); err != nil {
		return store.Attachment{}, nil, err
	}

	reader, err := s.blobs.Get(ctx, attachment.ObjectKey)
	if err != nil {
		return store.Attachment{}, nil, fmt.Errorf("open attachment blob: %w", err)
	}
	return attachment, reader, nil
}

// DeleteAttachment removes the attachment record and its blob.
func (s *Service) DeleteAttachment(ctx context.Context, session Session, attachmentID string) (map[string]any, error) {
	attachment, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		if isNoRows(err) {
			return nil, errAttachmentNotFound()
		}
		return nil, fmt.Errorf("get attachment: %w", err)
	}

	card, err := s.store.GetInfoCard(ctx, attachment.InfoCardID)
	if err != nil {
		if isNoRows(err) {
			return nil, errInfoCardNotFound()
		}
		return nil, fmt.Errorf("get info card: %w", err)
	}
	if _, err := s.requireProjectAccess(ctx, session, card.ProjectID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteAttachment(ctx, attachmentID); err != nil {
		return nil, fmt.Errorf("delete attachment: %w", err)
	}
	if s.blobs != nil {
		_ = s.blobs.Remove(ctx, attachment.ObjectKey)
	}

	return map[string]any{"item": presentAttachment(attachment)}, nil
}
