package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/akitl/plankaHub/internal/store"
)

type fakeBlobStore struct {
	objects map[string][]byte
	removed []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Remove(_ context.Context, key string) error {
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func TestCreateInfoCardDefaults(t *testing.T) {
	var inserted store.InfoCard
	fake := &fakeStore{
		insertInfoCardFn: func(_ context.Context, item store.InfoCard, explicitPosition *float64) (store.InfoCard, error) {
			if explicitPosition != nil {
				t.Fatalf("expected no explicit position, got %v", *explicitPosition)
			}
			inserted = item
			item.Position = 65536
			return item, nil
		},
	}
	service := newTestService(fake)

	payload, err := service.CreateInfoCard(context.Background(), adminSession(), "prj_1", CreateInfoCardInput{Title: "Release notes"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inserted.Importance != 5 {
		t.Fatalf("expected default importance 5, got %d", inserted.Importance)
	}
	if inserted.CreatorUserID == nil || *inserted.CreatorUserID != "usr_admin" {
		t.Fatalf("expected creator recorded, got %+v", inserted)
	}
	if payload["importance"] != 5 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestCreateInfoCardExplicitPositionPassedThrough(t *testing.T) {
	fake := &fakeStore{
		insertInfoCardFn: func(_ context.Context, item store.InfoCard, explicitPosition *float64) (store.InfoCard, error) {
			if explicitPosition == nil || *explicitPosition != 42 {
				t.Fatalf("expected explicit position 42, got %v", explicitPosition)
			}
			item.Position = *explicitPosition
			return item, nil
		},
	}
	service := newTestService(fake)

	explicit := 42.0
	payload, err := service.CreateInfoCard(context.Background(), adminSession(), "prj_1", CreateInfoCardInput{Title: "Pinned", Position: &explicit})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if payload["position"] != 42.0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestUpdateInfoCardNotFound(t *testing.T) {
	service := newTestService(&fakeStore{})

	importance := 7
	_, err := service.UpdateInfoCard(context.Background(), adminSession(), "inf_missing", store.InfoCardPatch{Importance: &importance})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "INFO_CARD_NOT_FOUND" {
		t.Fatalf("expected INFO_CARD_NOT_FOUND, got %v", err)
	}
}

func TestDeleteInfoCardRemovesBlobs(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.objects["inf_1/att_1"] = []byte("bytes")

	fake := &fakeStore{
		getInfoCardFn: func(context.Context, string) (store.InfoCard, error) {
			return store.InfoCard{ID: "inf_1", ProjectID: "prj_1", Title: "Card", Importance: 5}, nil
		},
		listAttachmentsFn: func(context.Context, string) ([]store.Attachment, error) {
			return []store.Attachment{{ID: "att_1", InfoCardID: "inf_1", ObjectKey: "inf_1/att_1"}}, nil
		},
	}
	service := newTestService(fake)
	service.blobs = blobs

	if _, err := service.DeleteInfoCard(context.Background(), adminSession(), "inf_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(blobs.removed) != 1 || blobs.removed[0] != "inf_1/att_1" {
		t.Fatalf("expected blob removed, got %+v", blobs.removed)
	}
}

func TestUploadAttachmentUnavailableWithoutBlobStore(t *testing.T) {
	service := newTestService(&fakeStore{})

	_, err := service.UploadAttachment(context.Background(), adminSession(), "inf_1", "a.txt", "text/plain", 1, strings.NewReader("x"))
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "ATTACHMENTS_UNAVAILABLE" {
		t.Fatalf("expected ATTACHMENTS_UNAVAILABLE, got %v", err)
	}
}

func TestAttachmentUploadDownloadRoundTrip(t *testing.T) {
	blobs := newFakeBlobStore()
	var inserted store.Attachment
	fake := &fakeStore{
		getInfoCardFn: func(context.Context, string) (store.InfoCard, error) {
			return store.InfoCard{ID: "inf_1", ProjectID: "prj_1"}, nil
		},
		insertAttachmentFn: func(_ context.Context, item store.Attachment) (store.Attachment, error) {
			inserted = item
			return item, nil
		},
		getAttachmentFn: func(context.Context, string) (store.Attachment, error) {
			return inserted, nil
		},
	}
	service := newTestService(fake)
	service.blobs = blobs

	payload, err := service.UploadAttachment(context.Background(), adminSession(), "inf_1", "notes.txt", "text/plain", 5, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if payload["name"] != "notes.txt" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	attachment, reader, err := service.OpenAttachment(context.Background(), adminSession(), inserted.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" || attachment.ContentType != "text/plain" {
		t.Fatalf("unexpected download: %q %+v", data, attachment)
	}
}
