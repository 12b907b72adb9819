package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/auth"
	"github.com/halverson/notevault/internal/domain"
)

const testMaxAttachmentSize = 1024

type attachmentFixture struct {
	svc   *AttachmentService
	atts  *mockAttachmentRepo
	notes *mockNoteRepo
	blobs *mockBlobStorage
	note  *domain.Note
}

func newAttachmentFixture(t *testing.T) *attachmentFixture {
	t.Helper()

	atts := newMockAttachmentRepo()
	notes := newMockNoteRepo()
	blobs := newMockBlobStorage()

	svc := NewAttachmentService(atts, notes, blobs, testMaxAttachmentSize, zerolog.Nop())
	note := seedNote(t, notes, "alice", "groceries")

	return &attachmentFixture{svc: svc, atts: atts, notes: notes, blobs: blobs, note: note}
}

func TestAttachmentService_Upload(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()

	out, err := f.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Identity: auth.AuthenticatedAs("alice"),
		NoteID:   f.note.ID,
		Filename: "list.txt",
		Content:  strings.NewReader("milk, eggs"),
	})
	if err != nil {
		t.Fatalf("UploadAttachment() error = %v", err)
	}

	att := out.Attachment
	if att.ID == 0 {
		t.Error("Attachment.ID not assigned")
	}
	if att.Size != int64(len("milk, eggs")) {
		t.Errorf("Size = %d, want %d", att.Size, len("milk, eggs"))
	}
	if len(att.ContentHash) != 64 {
		t.Errorf("ContentHash length = %d, want 64", len(att.ContentHash))
	}

	exists, err := f.blobs.Exists(ctx, att.ContentHash)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("blob not stored")
	}
}

func TestAttachmentService_UploadDenied(t *testing.T) {
	tests := []struct {
		name     string
		identity auth.Identity
	}{
		{name: "anonymous", identity: auth.Anonymous()},
		{name: "non-owner", identity: auth.AuthenticatedAs("bob")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAttachmentFixture(t)

			_, err := f.svc.UploadAttachment(context.Background(), UploadAttachmentInput{
				Identity: tt.identity,
				NoteID:   f.note.ID,
				Filename: "list.txt",
				Content:  strings.NewReader("milk"),
			})
			if !errors.Is(err, domain.ErrAccessDenied) {
				t.Errorf("UploadAttachment() error = %v, want ErrAccessDenied", err)
			}
		})
	}
}

func TestAttachmentService_UploadTooLarge(t *testing.T) {
	f := newAttachmentFixture(t)

	_, err := f.svc.UploadAttachment(context.Background(), UploadAttachmentInput{
		Identity: auth.AuthenticatedAs("alice"),
		NoteID:   f.note.ID,
		Filename: "big.bin",
		Content:  bytes.NewReader(make([]byte, testMaxAttachmentSize+1)),
	})
	if !errors.Is(err, domain.ErrAttachmentTooLarge) {
		t.Errorf("UploadAttachment() error = %v, want ErrAttachmentTooLarge", err)
	}
}

func TestAttachmentService_UploadDeduplicates(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()
	identity := auth.AuthenticatedAs("alice")

	first, err := f.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Identity: identity,
		NoteID:   f.note.ID,
		Filename: "a.txt",
		Content:  strings.NewReader("same content"),
	})
	if err != nil {
		t.Fatalf("first upload error = %v", err)
	}

	second, err := f.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Identity: identity,
		NoteID:   f.note.ID,
		Filename: "b.txt",
		Content:  strings.NewReader("same content"),
	})
	if err != nil {
		t.Fatalf("second upload error = %v", err)
	}

	if first.Attachment.ContentHash != second.Attachment.ContentHash {
		t.Error("identical content produced different hashes")
	}
	if first.Attachment.ID == second.Attachment.ID {
		t.Error("two uploads share one attachment record")
	}
}

func TestAttachmentService_Download(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()
	identity := auth.AuthenticatedAs("alice")

	up, err := f.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Identity: identity,
		NoteID:   f.note.ID,
		Filename: "list.txt",
		Content:  strings.NewReader("milk, eggs"),
	})
	if err != nil {
		t.Fatalf("UploadAttachment() error = %v", err)
	}

	out, err := f.svc.DownloadAttachment(ctx, DownloadAttachmentInput{
		Identity:     identity,
		AttachmentID: up.Attachment.ID,
	})
	if err != nil {
		t.Fatalf("DownloadAttachment() error = %v", err)
	}
	defer out.Content.Close()

	data, err := io.ReadAll(out.Content)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "milk, eggs" {
		t.Errorf("content = %q, want %q", data, "milk, eggs")
	}

	// Non-owner must not be able to download.
	_, err = f.svc.DownloadAttachment(ctx, DownloadAttachmentInput{
		Identity:     auth.AuthenticatedAs("bob"),
		AttachmentID: up.Attachment.ID,
	})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("DownloadAttachment() by non-owner error = %v, want ErrAccessDenied", err)
	}
}

func TestAttachmentService_Delete(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()
	identity := auth.AuthenticatedAs("alice")

	up, err := f.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Identity: identity,
		NoteID:   f.note.ID,
		Filename: "list.txt",
		Content:  strings.NewReader("milk, eggs"),
	})
	if err != nil {
		t.Fatalf("UploadAttachment() error = %v", err)
	}

	if err := f.svc.DeleteAttachment(ctx, DeleteAttachmentInput{
		Identity:     identity,
		AttachmentID: up.Attachment.ID,
	}); err != nil {
		t.Fatalf("DeleteAttachment() error = %v", err)
	}

	// Last reference gone: the blob goes with it.
	exists, err := f.blobs.Exists(ctx, up.Attachment.ContentHash)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("blob survived deletion of its last reference")
	}
}

func TestAttachmentService_DeleteKeepsSharedBlob(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()
	identity := auth.AuthenticatedAs("alice")

	first, err := f.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Identity: identity,
		NoteID:   f.note.ID,
		Filename: "a.txt",
		Content:  strings.NewReader("shared"),
	})
	if err != nil {
		t.Fatalf("first upload error = %v", err)
	}
	if _, err := f.svc.UploadAttachment(ctx, UploadAttachmentInput{
		Identity: identity,
		NoteID:   f.note.ID,
		Filename: "b.txt",
		Content:  strings.NewReader("shared"),
	}); err != nil {
		t.Fatalf("second upload error = %v", err)
	}

	if err := f.svc.DeleteAttachment(ctx, DeleteAttachmentInput{
		Identity:     identity,
		AttachmentID: first.Attachment.ID,
	}); err != nil {
		t.Fatalf("DeleteAttachment() error = %v", err)
	}

	exists, err := f.blobs.Exists(ctx, first.Attachment.ContentHash)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("shared blob deleted while still referenced")
	}
}

func TestAttachmentService_ListAttachments(t *testing.T) {
	f := newAttachmentFixture(t)
	ctx := context.Background()
	identity := auth.AuthenticatedAs("alice")

	for _, name := range []string{"a.txt", "b.txt"} {
		if _, err := f.svc.UploadAttachment(ctx, UploadAttachmentInput{
			Identity: identity,
			NoteID:   f.note.ID,
			Filename: name,
			Content:  strings.NewReader("content " + name),
		}); err != nil {
			t.Fatalf("upload %s error = %v", name, err)
		}
	}

	out, err := f.svc.ListAttachments(ctx, ListAttachmentsInput{
		Identity: identity,
		NoteID:   f.note.ID,
	})
	if err != nil {
		t.Fatalf("ListAttachments() error = %v", err)
	}
	if len(out.Attachments) != 2 {
		t.Errorf("len(Attachments) = %d, want 2", len(out.Attachments))
	}

	_, err = f.svc.ListAttachments(ctx, ListAttachmentsInput{
		Identity: auth.AuthenticatedAs("bob"),
		NoteID:   f.note.ID,
	})
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("ListAttachments() by non-owner error = %v, want ErrAccessDenied", err)
	}
}
