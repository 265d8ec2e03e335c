package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "http://localhost:8080/files/")
	ctx := context.Background()

	url, err := store.Put(ctx, "resume_photos/u1/p.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:8080/files/resume_photos/u1/p.png" {
		t.Fatalf("unexpected url %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "resume_photos", "u1", "p.png"))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("unexpected file contents %q err=%v", data, err)
	}

	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "resume_photos", "u1", "p.png")); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	store := New(t.TempDir(), "http://localhost/files")
	if _, err := store.Put(context.Background(), "../escape.png", "image/png", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for traversal key")
	}
}
