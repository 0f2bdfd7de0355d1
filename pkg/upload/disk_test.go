package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newDiskStore(t *testing.T, maxSize int64) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(t.TempDir(), maxSize)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return s
}

func TestDiskStageAndClaim(t *testing.T) {
	s := newDiskStore(t, 0)
	ctx := context.Background()

	id, err := s.Stage(ctx, Meta{Filename: "photo.png", ContentType: "image/png"}, strings.NewReader("pngdata"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	asset, err := s.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	data, err := io.ReadAll(asset.Reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "pngdata" {
		t.Errorf("data = %q", data)
	}
	if asset.Meta.Filename != "photo.png" || asset.Meta.ContentType != "image/png" {
		t.Errorf("meta = %+v", asset.Meta)
	}
	if asset.Meta.Size != int64(len("pngdata")) {
		t.Errorf("size = %d", asset.Meta.Size)
	}
	if err := asset.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Close deletes the staged file.
	if _, err := os.Stat(asset.Path); !os.IsNotExist(err) {
		t.Error("staged file survived close")
	}
}

func TestDiskClaimConsumes(t *testing.T) {
	s := newDiskStore(t, 0)
	ctx := context.Background()

	id, err := s.Stage(ctx, Meta{Filename: "f"}, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	a, err := s.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	a.Close()

	if _, err := s.Claim(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second claim err = %v, want ErrNotFound", err)
	}
}

func TestDiskClaimUnknownID(t *testing.T) {
	s := newDiskStore(t, 0)
	if _, err := s.Claim(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDiskStageTooLarge(t *testing.T) {
	s := newDiskStore(t, 4)
	ctx := context.Background()

	// Announced size over the limit.
	if _, err := s.Stage(ctx, Meta{Size: 100}, strings.NewReader("x")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("announced err = %v, want ErrTooLarge", err)
	}

	// Announced size fine, actual content over the limit.
	if _, err := s.Stage(ctx, Meta{Size: 2}, strings.NewReader("way too long")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("actual err = %v, want ErrTooLarge", err)
	}

	// No partial files left behind.
	entries, _ := os.ReadDir(s.dir)
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".meta") {
			t.Errorf("leftover file %s", e.Name())
		}
	}
}

func TestDiskClaimSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := NewDiskStore(dir, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	id, err := s1.Stage(ctx, Meta{Filename: "kept.bin", ContentType: "application/octet-stream"}, bytes.NewReader([]byte{1, 2, 3}))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	// New store over the same directory: the sidecar carries the metadata.
	s2, err := NewDiskStore(dir, 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	asset, err := s2.Claim(ctx, id)
	if err != nil {
		t.Fatalf("Claim after restart: %v", err)
	}
	defer asset.Close()
	if asset.Meta.Filename != "kept.bin" {
		t.Errorf("meta lost across restart: %+v", asset.Meta)
	}
}

func TestDiskSweep(t *testing.T) {
	s := newDiskStore(t, 0)
	ctx := context.Background()

	id, err := s.Stage(ctx, Meta{Filename: "old"}, strings.NewReader("old"))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	// Age the entry and its file.
	s.mu.Lock()
	s.metas[id].CreatedAt = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()
	old := time.Now().Add(-2 * time.Hour)
	os.Chtimes(filepath.Join(s.dir, id), old, old)
	os.Chtimes(s.sidecarPath(id), old, old)

	if err := s.Sweep(ctx, time.Hour); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if _, err := s.Claim(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("swept entry still claimable: %v", err)
	}
}
