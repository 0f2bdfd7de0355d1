package upload

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiskStore stages uploads on the local filesystem. Metadata is kept in
// memory and mirrored to a sidecar file so staged uploads survive a
// process restart.
type DiskStore struct {
	dir     string
	maxSize int64

	mu    sync.Mutex
	metas map[string]*diskMeta
}

type diskMeta struct {
	Meta
	CreatedAt time.Time `json:"created_at"`
}

// NewDiskStore creates a DiskStore rooted at dir. A maxSize of 0 means
// no limit.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{
		dir:     dir,
		maxSize: maxSize,
		metas:   make(map[string]*diskMeta),
	}, nil
}

// Stage implements Store.
func (s *DiskStore) Stage(ctx context.Context, meta Meta, r io.Reader) (string, error) {
	if s.maxSize > 0 && meta.Size > s.maxSize {
		return "", ErrTooLarge
	}

	id := newStagingID()
	path := filepath.Join(s.dir, id)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader := r
	if s.maxSize > 0 {
		// +1 so an at-limit copy is distinguishable from an overflow.
		reader = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(path)
		return "", ErrTooLarge
	}
	meta.Size = written

	dm := &diskMeta{Meta: meta, CreatedAt: time.Now()}
	s.mu.Lock()
	s.metas[id] = dm
	s.mu.Unlock()
	s.writeSidecar(id, dm)

	return id, nil
}

// Claim implements Store. The returned asset's reader deletes the staged
// file when closed.
func (s *DiskStore) Claim(ctx context.Context, id string) (*Asset, error) {
	s.mu.Lock()
	dm, ok := s.metas[id]
	delete(s.metas, id)
	s.mu.Unlock()

	if !ok {
		// Staged before a restart; recover from the sidecar.
		var err error
		dm, err = s.readSidecar(id)
		if err != nil {
			return nil, ErrNotFound
		}
	}

	path := filepath.Join(s.dir, id)
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrNotFound
	}

	return &Asset{
		ID:   id,
		Meta: dm.Meta,
		Path: path,
		Reader: &claimedFile{
			File:    f,
			path:    path,
			sidecar: s.sidecarPath(id),
		},
	}, nil
}

// Sweep implements Store.
func (s *DiskStore) Sweep(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	for id, dm := range s.metas {
		if dm.CreatedAt.Before(cutoff) {
			delete(s.metas, id)
			os.Remove(filepath.Join(s.dir, id))
			os.Remove(s.sidecarPath(id))
		}
	}
	s.mu.Unlock()

	// Files staged by a previous process have no in-memory entry.
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func (s *DiskStore) sidecarPath(id string) string {
	return filepath.Join(s.dir, id+".meta")
}

func (s *DiskStore) writeSidecar(id string, dm *diskMeta) error {
	data, err := json.Marshal(dm)
	if err != nil {
		return err
	}
	return os.WriteFile(s.sidecarPath(id), data, 0o644)
}

func (s *DiskStore) readSidecar(id string) (*diskMeta, error) {
	data, err := os.ReadFile(s.sidecarPath(id))
	if err != nil {
		return nil, err
	}
	var dm diskMeta
	if err := json.Unmarshal(data, &dm); err != nil {
		return nil, err
	}
	return &dm, nil
}

// claimedFile deletes the staged file and its sidecar on close.
type claimedFile struct {
	*os.File
	path    string
	sidecar string
}

func (c *claimedFile) Close() error {
	err := c.File.Close()
	os.Remove(c.path)
	os.Remove(c.sidecar)
	return err
}
