package fakesite

import (
	"context"
	"crypto/sha1" //#nosec G505 -- the hosting API identifies content by SHA-1
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UpdatedAtLayout is the timestamp format the hosting API uses in listings.
const UpdatedAtLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

const tmpPrefix = ".neo-tmp-"

// Entry is one file or directory of a site, as reported by /api/list.
type Entry struct {
	Path        string  `json:"path"`
	IsDirectory bool    `json:"is_directory"`
	Size        *int64  `json:"size,omitempty"`
	UpdatedAt   string  `json:"updated_at"`
	SHA1Hash    *string `json:"sha1_hash,omitempty"`
}

// WriteResult describes a stored file.
type WriteResult struct {
	BytesWritten int64
	SHA1Hash     string
}

// FileStore keeps a site's files under an *os.Root.
type FileStore struct {
	root *os.Root
}

// NewFileStore creates a FileStore. The root sandboxes every operation,
// so no request path can escape it.
func NewFileStore(root *os.Root) *FileStore {
	return &FileStore{root: root}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically replaces the file at p with content, creating
// intermediate directories as needed.
func (s *FileStore) Write(ctx context.Context, p string, content io.Reader) (WriteResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return WriteResult{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return WriteResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha1.New() //#nosec G401
	w := io.MultiWriter(h, t)

	n, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return WriteResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return WriteResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	if dir := path.Dir(p); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return WriteResult{}, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if err := s.root.Rename(tmpFile, p); err != nil {
		return WriteResult{}, fmt.Errorf("failed to rename file: %w", err)
	}

	success = true
	return WriteResult{BytesWritten: n, SHA1Hash: hex.EncodeToString(h.Sum(nil))}, nil
}

// Exists reports whether a file or directory is stored at p.
func (s *FileStore) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.root.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", p, err)
}

// Delete removes the file or directory at p, directories with their
// contents. Returns ErrNotFound if nothing is stored at p.
func (s *FileStore) Delete(ctx context.Context, p string) error {
	exists, err := s.Exists(ctx, p)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	if err := s.root.RemoveAll(p); err != nil {
		return fmt.Errorf("could not delete %s: %w", p, err)
	}
	return nil
}

// List walks the whole site and returns its entries sorted by path.
// Directories carry no size or hash.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []Entry{}
	if err := s.walkDir(ctx, ".", &entries); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

func (s *FileStore) walkDir(ctx context.Context, dir string, entries *[]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}

		entryPath := path.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}
		updatedAt := formatTime(info.ModTime())

		if entry.IsDir() {
			*entries = append(*entries, Entry{Path: entryPath, IsDirectory: true, UpdatedAt: updatedAt})
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}

		sum, err := s.hashFile(entryPath)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		size := info.Size()
		*entries = append(*entries, Entry{
			Path:      entryPath,
			Size:      &size,
			UpdatedAt: updatedAt,
			SHA1Hash:  &sum,
		})
	}

	return nil
}

func (s *FileStore) hashFile(p string) (string, error) {
	f, err := s.root.Open(p)
	if err != nil {
		return "", err
	}

	h := sha1.New() //#nosec G401
	_, copyErr := io.Copy(h, f)

	if closeErr := f.Close(); closeErr != nil {
		slog.Warn("failed to close file", "path", p, "err", closeErr)
	}
	if copyErr != nil {
		return "", copyErr
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(UpdatedAtLayout)
}

func tmpFileName() string {
	return tmpPrefix + uuid.New().String()
}
