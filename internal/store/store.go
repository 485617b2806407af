// Package store persists audio and transcript artifacts under a managed
// output directory and resolves them for playback and download.
//
// Every write is atomic (temp file + rename) and collision-safe: a
// suggested name that already exists is disambiguated with a numeric
// suffix rather than overwritten.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/util"
)

// Artifact describes a persisted file.
type Artifact struct {
	// Path is the artifact's path relative to the managed root.
	Path string `json:"path"`
	// Size is the artifact's size in bytes.
	Size int64 `json:"size"`
}

// Store is a flat-filesystem artifact store rooted at a single directory.
type Store struct {
	basePath string
	log      *logger.Logger
}

// New creates a Store rooted at basePath, creating the directory if needed.
func New(basePath string, log *logger.Logger) (*Store, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("store: resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("store: create base directory: %w", err)
	}
	return &Store{basePath: abs, log: log.WithComponent("store")}, nil
}

// BasePath returns the absolute managed root.
func (s *Store) BasePath() string {
	return s.basePath
}

// Persist writes data under a sanitized, collision-disambiguated version
// of suggestedName and returns the resulting artifact. The write goes
// through a temp file and rename so a crash never leaves a partial
// artifact under the final name.
func (s *Store) Persist(data []byte, suggestedName string) (Artifact, error) {
	name := util.SanitizeFilename(suggestedName)

	// Claiming the final name with O_EXCL makes the disambiguation safe
	// against concurrent writers suggesting the same name. The rename
	// below lands on a path we already own.
	final, err := s.claimPath(name)
	if err != nil {
		return Artifact{}, err
	}

	tmp, err := os.CreateTemp(s.basePath, ".scribe-*")
	if err != nil {
		os.Remove(final)
		return Artifact{}, fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		os.Remove(final)
		return Artifact{}, fmt.Errorf("store: write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		os.Remove(final)
		return Artifact{}, fmt.Errorf("store: close artifact: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		os.Remove(final)
		return Artifact{}, fmt.Errorf("store: finalize artifact: %w", err)
	}

	rel, err := filepath.Rel(s.basePath, final)
	if err != nil {
		rel = filepath.Base(final)
	}

	s.log.Debug("Artifact persisted", map[string]interface{}{
		"path": rel,
		"size": len(data),
	})

	return Artifact{Path: rel, Size: int64(len(data))}, nil
}

// Resolve opens the artifact at the given path relative to the managed
// root. Paths that escape the root are rejected the same way as missing
// files so the store is not an existence oracle for the host filesystem.
func (s *Store) Resolve(path string) (io.ReadCloser, error) {
	full, ok := s.confine(path)
	if !ok {
		return nil, apperr.NotFound(path)
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound(path)
		}
		return nil, fmt.Errorf("store: open artifact: %w", err)
	}
	return f, nil
}

// Stat returns size information for an artifact, with the same path
// confinement as Resolve.
func (s *Store) Stat(path string) (Artifact, error) {
	full, ok := s.confine(path)
	if !ok {
		return Artifact{}, apperr.NotFound(path)
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Artifact{}, apperr.NotFound(path)
		}
		return Artifact{}, fmt.Errorf("store: stat artifact: %w", err)
	}
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil {
		rel = path
	}
	return Artifact{Path: rel, Size: info.Size()}, nil
}

// AbsolutePath maps a store-relative path to an absolute one, with
// confinement. Used when an external tool (ffmpeg, the transcription
// sidecar) needs a real filesystem path.
func (s *Store) AbsolutePath(path string) (string, error) {
	full, ok := s.confine(path)
	if !ok {
		return "", apperr.NotFound(path)
	}
	return full, nil
}

// confine joins path to the managed root and reports whether the result
// is still inside it.
func (s *Store) confine(path string) (string, bool) {
	full := filepath.Join(s.basePath, filepath.Clean("/"+path))
	if full != s.basePath && !strings.HasPrefix(full, s.basePath+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// claimPath reserves an absolute path for name, appending _1, _2, ...
// before the extension until a name is free. The reservation is an
// empty file created with O_EXCL, so two writers racing on the same
// suggested name always claim different paths. The caller either
// renames its finished artifact over the reservation or removes it.
func (s *Store) claimPath(name string) (string, error) {
	if path, ok, err := s.claim(filepath.Join(s.basePath, name)); err != nil {
		return "", err
	} else if ok {
		return path, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= 10000; i++ {
		candidate := filepath.Join(s.basePath, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if path, ok, err := s.claim(candidate); err != nil {
			return "", err
		} else if ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("store: could not find a free name for %s", name)
}

// claim attempts to exclusively create candidate. ok is false when the
// name is already taken.
func (s *Store) claim(candidate string) (string, bool, error) {
	f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if os.IsExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: reserve artifact name: %w", err)
	}
	f.Close()
	return candidate, true, nil
}
