package store_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), logger.NewDefault("test"))
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	return s
}

func TestPersistAndResolveRoundTrip(t *testing.T) {
	s := newStore(t)
	data := []byte("some audio bytes")

	artifact, err := s.Persist(data, "clip.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artifact.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), artifact.Size)
	}

	reader, err := s.Resolve(artifact.Path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reader.Close()

	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("resolved bytes differ from persisted bytes")
	}
}

func TestPersistCollisionSuffix(t *testing.T) {
	s := newStore(t)

	first, err := s.Persist([]byte("one"), "clip.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Persist([]byte("two"), "clip.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Path == second.Path {
		t.Fatalf("expected distinct paths, both got %q", first.Path)
	}
	if second.Path != "clip_1.wav" {
		t.Fatalf("expected clip_1.wav, got %q", second.Path)
	}

	third, err := s.Persist([]byte("three"), "clip.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.Path != "clip_2.wav" {
		t.Fatalf("expected clip_2.wav, got %q", third.Path)
	}
}

func TestPersistConcurrentSameName(t *testing.T) {
	s := newStore(t)

	const writers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = make(map[string]string, writers)
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := []byte(fmt.Sprintf("payload-%d", n))
			artifact, err := s.Persist(payload, "clip.wav")
			if err != nil {
				t.Errorf("writer %d: unexpected error: %v", n, err)
				return
			}
			mu.Lock()
			paths[artifact.Path] = string(payload)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(paths) != writers {
		t.Fatalf("expected %d distinct paths, got %d", writers, len(paths))
	}
	for path, want := range paths {
		reader, err := s.Resolve(path)
		if err != nil {
			t.Fatalf("resolve %q: %v", path, err)
		}
		got, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			t.Fatalf("read %q: %v", path, err)
		}
		if string(got) != want {
			t.Fatalf("path %q: expected %q, got %q", path, want, got)
		}
	}
}

func TestPersistSanitizesName(t *testing.T) {
	s := newStore(t)

	artifact, err := s.Persist([]byte("x"), "../../../etc/passwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artifact.Path == "../../../etc/passwd" {
		t.Fatalf("expected sanitized path, got %q", artifact.Path)
	}
	if _, err := s.Stat(artifact.Path); err != nil {
		t.Fatalf("persisted file not found at %q: %v", artifact.Path, err)
	}
}

func TestResolveMissingFile(t *testing.T) {
	s := newStore(t)

	_, err := s.Resolve("nope.wav")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperr.ErrCodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	s := newStore(t)

	for _, path := range []string{"../secret", "../../etc/passwd", "a/../../b"} {
		_, err := s.Resolve(path)
		if err == nil {
			t.Fatalf("expected error for path %q", path)
		}
		var appErr *apperr.AppError
		if !errors.As(err, &appErr) || appErr.Code != apperr.ErrCodeNotFound {
			t.Fatalf("expected NOT_FOUND for %q, got %v", path, err)
		}
	}
}

func TestStatReportsSize(t *testing.T) {
	s := newStore(t)

	artifact, err := s.Persist(make([]byte, 1024), "block.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stat, err := s.Stat(artifact.Path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stat.Size != 1024 {
		t.Fatalf("expected size 1024, got %d", stat.Size)
	}
}
