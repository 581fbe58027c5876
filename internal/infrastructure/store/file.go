package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/prism/internal/infrastructure/fsutil"
	"github.com/alexisbeaulieu97/prism/internal/ports"
)

const envelopeExt = ".json"

// envelope is the on-disk form of a value. Origin lets readers skip their own writes.
type envelope struct {
	Origin    string          `json:"origin"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Deleted   bool            `json:"deleted,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// FileStore keeps one JSON envelope per key in a directory. Writes go through
// a temporary file and a rename, and other processes learn about them by
// watching the directory. Values must be JSON documents.
type FileStore struct {
	dir    string
	origin string
	onErr  func(error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	seen    map[string]time.Time
	subs    watchers
}

// FileOption customises a FileStore.
type FileOption func(*FileStore)

// WithOrigin fixes the origin instead of generating one.
func WithOrigin(origin string) FileOption {
	return func(s *FileStore) { s.origin = origin }
}

// WithErrorHandler receives watcher errors that cannot be returned to a caller.
func WithErrorHandler(fn func(error)) FileOption {
	return func(s *FileStore) { s.onErr = fn }
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	s := &FileStore{dir: dir, seen: make(map[string]time.Time)}
	for _, opt := range opts {
		opt(s)
	}
	if s.origin == "" {
		s.origin = uuid.NewString()
	}
	return s, nil
}

// Origin implements ports.KeyValueStore.
func (s *FileStore) Origin() string { return s.origin }

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+envelopeExt)
}

// Get implements ports.KeyValueStore.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	env, err := s.read(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if env.Deleted {
		return nil, false, nil
	}
	return []byte(env.Value), true, nil
}

// Set implements ports.KeyValueStore.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}
	return s.write(ctx, key, envelope{Value: json.RawMessage(value)})
}

// Delete implements ports.KeyValueStore. A tombstone is written so other
// processes can tell who removed the key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.write(ctx, key, envelope{Deleted: true})
}

func (s *FileStore) write(ctx context.Context, key string, env envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env.Origin = s.origin
	env.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	return fsutil.WriteAtomic(s.path(key), data, 0o644)
}

func (s *FileStore) read(key string) (envelope, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("parse %s: %w", s.path(key), err)
	}
	return env, nil
}

// Watch implements ports.KeyValueStore. The directory watcher starts with the
// first subscription.
func (s *FileStore) Watch(fn func(ports.StorageChange)) ports.Subscription {
	sub := s.subs.add(fn)
	if err := s.startWatcher(); err != nil {
		s.reportErr(err)
	}
	return sub
}

func (s *FileStore) startWatcher() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	s.watcher = w
	s.done = make(chan struct{})
	go s.loop(w, s.done)
	return nil
}

func (s *FileStore) loop(w *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			s.handle(event.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.reportErr(err)
		}
	}
}

func (s *FileStore) handle(name string) {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, envelopeExt) {
		return
	}
	key := strings.TrimSuffix(base, envelopeExt)
	env, err := s.read(key)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.reportErr(err)
		}
		return
	}
	if env.Origin == s.origin {
		return
	}

	s.mu.Lock()
	if last, ok := s.seen[key]; ok && !env.UpdatedAt.After(last) {
		s.mu.Unlock()
		return
	}
	s.seen[key] = env.UpdatedAt
	s.mu.Unlock()

	change := ports.StorageChange{Key: key, Origin: env.Origin}
	if !env.Deleted {
		change.Value = []byte(env.Value)
	}
	s.subs.notify(change)
}

func (s *FileStore) reportErr(err error) {
	if s.onErr != nil && err != nil {
		s.onErr(err)
	}
}

// Close stops the directory watcher.
func (s *FileStore) Close() error {
	s.mu.Lock()
	w, done := s.watcher, s.done
	s.watcher = nil
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	err := w.Close()
	<-done
	return err
}

var _ ports.KeyValueStore = (*FileStore)(nil)
