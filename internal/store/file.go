package store

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/username/prematch/internal/notify"
)

// State is the JSON document kept by FileStore.
type State struct {
	Definition string            `json:"definition,omitempty"`
	Mapping    map[string]string `json:"mapping,omitempty"`
	Pending    []notify.Request  `json:"pending,omitempty"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
}

// FileStore keeps all artifacts in one JSON file.
type FileStore struct {
	stateFile string
	mu        sync.Mutex
	logger    *zap.Logger
}

// NewFileStore creates a new FileStore
func NewFileStore(stateFile string, logger *zap.Logger) *FileStore {
	return &FileStore{
		stateFile: stateFile,
		logger:    logger,
	}
}

// load reads the state file. A missing file is an empty state.
func (fs *FileStore) load() (*State, error) {
	data, err := os.ReadFile(fs.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &state, nil
}

func (fs *FileStore) save(state *State) error {
	state.UpdatedAt = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(fs.stateFile); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	if err := os.WriteFile(fs.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// update loads, applies fn and saves under the lock.
func (fs *FileStore) update(fn func(*State)) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	state, err := fs.load()
	if err != nil {
		return err
	}
	fn(state)
	return fs.save(state)
}

func (fs *FileStore) read() (*State, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.load()
}

func (fs *FileStore) LoadDefinition(ctx context.Context) ([]byte, error) {
	state, err := fs.read()
	if err != nil {
		return nil, err
	}
	if state.Definition == "" {
		return nil, ErrNotFound
	}
	return []byte(state.Definition), nil
}

func (fs *FileStore) SaveDefinition(ctx context.Context, data []byte) error {
	if err := fs.update(func(s *State) { s.Definition = string(data) }); err != nil {
		return err
	}
	fs.logger.Info("Definition saved",
		zap.String("file", fs.stateFile),
		zap.Int("bytes", len(data)))
	return nil
}

func (fs *FileStore) LoadMapping(ctx context.Context) (map[string]string, error) {
	state, err := fs.read()
	if err != nil {
		return nil, err
	}
	if state.Mapping == nil {
		return nil, ErrNotFound
	}
	return state.Mapping, nil
}

func (fs *FileStore) SaveMapping(ctx context.Context, mapping map[string]string) error {
	return fs.update(func(s *State) { s.Mapping = maps.Clone(mapping) })
}

func (fs *FileStore) ClearMapping(ctx context.Context) error {
	return fs.update(func(s *State) { s.Mapping = nil })
}

func (fs *FileStore) PendingRequests(ctx context.Context) ([]notify.Request, error) {
	state, err := fs.read()
	if err != nil {
		return nil, err
	}
	return state.Pending, nil
}

func (fs *FileStore) PendingIdentifiers(ctx context.Context) ([]string, error) {
	reqs, err := fs.PendingRequests(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.Identifier
	}
	return ids, nil
}

// Add stores req, replacing a pending request with the same identifier.
func (fs *FileStore) Add(ctx context.Context, req notify.Request) error {
	return fs.update(func(s *State) {
		s.Pending = slices.DeleteFunc(s.Pending, func(r notify.Request) bool {
			return r.Identifier == req.Identifier
		})
		s.Pending = append(s.Pending, req)
		slices.SortStableFunc(s.Pending, func(a, b notify.Request) int {
			return a.Trigger.Compare(b.Trigger)
		})
	})
}

func (fs *FileStore) Remove(ctx context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return fs.update(func(s *State) {
		s.Pending = slices.DeleteFunc(s.Pending, func(r notify.Request) bool {
			return drop[r.Identifier]
		})
	})
}

func (fs *FileStore) Close() error { return nil }
