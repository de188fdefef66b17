package containers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Reader gives read access to the containers stored by other modules
type Reader interface {
	GetContainers(typeName string) []Container
}

// Writer stores a container for consumption by other modules
type Writer interface {
	StoreContainer(c Container) error
}

// Cache is a key/value scratch area shared between modules
type Cache interface {
	GetFromCache(key string) (any, bool)
	AddToCache(key string, value any)
}

// LabelledPath is one entry of a module output: a local file and the timeline label it belongs to
type LabelledPath struct {
	Label string
	Path  string
}

// ErrorEntry is an error recorded against the state by a module
type ErrorEntry struct {
	Err      error
	Critical bool
}

// State is an in-memory container store, passed explicitly to the modules of a pipeline run
type State struct {
	mu         sync.RWMutex
	containers map[string][]Container
	cache      map[string]any
	output     []LabelledPath
	errors     []ErrorEntry
}

func NewState() *State {
	return &State{
		containers: make(map[string][]Container),
		cache:      make(map[string]any),
	}
}

// GetContainers returns the containers of the given type, in the order they were stored
func (s *State) GetContainers(typeName string) []Container {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.containers[typeName]
	res := make([]Container, len(stored))
	copy(res, stored)
	return res
}

func (s *State) StoreContainer(c Container) error {
	if c == nil {
		return fmt.Errorf("cannot store nil container")
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid %s container: %w", TypeName(c), err)
	}

	typeName := TypeName(c)
	s.mu.Lock()
	s.containers[typeName] = append(s.containers[typeName], c)
	s.mu.Unlock()

	slog.Debug("StoreContainer", "type", typeName)
	return nil
}

func (s *State) GetFromCache(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

func (s *State) AddToCache(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = value
}

// SetOutput replaces the output handed to the next module
func (s *State) SetOutput(output []LabelledPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = append([]LabelledPath(nil), output...)
}

func (s *State) Output() []LabelledPath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LabelledPath(nil), s.output...)
}

func (s *State) AddError(err error, critical bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, ErrorEntry{Err: err, Critical: critical})
	if critical {
		slog.Error("critical error", "error", err)
	} else {
		slog.Warn("error", "error", err)
	}
}

func (s *State) Errors() []ErrorEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ErrorEntry(nil), s.errors...)
}

func (s *State) HasCriticalError() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.errors {
		if e.Critical {
			return true
		}
	}
	return false
}

// GetContainers returns the containers of type T held by r
func GetContainers[T Container](r Reader) []T {
	var res []T
	for _, c := range r.GetContainers(TypeNameOf[T]()) {
		if typed, ok := c.(T); ok {
			res = append(res, typed)
		}
	}
	return res
}
