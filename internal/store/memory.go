package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryKV is an in-process KV used by tests and as a standalone fallback.
// It keeps the same JSON round-trip and malformed-value semantics as the
// Redis adapter and fans change signals out to in-process subscribers.
type MemoryKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	subs   map[int]chan string
	nextID int
}

// NewMemoryKV constructs an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data: make(map[string][]byte),
		subs: make(map[int]chan string),
	}
}

func (s *MemoryKV) Read(ctx context.Context, key string, dest interface{}) (bool, error) {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *MemoryKV) Write(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = payload
	s.mu.Unlock()
	s.broadcast(key)
	return nil
}

func (s *MemoryKV) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	s.broadcast(key)
	return nil
}

// Changes registers an in-process subscriber.
func (s *MemoryKV) Changes(ctx context.Context) (<-chan string, func(), error) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan string, 16)
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// SetRaw stores bytes verbatim, bypassing marshalling. Tests use it to plant
// malformed JSON.
func (s *MemoryKV) SetRaw(key string, raw []byte) {
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	s.broadcast(key)
}

func (s *MemoryKV) broadcast(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- key:
		default:
		}
	}
}
