// SPDX-License-Identifier: MIT

package scene

import (
	"sort"
	"strings"
	"sync"
)

// MemoryStore is the default in-process backend.
type MemoryStore struct {
	mu       sync.RWMutex
	elements map[string]Element
	byPath   map[string]string
	batches  map[string]Batch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		elements: make(map[string]Element),
		byPath:   make(map[string]string),
		batches:  make(map[string]Batch),
	}
}

func (s *MemoryStore) AddElement(el Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[el.ID] = el
	if el.Path != "" {
		s.byPath[el.Path] = el.ID
	}
	return nil
}

func (s *MemoryStore) GetElement(id string) (Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.elements[id]
	if !ok {
		return Element{}, ErrElementNotFound
	}
	return el, nil
}

func (s *MemoryStore) GetElementByPath(path string) (Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPath[path]
	if !ok {
		return Element{}, ErrElementNotFound
	}
	return s.elements[id], nil
}

func (s *MemoryStore) UpdateElement(el Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.elements[el.ID]
	if !ok {
		return ErrElementNotFound
	}
	if old.Path != el.Path {
		delete(s.byPath, old.Path)
		if el.Path != "" {
			s.byPath[el.Path] = el.ID
		}
	}
	s.elements[el.ID] = el
	return nil
}

func (s *MemoryStore) RemoveElement(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.elements[id]
	if !ok {
		return ErrElementNotFound
	}
	delete(s.elements, id)
	delete(s.byPath, el.Path)
	return nil
}

func (s *MemoryStore) ListElements() ([]Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Element, 0, len(s.elements))
	for _, el := range s.elements {
		out = append(out, el)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) RemoveByPathPrefix(prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, el := range s.elements {
		if strings.HasPrefix(el.Path, prefix) {
			delete(s.elements, id)
			delete(s.byPath, el.Path)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) AddBatch(b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = b
	return nil
}

func (s *MemoryStore) GetBatch(id string) (Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	return b, nil
}

// RemoveBatch deletes the batch and its elements, returning how many
// elements went with it.
func (s *MemoryStore) RemoveBatch(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return 0, ErrBatchNotFound
	}
	removed := 0
	for _, elID := range b.Elements {
		if el, ok := s.elements[elID]; ok {
			delete(s.elements, elID)
			delete(s.byPath, el.Path)
			removed++
		}
	}
	delete(s.batches, id)
	return removed, nil
}

func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements), nil
}

func (s *MemoryStore) Close() error { return nil }
