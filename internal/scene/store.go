// SPDX-License-Identifier: MIT

package scene

import (
	"errors"
	"fmt"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrBatchNotFound   = errors.New("batch not found")
)

// Store persists scene elements and batches. Implementations must be safe for
// concurrent use.
type Store interface {
	AddElement(el Element) error
	GetElement(id string) (Element, error)
	GetElementByPath(path string) (Element, error)
	UpdateElement(el Element) error
	RemoveElement(id string) error
	ListElements() ([]Element, error)
	RemoveByPathPrefix(prefix string) (int, error)

	AddBatch(b Batch) error
	GetBatch(id string) (Batch, error)
	RemoveBatch(id string) (int, error)

	Count() (int, error)
	Close() error
}

// Open creates a Store for the configured backend. An empty backend selects
// memory.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown scene store backend: %s", backend)
	}
}
