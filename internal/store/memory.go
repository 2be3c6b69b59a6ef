package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no state has been recorded for an entity.
	ErrNotFound = errors.New("no state for entity")
)

// StateRecord is one observed state/attribute pair for an entity.
type StateRecord struct {
	State      string            `json:"state"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  time.Time         `json:"timestamp"` // always UTC
}

// entityHistory holds a time-ordered list of state records for one entity.
type entityHistory struct {
	Records []StateRecord
}

// MemoryStore is a concurrency-safe in-memory entity state store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: entity id, value: history
	data map[string]*entityHistory

	// retention configuration
	maxHistory int           // max number of records per entity
	maxAge     time.Duration // optional max age for records
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*entityHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SetState appends a new record for an entity and enforces retention.
func (s *MemoryStore) SetState(entityID, state string, attributes map[string]string) {
	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[entityID]
	if !ok {
		history = &entityHistory{}
		s.data[entityID] = history
	}

	history.Records = append(history.Records, StateRecord{
		State:      state,
		Attributes: attrs,
		Timestamp:  time.Now().UTC(),
	})

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Records) > s.maxHistory {
		over := len(history.Records) - s.maxHistory
		history.Records = history.Records[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().UTC().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Records); i++ {
			if !history.Records[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.Records) {
			history.Records = history.Records[i:]
		}
	}
}

// GetState returns the most recent state and attributes for an entity.
func (s *MemoryStore) GetState(entityID string) (string, map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[entityID]
	if !ok || len(history.Records) == 0 {
		return "", nil, ErrNotFound
	}

	latest := history.Records[len(history.Records)-1]
	attrs := make(map[string]string, len(latest.Attributes))
	for k, v := range latest.Attributes {
		attrs[k] = v
	}
	return latest.State, attrs, nil
}

// GetRange returns all records for an entity between from and to (inclusive).
func (s *MemoryStore) GetRange(entityID string, from, to time.Time) ([]StateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[entityID]
	if !ok || len(history.Records) == 0 {
		return nil, ErrNotFound
	}

	var result []StateRecord
	for _, rec := range history.Records {
		if !rec.Timestamp.Before(from) && !rec.Timestamp.After(to) {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
