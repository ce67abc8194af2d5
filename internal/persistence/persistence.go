// Package persistence defines the optional sink for finished subagent
// conversations and an in-memory reference implementation.
package persistence

import (
	"crypto/rand"
	"sort"
	"sync"
	"time"

	"github.com/corerun/agentcore/pkg/models"
	"github.com/oklog/ulid"
)

// CompletionStatus classifies how a conversation record finished.
type CompletionStatus string

const (
	StatusComplete   CompletionStatus = "complete"
	StatusIncomplete CompletionStatus = "incomplete"
	StatusError      CompletionStatus = "error"
)

// RecordMetadata carries the subagent bookkeeping fields attached to a
// finished conversation.
type RecordMetadata struct {
	TurnsUsed        int
	TokensConsumed   int64
	CompletionStatus CompletionStatus
	MaxTurnsReached  bool
	TaskPrompt       string
	SummaryPrompt    string
	AllowedTools     []string
}

// ConversationRecord is the persistence DTO for one finished subagent
// conversation. ParentID is set if and only if Depth > 0. CompletedAt is
// set exactly once, when the record is finalized.
type ConversationRecord struct {
	ID          string
	ParentID    string
	Label       string
	Depth       int
	Messages    []models.Message
	StartedAt   time.Time
	CompletedAt *time.Time
	Metadata    RecordMetadata
}

// Store is the sink every completed subagent writes one record to. Get
// returns ok=false for a missing id rather than an error: a missing record
// is not itself a storage failure.
type Store interface {
	Save(record ConversationRecord) error
	Get(id string) (ConversationRecord, bool, error)
	List(limit, offset int) ([]ConversationRecord, error)
	FindByParent(parentID string) ([]ConversationRecord, error)
}

// NewID returns a fresh time-sortable ULID string, suitable for
// ConversationRecord.ID.
func NewID() string {
	ms := uint64(time.Now().UnixMilli())
	entropy := ulid.Monotonic(cryptoRandReader{}, 0)
	id, err := ulid.New(ms, entropy)
	if err != nil {
		return ulid.MustNew(ms, entropy).String()
	}
	return id.String()
}

// cryptoRandReader adapts crypto/rand to the io.Reader ulid.Monotonic wants,
// without pulling in math/rand's non-cryptographic source.
type cryptoRandReader struct{}

func (cryptoRandReader) Read(p []byte) (int, error) {
	return rand.Read(p)
}

// MemoryStore is an in-memory Store, safe for concurrent use. It is the
// reference implementation used by tests and by callers who do not need
// durability across process restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]ConversationRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]ConversationRecord)}
}

func (s *MemoryStore) Save(record ConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *MemoryStore) Get(id string) (ConversationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	return r, ok, nil
}

func (s *MemoryStore) List(limit, offset int) ([]ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]ConversationRecord, 0, len(s.records))
	for _, r := range s.records {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return []ConversationRecord{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (s *MemoryStore) FindByParent(parentID string) ([]ConversationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ConversationRecord
	for _, r := range s.records {
		if r.ParentID == parentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
