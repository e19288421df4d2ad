package id

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	AccountPrefix     = "ACC"
	CustomerPrefix    = "CUST"
	TransactionPrefix = "TXN"

	// DefaultWidth is the zero-padded digit count of sequential IDs.
	DefaultWidth = 6
	// DefaultStart is the last value handed out before the first ID, so the
	// first generated ID is ACC001001.
	DefaultStart = 1000
)

// Generator hands out unique identifiers.
type Generator interface {
	Next() string
}

// Observer is implemented by generators that must skip IDs already in use,
// e.g. after records are restored from disk.
type Observer interface {
	Observe(id string)
}

// Format returns an ID like "ACC001001".
func Format(prefix string, width, seq int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, seq)
}

// Parse extracts the numeric part of a sequential ID with the given prefix.
func Parse(prefix, id string) (int, error) {
	if !strings.HasPrefix(id, prefix) {
		return 0, fmt.Errorf("id %q does not start with %q", id, prefix)
	}
	digits := id[len(prefix):]
	if digits == "" {
		return 0, fmt.Errorf("id %q has no sequence", id)
	}
	seq, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence in id %q: %w", id, err)
	}
	return seq, nil
}

// Sequence is a monotonic counter generator. Safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	width  int
	last   int
}

// NewSequence returns a Sequence whose first ID is start+1.
func NewSequence(prefix string, width, start int) *Sequence {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Sequence{prefix: prefix, width: width, last: start}
}

// Next returns the next ID in the sequence.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return Format(s.prefix, s.width, s.last)
}

// Observe advances the counter past id if id belongs to this sequence.
// IDs with another prefix or a non-numeric tail are ignored.
func (s *Sequence) Observe(id string) {
	seq, err := Parse(s.prefix, id)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.last {
		s.last = seq
	}
}

// UUID generates prefixed random UUIDs.
type UUID struct {
	Prefix string
}

// Next returns Prefix followed by a new random UUID.
func (u UUID) Next() string {
	return u.Prefix + uuid.NewString()
}

// ULID generates prefixed, lexicographically sortable ULIDs.
type ULID struct {
	Prefix string
}

// Next returns Prefix followed by a new ULID.
func (u ULID) Next() string {
	return u.Prefix + ulid.Make().String()
}

// Transactions returns the default transaction ID generator.
func Transactions() Generator {
	return ULID{Prefix: TransactionPrefix}
}
