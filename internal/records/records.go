// Package records persists the top final scores as a single line of
// whitespace separated integers, highest first.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/adrg/xdg"
)

// DefaultLimit is how many scores are kept.
const DefaultLimit = 3

var relPath = "blockblast/records.txt"

// ErrMissingOrInvalidFile marks record data that is absent or unreadable.
// Store treats it as an empty list.
var ErrMissingOrInvalidFile = errors.New("missing or invalid record file")

// DefaultPath returns the record file under the XDG data directory,
// creating parent directories as needed.
func DefaultPath() (string, error) {
	return xdg.DataFile(relPath)
}

// Parse reads a record line. Any token that is not a non-negative integer
// invalidates the whole list.
func Parse(data []byte) ([]int, error) {
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return nil, ErrMissingOrInvalidFile
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("token %q: %w", f, ErrMissingOrInvalidFile)
		}
		out = append(out, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out, nil
}

// Format renders list as one line.
func Format(list []int) []byte {
	parts := make([]string, len(list))
	for i, n := range list {
		parts[i] = strconv.Itoa(n)
	}
	return []byte(strings.Join(parts, " ") + "\n")
}

// Merge adds score to list and keeps the best limit entries, highest first.
func Merge(list []int, score, limit int) []int {
	merged := append(append([]int(nil), list...), score)
	sort.Sort(sort.Reverse(sort.IntSlice(merged)))
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// Store reads and rewrites one record file.
type Store struct {
	mu     sync.Mutex
	path   string
	limit  int
	logger *slog.Logger
}

// NewStore returns a store for path keeping limit scores.
func NewStore(path string, limit int, logger *slog.Logger) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, limit: limit, logger: logger}
}

func (s *Store) Path() string { return s.path }
func (s *Store) Limit() int { return s.limit }

func (s *Store) read() ([]int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingOrInvalidFile, err)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if len(list) > s.limit {
		list = list[:s.limit]
	}
	return list, nil
}

// Load returns the stored records. A missing or corrupt file yields an
// empty list.
func (s *Store) Load(ctx context.Context) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) []int {
	list, err := s.read()
	if err != nil {
		s.logger.DebugContext(ctx, "records unavailable", "path", s.path, "err", err)
		return []int{}
	}
	return list
}

// Append merges score into the stored list and rewrites the file.
func (s *Store) Append(ctx context.Context, score int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := Merge(s.load(ctx), score, s.limit)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return list, err
	}
	if err := os.WriteFile(s.path, Format(list), 0o644); err != nil {
		return list, err
	}
	s.logger.InfoContext(ctx, "record saved", "score", score, "records", list)
	return list, nil
}
