// Package snapshot persists the orders reported by the previous run so the
// next run can tell what is new.
package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	entity "github.com/rotenaple/ns-fischer/internal/domain"
)

// DefaultPath where the snapshot lives when a config does not name one.
const DefaultPath = "./snapshot/auction_snapshot.json"

// Entry persisted identity of one order.
type Entry struct {
	CardID flexInt `json:"cardId"`
	Season flexInt `json:"season"`
}

// Ref returns the card of the entry.
func (e Entry) Ref() entity.CardRef {
	return entity.CardRef{CardID: int64(e.CardID), Season: int(e.Season)}
}

// File content of a snapshot file.
type File struct {
	Bids []Entry `json:"bids"`
	Asks []Entry `json:"asks"`
}

// Diff result of comparing current orders with the persisted snapshot.
type Diff struct {
	// Missing reports that no snapshot existed yet.
	Missing bool
	NewBids []entity.CardRef
	NewAsks []entity.CardRef
}

// HasNew reports whether any order was not in the snapshot.
func (d Diff) HasNew() bool {
	return d.Missing || len(d.NewBids) > 0 || len(d.NewAsks) > 0
}

// Store reads and writes one snapshot file.
type Store struct {
	path string
}

// NewStore returns a store for path, falling back to DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path location of the snapshot file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot. A missing or empty file yields nil without error.
func (s *Store) Load() (*File, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "read snapshot %s", s.path)
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}

	var f File
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", s.path)
	}

	return &f, nil
}

// Check compares bids and asks against the persisted snapshot.
func (s *Store) Check(bids, asks []entity.EnrichedOrder) (Diff, error) {
	prev, err := s.Load()
	if err != nil {
		return Diff{}, err
	}

	if prev == nil {
		return Diff{Missing: true}, nil
	}

	return Diff{
		NewBids: unseen(bids, prev.Bids),
		NewAsks: unseen(asks, prev.Asks),
	}, nil
}

// Write replaces the snapshot with exactly bids and asks.
func (s *Store) Write(bids, asks []entity.EnrichedOrder) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create snapshot dir")
	}

	payload, err := json.MarshalIndent(FromOrders(bids, asks), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "write snapshot temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "persist snapshot")
	}

	return nil
}

// FromOrders builds the snapshot content for bids and asks.
func FromOrders(bids, asks []entity.EnrichedOrder) File {
	return File{Bids: entries(bids), Asks: entries(asks)}
}

func entries(orders []entity.EnrichedOrder) []Entry {
	out := make([]Entry, 0, len(orders))
	for _, o := range orders {
		out = append(out, Entry{CardID: flexInt(o.CardID), Season: flexInt(o.Season)})
	}
	return out
}

func unseen(orders []entity.EnrichedOrder, persisted []Entry) []entity.CardRef {
	known := make(map[entity.CardRef]struct{}, len(persisted))
	for _, e := range persisted {
		known[e.Ref()] = struct{}{}
	}

	var out []entity.CardRef
	for _, o := range orders {
		if _, ok := known[o.Ref()]; !ok {
			out = append(out, o.Ref())
		}
	}
	return out
}

// flexInt decodes from a JSON number or a string holding one. Older snapshots
// stored ids as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid integer %s", data)
	}
	*f = flexInt(n)

	return nil
}
