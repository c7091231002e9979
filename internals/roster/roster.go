package roster

import (
	"errors"
	"time"

	"github.com/portfoligo/api-server/internals/stocks"
)

var (
	ErrRosterFull        = errors.New("roster is full")
	ErrStockAlreadyOwned = errors.New("stock is already on this roster")
	ErrStockNotFound     = errors.New("stock not found on roster")
)

// Entry is one held stock and the slot it was added into.
type Entry struct {
	Stock         stocks.Stock `json:"stock"`
	DraftPosition int          `json:"draft_position"`
	AddedAt       time.Time    `json:"added_at"`
}

// Roster is a capacity-bounded, ordered set of stocks held by one team.
type Roster struct {
	limit   int
	entries []Entry
	now     func() time.Time
}

func New(limit int) *Roster {
	return &Roster{limit: limit, now: time.Now}
}

func (r *Roster) Limit() int { return r.limit }
func (r *Roster) Len() int   { return len(r.entries) }
func (r *Roster) Full() bool { return len(r.entries) >= r.limit }

func (r *Roster) Has(stockID string) bool {
	return r.indexOf(stockID) >= 0
}

func (r *Roster) indexOf(stockID string) int {
	for i, e := range r.entries {
		if e.Stock.ID == stockID {
			return i
		}
	}
	return -1
}

// Add appends s in slot len+1.
func (r *Roster) Add(s stocks.Stock) (Entry, error) {
	if r.Full() {
		return Entry{}, ErrRosterFull
	}
	if r.Has(s.ID) {
		return Entry{}, ErrStockAlreadyOwned
	}
	e := Entry{Stock: s, DraftPosition: len(r.entries) + 1, AddedAt: r.now()}
	r.entries = append(r.entries, e)
	return e, nil
}

// Remove drops the stock and renumbers the remaining slots.
func (r *Roster) Remove(stockID string) (stocks.Stock, error) {
	i := r.indexOf(stockID)
	if i < 0 {
		return stocks.Stock{}, ErrStockNotFound
	}
	s := r.entries[i].Stock
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	for j := range r.entries {
		r.entries[j].DraftPosition = j + 1
	}
	return s, nil
}

// Clear empties the roster and returns what it held.
func (r *Roster) Clear() []stocks.Stock {
	out := r.List()
	r.entries = nil
	return out
}

func (r *Roster) List() []stocks.Stock {
	out := make([]stocks.Stock, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Stock
	}
	return out
}

func (r *Roster) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
