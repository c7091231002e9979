package stocks

import "strings"

// Pool is the ordered set of stocks not held by any team. Order is the order
// stocks were first added and survives Take/Restore round trips.
type Pool struct {
	order     []string
	available map[string]Stock
}

func NewPool(list []Stock) *Pool {
	p := &Pool{
		order:     make([]string, 0, len(list)),
		available: make(map[string]Stock, len(list)),
	}
	for _, s := range list {
		if _, dup := p.available[s.ID]; dup {
			continue
		}
		p.order = append(p.order, s.ID)
		p.available[s.ID] = s
	}
	return p
}

func (p *Pool) Len() int {
	return len(p.available)
}

func (p *Pool) Contains(id string) bool {
	_, ok := p.available[id]
	return ok
}

func (p *Pool) Get(id string) (Stock, bool) {
	s, ok := p.available[id]
	return s, ok
}

// Take removes the stock from the pool.
func (p *Pool) Take(id string) (Stock, bool) {
	s, ok := p.available[id]
	if ok {
		delete(p.available, id)
	}
	return s, ok
}

// Restore puts a stock back at its original position. Stocks the pool has
// never seen are appended.
func (p *Pool) Restore(s Stock) {
	if _, ok := p.available[s.ID]; ok {
		return
	}
	known := false
	for _, id := range p.order {
		if id == s.ID {
			known = true
			break
		}
	}
	if !known {
		p.order = append(p.order, s.ID)
	}
	p.available[s.ID] = s
}

func (p *Pool) Available() []Stock {
	out := make([]Stock, 0, len(p.available))
	for _, id := range p.order {
		if s, ok := p.available[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Best returns the available stock with the highest total score. Ties go to
// the stock that entered the pool first.
func (p *Pool) Best() (Stock, bool) {
	var (
		best  Stock
		found bool
	)
	for _, id := range p.order {
		s, ok := p.available[id]
		if !ok {
			continue
		}
		if !found || s.TotalScore > best.TotalScore {
			best, found = s, true
		}
	}
	return best, found
}

// Search applies f to the available stocks, keeping pool order.
func (p *Pool) Search(f Filter) []Stock {
	out := make([]Stock, 0)
	for _, s := range p.Available() {
		if f.matches(s) {
			out = append(out, s)
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
	}
	return out
}

func (f Filter) matches(s Stock) bool {
	if f.Sector != "" && !strings.EqualFold(f.Sector, "all") && !strings.EqualFold(s.Sector, f.Sector) {
		return false
	}
	if s.TotalScore < f.MinScore {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(s.Symbol), q) && !strings.Contains(strings.ToLower(s.Company), q) {
			return false
		}
	}
	return true
}
