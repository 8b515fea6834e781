package notify

import (
	"iter"
	"slices"
	"sort"
	"time"
)

// DefaultLimit is how many notifications may be pending at once.
const DefaultLimit = 64

// Candidate is an identifier with the date it fires on.
type Candidate struct {
	ID   string
	Date time.Time
}

// Scheduler picks the earliest identifiers across several date-ordered sources.
type Scheduler struct {
	sources []iter.Seq2[string, time.Time]
	limit   int
}

func NewScheduler(sources []iter.Seq2[string, time.Time], limit int) *Scheduler {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Scheduler{sources: sources, limit: limit}
}

// Candidates returns at most limit candidates in date order. Equal dates keep
// the order they were drawn in. Sources are drawn round-robin, and a source is
// dropped once the list is full and its last draw did not make the cut.
func (s *Scheduler) Candidates() []Candidate {
	type source struct {
		next func() (string, time.Time, bool)
		stop func()
	}

	all := make([]source, 0, len(s.sources))
	for _, seq := range s.sources {
		next, stop := iter.Pull2(seq)
		all = append(all, source{next: next, stop: stop})
	}
	defer func() {
		for _, src := range all {
			src.stop()
		}
	}()

	out := make([]Candidate, 0, s.limit)
	active := slices.Clone(all)
	for len(active) > 0 {
		kept := active[:0]
		for _, src := range active {
			id, date, ok := src.next()
			if !ok {
				continue
			}
			full := len(out) >= s.limit
			before := len(out) == 0 || date.Before(out[len(out)-1].Date)
			if full && !before {
				continue
			}
			out = insertSorted(out, Candidate{ID: id, Date: date})
			if len(out) > s.limit {
				out = out[:s.limit]
			}
			kept = append(kept, src)
		}
		active = kept
	}
	return out
}

// Pending returns the identifiers of Candidates.
func (s *Scheduler) Pending() []string {
	candidates := s.Candidates()
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}

func insertSorted(list []Candidate, c Candidate) []Candidate {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Date.After(c.Date)
	})
	return slices.Insert(list, i, c)
}
