package calendar

import (
	"sync"
	"time"

	"github.com/username/prematch/pkg/dateutil"
)

// NumberCache remembers rotation numbers by date key.
type NumberCache interface {
	Get(key string) (int, bool)
	Put(key string, number int)
}

// MemoCache is the default NumberCache.
type MemoCache struct {
	mu      sync.RWMutex
	numbers map[string]int
}

func NewMemoCache() *MemoCache {
	return &MemoCache{numbers: make(map[string]int)}
}

func (m *MemoCache) Get(key string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.numbers[key]
	return n, ok
}

func (m *MemoCache) Put(key string, number int) {
	m.mu.Lock()
	m.numbers[key] = number
	m.mu.Unlock()
}

// Len returns the number of remembered dates.
func (m *MemoCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.numbers)
}

// NoCache recomputes every number from the start of the year.
type NoCache struct{}

func (NoCache) Get(string) (int, bool) { return 0, false }
func (NoCache) Put(string, int)        {}

func dateKey(date time.Time) string {
	return dateutil.FormatDate(date)
}

// cycleNumber returns the rotation number of date, which must be inside the
// interval. The first day of the interval is day 1. Walking forward from the
// nearest known date, weekdays without a base exclusion and base standard_day
// exclusions advance the count. The number a standard_day exclusion states is
// only displayed on its own dates. Overrides are ignored.
func (c *Calendar) cycleNumber(date time.Time) int {
	start := c.def.Interval.Start

	var path []time.Time
	number := 1
	for d := date; ; d = dateutil.PrevDay(d) {
		if n, ok := c.cache.Get(dateKey(d)); ok {
			number = n
			break
		}
		if !d.After(start) {
			number = 1
			break
		}
		path = append(path, d)
	}

	for i := len(path) - 1; i >= 0; i-- {
		number = c.advance(path[i], number)
		c.cache.Put(dateKey(path[i]), number)
	}
	return number
}

func (c *Calendar) advance(date time.Time, prev int) int {
	ex, covered := firstCovering(c.def.Exclusions, date)
	switch {
	case covered && ex.Type != DayTypeStandard:
		return prev
	case !covered && !dateutil.IsWeekday(date):
		return prev
	}
	return prev%c.def.CycleSize + 1
}
