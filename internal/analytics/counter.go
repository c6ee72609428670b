package analytics

import "sort"

// Entry is one key of a frequency table.
type Entry struct {
	Key   string
	Count int
}

// counter is a frequency table. When maxKeys is positive and a new key would
// exceed it, the least frequent key (oldest first on ties) is evicted.
type counter struct {
	counts  map[string]int
	order   map[string]uint64
	seq     uint64
	maxKeys int
}

func newCounter(maxKeys int) *counter {
	return &counter{
		counts:  make(map[string]int),
		order:   make(map[string]uint64),
		maxKeys: maxKeys,
	}
}

func (c *counter) inc(key string) {
	if _, ok := c.counts[key]; !ok {
		if c.maxKeys > 0 && len(c.counts) >= c.maxKeys {
			c.evict()
		}
		c.seq++
		c.order[key] = c.seq
	}
	c.counts[key]++
}

func (c *counter) evict() {
	var victim string
	found := false
	for k, n := range c.counts {
		if !found || n < c.counts[victim] || (n == c.counts[victim] && c.order[k] < c.order[victim]) {
			victim = k
			found = true
		}
	}
	if found {
		delete(c.counts, victim)
		delete(c.order, victim)
	}
}

func (c *counter) len() int {
	return len(c.counts)
}

// top returns up to n entries by descending count; ties keep first-seen order.
func (c *counter) top(n int) []Entry {
	out := make([]Entry, 0, len(c.counts))
	for k, v := range c.counts {
		out = append(out, Entry{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return c.order[out[i].Key] < c.order[out[j].Key]
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
