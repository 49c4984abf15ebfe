// Package stats keeps per-binding selection counts and answers "most used"
// queries without scanning every known binding.
//
// A Tracker stores each name once, in the bucket for its current count.
// Buckets form a linked list ordered by ascending count and each bucket keeps
// its names in the order they entered it. Recording a selection moves a name
// from bucket c to bucket c+1, which is always the next bucket in the list or
// a new one inserted right after it, so the ordering never needs sorting.
package stats

import (
	"container/list"
	"fmt"
	"sort"
	"strings"
	"sync"

	"lyxs/internal/errors"
)

// Entry is one row of a Top result.
type Entry struct {
	Name     string
	Shortcut string
	Count    int
}

type bucket struct {
	count int
	names *list.List // of string, in insertion order
}

type record struct {
	shortcut string
	count    int
	bucket   *list.Element // element of Tracker.buckets
	elem     *list.Element // element of bucket.names
}

// Tracker records binding selections. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	records map[string]*record
	buckets *list.List // of *bucket, ascending by count
	byCount map[int]*list.Element
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		records: make(map[string]*record),
		buckets: list.New(),
		byCount: make(map[int]*list.Element),
	}
}

// Record counts one selection of name and remembers shortcut as its latest
// key chord. It fails only when name is empty.
func (t *Tracker) Record(name, shortcut string) error {
	if name == "" {
		return errors.NewInvalidInputError("binding name cannot be empty", nil).
			WithContext("shortcut", shortcut)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(name, shortcut)
	return nil
}

func (t *Tracker) record(name, shortcut string) {
	r, ok := t.records[name]
	if !ok {
		r = &record{}
		t.records[name] = r
	}

	prevBucket, prevElem := r.bucket, r.elem
	r.count++
	r.shortcut = shortcut
	r.bucket = t.bucketFor(r.count, prevBucket)
	r.elem = r.bucket.Value.(*bucket).names.PushBack(name)

	if prevBucket != nil {
		b := prevBucket.Value.(*bucket)
		b.names.Remove(prevElem)
		if b.names.Len() == 0 {
			t.buckets.Remove(prevBucket)
			delete(t.byCount, b.count)
		}
	}
}

// bucketFor returns the bucket for count, creating it right after prev (the
// bucket for count-1) or at the front when prev is nil.
func (t *Tracker) bucketFor(count int, prev *list.Element) *list.Element {
	if e, ok := t.byCount[count]; ok {
		return e
	}
	b := &bucket{count: count, names: list.New()}
	var e *list.Element
	if prev != nil {
		e = t.buckets.InsertAfter(b, prev)
	} else {
		e = t.buckets.PushFront(b)
	}
	t.byCount[count] = e
	return e
}

// Top returns up to k entries by descending count. Names sharing a count are
// listed in the order they reached that count.
func (t *Tracker) Top(k int) []Entry {
	if k <= 0 {
		return []Entry{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, min(k, len(t.records)))
	for be := t.buckets.Back(); be != nil && len(out) < k; be = be.Prev() {
		b := be.Value.(*bucket)
		for ne := b.names.Front(); ne != nil && len(out) < k; ne = ne.Next() {
			name := ne.Value.(string)
			out = append(out, Entry{Name: name, Shortcut: t.records[name].shortcut, Count: b.count})
		}
	}
	return out
}

// Count returns how many times name was selected.
func (t *Tracker) Count(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if r, ok := t.records[name]; ok {
		return r.count
	}
	return 0
}

// Shortcut returns the latest shortcut recorded for name.
func (t *Tracker) Shortcut(name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[name]
	if !ok {
		return "", false
	}
	return r.shortcut, true
}

// Len returns the number of names with a nonzero count.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Buckets returns a copy of the count -> names index.
func (t *Tracker) Buckets() map[int][]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[int][]string, len(t.byCount))
	for be := t.buckets.Front(); be != nil; be = be.Next() {
		b := be.Value.(*bucket)
		names := make([]string, 0, b.names.Len())
		for ne := b.names.Front(); ne != nil; ne = ne.Next() {
			names = append(names, ne.Value.(string))
		}
		out[b.count] = names
	}
	return out
}

// Check verifies that the bucket index agrees with the per-name counts.
func (t *Tracker) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]int, len(t.records))
	last := 0
	for be := t.buckets.Front(); be != nil; be = be.Next() {
		b := be.Value.(*bucket)
		if b.count <= last {
			return errors.Newf("bucket %d out of order after bucket %d", b.count, last)
		}
		last = b.count
		if t.byCount[b.count] != be {
			return errors.Newf("bucket %d is not indexed", b.count)
		}
		if b.names.Len() == 0 {
			return errors.Newf("bucket %d is empty", b.count)
		}
		for ne := b.names.Front(); ne != nil; ne = ne.Next() {
			name := ne.Value.(string)
			if prev, dup := seen[name]; dup {
				return errors.Newf("%q is in buckets %d and %d", name, prev, b.count)
			}
			seen[name] = b.count
			r, ok := t.records[name]
			if !ok {
				return errors.Newf("%q is in bucket %d but has no count", name, b.count)
			}
			if r.count != b.count || r.bucket != be || r.elem != ne {
				return errors.Newf("%q has count %d but is in bucket %d", name, r.count, b.count)
			}
		}
	}
	if len(t.byCount) != t.buckets.Len() {
		return errors.Newf("%d buckets indexed, %d linked", len(t.byCount), t.buckets.Len())
	}
	if len(seen) != len(t.records) {
		return errors.Newf("%d names counted, %d in buckets", len(t.records), len(seen))
	}
	return nil
}

// String dumps the three views of the tracker.
func (t *Tracker) String() string {
	buckets := t.Buckets()

	t.mu.Lock()
	names := make([]string, 0, len(t.records))
	for name := range t.records {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Binding -> count:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %s: %d\n", name, t.records[name].count)
	}
	sb.WriteString("Count -> bindings with count:\n")
	counts := make([]int, 0, len(buckets))
	for c := range buckets {
		counts = append(counts, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	for _, c := range counts {
		fmt.Fprintf(&sb, "  %d: %s\n", c, strings.Join(buckets[c], ", "))
	}
	sb.WriteString("Binding -> shortcut:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %s: %s\n", name, t.records[name].shortcut)
	}
	t.mu.Unlock()

	return sb.String()
}
