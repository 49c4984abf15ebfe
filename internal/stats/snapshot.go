package stats

import (
	"bytes"
	"container/list"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"lyxs/internal/errors"
)

// Snapshot is the persisted form of a Tracker. The JSON keys are shared with
// snapshots written by the Albert LyX plugin, so existing usage files
// keep working. JSON object keys are strings, hence the string-keyed Buckets.
type Snapshot struct {
	Counts    map[string]int      `json:"binding_to_count"`
	Shortcuts map[string]string   `json:"binding_to_shortcut"`
	Buckets   map[string][]string `json:"count_to_bindings"`
}

// Snapshot returns the tracker state in its persisted form.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Counts:    make(map[string]int, len(t.records)),
		Shortcuts: make(map[string]string, len(t.records)),
		Buckets:   make(map[string][]string, len(t.byCount)),
	}
	for name, r := range t.records {
		s.Counts[name] = r.count
		s.Shortcuts[name] = r.shortcut
	}
	for be := t.buckets.Front(); be != nil; be = be.Next() {
		b := be.Value.(*bucket)
		names := make([]string, 0, b.names.Len())
		for ne := b.names.Front(); ne != nil; ne = ne.Next() {
			names = append(names, ne.Value.(string))
		}
		s.Buckets[strconv.Itoa(b.count)] = names
	}
	return s
}

func corrupt(format string, args ...interface{}) error {
	return errors.NewSnapshotError("snapshot is corrupt", "", errors.SnapshotCorrupt, errors.Newf(format, args...))
}

// FromSnapshot rebuilds a Tracker. Bucket keys are parsed back into counts
// and the name order inside each bucket is kept. Any disagreement between the
// three maps is reported as a SnapshotCorrupt error. Names with a zero count
// are treated as never selected and dropped.
func FromSnapshot(s Snapshot) (*Tracker, error) {
	type keyed struct {
		count int
		names []string
	}
	buckets := make([]keyed, 0, len(s.Buckets))
	for key, names := range s.Buckets {
		count, err := strconv.Atoi(key)
		if err != nil {
			return nil, corrupt("bucket key %q is not an integer", key)
		}
		if count < 1 {
			return nil, corrupt("bucket key %d is not positive", count)
		}
		if len(names) == 0 {
			return nil, corrupt("bucket %d is empty", count)
		}
		buckets = append(buckets, keyed{count: count, names: names})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].count < buckets[j].count })

	for i := 1; i < len(buckets); i++ {
		if buckets[i].count == buckets[i-1].count {
			// "01" and "1" both parse to 1
			return nil, corrupt("bucket %d listed twice", buckets[i].count)
		}
	}

	t := New()
	for _, kb := range buckets {
		for _, name := range kb.names {
			if name == "" {
				return nil, corrupt("bucket %d holds an empty name", kb.count)
			}
			if _, dup := t.records[name]; dup {
				return nil, corrupt("%q appears in more than one bucket", name)
			}
			count, ok := s.Counts[name]
			if !ok {
				return nil, corrupt("%q is in bucket %d but has no count", name, kb.count)
			}
			if count != kb.count {
				return nil, corrupt("%q has count %d but is in bucket %d", name, count, kb.count)
			}
			shortcut, ok := s.Shortcuts[name]
			if !ok {
				return nil, corrupt("%q has no shortcut", name)
			}
			t.restore(name, shortcut, kb.count)
		}
	}

	for name, count := range s.Counts {
		if count < 0 {
			return nil, corrupt("%q has negative count %d", name, count)
		}
		if count > 0 {
			if _, ok := t.records[name]; !ok {
				return nil, corrupt("%q has count %d but is in no bucket", name, count)
			}
		}
	}
	for name := range s.Shortcuts {
		if _, counted := s.Counts[name]; !counted {
			return nil, corrupt("%q has a shortcut but no count", name)
		}
	}

	if err := t.Check(); err != nil {
		return nil, errors.NewSnapshotError("snapshot is corrupt", "", errors.SnapshotCorrupt, err)
	}
	return t, nil
}

// restore appends name to the bucket for count. Callers add buckets in
// ascending count order.
func (t *Tracker) restore(name, shortcut string, count int) {
	e, ok := t.byCount[count]
	if !ok {
		e = t.buckets.PushBack(&bucket{count: count, names: list.New()})
		t.byCount[count] = e
	}
	b := e.Value.(*bucket)
	t.records[name] = &record{
		shortcut: shortcut,
		count:    count,
		bucket:   e,
		elem:     b.names.PushBack(name),
	}
}

// Encode writes the tracker as indented JSON.
func Encode(w io.Writer, t *Tracker) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.Snapshot()); err != nil {
		return errors.NewSnapshotError("cannot encode snapshot", "", errors.SnapshotWriteFailed, err)
	}
	return nil
}

// Decode reads a tracker written by Encode. The whole input must be a single
// JSON object.
func Decode(r io.Reader) (*Tracker, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewSnapshotError("cannot read snapshot", "", errors.SnapshotCorrupt, err)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, corrupt("snapshot is not a JSON object")
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.NewSnapshotError("cannot decode snapshot", "", errors.SnapshotCorrupt, err)
	}
	return FromSnapshot(s)
}

// Load reads the snapshot at path. A missing file yields an empty tracker.
func Load(path string) (*Tracker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errors.NewFileError("cannot read snapshot", path, errors.FileAccessDenied, err)
	}

	t, err := Decode(bytes.NewReader(data))
	if err != nil {
		var snapErr *errors.SnapshotError
		if errors.As(err, &snapErr) {
			return nil, snapErr.WithPath(path)
		}
		return nil, err
	}
	return t, nil
}

// Save writes the snapshot to path atomically: a temp file in the same
// directory is written and then renamed over the target.
func Save(path string, t *Tracker) error {
	fail := func(msg string, err error) error {
		return errors.NewSnapshotError(msg, path, errors.SnapshotWriteFailed, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail("cannot create snapshot directory", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fail("cannot create snapshot", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fail("cannot write snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fail("cannot write snapshot", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fail("cannot replace snapshot", err)
	}
	return nil
}
