package roster

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func members(pairs ...string) []Member {
	ms := make([]Member, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		ms = append(ms, Member{ID: pairs[i], Name: pairs[i+1]})
	}
	return ms
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name       string
		assigned   []Member
		candidates []Member
		want       []Member
	}{
		{name: "both empty", want: []Member{}},
		{
			name:     "no candidates",
			assigned: members("s1", "Nguyen Van A"),
			want:     members("s1", "Nguyen Van A"),
		},
		{
			name:       "no assigned",
			candidates: members("s2", "B", "s3", "C"),
			want:       members("s2", "B", "s3", "C"),
		},
		{
			name:       "no assigned, duplicated candidates",
			candidates: members("s2", "B", "s3", "C", "s2", "B-dup"),
			want:       members("s2", "B", "s3", "C"),
		},
		{
			name:       "assigned wins on overlap",
			assigned:   members("s1", "A"),
			candidates: members("s1", "A-stale", "s2", "B"),
			want:       members("s1", "A", "s2", "B"),
		},
		{
			name:       "disjoint",
			assigned:   members("t1", "T1", "t2", "T2"),
			candidates: members("t3", "T3"),
			want:       members("t1", "T1", "t2", "T2", "t3", "T3"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.assigned, tt.candidates))
		})
	}
}

func TestMerge_properties(t *testing.T) {
	gen := func(prefix string, n int) []Member {
		ms := make([]Member, 0, n)
		for i := 0; i < n; i++ {
			ms = append(ms, Member{ID: fmt.Sprintf("%s%d", prefix, i), Name: fmt.Sprintf("name %s%d", prefix, i)})
		}
		return ms
	}

	for n := 0; n < 20; n++ {
		a := gen("a", n)
		b := gen("b", 20-n)

		// disjoint inputs keep every entry
		merged := Merge(a, b)
		assert.Len(t, merged, len(a)+len(b))

		// idempotence with either input
		assert.Equal(t, merged, Merge(merged, b))
		assert.Equal(t, merged, Merge(merged, a))

		// stable on repeated calls
		assert.Equal(t, merged, Merge(a, b))
	}

	// overlapping ids: one entry per id, assigned name kept
	assigned := members("x1", "Assigned 1", "x2", "Assigned 2")
	candidates := members("x2", "Pool 2", "x3", "Pool 3", "x1", "Pool 1")
	merged := Merge(assigned, candidates)
	seen := map[string]int{}
	for _, m := range merged {
		seen[m.ID]++
	}
	assert.Equal(t, map[string]int{"x1": 1, "x2": 1, "x3": 1}, seen)
	m, ok := Find(merged, "x2")
	assert.True(t, ok)
	assert.Equal(t, "Assigned 2", m.Name)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name          string
		before, after []string
		want          Change
	}{
		{name: "empty", want: Change{Added: []string{}, Removed: []string{}}},
		{name: "unchanged", before: []string{"a", "b"}, after: []string{"b", "a"}, want: Change{Added: []string{}, Removed: []string{}}},
		{name: "added", before: []string{"a"}, after: []string{"a", "b", "c"}, want: Change{Added: []string{"b", "c"}, Removed: []string{}}},
		{name: "removed", before: []string{"a", "b"}, after: []string{"b"}, want: Change{Added: []string{}, Removed: []string{"a"}}},
		{name: "both", before: []string{"a", "b"}, after: []string{"b", "c", "c"}, want: Change{Added: []string{"c"}, Removed: []string{"a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.before, tt.after)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want.Added) == 0 && len(tt.want.Removed) == 0, got.IsEmpty())
		})
	}
}

func TestSelection(t *testing.T) {
	s := NewSelection("s1", "s2", "s1")
	assert.Equal(t, []string{"s1", "s2"}, s.IDs())
	assert.True(t, s.Has("s1"))
	assert.False(t, s.Has("s3"))

	s.Add("s3")
	s.Add("s2")
	assert.Equal(t, []string{"s1", "s2", "s3"}, s.IDs())

	s.Remove("s2")
	s.Remove("nope")
	assert.Equal(t, []string{"s1", "s3"}, s.IDs())
	assert.Equal(t, 2, s.Len())

	options := members("s3", "C", "s1", "A")
	assert.Equal(t, members("s1", "A", "s3", "C"), s.Members(options))

	s.Add("s9")
	assert.Equal(t, []string{"s9"}, s.Missing(options))

	var zero Selection
	zero.Add("z")
	assert.Equal(t, []string{"z"}, zero.IDs())
	assert.Equal(t, []string{}, NewSelection().IDs())
}
