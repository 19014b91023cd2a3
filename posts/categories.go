package posts

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
)

// CategoryIndex maps category names to post counts, keeping insertion order.
type CategoryIndex struct {
	names  []string
	counts map[string]int
}

// CategoryCount is one entry of a CategoryIndex.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newCategoryIndex() *CategoryIndex {
	return &CategoryIndex{counts: make(map[string]int)}
}

func (idx *CategoryIndex) add(name string) {
	if _, ok := idx.counts[name]; !ok {
		idx.names = append(idx.names, name)
	}
	idx.counts[name]++
}

// Names returns the category names in index order.
func (idx *CategoryIndex) Names() []string {
	return append([]string(nil), idx.names...)
}

// Count returns the number of posts in category, or 0.
func (idx *CategoryIndex) Count(name string) int {
	return idx.counts[name]
}

// Len returns the number of distinct categories.
func (idx *CategoryIndex) Len() int {
	return len(idx.names)
}

// Entries returns name/count pairs in index order.
func (idx *CategoryIndex) Entries() []CategoryCount {
	out := make([]CategoryCount, 0, len(idx.names))
	for _, n := range idx.names {
		out = append(out, CategoryCount{Name: n, Count: idx.counts[n]})
	}
	return out
}

// MarshalJSON encodes the index as an object whose keys keep index order.
func (idx *CategoryIndex) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range idx.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(idx.counts[n]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Categories counts how many posts carry each category. With sorted set,
// names are ordered by the collation rules of the configured language;
// otherwise they keep first-seen order across the date-sorted posts.
func (s *Service) Categories(ctx context.Context, sorted bool) (*CategoryIndex, error) {
	res, err := s.Fetch(ctx, Query{Limit: Unlimited})
	if err != nil {
		return nil, err
	}

	var names []string
	for _, p := range res.Posts {
		names = append(names, p.Categories...)
	}

	if sorted {
		col := collate.New(s.cfg.Language)
		sort.SliceStable(names, func(i, j int) bool {
			if c := col.CompareString(names[i], names[j]); c != 0 {
				return c < 0
			}
			return names[i] < names[j]
		})
	}

	idx := newCategoryIndex()
	for _, n := range names {
		idx.add(n)
	}
	return idx, nil
}
