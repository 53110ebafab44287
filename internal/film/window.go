package film

import (
	"math/rand"

	"github.com/segmentio/fasthash/jody"
)

// TrainFraction is the probability that a window group is assigned to the training partition.
const TrainFraction = 0.6

// windowGroup is one distinct combination of grouping-field values.
type windowGroup struct {
	values []string
	train  bool
}

// windowIndex maps hashed key values to their groups. Hash collisions are resolved by comparing values.
type windowIndex struct {
	buckets map[uint64][]*windowGroup
	order   []*windowGroup
}

func hashKey(values []string) uint64 {
	h := jody.HashString64(values[0])
	for _, v := range values[1:] {
		h = jody.AddString64(h, v)
	}
	return h
}

func sameKey(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lookup returns the group for the key values, creating it if this is the first time it is seen.
func (w *windowIndex) lookup(values []string) *windowGroup {
	h := hashKey(values)
	for _, g := range w.buckets[h] {
		if sameKey(g.values, values) {
			return g
		}
	}
	g := &windowGroup{values: values}
	w.buckets[h] = append(w.buckets[h], g)
	w.order = append(w.order, g)
	return g
}

// Split assigns every distinct combination of the group fields to train or test with one random draw
// per combination, then partitions the rows by their group's assignment.
// With no group fields, every row is its own group.
// Rows keep their input order within each partition.
func Split(rows []TeamGameRecord, groupFields []string, src rand.Source) (train, test []TeamGameRecord, err error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}

	idx := &windowIndex{buckets: make(map[uint64][]*windowGroup)}
	assigned := make([]*windowGroup, len(rows))
	for i := range rows {
		if len(groupFields) == 0 {
			g := &windowGroup{}
			idx.order = append(idx.order, g)
			assigned[i] = g
			continue
		}
		values := make([]string, len(groupFields))
		for j, f := range groupFields {
			values[j], err = rows[i].Key(f)
			if err != nil {
				return nil, nil, err
			}
		}
		assigned[i] = idx.lookup(values)
	}

	rng := rand.New(src)
	for _, g := range idx.order {
		g.train = rng.Float64() < TrainFraction
	}

	for i, g := range assigned {
		if g.train {
			train = append(train, rows[i])
		} else {
			test = append(test, rows[i])
		}
	}
	return train, test, nil
}
