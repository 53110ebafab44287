package film

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklyRows(teams, seasons, weeks int) []TeamGameRecord {
	var rows []TeamGameRecord
	for s := 0; s < seasons; s++ {
		for w := 1; w <= weeks; w++ {
			for t := 0; t < teams; t++ {
				rows = append(rows, TeamGameRecord{
					GameID: string(rune('a'+s)) + string(rune('a'+w)) + string(rune('a'+t)),
					Season: 2015 + s,
					Week:   w,
					Team:   string(rune('A' + t)),
				})
			}
		}
	}
	return rows
}

func TestSplit(t *testing.T) {
	rows := weeklyRows(10, 3, 4)

	tests := []struct {
		name   string
		fields []string
		seed   int64
	}{
		{"season and team", []string{"season", "team"}, 1},
		{"team only", []string{"team"}, 2},
		{"season only", []string{"season"}, 3},
		{"per row", nil, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := Split(rows, tt.fields, rand.NewSource(tt.seed))
			require.NoError(t, err)
			require.Equal(t, len(rows), len(train)+len(test))

			seen := make(map[string]string)
			for _, r := range train {
				seen[rowID(r)] = "train"
			}
			for _, r := range test {
				_, dup := seen[rowID(r)]
				require.False(t, dup, "row %s in both partitions", rowID(r))
				seen[rowID(r)] = "test"
			}
			for _, r := range rows {
				assert.Contains(t, seen, rowID(r))
			}

			if len(tt.fields) == 0 {
				return
			}
			groups := make(map[string]string)
			for _, r := range rows {
				key := ""
				for _, f := range tt.fields {
					v, err := r.Key(f)
					require.NoError(t, err)
					key += v + "|"
				}
				part := seen[rowID(r)]
				if prev, ok := groups[key]; ok {
					assert.Equal(t, prev, part, "group %s split across partitions", key)
				}
				groups[key] = part
			}
		})
	}
}

func TestSplit_Reseed(t *testing.T) {
	rows := weeklyRows(10, 3, 2)
	fields := []string{"season", "team"}

	train1, _, err := Split(rows, fields, rand.NewSource(42))
	require.NoError(t, err)
	train2, _, err := Split(rows, fields, rand.NewSource(42))
	require.NoError(t, err)
	assert.Equal(t, train1, train2, "same seed gives same split")

	train3, _, err := Split(rows, fields, rand.NewSource(43))
	require.NoError(t, err)
	assert.NotEqual(t, train1, train3, "different seed gives different split")
}

func TestSplit_TrainFraction(t *testing.T) {
	rows := make([]TeamGameRecord, 4000)
	train, test, err := Split(rows, nil, rand.NewSource(99))
	require.NoError(t, err)
	frac := float64(len(train)) / float64(len(train)+len(test))
	assert.InDelta(t, TrainFraction, frac, 0.05)
}

func TestSplit_Edges(t *testing.T) {
	train, test, err := Split(nil, []string{"team"}, rand.NewSource(0))
	require.NoError(t, err)
	assert.Empty(t, train)
	assert.Empty(t, test)

	_, _, err = Split(weeklyRows(2, 1, 1), []string{"conference"}, rand.NewSource(0))
	var sme *SchemaMismatchError
	require.ErrorAs(t, err, &sme)
	assert.Equal(t, "conference", sme.Field)
}

func TestHashKey_Collisions(t *testing.T) {
	idx := &windowIndex{buckets: make(map[uint64][]*windowGroup)}
	a := idx.lookup([]string{"2020", "NE"})
	b := idx.lookup([]string{"2020", "NE"})
	c := idx.lookup([]string{"2020NE", ""})
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Len(t, idx.order, 2)
}
