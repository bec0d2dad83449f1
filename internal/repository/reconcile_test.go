package repository

import (
	"testing"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/stretchr/testify/assert"
)

func items(ids ...int64) []*models.ContentItem {
	out := make([]*models.ContentItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, &models.ContentItem{ID: id})
	}
	return out
}

func TestReconcileIDs(t *testing.T) {
	cases := []struct {
		name     string
		in       []int64
		want     []int64
		reassign int
	}{
		{"empty", nil, []int64{}, 0},
		{"unique", []int64{3, 1, 2}, []int64{3, 1, 2}, 0},
		{"single duplicate", []int64{1, 2, 2}, []int64{1, 2, 3}, 1},
		{"duplicate before larger id", []int64{1, 1, 2}, []int64{1, 3, 2}, 1},
		{"triple", []int64{4, 4, 4}, []int64{4, 5, 6}, 2},
		{"zero ids", []int64{0, 0}, []int64{0, 1}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := items(tc.in...)
			maxBefore := int64(0)
			for _, id := range tc.in {
				if id > maxBefore {
					maxBefore = id
				}
			}

			fixed := ReconcileIDs(in)
			assert.Len(t, fixed, tc.reassign)

			got := make([]int64, 0, len(in))
			seen := map[int64]bool{}
			for _, item := range in {
				got = append(got, item.ID)
				assert.False(t, seen[item.ID])
				seen[item.ID] = true
			}
			assert.Equal(t, tc.want, got)

			for _, f := range fixed {
				assert.Greater(t, f.NewID, maxBefore)
			}
		})
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	in := items(2, 2, 1, 1)
	ReconcileIDs(in)
	assert.Empty(t, ReconcileIDs(in))
}
