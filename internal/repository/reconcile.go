package repository

import "github.com/maheshrc27/crosspost/internal/models"

// Reassignment records one duplicate id that was replaced.
type Reassignment struct {
	Index    int
	Filename string
	OldID    int64
	NewID    int64
}

// ReconcileIDs gives every repeated id a fresh one in iteration order. The
// first occurrence keeps its id; later ones get max+1, max+2, ... where max
// starts at the largest id in the slice. Items are modified in place.
func ReconcileIDs(items []*models.ContentItem) []Reassignment {
	if len(items) == 0 {
		return nil
	}

	var runningMax int64
	for _, item := range items {
		if item.ID > runningMax {
			runningMax = item.ID
		}
	}

	seen := make(map[int64]struct{}, len(items))
	var fixed []Reassignment
	for i, item := range items {
		if _, dup := seen[item.ID]; dup {
			runningMax++
			fixed = append(fixed, Reassignment{
				Index:    i,
				Filename: item.Filename,
				OldID:    item.ID,
				NewID:    runningMax,
			})
			item.ID = runningMax
		}
		seen[item.ID] = struct{}{}
	}
	return fixed
}
