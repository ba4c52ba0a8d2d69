package room

import (
	"cmp"
	"slices"

	"github.com/listening-room/pkg/models"
)

// enqueue appends song to the end of the queue and re-ranks it.
func enqueue(r *models.Room, song models.Song) {
	r.Queue = append(r.Queue, song)
	rankQueue(r.Queue)
}

// applyVote adds delta to the votes of songID and re-ranks the queue.
// It returns the updated song, or nil when songID is not queued.
func applyVote(r *models.Room, songID string, delta int) *models.Song {
	i := slices.IndexFunc(r.Queue, func(s models.Song) bool { return s.ID == songID })
	if i < 0 {
		return nil
	}
	r.Queue[i].Votes += delta
	voted := r.Queue[i]
	rankQueue(r.Queue)
	return &voted
}

// rankQueue orders by descending votes. The sort is stable so equal
// counts keep their relative order.
func rankQueue(q []models.Song) {
	slices.SortStableFunc(q, func(a, b models.Song) int {
		return cmp.Compare(b.Votes, a.Votes)
	})
}
