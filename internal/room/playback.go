package room

import (
	"time"

	"github.com/listening-room/pkg/models"
)

// MaxPlayHistory bounds the rewind stack; the oldest entry is dropped first.
const MaxPlayHistory = 20

// advance moves the current song onto the history stack and starts the
// queue head. With an empty queue the room goes idle. It returns the song
// that started, or nil.
func advance(r *models.Room, now time.Time) *models.Song {
	if r.NowPlaying != nil {
		r.PlayHistory = pushBounded(r.PlayHistory, *r.NowPlaying, MaxPlayHistory)
	}

	if len(r.Queue) == 0 {
		r.NowPlaying = nil
		r.NowPlayingStartedAt = nil
		return nil
	}

	var next models.Song
	r.Queue, next = popFront(r.Queue)
	r.NowPlaying = &next
	r.NowPlayingStartedAt = models.Millis(now.UnixMilli())
	return r.NowPlaying
}

// rewind restores the most recent history entry. The interrupted song goes
// back to the head of the queue as-is, without re-ranking, so an advance
// followed by a rewind leaves the queue exactly as it was. It reports false
// when there is no history.
func rewind(r *models.Room, now time.Time) bool {
	if len(r.PlayHistory) == 0 {
		return false
	}

	if r.NowPlaying != nil {
		r.Queue = pushFront(r.Queue, *r.NowPlaying)
	}

	var prev models.Song
	r.PlayHistory, prev = popBack(r.PlayHistory)
	r.NowPlaying = &prev
	r.NowPlayingStartedAt = models.Millis(now.UnixMilli())
	return true
}
