package room

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listening-room/pkg/models"
)

func song(id string, votes int) models.Song {
	return models.Song{ID: id, Title: "Song " + id, URL: "https://example.com/" + id, Votes: votes}
}

func songIDs(songs []models.Song) []string {
	ids := make([]string, 0, len(songs))
	for _, s := range songs {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestRankQueue_StableOnTies(t *testing.T) {
	q := []models.Song{song("a", 1), song("b", 3), song("c", 1), song("d", 3), song("e", -2), song("f", 1)}
	rankQueue(q)
	assert.Equal(t, []string{"b", "d", "a", "c", "f", "e"}, songIDs(q))
}

func TestApplyVote_KeepsQueueSortedAcrossSequences(t *testing.T) {
	r := models.NewRoom("1234")
	for _, id := range []string{"a", "b", "c", "d"} {
		enqueue(r, song(id, 1))
	}

	steps := []struct {
		id    string
		delta int
		want  []string
	}{
		{"c", 1, []string{"c", "a", "b", "d"}},
		{"d", 1, []string{"c", "d", "a", "b"}},
		{"c", -1, []string{"d", "c", "a", "b"}},
		{"d", -1, []string{"d", "c", "a", "b"}},
		{"a", -1, []string{"d", "c", "b", "a"}},
		{"a", -1, []string{"d", "c", "b", "a"}},
		{"b", 2, []string{"b", "d", "c", "a"}},
	}
	for i, step := range steps {
		voted := applyVote(r, step.id, step.delta)
		require.NotNil(t, voted, "step %d", i)
		assert.Equal(t, step.want, songIDs(r.Queue), "step %d", i)
		for j := 1; j < len(r.Queue); j++ {
			assert.GreaterOrEqual(t, r.Queue[j-1].Votes, r.Queue[j].Votes)
		}
	}
	assert.Equal(t, -1, r.Queue[3].Votes, "votes may go negative")
}

func TestApplyVote_UnknownSong(t *testing.T) {
	r := models.NewRoom("1234")
	enqueue(r, song("a", 1))
	assert.Nil(t, applyVote(r, "missing", 1))
	assert.Equal(t, 1, r.Queue[0].Votes)
}

func TestEnqueue_NewSongRankedByCount(t *testing.T) {
	r := models.NewRoom("1234")
	enqueue(r, song("a", 2))
	enqueue(r, song("b", 0))
	enqueue(r, song("c", 1))
	assert.Equal(t, []string{"a", "c", "b"}, songIDs(r.Queue))
}

func TestAdvance(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	t.Run("starts queue head", func(t *testing.T) {
		r := models.NewRoom("1234")
		r.Queue = []models.Song{song("a", 2), song("b", 1)}

		started := advance(r, now)
		require.NotNil(t, started)
		assert.Equal(t, "a", r.NowPlaying.ID)
		assert.Equal(t, []string{"b"}, songIDs(r.Queue))
		assert.Empty(t, r.PlayHistory)
		require.NotNil(t, r.NowPlayingStartedAt)
		assert.Equal(t, now.UnixMilli(), *r.NowPlayingStartedAt)
	})

	t.Run("empty queue goes idle", func(t *testing.T) {
		r := models.NewRoom("1234")
		a := song("a", 1)
		r.NowPlaying = &a
		r.NowPlayingStartedAt = models.Millis(1)

		assert.Nil(t, advance(r, now))
		assert.Nil(t, r.NowPlaying)
		assert.Nil(t, r.NowPlayingStartedAt)
		assert.Equal(t, []string{"a"}, songIDs(r.PlayHistory))
	})

	t.Run("history is bounded", func(t *testing.T) {
		r := models.NewRoom("1234")
		for i := 0; i < MaxPlayHistory+5; i++ {
			r.Queue = append(r.Queue, song(fmt.Sprintf("s%02d", i), 1))
		}
		for i := 0; i < MaxPlayHistory+5; i++ {
			advance(r, now)
			assert.LessOrEqual(t, len(r.PlayHistory), MaxPlayHistory)
		}
		require.Len(t, r.PlayHistory, MaxPlayHistory)
		// s00..s23 were played; s24 is current, so s00..s03 were evicted.
		assert.Equal(t, "s04", r.PlayHistory[0].ID)
		assert.Equal(t, "s23", r.PlayHistory[MaxPlayHistory-1].ID)
		assert.Equal(t, "s24", r.NowPlaying.ID)
	})
}

func TestRewind(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	t.Run("no history is a no-op", func(t *testing.T) {
		r := models.NewRoom("1234")
		a := song("a", 1)
		r.NowPlaying = &a
		assert.False(t, rewind(r, now))
		assert.Equal(t, "a", r.NowPlaying.ID)
		assert.Empty(t, r.Queue)
	})

	t.Run("undoes advance", func(t *testing.T) {
		r := models.NewRoom("1234")
		cur := song("cur", 1)
		r.NowPlaying = &cur
		r.Queue = []models.Song{song("x", 5), song("y", 3), song("z", 3)}

		advance(r, now)
		require.Equal(t, "x", r.NowPlaying.ID)

		require.True(t, rewind(r, now.Add(time.Second)))
		assert.Equal(t, "cur", r.NowPlaying.ID)
		assert.Equal(t, []string{"x", "y", "z"}, songIDs(r.Queue))
		assert.Empty(t, r.PlayHistory)
		assert.Equal(t, now.Add(time.Second).UnixMilli(), *r.NowPlayingStartedAt)
	})

	t.Run("restores to front without ranking", func(t *testing.T) {
		r := models.NewRoom("1234")
		cur := song("cur", -4)
		r.NowPlaying = &cur
		r.Queue = []models.Song{song("x", 9)}
		r.PlayHistory = []models.Song{song("old", 1)}

		require.True(t, rewind(r, now))
		assert.Equal(t, "old", r.NowPlaying.ID)
		assert.Equal(t, []string{"cur", "x"}, songIDs(r.Queue))
	})

	t.Run("from idle", func(t *testing.T) {
		r := models.NewRoom("1234")
		r.PlayHistory = []models.Song{song("old", 1)}

		require.True(t, rewind(r, now))
		assert.Equal(t, "old", r.NowPlaying.ID)
		assert.Empty(t, r.Queue)
	})
}

func TestAppendMessage_Bounded(t *testing.T) {
	r := models.NewRoom("1234")
	for i := 0; i < MaxChatHistory+3; i++ {
		appendMessage(r, models.ChatMessage{ID: fmt.Sprintf("m%02d", i)})
		assert.LessOrEqual(t, len(r.ChatHistory), MaxChatHistory)
	}
	require.Len(t, r.ChatHistory, MaxChatHistory)
	assert.Equal(t, "m03", r.ChatHistory[0].ID)
	assert.Equal(t, "m52", r.ChatHistory[MaxChatHistory-1].ID)
}

func TestToggleReaction(t *testing.T) {
	r := models.NewRoom("1234")
	appendMessage(r, models.ChatMessage{ID: "m1"})

	found, added := toggleReaction(r, "m1", "🔥", "u1")
	assert.True(t, found)
	assert.True(t, added)
	_, added = toggleReaction(r, "m1", "🔥", "u2")
	assert.True(t, added)
	assert.Equal(t, []string{"u1", "u2"}, r.ChatHistory[0].Reactions["🔥"])

	_, added = toggleReaction(r, "m1", "🔥", "u1")
	assert.False(t, added)
	assert.Equal(t, []string{"u2"}, r.ChatHistory[0].Reactions["🔥"])

	toggleReaction(r, "m1", "🔥", "u2")
	_, ok := r.ChatHistory[0].Reactions["🔥"]
	assert.False(t, ok, "empty emoji key must be removed")
	assert.Nil(t, r.ChatHistory[0].Reactions)

	found, _ = toggleReaction(r, "missing", "🔥", "u1")
	assert.False(t, found)
}

func TestExpireUsers(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	r := models.NewRoom("1234")
	r.Users = []models.User{
		{ID: "fresh", LastHeartbeat: models.Millis(now.Add(-5 * time.Second).UnixMilli())},
		{ID: "stale", LastHeartbeat: models.Millis(now.Add(-31 * time.Second).UnixMilli())},
		{ID: "never"},
		{ID: "edge", LastHeartbeat: models.Millis(now.Add(-PresenceTimeout).UnixMilli())},
	}

	expired := expireUsers(r, now)
	assert.Equal(t, []string{"stale", "never"}, expired)
	require.Len(t, r.Users, 2)
	assert.Equal(t, "fresh", r.Users[0].ID)
	assert.Equal(t, "edge", r.Users[1].ID)

	assert.Empty(t, expireUsers(r, now))
}

func TestUpsertUser_KeepsPosition(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	r := models.NewRoom("1234")

	assert.True(t, upsertUser(r, models.User{ID: "a", Name: "Ann"}, now))
	assert.True(t, upsertUser(r, models.User{ID: "b", Name: "Bob"}, now))
	assert.False(t, upsertUser(r, models.User{ID: "a", Name: "Annie"}, now.Add(time.Second)))

	require.Len(t, r.Users, 2)
	assert.Equal(t, "a", r.Users[0].ID)
	assert.Equal(t, "Annie", r.Users[0].Name)
	assert.Equal(t, now.Add(time.Second).UnixMilli(), *r.Users[0].LastHeartbeat)

	assert.True(t, touchUser(r, "b", now.Add(2*time.Second)))
	assert.False(t, touchUser(r, "zzz", now))
}

func TestCodeAllocator(t *testing.T) {
	var bounds []int
	a := NewCodeAllocator(func(n int) int {
		bounds = append(bounds, n)
		return n - 1
	})
	assert.Equal(t, "9999", a.Next())
	assert.Equal(t, []int{9000}, bounds)

	a = NewCodeAllocator(func(int) int { return 0 })
	assert.Equal(t, "1000", a.Next())

	a = NewCodeAllocator(nil)
	for i := 0; i < 200; i++ {
		assert.True(t, ValidCode(a.Next()))
	}
}

func TestValidCode(t *testing.T) {
	for _, code := range []string{"1000", "9999", "0420"} {
		assert.True(t, ValidCode(code), code)
	}
	for _, code := range []string{"", "123", "12345", "12a4", " 123", "1234\n"} {
		assert.False(t, ValidCode(code), code)
	}
}

func TestBumpVersion(t *testing.T) {
	r := models.NewRoom("1234")
	require.Equal(t, models.InitialVersion, r.Version)

	bumpVersion(r)
	bumpVersion(r)
	assert.Equal(t, models.InitialVersion+2, r.Version)
}
