package room

import (
	"time"

	"github.com/listening-room/pkg/models"
)

// PresenceTimeout is how long a user stays listed without a heartbeat.
const PresenceTimeout = 30 * time.Second

// expireUsers removes users whose last heartbeat is older than
// PresenceTimeout, keeping the order of the rest. Users that never sent a
// heartbeat are treated as expired. It returns the removed ids.
func expireUsers(r *models.Room, now time.Time) []string {
	cutoff := now.Add(-PresenceTimeout).UnixMilli()

	var expired []string
	active := r.Users[:0:0]
	for _, u := range r.Users {
		if u.LastHeartbeat == nil || *u.LastHeartbeat < cutoff {
			expired = append(expired, u.ID)
			continue
		}
		active = append(active, u)
	}
	if len(expired) > 0 {
		r.Users = active
	}
	return expired
}

// upsertUser refreshes u's heartbeat, replacing the profile of an existing
// user in place or appending a new one. It reports whether u was new.
func upsertUser(r *models.Room, u models.User, now time.Time) bool {
	u.LastHeartbeat = models.Millis(now.UnixMilli())
	for i := range r.Users {
		if r.Users[i].ID == u.ID {
			r.Users[i] = u
			return false
		}
	}
	r.Users = append(r.Users, u)
	return true
}

// touchUser refreshes the heartbeat of userID, reporting whether the user
// was present.
func touchUser(r *models.Room, userID string, now time.Time) bool {
	for i := range r.Users {
		if r.Users[i].ID == userID {
			r.Users[i].LastHeartbeat = models.Millis(now.UnixMilli())
			return true
		}
	}
	return false
}
