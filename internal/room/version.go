package room

import "github.com/listening-room/pkg/models"

// bumpVersion marks one committed mutation. Every persisted write except
// creation goes through it exactly once; creation stores
// models.InitialVersion as is.
func bumpVersion(r *models.Room) {
	r.Version++
}
