package storage

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/listening-room/pkg/models"
)

// Cached fronts a durable primary store with a faster cache store.
// Reads try the cache first and repopulate it on a miss; writes go to the
// primary first, so a cache failure never loses a committed snapshot.
type Cached struct {
	primary RoomStore
	cache   CacheStore
	log     logrus.FieldLogger
}

// CacheStore is a RoomStore whose entries can be dropped.
type CacheStore interface {
	RoomStore
	Delete(ctx context.Context, code string) error
}

func NewCached(primary RoomStore, cache CacheStore, log logrus.FieldLogger) *Cached {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cached{primary: primary, cache: cache, log: log}
}

// Get reads through the cache, filling it from the primary on a miss. The
// fill is only safe while the caller holds the room's serializer; other
// readers use Peek.
func (c *Cached) Get(ctx context.Context, code string) (*models.Room, error) {
	room, err := c.cache.Get(ctx, code)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, ErrNotFound) {
		c.log.WithError(err).WithField("room_code", code).Warn("room cache read failed, using primary store")
	}

	room, err = c.primary.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(ctx, room); err != nil {
		c.log.WithError(err).WithField("room_code", code).Warn("failed to cache room")
	}
	return room, nil
}

// Peek reads the cache and falls back to the primary without filling.
func (c *Cached) Peek(ctx context.Context, code string) (*models.Room, error) {
	room, err := c.cache.Get(ctx, code)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, ErrNotFound) {
		c.log.WithError(err).WithField("room_code", code).Warn("room cache read failed, using primary store")
	}
	return c.primary.Get(ctx, code)
}

func (c *Cached) Put(ctx context.Context, room *models.Room) error {
	if err := c.primary.Put(ctx, room); err != nil {
		return err
	}
	if err := c.cache.Put(ctx, room); err != nil {
		logCtx := c.log.WithField("room_code", room.Code)
		logCtx.WithError(err).Warn("failed to cache room, evicting")
		// A stale entry would shadow the committed snapshot.
		if err := c.cache.Delete(ctx, room.Code); err != nil {
			logCtx.WithError(err).Error("failed to evict stale room from cache")
		}
	}
	return nil
}

func (c *Cached) Exists(ctx context.Context, code string) (bool, error) {
	return c.primary.Exists(ctx, code)
}
