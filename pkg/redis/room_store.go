package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/listening-room/pkg/models"
	"github.com/listening-room/pkg/storage"
)

const roomKeyPrefix = "room:"

// RoomStore keeps one JSON snapshot per room under "room:<code>".
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomStore creates a room store on the given Redis client. A zero ttl
// means snapshots never expire; otherwise every Put refreshes the expiry.
func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

func roomKey(code string) string {
	return fmt.Sprintf("%s%s", roomKeyPrefix, code)
}

// Get retrieves the room snapshot from Redis
func (s *RoomStore) Get(ctx context.Context, code string) (*models.Room, error) {
	roomJSON, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var room models.Room
	if err := json.Unmarshal(roomJSON, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	room.Normalize()
	return &room, nil
}

// Put stores the whole room snapshot in a single SET
func (s *RoomStore) Put(ctx context.Context, room *models.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	if err := s.client.Set(ctx, roomKey(room.Code), roomJSON, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store room: %w", err)
	}
	return nil
}

func (s *RoomStore) Exists(ctx context.Context, code string) (bool, error) {
	n, err := s.client.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check room: %w", err)
	}
	return n > 0, nil
}

// Delete removes the room snapshot from Redis
func (s *RoomStore) Delete(ctx context.Context, code string) error {
	return s.client.Del(ctx, roomKey(code)).Err()
}
