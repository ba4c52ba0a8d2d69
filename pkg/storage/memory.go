package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/listening-room/pkg/models"
)

// Memory keeps encoded snapshots in process memory. Values are stored
// encoded so callers never share a Room with the store.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, code string) (*models.Room, error) {
	m.mu.RLock()
	data, ok := m.rooms[code]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room %s: %w", code, err)
	}
	room.Normalize()
	return &room, nil
}

func (m *Memory) Put(ctx context.Context, room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", room.Code, err)
	}

	m.mu.Lock()
	m.rooms[room.Code] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Exists(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[code]
	return ok, nil
}

func (m *Memory) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	delete(m.rooms, code)
	m.mu.Unlock()
	return nil
}

// Len reports how many rooms are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
