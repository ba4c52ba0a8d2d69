package models

import "slices"

// Timestamps are Unix milliseconds so polling clients can compare them directly.

type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	LastHeartbeat *int64 `json:"lastHeartbeat,omitempty"`
}

type Song struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Artist      string            `json:"artist"`
	AlbumArtURL string            `json:"albumArtUrl"`
	URL         string            `json:"url"`
	Votes       int               `json:"votes"` // may go negative
	Tags        []string          `json:"tags,omitempty"`
	Lyrics      string            `json:"lyrics,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SongInput is a song as submitted by a client or listed by the catalog:
// everything except the server-assigned id and vote count.
type SongInput struct {
	Title       string            `json:"title" binding:"required"`
	Artist      string            `json:"artist"`
	AlbumArtURL string            `json:"albumArtUrl"`
	URL         string            `json:"url" binding:"required"`
	Tags        []string          `json:"tags,omitempty"`
	Lyrics      string            `json:"lyrics,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	User      User   `json:"user"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	// Reactions maps an emoji to the ids of the users who reacted with it.
	// A key never holds an empty list.
	Reactions map[string][]string `json:"reactions,omitempty"`
}

type Room struct {
	Code                string        `json:"code"`
	Users               []User        `json:"users"`
	Queue               []Song        `json:"queue"`
	ChatHistory         []ChatMessage `json:"chatHistory"`
	NowPlaying          *Song         `json:"nowPlaying,omitempty"`
	PlayHistory         []Song        `json:"playHistory"`
	NowPlayingStartedAt *int64        `json:"nowPlayingStartedAt,omitempty"`
	Version             int64         `json:"version"`
}

// InitialVersion is the version a room is created with.
const InitialVersion int64 = 1

// NewRoom returns an empty room at InitialVersion.
func NewRoom(code string) *Room {
	return &Room{
		Code:        code,
		Users:       []User{},
		Queue:       []Song{},
		ChatHistory: []ChatMessage{},
		PlayHistory: []Song{},
		Version:     InitialVersion,
	}
}

// Normalize makes absent and empty collections interchangeable: room
// sequences are always non-nil and optional per-item collections are nil
// when empty.
func (r *Room) Normalize() {
	if r.Users == nil {
		r.Users = []User{}
	}
	if r.Queue == nil {
		r.Queue = []Song{}
	}
	if r.ChatHistory == nil {
		r.ChatHistory = []ChatMessage{}
	}
	if r.PlayHistory == nil {
		r.PlayHistory = []Song{}
	}
	for i := range r.Queue {
		r.Queue[i].normalize()
	}
	for i := range r.PlayHistory {
		r.PlayHistory[i].normalize()
	}
	if r.NowPlaying != nil {
		r.NowPlaying.normalize()
	}
	for i := range r.ChatHistory {
		if len(r.ChatHistory[i].Reactions) == 0 {
			r.ChatHistory[i].Reactions = nil
		}
	}
}

func (s *Song) normalize() {
	if len(s.Tags) == 0 {
		s.Tags = nil
	}
	if len(s.Metadata) == 0 {
		s.Metadata = nil
	}
}

// HasTag reports whether the song carries tag.
func (s Song) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// Millis converts a Unix-millisecond value to a pointer for optional fields.
func Millis(ms int64) *int64 {
	return &ms
}
