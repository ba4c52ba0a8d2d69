// Package catalog serves the static song list clients pick from when
// adding to a room queue.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/listening-room/pkg/models"
)

// RecommendationTag marks songs that are always suggested.
const RecommendationTag = "recommendation"

//go:embed songs.json
var builtinSongs []byte

type Catalog struct {
	songs []models.SongInput
}

// Recommendations splits suggestions into the always-featured songs and
// the ones related to what is playing.
type Recommendations struct {
	Featured []models.SongInput `json:"featured"`
	Similar  []models.SongInput `json:"similar"`
}

func New(songs []models.SongInput) *Catalog {
	return &Catalog{songs: songs}
}

// Load returns the catalog bundled with the binary.
func Load() (*Catalog, error) {
	var songs []models.SongInput
	if err := json.Unmarshal(builtinSongs, &songs); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(songs), nil
}

func (c *Catalog) Len() int {
	return len(c.songs)
}

// Search matches query case-insensitively against title and artist. An
// empty query lists the whole catalog.
func (c *Catalog) Search(query string) []models.SongInput {
	q := strings.ToLower(strings.TrimSpace(query))
	results := make([]models.SongInput, 0, len(c.songs))
	for _, s := range c.songs {
		if q == "" ||
			strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Artist), q) {
			results = append(results, s)
		}
	}
	return results
}

// Recommend lists featured songs and, when something is playing, songs that
// share a genre-like tag with it. The playing song is never suggested.
func (c *Catalog) Recommend(nowPlaying *models.Song) Recommendations {
	recs := Recommendations{
		Featured: []models.SongInput{},
		Similar:  []models.SongInput{},
	}
	for _, s := range c.songs {
		if slices.Contains(s.Tags, RecommendationTag) {
			recs.Featured = append(recs.Featured, s)
		}
	}
	if nowPlaying == nil || len(nowPlaying.Tags) == 0 {
		return recs
	}

	for _, s := range c.songs {
		if s.URL == nowPlaying.URL {
			continue
		}
		if slices.ContainsFunc(s.Tags, func(tag string) bool {
			return tag != RecommendationTag && nowPlaying.HasTag(tag)
		}) {
			recs.Similar = append(recs.Similar, s)
		}
	}
	return recs
}
