package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/listening-room/pkg/events"
	"github.com/listening-room/pkg/models"
	"github.com/listening-room/pkg/storage"
)

// Service is the single authority over room state. Every operation on a
// code loads the stored snapshot, applies its change in memory and writes
// the whole snapshot back, serialized per room code.
type Service struct {
	store  storage.RoomStore
	events events.Publisher
	codes  *CodeAllocator
	rooms  *serializer
	now    func() time.Time
	newID  func() string
	log    logrus.FieldLogger
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCodeSource replaces the random source used to draw room codes.
func WithCodeSource(intN func(n int) int) Option {
	return func(s *Service) { s.codes = NewCodeAllocator(intN) }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store storage.RoomStore, publisher events.Publisher, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &Service{
		store:  store,
		events: publisher,
		codes:  NewCodeAllocator(nil),
		rooms:  newSerializer(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// change describes what an in-memory mutation did.
type change struct {
	skip    bool // nothing to persist
	event   events.EventType
	userID  string
	payload interface{}
}

func (s *Service) CreateRoom(ctx context.Context) (*models.Room, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code := s.codes.Next()
		room := models.NewRoom(code)

		var claimed bool
		var opErr error
		err := s.rooms.do(ctx, code, func() {
			exists, err := s.store.Exists(ctx, code)
			if err != nil {
				opErr = fmt.Errorf("failed to check room code %s: %w", code, err)
				return
			}
			if exists {
				return
			}
			if err := s.store.Put(ctx, room); err != nil {
				opErr = fmt.Errorf("failed to create room %s: %w", code, err)
				return
			}
			claimed = true
		})
		if err == nil {
			err = opErr
		}
		if err != nil {
			return nil, err
		}

		if claimed {
			s.log.WithFields(logrus.Fields{"room_code": code, "attempts": attempt}).Info("room created")
			s.publish(ctx, room, change{event: events.EventTypeRoomCreated})
			return room, nil
		}
		s.log.WithField("room_code", code).Debugf("room code taken, retrying (attempt %d)", attempt)
	}

	s.log.Errorf("no free room code after %d attempts", maxCodeAttempts)
	return nil, fmt.Errorf("%w after %d attempts", ErrAllocationExhausted, maxCodeAttempts)
}

// FetchRoom returns the room with expired users removed. Removing users is
// a mutation and is persisted with a version bump.
func (s *Service) FetchRoom(ctx context.Context, code string) (*models.Room, error) {
	return s.update(ctx, code, func(room *models.Room, now time.Time) change {
		expired := expireUsers(room, now)
		if len(expired) == 0 {
			return change{skip: true}
		}
		return change{
			event:   events.EventTypeUsersExpired,
			payload: events.UsersExpiredPayload{UserIDs: expired},
		}
	})
}

// FetchVersion reads the room version without touching state.
func (s *Service) FetchVersion(ctx context.Context, code string) (int64, error) {
	if err := validateCode(code); err != nil {
		return 0, err
	}
	// Not serialized, so the read must not fill a cache tier.
	room, err := storage.Peek(ctx, s.store, code)
	if err != nil {
		return 0, loadError(code, err)
	}
	return room.Version, nil
}

func (s *Service) AddOrRefreshUser(ctx context.Context, code string, user models.User) (*models.Room, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	return s.update(ctx, code, func(room *models.Room, now time.Time) change {
		joined := upsertUser(room, user, now)
		return change{
			event:   events.EventTypeUserJoined,
			userID:  user.ID,
			payload: events.UserJoinedPayload{UserName: user.Name, Returned: !joined},
		}
	})
}

// Heartbeat refreshes a user's presence. A user that is no longer listed
// is ignored.
func (s *Service) Heartbeat(ctx context.Context, code, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	_, err := s.update(ctx, code, func(room *models.Room, now time.Time) change {
		if !touchUser(room, userID, now) {
			s.log.WithFields(logrus.Fields{"room_code": code, "user_id": userID}).Debug("heartbeat for absent user ignored")
			return change{skip: true}
		}
		return change{}
	})
	return err
}

// AddSong queues a new song with one vote. An idle room starts playing it
// right away, in the same write.
func (s *Service) AddSong(ctx context.Context, code string, in models.SongInput) (*models.Room, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.URL) == "" {
		return nil, fmt.Errorf("%w: song title and url are required", ErrValidation)
	}
	song := models.Song{
		ID:          s.newID(),
		Title:       in.Title,
		Artist:      in.Artist,
		AlbumArtURL: in.AlbumArtURL,
		URL:         in.URL,
		Votes:       1,
		Tags:        in.Tags,
		Lyrics:      in.Lyrics,
		Metadata:    in.Metadata,
	}

	return s.update(ctx, code, func(room *models.Room, now time.Time) change {
		enqueue(room, song)
		started := false
		if room.NowPlaying == nil {
			started = advance(room, now) != nil
		}
		room.Normalize()
		return change{
			event: events.EventTypeSongAdded,
			payload: events.SongAddedPayload{
				SongID:  song.ID,
				Title:   song.Title,
				Artist:  song.Artist,
				Started: started,
			},
		}
	})
}

func (s *Service) Vote(ctx context.Context, code, songID string) (*models.Room, error) {
	return s.vote(ctx, code, songID, 1)
}

func (s *Service) Downvote(ctx context.Context, code, songID string) (*models.Room, error) {
	return s.vote(ctx, code, songID, -1)
}

// vote applies delta to a queued song. An unknown song id still persists
// the room unchanged, bumping the version.
func (s *Service) vote(ctx context.Context, code, songID string, delta int) (*models.Room, error) {
	return s.update(ctx, code, func(room *models.Room, now time.Time) change {
		payload := events.SongVotedPayload{SongID: songID, Delta: delta}
		if song := applyVote(room, songID, delta); song != nil {
			payload.Found = true
			payload.Votes = song.Votes
		} else {
			s.log.WithFields(logrus.Fields{"room_code": code, "song_id": songID}).Debug("vote for unknown song")
		}
		return change{event: events.EventTypeSongVoted, payload: payload}
	})
}

func (s *Service) PlayNext(ctx context.Context, code string) (*models.Room, error) {
	return s.update(ctx, code, func(room *models.Room, now time.Time) change {
		started := advance(room, now)
		if started == nil {
			return change{event: events.EventTypePlaybackStopped}
		}
		return change{
			event: events.EventTypeSongStarted,
			payload: events.SongStartedPayload{
				SongID: started.ID,
				Title:  started.Title,
				Artist: started.Artist,
			},
		}
	})
}

// PlayPrevious rewinds to the last played song. With no history it
// returns the room as stored.
func (s *Service) PlayPrevious(ctx context.Context, code string) (*models.Room, error) {
	return s.update(ctx, code, func(room *models.Room, now time.Time) change {
		if !rewind(room, now) {
			return change{skip: true}
		}
		return change{
			event: events.EventTypePlaybackRewound,
			payload: events.SongStartedPayload{
				SongID: room.NowPlaying.ID,
				Title:  room.NowPlaying.Title,
				Artist: room.NowPlaying.Artist,
			},
		}
	})
}

func (s *Service) SendChatMessage(ctx context.Context, code, text string, user models.User) (*models.Room, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrValidation)
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}

	return s.update(ctx, code, func(room *models.Room, now time.Time) change {
		msg := models.ChatMessage{
			ID:        s.newID(),
			User:      user,
			Text:      text,
			Timestamp: now.UnixMilli(),
		}
		appendMessage(room, msg)
		return change{
			event:   events.EventTypeChatMessage,
			userID:  user.ID,
			payload: events.ChatMessagePayload{MessageID: msg.ID},
		}
	})
}

// ReactToMessage toggles user's emoji reaction on a message. An unknown
// message leaves the room untouched.
func (s *Service) ReactToMessage(ctx context.Context, code, messageID, emoji string, user models.User) (*models.Room, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, fmt.Errorf("%w: emoji is required", ErrValidation)
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}

	return s.update(ctx, code, func(room *models.Room, now time.Time) change {
		found, added := toggleReaction(room, messageID, emoji, user.ID)
		if !found {
			s.log.WithFields(logrus.Fields{"room_code": code, "message_id": messageID}).Debug("reaction to unknown message ignored")
			return change{skip: true}
		}
		return change{
			event:   events.EventTypeMessageReacted,
			userID:  user.ID,
			payload: events.MessageReactedPayload{MessageID: messageID, Emoji: emoji, Added: added},
		}
	})
}

// update runs fn against the stored room on the room's serializer and
// persists the result with a version bump unless fn skips it.
func (s *Service) update(ctx context.Context, code string, fn func(room *models.Room, now time.Time) change) (*models.Room, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}

	var (
		room  *models.Room
		ch    change
		opErr error
	)
	err := s.rooms.do(ctx, code, func() {
		room, opErr = s.load(ctx, code)
		if opErr != nil {
			return
		}
		ch = fn(room, s.now())
		if ch.skip {
			return
		}
		bumpVersion(room)
		if err := s.store.Put(ctx, room); err != nil {
			opErr = fmt.Errorf("failed to save room %s: %w", code, err)
		}
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		return nil, err
	}

	if !ch.skip && ch.event != "" {
		s.publish(ctx, room, ch)
	}
	return room, nil
}

func (s *Service) load(ctx context.Context, code string) (*models.Room, error) {
	room, err := s.store.Get(ctx, code)
	if err != nil {
		return nil, loadError(code, err)
	}
	return room, nil
}

func loadError(code string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return fmt.Errorf("failed to load room %s: %w", code, err)
}

// publish reports a committed change. Failures are logged; the change
// itself already succeeded.
func (s *Service) publish(ctx context.Context, room *models.Room, ch change) {
	logCtx := s.log.WithFields(logrus.Fields{"room_code": room.Code, "version": room.Version, "event": ch.event})

	event, err := events.NewEvent(ch.event, room.Code, room.Version, ch.userID, ch.payload)
	if err != nil {
		logCtx.WithError(err).Error("failed to build room event")
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logCtx.WithError(err).Warn("failed to publish room event")
	}
}

func validateUser(u models.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	return nil
}
