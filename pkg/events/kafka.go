package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventTypeRoomCreated     EventType = "room_created"
	EventTypeUserJoined      EventType = "user_joined"
	EventTypeUsersExpired    EventType = "users_expired"
	EventTypeSongAdded       EventType = "song_added"
	EventTypeSongVoted       EventType = "song_voted"
	EventTypeSongStarted     EventType = "song_started"
	EventTypePlaybackStopped EventType = "playback_stopped"
	EventTypePlaybackRewound EventType = "playback_rewound"
	EventTypeChatMessage     EventType = "chat_message"
	EventTypeMessageReacted  EventType = "message_reacted"
)

type Event struct {
	Type      EventType       `json:"type"`
	RoomCode  string          `json:"room_code"`
	Version   int64           `json:"version"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event with payload encoded as JSON.
func NewEvent(typ EventType, roomCode string, version int64, userID string, payload interface{}) (Event, error) {
	event := Event{
		Type:      typ,
		RoomCode:  roomCode,
		Version:   version,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("failed to marshal payload: %w", err)
		}
		event.Payload = raw
	}
	return event, nil
}

// Publisher emits room activity after a state change has been committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type KafkaClient struct {
	writer *kafka.Writer
	reader *kafka.Reader
}

// NewKafkaClient creates a writer for topic and, when groupID is set, a
// consumer-group reader on the same topic. Writes are asynchronous;
// delivery failures are reported to log.
func NewKafkaClient(brokers []string, topic string, groupID string, log logrus.FieldLogger) *KafkaClient {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.WithError(err).WithField("messages", len(messages)).Error("failed to deliver room events")
			}
		},
	}

	client := &KafkaClient{writer: writer}
	if groupID != "" {
		client.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
		})
	}
	return client
}

// Publish writes event keyed by room code so one room's events stay on one
// partition, in commit order.
func (k *KafkaClient) Publish(ctx context.Context, event Event) error {
	messageJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RoomCode),
		Value: messageJSON,
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (k *KafkaClient) ConsumeEvents(ctx context.Context, handler func(Event) error) error {
	if k.reader == nil {
		return fmt.Errorf("kafka client has no consumer group configured")
	}
	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}

		if err := handler(event); err != nil {
			return fmt.Errorf("failed to handle event: %w", err)
		}
	}
}

func (k *KafkaClient) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	if k.reader != nil {
		if err := k.reader.Close(); err != nil {
			return fmt.Errorf("failed to close reader: %w", err)
		}
	}
	return nil
}

// Event payload types
type SongAddedPayload struct {
	SongID  string `json:"song_id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Started bool   `json:"started"`
}

type SongVotedPayload struct {
	SongID string `json:"song_id"`
	Delta  int    `json:"delta"`
	Votes  int    `json:"votes"`
	Found  bool   `json:"found"`
}

type SongStartedPayload struct {
	SongID string `json:"song_id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

type UserJoinedPayload struct {
	UserName string `json:"user_name"`
	Returned bool   `json:"returned"`
}

type UsersExpiredPayload struct {
	UserIDs []string `json:"user_ids"`
}

type ChatMessagePayload struct {
	MessageID string `json:"message_id"`
}

type MessageReactedPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	Added     bool   `json:"added"`
}
