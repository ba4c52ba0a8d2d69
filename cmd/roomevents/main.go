// Command roomevents tails the room activity topic and logs every event.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/listening-room/internal/config"
	"github.com/listening-room/pkg/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.NewLogger()

	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		log.Fatal("KAFKA_BROKERS must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := events.NewKafkaClient(brokers, cfg.KafkaTopic, cfg.KafkaGroupID, log)
	defer func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close kafka client")
		}
	}()

	log.WithFields(logrus.Fields{"topic": cfg.KafkaTopic, "group": cfg.KafkaGroupID}).Info("Consuming room events")
	err = client.ConsumeEvents(ctx, func(event events.Event) error {
		log.WithFields(logrus.Fields{
			"type":      event.Type,
			"room_code": event.RoomCode,
			"version":   event.Version,
			"user_id":   event.UserID,
			"payload":   string(event.Payload),
		}).Info("room event")
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Failed to consume events")
	}
}
