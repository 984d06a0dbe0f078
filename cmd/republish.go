package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/psds-microservice/support-chat/internal/application"
	"github.com/psds-microservice/support-chat/internal/kafka"
	"github.com/psds-microservice/support-chat/internal/sessionstore"
	"github.com/spf13/cobra"
)

var republishCmd = &cobra.Command{
	Use:   "republish-tickets",
	Short: "Re-send ticket.created events for every ticket held in stored sessions",
	RunE:  runRepublish,
}

func runRepublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	brokers := kafka.ParseBrokers(cfg.Kafka.Brokers)
	if len(brokers) == 0 || cfg.Kafka.TopicTicket == "" {
		log.Println("republish-tickets: KAFKA_BROKERS or KAFKA_TOPIC_TICKET not set, nothing to do")
		return nil
	}
	store, err := application.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	lister, ok := store.(sessionstore.Lister)
	if !ok {
		return fmt.Errorf("republish-tickets: %s store cannot list sessions", cfg.SessionStore)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	sessions, err := lister.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	log.Printf("republish-tickets: found %d sessions", len(sessions))

	producer := kafka.NewProducer(brokers, cfg.Kafka.TopicTicket)
	defer producer.Close()
	sent := 0
	for _, s := range sessions {
		for _, t := range s.Tickets {
			producer.Publish(ctx, kafka.TicketEvent{
				Event:             kafka.EventTicketCreated,
				SessionID:         s.ID,
				TicketNumber:      t.TicketNumber,
				IssueType:         t.IssueType,
				LinkedOrderNumber: t.LinkedOrderNumber,
				LinkedAttachment:  t.LinkedAttachment,
				AgentID:           t.AssignedAgentID,
				OccurredAt:        t.CreatedAt,
			})
			sent++
			if sent%50 == 0 {
				log.Printf("republish-tickets: sent %d events", sent)
			}
		}
	}
	log.Printf("republish-tickets: done, sent %d events to %s", sent, cfg.Kafka.TopicTicket)
	return nil
}
