// Package notify delivers user-facing messages. The sink is passed into the
// lifecycle services explicitly; delivery past the persisted row is
// best-effort.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/wiseroute/transport-booking/internal/models"
	"github.com/wiseroute/transport-booking/internal/repository"
	"github.com/wiseroute/transport-booking/pkg/rabbitmq"
)

type Message struct {
	RecipientID string `json:"recipient_id"`
	Title       string `json:"title"`
	Body        string `json:"message"`
	Type        string `json:"type"`
}

type Sink interface {
	Notify(ctx context.Context, msg Message)
}

type sink struct {
	repo      repository.NotificationRepository
	publisher *rabbitmq.Publisher // nil when no broker is configured
	log       *zap.SugaredLogger
}

func NewSink(repo repository.NotificationRepository, publisher *rabbitmq.Publisher, log *zap.SugaredLogger) Sink {
	return &sink{repo: repo, publisher: publisher, log: log}
}

// Notify stores the notification row and fans it out to the broker. Neither
// failure reaches the caller: a lost notification must not roll back a
// booking or invoice transition.
func (s *sink) Notify(ctx context.Context, msg Message) {
	row := &models.Notification{
		RecipientID: msg.RecipientID,
		Title:       msg.Title,
		Message:     msg.Body,
		Type:        msg.Type,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.log.Errorw("persist notification", "recipient", msg.RecipientID, "type", msg.Type, "error", err)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish("notification."+msg.Type, msg); err != nil {
		s.log.Warnw("publish notification", "recipient", msg.RecipientID, "type", msg.Type, "error", err)
	}
}
