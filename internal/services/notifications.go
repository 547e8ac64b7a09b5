package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/harentsoaR/reliefnet-api/internal/realtime"
)

const publishTimeout = 5 * time.Second

// NotificationService pushes records to connected clients after a
// mutation. Delivery is best-effort: a failed publish is logged and never
// fails the request that caused it.
type NotificationService struct {
	pub realtime.Publisher
	log *zap.Logger
}

func NewNotificationService(pub realtime.Publisher, log *zap.Logger) *NotificationService {
	return &NotificationService{pub: pub, log: log}
}

// Notify publishes one event. It is detached from the request context so a
// client disconnecting right after the response does not cancel it.
func (s *NotificationService) Notify(event string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.pub.Publish(ctx, realtime.Event{Name: event, Data: payload}); err != nil {
		s.log.Warn("realtime publish failed", zap.String("event", event), zap.Error(err))
		return
	}
	s.log.Debug("realtime event published", zap.String("event", event))
}

// NotifyDeleted publishes a *Deleted event carrying the record id.
func (s *NotificationService) NotifyDeleted(event, id string) {
	s.Notify(event, realtime.Deleted{ID: id})
}
