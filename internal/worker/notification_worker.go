package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/service"
)

// StartNotificationWorker registers the event subscribers on the dispatcher:
// notification handlers and, when configured, the Redis channel publisher.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, publisher *events.RedisPublisher, logger *zap.Logger) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if dispatcher != nil && publisher != nil {
		dispatcher.SubscribeAll(publisher.Handle)
		logger.Info("redis event publisher subscribed")
	}
}
