package app

import (
	"encoding/json"
	"fmt"

	"storefront/internal/logger"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// OrderEventsSubscription binds the audit queue to every order event.
var OrderEventsSubscription = rabbitmq.Subscription{
	Exchange:   services.OrderEventsExchange,
	Queue:      "order_events",
	BindingKey: "order.#",
}

// HandleOrderEvent logs an order event received from the broker.
func HandleOrderEvent(msg amqp.Delivery) error {
	var event services.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("failed to decode order event: %w", err)
	}
	if event.OrderID == "" {
		return fmt.Errorf("order event without order_id")
	}

	logger.L().Info("order event received",
		zap.String("routing_key", msg.RoutingKey),
		zap.String("order_id", event.OrderID),
		zap.String("order_number", event.OrderNumber),
		zap.String("status", string(event.Status)),
		zap.String("total", event.Total),
	)
	return nil
}
