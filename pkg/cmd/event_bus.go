package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/stepflow/pkg/channels/gochannel"
	"github.com/dukex/stepflow/pkg/channels/kafka"
	"github.com/dukex/stepflow/pkg/eventbus"
)

// NewEventBus creates the run event bus for provider. An empty provider or
// "none" disables events and returns nil.
func NewEventBus(provider, serviceName string, logger *slog.Logger) (eventbus.EventBus, error) {
	var (
		pub message.Publisher
		sub message.Subscriber
		err error
	)

	adapter := watermill.NewSlogLogger(logger)

	switch provider {
	case "", "none":
		return nil, nil
	case "gochannel":
		pub, sub, err = gochannel.CreateChannel(adapter)
	case "kafka":
		brokers, brokersErr := kafka.BrokersFromEnv()
		if brokersErr != nil {
			return nil, brokersErr
		}

		pub, sub, err = kafka.CreateChannel(adapter, brokers, serviceName)
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s pub/sub: %w", provider, err)
	}

	return eventbus.NewWatermillEventBus(pub, sub, logger), nil
}
