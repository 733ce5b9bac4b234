package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"walletproof/internal/models"
)

const TopicWalletConnected = "walletproof.wallet_connected"

// WalletConnectedEvent is published once a proof has been accepted and the
// address stored for the user.
type WalletConnectedEvent struct {
	UserID      int64        `json:"user_id"`
	Chain       models.Chain `json:"chain"`
	Address     string       `json:"address"`
	ConnectedAt time.Time    `json:"connected_at"`
}

type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     TopicWalletConnected,
	}
}

func (p *WatermillPublisher) PublishWalletConnected(ctx context.Context, event WalletConnectedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
