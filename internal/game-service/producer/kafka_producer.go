package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Nakshatra-thange/Coinflip/pkg/contracts/events"
)

// KafkaPublisher emits real-settlement events: submissions queued for
// the recorder worker and recorded-bet notifications.
type KafkaPublisher struct {
	Submitted *kafka.Writer
	Recorded  *kafka.Writer
}

func NewKafkaPublisher(submitted, recorded *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Submitted: submitted, Recorded: recorded}
}

func (p *KafkaPublisher) PublishBetSubmitted(ctx context.Context, e events.BetSubmitted) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, _ := json.Marshal(e)
	return p.Submitted.WriteMessages(ctx, kafka.Message{Key: []byte(e.TxSignature), Value: b})
}

func (p *KafkaPublisher) PublishBetRecorded(ctx context.Context, e events.BetRecorded) error {
	e.Ts = time.Now()
	b, _ := json.Marshal(e)
	return p.Recorded.WriteMessages(ctx, kafka.Message{Key: []byte(e.TxSignature), Value: b})
}
