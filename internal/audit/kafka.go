package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Topic names per event category. Separate topics let downstream consumers
// apply per-category retention.
const (
	TopicCompliance = "rdapgate.audit.compliance"
	TopicSecurity   = "rdapgate.audit.security"
	TopicOperations = "rdapgate.audit.operations"
)

func topicFor(category EventCategory) string {
	switch category {
	case CategoryCompliance:
		return TopicCompliance
	case CategorySecurity:
		return TopicSecurity
	default:
		return TopicOperations
	}
}

// kafkaPayload is the JSON structure published to the broker.
type kafkaPayload struct {
	Category     string `json:"category"`
	Timestamp    string `json:"timestamp"`
	Action       string `json:"action"`
	QueryType    string `json:"query_type,omitempty"`
	QueryValue   string `json:"query_value,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Registry     string `json:"registry,omitempty"`
	Outcome      string `json:"outcome,omitempty"`
	Reason       string `json:"reason,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
}

// KafkaPublisher emits audit events to category-specific topics.
type KafkaPublisher struct {
	client *kgo.Client
}

// NewKafkaPublisher connects to the given seed brokers.
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client}, nil
}

// Publish produces the event to its category topic, keyed by query value so
// events for the same target land on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload := kafkaPayload{
		Category:     string(event.Category),
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
		Action:       event.Action,
		QueryType:    event.QueryType,
		QueryValue:   event.QueryValue,
		Jurisdiction: event.Jurisdiction,
		Registry:     event.Registry,
		Outcome:      event.Outcome,
		Reason:       event.Reason,
		RequestID:    event.RequestID,
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: topicFor(event.Category),
		Key:   []byte(event.QueryValue),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}
