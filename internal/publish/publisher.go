// Package publish emits a run summary to a Pub/Sub topic so downstream
// viewer-config pipelines can react to fresh harvests.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// RunSummary describes one completed harvest run.
type RunSummary struct {
	RunID    string `json:"run_id"`
	Mode     string `json:"mode"`
	Services int    `json:"services"`
	Failures int    `json:"failures"`
	Updated  string `json:"updated"`
}

// Publisher wraps a Pub/Sub topic.
type Publisher struct {
	topic *pubsub.Topic
}

// New creates a Publisher for the given topic.
func New(topic *pubsub.Topic) *Publisher {
	return &Publisher{topic: topic}
}

// Publish sends the summary as a JSON message and waits for the server ack.
func (p *Publisher) Publish(ctx context.Context, summary RunSummary) (string, error) {
	if p.topic == nil {
		return "", fmt.Errorf("pubsub topic is not configured")
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal run summary: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish run summary: %w", err)
	}
	return id, nil
}
