package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vehicle-orders/internal/domain/order"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go"
)

var _ order.TransitionSink = (*TransitionSink)(nil)

// TransitionSink records order status transitions in OpenSearch for
// audit queries.
type TransitionSink struct {
	client *opensearch.Client
	index  string
}

func NewTransitionSink(ctx context.Context, urls []string, index string) (*TransitionSink, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	cfg := opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}
	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	sink := &TransitionSink{client: client, index: index}

	if err := sink.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return sink, nil
}

func (s *TransitionSink) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"event_id":        map[string]any{"type": "keyword"},
				"order_id":        map[string]any{"type": "keyword"},
				"from":            map[string]any{"type": "keyword"},
				"to":              map[string]any{"type": "keyword"},
				"trigger":         map[string]any{"type": "keyword"},
				"transaction_ref": map[string]any{"type": "keyword"},
				"occurred_at":     map[string]any{"type": "date"},
			},
		},
		"settings": map[string]any{
			"number_of_replicas": 0, // dev-friendly; change in prod
		},
	}
	buf, _ := json.Marshal(body)
	cr, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	if cr.IsError() {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

type osTransitionDoc struct {
	EventID        string    `json:"event_id"`
	OrderID        string    `json:"order_id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	Trigger        string    `json:"trigger"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (s *TransitionSink) RecordTransition(ctx context.Context, ev order.TransitionEvent) error {
	eventID := uuid.NewString()
	occurredAt := ev.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	doc := osTransitionDoc{
		EventID:        eventID,
		OrderID:        ev.OrderId,
		From:           string(ev.From),
		To:             string(ev.To),
		Trigger:        ev.Trigger,
		TransactionRef: ev.TransactionRef,
		OccurredAt:     occurredAt.UTC(),
	}
	payload, _ := json.Marshal(doc)

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(payload),
		s.client.Index.WithDocumentID(eventID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}

// NopSink discards transition events. Used when OpenSearch is not configured.
type NopSink struct{}

func (NopSink) RecordTransition(context.Context, order.TransitionEvent) error { return nil }
