package workers

import (
	"context"
	"testing"
	"time"

	"recoup/contexts/filing-core/claim-engine/ports"
)

type fakeOutbox struct {
	rows      []ports.OutboxMessage
	published []string
	failed    []string
}

func (f *fakeOutbox) ListPendingOutbox(_ context.Context, _ int) ([]ports.OutboxMessage, error) {
	return f.rows, nil
}

func (f *fakeOutbox) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	f.published = append(f.published, outboxID)
	return nil
}

func (f *fakeOutbox) MarkOutboxFailed(_ context.Context, outboxID string, _ time.Time) error {
	f.failed = append(f.failed, outboxID)
	return nil
}

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	return nil
}

func TestOutboxRelayDeadLettersUndecodableRows(t *testing.T) {
	outbox := &fakeOutbox{
		rows: []ports.OutboxMessage{
			{
				OutboxID:  "out-bad",
				EventType: "claim.filed",
				Payload:   []byte(`{not-json`),
				CreatedAt: time.Now().UTC(),
			},
			{
				OutboxID:  "out-good",
				EventType: "claim.filed",
				Payload:   []byte(`{"event_id":"evt-1","event_type":"claim.filed","schema_version":1}`),
				CreatedAt: time.Now().UTC(),
			},
		},
	}
	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: outbox, Publisher: publisher}

	// One poison row must not wedge the relay: the decodable row behind it
	// still publishes and the cycle reports success.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "claim.filed" {
		t.Fatalf("expected one published event, got %v", publisher.topics)
	}
	if len(outbox.published) != 1 || outbox.published[0] != "out-good" {
		t.Fatalf("expected out-good marked published, got %v", outbox.published)
	}
	if len(outbox.failed) != 1 || outbox.failed[0] != "out-bad" {
		t.Fatalf("expected out-bad dead-lettered, got %v", outbox.failed)
	}

	// A second cycle over the same pending set must not re-fail rows that
	// were already dead-lettered upstream; here the list is simply drained.
	outbox.rows = nil
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run once: %v", err)
	}
	if len(outbox.failed) != 1 {
		t.Fatalf("expected no further dead-letters, got %v", outbox.failed)
	}
}
