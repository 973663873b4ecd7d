// Manual harness for the audit pipeline: publisher backpressure, the outbox
// sink, and the relay worker, all in-process with a noop producer. Run it to
// watch the metrics while flooding the buffer.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	id "laurel/pkg/domain"
	audit "laurel/pkg/platform/audit"
	"laurel/pkg/platform/audit/outbox"
	outboxmetrics "laurel/pkg/platform/audit/outbox/metrics"
	outboxmemory "laurel/pkg/platform/audit/outbox/store/memory"
	outboxworker "laurel/pkg/platform/audit/outbox/worker"
	auditpublisher "laurel/pkg/platform/audit/publisher"
	auditmemory "laurel/pkg/platform/audit/store/memory"

	"laurel/internal/platform/kafka/producer"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	auditStore := auditmemory.NewInMemoryStore()
	outboxStore := outboxmemory.New()

	// Events stage in the outbox and land in the audit store, exactly as in
	// the server; the relay "publishes" them through the noop producer.
	sink := outbox.NewSink(outboxStore, outbox.WithNextStore(auditStore))
	publisher := auditpublisher.NewPublisher(
		sink,
		auditpublisher.WithAsyncBuffer(10), // Small buffer to test backpressure
		auditpublisher.WithPublisherLogger(logger),
	)
	relay := outboxworker.New(outboxStore, producer.NewNoopProducer(logger),
		outboxworker.WithTopic("laurel.audit.events"),
		outboxworker.WithPollInterval(200*time.Millisecond),
		outboxworker.WithMetrics(outboxmetrics.New()),
		outboxworker.WithLogger(logger),
	)
	relay.Start()

	// Start metrics server in background
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		fmt.Println("Metrics available at http://localhost:9090/metrics")
		if err := http.ListenAndServe(":9090", nil); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	ctx := context.Background()

	fmt.Println("\n=== Audit Pipeline Test ===")

	// Test 1: Emit some events normally
	fmt.Println("1. Emitting 5 events (should all succeed)...")
	for i := 0; i < 5; i++ {
		event := audit.Event{
			UserID:   id.UserID(uuid.New()),
			Subject:  uuid.New().String(),
			Action:   string(audit.EventCertificateMinted),
			Decision: "granted",
			Reason:   fmt.Sprintf("test event %d", i+1),
		}
		if err := publisher.Emit(ctx, event); err != nil {
			fmt.Printf("   Event %d failed: %v\n", i+1, err)
		} else {
			fmt.Printf("   Event %d emitted\n", i+1)
		}
		time.Sleep(50 * time.Millisecond) // Small delay to let worker process
	}

	// Give worker time to process
	time.Sleep(200 * time.Millisecond)

	// Test 2: Flood the buffer to trigger drops
	fmt.Println("\n2. Flooding buffer with 20 events (buffer size is 10)...")
	dropped := 0
	for i := 0; i < 20; i++ {
		event := audit.Event{
			UserID:   id.UserID(uuid.New()),
			Subject:  uuid.New().String(),
			Action:   string(audit.EventApprovalSigned),
			Decision: "granted",
			Reason:   fmt.Sprintf("flood event %d", i+1),
		}
		if err := publisher.Emit(ctx, event); err != nil {
			dropped++
		}
	}
	fmt.Printf("   Emitted 20 events, %d dropped due to full buffer\n", dropped)

	// Give the publisher and the relay time to drain
	time.Sleep(time.Second)

	// Test 3: Check both sides of the pipeline
	fmt.Println("\n3. Checking pipeline state...")
	fmt.Printf("   Events in audit store: %d\n", len(auditStore.All()))
	pending, _ := outboxStore.CountPending(ctx)
	fmt.Printf("   Outbox entries still pending: %d\n", pending)

	fmt.Println("\n=== Metrics Summary ===")
	fmt.Println("View full metrics at: http://localhost:9090/metrics")
	fmt.Println("Filter with: curl -s http://localhost:9090/metrics | grep laurel_")
	fmt.Println("\nPress Ctrl+C to exit...")

	// Keep server running
	select {}
}
