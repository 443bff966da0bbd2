// internal/common/camunda/worker_test.go
package camunda

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubJobWorker struct {
	closed  chan struct{}
	drained chan struct{}
}

func (s *stubJobWorker) Close()      { close(s.closed) }
func (s *stubJobWorker) AwaitClose() { <-s.drained }

func TestCamundaWorker_Stop_WaitsForDrain(t *testing.T) {
	stub := &stubJobWorker{closed: make(chan struct{}), drained: make(chan struct{})}
	close(stub.drained)
	w := &CamundaWorker{worker: stub, logger: zap.NewNop(), taskType: "test-task"}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Stop(ctx)

	select {
	case <-stub.closed:
	default:
		t.Fatal("Close was not called")
	}
}

func TestCamundaWorker_Stop_HonorsDeadline(t *testing.T) {
	// AwaitClose never returns; Stop must still come back once the
	// context expires.
	stub := &stubJobWorker{closed: make(chan struct{}), drained: make(chan struct{})}
	defer close(stub.drained)
	w := &CamundaWorker{worker: stub, logger: zap.NewNop(), taskType: "test-task"}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Stop(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the context deadline")
	}
}
