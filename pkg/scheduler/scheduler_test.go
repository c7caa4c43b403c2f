package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costlens/costlens/pkg/models"
	"github.com/costlens/costlens/pkg/store"
)

type recordingProcessor struct {
	mu        sync.Mutex
	processed []string
	block     chan struct{}
}

func (p *recordingProcessor) ProcessWorkspace(_ context.Context, workspaceID string) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, workspaceID)
	return nil
}

func (p *recordingProcessor) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedWorkspaces(t *testing.T, st *store.Memory, names ...string) []string {
	t.Helper()
	var ids []string
	for _, name := range names {
		ws := &models.Workspace{Name: name, RoleArn: "arn:aws:iam::123456789012:role/" + name}
		require.NoError(t, st.CreateWorkspace(context.Background(), ws))
		ids = append(ids, ws.ID)
	}
	return ids
}

func TestTickProcessesAllWorkspacesSequentially(t *testing.T) {
	st := store.NewMemory()
	ids := seedWorkspaces(t, st, "alpha", "beta", "gamma")

	proc := &recordingProcessor{}
	s := New(st, proc, "*/1 * * * *", discardLogger())

	s.Tick(context.Background())
	assert.Equal(t, ids, proc.snapshot(), "workspaces processed in listing order")
}

func TestOverlappingTicksRunExactlyOnce(t *testing.T) {
	st := store.NewMemory()
	seedWorkspaces(t, st, "alpha")

	proc := &recordingProcessor{block: make(chan struct{})}
	s := New(st, proc, "*/1 * * * *", discardLogger())

	first := make(chan struct{})
	go func() {
		s.Tick(context.Background())
		close(first)
	}()

	// Wait until the first tick holds the guard.
	require.Eventually(t, func() bool { return s.running.Load() },
		time.Second, time.Millisecond)

	// The second invocation must bounce off the guard without processing.
	s.Tick(context.Background())
	assert.Empty(t, proc.snapshot())

	close(proc.block)
	<-first
	assert.Len(t, proc.snapshot(), 1, "exactly one tick proceeded")

	// Guard released: the next tick runs normally.
	s.Tick(context.Background())
	assert.Len(t, proc.snapshot(), 2)
}

func TestTickStopsOnCancelledContext(t *testing.T) {
	st := store.NewMemory()
	seedWorkspaces(t, st, "alpha", "beta")

	proc := &recordingProcessor{}
	s := New(st, proc, "*/1 * * * *", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Tick(ctx)
	assert.Empty(t, proc.snapshot())
	assert.False(t, s.running.Load(), "guard must be released after a cancelled sweep")
}
