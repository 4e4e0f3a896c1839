package daemon_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/tomatod/internal/client"
	"github.com/fakeyudi/tomatod/internal/config"
	"github.com/fakeyudi/tomatod/internal/daemon"
	"github.com/fakeyudi/tomatod/internal/render"
	"github.com/fakeyudi/tomatod/internal/store"
	"github.com/fakeyudi/tomatod/internal/timer"
	"github.com/fakeyudi/tomatod/internal/workflow"
)

// testHarness is one running daemon on throwaway paths.
type testHarness struct {
	cfg    config.Config
	client *client.Client
	store  store.StateStore
	cancel context.CancelFunc
	done   chan error
}

// startDaemon boots a daemon on temp paths and waits for its socket.
func startDaemon(t *testing.T, wf workflow.Workflow) *testHarness {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	cfg := config.Config{
		SocketPath:      tmp + "/tomatod.sock",
		ExportPath:      tmp + "/waybar.json",
		DefaultWorkflow: wf.Name,
		TickSeconds:     1,
	}
	st, err := store.NewStateStore()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := daemon.New(cfg, wf, st, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	h := &testHarness{
		cfg:    cfg,
		client: client.New(cfg.SocketPath),
		store:  st,
		cancel: cancel,
		done:   done,
	}
	t.Cleanup(h.stop)
	h.waitReady(t)
	return h
}

func (h *testHarness) waitReady(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("unix", h.cfg.SocketPath, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("daemon socket never came up")
}

func (h *testHarness) stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(3 * time.Second):
	}
}

func TestCommandLifecycle(t *testing.T) {
	h := startDaemon(t, workflow.Default())

	p, err := h.client.Command("start", "thesis")
	require.NoError(t, err)
	assert.Equal(t, "running", p.Class)
	assert.Contains(t, p.Text, "thesis")

	p, err = h.client.Command("pause", "")
	require.NoError(t, err)
	assert.Equal(t, "paused", p.Class)

	p, err = h.client.Status()
	require.NoError(t, err)
	assert.Equal(t, "paused", p.Class)

	p, err = h.client.Command("resume", "")
	require.NoError(t, err)
	assert.Equal(t, "running", p.Class)

	p, err = h.client.Command("stop", "")
	require.NoError(t, err)
	assert.Equal(t, "idle", p.Class)
}

func TestInvalidTransitionReported(t *testing.T) {
	h := startDaemon(t, workflow.Default())

	_, err := h.client.Command("pause", "")
	var reqErr *client.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "invalid_transition", reqErr.Kind)

	// State untouched by the failed command.
	p, err := h.client.Status()
	require.NoError(t, err)
	assert.Equal(t, "idle", p.Class)
}

func TestInfoReply(t *testing.T) {
	h := startDaemon(t, workflow.Default())

	_, err := h.client.Command("start", "reading")
	require.NoError(t, err)

	info, err := h.client.Info()
	require.NoError(t, err)
	assert.Equal(t, "running", info.Status)
	assert.Equal(t, "work", info.CurrentPhase)
	assert.Equal(t, "reading", info.Label)
	assert.Equal(t, "default", info.Workflow)
	assert.NotEmpty(t, info.InstanceID)
	assert.Greater(t, info.RemainingSeconds, 0)
}

// Two clients hammering pause/resume and status concurrently must
// never observe a malformed or partial state.
func TestConcurrentMutationsAndQueries(t *testing.T) {
	h := startDaemon(t, workflow.Default())

	_, err := h.client.Command("start", "")
	require.NoError(t, err)

	valid := map[string]bool{"idle": true, "running": true, "paused": true, "completed": true}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				verb := "pause"
				if j%2 == 1 {
					verb = "resume"
				}
				// Invalid transitions are expected when two pausers
				// race; only transport failures are test failures.
				if _, err := h.client.Command(verb, ""); err != nil {
					var reqErr *client.RequestError
					if !assert.ErrorAs(t, err, &reqErr) {
						return
					}
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				p, err := h.client.Status()
				if !assert.NoError(t, err) {
					return
				}
				assert.True(t, valid[p.Class], "status reply with class %q", p.Class)
				assert.NotEmpty(t, p.Text)
			}
		}()
	}
	wg.Wait()
}

func TestStatePersistedAcrossRestart(t *testing.T) {
	h := startDaemon(t, workflow.Default())

	_, err := h.client.Command("start", "")
	require.NoError(t, err)
	_, err = h.client.Command("skip", "")
	require.NoError(t, err)
	_, err = h.client.Command("pause", "")
	require.NoError(t, err)

	info, err := h.client.Info()
	require.NoError(t, err)
	h.stop()

	// Second daemon over the same store resumes where the first left
	// off. Paused state is immune to staleness correction.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := daemon.New(h.cfg, workflow.Default(), h.store, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	h.done = done
	h.cancel = cancel
	h.waitReady(t)

	again, err := h.client.Info()
	require.NoError(t, err)
	assert.Equal(t, "paused", again.Status)
	assert.Equal(t, info.CurrentPhase, again.CurrentPhase)
	assert.Equal(t, info.RemainingSeconds, again.RemainingSeconds)
	assert.Equal(t, info.CompletedWorkSessions, again.CompletedWorkSessions)
}

// Startup staleness: a snapshot running a work phase with 10s left,
// last updated 40s ago, must land in the following break with reduced,
// non-negative remaining time.
func TestStalenessCorrectionOnStartup(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	st, err := store.NewStateStore()
	require.NoError(t, err)

	wf := workflow.Default()
	snap := store.FromTimer(timer.State{
		Status:       timer.StatusRunning,
		CurrentPhase: workflow.PhaseWork,
		Remaining:    10 * time.Second,
		LastUpdated:  time.Now().Add(-40 * time.Second),
	}, wf)
	require.NoError(t, st.Save(snap))

	cfg := config.Config{
		SocketPath:      tmp + "/tomatod.sock",
		ExportPath:      tmp + "/waybar.json",
		DefaultWorkflow: wf.Name,
		TickSeconds:     1,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := daemon.New(cfg, wf, st, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	h := &testHarness{cfg: cfg, client: client.New(cfg.SocketPath), store: st, cancel: cancel, done: done}
	t.Cleanup(h.stop)
	h.waitReady(t)

	info, err := h.client.Info()
	require.NoError(t, err)
	assert.Equal(t, "running", info.Status)
	assert.Equal(t, "short_break", info.CurrentPhase)
	assert.Equal(t, 1, info.CompletedWorkSessions)
	// 5m break minus the 30s overshoot, allowing a few ticks of slack.
	assert.InDelta(t, 270, info.RemainingSeconds, 5)
	assert.GreaterOrEqual(t, info.RemainingSeconds, 0)
}

func TestCorruptedStateStartsFresh(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	st, err := store.NewStateStore()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(tmp+"/tomatod", 0o755))
	require.NoError(t, os.WriteFile(tmp+"/tomatod/state.json", []byte("{broken"), 0o644))

	cfg := config.Config{
		SocketPath:      tmp + "/tomatod.sock",
		ExportPath:      tmp + "/waybar.json",
		DefaultWorkflow: "default",
		TickSeconds:     1,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := daemon.New(cfg, workflow.Default(), st, logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	h := &testHarness{cfg: cfg, client: client.New(cfg.SocketPath), store: st, cancel: cancel, done: done}
	t.Cleanup(h.stop)
	h.waitReady(t)

	p, err := h.client.Status()
	require.NoError(t, err)
	assert.Equal(t, "idle", p.Class)
}

func TestExportFileTracksState(t *testing.T) {
	h := startDaemon(t, workflow.Default())

	readExport := func() render.Payload {
		data, err := os.ReadFile(h.cfg.ExportPath)
		require.NoError(t, err)
		var p render.Payload
		require.NoError(t, json.Unmarshal(data, &p))
		return p
	}

	assert.Equal(t, "idle", readExport().Class)

	_, err := h.client.Command("start", "")
	require.NoError(t, err)
	assert.Equal(t, "running", readExport().Class)

	_, err = h.client.Command("pause", "")
	require.NoError(t, err)
	assert.Equal(t, "paused", readExport().Class)
}

func TestFinalSnapshotOnShutdown(t *testing.T) {
	h := startDaemon(t, workflow.Default())

	_, err := h.client.Command("start", "")
	require.NoError(t, err)
	h.stop()

	snap, err := h.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "running", snap.Status)
	assert.Equal(t, "work", snap.CurrentPhase)

	// The socket file is gone after a clean shutdown.
	_, statErr := os.Stat(h.cfg.SocketPath)
	assert.True(t, os.IsNotExist(statErr))
}
