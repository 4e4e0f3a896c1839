// Package daemon runs the tomatod background process: a single event
// loop that owns the timer state and serializes every mutation coming
// from the ticker and from control-socket clients.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/tomatod/internal/config"
	"github.com/fakeyudi/tomatod/internal/render"
	"github.com/fakeyudi/tomatod/internal/server"
	"github.com/fakeyudi/tomatod/internal/store"
	"github.com/fakeyudi/tomatod/internal/timer"
	"github.com/fakeyudi/tomatod/internal/workflow"
)

// saveEveryTicks is the periodic persistence cadence while running, so
// an abrupt kill loses at most this many seconds of countdown.
const saveEveryTicks = 10

// request is one mutation intent queued for the event loop.
type request struct {
	req   server.Request
	reply chan result
}

type result struct {
	value any
	err   error
}

// Daemon wires the engine, store, control server, and export file
// together.
type Daemon struct {
	cfg    config.Config
	engine *timer.Engine
	store  store.StateStore
	srv    *server.Server
	logger *slog.Logger

	requests chan request
	// snapshot is the lock-free read path for status and info queries.
	// Refreshed by the event loop after every mutation.
	snapshot atomic.Pointer[timer.State]

	instanceID string
	startedAt  time.Time
	// done is closed when the event loop exits so in-flight handlers
	// never block on a queue nobody drains.
	done chan struct{}
}

// New assembles a daemon over the given workflow and state store.
func New(cfg config.Config, wf workflow.Workflow, st store.StateStore, logger *slog.Logger) *Daemon {
	d := &Daemon{
		cfg:        cfg,
		engine:     timer.New(wf),
		store:      st,
		logger:     logger,
		requests:   make(chan request, 16),
		instanceID: uuid.New().String(),
		done:       make(chan struct{}),
	}
	d.srv = server.New(cfg.SocketPath, d.handle, logger)
	return d
}

// Run restores persisted state, binds the control socket, and drives
// the event loop until ctx is cancelled. Only a socket-binding failure
// is fatal.
func (d *Daemon) Run(ctx context.Context) error {
	d.startedAt = time.Now()
	d.restore()
	st := d.engine.State()
	d.snapshot.Store(&st)

	d.persist()
	d.export()

	if err := d.srv.Listen(); err != nil {
		return err
	}
	defer d.srv.Close()
	go d.srv.Serve(ctx)

	d.logger.Info("daemon started",
		"instance", d.instanceID,
		"workflow", d.engine.Workflow().Name,
		"socket", d.cfg.SocketPath)

	d.loop(ctx)

	// Final flush so the next startup resumes from the exact state.
	d.persist()
	d.logger.Info("daemon stopped", "instance", d.instanceID)
	return nil
}

// restore loads the last snapshot and applies the staleness
// correction. A missing or corrupt snapshot starts fresh; neither is
// fatal.
func (d *Daemon) restore() {
	snap, err := d.store.Load()
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNoState):
		return
	case errors.Is(err, store.ErrCorrupted):
		d.logger.Warn("persisted state corrupted, starting fresh", "error", err)
		return
	default:
		d.logger.Warn("could not load persisted state, starting fresh", "error", err)
		return
	}

	st := snap.ToTimer()
	d.engine.Restore(st)

	elapsed := time.Since(st.LastUpdated)
	if d.engine.CatchUp(elapsed) {
		after := d.engine.State()
		d.logger.Info("caught up phases missed while daemon was down",
			"away", elapsed.Truncate(time.Second),
			"phase", after.CurrentPhase,
			"status", after.Status)
	} else {
		d.logger.Info("restored persisted state",
			"status", st.Status, "phase", st.CurrentPhase,
			"remaining", st.Remaining)
	}
}

// loop is the single serialization point. Exactly one intent, tick or
// command, mutates the engine at a time.
func (d *Daemon) loop(ctx context.Context) {
	defer close(d.done)
	ticker := time.NewTicker(d.cfg.TickInterval())
	defer ticker.Stop()

	lastTick := time.Now()
	ticksSinceSave := 0

	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			lastTick = d.applyTick(now, lastTick, &ticksSinceSave)

		case r := <-d.requests:
			// A tick already due is applied first, so a skip racing a
			// phase boundary sees the countdown it would have seen
			// had the tick won.
			select {
			case now := <-ticker.C:
				lastTick = d.applyTick(now, lastTick, &ticksSinceSave)
			default:
			}
			value, err := d.apply(r.req)
			r.reply <- result{value: value, err: err}
		}
	}
}

// applyTick advances the countdown by the real elapsed interval since
// the previous tick. Coalesced ticks after contention or suspend are
// not lost: the decrement covers the full elapsed amount.
func (d *Daemon) applyTick(now, lastTick time.Time, ticksSinceSave *int) time.Time {
	elapsed := now.Sub(lastTick)

	wasRunning := d.engine.State().Status == timer.StatusRunning
	transitioned := d.engine.Tick(elapsed)
	d.publish()

	if !wasRunning {
		return now
	}
	d.export()
	*ticksSinceSave++
	if transitioned {
		st := d.engine.State()
		d.logger.Info("phase advanced",
			"phase", st.CurrentPhase,
			"status", st.Status,
			"sessions", st.CompletedWorkSessions)
	}
	if transitioned || *ticksSinceSave >= saveEveryTicks {
		d.persist()
		*ticksSinceSave = 0
	}
	return now
}

// apply executes one mutating command against the engine, then
// persists and re-exports. Failed commands leave the state exactly as
// it was.
func (d *Daemon) apply(req server.Request) (any, error) {
	var err error
	switch req.Kind {
	case server.KindStart:
		err = d.engine.Start(req.Label)
	case server.KindStop:
		d.engine.Stop()
	case server.KindPause:
		err = d.engine.Pause()
	case server.KindResume:
		err = d.engine.Resume()
	case server.KindSkip:
		err = d.engine.Skip()
	default:
		err = server.ErrParse
	}
	if err != nil {
		return nil, err
	}

	d.publish()
	d.persist()
	d.export()

	st := d.engine.State()
	d.logger.Info("command applied",
		"command", req.Kind.String(),
		"status", st.Status,
		"phase", st.CurrentPhase,
		"remaining", st.Remaining)
	return render.Render(st, d.engine.Workflow()), nil
}

// handle serves one parsed request on behalf of a client connection.
// Queries answer from the published snapshot without entering the
// event loop; mutations are queued and answered in arrival order.
func (d *Daemon) handle(req server.Request) (any, error) {
	if !req.Kind.Mutating() {
		st := d.snapshot.Load()
		if req.Kind == server.KindInfo {
			return d.info(*st), nil
		}
		return render.Render(*st, d.engine.Workflow()), nil
	}

	r := request{req: req, reply: make(chan result, 1)}
	select {
	case d.requests <- r:
	case <-d.done:
		return nil, errors.New("daemon shutting down")
	}
	select {
	case res := <-r.reply:
		return res.value, res.err
	case <-d.done:
		return nil, errors.New("daemon shutting down")
	}
}

// info builds the full-state reply for the info request.
func (d *Daemon) info(st timer.State) server.InfoReply {
	return server.InfoReply{
		Status:                string(st.Status),
		CurrentPhase:          string(st.CurrentPhase),
		RemainingSeconds:      int(st.Remaining / time.Second),
		CompletedWorkSessions: st.CompletedWorkSessions,
		LastUpdatedAt:         st.LastUpdated.Format(time.RFC3339),
		Label:                 st.Label,
		Workflow:              d.engine.Workflow().Name,
		InstanceID:            d.instanceID,
		UptimeSeconds:         int(time.Since(d.startedAt) / time.Second),
	}
}

// publish refreshes the lock-free snapshot read by query requests.
func (d *Daemon) publish() {
	st := d.engine.State()
	d.snapshot.Store(&st)
}

// persist writes the current state through the store. Failures are
// logged and the daemon keeps running on its in-memory state.
func (d *Daemon) persist() {
	snap := store.FromTimer(d.engine.State(), d.engine.Workflow())
	if err := d.store.Save(snap); err != nil {
		d.logger.Error("saving state failed", "error", err)
	}
}

// export overwrites the status-bar payload file. One-way projection:
// nothing ever reads it back.
func (d *Daemon) export() {
	payload := render.Render(d.engine.State(), d.engine.Workflow())
	if err := writeExport(d.cfg.ExportPath, payload); err != nil {
		d.logger.Error("writing export file failed", "error", err)
	}
}
