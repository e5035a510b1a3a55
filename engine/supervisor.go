package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/amiable-dev/midimon/action"
	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/device"
	"github.com/amiable-dev/midimon/feedback"
	"github.com/amiable-dev/midimon/gesture"
	"github.com/amiable-dev/midimon/logging"
	"github.com/amiable-dev/midimon/mapping"
	"github.com/amiable-dev/midimon/state"
)

// tickInterval drives the gesture processor's time-based detection (long
// press and similar); reconnection backoff runs on its own timer. It is
// independent of the feedback controller's own ~10Hz animation ticker.
const tickInterval = 50 * time.Millisecond

// Supervisor is the engine's single owner of configuration, mapping table,
// and engine state (spec §4.G). Its ipc.Handler methods are safe to call
// from any goroutine: each one except Validate (which reads no engine
// state) posts a request to the supervisor's own mailbox and waits for the
// reply, so once run has started every read and every mutation of engine
// state happens on exactly one goroutine (run). WatchReload and Start are
// called once, before run starts; Shutdown only closes a channel and waits.
type Supervisor struct {
	configPath string

	adapter   *device.Adapter
	processor *gesture.Processor
	executor  *action.Executor
	feedback  *feedback.Controller
	profile   *feedback.Profile

	statePath string

	mailbox      chan mailboxRequest
	shutdown     chan struct{}
	shutdownOnce sync.Once
	stopped      chan struct{}

	reloadSignal <-chan struct{} // from watcher.Watcher, may be nil

	// Fields below this line are touched only inside run().
	cfg            *config.Config
	table          *mapping.Table
	activeMode     int
	paused         bool
	st             State
	conn           ConnectionStatus
	counters       Counters
	startTime      time.Time
	backoffAttempt int
	reconnectTimer *time.Timer
	stateVars      map[string]string
	dirtyState     bool
}

// New builds a Supervisor for the configuration at configPath. It does not
// start anything; call Start.
func New(configPath string) (*Supervisor, error) {
	statePath, err := state.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("engine: resolve state path: %w", err)
	}
	return &Supervisor{
		configPath: configPath,
		statePath:  statePath,
		mailbox:    make(chan mailboxRequest, 8),
		shutdown:   make(chan struct{}),
		stopped:    make(chan struct{}),
		st:         StateIdle,
		conn:       ConnectionStatus{Kind: ConnDisconnected},
		stateVars:  make(map[string]string),
	}, nil
}

// WatchReload wires a watcher's signal channel in before Start is called.
func (s *Supervisor) WatchReload(sig <-chan struct{}) { s.reloadSignal = sig }

// Start loads the initial configuration, opens the device (best-effort,
// honoring auto_connect/auto_reconnect), restores persisted state, and
// launches the supervisor's single long-lived task.
func (s *Supervisor) Start() error {
	log := logging.Get(logging.Engine)
	s.st = StateStarting

	cfg, err := config.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("engine: initial config load: %w", err)
	}
	s.cfg = cfg
	s.table = mapping.Compile(cfg)

	doc := state.Load(s.statePath)
	s.activeMode = s.table.ClampMode(doc.ActiveMode)

	profile, _ := loadProfileIfSet(cfg.Device.ProfilePath)
	s.profile = profile

	s.processor = gesture.NewProcessor(cfg.Advanced, cfg.EncoderConventions())
	s.executor = action.NewExecutor()
	s.feedback = feedback.NewController(nil, numPadsFor(profile))

	s.adapter = device.NewAdapter(device.DefaultQueueCapacity, device.DefaultHeartbeatTimeout)
	s.startTime = time.Now()
	s.st = StateRunning

	if cfg.Device.AutoConnect {
		if _, err := s.openDevice(); err != nil {
			log.Warn("initial device open failed", "error", err)
			if cfg.Device.AutoReconnect {
				s.beginReconnecting()
			}
		}
	}

	go s.run()
	return nil
}

func loadProfileIfSet(path string) (*feedback.Profile, error) {
	if path == "" {
		return nil, nil
	}
	return feedback.LoadProfile(path)
}

func numPadsFor(p *feedback.Profile) int {
	if p == nil || p.NumPads == 0 {
		return 16
	}
	return p.NumPads
}

func (s *Supervisor) openDevice() (device.OpenedInfo, error) {
	if s.adapter == nil {
		s.conn = ConnectionStatus{Kind: ConnDisconnected}
		return device.OpenedInfo{}, fmt.Errorf("engine: no device adapter")
	}
	sel := device.Selector{NameHint: s.cfg.Device.NameHint, PortIndex: s.cfg.Device.PortIndex}
	info, err := s.adapter.Open(sel)
	if err != nil {
		s.conn = ConnectionStatus{Kind: ConnDisconnected}
		return info, err
	}
	s.conn = ConnectionStatus{Kind: ConnConnected, Port: info.Index, Name: info.Name}
	s.backoffAttempt = 0
	return info, nil
}

// run is the supervisor's one long-lived task (spec §4.G): it selects
// across raw MIDI events, IPC commands (via mailbox), config-reload
// notifications, device-status events, and periodic ticks. Nothing else
// in this package touches s.cfg, s.table, s.activeMode, s.paused, s.st,
// s.conn, or s.counters.
func (s *Supervisor) run() {
	log := logging.Get(logging.Engine)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	defer func() {
		s.st = StateStopped
		close(s.stopped)
	}()

	for {
		var reconnectC <-chan time.Time
		if s.reconnectTimer != nil {
			reconnectC = s.reconnectTimer.C
		}

		select {
		case <-s.shutdown:
			s.doStop()
			return

		case ev, ok := <-s.events():
			if !ok {
				continue
			}
			s.handleRawEvent(ev)

		case _, ok := <-s.lost():
			if ok {
				s.handleDeviceLost()
			}

		case <-s.reloadSignal:
			if err := s.performReload(s.configPath, ""); err != nil {
				log.Warn("config reload failed", "error", err)
			}

		case <-ticker.C:
			s.handleTick()

		case <-reconnectC:
			s.attemptReconnect()

		case req := <-s.mailbox:
			s.handleMailbox(req)
		}
	}
}

// events and lost return the adapter's channels, or nil (which blocks
// forever in a select, the idiomatic way to "not participate this round")
// when there is no adapter yet.
func (s *Supervisor) events() <-chan device.RawEvent {
	if s.adapter == nil {
		return nil
	}
	return s.adapter.Events()
}

func (s *Supervisor) lost() <-chan struct{} {
	if s.adapter == nil || s.conn.Kind != ConnConnected {
		return nil
	}
	return s.adapter.Lost()
}

func (s *Supervisor) handleRawEvent(ev device.RawEvent) {
	s.counters.EventsIn++
	now := time.Since(s.startTime)
	for _, gev := range s.processor.Feed(ev, now) {
		s.dispatchGestureEvent(gev)
	}
}

func (s *Supervisor) handleTick() {
	now := time.Since(s.startTime)
	for _, gev := range s.processor.Tick(now) {
		s.dispatchGestureEvent(gev)
	}
}

func (s *Supervisor) dispatchGestureEvent(ev gesture.Event) {
	if pp, ok := ev.(gesture.PadPressed); ok {
		s.feedback.OnPadPressed(s.padIndex(pp.Note))
	}
	if pr, ok := ev.(gesture.PadReleased); ok {
		s.feedback.OnPadReleased(s.padIndex(pr.Note))
	}

	if s.paused {
		return
	}

	m, found := mapping.Match(s.table, s.activeMode, ev)
	if !found {
		return
	}
	s.counters.EventsMatched++

	log := logging.Get(logging.Action)
	result := s.executor.Execute(m.Action, s.actionContext())
	s.counters.ActionsRun++
	if result.Err != nil {
		log.Warn("action execution failed", "description", m.Description, "error", result.Err)
	}
	if result.HasModeChange {
		s.applyModeChange(result.RequestedMode)
	}
}

func (s *Supervisor) padIndex(note uint8) int {
	idx, ok := s.profile.PadIndex(note)
	if !ok {
		return int(note)
	}
	return idx
}

func (s *Supervisor) actionContext() action.Context {
	return action.Context{
		ActiveMode:   s.table.ModeName(s.activeMode),
		Now:          time.Now,
		FrontmostApp: action.DefaultFrontmostApp,
		StateVar: func(name string) (string, bool) {
			v, ok := s.stateVars[name]
			return v, ok
		},
	}
}

// applyModeChange wraps and applies a requested mode change; it runs
// strictly between two processed events because it is only ever called
// synchronously from within dispatchGestureEvent, which run() never
// re-enters concurrently (spec §5 "a ModeChange action takes effect
// strictly before the next processed event entering the matching
// engine"). A ModeChange target is taken modulo the mode count rather
// than clamped (spec §3, §4.E; invariant #6: "ModeChange to index n ...
// selects n mod M") — ClampMode's "preserve, else 0" rule is reserved for
// the reload/boot path, where an out-of-range persisted or renamed mode
// should fall back to 0, not wrap.
func (s *Supervisor) applyModeChange(mode int) {
	s.activeMode = wrapMode(mode, len(s.table.Modes))
	s.dirtyState = true
	s.maybePersistState()
}

// wrapMode reduces mode into [0, count) by true modulo (not remainder),
// so a negative target wraps backward instead of producing a negative
// index. count is assumed > 0 (the engine never runs with zero modes).
func wrapMode(mode, count int) int {
	if count <= 0 {
		return 0
	}
	return ((mode % count) + count) % count
}

func (s *Supervisor) maybePersistState() {
	if !s.dirtyState {
		return
	}
	doc := state.Document{ActiveMode: s.activeMode, ShutdownTime: time.Now()}
	if err := state.Save(s.statePath, doc); err != nil {
		logging.Get(logging.State).Warn("state save failed", "error", err)
		return
	}
	s.dirtyState = false
}

func (s *Supervisor) doStop() {
	s.st = StateStopping
	if s.adapter != nil {
		s.adapter.Close()
	}
	s.feedback.Stop()
	doc := state.Document{ActiveMode: s.activeMode, ShutdownTime: time.Now()}
	if err := state.Save(s.statePath, doc); err != nil {
		logging.Get(logging.State).Warn("final state save failed", "error", err)
	}
}

// Shutdown signals the supervisor to shut down and blocks until it has.
// Safe to call more than once.
func (s *Supervisor) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
	<-s.stopped
}
