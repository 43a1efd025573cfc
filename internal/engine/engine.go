package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"strategy_dash/internal/domain"
	"strategy_dash/internal/event"
	"strategy_dash/internal/gateway"
	"strategy_dash/internal/gesture"
	"strategy_dash/internal/infra"
	"strategy_dash/internal/infra/storage"
	"strategy_dash/internal/merge"
	"strategy_dash/internal/notify"
	"strategy_dash/internal/view"
)

// HistoryStore records fired alerts for the running session.
type HistoryStore interface {
	Append(a domain.PriceAlert, at time.Time) error
	Replace(alerts []domain.PriceAlert, at time.Time) error
	Recent(limit int) ([]storage.Entry, error)
	ForSymbol(symbol string, limit int) ([]storage.Entry, error)
}

// View is what one strategy card displays.
type View struct {
	Strategy string
	Rows     []domain.InstrumentRecord
	Sort     domain.SortSpec
	Filter   domain.FilterSpec
	Height   int
}

// Status is the connection indicator plus session-level switches.
type Status struct {
	Connected bool
	Text      string
	View      string
	Paused    bool
}

// Options wires an Engine. Only Gateway is required.
type Options struct {
	Inbox        chan event.Event // optional; created with InboxSize when nil
	InboxSize    int
	TickInterval time.Duration
	DefaultSort  domain.SortSpec
	Gateway      *gateway.Gateway
	Notifier     *notify.Center
	Layout       *gesture.Layout
	History      HistoryStore
	Metrics      *infra.Metrics
	DumpFile     string

	// OnViewUpdate is called from the event loop after a view changes.
	OnViewUpdate func(View)
}

// Engine is the single-threaded core: every merge, recompute and reconcile
// happens inside one event-loop turn, so no view ever sees a half-merged set.
type Engine struct {
	inbox chan event.Event
	opts  Options

	data     domain.DataSet
	views    map[string]*view.Controller
	rendered map[string][]domain.InstrumentRecord
	text     string
	settings domain.NotificationSettings
	status   Status

	gw       *gateway.Gateway
	notifier *notify.Center
	layout   *gesture.Layout
	history  HistoryStore
	metrics  *infra.Metrics
	logger   *slog.Logger

	mu sync.RWMutex // guards state against external reads
}

// New creates an engine.
func New(opts Options) *Engine {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 1024
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.DefaultSort.Field == "" {
		opts.DefaultSort = domain.DefaultSort
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewCenter(0, 0, nil)
	}
	if opts.Layout == nil {
		opts.Layout = gesture.NewLayout(0, 0)
	}
	if opts.Metrics == nil {
		opts.Metrics = infra.GlobalMetrics
	}
	if opts.DumpFile == "" {
		opts.DumpFile = "panic_dump.json"
	}
	inbox := opts.Inbox
	if inbox == nil {
		inbox = make(chan event.Event, opts.InboxSize)
	}
	return &Engine{
		inbox:    inbox,
		opts:     opts,
		data:     make(domain.DataSet),
		views:    make(map[string]*view.Controller),
		rendered: make(map[string][]domain.InstrumentRecord),
		settings: make(domain.NotificationSettings),
		status:   Status{Text: "Connecting..."},
		gw:       opts.Gateway,
		notifier: opts.Notifier,
		layout:   opts.Layout,
		history:  opts.History,
		metrics:  opts.Metrics,
		logger:   slog.Default().With("module", "engine"),
	}
}

// Inbox returns the event channel. The channel client and the UI send events here.
func (e *Engine) Inbox() chan<- event.Event {
	return e.inbox
}

// Submit queues an event, blocking until there is room or ctx is done.
func (e *Engine) Submit(ctx context.Context, ev event.Event) error {
	select {
	case e.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the main event loop. This MUST be run in a single goroutine.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Engine started (single-threaded event loop)")

	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine stopping...", slog.Any("metrics", e.metrics.Snapshot()))
			return
		case ev := <-e.inbox:
			e.processEvent(ev)
		case now := <-ticker.C:
			e.processEvent(&event.TickEvent{BaseEvent: event.BaseEvent{Ts: now}})
		}
	}
}

func (e *Engine) processEvent(ev event.Event) {
	start := time.Now()
	e.mu.Lock()
	defer func() {
		if r := recover(); r != nil {
			e.metrics.RecordError()
			e.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r), slog.String("event", string(ev.GetType())))
			e.dumpStateLocked(e.opts.DumpFile)
		}
		e.mu.Unlock()
		e.metrics.RecordEvent(time.Since(start).Nanoseconds())
	}()

	switch ev := ev.(type) {
	case *event.SnapshotEvent:
		e.handlePatch(ev.Data, "snapshot")
	case *event.UpdateEvent:
		e.handlePatch(ev.Patch, "update")
	case *event.AlertListEvent:
		e.gw.ReplaceAlerts(ev.Alerts)
		e.logger.Debug("Alert list replaced", slog.Int("alerts", len(ev.Alerts)))
	case *event.AlertDeletedEvent:
		if !e.gw.RemoveAlert(ev.ID) {
			e.logger.Debug("Delete echo for unknown alert", slog.Int64("id", ev.ID))
		}
	case *event.AlertTriggeredEvent:
		e.handleAlertTriggered(ev)
	case *event.AlertHistoryEvent:
		if e.history != nil {
			if err := e.history.Replace(ev.Alerts, ev.GetTs()); err != nil {
				e.logger.Warn("Failed to replace alert history", slog.Any("error", err))
			}
		}
	case *event.NotificationEvent:
		e.notifier.Notify(ev.Notification, ev.GetTs())
	case *event.ServerStatusEvent:
		e.logger.Info("Server status", slog.String("status", ev.Status))
	case *event.ConnectionEvent:
		e.handleConnection(ev)
	case *event.TickEvent:
		e.notifier.Expire(ev.GetTs())
	case *event.SortChangeEvent:
		e.handleSort(ev)
	case *event.FilterChangeEvent:
		c := e.controller(ev.Strategy)
		e.publish(ev.Strategy, c.SetColumnFilter(ev.Field, ev.Value, e.data[ev.Strategy]), true)
	case *event.TextFilterEvent:
		e.text = ev.Text
		for _, name := range e.strategies() {
			e.publish(name, e.views[name].SetText(ev.Text, e.data[name]), true)
		}
	case *event.ViewChangeEvent:
		e.status.View = ev.View
		e.gw.ChangeView(ev.View)
		e.recomputeAll()
	case *event.LayoutResetEvent:
		e.layout.Reset()
		e.gw.ResetLayout()
		e.recomputeAll()
	case *event.AlertCommandEvent:
		e.handleAlertCommand(ev)
	case *event.NotificationSettingsEvent:
		e.settings = ev.Settings.Clone()
		e.gw.UpdateNotificationSettings(e.settings)
	case *event.PauseEvent:
		if e.gw.PauseUpdates(ev.Paused) == nil {
			e.status.Paused = ev.Paused
		}
	default:
		e.logger.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}
}

// handlePatch merges and then reconciles only the strategies the patch named.
// New strategies get their first order snapshot here.
func (e *Engine) handlePatch(patch domain.DataSet, kind string) {
	e.data = merge.Apply(e.data, patch)
	e.metrics.RecordPatch()

	for _, name := range merge.Touched(patch) {
		if _, ok := e.views[name]; !ok {
			e.publish(name, e.controller(name).Recompute(e.data[name]), true)
			continue
		}
		e.publish(name, e.views[name].Reconcile(e.data[name]), false)
	}
	e.logger.Debug("Patch applied", slog.String("kind", kind), slog.Int("strategies", len(patch)))
}

func (e *Engine) handleSort(ev *event.SortChangeEvent) {
	c := e.controller(ev.Strategy)
	group := e.data[ev.Strategy]
	if ev.Toggle {
		e.publish(ev.Strategy, c.ToggleSort(ev.Spec.Field, group), true)
		return
	}
	e.publish(ev.Strategy, c.SetSort(ev.Spec, group), true)
}

func (e *Engine) handleConnection(ev *event.ConnectionEvent) {
	if !ev.Connected {
		e.status.Connected = false
		e.status.Text = "Disconnected"
		e.notifier.Push(notify.KindStatus, "Disconnected", errText(ev.Err), ev.GetTs())
		e.logger.Warn("Channel disconnected", slog.Any("error", ev.Err))
		return
	}

	e.status.Connected = true
	e.status.Text = "Connected"
	e.notifier.Push(notify.KindStatus, "Connected", "", ev.GetTs())
	e.logger.Info("Channel connected, requesting full resync")

	// Full resync on every (re)connect. Local data stays; the snapshot merges over it.
	e.gw.Resync()
	if e.status.View != "" {
		e.gw.ChangeView(e.status.View)
	}
	if len(e.settings) > 0 {
		e.gw.UpdateNotificationSettings(e.settings)
	}
	if e.status.Paused {
		e.gw.PauseUpdates(true)
	}
}

func (e *Engine) handleAlertTriggered(ev *event.AlertTriggeredEvent) {
	e.notifier.AlertTriggered(ev.Alert, ev.GetTs())
	e.logger.Info("Alert triggered", slog.Int64("id", ev.Alert.ID), slog.String("alert", ev.Alert.Describe()))
	if e.history != nil {
		if err := e.history.Append(ev.Alert, ev.GetTs()); err != nil {
			e.logger.Warn("Failed to record alert trigger", slog.Any("error", err))
		}
	}
}

func (e *Engine) handleAlertCommand(ev *event.AlertCommandEvent) {
	var err error
	switch ev.Action {
	case event.AlertCreate:
		var req domain.AlertRequest
		if req, err = domain.NewAlertRequest(ev.Symbol, ev.Operator, ev.Value); err == nil {
			err = e.gw.CreateAlert(req)
		}
	case event.AlertUpdate:
		var req domain.AlertRequest
		if req, err = domain.NewAlertRequest(ev.Symbol, ev.Operator, ev.Value); err == nil {
			req.ID = ev.ID
			err = e.gw.UpdateAlert(req)
		}
	case event.AlertDelete:
		err = e.gw.DeleteAlert(ev.ID)
	}
	if err != nil {
		e.logger.Warn("Alert command rejected", slog.String("action", ev.Action.String()), slog.Any("error", err))
	}
}

// controller returns the view controller of a strategy, creating it on first
// use. Callers recompute right after.
func (e *Engine) controller(name string) *view.Controller {
	c, ok := e.views[name]
	if !ok {
		c = view.NewController(e.opts.DefaultSort, domain.FilterSpec{Text: e.text})
		e.views[name] = c
	}
	return c
}

func (e *Engine) recomputeAll() {
	for _, name := range e.strategies() {
		e.publish(name, e.views[name].Recompute(e.data[name]), true)
	}
}

func (e *Engine) strategies() []string {
	names := make([]string, 0, len(e.views))
	for name := range e.views {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) publish(name string, rows []domain.InstrumentRecord, recomputed bool) {
	if recomputed {
		e.metrics.RecordRecompute()
	} else {
		e.metrics.RecordReconcile()
	}
	e.rendered[name] = rows
	if e.opts.OnViewUpdate != nil {
		e.opts.OnViewUpdate(e.viewLocked(name))
	}
}

func (e *Engine) viewLocked(name string) View {
	c := e.views[name]
	rendered := e.rendered[name]
	rows := make([]domain.InstrumentRecord, len(rendered))
	for i, r := range rendered {
		rows[i] = r.Clone()
	}
	return View{
		Strategy: name,
		Rows:     rows,
		Sort:     c.Sort(),
		Filter:   c.Filter(),
		Height:   e.layout.Height(name),
	}
}

// ==================================================================
// External reads
// ==================================================================

// View returns the displayed rows of one strategy.
func (e *Engine) View(strategy string) (View, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, ok := e.views[strategy]; !ok {
		return View{}, false
	}
	return e.viewLocked(strategy), true
}

// Strategies lists known strategies in display order (sorted by name).
func (e *Engine) Strategies() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.strategies()
}

// Alerts returns the server-confirmed alerts.
func (e *Engine) Alerts() []domain.PriceAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gw.Alerts()
}

// Toasts returns the visible transient notifications.
func (e *Engine) Toasts() []notify.Toast {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.notifier.Toasts()
}

// Notifications returns the kept system notifications of one category.
func (e *Engine) Notifications(category string) []domain.SystemNotification {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.notifier.Recent(category)
}

// BeginResize starts a drag-resize gesture on a strategy card.
// The caller must End or Cancel the returned session.
func (e *Engine) BeginResize(card string, y int) *gesture.Session {
	return e.layout.Begin(card, y)
}

// Status returns the connection indicator.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// AlertHistory returns up to limit fired alerts of this session, newest first.
// An empty symbol returns every symbol.
func (e *Engine) AlertHistory(symbol string, limit int) ([]storage.Entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.history == nil {
		return nil, nil
	}
	if symbol == "" {
		return e.history.Recent(limit)
	}
	return e.history.ForSymbol(symbol, limit)
}

// Data returns a copy of the canonical data set.
func (e *Engine) Data() domain.DataSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.data.Clone()
}

// DumpState writes the entire internal state to a file (for post-mortem).
func (e *Engine) DumpState(filename string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.dumpStateLocked(filename)
}

func (e *Engine) dumpStateLocked(filename string) {
	e.logger.Info("Dumping internal state...", slog.String("file", filename))

	snapshots := make(map[string][]string, len(e.views))
	for name, c := range e.views {
		snapshots[name] = c.Snapshot()
	}
	data := struct {
		Data      domain.DataSet      `json:"data"`
		Snapshots map[string][]string `json:"snapshots"`
		Status    Status              `json:"status"`
	}{
		Data:      e.data,
		Snapshots: snapshots,
		Status:    e.status,
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		e.logger.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		e.logger.Error("Failed to write state dump", slog.Any("error", err))
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
