// Package gateway turns user intents into outbound channel commands and keeps
// the local cache of server-confirmed alerts.
package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"strategy_dash/internal/domain"
	"strategy_dash/internal/infra"
)

// Outbound event names.
const (
	CmdRequestSnapshot   = "request_initial_data"
	CmdRequestAlerts     = "request_alerts"
	CmdCreateAlert       = "create_alert"
	CmdUpdateAlert       = "update_alert"
	CmdDeleteAlert       = "delete_alert"
	CmdNotificationPrefs = "update_notification_settings"
	CmdChangeView        = "change_view"
	CmdResetLayout       = "reset_layout"
	CmdPauseUpdates      = "pause_updates"
)

type alertPayload struct {
	ID       int64                `json:"id,omitempty"`
	Symbol   string               `json:"symbol"`
	Operator domain.AlertOperator `json:"operator"`
	Value    json.Number          `json:"value"`
}

type idPayload struct {
	ID int64 `json:"id"`
}

type viewPayload struct {
	View string `json:"view"`
}

type pausePayload struct {
	Paused bool `json:"paused"`
}

// Gateway sends commands without retry and never mutates the alert cache
// optimistically: the cache changes only on server echoes.
type Gateway struct {
	sender  domain.CommandSender
	metrics *infra.Metrics
	logger  *slog.Logger

	alerts map[int64]domain.PriceAlert
}

// New creates a gateway. metrics may be nil.
func New(sender domain.CommandSender, metrics *infra.Metrics) *Gateway {
	if metrics == nil {
		metrics = &infra.Metrics{}
	}
	return &Gateway{
		sender:  sender,
		metrics: metrics,
		logger:  slog.Default().With("module", "gateway"),
		alerts:  make(map[int64]domain.PriceAlert),
	}
}

func (g *Gateway) send(cmd domain.Command) error {
	if err := g.sender.Send(cmd); err != nil {
		g.metrics.RecordSendError()
		g.logger.Warn("Command not sent", slog.String("event", cmd.Event), slog.Any("error", err))
		return fmt.Errorf("send %s: %w", cmd.Event, err)
	}
	g.metrics.RecordCommand()
	g.logger.Debug("Command sent", slog.String("event", cmd.Event))
	return nil
}

// RequestSnapshot asks for the full data set.
func (g *Gateway) RequestSnapshot() error {
	return g.send(domain.Command{Event: CmdRequestSnapshot})
}

// RequestAlerts asks for the full alert list.
func (g *Gateway) RequestAlerts() error {
	return g.send(domain.Command{Event: CmdRequestAlerts})
}

// Resync re-requests everything. Called on every (re)connect; both requests
// are attempted even if the first fails.
func (g *Gateway) Resync() error {
	err1 := g.RequestSnapshot()
	err2 := g.RequestAlerts()
	if err1 != nil {
		return err1
	}
	return err2
}

// CreateAlert asks the server to create an alert.
func (g *Gateway) CreateAlert(req domain.AlertRequest) error {
	if req.Symbol == "" {
		return domain.ErrInvalidSymbol
	}
	if _, err := domain.ParseAlertOperator(string(req.Operator)); err != nil {
		return err
	}
	return g.send(domain.Command{Event: CmdCreateAlert, Payload: alertPayload{
		Symbol:   req.Symbol,
		Operator: req.Operator,
		Value:    json.Number(req.Value.String()),
	}})
}

// UpdateAlert asks the server to change an existing alert.
func (g *Gateway) UpdateAlert(req domain.AlertRequest) error {
	if req.ID <= 0 {
		return domain.ErrInvalidAlertID
	}
	if req.Symbol == "" {
		return domain.ErrInvalidSymbol
	}
	if _, err := domain.ParseAlertOperator(string(req.Operator)); err != nil {
		return err
	}
	return g.send(domain.Command{Event: CmdUpdateAlert, Payload: alertPayload{
		ID:       req.ID,
		Symbol:   req.Symbol,
		Operator: req.Operator,
		Value:    json.Number(req.Value.String()),
	}})
}

// DeleteAlert asks the server to delete an alert. The local copy stays until
// the server echoes the deletion.
func (g *Gateway) DeleteAlert(id int64) error {
	if id <= 0 {
		return domain.ErrInvalidAlertID
	}
	return g.send(domain.Command{Event: CmdDeleteAlert, Payload: idPayload{ID: id}})
}

// UpdateNotificationSettings toggles which categories the server pushes.
func (g *Gateway) UpdateNotificationSettings(settings domain.NotificationSettings) error {
	return g.send(domain.Command{Event: CmdNotificationPrefs, Payload: settings.Clone()})
}

// ChangeView tells the server which dashboard view is active.
func (g *Gateway) ChangeView(view string) error {
	return g.send(domain.Command{Event: CmdChangeView, Payload: viewPayload{View: view}})
}

// ResetLayout forwards a layout reset.
func (g *Gateway) ResetLayout() error {
	return g.send(domain.Command{Event: CmdResetLayout})
}

// PauseUpdates pauses or resumes the server's stream for this client.
func (g *Gateway) PauseUpdates(paused bool) error {
	return g.send(domain.Command{Event: CmdPauseUpdates, Payload: pausePayload{Paused: paused}})
}

// ReplaceAlerts replaces the cache wholesale with a server snapshot.
func (g *Gateway) ReplaceAlerts(alerts []domain.PriceAlert) {
	g.alerts = make(map[int64]domain.PriceAlert, len(alerts))
	for _, a := range alerts {
		g.alerts[a.ID] = a
	}
}

// RemoveAlert applies a server delete echo.
func (g *Gateway) RemoveAlert(id int64) bool {
	if _, ok := g.alerts[id]; !ok {
		return false
	}
	delete(g.alerts, id)
	return true
}

// Alerts returns the cached alerts ordered by id.
func (g *Gateway) Alerts() []domain.PriceAlert {
	out := make([]domain.PriceAlert, 0, len(g.alerts))
	for _, a := range g.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Alert looks up one cached alert.
func (g *Gateway) Alert(id int64) (domain.PriceAlert, bool) {
	a, ok := g.alerts[id]
	return a, ok
}
