// Package event defines everything the engine loop consumes: frames decoded
// from the channel and intents raised by the user.
package event

import (
	"time"

	"strategy_dash/internal/domain"
)

// Type identifies an event.
type Type string

const (
	// Inbound channel events
	TypeSnapshot     Type = "initial_data"
	TypeUpdate       Type = "stock_update"
	TypeAlertList    Type = "alerts_list"
	TypeAlertDeleted Type = "alert_deleted"
	TypeAlertFired   Type = "alert_triggered"
	TypeAlertHistory Type = "alert_history"
	TypeNotification Type = "system_notification"
	TypeServerStatus Type = "connection_status"

	// Local events and user intents
	TypeConnection    Type = "connection"
	TypeTick          Type = "tick"
	TypeSortChange    Type = "sort_change"
	TypeFilterChange  Type = "filter_change"
	TypeTextFilter    Type = "text_filter"
	TypeViewChange    Type = "view_change"
	TypeLayoutReset   Type = "layout_reset"
	TypeAlertCommand  Type = "alert_command"
	TypeNotifSettings Type = "notification_settings"
	TypePause         Type = "pause"
)

// Event is anything the engine processes.
type Event interface {
	GetType() Type
	GetTs() time.Time
}

// BaseEvent carries the receive time.
type BaseEvent struct {
	Ts time.Time
}

func (e BaseEvent) GetTs() time.Time { return e.Ts }

// SnapshotEvent is the full data set sent after request_initial_data.
type SnapshotEvent struct {
	BaseEvent
	Data domain.DataSet
}

func (*SnapshotEvent) GetType() Type { return TypeSnapshot }

// UpdateEvent is a partial data set.
type UpdateEvent struct {
	BaseEvent
	Patch domain.DataSet
}

func (*UpdateEvent) GetType() Type { return TypeUpdate }

// AlertListEvent replaces the local alert cache.
type AlertListEvent struct {
	BaseEvent
	Alerts []domain.PriceAlert
}

func (*AlertListEvent) GetType() Type { return TypeAlertList }

// AlertDeletedEvent is the server echo of a delete request.
type AlertDeletedEvent struct {
	BaseEvent
	ID int64
}

func (*AlertDeletedEvent) GetType() Type { return TypeAlertDeleted }

// AlertTriggeredEvent notifies that the server fired an alert.
type AlertTriggeredEvent struct {
	BaseEvent
	Alert domain.PriceAlert
}

func (*AlertTriggeredEvent) GetType() Type { return TypeAlertFired }

// AlertHistoryEvent replaces the session's trigger history.
type AlertHistoryEvent struct {
	BaseEvent
	Alerts []domain.PriceAlert
}

func (*AlertHistoryEvent) GetType() Type { return TypeAlertHistory }

// NotificationEvent is a system notification.
type NotificationEvent struct {
	BaseEvent
	Notification domain.SystemNotification
}

func (*NotificationEvent) GetType() Type { return TypeNotification }

// ServerStatusEvent is the server's own connection_status greeting.
type ServerStatusEvent struct {
	BaseEvent
	Status string
}

func (*ServerStatusEvent) GetType() Type { return TypeServerStatus }

// ConnectionEvent reports the channel going up or down.
type ConnectionEvent struct {
	BaseEvent
	Connected bool
	Err       error
}

func (*ConnectionEvent) GetType() Type { return TypeConnection }

// TickEvent drives wall-clock expiry of transient notifications.
type TickEvent struct {
	BaseEvent
}

func (*TickEvent) GetType() Type { return TypeTick }
