package event

import (
	"strategy_dash/internal/domain"

	"github.com/shopspring/decimal"
)

// SortChangeEvent changes the sort of one strategy view.
// With Toggle set, Spec.Field is treated as a column-header click.
type SortChangeEvent struct {
	BaseEvent
	Strategy string
	Spec     domain.SortSpec
	Toggle   bool
}

func (*SortChangeEvent) GetType() Type { return TypeSortChange }

// FilterChangeEvent sets one column constraint of a strategy view.
type FilterChangeEvent struct {
	BaseEvent
	Strategy string
	Field    string
	Value    string
}

func (*FilterChangeEvent) GetType() Type { return TypeFilterChange }

// TextFilterEvent sets the global symbol filter for every view.
type TextFilterEvent struct {
	BaseEvent
	Text string
}

func (*TextFilterEvent) GetType() Type { return TypeTextFilter }

// ViewChangeEvent switches the dashboard view.
type ViewChangeEvent struct {
	BaseEvent
	View string
}

func (*ViewChangeEvent) GetType() Type { return TypeViewChange }

// LayoutResetEvent restores default card heights and recomputes every view.
type LayoutResetEvent struct {
	BaseEvent
}

func (*LayoutResetEvent) GetType() Type { return TypeLayoutReset }

// AlertAction is what an AlertCommandEvent asks the server to do.
type AlertAction int

const (
	AlertCreate AlertAction = iota + 1
	AlertUpdate
	AlertDelete
)

func (a AlertAction) String() string {
	switch a {
	case AlertCreate:
		return "CREATE"
	case AlertUpdate:
		return "UPDATE"
	case AlertDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// AlertCommandEvent asks the gateway to create, update or delete an alert.
type AlertCommandEvent struct {
	BaseEvent
	Action   AlertAction
	ID       int64
	Symbol   string
	Operator string
	Value    decimal.Decimal
}

func (*AlertCommandEvent) GetType() Type { return TypeAlertCommand }

// NotificationSettingsEvent changes which notification categories are requested.
type NotificationSettingsEvent struct {
	BaseEvent
	Settings domain.NotificationSettings
}

func (*NotificationSettingsEvent) GetType() Type { return TypeNotifSettings }

// PauseEvent asks the server to pause or resume streaming.
type PauseEvent struct {
	BaseEvent
	Paused bool
}

func (*PauseEvent) GetType() Type { return TypePause }
