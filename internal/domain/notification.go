package domain

import "time"

// SystemNotification is a server-pushed message grouped by category
// (e.g. "pdh_cross", "volume_spike"). Values carries the category-specific numbers.
type SystemNotification struct {
	Category  string             `json:"category"`
	Symbol    string             `json:"symbol"`
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values,omitempty"`
}

// NotificationSettings toggles which categories the server should push.
type NotificationSettings map[string]bool

// Clone copies the settings map.
func (n NotificationSettings) Clone() NotificationSettings {
	out := make(NotificationSettings, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}
