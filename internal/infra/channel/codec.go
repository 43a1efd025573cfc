package channel

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"strategy_dash/internal/domain"
	"strategy_dash/internal/event"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Frames are JSON envelopes: {"event": "<name>", "data": <payload>}.
// Decoding is tolerant: a record field with the wrong type is treated as
// absent, and non-object groups or records are skipped.

// Decode turns one inbound frame into an engine event.
func Decode(frame []byte, now time.Time) (event.Event, error) {
	if !gjson.ValidBytes(frame) {
		return nil, &domain.DecodeError{Err: domain.ErrMalformedFrame}
	}
	root := gjson.ParseBytes(frame)
	if !root.IsObject() {
		return nil, &domain.DecodeError{Err: domain.ErrMalformedFrame}
	}
	name := root.Get("event").String()
	data := root.Get("data")
	base := event.BaseEvent{Ts: now}

	switch event.Type(name) {
	case event.TypeSnapshot:
		return &event.SnapshotEvent{BaseEvent: base, Data: decodeDataSet(data)}, nil
	case event.TypeUpdate:
		return &event.UpdateEvent{BaseEvent: base, Patch: decodeDataSet(data)}, nil
	case event.TypeAlertList:
		return &event.AlertListEvent{BaseEvent: base, Alerts: decodeAlerts(data)}, nil
	case event.TypeAlertHistory:
		return &event.AlertHistoryEvent{BaseEvent: base, Alerts: decodeAlerts(data)}, nil
	case event.TypeAlertDeleted:
		id := data.Get("id")
		if id.Type != gjson.Number {
			return nil, &domain.DecodeError{Event: name, Err: domain.ErrInvalidAlertID}
		}
		return &event.AlertDeletedEvent{BaseEvent: base, ID: id.Int()}, nil
	case event.TypeAlertFired:
		a, ok := decodeAlert(data)
		if !ok {
			return nil, &domain.DecodeError{Event: name, Err: domain.ErrInvalidAlertID}
		}
		return &event.AlertTriggeredEvent{BaseEvent: base, Alert: a}, nil
	case event.TypeNotification:
		return &event.NotificationEvent{BaseEvent: base, Notification: decodeNotification(data, now)}, nil
	case event.TypeServerStatus:
		return &event.ServerStatusEvent{BaseEvent: base, Status: data.Get("status").String()}, nil
	}
	return nil, &domain.DecodeError{Event: name, Err: domain.ErrUnknownEvent}
}

func decodeDataSet(data gjson.Result) domain.DataSet {
	ds := make(domain.DataSet)
	if !data.IsObject() {
		return ds
	}
	data.ForEach(func(strategy, group gjson.Result) bool {
		if !group.IsObject() {
			return true
		}
		g := make(domain.StrategyGroup)
		group.ForEach(func(symbol, rec gjson.Result) bool {
			if rec.IsObject() && symbol.String() != "" {
				g[symbol.String()] = decodeRecord(symbol.String(), rec)
			}
			return true
		})
		ds[strategy.String()] = g
		return true
	})
	return ds
}

func decodeRecord(symbol string, rec gjson.Result) domain.InstrumentRecord {
	r := domain.InstrumentRecord{Symbol: symbol}
	rec.ForEach(func(key, value gjson.Result) bool {
		field := key.String()
		switch domain.KindOf(field) {
		case domain.KindNumeric:
			if value.Type == gjson.Number {
				r.SetNumber(field, value.Float())
			}
		case domain.KindText:
			if value.Type == gjson.String && field != domain.FieldSymbol {
				r.SetText(field, value.Str)
			}
		case domain.KindFlag:
			if value.IsBool() {
				r.SetFlag(field, value.Bool())
			}
		}
		return true
	})
	return r
}

func decodeAlerts(data gjson.Result) []domain.PriceAlert {
	if !data.IsArray() {
		return nil
	}
	var out []domain.PriceAlert
	data.ForEach(func(_, item gjson.Result) bool {
		if a, ok := decodeAlert(item); ok {
			out = append(out, a)
		}
		return true
	})
	return out
}

func decodeAlert(item gjson.Result) (domain.PriceAlert, bool) {
	id := item.Get("id")
	if id.Type != gjson.Number {
		return domain.PriceAlert{}, false
	}
	a := domain.PriceAlert{
		ID:        id.Int(),
		Symbol:    item.Get("symbol").String(),
		Operator:  domain.AlertOperator(strings.TrimSpace(item.Get("operator").String())),
		Triggered: item.Get("triggered").Bool(),
	}
	if v := item.Get("value"); v.Type == gjson.Number || v.Type == gjson.String {
		if d, err := decimal.NewFromString(strings.TrimSpace(v.String())); err == nil {
			a.Value = d
		}
	}
	return a, true
}

var notificationKeys = map[string]bool{"category": true, "symbol": true, "message": true, "timestamp": true}

func decodeNotification(data gjson.Result, now time.Time) domain.SystemNotification {
	n := domain.SystemNotification{
		Category:  data.Get("category").String(),
		Symbol:    data.Get("symbol").String(),
		Message:   data.Get("message").String(),
		Timestamp: now,
	}
	switch ts := data.Get("timestamp"); ts.Type {
	case gjson.Number:
		// seconds since epoch, as the server emits time.time()
		sec := ts.Float()
		n.Timestamp = time.Unix(0, int64(sec*float64(time.Second))).UTC()
	case gjson.String:
		if t, err := time.Parse(time.RFC3339, ts.Str); err == nil {
			n.Timestamp = t
		}
	}
	data.ForEach(func(key, value gjson.Result) bool {
		if !notificationKeys[key.String()] && value.Type == gjson.Number {
			if n.Values == nil {
				n.Values = make(map[string]float64)
			}
			n.Values[key.String()] = value.Float()
		}
		return true
	})
	return n
}

// Encode renders an outbound command as an envelope frame.
func Encode(cmd domain.Command) ([]byte, error) {
	b, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Event, err)
	}
	return b, nil
}
