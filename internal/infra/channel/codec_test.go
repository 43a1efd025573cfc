package channel

import (
	"errors"
	"testing"
	"time"

	"strategy_dash/internal/domain"
	"strategy_dash/internal/event"
)

var now = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

func TestDecode_Update(t *testing.T) {
	frame := []byte(`{"event":"stock_update","data":{
		"Momentum":{
			"NSE:SBIN-EQ":{"symbol":"NSE:SBIN-EQ","ltp":812.5,"change":1.25,"spdc":"yes","pdh_alert":true,"newsWeight":3},
			"NSE:TCS-EQ":{"change":"oops","gap":null,"premarket":5,"description":"results"},
			"BAD":42
		},
		"Broken":"not an object"
	}}`)

	ev, err := Decode(frame, now)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	upd, ok := ev.(*event.UpdateEvent)
	if !ok {
		t.Fatalf("expected *UpdateEvent, got %T", ev)
	}
	if upd.GetTs() != now {
		t.Errorf("timestamp = %v", upd.GetTs())
	}

	g := upd.Patch["Momentum"]
	if len(g) != 2 {
		t.Fatalf("expected 2 records, got %d", len(g))
	}
	sbin := g["NSE:SBIN-EQ"]
	if sbin.LTP == nil || *sbin.LTP != 812.5 || *sbin.Change != 1.25 || *sbin.SPDC != "yes" || !*sbin.PDHAlert || *sbin.NewsWeight != 3 {
		t.Errorf("SBIN decoded wrong: %+v", sbin)
	}

	tcs := g["NSE:TCS-EQ"]
	if tcs.Symbol != "NSE:TCS-EQ" {
		t.Errorf("symbol should come from the key, got %q", tcs.Symbol)
	}
	if tcs.Change != nil || tcs.Gap != nil || tcs.Premarket != nil {
		t.Errorf("wrong-typed fields must be absent: %+v", tcs)
	}
	if tcs.Description == nil || *tcs.Description != "results" {
		t.Errorf("description = %v", tcs.Description)
	}
	if _, ok := upd.Patch["Broken"]; ok {
		t.Error("non-object groups should be skipped")
	}
}

func TestDecode_Snapshot(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"initial_data","data":{"Gap Up":{"A":{"gap":2.5}}}}`), now)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	snap := ev.(*event.SnapshotEvent)
	if *snap.Data["Gap Up"]["A"].Gap != 2.5 {
		t.Errorf("snapshot = %+v", snap.Data)
	}
}

func TestDecode_Alerts(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"alerts_list","data":[
		{"id":1,"symbol":"A","operator":">","value":100.5,"triggered":false},
		{"id":2,"symbol":"B","operator":"<=","value":"99.10","triggered":true},
		{"symbol":"no id"}
	]}`), now)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	list := ev.(*event.AlertListEvent)
	if len(list.Alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(list.Alerts))
	}
	if list.Alerts[0].Value.String() != "100.5" || list.Alerts[1].Operator != domain.OpBelowOrEqual || !list.Alerts[1].Triggered {
		t.Errorf("alerts = %+v", list.Alerts)
	}

	ev, _ = Decode([]byte(`{"event":"alert_deleted","data":{"id":2}}`), now)
	if del := ev.(*event.AlertDeletedEvent); del.ID != 2 {
		t.Errorf("deleted id = %d", del.ID)
	}

	ev, _ = Decode([]byte(`{"event":"alert_triggered","data":{"id":5,"symbol":"C","operator":">=","value":10,"triggered":true}}`), now)
	if fired := ev.(*event.AlertTriggeredEvent); fired.Alert.ID != 5 || fired.Alert.Symbol != "C" {
		t.Errorf("fired = %+v", fired.Alert)
	}
}

func TestDecode_Notification(t *testing.T) {
	ev, err := Decode([]byte(`{"event":"system_notification","data":{
		"category":"pdh_cross","symbol":"A","message":"crossed PDH","timestamp":1717320600,"pdh":101.2,"ltp":102}}`), now)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	n := ev.(*event.NotificationEvent).Notification
	if n.Category != "pdh_cross" || n.Message != "crossed PDH" {
		t.Errorf("notification = %+v", n)
	}
	if n.Timestamp.Unix() != 1717320600 {
		t.Errorf("timestamp = %v", n.Timestamp)
	}
	if len(n.Values) != 2 || n.Values["pdh"] != 101.2 {
		t.Errorf("values = %v", n.Values)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not json", `{"event":`, domain.ErrMalformedFrame},
		{"not an object", `[1,2]`, domain.ErrMalformedFrame},
		{"unknown event", `{"event":"bogus","data":{}}`, domain.ErrUnknownEvent},
		{"delete without id", `{"event":"alert_deleted","data":{}}`, domain.ErrInvalidAlertID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame), now)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
			var de *domain.DecodeError
			if !errors.As(err, &de) {
				t.Errorf("expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	b, err := Encode(domain.Command{Event: "request_initial_data"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(b) != `{"event":"request_initial_data"}` {
		t.Errorf("Encode() = %s", b)
	}
}
