package logic

import (
	"testing"
	"time"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewDetector(t *testing.T) {
	d := NewDetector([]string{"main"}, startTime)
	if d == nil {
		t.Fatal("NewDetector returned nil")
	}
	if d.IsBaselined() {
		t.Error("new detector should not be baselined")
	}
	if !d.startTime.Equal(startTime) {
		t.Errorf("expected startTime %v, got %v", startTime, d.startTime)
	}
	if !d.lastHeartbeat.Equal(startTime) {
		t.Errorf("expected lastHeartbeat %v, got %v", startTime, d.lastHeartbeat)
	}
}

func TestFirstSampleEmitsBaseline(t *testing.T) {
	d := NewDetector([]string{"main"}, startTime)

	events := d.Process(Input{Device: "main", Value: 5, Pins: 3, Time: startTime})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventBaseline || e.Device != "main" || e.Value != 5 || e.Pins != 3 {
		t.Errorf("unexpected event: %+v", e)
	}
	if !e.Timestamp.Equal(startTime) {
		t.Errorf("timestamp: got %v, want %v", e.Timestamp, startTime)
	}
	if !d.IsBaselined() {
		t.Error("detector should be baselined after the only device is sampled")
	}
}

func TestNoEventsForStableValue(t *testing.T) {
	d := NewDetector([]string{"main"}, startTime)
	d.Process(Input{Device: "main", Value: 5, Time: startTime})

	for i := 1; i <= 10; i++ {
		events := d.Process(Input{Device: "main", Value: 5, Time: startTime.Add(time.Duration(i) * time.Second)})
		if len(events) != 0 {
			t.Fatalf("sample %d: expected no events, got %v", i, events)
		}
	}

	r, ok := d.Readings()["main"]
	if !ok || !r.Since.Equal(startTime) {
		t.Errorf("Since should stay at first sighting, got %+v", r)
	}
}

func TestChangeEmitsChanged(t *testing.T) {
	d := NewDetector([]string{"main"}, startTime)
	d.Process(Input{Device: "main", Value: 5, Pins: 3, Time: startTime})

	changedAt := startTime.Add(time.Minute)
	events := d.Process(Input{Device: "main", Value: 4, Pins: 3, Time: changedAt})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventChanged || e.Value != 4 || e.Previous != 5 {
		t.Errorf("unexpected event: %+v", e)
	}

	r := d.Readings()["main"]
	if r.Value != 4 || !r.Since.Equal(changedAt) {
		t.Errorf("current: got %+v", r)
	}
}

func TestBaselineRequiresAllDevices(t *testing.T) {
	d := NewDetector([]string{"b", "a"}, startTime)

	d.Process(Input{Device: "a", Value: 1, Time: startTime})
	if d.IsBaselined() {
		t.Error("should not be baselined with one of two devices sampled")
	}

	d.Process(Input{Device: "b", Value: 2, Time: startTime})
	if !d.IsBaselined() {
		t.Error("should be baselined once both devices are sampled")
	}
}

func TestReadingsIsCopy(t *testing.T) {
	d := NewDetector([]string{"main"}, startTime)
	d.Process(Input{Device: "main", Value: 7, Time: startTime})

	r := d.Readings()
	r["main"] = Reading{Value: 0}
	delete(r, "main")

	if cur, ok := d.Readings()["main"]; !ok || cur.Value != 7 {
		t.Errorf("detector state modified through Readings copy: %+v", cur)
	}
}

func TestEventCounts(t *testing.T) {
	d := NewDetector([]string{"a", "b"}, startTime)
	d.Process(Input{Device: "a", Value: 1, Time: startTime})
	d.Process(Input{Device: "b", Value: 1, Time: startTime})
	d.Process(Input{Device: "a", Value: 2, Time: startTime})
	d.Process(Input{Device: "a", Value: 2, Time: startTime})
	d.Process(Input{Device: "a", Value: 3, Time: startTime})

	c := d.EventCountsSnapshot()
	if c.Baseline != 2 || c.Changed != 2 {
		t.Errorf("counts: got %+v, want Baseline=2 Changed=2", c)
	}
}

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	d := NewDetector([]string{"main"}, startTime)
	d.Process(Input{Device: "main", Value: 1, Time: startTime})

	if hb := d.CheckHeartbeat(startTime.Add(15*time.Minute), 0); hb != nil {
		t.Error("should not return heartbeat when interval is 0 (disabled)")
	}
	if hb := d.CheckHeartbeat(startTime.Add(15*time.Minute), -time.Minute); hb != nil {
		t.Error("should not return heartbeat when interval is negative")
	}
}

func TestCheckHeartbeatBeforeBaseline(t *testing.T) {
	d := NewDetector([]string{"a", "b"}, startTime)
	d.Process(Input{Device: "a", Value: 1, Time: startTime})

	if hb := d.CheckHeartbeat(startTime.Add(15*time.Minute), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat before baseline")
	}
}

func TestCheckHeartbeatInterval(t *testing.T) {
	d := NewDetector([]string{"main"}, startTime)
	d.Process(Input{Device: "main", Value: 1, Time: startTime})

	if hb := d.CheckHeartbeat(startTime.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat before interval")
	}

	t1 := startTime.Add(15 * time.Minute)
	hb := d.CheckHeartbeat(t1, 15*time.Minute)
	if hb == nil {
		t.Fatal("should return heartbeat at interval")
	}
	if !hb.Timestamp.Equal(t1) {
		t.Errorf("expected timestamp %v, got %v", t1, hb.Timestamp)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}
	if hb.Counts.Baseline != 1 {
		t.Errorf("expected 1 baseline in counts, got %+v", hb.Counts)
	}

	if hb := d.CheckHeartbeat(t1.Add(time.Second), 15*time.Minute); hb != nil {
		t.Error("should not return heartbeat immediately after previous")
	}
	if hb := d.CheckHeartbeat(t1.Add(15*time.Minute), 15*time.Minute); hb == nil {
		t.Error("should return second heartbeat")
	}
}
