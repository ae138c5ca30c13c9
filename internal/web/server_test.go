package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/hw-revision/internal/logic"
	"github.com/sweeney/hw-revision/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Backend:     "cdev",
		PollMs:      1000,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}
	tr := status.NewTracker(start, cfg)
	tr.AddDevice("main", []string{"gpiochip0:5", "gpiochip0:6", "gpiochip0:13"})
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(map[string]logic.Reading{"main": {Value: 5, Pins: 3}}, true, logic.EventCounts{Baseline: 1})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if len(sj.Status.Devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(sj.Status.Devices))
	}
	d := sj.Status.Devices[0]
	if d.Revision == nil || *d.Revision != 5 {
		t.Errorf("revision: got %v, want 5", d.Revision)
	}
	if d.Bits != "101" {
		t.Errorf("bits: got %q, want 101", d.Bits)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", sj.Status.MQTT.Broker)
	}
	if sj.Status.Config.PollMs != 1000 {
		t.Errorf("Config.PollMs: got %d, want 1000", sj.Status.Config.PollMs)
	}
}

func TestJSONUnknownBeforeFirstSample(t *testing.T) {
	ts, _ := newTestServer(t)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Devices[0].Revision != nil {
		t.Errorf("revision before first sample: got %d, want null", *sj.Status.Devices[0].Revision)
	}
	if sj.Status.Ready {
		t.Error("expected Ready=false initially")
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestDeviceEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(map[string]logic.Reading{"main": {Value: 6, Pins: 3}}, true, logic.EventCounts{})

	resp, err := http.Get(ts.URL + "/devices/main")
	if err != nil {
		t.Fatalf("GET /devices/main: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var d status.DeviceJSON
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if d.Name != "main" || d.Revision == nil || *d.Revision != 6 || d.Bits != "110" {
		t.Errorf("got %+v", d)
	}
	if len(d.Pins) != 3 {
		t.Errorf("pins: got %v", d.Pins)
	}
}

func TestDeviceEndpointUnknown(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/devices/nope")
	if err != nil {
		t.Fatalf("GET /devices/nope: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.Update(map[string]logic.Reading{"main": {Value: 5, Pins: 3}}, true, logic.EventCounts{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "0b101") {
		t.Errorf("page should show the revision bits:\n%s", body)
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "UNKNOWN") {
		t.Errorf("unsampled device should render UNKNOWN:\n%s", body)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t)

	tr.Update(map[string]logic.Reading{"main": {Value: 1}}, true, logic.EventCounts{Baseline: 1})
	sj1 := getJSON(t, ts.URL+"/index.json")

	tr.Update(map[string]logic.Reading{"main": {Value: 3}}, true, logic.EventCounts{Baseline: 1, Changed: 1})
	tr.SetMQTTConnected(true)
	sj2 := getJSON(t, ts.URL+"/index.json")

	if *sj1.Status.Devices[0].Revision != 1 {
		t.Errorf("first response: got %d, want 1", *sj1.Status.Devices[0].Revision)
	}
	if *sj2.Status.Devices[0].Revision != 3 {
		t.Errorf("second response: got %d, want 3", *sj2.Status.Devices[0].Revision)
	}
	if sj2.Status.Counts.Changed != 1 {
		t.Errorf("Counts.Changed: got %d, want 1", sj2.Status.Counts.Changed)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
