// Command hw-revision samples board revision strapping pins and reports the
// encoded revision over HTTP, MQTT and InfluxDB.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/hw-revision/internal/board"
	"github.com/sweeney/hw-revision/internal/gpio"
	"github.com/sweeney/hw-revision/internal/influx"
	"github.com/sweeney/hw-revision/internal/logging"
	"github.com/sweeney/hw-revision/internal/logic"
	"github.com/sweeney/hw-revision/internal/mqtt"
	"github.com/sweeney/hw-revision/internal/revision"
	"github.com/sweeney/hw-revision/internal/sensor"
	"github.com/sweeney/hw-revision/internal/status"
	"github.com/sweeney/hw-revision/internal/web"
)

type config struct {
	boardFile  string
	backend    string
	name       string
	pins       string
	poll       time.Duration
	heartbeat  time.Duration
	broker     string
	httpAddr   string
	influx     influx.Config
	printState bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.boardFile, "board", "", "JSON board description (overrides --backend/--name/--pins)")
	flag.StringVar(&cfg.backend, "backend", gpio.BackendCdev, "GPIO backend: cdev, rpio or mcp23017")
	flag.StringVar(&cfg.name, "name", board.DefaultName, "Device name when --pins is used")
	flag.StringVar(&cfg.pins, "pins", "", "Comma-separated revision pins, least significant first (chip:offset[:active-low])")
	flag.DurationVar(&cfg.poll, "poll", time.Minute, "Sampling interval (0 to sample once at startup)")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&cfg.influx.URL, "influx-url", "", "InfluxDB URL (empty to disable)")
	flag.StringVar(&cfg.influx.Token, "influx-token", "", "InfluxDB auth token")
	flag.StringVar(&cfg.influx.Org, "influx-org", "", "InfluxDB organization")
	flag.StringVar(&cfg.influx.Bucket, "influx-bucket", "hardware", "InfluxDB bucket")
	flag.BoolVar(&cfg.printState, "print-state", false, "Print current revision and exit")
	loglevel := flag.Int("loglevel", int(logrus.InfoLevel), "Log level, 0 (panic) to 6 (trace)")

	flag.Parse()

	log := logging.New(logrus.Level(*loglevel), os.Stderr)
	if err := run(cfg, log); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func loadBoard(cfg config) (board.Description, error) {
	if cfg.boardFile != "" {
		return board.Load(cfg.boardFile)
	}
	return board.FromFlags(cfg.backend, cfg.name, cfg.pins)
}

func run(cfg config, log *logrus.Entry) error {
	desc, err := loadBoard(cfg)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}

	ctrl, err := gpio.NewController(desc.Backend)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer ctrl.Close()

	reg := sensor.NewRegistry()
	if _, err := board.Build(desc, ctrl, reg, logging.Component(log, "revision")); err != nil {
		if reg.Len() == 0 {
			return fmt.Errorf("no revision device initialized: %w", err)
		}
		log.WithError(err).Warn("some revision devices failed to initialize")
	}

	if cfg.printState {
		return printState(os.Stdout, reg)
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Backend:     desc.Backend,
		PollMs:      cfg.poll.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
		InfluxURL:   cfg.influx.URL,
	})
	for _, name := range reg.Names() {
		d, _ := reg.Lookup(name)
		tracker.AddDevice(name, pinStrings(revision.PinsOf(d)))
	}
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var out sinks
	out.tracker = tracker

	if cfg.broker != "" {
		publisher, err := mqtt.NewRealPublisher(cfg.broker, logging.Component(log, "mqtt"))
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		out.publisher = publisher
		out.mqttStatus = publisher

		tracker.SetMQTTConnected(publisher.IsConnected())
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.WithError(err).Warn("failed to publish startup event")
		}
	}

	if cfg.influx.URL != "" {
		w, err := influx.NewWriter(cfg.influx)
		if err != nil {
			return fmt.Errorf("init influx: %w", err)
		}
		defer w.Close()
		out.recorder = w
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		weblog := logging.Component(log, "web")
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				weblog.WithError(err).Error("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		weblog.Infof("http status server listening on %s", cfg.httpAddr)
	}

	log.Infof("started: devices=%v poll=%v heartbeat=%v broker=%q", reg.Names(), cfg.poll, cfg.heartbeat, cfg.broker)

	var tick <-chan time.Time
	if cfg.poll > 0 {
		ticker := time.NewTicker(cfg.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	var heartbeatTick <-chan time.Time
	if cfg.heartbeat > 0 {
		ticker := time.NewTicker(heartbeatCheckInterval(cfg.heartbeat))
		defer ticker.Stop()
		heartbeatTick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reg, out, cfg.heartbeat, time.Now, tick, heartbeatTick, sigCh, log)
}

// heartbeatCheckInterval is how often the heartbeat is checked. Checks run
// independently of polling so that --poll=0 still sends heartbeats; a
// heartbeat goes out at most one check late.
func heartbeatCheckInterval(heartbeat time.Duration) time.Duration {
	if d := heartbeat / 10; d > 0 {
		return d
	}
	return heartbeat
}

// sinks receives sampling results. Nil members are skipped.
type sinks struct {
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	recorder   influx.Recorder
	tracker    *status.Tracker
}

func (o sinks) refreshConnection() {
	if o.tracker != nil && o.mqttStatus != nil {
		o.tracker.SetMQTTConnected(o.mqttStatus.IsConnected())
	}
}

func (o sinks) publishSystem(log *logrus.Entry, event mqtt.SystemEvent) {
	if o.publisher == nil {
		return
	}
	if o.tracker != nil {
		o.refreshConnection()
		event.RawPayload = status.FormatStatusEvent(o.tracker.Snapshot(), event.Event, event.Reason)
	}
	if err := o.publisher.PublishSystem(event); err != nil {
		log.WithError(err).Warnf("failed to publish %s event", event.Event)
	}
}

// runLoop samples every registered device once immediately and then on
// each tick, checks the heartbeat on each heartbeatTick, and returns when
// a signal arrives. Either tick channel may be nil.
func runLoop(reg *sensor.Registry, out sinks, heartbeat time.Duration, now func() time.Time, tick, heartbeatTick <-chan time.Time, sig <-chan os.Signal, log *logrus.Entry) error {
	detector := logic.NewDetector(reg.Names(), now())

	sampleAll(reg, detector, out, now(), log)

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			out.publishSystem(log, mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			})
			return nil

		case <-tick:
			sampleAll(reg, detector, out, now(), log)

		case <-heartbeatTick:
			hb := detector.CheckHeartbeat(now(), heartbeat)
			if hb == nil {
				continue
			}
			log.Infof("heartbeat: uptime=%v baseline=%d changed=%d", hb.Uptime, hb.Counts.Baseline, hb.Counts.Changed)
			if out.tracker != nil {
				if net := readNetworkInfo(); net != nil {
					out.tracker.SetNetwork(net)
				}
			}
			out.publishSystem(log, mqtt.SystemEvent{Timestamp: hb.Timestamp, Event: "HEARTBEAT"})
		}
	}
}

func sampleAll(reg *sensor.Registry, detector *logic.Detector, out sinks, t time.Time, log *logrus.Entry) {
	for _, name := range reg.Names() {
		d, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		value, err := revision.Read(d)
		if out.tracker != nil {
			out.tracker.SetError(name, err)
		}
		if err != nil {
			log.WithError(err).Warnf("sample %s", name)
			continue
		}

		input := logic.Input{Device: name, Value: value, Pins: len(revision.PinsOf(d)), Time: t}
		for _, event := range detector.Process(input) {
			log.WithField("device", event.Device).Infof("%s: revision %d (0b%s)", event.Type, event.Value, revision.Bits(event.Value, event.Pins))
			if out.publisher != nil {
				if err := out.publisher.Publish(event); err != nil {
					log.WithError(err).Warn("publish error")
				}
			}
			if out.recorder != nil {
				if err := out.recorder.Record(context.Background(), event); err != nil {
					log.WithError(err).Warn("influx write error")
				}
			}
		}
	}

	if out.tracker != nil {
		out.tracker.Update(detector.Readings(), detector.IsBaselined(), detector.EventCountsSnapshot())
		out.refreshConnection()
	}
}

func printState(w io.Writer, reg *sensor.Registry) error {
	for _, name := range reg.Names() {
		d, _ := reg.Lookup(name)
		v, err := revision.Read(d)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		fmt.Fprintf(w, "%s: %d (0b%s)\n", name, v, revision.Bits(v, len(revision.PinsOf(d))))
	}
	return nil
}

func pinStrings(pins []gpio.Pin) []string {
	out := make([]string, len(pins))
	for i, p := range pins {
		out[i] = p.String()
	}
	return out
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
