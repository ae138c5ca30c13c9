// Package influx exports revision events as InfluxDB points.
package influx

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"

	"github.com/sweeney/hw-revision/internal/logic"
	"github.com/sweeney/hw-revision/internal/revision"
)

// Measurement is the InfluxDB measurement name for revision points.
const Measurement = "hw_revision"

const writeTimeout = 5 * time.Second

// Recorder stores revision events.
type Recorder interface {
	Record(ctx context.Context, event logic.Event) error
	Close() error
}

// Config holds the InfluxDB connection settings.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Writer writes points through the blocking write API.
type Writer struct {
	client influxdb2.Client
	api    api.WriteAPIBlocking
}

// NewWriter creates a Writer. No connection is made until the first write.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, errors.New("influx: url and bucket are required")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Writer{
		client: client,
		api:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

// Point converts an event to an InfluxDB point.
func Point(event logic.Event) *write.Point {
	return influxdb2.NewPoint(Measurement,
		map[string]string{
			"device": event.Device,
			"event":  string(event.Type),
		},
		map[string]interface{}{
			"value": event.Value,
			"bits":  revision.Bits(event.Value, event.Pins),
		},
		event.Timestamp)
}

// Record writes the event as one point.
func (w *Writer) Record(ctx context.Context, event logic.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := w.api.WritePoint(ctx, Point(event)); err != nil {
		return errors.Wrapf(err, "write %s point for %s", Measurement, event.Device)
	}
	return nil
}

// Close releases the client.
func (w *Writer) Close() error {
	w.client.Close()
	return nil
}
