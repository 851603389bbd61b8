package pinkit

import (
	"context"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/pkg/errors"
)

const defaultMeasurement = "pin_state"
const recordTimeout = 3 * time.Second

// Recorder writes every state change of an output or input to InfluxDB.
type Recorder struct {
	Host         string
	Organization string
	Bucket       string
	Measurement  string
	Token        string

	client influxdb2.Client
	writer api.WriteAPIBlocking
}

func (rec *Recorder) Open() error {
	if len(rec.Host) == 0 || len(rec.Bucket) == 0 {
		return errors.New("influx recorder needs Host and Bucket")
	}
	if len(rec.Measurement) == 0 {
		rec.Measurement = defaultMeasurement
	}

	rec.client = influxdb2.NewClient(rec.Host, rec.Token)
	rec.writer = rec.client.WriteAPIBlocking(rec.Organization, rec.Bucket)
	return nil
}

func (rec *Recorder) Record(name string, driver string, pin uint16, state bool) error {
	if rec.writer == nil {
		return errors.New("influx recorder not open")
	}

	point := influxdb2.NewPoint(
		rec.Measurement,
		map[string]string{
			"name":   name,
			"driver": driver,
			"pin":    strconv.Itoa(int(pin)),
		},
		map[string]interface{}{
			"state": state,
		},
		time.Now(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	err := rec.writer.WritePoint(ctx, point)
	if err != nil {
		return errors.Wrapf(err, "recording %s state failed", name)
	}
	return nil
}

func (rec *Recorder) Close() {
	if rec.client != nil {
		rec.client.Close()
	}
}
