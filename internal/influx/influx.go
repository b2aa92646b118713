package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/vgccalc/vgccalc/internal/config"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// Measurement names written by vgccalc.
const (
	MeasurementToolCall = "tool_call"
	MeasurementFetch    = "fetch"
)

// retention of the call bucket
const retentionSeconds = 60 * 60 * 24 * 90

// Manager handles InfluxDB connections and writes. When the server cannot
// be reached, points go to a gzip line protocol backup file instead.
type Manager struct {
	Client  influxdb2.Client
	Writer  influxdb2_api.WriteAPI
	IsValid bool

	cfg        config.InfluxConfig
	logger     *slog.Logger
	backupPath string

	mu           sync.Mutex
	backupFile   *os.File
	backupWriter *gzip.Writer
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, logger *slog.Logger, backupPath string) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:        cfg,
		logger:     logger,
		backupPath: backupPath,
	}
}

// URL is the server address built from the settings.
func (m *Manager) URL() string {
	return fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port)
}

// Connect establishes a connection to InfluxDB.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.logger.Warn("InfluxDB unreachable, writing to backup file",
			"url", m.URL(), "backupPath", m.backupPath, "error", err)
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.IsValid = true
	m.logger.Info("InfluxDB client initialized", "url", m.URL(), "bucket", m.cfg.Bucket)
	return nil
}

func (m *Manager) openBackup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backupWriter != nil {
		return nil
	}
	if m.backupPath == "" {
		return errors.New("influxDB unreachable and no backup path set")
	}
	file, err := os.OpenFile(m.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.backupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()
	org, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.logger.Info("Organization not found, creating", "org", m.cfg.Org)
		org, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", m.cfg.Org, err)
		}
	}

	if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err == nil {
		return nil
	}
	m.logger.Info("Bucket not found, creating", "bucket", m.cfg.Bucket)
	rule := domain.RetentionRuleTypeExpire
	_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, org, m.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retentionSeconds,
	})
	if err != nil {
		return fmt.Errorf("error creating bucket %s: %w", m.cfg.Bucket, err)
	}
	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			m.logger.Error("Error sending data to InfluxDB", "bucket", m.cfg.Bucket, "error", writeErr)
		}
	}(m.Writer.Errors())
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	if m.IsValid && m.Writer != nil {
		m.Writer.WritePoint(point)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	line := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.backupWriter.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// RecordCall writes one dispatched tool call.
func (m *Manager) RecordCall(rec core.CallRecord) error {
	return m.WritePoint(CallPoint(rec))
}

// Close flushes pending points and closes the backup file.
func (m *Manager) Close() error {
	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backupWriter == nil {
		return nil
	}
	err := errors.Join(m.backupWriter.Close(), m.backupFile.Close())
	m.backupWriter, m.backupFile = nil, nil
	return err
}

// CallPoint converts a call record into a point.
func CallPoint(rec core.CallRecord) *influxdb2_write.Point {
	ts := rec.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	p := influxdb2_write.NewPointWithMeasurement(MeasurementToolCall).
		AddTag("tool", rec.Tool).
		AddTag("ok", fmt.Sprint(rec.OK)).
		AddTag("batch", fmt.Sprint(rec.Batch)).
		AddField("duration_ms", float64(rec.Duration.Microseconds())/1000).
		SetTime(ts)
	if rec.ErrorKind != "" {
		p.AddTag("error_kind", rec.ErrorKind)
	}
	return p
}

// FetchPoint records one request to a remote data source.
func FetchPoint(service string, ok bool, d time.Duration, ts time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementFetch).
		AddTag("service", service).
		AddTag("ok", fmt.Sprint(ok)).
		AddField("duration_ms", float64(d.Microseconds())/1000).
		SetTime(ts)
}
