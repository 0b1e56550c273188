package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PulseWatch/internal/domain/models"
	pkgch "PulseWatch/pkg/clickhouse"
	applogger "PulseWatch/pkg/logger"
)

// AlertArchiveSchema creates the alert archive table. Passed to
// Client.InitSchema at startup.
var AlertArchiveSchema = []string{
	`CREATE DATABASE IF NOT EXISTS pulsewatch`,
	`CREATE TABLE IF NOT EXISTS pulsewatch.alerts (
		alert_id        String,
		instrument_id   String,
		alert_type      String,
		severity        LowCardinality(String),
		message         String,
		action_required UInt8,
		created_at      DateTime64(3),
		data            String
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(created_at)
	ORDER BY (instrument_id, created_at)`,
}

// CHAlertArchive is an AlertSink that appends alerts to ClickHouse for
// offline analysis. The free-form data map is stored as a JSON string.
type CHAlertArchive struct {
	client *pkgch.Client
	log    *applogger.Logger
}

// NewCHAlertArchive creates the archive sink and ensures the schema exists.
func NewCHAlertArchive(ctx context.Context, client *pkgch.Client, log *applogger.Logger) (*CHAlertArchive, error) {
	if err := client.InitSchema(ctx, AlertArchiveSchema); err != nil {
		return nil, fmt.Errorf("alert archive schema: %w", err)
	}
	return &CHAlertArchive{client: client, log: log}, nil
}

// Name identifies the sink in logs and metrics.
func (a *CHAlertArchive) Name() string { return "clickhouse" }

// Publish inserts the alerts in one batch.
func (a *CHAlertArchive) Publish(ctx context.Context, alerts []models.AlertSignal) error {
	if len(alerts) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pulsewatch.alerts
		 (alert_id, instrument_id, alert_type, severity, message, action_required, created_at, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive prepare: %w", err)
	}
	for _, al := range alerts {
		data, err := json.Marshal(al.Data)
		if err != nil {
			data = []byte("{}")
		}
		actionReq := uint8(0)
		if al.ActionRequired {
			actionReq = 1
		}
		if _, err := stmt.ExecContext(ctx,
			al.AlertID, al.InstrumentID, al.AlertType, string(al.Severity),
			al.Message, actionReq, al.Timestamp, string(data),
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("archive insert: %w", err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive stmt close: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}

	a.log.Debug("alerts archived",
		applogger.Int("count", len(alerts)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// Close releases the connection pool.
func (a *CHAlertArchive) Close() error {
	return a.client.Close()
}
