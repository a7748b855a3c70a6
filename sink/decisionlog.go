package sink

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"onelane/types"
)

// schema.sql creates the run and per-cycle decision tables.
//
//go:embed schema.sql
var schemaSQL string

// DecisionLog records every decision of a run in SQLite.
type DecisionLog struct {
	*sql.DB
	RunID string
}

// NewDecisionLog opens (or creates) the database at path and starts a new run.
func NewDecisionLog(path, notes string) (*DecisionLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply decision schema: %w", err)
	}

	runID := uuid.NewString()
	if _, err := db.Exec(`INSERT INTO runs (id, notes) VALUES (?, ?)`, runID, notes); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return &DecisionLog{DB: db, RunID: runID}, nil
}

// Publish inserts one decision row.
func (l *DecisionLog) Publish(d types.Decision) error {
	query := `
		INSERT INTO decisions (run_id, frame_seq, outcome, angle_deg, throttle,
			region_count, ambiguous, curve_a, curve_b, curve_c, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var a, b, c sql.NullFloat64
	if d.Vehicle != nil {
		a = sql.NullFloat64{Float64: d.Vehicle.A, Valid: true}
		b = sql.NullFloat64{Float64: d.Vehicle.B, Valid: true}
		c = sql.NullFloat64{Float64: d.Vehicle.C, Valid: true}
	}

	_, err := l.Exec(query, l.RunID, int64(d.FrameSeq), d.Outcome.String(), d.Command.AngleDeg,
		d.Command.Throttle, d.RegionCount, d.Ambiguous, a, b, c, strings.Join(d.Notes, "; "))
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	return nil
}
