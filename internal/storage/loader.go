package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"usermigrate/internal/schema"
)

// Mode selects the load strategy.
type Mode string

const (
	// ModeBulk hands whole chunks to the target's bulk-insert path. Fast,
	// but any failure aborts the call with a single batch-level error and
	// no partial-success accounting.
	ModeBulk = Mode("bulk")

	// ModePerRecord inserts one record per transaction. A failing record
	// is logged and skipped; accounting is exact.
	ModePerRecord = Mode("per-record")
)

// LoadError describes one failed record or chunk.
type LoadError struct {
	ID    string `json:"id,omitempty"`
	Chunk int    `json:"chunk,omitempty"`
	Err   string `json:"error"`
}

// LoadReport summarizes one load run.
type LoadReport struct {
	TotalProcessed int         `json:"total_processed"`
	Inserted       int         `json:"successful_loads"`
	Failed         int         `json:"failed_loads"`
	Chunks         int         `json:"chunks_flushed"`
	Errors         []LoadError `json:"errors"`
}

// SuccessRate returns the percentage of records inserted.
func (r *LoadReport) SuccessRate() float64 {
	if r.TotalProcessed == 0 {
		return 0
	}
	return float64(r.Inserted) / float64(r.TotalProcessed) * 100
}

// Loader writes validated users into the target table in fixed-size chunks.
type Loader struct {
	Target    Target
	Table     string
	ChunkSize int
	Log       *zap.Logger
}

// Load runs the selected strategy over the whole batch and returns the
// report. Only per-record mode guarantees partial-success accounting; in
// bulk mode the first failure aborts the run with one batch-level error.
func (l *Loader) Load(ctx context.Context, users []*schema.User, mode Mode) *LoadReport {
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	chunkSize := l.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 500
	}

	report := &LoadReport{TotalProcessed: len(users)}
	if len(users) == 0 {
		return report
	}

	switch mode {
	case ModePerRecord:
		l.loadPerRecord(ctx, log, users, report)
	default:
		l.loadBulk(ctx, log, users, chunkSize, report)
	}
	return report
}

func (l *Loader) loadBulk(ctx context.Context, log *zap.Logger, users []*schema.User, chunkSize int, report *LoadReport) {
	start := time.Now()
	lastFlush := start
	chunkNum := 0

	for off := 0; off < len(users); off += chunkSize {
		end := off + chunkSize
		if end > len(users) {
			end = len(users)
		}
		chunkNum++

		rows, err := prepareRows(users[off:end])
		if err == nil {
			_, err = l.Target.BulkInsert(ctx, l.Table, schema.Columns, rows)
		}
		if err != nil {
			// Bulk mode: the whole run stops on the first failing chunk.
			report.Failed = len(users) - report.Inserted
			report.Errors = append(report.Errors, LoadError{
				Chunk: chunkNum,
				Err:   fmt.Sprintf("bulk insert chunk %d: %v", chunkNum, err),
			})
			log.Error("bulk insert failed",
				zap.Int("chunk", chunkNum),
				zap.Int("inserted_so_far", report.Inserted),
				zap.Error(err))
			return
		}

		report.Inserted += end - off
		report.Chunks++
		now := time.Now()
		sinceLast := now.Sub(lastFlush)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(end-off) / sinceLast.Seconds()
		}
		log.Info("chunk flushed",
			zap.Int("chunk", chunkNum),
			zap.Int("inserted", end-off),
			zap.Int("total_inserted", report.Inserted),
			zap.Float64("rps", rps),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)))
		lastFlush = now
	}
}

func (l *Loader) loadPerRecord(ctx context.Context, log *zap.Logger, users []*schema.User, report *LoadReport) {
	for _, u := range users {
		row, err := PrepareRow(u)
		if err == nil {
			err = l.Target.InsertOne(ctx, l.Table, schema.Columns, row)
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, LoadError{
				ID:  u.ID,
				Err: err.Error(),
			})
			log.Warn("record insert failed", zap.String("id", u.ID), zap.Error(err))
			continue
		}
		report.Inserted++
	}
}

func prepareRows(users []*schema.User) ([][]any, error) {
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		row, err := PrepareRow(u)
		if err != nil {
			return nil, fmt.Errorf("prepare row id=%s: %w", u.ID, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
