// Package pipeline wires the migration stages together: extract from the
// source store, probe, transform, resolve conflicts against the target, then
// load. Stages run sequentially; each one consumes the previous stage's
// output and contributes to the run summary.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"usermigrate/internal/export"
	"usermigrate/internal/metrics"
	"usermigrate/internal/probe"
	"usermigrate/internal/resolve"
	"usermigrate/internal/schema"
	"usermigrate/internal/source"
	"usermigrate/internal/storage"
	"usermigrate/internal/transform"
	"usermigrate/pkg/records"
)

// Options configures one run.
type Options struct {
	Job       string
	UsersPath string

	RemoveDuplicates bool
	DedupKeyField    string
	DedupOrderField  string
	KeepPolicy       string

	LoadMode  storage.Mode
	ChunkSize int

	// ExportDir, when non-empty, enables snapshot files for the raw and
	// transformed stages.
	ExportDir string

	// Now is injectable for tests; defaults to time.Now.
	Now transform.NowFunc
}

// Summary aggregates the outcome of a full run.
type Summary struct {
	Extracted int

	Probe     *probe.Report
	Transform *transform.Report
	Resolve   *resolve.Result
	Load      *storage.LoadReport

	// TargetRows is the table's row count after the load, zero when the
	// verification query failed.
	TargetRows int64

	Started  time.Time
	Finished time.Time
}

// Duration returns the wall-clock duration of the run.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Pipeline runs the migration end to end.
type Pipeline struct {
	Source source.Source
	Target storage.Target
	Table  string
	Log    *zap.Logger
}

// Run executes extract, probe, transform, resolve and load in order.
//
// Only infrastructure failures return an error: source unreachable, target
// table missing, key fetch failing. Per-record problems are accounted in the
// summary and never abort the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sum := &Summary{Started: time.Now()}
	defer func() { sum.Finished = time.Now() }()

	// Extract.
	stepStart := time.Now()
	rawByID, err := p.Source.FetchAll(ctx, opts.UsersPath)
	metrics.RecordStep(opts.Job, "extract", err, time.Since(stepStart))
	if err != nil {
		return sum, fmt.Errorf("pipeline: extract: %w", err)
	}
	sum.Extracted = len(rawByID)
	metrics.RecordUsers(opts.Job, "extracted", int64(len(rawByID)))
	log.Info("extracted records",
		zap.String("path", opts.UsersPath),
		zap.Int("count", len(rawByID)))

	// Snapshot before any mutation so the raw artifact reflects the source
	// as fetched, not the backfilled batch.
	if opts.ExportDir != "" {
		w := &export.Writer{Dir: opts.ExportDir}
		if err := w.Raw("users_raw", rawByID); err != nil {
			log.Warn("raw snapshot failed", zap.Error(err))
		}
	}

	batch := orderedBatch(rawByID)
	p.backfillEmails(ctx, log, batch)

	// Probe. Diagnostic only: a batch with missing required fields is still
	// handed to the transformer, which rejects record by record.
	sum.Probe = probe.Inspect(batch)
	if !sum.Probe.Valid {
		log.Warn("batch has records missing required fields",
			zap.Any("required_nulls", sum.Probe.RequiredNulls))
	}

	// Transform (includes null unification and optional dedup).
	stepStart = time.Now()
	users, report := transform.Batch(batch, transform.BatchOptions{
		RemoveDuplicates: opts.RemoveDuplicates,
		KeyField:         opts.DedupKeyField,
		OrderField:       opts.DedupOrderField,
		Keep:             opts.KeepPolicy,
		Now:              opts.Now,
	})
	metrics.RecordStep(opts.Job, "transform", nil, time.Since(stepStart))
	sum.Transform = report
	metrics.RecordUsers(opts.Job, "transformed", int64(report.Successful))
	metrics.RecordUsers(opts.Job, "transform_failed", int64(report.Failed))
	metrics.RecordUsers(opts.Job, "duplicates_removed", int64(report.Dedup.RemovedCount))
	log.Info("transformed records",
		zap.Int("successful", report.Successful),
		zap.Int("failed", report.Failed),
		zap.Int("duplicates_removed", report.Dedup.RemovedCount))
	for _, re := range report.Errors {
		log.Warn("record rejected",
			zap.String("user_id", re.UserID),
			zap.String("provider", re.Provider),
			zap.Bool("has_email", re.HasEmail),
			zap.String("error", re.Err))
	}

	if opts.ExportDir != "" {
		w := &export.Writer{Dir: opts.ExportDir}
		if err := w.Users("users_transformed", users); err != nil {
			log.Warn("transformed snapshot failed", zap.Error(err))
		}
	}

	// Resolve conflicts against the current target state.
	stepStart = time.Now()
	accepted, res, err := p.resolveAgainstTarget(ctx, users)
	metrics.RecordStep(opts.Job, "resolve", err, time.Since(stepStart))
	if err != nil {
		return sum, err
	}
	sum.Resolve = res
	metrics.RecordUsers(opts.Job, "skipped", int64(res.SkippedDuplicates+res.SkippedEmails))
	metrics.RecordUsers(opts.Job, "rewritten", int64(len(res.Rewrites)))
	log.Info("resolved conflicts",
		zap.Int("accepted", len(accepted)),
		zap.Int("skipped_duplicates", res.SkippedDuplicates),
		zap.Int("skipped_emails", res.SkippedEmails),
		zap.Int("rewritten", len(res.Rewrites)))

	// Load.
	loader := &storage.Loader{
		Target:    p.Target,
		Table:     p.Table,
		ChunkSize: opts.ChunkSize,
		Log:       log,
	}
	stepStart = time.Now()
	loadReport := loader.Load(ctx, accepted, opts.LoadMode)
	var loadErr error
	if loadReport.Failed > 0 {
		loadErr = fmt.Errorf("%d rows failed", loadReport.Failed)
	}
	metrics.RecordStep(opts.Job, "load", loadErr, time.Since(stepStart))
	sum.Load = loadReport
	metrics.RecordUsers(opts.Job, "inserted", int64(loadReport.Inserted))
	metrics.RecordUsers(opts.Job, "load_failed", int64(loadReport.Failed))
	metrics.RecordChunks(opts.Job, int64(loadReport.Chunks))
	log.Info("load finished",
		zap.String("mode", string(opts.LoadMode)),
		zap.Int("inserted", loadReport.Inserted),
		zap.Int("failed", loadReport.Failed))

	// Post-load verification: the count failing is worth a warning, not an
	// aborted run that already loaded its data.
	if n, err := p.Target.Count(ctx, p.Table); err != nil {
		log.Warn("row count verification failed", zap.Error(err))
	} else {
		sum.TargetRows = n
		log.Info("target row count", zap.Int64("rows", n))
	}

	return sum, nil
}

// backfillEmails fills empty email fields from the identity provider when
// the source supports auth lookups. Best effort: a failed or empty lookup
// leaves the record for the transformer's placeholder logic.
func (p *Pipeline) backfillEmails(ctx context.Context, log *zap.Logger, batch []records.Record) {
	lookup, ok := p.Source.(source.EmailLookup)
	if !ok {
		return
	}
	for _, r := range batch {
		if r.String("email") != "" {
			continue
		}
		id := r.String("uid")
		if id == "" {
			id = r.String("id")
		}
		if id == "" {
			continue
		}
		email, err := lookup.LookupAuthEmail(ctx, id)
		if err != nil {
			log.Warn("auth email lookup failed", zap.String("id", id), zap.Error(err))
			continue
		}
		if email != "" {
			r["email"] = email
		}
	}
}

// resolveAgainstTarget verifies the table exists, fetches the current keys
// and applies the conflict policy.
func (p *Pipeline) resolveAgainstTarget(ctx context.Context, users []*schema.User) ([]*schema.User, *resolve.Result, error) {
	ok, err := p.Target.TableExists(ctx, p.Table)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: check table: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("pipeline: target table %q does not exist", p.Table)
	}

	keys, err := p.Target.ExistingKeys(ctx, p.Table, "id", "email")
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: fetch existing keys: %w", err)
	}
	ids := make([]string, 0, len(keys))
	emails := make([]string, 0, len(keys))
	for _, row := range keys {
		if len(row) > 0 {
			ids = append(ids, row[0])
		}
		if len(row) > 1 {
			emails = append(emails, row[1])
		}
	}

	res := resolve.Resolve(users, ids, emails)
	return res.Accepted, res, nil
}

// orderedBatch flattens the keyed batch into a slice in key order, so a run
// over the same snapshot is deterministic.
func orderedBatch(byID map[string]records.Record) []records.Record {
	keys := make([]string, 0, len(byID))
	for k := range byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]records.Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, byID[k])
	}
	return out
}
