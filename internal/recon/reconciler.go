package recon

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/getcher123/UD-MVP/internal/audit"
	"github.com/getcher123/UD-MVP/internal/config"
	"github.com/getcher123/UD-MVP/internal/match"
	"github.com/getcher123/UD-MVP/internal/model"
	"github.com/getcher123/UD-MVP/internal/normalize"
	"github.com/getcher123/UD-MVP/internal/sheet"
)

// normalizeWorkers bounds the goroutines normalizing one batch.
const normalizeWorkers = 8

const ambiguousReason = "multiple sheet matches (ambiguous area)"

// Reconciler runs full reconciliation passes: one batch in, one set of sheet
// writes and one request log entry out.
type Reconciler struct {
	store    sheet.Store
	locker   Locker
	cache    Cache          // optional
	tracker  *audit.Tracker // optional
	norm     *Normalizer
	matchCfg match.Config
	aliases  map[string]string
	columns  []string
	log      *zap.Logger
	now      func() time.Time
}

// New wires a Reconciler. cache and tracker may be nil.
func New(store sheet.Store, locker Locker, cache Cache, tracker *audit.Tracker, cfg *config.Config, log *zap.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		locker:  locker,
		cache:   cache,
		tracker: tracker,
		norm:    NewNormalizer(cfg),
		matchCfg: match.Config{
			AreaToleranceAbs:  cfg.Match.AreaToleranceAbs,
			AreaTolerancePct:  cfg.Match.AreaTolerancePct,
			NameThreshold:     cfg.Match.NameThreshold,
			ScoreGapThreshold: cfg.Match.ScoreGapThreshold,
			AreaPenaltyWeight: cfg.Match.AreaPenaltyWeight,
		},
		aliases: cfg.Aliases,
		columns: cfg.Columns,
		log:     log,
		now:     time.Now,
	}
}

// Process reconciles one batch. A request id seen before returns the stored
// outcome verbatim; otherwise the batch is normalized, matched against a
// frozen snapshot and written as one batched apply under the sheet lock.
func (r *Reconciler) Process(ctx context.Context, batch model.Batch) (*model.Response, error) {
	if err := validateBatch(batch); err != nil {
		return nil, err
	}

	if r.cache != nil {
		if entry, err := r.cache.Get(ctx, batch.RequestID); err != nil {
			r.log.Warn("idempotency cache read failed", zap.String("request_id", batch.RequestID), zap.Error(err))
		} else if entry != nil {
			r.log.Info("request replayed from cache", zap.String("request_id", batch.RequestID))
			return entry.Response(), nil
		}
	}

	release, err := r.locker.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// Authoritative idempotency check happens under the lock so two racing
	// submissions of one request id cannot both process.
	entry, err := r.store.FindRequestLog(ctx, batch.RequestID)
	if err != nil {
		return nil, InternalError("request log lookup", err)
	}
	if entry != nil {
		r.cacheEntry(ctx, *entry)
		r.log.Info("request replayed from log", zap.String("request_id", batch.RequestID))
		return entry.Response(), nil
	}

	start := r.now()
	rows, err := r.store.Snapshot(ctx)
	if err != nil {
		return nil, InternalError("sheet snapshot", err)
	}
	idx := match.BuildIndex(indexRows(rows))

	normalized := make([]model.NormalizedListing, len(batch.Listings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(normalizeWorkers)
	for i, listing := range batch.Listings {
		i, listing := i, listing
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			normalized[i] = r.norm.Normalize(listing, batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, InternalError("normalization canceled", err)
	}

	processedAt := r.now().UTC().Format(time.RFC3339)
	var (
		summary    model.Summary
		duplicates = []model.DuplicateEntry{}
		updates    []sheet.RowUpdate
		appends    [][]any
		decisions  []audit.Decision
	)

	// Matching runs against the frozen snapshot: listings in this batch do
	// not see each other's queued writes, so two new listings for one
	// building both append.
	for i, nl := range normalized {
		decision := audit.Decision{
			RequestID:    batch.RequestID,
			ListingIndex: i,
			BuildingName: nl.BuildingName,
			AreaSqm:      nl.AreaSqm,
			DecidedAt:    start,
		}

		if nl.BuildingName == "" || nl.AreaSqm == nil {
			summary.Skipped++
			decision.Outcome = "skipped"
			decisions = append(decisions, decision)
			continue
		}

		res := match.Match(idx, nl.BuildingName, nl.AreaSqm, r.aliases, r.matchCfg)
		values := r.rowValues(nl, processedAt)
		switch res.Kind {
		case match.Matched:
			updates = append(updates, sheet.RowUpdate{Position: res.Position, Values: values})
			summary.Updated++
			decision.Outcome = "updated"
			decision.Position = res.Position
		case match.NotFound:
			appends = append(appends, values)
			summary.Inserted++
			decision.Outcome = "inserted"
		case match.Ambiguous:
			candidateRows := make([]int, len(res.Candidates))
			for j, c := range res.Candidates {
				candidateRows[j] = c.Position
			}
			duplicates = append(duplicates, model.DuplicateEntry{
				ListingIndex:  i,
				Reason:        ambiguousReason,
				CandidateRows: candidateRows,
			})
			summary.Skipped++
			decision.Outcome = "duplicate"
			decision.Candidates = res.Candidates
		}
		decisions = append(decisions, decision)
	}

	// Once writing starts the pass runs to completion even if the caller
	// goes away; a half-applied batch plus no log entry is exactly the state
	// the self-healing retry is built for, but there is no reason to create
	// it on a routine client timeout.
	applyCtx := context.WithoutCancel(ctx)
	if _, err := r.store.Apply(applyCtx, updates, appends); err != nil {
		return nil, InternalError("sheet apply", err)
	}

	logEntry := model.RequestLogEntry{
		RequestID:   batch.RequestID,
		ProcessedAt: processedAt,
		Summary:     summary,
		Duplicates:  duplicates,
		Meta:        batch.Meta,
	}
	if err := r.store.AppendLog(applyCtx, logEntry); err != nil {
		return nil, InternalError("request log append", err)
	}
	r.cacheEntry(applyCtx, logEntry)

	if r.tracker != nil {
		if err := r.tracker.Record(applyCtx, decisions); err != nil {
			r.log.Warn("audit record failed", zap.String("request_id", batch.RequestID), zap.Error(err))
		}
	}

	r.log.Info("batch reconciled",
		zap.String("request_id", batch.RequestID),
		zap.Int("listings", len(batch.Listings)),
		zap.Int("updated", summary.Updated),
		zap.Int("inserted", summary.Inserted),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("took", r.now().Sub(start)),
	)

	return logEntry.Response(), nil
}

func (r *Reconciler) cacheEntry(ctx context.Context, entry model.RequestLogEntry) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, entry); err != nil {
		r.log.Warn("idempotency cache write failed", zap.String("request_id", entry.RequestID), zap.Error(err))
	}
}

// validateBatch rejects batch-level malformation only. Per-listing problems
// (blank building name, unparseable area) degrade to skipped during the pass,
// so a batch with zero valid listings still succeeds with an all-zero summary.
func validateBatch(batch model.Batch) error {
	if strings.TrimSpace(batch.RequestID) == "" {
		return SchemaError("request_id is required")
	}
	if len(batch.Listings) == 0 {
		return SchemaError("listings must not be empty")
	}
	return nil
}

// indexRows projects snapshot rows into the matcher's shape.
func indexRows(rows []sheet.Row) []match.RowInfo {
	out := make([]match.RowInfo, 0, len(rows))
	for _, row := range rows {
		info := match.RowInfo{
			Position:     row.Position,
			BuildingName: row.Columns["building_name"],
		}
		if area, ok := normalize.PositiveNumber(row.Columns["area_sqm"]); ok {
			info.AreaSqm = area
		}
		out = append(out, info)
	}
	return out
}

// rowValues renders a normalized listing in the sheet's column order.
func (r *Reconciler) rowValues(nl model.NormalizedListing, processedAt string) []any {
	byName := map[string]string{
		"object_name":             nl.ObjectName,
		"building_name":           nl.BuildingName,
		"use_type_norm":           nl.UseType,
		"area_sqm":                num(nl.AreaSqm),
		"divisible_from_sqm":      num(nl.DivisibleFromSqm),
		"floors_norm":             nl.Floors,
		"market_type":             nl.MarketType,
		"fitout_condition_norm":   nl.FitoutCondition,
		"delivery_date_norm":      nl.DeliveryDate,
		"rent_rate_year_sqm_base": num(nl.RentRateYearSqmBase),
		"rent_vat_norm":           string(nl.RentVAT),
		"opex_year_per_sqm":       num(nl.OpexYearPerSqm),
		"opex_included":           string(nl.OpexIncluded),
		"rent_month_total_gross":  num(nl.RentMonthTotalGross),
		"sale_price_per_sqm":      num(nl.SalePricePerSqm),
		"sale_vat_norm":           string(nl.SaleVAT),
		"source_file":             nl.SourceFile,
		"request_id":              nl.RequestID,
		"recognition_summary":     recognitionSummary(nl),
		"uncertain_parameters":    strings.Join(nl.QualityFlags, "; "),
		"updated_at":              processedAt,
	}
	values := make([]any, len(r.columns))
	for i, col := range r.columns {
		values[i] = byName[col]
	}
	return values
}

// recognitionSummary carries the composed identity into the sheet for
// operators tracing a row back to its source document.
func recognitionSummary(nl model.NormalizedListing) string {
	return fmt.Sprintf("listing_id=%s; building_id=%s", nl.ListingID, nl.BuildingID)
}

func num(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
