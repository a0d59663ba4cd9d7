package reconcile

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/notionapi"
	"github.com/marsops/backend/internal/infrastructure/salesforce"
	"go.uber.org/zap"
)

// mismatchThresholdPct is the relative value drift above which a matched
// pair is reported as a mismatch.
const mismatchThresholdPct = 5.0

// notionValueProperty is the Notion database property holding the
// contract value.
const notionValueProperty = "Contract Value"

// PipelineSource supplies the CRM side of the comparison
type PipelineSource interface {
	FetchPipelineReport(ctx context.Context) ([]salesforce.OpportunityRow, error)
}

// TrackerSource supplies the tracking database side of the comparison
type TrackerSource interface {
	QueryDatabase(ctx context.Context) ([]notionapi.Page, error)
}

// Entry is one aggregated contract on either side of the comparison
type Entry struct {
	Name             string  `json:"name"`
	Value            float64 `json:"value"`
	Stage            string  `json:"stage,omitempty"`
	CloseDate        string  `json:"close_date,omitempty"`
	OpportunityCount int     `json:"opportunity_count,omitempty"`
}

// MatchedPair is a contract found on both sides
type MatchedPair struct {
	Name            string  `json:"name"`
	SalesforceValue float64 `json:"salesforce_value"`
	NotionValue     float64 `json:"notion_value"`
}

// ValueMismatch flags a matched pair whose values drift apart
type ValueMismatch struct {
	Name            string  `json:"name"`
	SalesforceValue float64 `json:"salesforce_value"`
	NotionValue     float64 `json:"notion_value"`
	DriftPct        float64 `json:"drift_pct"`
}

// Report is the outcome of one reconciliation run
type Report struct {
	GeneratedAt       time.Time       `json:"generated_at"`
	SalesforceCount   int             `json:"salesforce_count"`
	NotionCount       int             `json:"notion_count"`
	MatchedCount      int             `json:"matched_count"`
	Matched           []MatchedPair   `json:"matched"`
	MissingFromNotion []Entry         `json:"missing_from_notion"`
	OnlyInNotion      []Entry         `json:"only_in_notion"`
	ValueMismatches   []ValueMismatch `json:"value_mismatches"`
	SalesforceTotal   float64         `json:"salesforce_total"`
	NotionTotal       float64         `json:"notion_total"`
	TotalDrift        float64         `json:"total_drift"`
	MissingValueTotal float64         `json:"missing_value_total"`
}

// ReconcileService compares the CRM pipeline against the contract tracking
// database and reports contracts missing from either side plus value drift
// on matched pairs.
type ReconcileService struct {
	pipeline PipelineSource
	tracker  TrackerSource
	logger   *zap.Logger
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(pipeline PipelineSource, tracker TrackerSource, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{
		pipeline: pipeline,
		tracker:  tracker,
		logger:   logger,
	}
}

// Run fetches both sides and produces a reconciliation report
func (s *ReconcileService) Run(ctx context.Context) (*Report, error) {
	if s.pipeline == nil || s.tracker == nil {
		return nil, shared.NewDomainError("UPSTREAM_UNAVAILABLE", "Reconciliation integrations are not configured")
	}

	rows, err := s.pipeline.FetchPipelineReport(ctx)
	if err != nil {
		return nil, shared.NewDomainError("RECONCILE_FAILED", fmt.Sprintf("pipeline fetch failed: %v", err))
	}
	pages, err := s.tracker.QueryDatabase(ctx)
	if err != nil {
		return nil, shared.NewDomainError("RECONCILE_FAILED", fmt.Sprintf("tracker fetch failed: %v", err))
	}

	sfEntries := aggregatePipeline(rows)
	notionEntries := trackerEntries(pages)

	report := compare(sfEntries, notionEntries)
	report.GeneratedAt = time.Now()

	s.logger.Info("reconciliation completed",
		zap.Int("salesforce_count", report.SalesforceCount),
		zap.Int("notion_count", report.NotionCount),
		zap.Int("matched", report.MatchedCount),
		zap.Int("missing_from_notion", len(report.MissingFromNotion)),
		zap.Int("value_mismatches", len(report.ValueMismatches)))

	return report, nil
}

// aggregatePipeline groups opportunity rows by account, summing values.
// One account often carries several opportunities but maps to a single
// contract record on the tracking side.
func aggregatePipeline(rows []salesforce.OpportunityRow) []Entry {
	byAccount := make(map[string]*Entry)
	var order []string
	for _, row := range rows {
		account := row.Account
		if account == "" {
			continue
		}
		entry, ok := byAccount[account]
		if !ok {
			entry = &Entry{
				Name:      account,
				Stage:     row.Stage,
				CloseDate: row.CloseDate,
			}
			byAccount[account] = entry
			order = append(order, account)
		}
		entry.Value += row.Amount
		entry.OpportunityCount++
	}

	entries := make([]Entry, 0, len(order))
	for _, account := range order {
		entries = append(entries, *byAccount[account])
	}
	return entries
}

func trackerEntries(pages []notionapi.Page) []Entry {
	entries := make([]Entry, 0, len(pages))
	for _, page := range pages {
		name := ""
		if prop, ok := page.Properties["Name"]; ok {
			name = prop.PlainText()
		}
		if name == "" {
			continue
		}
		value := 0.0
		if prop, ok := page.Properties[notionValueProperty]; ok {
			value = prop.NumberValue()
		}
		entries = append(entries, Entry{Name: name, Value: value})
	}
	return entries
}

// dedupeByName collapses entries sharing a normalized name. The first
// occurrence fixes the position, the last occurrence wins the value.
func dedupeByName(entries []Entry) ([]string, map[string]Entry) {
	byName := make(map[string]Entry, len(entries))
	var order []string
	for _, e := range entries {
		key := NormalizeName(e.Name)
		if _, seen := byName[key]; !seen {
			order = append(order, key)
		}
		byName[key] = e
	}
	return order, byName
}

func compare(sfEntries, notionEntries []Entry) *Report {
	sfOrder, sfByName := dedupeByName(sfEntries)
	notionOrder, notionByName := dedupeByName(notionEntries)

	report := &Report{
		SalesforceCount:   len(sfByName),
		NotionCount:       len(notionByName),
		Matched:           []MatchedPair{},
		MissingFromNotion: []Entry{},
		OnlyInNotion:      []Entry{},
		ValueMismatches:   []ValueMismatch{},
	}

	for _, key := range sfOrder {
		e := sfByName[key]
		report.SalesforceTotal += e.Value
		counterpart, ok := notionByName[key]
		if !ok {
			report.MissingFromNotion = append(report.MissingFromNotion, e)
			report.MissingValueTotal += e.Value
			continue
		}
		report.Matched = append(report.Matched, MatchedPair{
			Name:            e.Name,
			SalesforceValue: e.Value,
			NotionValue:     counterpart.Value,
		})
	}

	for _, key := range notionOrder {
		e := notionByName[key]
		report.NotionTotal += e.Value
		if _, ok := sfByName[key]; !ok {
			report.OnlyInNotion = append(report.OnlyInNotion, e)
		}
	}

	report.MatchedCount = len(report.Matched)
	report.TotalDrift = math.Abs(report.SalesforceTotal - report.NotionTotal)

	for _, m := range report.Matched {
		if m.SalesforceValue <= 0 || m.NotionValue <= 0 {
			continue
		}
		drift := math.Abs(m.SalesforceValue-m.NotionValue) / math.Max(m.SalesforceValue, m.NotionValue) * 100
		if drift > mismatchThresholdPct {
			report.ValueMismatches = append(report.ValueMismatches, ValueMismatch{
				Name:            m.Name,
				SalesforceValue: m.SalesforceValue,
				NotionValue:     m.NotionValue,
				DriftPct:        drift,
			})
		}
	}
	sort.Slice(report.ValueMismatches, func(i, j int) bool {
		return report.ValueMismatches[i].DriftPct > report.ValueMismatches[j].DriftPct
	})

	return report
}
