package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/marsops/backend/internal/domain/shared"
	"github.com/marsops/backend/internal/infrastructure/notionapi"
	"github.com/marsops/backend/internal/infrastructure/salesforce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	rows []salesforce.OpportunityRow
	err  error
}

func (f *fakePipeline) FetchPipelineReport(ctx context.Context) ([]salesforce.OpportunityRow, error) {
	return f.rows, f.err
}

type fakeTracker struct {
	pages []notionapi.Page
	err   error
}

func (f *fakeTracker) QueryDatabase(ctx context.Context) ([]notionapi.Page, error) {
	return f.pages, f.err
}

func trackerPage(name string, value float64) notionapi.Page {
	return notionapi.Page{
		ID: "page-" + name,
		Properties: map[string]notionapi.PropertyValue{
			"Name":           {Type: "title", Title: []notionapi.RichText{{PlainText: name}}},
			"Contract Value": {Type: "number", Number: &value},
		},
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Acme, Inc.":                      "acme",
		"Acme Inc":                        "acme",
		"Springfield Water District":      "springfield",
		"City of Shelbyville Utilities":   "city of shelbyville",
		"Globex Corporation (renewal)":    "globex",
		"Initech LLC  [VF-10]":            "initech",
		"  Wayne   Water Works  ":         "wayne",
		"Stark Industries (1 of 3)":       "stark industries",
		"Umbrella Corp":                   "umbrella",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeName(input), "input %q", input)
	}
}

func TestReconcileRun(t *testing.T) {
	ctx := context.Background()

	pipeline := &fakePipeline{rows: []salesforce.OpportunityRow{
		{ID: "006A", Account: "Acme, Inc.", Stage: "Closed Won", Amount: 120000, CloseDate: "2026-06-30"},
		{ID: "006B", Account: "Acme, Inc.", Stage: "Negotiation", Amount: 30000, CloseDate: "2026-09-30"},
		{ID: "006C", Account: "Globex Corporation", Stage: "Proposal", Amount: 80000},
		{ID: "006D", Account: "Initech LLC", Stage: "Closed Won", Amount: 55000},
		{ID: "006E", Account: "", Stage: "Closed Won", Amount: 99999},
	}}
	tracker := &fakeTracker{pages: []notionapi.Page{
		trackerPage("Acme Inc", 150000),
		trackerPage("Globex Corp", 50000),
		trackerPage("Hooli", 200000),
	}}

	service := NewReconcileService(pipeline, tracker, nil)
	report, err := service.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, report.SalesforceCount)
	assert.Equal(t, 3, report.NotionCount)
	assert.Equal(t, 2, report.MatchedCount)

	// Acme's two opportunities are summed before matching
	require.Len(t, report.Matched, 2)
	assert.Equal(t, "Acme, Inc.", report.Matched[0].Name)
	assert.Equal(t, 150000.0, report.Matched[0].SalesforceValue)
	assert.Equal(t, 150000.0, report.Matched[0].NotionValue)

	require.Len(t, report.MissingFromNotion, 1)
	assert.Equal(t, "Initech LLC", report.MissingFromNotion[0].Name)
	assert.Equal(t, 55000.0, report.MissingValueTotal)

	require.Len(t, report.OnlyInNotion, 1)
	assert.Equal(t, "Hooli", report.OnlyInNotion[0].Name)

	// Globex drifted 80k vs 50k, well past the threshold
	require.Len(t, report.ValueMismatches, 1)
	assert.Equal(t, "Globex Corporation", report.ValueMismatches[0].Name)
	assert.InDelta(t, 37.5, report.ValueMismatches[0].DriftPct, 0.01)

	assert.Equal(t, 285000.0, report.SalesforceTotal)
	assert.Equal(t, 400000.0, report.NotionTotal)
	assert.Equal(t, 115000.0, report.TotalDrift)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestReconcileRun_MatchedWithinThreshold(t *testing.T) {
	pipeline := &fakePipeline{rows: []salesforce.OpportunityRow{
		{ID: "006A", Account: "Acme", Amount: 100000},
	}}
	tracker := &fakeTracker{pages: []notionapi.Page{trackerPage("Acme", 96000)}}

	report, err := NewReconcileService(pipeline, tracker, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, report.ValueMismatches)
}

func TestReconcileRun_DuplicateNormalizedNamesCollapse(t *testing.T) {
	// Two accounts that normalize identically: one matched row, the
	// later occurrence supplies the value.
	pipeline := &fakePipeline{rows: []salesforce.OpportunityRow{
		{ID: "006A", Account: "Acme Corporation", Amount: 100000},
		{ID: "006B", Account: "ACME CORP", Amount: 40000},
		{ID: "006C", Account: "Globex Corporation", Amount: 75000},
	}}
	tracker := &fakeTracker{pages: []notionapi.Page{
		trackerPage("Acme Inc", 40000),
		trackerPage("Acme, Inc.", 42000),
	}}

	report, err := NewReconcileService(pipeline, tracker, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.SalesforceCount)
	assert.Equal(t, 1, report.NotionCount)

	require.Len(t, report.Matched, 1)
	assert.Equal(t, "ACME CORP", report.Matched[0].Name)
	assert.Equal(t, 40000.0, report.Matched[0].SalesforceValue)
	assert.Equal(t, 42000.0, report.Matched[0].NotionValue)

	require.Len(t, report.MissingFromNotion, 1)
	assert.Equal(t, "Globex Corporation", report.MissingFromNotion[0].Name)
	assert.Empty(t, report.OnlyInNotion)

	assert.Equal(t, 115000.0, report.SalesforceTotal)
	assert.Equal(t, 42000.0, report.NotionTotal)
}

func TestReconcileRun_SourceErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewReconcileService(&fakePipeline{err: errors.New("report unavailable")}, &fakeTracker{}, nil).Run(ctx)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "RECONCILE_FAILED", domainErr.Code)

	_, err = NewReconcileService(&fakePipeline{}, &fakeTracker{err: errors.New("rate limited")}, nil).Run(ctx)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "RECONCILE_FAILED", domainErr.Code)
}

func TestReconcileRun_ZeroValuePairsNotFlagged(t *testing.T) {
	pipeline := &fakePipeline{rows: []salesforce.OpportunityRow{
		{ID: "006A", Account: "Acme", Amount: 0},
	}}
	tracker := &fakeTracker{pages: []notionapi.Page{trackerPage("Acme", 40000)}}

	report, err := NewReconcileService(pipeline, tracker, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.MatchedCount)
	assert.Empty(t, report.ValueMismatches)
}
