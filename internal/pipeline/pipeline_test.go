package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ace30/insightmate/internal/dataset"
	"github.com/Ace30/insightmate/internal/logging"
	"github.com/Ace30/insightmate/internal/store"
	"github.com/Ace30/insightmate/internal/store/memory"
)

const salesCSV = `date,region,sales,cost
2024-01-01,north,100,40
2024-02-01,south,120,45
2024-03-01,north,,50
2024-04-01,east,160,52
2024-05-01,south,180,60
2024-05-01,south,180,60
2024-06-01,north,5000,61
2024-07-01,east,220,70
2024-08-01,north,240,75
`

func loadSales(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV([]byte(salesCSV), dataset.LoadOptions{})
	require.NoError(t, err)
	return tbl
}

func quietOptions() Options {
	opt := DefaultOptions()
	opt.Logger = logging.Discard()
	return opt
}

func TestRun_ProducesEveryArtifact(t *testing.T) {
	tbl := loadSales(t)
	out, err := Run(context.Background(), tbl, quietOptions())
	require.NoError(t, err)

	assert.Equal(t, 9, out.DataSummary.TotalRows)
	assert.Equal(t, 1, out.DataSummary.MissingValues["sales"])
	require.NotNil(t, out.Cleaning)
	assert.Equal(t, 1, out.Cleaning.RowsRemoved, "duplicate row should be dropped")
	assert.Equal(t, 8, out.Cleaned.Rows())
	assert.Equal(t, 9, tbl.Rows(), "input table must not be modified")

	require.NotNil(t, out.Analysis)
	_, ok := out.Analysis.BasicStats.Get()
	assert.True(t, ok)
	require.NotNil(t, out.Charts)
	assert.True(t, out.Charts.Summary.OK())
	require.NotNil(t, out.Insights)
	assert.NotEmpty(t, out.Insights.Summary)
	assert.NotEmpty(t, out.Cards)
	assert.Equal(t, "data_overview", out.Cards[0].Type)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &doc))
	for _, k := range []string{"data_summary", "cleaning_report", "analysis", "charts", "insights", "insight_cards"} {
		assert.Contains(t, doc, k)
	}
}

func TestRun_EmptyTable(t *testing.T) {
	_, err := Run(context.Background(), nil, quietOptions())
	assert.ErrorIs(t, err, dataset.ErrEmptyTable)

	_, err = Run(context.Background(), &dataset.Table{}, quietOptions())
	assert.ErrorIs(t, err, dataset.ErrEmptyTable)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, loadSales(t), quietOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CachesAnalysis(t *testing.T) {
	results := memory.NewResultStore()
	opt := quietOptions()
	opt.Results = results
	opt.Key = Key([]byte(salesCSV))
	opt.Source = "sales.csv"

	out, err := Run(context.Background(), loadSales(t), opt)
	require.NoError(t, err)
	assert.Equal(t, opt.Key, out.Key)

	e, err := Cached(context.Background(), results, opt.Key)
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", e.Source)
	assert.Equal(t, 9, e.Summary.TotalRows)
	require.NotNil(t, e.Analysis)

	_, err = Cached(context.Background(), results, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
	_, err = Cached(context.Background(), nil, opt.Key)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestKey_Stable(t *testing.T) {
	a := Key([]byte("x,y\n1,2\n"))
	assert.Len(t, a, 40)
	assert.Equal(t, a, Key([]byte("x,y\n1,2\n")))
	assert.NotEqual(t, a, Key([]byte("x,y\n1,3\n")))
}
