package renderer

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	portfolio "github.com/etnz/portfolio-chart"
	"github.com/etnz/portfolio-chart/series"
)

var fixGolden = flag.Bool("fix-golden", false, "if true, update failing golden files with the received output")

var (
	day1 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	day2 = time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC).Unix()
)

func D(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestFixGoldenIsOff(t *testing.T) {
	if *fixGolden {
		t.Fatal("-fix-golden is enabled. This flag should only be used for updating test fixtures and must be disabled for regular tests.")
	}
}

func testChart() *portfolio.Chart {
	value := series.New([]series.Point{
		series.NewPoint(day1, series.OHLC, D(120), D(125), D(118), D(120)),
		series.NewPoint(day2, series.OHLC, D(130), D(135), D(128), D(130)),
	}, series.OHLC)
	costBasis := series.New([]series.Point{
		series.NewPoint(day1, series.Value, D(100)),
		series.NewPoint(day2, series.Value, D(100)),
	}, series.Value)
	last, _ := value.Latest()
	return &portfolio.Chart{
		Currency:   "USD",
		Value:      value,
		CostBasis:  costBasis,
		Thumbnails: map[string]*series.Series{"AAPL.US": value},
		Summary: portfolio.Summary{
			Time:      day2,
			Last:      last,
			CostBasis: D(100),
			Change:    portfolio.Change(D(130), D(100)),
		},
	}
}

func testHoldings() []portfolio.Holding {
	return []portfolio.Holding{
		{Symbol: "MSFT.US", Currency: "USD", Transactions: []portfolio.Transaction{
			{ID: "m1", Time: day1, Quantity: D(5), Price: D(50), Type: portfolio.Buy},
			{ID: "m2", Time: day2, Quantity: D(5), Price: D(60), Type: portfolio.Sell},
		}},
		{Symbol: "AAPL.US", Currency: "USD", Transactions: []portfolio.Transaction{
			{ID: "a1", Time: day1, Quantity: D(10), Price: D(100), Type: portfolio.Buy},
			{ID: "a2", Time: day2, Quantity: D(4), Price: D(120), Type: portfolio.Sell},
		}},
	}
}

func TestRendering(t *testing.T) {
	testCases := []struct {
		name       string
		goldenFile string
		render     func() string
	}{
		{
			name:       "chart",
			goldenFile: "testdata/chart.md",
			render:     func() string { return RenderChart(NewChart(testChart(), "main", 10)) },
		},
		{
			name:       "chart_one_row",
			goldenFile: "testdata/chart_one_row.md",
			render:     func() string { return RenderChart(NewChart(testChart(), "main", 1)) },
		},
		{
			name:       "holdings",
			goldenFile: "testdata/holdings.md",
			render:     func() string { return RenderHoldings(NewHoldings("main", testHoldings(), day2)) },
		},
		{
			name:       "transactions",
			goldenFile: "testdata/transactions.md",
			render:     func() string { return RenderTransactions(NewTransactions("main", testHoldings())) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.render()
			want, err := os.ReadFile(tc.goldenFile)
			if err != nil && !(os.IsNotExist(err) && *fixGolden) {
				t.Fatalf("failed to read golden file %q: %v", tc.goldenFile, err)
			}
			if got == string(want) {
				return
			}
			if *fixGolden {
				if err := os.MkdirAll(filepath.Dir(tc.goldenFile), 0755); err != nil {
					t.Fatalf("failed to create testdata directory: %v", err)
				}
				if err := os.WriteFile(tc.goldenFile, []byte(got), 0644); err != nil {
					t.Fatalf("failed to write updated golden file %q: %v", tc.goldenFile, err)
				}
				t.Logf("updated golden file %s", tc.goldenFile)
				return
			}
			t.Errorf("output mismatch for %s (-want +got):\n%s", tc.name, cmp.Diff(string(want), got))
		})
	}
}

func TestChartIsMarkdown(t *testing.T) {
	testCases := []struct {
		name   string
		chart  *portfolio.Chart
		tables int
	}{
		{"full", testChart(), 3},
		{"no thumbnails", func() *portfolio.Chart { c := testChart(); c.Thumbnails = nil; return c }(), 2},
		{"empty", &portfolio.Chart{Currency: "USD"}, 1},
	}
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src := []byte(RenderChart(NewChart(tc.chart, "main", 10)))
			root := md.Parser().Parse(text.NewReader(src))

			tables := 0
			ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
				if _, ok := n.(*east.Table); ok && entering {
					tables++
				}
				return ast.WalkContinue, nil
			})
			if tables != tc.tables {
				t.Errorf("RenderChart() has %d tables, want %d:\n%s", tables, tc.tables, src)
			}
		})
	}
}

func TestSparkline(t *testing.T) {
	testCases := []struct {
		values []float64
		want   string
	}{
		{nil, ""},
		{[]float64{1, 1, 1}, "▅▅▅"},
		{[]float64{0, 7}, "▁█"},
		{[]float64{0, 1, 2, 3, 4, 5, 6, 7}, "▁▂▃▄▅▆▇█"},
		{[]float64{7, 0, 3.5}, "█▁▄"},
	}
	for _, tc := range testCases {
		var values []decimal.Decimal
		for _, v := range tc.values {
			values = append(values, D(v))
		}
		if got := sparkline(values); got != tc.want {
			t.Errorf("sparkline(%v) = %q, want %q", tc.values, got, tc.want)
		}
	}
}

func TestDateLayout(t *testing.T) {
	if got := format(day2, dateLayout(series.Day)); got != "2024-01-02" {
		t.Errorf("daily date = %q, want 2024-01-02", got)
	}
	if got := format(day2+3600, dateLayout(series.Hour)); got != "2024-01-02 01:00" {
		t.Errorf("hourly date = %q, want 2024-01-02 01:00", got)
	}
}
