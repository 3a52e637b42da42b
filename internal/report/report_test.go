package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-greeks/internal/chain"
	"github.com/contactkeval/option-greeks/internal/pricing"
	"github.com/contactkeval/option-greeks/internal/testutil"
)

func fixedResults() []chain.Result {
	nan := math.NaN()
	return []chain.Result{
		{
			Quote:       chain.Quote{ID: "a", Type: "call", Spot: 100, Strike: 105, Rate: 0.03, Dividend: 0.01, Years: 0.25, Price: 2.5},
			Solved:      true,
			ImpliedVol:  0.123456789,
			OptionPrice: 2.5,
			Greeks: pricing.Greeks{
				Delta: 0.5, Gamma: 0.02, Theta: -0.01, Vega: 0.2, Rho: 0.1, Epsilon: -0.3, Lambda: 8.5,
				Vanna: 0.001, Charm: 0.002, Veta: 0.003, Vomma: 0.004, Speed: -0.0005, Zomma: 0.0006,
				Color: -0.0007, Ultima: 0.0008, DualDelta: -0.45, DualGamma: 0.021,
			},
		},
		{
			Quote:       chain.Quote{ID: "b", Type: "put", Spot: 100, Strike: 90, Rate: 0.05, Dividend: 0.05, Years: 0.5, Price: 1},
			Solved:      false,
			Error:       "price 1: below intrinsic",
			ImpliedVol:  nan,
			OptionPrice: nan,
			Greeks: pricing.Greeks{
				Delta: nan, Gamma: nan, Theta: nan, Vega: nan, Rho: nan, Epsilon: nan, Lambda: nan,
				Vanna: nan, Charm: nan, Veta: nan, Vomma: nan, Speed: nan, Zomma: nan,
				Color: nan, Ultima: nan, DualDelta: nan, DualGamma: nan,
			},
		},
	}
}

func TestRowsGolden(t *testing.T) {
	testutil.CompareWithGolden(t, "rows", Rows(fixedResults()))
}

func TestNum(t *testing.T) {
	assert.False(t, num(math.NaN()).Valid)
	assert.False(t, num(math.Inf(-1)).Valid)
	assert.Equal(t, "0.12345679", num(0.123456789).Decimal.String())
	assert.Equal(t, "-", num(math.NaN()).String())
	assert.Equal(t, "2.5000", num(2.5).String())
}

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteJSON(fixedResults(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "greeks.json"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "0.5", decoded[0]["delta"])
	assert.Nil(t, decoded[1]["delta"])
	assert.Equal(t, "price 1: below intrinsic", decoded[1]["error"])
	assert.NotContains(t, decoded[0], "error")
}

func TestWriteCSV(t *testing.T) {
	path, err := WriteCSV(fixedResults(), t.TempDir())
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("missing column %s", name)
		return -1
	}

	assert.Equal(t, "a", records[1][col("id")])
	assert.Equal(t, "0.12345679", records[1][col("implied_vol")])
	assert.Equal(t, "-0.45", records[1][col("dual_delta")])
	assert.Equal(t, "", records[2][col("delta")])
	assert.Equal(t, "false", records[2][col("solved")])
}

func TestWriteFileReportsCloseError(t *testing.T) {
	dir := t.TempDir()

	_, err := writeFile(dir, "closed.json", func(w io.Writer) error {
		return w.(*os.File).Close()
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close")

	_, err = writeFile(dir, "failed.json", func(io.Writer) error {
		return errors.New("boom")
	})
	assert.ErrorContains(t, err, "boom")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, fixedResults())

	out := buf.String()
	assert.Contains(t, out, "0.5000")
	assert.Contains(t, out, "0.1235")
	assert.Contains(t, out, "call")
	assert.Contains(t, out, "-")
}
