// Package report writes evaluated quotes as JSON, CSV or a console table.
// Numeric outputs are fixed to eight decimal places; values that are not
// finite are written as null (JSON) or an empty cell (CSV).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-greeks/internal/chain"
)

const places = 8

// Value is a rounded decimal that may be absent.
type Value struct {
	decimal.NullDecimal
}

func num(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{decimal.NullDecimal{Decimal: decimal.NewFromFloat(v).Round(places), Valid: true}}
}

func (v Value) MarshalCSV() (string, error) {
	if !v.Valid {
		return "", nil
	}
	return v.Decimal.String(), nil
}

// String renders the value for tables.
func (v Value) String() string {
	if !v.Valid {
		return "-"
	}
	return v.Decimal.StringFixed(4)
}

// Row is the flat report record for one quote.
type Row struct {
	ID         string  `json:"id"          csv:"id"`
	Type       string  `json:"type"        csv:"type"`
	Spot       float64 `json:"spot"        csv:"spot"`
	Strike     float64 `json:"strike"      csv:"strike"`
	Rate       float64 `json:"rate"        csv:"rate"`
	Dividend   float64 `json:"dividend"    csv:"dividend"`
	Years      float64 `json:"years"       csv:"years"`
	Solved     bool    `json:"solved"      csv:"solved"`
	Error      string  `json:"error,omitempty" csv:"error"`
	ImpliedVol Value   `json:"implied_vol" csv:"implied_vol"`
	Price      Value   `json:"price"       csv:"price"`
	Delta      Value   `json:"delta"       csv:"delta"`
	Gamma      Value   `json:"gamma"       csv:"gamma"`
	Theta      Value   `json:"theta"       csv:"theta"`
	Vega       Value   `json:"vega"        csv:"vega"`
	Rho        Value   `json:"rho"         csv:"rho"`
	Epsilon    Value   `json:"epsilon"     csv:"epsilon"`
	Lambda     Value   `json:"lambda"      csv:"lambda"`
	Vanna      Value   `json:"vanna"       csv:"vanna"`
	Charm      Value   `json:"charm"       csv:"charm"`
	Veta       Value   `json:"veta"        csv:"veta"`
	Vomma      Value   `json:"vomma"       csv:"vomma"`
	Speed      Value   `json:"speed"       csv:"speed"`
	Zomma      Value   `json:"zomma"       csv:"zomma"`
	Color      Value   `json:"color"       csv:"color"`
	Ultima     Value   `json:"ultima"      csv:"ultima"`
	DualDelta  Value   `json:"dual_delta"  csv:"dual_delta"`
	DualGamma  Value   `json:"dual_gamma"  csv:"dual_gamma"`
}

// Rows converts results to report rows.
func Rows(results []chain.Result) []*Row {
	rows := make([]*Row, len(results))
	for i, r := range results {
		g := r.Greeks
		rows[i] = &Row{
			ID:         r.ID,
			Type:       r.Type,
			Spot:       r.Spot,
			Strike:     r.Strike,
			Rate:       r.Rate,
			Dividend:   r.Dividend,
			Years:      r.Years,
			Solved:     r.Solved,
			Error:      r.Error,
			ImpliedVol: num(r.ImpliedVol),
			Price:      num(r.OptionPrice),
			Delta:      num(g.Delta),
			Gamma:      num(g.Gamma),
			Theta:      num(g.Theta),
			Vega:       num(g.Vega),
			Rho:        num(g.Rho),
			Epsilon:    num(g.Epsilon),
			Lambda:     num(g.Lambda),
			Vanna:      num(g.Vanna),
			Charm:      num(g.Charm),
			Veta:       num(g.Veta),
			Vomma:      num(g.Vomma),
			Speed:      num(g.Speed),
			Zomma:      num(g.Zomma),
			Color:      num(g.Color),
			Ultima:     num(g.Ultima),
			DualDelta:  num(g.DualDelta),
			DualGamma:  num(g.DualGamma),
		}
	}
	return rows
}

// EncodeJSON writes results as an indented JSON array.
func EncodeJSON(w io.Writer, results []chain.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Rows(results))
}

// EncodeCSV writes results as CSV with a header row.
func EncodeCSV(w io.Writer, results []chain.Result) error {
	rows := Rows(results)
	return gocsv.Marshal(&rows, w)
}

// WriteJSON writes outdir/greeks.json and returns its path.
func WriteJSON(results []chain.Result, outdir string) (string, error) {
	return writeFile(outdir, "greeks.json", func(w io.Writer) error { return EncodeJSON(w, results) })
}

// WriteCSV writes outdir/greeks.csv and returns its path.
func WriteCSV(results []chain.Result, outdir string) (string, error) {
	return writeFile(outdir, "greeks.csv", func(w io.Writer) error { return EncodeCSV(w, results) })
}

func writeFile(outdir, name string, encode func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outdir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := encode(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// WriteTable renders the headline figures of results as a console table.
func WriteTable(w io.Writer, results []chain.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Type", "Strike", "Years", "IV", "Price", "Delta", "Gamma", "Theta", "Vega", "Rho"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, row := range Rows(results) {
		table.Append([]string{
			row.ID,
			row.Type,
			strconv.FormatFloat(row.Strike, 'f', -1, 64),
			strconv.FormatFloat(row.Years, 'f', 4, 64),
			row.ImpliedVol.String(),
			row.Price.String(),
			row.Delta.String(),
			row.Gamma.String(),
			row.Theta.String(),
			row.Vega.String(),
			row.Rho.String(),
		})
	}
	table.Render()
}
