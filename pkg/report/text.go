package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/ja7ad/fodlam/pkg/costmodel"
	"github.com/ja7ad/fodlam/pkg/units"
)

var totalColor = color.New(color.FgGreen, color.Bold)

// WriteTable prints each result's totals as an aligned table. The grand
// total row is highlighted when w is a color-capable terminal.
func WriteTable(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIG\tCATEGORY\tLATENCY\tENERGY\tLATENCY (s)\tENERGY (J)")
	fmt.Fprintln(tw, "------\t--------\t-------\t------\t-----------\t----------")
	for _, r := range results {
		for _, k := range Keys() {
			c := r.Totals[k]
			line := fmt.Sprintf("%s\t%s\t%s\t%s\t%.6e\t%.6e",
				r.Config, k, c.Latency.Humanized(), c.Energy.Humanized(),
				float64(c.Latency), float64(c.Energy))
			if k == TotalKey {
				line = totalColor.Sprint(line)
			}
			fmt.Fprintln(tw, line)
		}
	}
	return tw.Flush()
}

// WriteLayers prints the per-layer breakdown of one result.
func WriteLayers(w io.Writer, r Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LAYER\tCATEGORY\tSOURCE\tLATENCY\tENERGY")
	for _, l := range r.Layers {
		src := "scaled"
		if l.Exact {
			src = "exact"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Name, l.Category, src,
			units.Seconds(l.LatencyS).Humanized(), units.Joules(l.EnergyJ).Humanized())
	}
	return tw.Flush()
}

// WriteCSV writes one row per result and totals key.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"config", "category", "latency_s", "energy_j"})
	for _, r := range results {
		for _, k := range Keys() {
			c := r.Totals[k]
			_ = cw.Write([]string{r.Config, k, fmtFloat(float64(c.Latency)), fmtFloat(float64(c.Energy))})
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteDiagnostics prints the cost per MAC of every calibration layer,
// grouped by network, followed by the category averages.
func WriteDiagnostics(w io.Writer, d costmodel.Diagnostics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NETWORK\tLAYER\tCATEGORY\tMACS\tLATENCY/MAC (s)\tENERGY/MAC (J)")
	for _, r := range d.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.6e\t%.6e\n", r.Key.Network, r.Key.Layer, r.Category,
			r.MACs, r.LatencyPerMAC, r.EnergyPerMAC)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CATEGORY\tLATENCY/MAC (s)\tENERGY/MAC (J)")
	for _, c := range costmodel.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c, ratioCell(d.LatencyRatios, c), ratioCell(d.EnergyRatios, c))
	}
	return tw.Flush()
}

// WriteCostTables prints the merged latency, power and energy of every
// layer in key order.
func WriteCostTables(w io.Writer, t costmodel.CostTables) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NETWORK\tLAYER\tLATENCY\tPOWER\tENERGY")
	for _, k := range t.Keys("") {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.Network, k.Layer,
			units.Seconds(t.Latency[k]).Humanized(),
			units.Watts(t.Power[k]).Humanized(),
			units.Joules(t.Energy[k]).Humanized())
	}
	return tw.Flush()
}

// WriteSourceTables prints each source's normalized measurements ahead of
// any process scaling. A layer without its own power shows "-".
func WriteSourceTables(w io.Writer, low, high costmodel.Measurements) error {
	for i, m := range []costmodel.Measurements{low, high} {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# %s (%g nm, %d layers", m.Source.Name, m.Source.ProcessNM, len(m.Latency))
		if m.DesignPower > 0 {
			fmt.Fprintf(w, ", design power %s", units.Watts(m.DesignPower).Humanized())
		}
		fmt.Fprintln(w, ")")

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NETWORK\tLAYER\tLATENCY\tPOWER")
		for _, k := range m.Keys() {
			power := "-"
			if p, ok := m.Power[k]; ok {
				power = units.Watts(p).Humanized()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Network, k.Layer,
				units.Seconds(m.Latency[k]).Humanized(), power)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func ratioCell(r costmodel.Ratios, c costmodel.Category) string {
	v, err := r.PerMAC(c)
	if err != nil {
		return "n/a"
	}
	return fmt.Sprintf("%.6e", v)
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
