package analysis

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/surveyfa/internal/factor"
)

// Markdown renders the run as a plain-text report with bracketed section
// headers. At most maxComponents dimensions are listed per decomposition;
// zero lists all.
func (r *Result) Markdown(maxComponents int) string {
	var b strings.Builder
	b.WriteString("[RUN]\n")
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	if r.Source != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Source)
	}
	fmt.Fprintf(&b, "Rows: %d\n", r.Rows)
	if !r.Started.IsZero() {
		fmt.Fprintf(&b, "Started: %s\n", r.Started.Format("2006-01-02 15:04:05"))
	}

	for _, blk := range r.Blocks {
		fmt.Fprintf(&b, "\n[BLOCK %s]\n", blk.Name)
		writeBlock(&b, blk, maxComponents)
	}
	for _, c := range r.Crosses {
		fmt.Fprintf(&b, "\n[CONTINGENCY %s]\n", c.Name)
		writeCross(&b, c, maxComponents)
	}

	var plots []string
	for _, blk := range r.Blocks {
		plots = append(plots, blk.Plots...)
	}
	for _, c := range r.Crosses {
		plots = append(plots, c.Plots...)
	}
	if len(plots) > 0 {
		b.WriteString("\n[PLOTS]\n")
		for _, p := range plots {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	writeNotes(&b, r.Notes)
	return b.String()
}

func limit(n, most int) int {
	if most > 0 && most < n {
		return most
	}
	return n
}

func writeBlock(b *strings.Builder, blk *BlockResult, maxComponents int) {
	fmt.Fprintf(b, "Kind: %s\n", blk.Kind)
	fmt.Fprintf(b, "Respondents: %d\n", len(blk.Keys()))
	fmt.Fprintf(b, "Columns: %s\n", strings.Join(blk.Columns(), ", "))
	if blk.Ordinal != nil && !math.IsNaN(blk.Ordinal.Alpha) {
		fmt.Fprintf(b, "Cronbach alpha: %.3f\n", blk.Ordinal.Alpha)
	}
	for _, d := range blk.Dropped() {
		fmt.Fprintf(b, "Dropped: %s (%s)\n", d.Column, d.Reason)
	}

	switch {
	case blk.PCA != nil:
		p := blk.PCA
		k := limit(p.Components(), maxComponents)
		b.WriteString("\nEigenvalues:\n")
		writeMarkdownTable(b, []string{"Component", "Eigenvalue", "Explained %", "Cumulative %"}, eigenRows(p.Eigenvalues, p.Explained, p.Cumulative, k))
		b.WriteString("\nLoadings:\n")
		writeMarkdownTable(b, dimHeader("Variable", k), matrixRows(p.Variables, p.Loadings, k, "%.3f"))
		b.WriteString("\nContributions (%):\n")
		writeMarkdownTable(b, dimHeader("Variable", k), matrixRows(p.Variables, p.Contrib, k, "%.1f"))
		b.WriteString("\nCos2:\n")
		writeMarkdownTable(b, dimHeader("Variable", k), matrixRows(p.Variables, p.Cos2, k, "%.3f"))
		if sup := blk.Supplementary; sup != nil {
			fmt.Fprintf(b, "\nSupplementary respondents (%s):\n", sup.Source)
			labels := make([]string, len(sup.Keys))
			for i, key := range sup.Keys {
				labels[i] = fmt.Sprintf("%d", key)
			}
			writeMarkdownTable(b, dimHeader("Row", k), matrixRows(labels, sup.Scores, k, "%.3f"))
		}
	case blk.MCA != nil:
		m := blk.MCA
		k := limit(m.Dimensions(), maxComponents)
		fmt.Fprintf(b, "Total inertia: %.4f ((J-Q)/Q)\n", m.TotalInertia)
		b.WriteString("\nEigenvalues:\n")
		rows := eigenRows(m.Eigenvalues, m.Explained, m.Cumulative, k)
		for i := range rows {
			adj := "-"
			if i < len(m.Adjusted) {
				adj = fmt.Sprintf("%.1f", 100*m.Adjusted[i])
			}
			rows[i] = append(rows[i], adj)
		}
		writeMarkdownTable(b, []string{"Dimension", "Eigenvalue", "Explained %", "Cumulative %", "Benzecri %"}, rows)
		b.WriteString("\nCategory coordinates:\n")
		writeMarkdownTable(b, dimHeader("Category", k), matrixRows(m.Categories, m.CategoryCoords, k, "%.3f"))
		b.WriteString("\nCategory contributions (%):\n")
		writeMarkdownTable(b, dimHeader("Category", k), matrixRows(m.Categories, m.CategoryContrib, k, "%.1f"))
		b.WriteString("\nCategory cos2:\n")
		writeMarkdownTable(b, dimHeader("Category", k), matrixRows(m.Categories, m.CategoryCos2, k, "%.3f"))
	}
}

func writeCross(b *strings.Builder, c *CrossResult, maxComponents int) {
	t := c.Table
	fmt.Fprintf(b, "Rows: %s, Columns: %s, N: %d\n", c.RowVar, c.ColVar, t.Total())
	b.WriteString("\nCounts:\n")
	writeMarkdownTable(b, append([]string{c.RowVar}, t.Cols...), countRows(t))
	b.WriteString("\nRow profiles:\n")
	writeMarkdownTable(b, append([]string{c.RowVar}, t.Cols...), profileRows(t.Rows, t.RowProfiles()))
	b.WriteString("\nColumn profiles:\n")
	writeMarkdownTable(b, append([]string{c.RowVar}, t.Cols...), profileRows(t.Rows, t.ColProfiles()))

	ca := c.CA
	if ca == nil {
		return
	}
	fmt.Fprintf(b, "\nChi-square: %.4f (df %d, p %.4g)\n", ca.ChiSquare, ca.DF, ca.PValue)
	fmt.Fprintf(b, "Total inertia: %.5f\n", ca.TotalInertia)
	k := limit(ca.Dimensions(), maxComponents)
	writeMarkdownTable(b, []string{"Dimension", "Inertia", "Explained %", "Cumulative %"}, eigenRows(ca.Eigenvalues, ca.Explained, ca.Cumulative, k))
	b.WriteString("\nRow coordinates:\n")
	writeMarkdownTable(b, dimHeader(c.RowVar, k), matrixRows(ca.Table.Rows, ca.RowCoords, k, "%.3f"))
	b.WriteString("\nColumn coordinates:\n")
	writeMarkdownTable(b, dimHeader(c.ColVar, k), matrixRows(ca.Table.Cols, ca.ColCoords, k, "%.3f"))
	b.WriteString("\nRow quality:\n")
	writeMarkdownTable(b, qualityHeader(c.RowVar, k), qualityRows(ca.Table.Rows, ca.RowMass, ca.RowContrib, ca.RowCos2, k))
	b.WriteString("\nColumn quality:\n")
	writeMarkdownTable(b, qualityHeader(c.ColVar, k), qualityRows(ca.Table.Cols, ca.ColMass, ca.ColContrib, ca.ColCos2, k))
}

// qualityHeader names the mass column then a contribution and a cos2 column
// per dimension.
func qualityHeader(first string, k int) []string {
	h := []string{first, "Mass"}
	for i := 0; i < k; i++ {
		h = append(h, fmt.Sprintf("Ctr %d (%%)", i+1), fmt.Sprintf("Cos2 %d", i+1))
	}
	return h
}

func qualityRows(labels []string, mass []float64, contrib, cos2 *mat.Dense, k int) [][]string {
	rows := make([][]string, len(labels))
	for i, l := range labels {
		row := []string{l, fmt.Sprintf("%.3f", mass[i])}
		for j := 0; j < k; j++ {
			row = append(row, fmt.Sprintf("%.1f", contrib.At(i, j)), fmt.Sprintf("%.3f", cos2.At(i, j)))
		}
		rows[i] = row
	}
	return rows
}

func eigenRows(values, explained, cumulative []float64, k int) [][]string {
	rows := make([][]string, k)
	for i := 0; i < k; i++ {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.4f", values[i]),
			fmt.Sprintf("%.1f", 100*explained[i]),
			fmt.Sprintf("%.1f", 100*cumulative[i]),
		}
	}
	return rows
}

func dimHeader(first string, k int) []string {
	h := []string{first}
	for i := 0; i < k; i++ {
		h = append(h, fmt.Sprintf("Dim %d", i+1))
	}
	return h
}

func matrixRows(labels []string, m *mat.Dense, k int, format string) [][]string {
	rows := make([][]string, len(labels))
	for i, l := range labels {
		row := []string{l}
		for j := 0; j < k; j++ {
			row = append(row, fmt.Sprintf(format, m.At(i, j)))
		}
		rows[i] = row
	}
	return rows
}

func countRows(t *factor.Table) [][]string {
	rows := make([][]string, len(t.Rows))
	for i, l := range t.Rows {
		row := []string{l}
		for _, v := range t.Counts[i] {
			row = append(row, fmt.Sprintf("%d", v))
		}
		rows[i] = row
	}
	return rows
}

func profileRows(labels []string, p [][]float64) [][]string {
	rows := make([][]string, len(labels))
	for i, l := range labels {
		row := []string{l}
		for _, v := range p[i] {
			if math.IsNaN(v) {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%.3f", v))
		}
		rows[i] = row
	}
	return rows
}

// WriteTables prints the eigenvalue tables, contingency counts and CA summary
// as terminal tables.
func (r *Result) WriteTables(w io.Writer, maxComponents int) {
	for _, blk := range r.Blocks {
		var values, explained, cumulative []float64
		switch {
		case blk.PCA != nil:
			values, explained, cumulative = blk.PCA.Eigenvalues, blk.PCA.Explained, blk.PCA.Cumulative
		case blk.MCA != nil:
			values, explained, cumulative = blk.MCA.Eigenvalues, blk.MCA.Explained, blk.MCA.Cumulative
		}
		fmt.Fprintf(w, "\n%s (%s, %d columns, %d respondents)\n", blk.Name, blk.Kind, len(blk.Columns()), len(blk.Keys()))
		renderTable(w, []string{"Dim", "Eigenvalue", "Explained %", "Cumulative %"},
			eigenRows(values, explained, cumulative, limit(len(values), maxComponents)))
	}
	for _, c := range r.Crosses {
		fmt.Fprintf(w, "\n%s (%s x %s)\n", c.Name, c.RowVar, c.ColVar)
		t := c.Table
		rows := countRows(t)
		rs := t.RowSums()
		for i := range rows {
			rows[i] = append(rows[i], fmt.Sprintf("%d", rs[i]))
		}
		total := []string{"Total"}
		for _, v := range t.ColSums() {
			total = append(total, fmt.Sprintf("%d", v))
		}
		total = append(total, fmt.Sprintf("%d", t.Total()))
		header := append(append([]string{c.RowVar}, t.Cols...), "Total")
		renderTable(w, header, append(rows, total))
		if c.CA != nil {
			fmt.Fprintf(w, "chi2 = %.4f, df = %d, p = %.4g, total inertia = %.5f\n", c.CA.ChiSquare, c.CA.DF, c.CA.PValue, c.CA.TotalInertia)
		}
	}
}

// WriteTables prints the column summaries as a terminal table.
func (d *Description) WriteTables(w io.Writer) {
	rows := make([][]string, 0, len(d.Cols))
	for _, c := range d.Cols {
		detail := ""
		switch c.Kind {
		case KindNumeric:
			detail = fmt.Sprintf("%.4g..%.4g, mean %.4g", c.Min, c.Max, c.Mean)
		default:
			if len(c.TopValues) > 0 {
				detail = fmt.Sprintf("%s (%d)", c.TopValues[0].Value, c.TopValues[0].Count)
			}
		}
		rows = append(rows, []string{
			c.Name, c.Kind,
			fmt.Sprintf("%d", c.NonNull),
			fmt.Sprintf("%.1f", 100*c.MissingRate()),
			fmt.Sprintf("%d", c.Unique),
			detail,
		})
	}
	renderTable(w, []string{"Column", "Kind", "Non-null", "Missing %", "Unique", "Detail"}, rows)
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.AppendBulk(rows)
	table.Render()
}
