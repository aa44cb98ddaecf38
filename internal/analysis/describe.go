package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	mstats "github.com/aclements/go-moremath/stats"

	"github.com/KaramelBytes/surveyfa/internal/dataset"
	"github.com/KaramelBytes/surveyfa/internal/prep"
)

// Column kinds reported by Describe.
const (
	KindOrdinal     = "ordinal"
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
	KindText        = "text"
	KindEmpty       = "empty"
)

// DescribeOptions controls the dataset description.
type DescribeOptions struct {
	// Scheme recognises ordinal columns: every observed cell is one of its labels.
	Scheme prep.Scheme
	// TopValues caps the category counts listed per column.
	TopValues int
	// SampleRows is the number of leading rows copied into the description.
	SampleRows int
}

// DefaultDescribeOptions uses the default ordinal scheme, 8 top values and 5 sample rows.
func DefaultDescribeOptions() DescribeOptions {
	return DescribeOptions{Scheme: prep.DefaultScheme(), TopValues: 8, SampleRows: 5}
}

// Description is a per-column summary of a record set.
type Description struct {
	Name       string
	Rows       int
	Duplicates int
	Cols       []ColumnSummary
	Samples    [][]string
	Warnings   []string
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Max, Mean, Median, Std float64
	// Categorical and ordinal top values
	TopValues []CategoryCount
}

// CategoryCount is one level and its frequency.
type CategoryCount struct {
	Value string
	Count int
}

// MissingRate returns the share of missing cells.
func (c ColumnSummary) MissingRate() float64 {
	total := c.NonNull + c.Missing
	if total == 0 {
		return 0
	}
	return float64(c.Missing) / float64(total)
}

// Describe summarises every column of rs.
func Describe(rs *dataset.RecordSet, opt DescribeOptions) *Description {
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}
	d := &Description{Name: rs.Name(), Rows: rs.Len(), Duplicates: rs.Duplicates()}
	for i := 0; i < rs.Len() && i < opt.SampleRows; i++ {
		d.Samples = append(d.Samples, rs.Row(i))
	}
	for _, col := range rs.Columns() {
		cells, _ := rs.Column(col)
		s := summarise(col, cells, opt)
		if s.Kind == KindEmpty {
			d.Warnings = append(d.Warnings, fmt.Sprintf("column %q has no observed value", col))
		} else if s.MissingRate() >= 0.5 {
			d.Warnings = append(d.Warnings, fmt.Sprintf("column %q is %.0f%% missing", col, 100*s.MissingRate()))
		}
		d.Cols = append(d.Cols, s)
	}
	if d.Duplicates > 0 {
		d.Warnings = append(d.Warnings, fmt.Sprintf("%d duplicate rows removed at load", d.Duplicates))
	}
	return d
}

func summarise(name string, cells []string, opt DescribeOptions) ColumnSummary {
	s := ColumnSummary{Name: name}
	cats := map[string]int{}
	var nums []float64
	ordinal := true
	for _, v := range cells {
		if dataset.IsMissing(v) {
			s.Missing++
			continue
		}
		v = strings.TrimSpace(v)
		s.NonNull++
		cats[v]++
		if x, ok := parseNumeric(v); ok {
			nums = append(nums, x)
		}
		if _, ok := opt.Scheme.Score(v); !ok {
			ordinal = false
		}
	}
	s.Unique = len(cats)

	switch {
	case s.NonNull == 0:
		s.Kind = KindEmpty
		return s
	case ordinal && len(opt.Scheme.Labels()) > 0:
		s.Kind = KindOrdinal
	case len(nums) == s.NonNull:
		s.Kind = KindNumeric
		sample := mstats.Sample{Xs: nums}
		s.Min, s.Max = sample.Bounds()
		s.Mean = sample.Mean()
		s.Median = sample.Quantile(0.5)
		if len(nums) > 1 {
			s.Std = sample.StdDev()
		}
		return s
	case s.Unique <= 50 || s.Unique*2 <= s.NonNull:
		s.Kind = KindCategorical
	default:
		s.Kind = KindText
	}

	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > opt.TopValues {
		tops = tops[:opt.TopValues]
	}
	s.TopValues = tops
	return s
}

// parseNumeric accepts "12", "12.5", "12,5", "1 234,5" and "1,234.5".
// The last of ',' and '.' is taken as the decimal separator.
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	for _, sp := range []string{" ", "\u00a0", "\u202f"} {
		raw = strings.ReplaceAll(raw, sp, "")
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	dec := '.'
	if cpos > dpos {
		dec = ','
	}
	for _, sep := range []rune{',', '.'} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Markdown renders the description with the report section headers.
func (d *Description) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if d.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", d.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\n", d.Rows)
	if d.Duplicates > 0 {
		fmt.Fprintf(&b, "Duplicates removed: %d\n", d.Duplicates)
	}
	fmt.Fprintf(&b, "Columns: %d\n\n", len(d.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range d.Cols {
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, 100*c.MissingRate())
		switch c.Kind {
		case KindNumeric:
			fmt.Fprintf(&b, ": min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Median, c.Std)
		case KindOrdinal, KindCategorical, KindText:
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		}
		b.WriteString("\n")
	}

	if len(d.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(d.Cols))
		for i, c := range d.Cols {
			names[i] = c.Name
		}
		writeMarkdownTable(&b, names, d.Samples)
	}
	writeNotes(&b, d.Warnings)
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(h))
	}
	b.WriteString(" |\n|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if r := []rune(val); len(r) > 80 {
				val = string(r[:77]) + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func writeNotes(b *strings.Builder, notes []string) {
	if len(notes) == 0 {
		return
	}
	b.WriteString("\n[NOTES]\n")
	for _, w := range notes {
		b.WriteString("- ")
		b.WriteString(w)
		b.WriteString("\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
