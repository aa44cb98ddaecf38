package prep

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/KaramelBytes/surveyfa/internal/dataset"
	"github.com/KaramelBytes/surveyfa/internal/logging"
)

// MissingPolicy says how categorical blocks treat missing cells.
type MissingPolicy int

const (
	// MissingAsLevel keeps the respondent and labels the cell MissingLevel.
	MissingAsLevel MissingPolicy = iota
	// MissingExclude drops respondents with a missing cell in any retained column.
	MissingExclude
)

// MissingLevel is the label given to missing cells under MissingAsLevel.
const MissingLevel = "NA"

// ParseMissingPolicy accepts "level" or "exclude".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "level", "as-level", "category":
		return MissingAsLevel, nil
	case "exclude", "drop":
		return MissingExclude, nil
	}
	return 0, fmt.Errorf("unknown missing policy %q (use level or exclude)", s)
}

func (p MissingPolicy) String() string {
	if p == MissingExclude {
		return "exclude"
	}
	return "level"
}

// CategoricalBlock is a set of label columns ready for MCA. Values[i][j] is
// the label of respondent Keys[i] in Columns[j].
type CategoricalBlock struct {
	Name    string
	Columns []string
	Keys    []dataset.RowKey
	Values  [][]string
	// Levels holds the sorted distinct labels of each retained column.
	Levels   [][]string
	Dropped  []DroppedColumn
	Excluded int
	Policy   MissingPolicy
}

// Column returns the labels of column j in row order.
func (b *CategoricalBlock) Column(j int) []string {
	out := make([]string, len(b.Values))
	for i, row := range b.Values {
		out[i] = row[j]
	}
	return out
}

// CategoricalMatch builds a categorical block from the columns containing pattern.
func CategoricalMatch(rs *dataset.RecordSet, name, pattern string, policy MissingPolicy) (*CategoricalBlock, error) {
	cols := rs.Match(pattern)
	if len(cols) == 0 {
		return nil, fmt.Errorf("block %s: pattern %q: %w", name, pattern, ErrNoColumns)
	}
	return Categorical(rs, name, cols, policy)
}

// Categorical coerces cols to trimmed labels, applies policy to missing cells
// and drops columns with fewer than two observed levels. All-missing and
// constant columns are dropped over the whole record set before any
// respondent is excluded; dropping then repeats until stable because
// excluding respondents can make another column constant.
func Categorical(rs *dataset.RecordSet, name string, cols []string, policy MissingPolicy) (*CategoricalBlock, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("block %s: %w", name, ErrNoColumns)
	}
	log := logging.Logger().With(slog.String("block", name))
	n := rs.Len()
	raw := make([][]string, len(cols))
	observed := make([]int, len(cols))
	for j, c := range cols {
		cells, err := rs.Column(c)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", name, err)
		}
		for i, v := range cells {
			if dataset.IsMissing(v) {
				if policy == MissingAsLevel {
					cells[i] = MissingLevel
				} else {
					cells[i] = ""
				}
				continue
			}
			cells[i] = strings.TrimSpace(v)
			observed[j]++
		}
		raw[j] = cells
	}

	b := &CategoricalBlock{Name: name, Policy: policy}
	active := make([]bool, len(cols))
	drop := func(j int, reason DropReason) {
		active[j] = false
		b.Dropped = append(b.Dropped, DroppedColumn{Column: cols[j], Reason: reason})
		log.Info("column dropped", slog.String("column", cols[j]), slog.String("reason", string(reason)))
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	// Columns degenerate over every respondent go first, so that they never
	// exclude anyone.
	for j := range cols {
		active[j] = true
		switch {
		case observed[j] == 0:
			drop(j, ReasonAllMissing)
		case len(levelsOf(raw[j], all)) < 2:
			drop(j, ReasonSingleLevel)
		}
	}

	var rows []int
	for {
		rows = rows[:0]
		for i := 0; i < n; i++ {
			if policy == MissingExclude && rowHasMissing(raw, active, i) {
				continue
			}
			rows = append(rows, i)
		}
		changed := false
		for j := range cols {
			if !active[j] {
				continue
			}
			if len(levelsOf(raw[j], rows)) < 2 {
				drop(j, ReasonSingleLevel)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for j, c := range cols {
		if active[j] {
			b.Columns = append(b.Columns, c)
			b.Levels = append(b.Levels, levelsOf(raw[j], rows))
		}
	}
	b.Excluded = n - len(rows)
	if b.Excluded > 0 {
		log.Info("respondents excluded for missing labels", slog.Int("rows", b.Excluded))
	}
	for _, i := range rows {
		row := make([]string, 0, len(b.Columns))
		for j := range cols {
			if active[j] {
				row = append(row, raw[j][i])
			}
		}
		b.Values = append(b.Values, row)
		b.Keys = append(b.Keys, rs.Key(i))
	}
	return b, nil
}

func rowHasMissing(raw [][]string, active []bool, i int) bool {
	for j, col := range raw {
		if active[j] && col[i] == "" {
			return true
		}
	}
	return false
}

func levelsOf(col []string, rows []int) []string {
	seen := map[string]struct{}{}
	for _, i := range rows {
		if v := col[i]; v != "" {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
