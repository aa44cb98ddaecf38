// Package plotting renders factor maps and scree plots with gonum/plot.
package plotting

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrTooFewDimensions is returned when a map needs two axes and the result has fewer.
var ErrTooFewDimensions = errors.New("fewer than two dimensions to map")

// Options controls where and how plots are written.
type Options struct {
	Dir    string
	Format string // png, svg or pdf
	Width  vg.Length
	Height vg.Length

	names *registry
}

// registry remembers which title owns each written path so that two titles
// with the same file name do not overwrite each other.
type registry struct {
	mu     sync.Mutex
	owners map[string]string
}

func (r *registry) claim(path, title string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := path
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		owner, taken := r.owners[candidate]
		if !taken {
			r.owners[candidate] = title
			return candidate
		}
		if owner == title {
			return candidate
		}
	}
}

// DefaultOptions writes 6x6 inch PNG files into the current directory.
func DefaultOptions() Options {
	return Options{Dir: ".", Format: "png", Width: 6 * vg.Inch, Height: 6 * vg.Inch}
}

// Validate checks the format and fills zero sizes. Copies of a validated
// Options share one set of claimed file names.
func (o *Options) Validate() error {
	switch strings.ToLower(o.Format) {
	case "":
		o.Format = "png"
	case "png", "svg", "pdf":
		o.Format = strings.ToLower(o.Format)
	default:
		return fmt.Errorf("plot format %q not supported (png, svg, pdf)", o.Format)
	}
	if o.Width <= 0 {
		o.Width = 6 * vg.Inch
	}
	if o.Height <= 0 {
		o.Height = 6 * vg.Inch
	}
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.names == nil {
		o.names = &registry{owners: map[string]string{}}
	}
	return nil
}

// FileName turns a plot title into an ASCII file name with the configured
// extension. Distinct titles may share a file name; save adds a suffix then.
func (o Options) FileName(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, title)
	if err != nil {
		plain = title
	}
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		name = "plot"
	}
	return filepath.Join(o.Dir, name+"."+o.Format)
}

func (o Options) save(p *plot.Plot, title string) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create plot dir: %w", err)
	}
	path := o.names.claim(o.FileName(title), title)
	if err := p.Save(o.Width, o.Height, path); err != nil {
		return "", fmt.Errorf("save plot %s: %w", path, err)
	}
	return path, nil
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(plotter.NewGrid())
	return p
}

func axisLabel(dim int, explained []float64) string {
	if dim < len(explained) {
		return fmt.Sprintf("Dim %d (%.1f%%)", dim+1, 100*explained[dim])
	}
	return fmt.Sprintf("Dim %d", dim+1)
}

// Scree draws the explained ratios as bars with the cumulative ratio as a line.
func Scree(title string, explained []float64, o Options) (string, error) {
	if len(explained) == 0 {
		return "", errors.New("scree: no components")
	}
	p := newPlot(title, "Component", "Explained (%)")
	vals := make(plotter.Values, len(explained))
	cum := make(plotter.XYs, len(explained))
	names := make([]string, len(explained))
	run := 0.0
	for i, e := range explained {
		vals[i] = 100 * e
		run += 100 * e
		cum[i] = plotter.XY{X: float64(i), Y: run}
		names[i] = fmt.Sprintf("%d", i+1)
	}
	bars, err := plotter.NewBarChart(vals, vg.Points(20))
	if err != nil {
		return "", err
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = vg.Length(0)
	line, points, err := plotter.NewLinePoints(cum)
	if err != nil {
		return "", err
	}
	line.Color = plotutil.Color(1)
	points.Color = plotutil.Color(1)
	p.Add(bars, line, points)
	p.Legend.Add("explained", bars)
	p.Legend.Add("cumulative", line, points)
	p.Legend.Top = true
	p.NominalX(names...)
	p.Y.Min = 0
	p.Y.Max = 100
	return o.save(p, title)
}

// VariableMap places labelled points on the first two dimensions. With circle
// set the unit circle and arrows from the origin are drawn, which is the
// correlation circle of a PCA.
func VariableMap(title string, labels []string, coords mat.Matrix, explained []float64, circle bool, o Options) (string, error) {
	xys, err := firstPlane(coords)
	if err != nil {
		return "", err
	}
	if len(labels) != len(xys) {
		return "", fmt.Errorf("variable map: %d labels for %d points", len(labels), len(xys))
	}
	p := newPlot(title, axisLabel(0, explained), axisLabel(1, explained))
	if circle {
		ring := make(plotter.XYs, 101)
		for i := range ring {
			a := 2 * math.Pi * float64(i) / 100
			ring[i] = plotter.XY{X: math.Cos(a), Y: math.Sin(a)}
		}
		l, err := plotter.NewLine(ring)
		if err != nil {
			return "", err
		}
		l.Color = color.Gray{Y: 128}
		p.Add(l)
		for _, pt := range xys {
			arrow, err := plotter.NewLine(plotter.XYs{{}, pt})
			if err != nil {
				return "", err
			}
			arrow.Color = plotutil.Color(0)
			p.Add(arrow)
		}
		p.X.Min, p.X.Max = -1.1, 1.1
		p.Y.Min, p.Y.Max = -1.1, 1.1
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return "", err
	}
	s.Color = plotutil.Color(0)
	s.Shape = draw.CircleGlyph{}
	lab, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return "", err
	}
	lab.Offset = vg.Point{X: vg.Points(3), Y: vg.Points(3)}
	p.Add(s, lab)
	return o.save(p, title)
}

// IndividualMap draws respondents on the first two dimensions, one colour per
// group label. groups may be nil for a single colour; otherwise it must line
// up with the rows of coords.
func IndividualMap(title string, coords mat.Matrix, groups []string, explained []float64, o Options) (string, error) {
	xys, err := firstPlane(coords)
	if err != nil {
		return "", err
	}
	if groups != nil && len(groups) != len(xys) {
		return "", fmt.Errorf("individual map: %d group labels for %d points", len(groups), len(xys))
	}
	p := newPlot(title, axisLabel(0, explained), axisLabel(1, explained))
	if groups == nil {
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return "", err
		}
		s.Color = plotutil.Color(0)
		p.Add(s)
		return o.save(p, title)
	}

	byGroup := map[string]plotter.XYs{}
	for i, g := range groups {
		byGroup[g] = append(byGroup[g], xys[i])
	}
	names := make([]string, 0, len(byGroup))
	for g := range byGroup {
		names = append(names, g)
	}
	sort.Strings(names)
	for k, g := range names {
		s, err := plotter.NewScatter(byGroup[g])
		if err != nil {
			return "", err
		}
		s.Color = plotutil.Color(k)
		s.Shape = plotutil.Shape(k)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("%s (%d)", g, len(byGroup[g])), s)
	}
	p.Legend.Top = true
	return o.save(p, title)
}

// Biplot overlays row and column points of a correspondence analysis.
func Biplot(title string, rowLabels []string, rows mat.Matrix, colLabels []string, cols mat.Matrix, explained []float64, o Options) (string, error) {
	p := newPlot(title, axisLabel(0, explained), axisLabel(1, explained))
	for k, set := range []struct {
		name   string
		labels []string
		coords mat.Matrix
	}{{"rows", rowLabels, rows}, {"columns", colLabels, cols}} {
		xys, err := plane(set.coords)
		if err != nil {
			return "", err
		}
		if len(xys) != len(set.labels) {
			return "", fmt.Errorf("biplot: %d %s labels for %d points", len(set.labels), set.name, len(xys))
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return "", err
		}
		s.Color = plotutil.Color(k)
		s.Shape = plotutil.Shape(k)
		lab, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: set.labels})
		if err != nil {
			return "", err
		}
		lab.Offset = vg.Point{X: vg.Points(3), Y: vg.Points(3)}
		p.Add(s, lab)
		p.Legend.Add(set.name, s)
	}
	p.Legend.Top = true
	return o.save(p, title)
}

func firstPlane(m mat.Matrix) (plotter.XYs, error) {
	if m == nil {
		return nil, ErrTooFewDimensions
	}
	if _, c := m.Dims(); c < 2 {
		return nil, ErrTooFewDimensions
	}
	return plane(m)
}

// plane reads the first two columns of m. A one-dimensional result is drawn
// on the horizontal axis.
func plane(m mat.Matrix) (plotter.XYs, error) {
	if m == nil {
		return nil, ErrTooFewDimensions
	}
	r, c := m.Dims()
	if c < 1 {
		return nil, ErrTooFewDimensions
	}
	xys := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		xys[i].X = m.At(i, 0)
		if c > 1 {
			xys[i].Y = m.At(i, 1)
		}
	}
	return xys, nil
}
