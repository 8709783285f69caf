package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/literie/internal/engine"
	"github.com/piwi3910/literie/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// Core-cut drawing layout, in cm.
const (
	cutsPerRow  = 4
	cutGapX     = 30.0
	cutGapY     = 40.0
	cutTextSize = 5.0

	cutLayer  = "DECOUPE"
	textLayer = "TEXTE"
)

// CoreCut is a rectangle to cut out of a foam or latex block.
type CoreCut struct {
	CaseNumber int
	Label      string
	Width      float64
	Length     float64
}

// CollectCoreCuts returns the mattress cases whose core cut was computed.
func CollectCoreCuts(cases []engine.CaseRecord) []CoreCut {
	var cuts []CoreCut
	for _, c := range cases {
		if c.Record.Kind != model.KindMattress {
			continue
		}
		w, okW := c.Derived.CutWidth.Get()
		l, okL := c.Derived.CutLength.Get()
		if !okW || !okL {
			continue
		}
		cuts = append(cuts, CoreCut{
			CaseNumber: c.CaseNumber,
			Label:      fmt.Sprintf("%s %s", c.Record.OrderOrClientID, c.Record.CoreType),
			Width:      w,
			Length:     l,
		})
	}
	return cuts
}

// ExportCoreCuts writes one closed rectangle per core cut, laid out on a
// grid, each with its case number and size underneath.
func ExportCoreCuts(path string, cases []engine.CaseRecord) error {
	cuts := CollectCoreCuts(cases)
	if len(cuts) == 0 {
		return fmt.Errorf("no core cuts to export")
	}

	var maxW, maxL float64
	for _, c := range cuts {
		maxW = math.Max(maxW, c.Width)
		maxL = math.Max(maxL, c.Length)
	}
	stepX := maxW + cutGapX
	stepY := maxL + cutGapY

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(textLayer, dxf.DefaultColor, dxf.DefaultLineType, false); err != nil {
		return fmt.Errorf("failed to add layer: %w", err)
	}
	if _, err := d.AddLayer(cutLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add layer: %w", err)
	}

	for i, c := range cuts {
		x := float64(i%cutsPerRow) * stepX
		y := -float64(i/cutsPerRow) * stepY

		if err := d.ChangeLayer(cutLayer); err != nil {
			return err
		}
		corners := [][2]float64{{x, y}, {x + c.Width, y}, {x + c.Width, y + c.Length}, {x, y + c.Length}}
		for j := range corners {
			a, b := corners[j], corners[(j+1)%len(corners)]
			if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
				return fmt.Errorf("failed to draw case %d: %w", c.CaseNumber, err)
			}
		}

		if err := d.ChangeLayer(textLayer); err != nil {
			return err
		}
		caption := fmt.Sprintf("Caisse %d - %g x %g", c.CaseNumber, c.Width, c.Length)
		if _, err := d.Text(caption, x, y-cutTextSize*1.5, 0, cutTextSize); err != nil {
			return fmt.Errorf("failed to label case %d: %w", c.CaseNumber, err)
		}
		if _, err := d.Text(c.Label, x, y-cutTextSize*3, 0, cutTextSize*0.7); err != nil {
			return fmt.Errorf("failed to label case %d: %w", c.CaseNumber, err)
		}
	}

	return d.SaveAs(path)
}

// point is a 2D coordinate in drawing units.
type point struct {
	X, Y float64
}

// segment represents a line segment between two points, used for
// chaining disconnected LINE entities into closed outlines.
type segment struct {
	start point
	end   point
}

// ReadCoreCuts reads back the rectangles of a core-cut drawing as
// width x length pairs, largest first.
func ReadCoreCuts(path string) ([]CoreCut, error) {
	drawing, err := dxf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open DXF file: %w", err)
	}

	var segs []segment
	for _, ent := range drawing.Entities() {
		if l, ok := ent.(*entity.Line); ok {
			segs = append(segs, segment{
				start: point{X: l.Start[0], Y: l.Start[1]},
				end:   point{X: l.End[0], Y: l.End[1]},
			})
		}
	}

	var cuts []CoreCut
	for _, outline := range chainSegments(segs, 0.01) {
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range outline {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
		cuts = append(cuts, CoreCut{Width: maxX - minX, Length: maxY - minY})
	}
	return cuts, nil
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
func chainSegments(segs []segment, tolerance float64) [][]point {
	used := make([]bool, len(segs))
	var outlines [][]point

	for startIdx := range segs {
		if used[startIdx] {
			continue
		}
		chain := []point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 3 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}

	sort.SliceStable(outlines, func(i, j int) bool {
		return outlineArea(outlines[i]) > outlineArea(outlines[j])
	})
	return outlines
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

// outlineArea computes the absolute area of a polygon using the shoelace formula.
func outlineArea(o []point) float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += o[i].X * o[j].Y
		area -= o[j].X * o[i].Y
	}
	return math.Abs(area) / 2
}
