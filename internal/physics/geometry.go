package physics

import (
	"fmt"

	"github.com/roach88/hierframe/internal/frame"
)

// Box is an axis-aligned volume in detector coordinates (cm).
type Box struct {
	Min [3]float64 `json:"min" yaml:"min"`
	Max [3]float64 `json:"max" yaml:"max"`
}

// SBND volumes. The fiducial volume trims 10 cm from every face of the
// active volume except the downstream one, which loses 50 cm.
var (
	SBNDActive   = Box{Min: [3]float64{-200, -200, 0}, Max: [3]float64{200, 200, 500}}
	SBNDFiducial = Box{Min: [3]float64{-189.15, -190, 10}, Max: [3]float64{189.15, 190, 450}}
)

// Validate rejects boxes with an inverted axis.
func (b Box) Validate() error {
	for i, axis := range []string{"x", "y", "z"} {
		if b.Min[i] > b.Max[i] {
			return fmt.Errorf("box %s axis: min %g > max %g", axis, b.Min[i], b.Max[i])
		}
	}
	return nil
}

// Contains reports whether the point lies inside the box, faces included.
func (b Box) Contains(x, y, z float64) bool {
	p := [3]float64{x, y, z}
	for i := range p {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Apply adds a Bool column out telling whether the point stored in
// group.field.x, group.field.y and group.field.z lies in the box. A row with
// any Null coordinate is outside.
func (b Box) Apply(t *frame.Table, group, field string, out frame.ColumnRef) (*frame.Table, error) {
	var axes [3]frame.ColumnRef
	for i, a := range []string{"x", "y", "z"} {
		axes[i] = frame.Col(group, field+"."+a)
		if !t.Has(axes[i]) {
			return nil, fmt.Errorf("containment: unknown column %s", axes[i])
		}
	}
	return t.Map(out, func(i int) frame.Value {
		var p [3]float64
		for a, ref := range axes {
			v, ok := t.Float(i, ref)
			if !ok {
				return frame.Bool(false)
			}
			p[a] = v
		}
		return frame.Bool(b.Contains(p[0], p[1], p[2]))
	})
}
