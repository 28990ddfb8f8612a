// Package grid computes the spatial cell layout for splitting a video
// frame into an n×m grid of independently extractable regions.
package grid

import (
	"errors"
	"fmt"
)

var ErrInvalidSpec = errors.New("grid: invalid spec")

// Spec describes how a frame is divided: Rows vertical parts, Cols
// horizontal parts. Constant for an entire distribution run.
type Spec struct {
	Rows int
	Cols int
}

// Cell is one rectangular region of a video frame, addressed by its
// row/column position in the grid.
type Cell struct {
	Name string // "<row>_<col>", stable for a given (row, col)
	X    int    // left offset in frame pixels
	Y    int    // top offset in frame pixels
	W    int
	H    int
}

// Plan tiles a w×h frame into spec.Rows*spec.Cols cells, in row-major
// order. Cell sizes are the integer division of the frame size, the last
// row and column absorb the remainder, so the cells cover the frame
// exactly with no gap or overlap.
func Plan(w, h int, spec Spec) ([]Cell, error) {
	if spec.Rows <= 0 || spec.Cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d parts", ErrInvalidSpec, spec.Rows, spec.Cols)
	}
	if w < spec.Cols || h < spec.Rows {
		return nil, fmt.Errorf("%w: frame %dx%d is too small for %dx%d parts",
			ErrInvalidSpec, w, h, spec.Rows, spec.Cols)
	}

	cw := w / spec.Cols
	ch := h / spec.Rows

	cells := make([]Cell, 0, spec.Rows*spec.Cols)
	for i := 0; i < spec.Rows; i++ {
		height := ch
		if i == spec.Rows-1 {
			height = h - ch*(spec.Rows-1)
		}
		for j := 0; j < spec.Cols; j++ {
			width := cw
			if j == spec.Cols-1 {
				width = w - cw*(spec.Cols-1)
			}
			cells = append(cells, Cell{
				Name: fmt.Sprintf("%d_%d", i, j),
				X:    j * cw,
				Y:    i * ch,
				W:    width,
				H:    height,
			})
		}
	}
	return cells, nil
}
