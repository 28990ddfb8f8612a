package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTilesFrameExactly(t *testing.T) {
	testCases := []struct {
		name string
		w, h int
		spec Spec
	}{
		{"even 2x2", 640, 480, Spec{Rows: 2, Cols: 2}},
		{"odd width", 641, 480, Spec{Rows: 2, Cols: 2}},
		{"odd both", 1921, 1081, Spec{Rows: 3, Cols: 4}},
		{"single cell", 100, 100, Spec{Rows: 1, Cols: 1}},
		{"tall grid", 320, 240, Spec{Rows: 5, Cols: 1}},
		{"tiny frame", 7, 5, Spec{Rows: 5, Cols: 7}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cells, err := Plan(tc.w, tc.h, tc.spec)
			require.NoError(t, err)
			require.Len(t, cells, tc.spec.Rows*tc.spec.Cols)

			// every row band sums to the frame width
			for i := 0; i < tc.spec.Rows; i++ {
				width := 0
				for j := 0; j < tc.spec.Cols; j++ {
					width += cells[i*tc.spec.Cols+j].W
				}
				assert.Equal(t, tc.w, width, "row %d width", i)
			}
			// every column band sums to the frame height
			for j := 0; j < tc.spec.Cols; j++ {
				height := 0
				for i := 0; i < tc.spec.Rows; i++ {
					height += cells[i*tc.spec.Cols+j].H
				}
				assert.Equal(t, tc.h, height, "col %d height", j)
			}

			// coverage without overlap: paint every pixel once
			painted := make([]int, tc.w*tc.h)
			for _, c := range cells {
				assert.Positive(t, c.W)
				assert.Positive(t, c.H)
				for y := c.Y; y < c.Y+c.H; y++ {
					for x := c.X; x < c.X+c.W; x++ {
						painted[y*tc.w+x]++
					}
				}
			}
			for i, n := range painted {
				if n != 1 {
					t.Fatalf("pixel %d painted %d times", i, n)
				}
			}
		})
	}
}

func TestPlanNamesAreUnique(t *testing.T) {
	cells, err := Plan(1920, 1080, Spec{Rows: 4, Cols: 5})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, c := range cells {
		assert.False(t, seen[c.Name], "duplicate part name %q", c.Name)
		seen[c.Name] = true
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	first, err := Plan(1279, 721, Spec{Rows: 3, Cols: 3})
	require.NoError(t, err)
	second, err := Plan(1279, 721, Spec{Rows: 3, Cols: 3})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlanQuadrants(t *testing.T) {
	cells, err := Plan(640, 480, Spec{Rows: 2, Cols: 2})
	require.NoError(t, err)
	require.Len(t, cells, 4)

	names := []string{"0_0", "0_1", "1_0", "1_1"}
	for i, c := range cells {
		assert.Equal(t, names[i], c.Name)
		assert.Equal(t, 320, c.W)
		assert.Equal(t, 240, c.H)
	}
	assert.Equal(t, Cell{Name: "1_1", X: 320, Y: 240, W: 320, H: 240}, cells[3])
}

func TestPlanRemainderGoesToLastColumn(t *testing.T) {
	cells, err := Plan(641, 480, Spec{Rows: 1, Cols: 2})
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, 320, cells[0].W)
	assert.Equal(t, 321, cells[1].W)
	assert.Equal(t, 320, cells[1].X)
}

func TestPlanRejectsBadSpecs(t *testing.T) {
	testCases := []struct {
		name string
		w, h int
		spec Spec
	}{
		{"zero rows", 640, 480, Spec{Rows: 0, Cols: 2}},
		{"zero cols", 640, 480, Spec{Rows: 2, Cols: 0}},
		{"negative rows", 640, 480, Spec{Rows: -1, Cols: 2}},
		{"more cols than pixels", 3, 480, Spec{Rows: 1, Cols: 4}},
		{"more rows than pixels", 640, 3, Spec{Rows: 4, Cols: 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Plan(tc.w, tc.h, tc.spec)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}
