package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skylock-backend/models"
)

func cells(xy ...int) []models.Cell {
	out := make([]models.Cell, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, models.Cell{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestSimplifyPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		path    []models.Cell
		epsilon float64
		want    []models.Cell
	}{
		{"straight line", cells(0, 0, 1, 1, 2, 2, 3, 3), 1, cells(0, 0, 3, 3)},
		{"keeps corner", cells(0, 0, 1, 0, 2, 0, 3, 0, 3, 1, 3, 2, 3, 3), 1, cells(0, 0, 3, 0, 3, 3)},
		{"small wobble", cells(0, 0, 1, 1, 2, 0, 3, 0), 1.5, cells(0, 0, 3, 0)},
		{"epsilon off", cells(0, 0, 1, 1, 2, 2), 0, cells(0, 0, 1, 1, 2, 2)},
		{"two cells", cells(0, 0, 1, 1), 1, cells(0, 0, 1, 1)},
		{"empty", nil, 1, []models.Cell{}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SimplifyPath(tc.path, tc.epsilon), tc.name)
	}
}

func TestSimplifyPathDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	path := cells(0, 0, 1, 1)
	out := SimplifyPath(path, 0)
	out[0] = models.Cell{X: 9, Y: 9}
	assert.Equal(t, models.Cell{X: 0, Y: 0}, path[0])
}

func TestPathLength(t *testing.T) {
	t.Parallel()

	assert.Zero(t, PathLength(nil))
	assert.Zero(t, PathLength(cells(2, 2)))
	assert.Equal(t, 3, PathLength(cells(0, 0, 1, 1, 2, 2, 3, 3)))
}
