package engine

// CountSpaceKind counts the cells of a specific kind in the track
func CountSpaceKind(t *Track, kind SpaceKind) int {
	count := 0
	for _, row := range t.cells {
		for _, k := range row {
			if k == kind {
				count++
			}
		}
	}
	return count
}

// FinishCells returns the positions of all finish cells in row-major order
func FinishCells(t *Track) []Vector {
	var cells []Vector
	for y, row := range t.cells {
		for x, k := range row {
			if k.IsFinish() {
				cells = append(cells, Vector{X: x, Y: y})
			}
		}
	}
	return cells
}

// ChebyshevDistance is the number of single-cell moves between two positions
// when diagonal moves are allowed.
func ChebyshevDistance(from, to Vector) int {
	dx, dy := abs(from.X-to.X), abs(from.Y-to.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// FindNearestFinish finds the closest finish cell and returns its position and distance
func FindNearestFinish(t *Track, from Vector) (Vector, int, bool) {
	minDistance := -1
	var nearest Vector
	for _, p := range FinishCells(t) {
		d := ChebyshevDistance(from, p)
		if minDistance == -1 || d < minDistance {
			minDistance = d
			nearest = p
		}
	}
	return nearest, minDistance, minDistance != -1
}
