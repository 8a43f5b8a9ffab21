package engine

// PassedPositions returns the cells of the digital line from start to end,
// both included, starting with start. Reversing the arguments yields the
// reversed sequence.
func PassedPositions(start, end Vector) []Vector {
	diffX := end.X - start.X
	diffY := end.Y - start.Y
	distX, distY := abs(diffX), abs(diffY)
	dirX, dirY := sign(diffX), sign(diffY)

	// Parallel step along the fast axis, diagonal step along both.
	var parallelX, parallelY, fast, slow int
	if distX > distY {
		parallelX = dirX
		fast, slow = distX, distY
	} else {
		parallelY = dirY
		fast, slow = distY, distX
	}

	x, y := start.X, start.Y
	path := make([]Vector, 0, fast+1)
	path = append(path, Vector{X: x, Y: y})

	errTerm := fast / 2
	for step := 0; step < fast; step++ {
		errTerm -= slow
		if errTerm < 0 {
			errTerm += fast
			x += dirX
			y += dirY
		} else {
			x += parallelX
			y += parallelY
		}
		path = append(path, Vector{X: x, Y: y})
	}
	return path
}
