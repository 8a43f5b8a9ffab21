package engine

// CrossedCorrectly reports whether moving with velocity v over a cell of kind
// k crosses the finish line in its required direction.
func CrossedCorrectly(k SpaceKind, v Vector) bool {
	switch k {
	case FinishUp:
		return v.Y < 0
	case FinishDown:
		return v.Y > 0
	case FinishLeft:
		return v.X < 0
	case FinishRight:
		return v.X > 0
	}
	return false
}

// Penalized reports whether v crosses a finish cell of kind k against its
// required direction. Zero components are neither correct nor penalized.
func Penalized(k SpaceKind, v Vector) bool {
	switch k {
	case FinishUp:
		return v.Y > 0
	case FinishDown:
		return v.Y < 0
	case FinishLeft:
		return v.X > 0
	case FinishRight:
		return v.X < 0
	}
	return false
}
