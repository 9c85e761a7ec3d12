package state

// CardWidth is the outer width of a task card in the grid.
const CardWidth = 32

// GridColumns returns how many cards fit side by side.
func (s *State) GridColumns() int {
	cols := (s.Width - 4) / CardWidth
	if cols < 1 {
		return 1
	}
	return cols
}
