// Package grid maps positions of the fixed 9x9 Harada chart to their
// semantic roles. The centre cell (4,4) holds the main goal, the eight
// remaining cells of the central 3x3 block hold the key behaviours, and
// the 72 cells of the eight outer 3x3 sections hold supporting actions.
// Every non-central cell is a plain action cell; mirrored behaviour
// display is a presentation concern and is never persisted.
package grid

// Size is the number of rows and columns in the chart.
const Size = 9

// SectionCount is the number of outer 3x3 action sections.
const SectionCount = 8

// Role classifies a cell of the chart.
type Role string

const (
	RoleGoal     Role = "goal"
	RoleBehavior Role = "behavior"
	RoleAction   Role = "action"
)

// Position identifies one cell by zero-based row and column.
type Position struct {
	Row int
	Col int
}

// InRange reports whether row and col address a cell of the chart.
func InRange(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Classify returns the role of the cell at (row, col) and, for action
// cells, the index (0-7) of the outer section it belongs to. Section
// indexes run row-major over the eight non-central 3x3 blocks:
//
//	0  1  2
//	3  .  4
//	5  6  7
//
// Inputs must be in range; callers validate coordinates first.
func Classify(row, col int) (Role, int) {
	if row == 4 && col == 4 {
		return RoleGoal, -1
	}

	if row >= 3 && row <= 5 && col >= 3 && col <= 5 {
		return RoleBehavior, -1
	}

	sectionRow := row / 3
	sectionCol := col / 3

	var sectionIndex int
	switch sectionRow {
	case 0:
		sectionIndex = sectionCol
	case 1:
		if sectionCol == 0 {
			sectionIndex = 3
		} else {
			sectionIndex = 4
		}
	default:
		sectionIndex = 5 + sectionCol
	}

	return RoleAction, sectionIndex
}

// behaviourPositions is the inverse of the section numbering in Classify:
// entry i is the central-block cell holding the behaviour that section i
// expands on.
var behaviourPositions = [SectionCount]Position{
	{Row: 3, Col: 3},
	{Row: 3, Col: 4},
	{Row: 3, Col: 5},
	{Row: 4, Col: 3},
	{Row: 4, Col: 5},
	{Row: 5, Col: 3},
	{Row: 5, Col: 4},
	{Row: 5, Col: 5},
}

// BehaviorPosition returns the central-block position of the behaviour
// cell corresponding to the given section index (0-7).
func BehaviorPosition(sectionIndex int) Position {
	return behaviourPositions[sectionIndex]
}
