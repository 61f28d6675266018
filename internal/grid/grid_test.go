package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRoleCounts(t *testing.T) {
	counts := map[Role]int{}
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			role, _ := Classify(row, col)
			counts[role]++
		}
	}

	assert.Equal(t, 1, counts[RoleGoal])
	assert.Equal(t, 8, counts[RoleBehavior])
	assert.Equal(t, 72, counts[RoleAction])
}

func TestClassifyGoal(t *testing.T) {
	role, section := Classify(4, 4)
	assert.Equal(t, RoleGoal, role)
	assert.Equal(t, -1, section)
}

func TestClassifyBehaviors(t *testing.T) {
	for row := 3; row <= 5; row++ {
		for col := 3; col <= 5; col++ {
			if row == 4 && col == 4 {
				continue
			}
			role, section := Classify(row, col)
			assert.Equal(t, RoleBehavior, role, "cell (%d,%d)", row, col)
			assert.Equal(t, -1, section, "cell (%d,%d)", row, col)
		}
	}
}

func TestClassifySectionIndexes(t *testing.T) {
	cases := []struct {
		row, col int
		section  int
	}{
		{0, 0, 0}, {2, 2, 0},
		{0, 3, 1}, {2, 5, 1},
		{0, 6, 2}, {1, 8, 2},
		{3, 0, 3}, {5, 2, 3},
		{4, 6, 4}, {3, 8, 4},
		{6, 0, 5}, {8, 2, 5},
		{6, 3, 6}, {8, 5, 6},
		{6, 6, 7}, {8, 8, 7},
	}

	for _, tc := range cases {
		role, section := Classify(tc.row, tc.col)
		require.Equal(t, RoleAction, role, "cell (%d,%d)", tc.row, tc.col)
		assert.Equal(t, tc.section, section, "cell (%d,%d)", tc.row, tc.col)
	}
}

func TestClassifySectionIndexRange(t *testing.T) {
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			role, section := Classify(row, col)
			if role == RoleAction {
				assert.GreaterOrEqual(t, section, 0, "cell (%d,%d)", row, col)
				assert.Less(t, section, SectionCount, "cell (%d,%d)", row, col)
			} else {
				assert.Equal(t, -1, section, "cell (%d,%d)", row, col)
			}
		}
	}
}

// Each behaviour cell sits in the central block at the offset its outer
// section occupies in the full grid. BehaviorPosition must invert the
// section numbering used by Classify.
func TestBehaviorPositionInvertsSectionNumbering(t *testing.T) {
	for index := 0; index < SectionCount; index++ {
		pos := BehaviorPosition(index)

		role, _ := Classify(pos.Row, pos.Col)
		require.Equal(t, RoleBehavior, role, "section %d", index)

		// Map the behaviour cell's offset inside the central block back to
		// the aligned outer section and check the index round-trips.
		alignedRow := (pos.Row - 3) * 3
		alignedCol := (pos.Col - 3) * 3
		actionRole, section := Classify(alignedRow, alignedCol)
		require.Equal(t, RoleAction, actionRole, "section %d", index)
		assert.Equal(t, index, section, "section %d", index)
	}
}

func TestBehaviorPositionsDistinct(t *testing.T) {
	seen := map[Position]bool{}
	for index := 0; index < SectionCount; index++ {
		pos := BehaviorPosition(index)
		assert.False(t, seen[pos], "duplicate position for section %d", index)
		seen[pos] = true
	}
	assert.Len(t, seen, SectionCount)
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(0, 0))
	assert.True(t, InRange(8, 8))
	assert.False(t, InRange(-1, 0))
	assert.False(t, InRange(0, 9))
	assert.False(t, InRange(9, 0))
}
