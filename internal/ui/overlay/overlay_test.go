package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid(w, h int) string {
	row := strings.Repeat(".", w)
	rows := make([]string, h)
	for i := range rows {
		rows[i] = row
	}
	return strings.Join(rows, "\n")
}

func TestPlace_Center(t *testing.T) {
	lines := strings.Split(Place(Config{Width: 5, Height: 3}, "XX\nXX", grid(5, 3)), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, ".XX..", lines[0])
	assert.Equal(t, ".XX..", lines[1])
	assert.Equal(t, ".....", lines[2])
}

func TestPlace_TopWithPadding(t *testing.T) {
	lines := strings.Split(Place(Config{Width: 5, Height: 4, Position: Top, PadY: 1}, "XX", grid(5, 4)), "\n")

	assert.Equal(t, ".....", lines[0])
	assert.Equal(t, ".XX..", lines[1])
}

func TestPlace_BottomWithPadding(t *testing.T) {
	lines := strings.Split(Place(Config{Width: 6, Height: 4, Position: Bottom, PadY: 1}, "XX", grid(6, 4)), "\n")

	assert.Equal(t, "..XX..", lines[2])
	assert.Equal(t, "......", lines[3])
}

func TestPlace_LargeForegroundClamped(t *testing.T) {
	lines := strings.Split(Place(Config{Width: 3, Height: 3}, "XXXXX\nXXXXX", grid(3, 3)), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "XXXXX", lines[0])
}

func TestPlace_PadsShortBackground(t *testing.T) {
	lines := strings.Split(Place(Config{Width: 4, Height: 3, Position: Bottom}, "XX", "ab"), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "ab", lines[0])
	assert.Equal(t, " XX ", lines[2])
}

func TestPlace_KeepsStyledBackground(t *testing.T) {
	bg := "\x1b[31mRRRRRR\x1b[0m"
	out := Place(Config{Width: 6, Height: 1}, "XX", bg)

	assert.Contains(t, out, "XX")
	assert.Contains(t, out, "\x1b[31m")
}
