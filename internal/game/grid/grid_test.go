package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/grid"
)

func TestParse_Basic(t *testing.T) {
	g, err := grid.Parse([]string{
		"□□□□",
		"□ S□",
		"□□□□",
	}, grid.DefaultWallGlyph)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Width())
	assert.Equal(t, 3, g.Height())
	assert.Equal(t, grid.Wall, g.Cell(0, 0))
	assert.Equal(t, grid.Floor, g.Cell(1, 1))
	assert.Equal(t, grid.Start, g.Cell(2, 1))

	x, y, ok := g.Start()
	require.True(t, ok)
	assert.Equal(t, 2, x)
	assert.Equal(t, 1, y)
}

func TestParse_Empty(t *testing.T) {
	_, err := grid.Parse(nil, '#')
	assert.ErrorIs(t, err, grid.ErrEmpty)
	_, err = grid.Parse([]string{""}, '#')
	assert.ErrorIs(t, err, grid.ErrEmpty)
}

func TestParse_RaggedRows(t *testing.T) {
	_, err := grid.Parse([]string{"###", "# #", "##"}, '#')
	require.Error(t, err)
	assert.ErrorIs(t, err, grid.ErrRaggedRows)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParse_UnknownGlyph(t *testing.T) {
	_, err := grid.Parse([]string{"x S"}, '#')
	assert.ErrorIs(t, err, grid.ErrUnknownGlyph)
}

func TestGrid_Walkable(t *testing.T) {
	g, err := grid.Parse([]string{"# S"}, '#')
	require.NoError(t, err)
	assert.False(t, g.Walkable(0, 0))
	assert.True(t, g.Walkable(1, 0))
	assert.True(t, g.Walkable(2, 0))
}

func TestParseText_DropsBlankLines(t *testing.T) {
	g, err := grid.ParseText("###\r\n\n# #\n   \n###\n", '#')
	require.NoError(t, err)
	assert.Equal(t, 3, g.Height())
	assert.Equal(t, grid.Floor, g.Cell(1, 1))
}

func TestGrid_OutOfBoundsReadsAsWall(t *testing.T) {
	g, err := grid.Parse([]string{"  "}, '#')
	require.NoError(t, err)
	assert.False(t, g.InBounds(-1, 0))
	assert.False(t, g.InBounds(2, 0))
	assert.Equal(t, grid.Wall, g.Cell(5, 5))
}

func TestGrid_NoStart(t *testing.T) {
	g, err := grid.Parse([]string{"          "}, '#')
	require.NoError(t, err)
	_, _, ok := g.Start()
	assert.False(t, ok)
}

func TestCell_String(t *testing.T) {
	assert.Equal(t, "wall", grid.Wall.String())
	assert.Equal(t, "floor", grid.Floor.String())
	assert.Equal(t, "start", grid.Start.String())
	assert.Equal(t, "unknown", grid.Cell(9).String())
}

func TestParse_Property_DimensionsMatchInput(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(1, 20).Draw(rt, "w")
		h := rapid.IntRange(1, 20).Draw(rt, "h")
		glyphs := rapid.SliceOfN(rapid.SampledFrom([]rune{'#', ' ', 'S'}), w*h, w*h).Draw(rt, "glyphs")
		rows := make([]string, h)
		for y := 0; y < h; y++ {
			rows[y] = string(glyphs[y*w : (y+1)*w])
		}
		g, err := grid.Parse(rows, '#')
		require.NoError(rt, err)
		assert.Equal(rt, w, g.Width())
		assert.Equal(rt, h, g.Height())
	})
}
