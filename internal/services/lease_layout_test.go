package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapTextWordBoundaries(t *testing.T) {
	lines := WrapText("aaaa bbbb cccc", 9)
	assert.Equal(t, []string{"aaaa bbbb", "cccc"}, lines)
}

func TestWrapTextNeverSplitsWords(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog near the riverbank every single morning"
	source := strings.Fields(text)

	var wrapped []string
	for _, line := range WrapText(text, 20) {
		assert.LessOrEqual(t, len(line), 20)
		wrapped = append(wrapped, strings.Fields(line)...)
	}
	assert.Equal(t, source, wrapped)
}

func TestWrapTextPreservesBlankLines(t *testing.T) {
	lines := WrapText("first\n\n\nsecond", 80)
	assert.Equal(t, []string{"first", "", "", "second"}, lines)
}

func TestWrapTextLongWordKeptWhole(t *testing.T) {
	lines := WrapText("short supercalifragilisticexpialidocious end", 10)
	assert.Contains(t, lines, "supercalifragilisticexpialidocious")
}

func TestAdvancePagination(t *testing.T) {
	m := PageMetrics{TopMargin: 10, BottomLimit: 50, LineHeight: 10}

	cur := m.Start()
	assert.Equal(t, Cursor{Page: 1, Y: 10}, cur)

	// Three advances stay on page one
	for i := 0; i < 3; i++ {
		var broke bool
		cur, broke = m.Advance(cur)
		assert.False(t, broke)
		assert.Equal(t, 1, cur.Page)
	}

	// The fourth line would cross the bottom limit
	cur, broke := m.Advance(cur)
	assert.True(t, broke)
	assert.Equal(t, 2, cur.Page)
	assert.Equal(t, m.TopMargin, cur.Y)
}

func TestPlaceLinesPageCount(t *testing.T) {
	m := PageMetrics{TopMargin: 10, BottomLimit: 50, LineHeight: 10}

	lines := make([]string, 4)
	_, pages := m.PlaceLines(lines)
	assert.Equal(t, 1, pages)

	lines = make([]string, 5)
	_, pages = m.PlaceLines(lines)
	assert.Equal(t, 2, pages)
}
