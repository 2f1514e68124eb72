package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "", placeholders(-1))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestRowLabelForIndex(t *testing.T) {
	// spreadsheet-style labels: A..Z, then AA, AB, ...
	cases := map[int]string{
		0:  "A",
		1:  "B",
		25: "Z",
		26: "AA",
		27: "AB",
		51: "AZ",
		52: "BA",
	}
	for i, want := range cases {
		assert.Equal(t, want, rowLabelForIndex(i), "index %d", i)
	}
}
