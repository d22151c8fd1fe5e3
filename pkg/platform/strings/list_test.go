package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{name: "empty", raw: "", expected: nil},
		{name: "blank", raw: "  ", expected: nil},
		{name: "single", raw: "k1:9092", expected: []string{"k1:9092"}},
		{name: "trims entries", raw: " k1:9092 , k2:9092", expected: []string{"k1:9092", "k2:9092"}},
		{name: "drops repeats and blanks", raw: "k1,,k2, k1 ,", expected: []string{"k1", "k2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.raw, ","))
		})
	}
}

func TestDedupe(t *testing.T) {
	assert.Nil(t, Dedupe(nil))
	assert.Equal(t, []string{}, Dedupe([]string{" ", ""}))
	assert.Equal(t, []string{"b", "a"}, Dedupe([]string{"b", "a", " b"}))
}
