package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "only separators", input: " , ,", expected: nil},
		{name: "single", input: "kafka:9092", expected: []string{"kafka:9092"}},
		{name: "trims items", input: " a:9092 ,b:9092", expected: []string{"a:9092", "b:9092"}},
		{name: "drops repeats keeping first", input: "a,b,a,c,b", expected: []string{"a", "b", "c"}},
		{name: "keeps case", input: "Host,host", expected: []string{"Host", "host"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input))
		})
	}
}

func TestSplitListFold(t *testing.T) {
	got := SplitListFold("Lead@Example.com, lead@example.com ,ops@example.com,")
	assert.Equal(t, []string{"lead@example.com", "ops@example.com"}, got)
}
