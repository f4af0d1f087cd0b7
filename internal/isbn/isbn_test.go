package isbn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"hyphenated", "0-19-853453-1", "0198534531"},
		{"already canonical", "0198534531", "0198534531"},
		{"whitespace", " 0 19 853453 1 ", "0198534531"},
		{"mixed separators", "978-0 306.40615-7", "9780306406157"},
		{"check digit x", "0-8044-2957-x", "080442957X"},
		{"empty", "", ""},
		{"only separators", "- -", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("0-19-853453-1", "0198534531"))
	assert.True(t, Equal("0-8044-2957-X", "0-8044-2957-x"))
	assert.False(t, Equal("0198534531", "0198534532"))
}
