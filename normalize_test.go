package medcrypt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdsykes2512/medcrypt"
)

func TestNormalizeForIndex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain digits", in: "9434765919", want: "9434765919"},
		{name: "internal spaces", in: "943 476 5919", want: "9434765919"},
		{name: "tabs and newlines", in: "\t943\n476 5919 ", want: "9434765919"},
		{name: "uppercase", in: "SW1A 1AA", want: "sw1a1aa"},
		{name: "mixed case name", in: "O'Connor", want: "o'connor"},
		{name: "unicode uppercase", in: "MÜLLER", want: "müller"},
		{name: "non-breaking space", in: "943 4765919", want: "9434765919"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, medcrypt.NormalizeForIndex(tt.in))
		})
	}
}
