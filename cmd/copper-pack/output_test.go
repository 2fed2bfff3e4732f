package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copperpack/copper-pack/internal/enrich"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Globex", "Globex"},
		{"number", 25000, "25000"},
		{"person", enrich.PersonRef{ID: "1001", Email: "ada@example.com", Name: "Ada Lovelace"}, "Ada Lovelace <ada@example.com>"},
		{"unassigned person", enrich.PersonRef{}, ""},
		{"company", enrich.CompanyRef{ID: "90001", Name: "Globex"}, "Globex (90001)"},
		{"contact", enrich.ContactRef{ID: "80001", FullName: "Not found"}, "80001"},
		{"strings", []string{"Email", "Phone"}, "Email, Phone"},
		{"mixed slice", []any{"a", 1, nil}, "a, 1, "},
		{"map", map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, formatValue(tc.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "line one line two", truncate("line one\nline two", 40))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
	assert.Equal(t, strings.Repeat("é", 3)+"...", truncate(strings.Repeat("é", 6), 3))
}
