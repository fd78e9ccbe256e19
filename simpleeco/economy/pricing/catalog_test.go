package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog_Resolve(t *testing.T) {
	c := NewCatalog(testGlobals, map[string]ItemPrice{
		"diamond":       {BasePrice: 10, MinPrice: 1, MaxPrice: 100},
		"DIAMOND_SWORD": {BasePrice: 50, MinPrice: 10, MaxPrice: 500},
		"IRON_INGOT":    {BasePrice: 5, MinPrice: 1, MaxPrice: 50},
	})

	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"Diamond", "DIAMOND", true},
		{"diamond sword", "DIAMOND_SWORD", true},
		{"iron", "IRON_INGOT", true},
		{"dsword", "DIAMOND_SWORD", true},
		{"netherite", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Resolve(tt.query)
		assert.Equal(t, tt.ok, ok, tt.query)
		assert.Equal(t, tt.want, got, tt.query)
	}

	assert.Equal(t, []string{"DIAMOND", "DIAMOND_SWORD", "IRON_INGOT"}, c.Items())
}
