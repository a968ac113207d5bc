package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected bool
	}{
		{
			name:     "doctype html",
			data:     "<!DOCTYPE html><html><head></head></html>",
			expected: true,
		},
		{
			name:     "bare html tag",
			data:     "<html lang=\"de\"><body></body></html>",
			expected: true,
		},
		{
			name:     "leading whitespace and mixed case",
			data:     "\n\n  <!doctype HTML>\n<HTML>",
			expected: true,
		},
		{
			name:     "html tag deeper in the head",
			data:     "<!-- banner -->\n<html>",
			expected: true,
		},
		{
			name:     "rss document",
			data:     "<?xml version=\"1.0\"?><rss version=\"2.0\"><channel></channel></rss>",
			expected: false,
		},
		{
			name:     "atom document",
			data:     "<feed xmlns=\"http://www.w3.org/2005/Atom\"></feed>",
			expected: false,
		},
		{
			name:     "html tag beyond the sniff window",
			data:     strings.Repeat(" ", htmlSniffLen+10) + "x<html>",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LooksLikeHTML([]byte(tt.data)))
		})
	}
}
