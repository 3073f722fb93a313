package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Hello World", "hello-world"},
		{"already slugged", "hello-world", "hello-world"},
		{"multiple spaces", "a   b\tc", "a-b-c"},
		{"umlauts", "Über Öl ändern", "ueber-oel-aendern"},
		{"sharp s", "Straße", "strasse"},
		{"accents", "Café résumé", "cafe-resume"},
		{"punctuation stripped", "what?! (really)", "what-really"},
		{"dash runs collapsed", "a -- b --- c", "a-b-c"},
		{"leading and trailing trimmed", "  --hello--  ", "hello"},
		{"email", "jane.doe@example.com", "janedoeexamplecom"},
		{"numbers kept", "release 2.0.1", "release-201"},
		{"empty", "", ""},
		{"only symbols", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestSlugifyIsStable(t *testing.T) {
	inputs := []string{
		"Hello World",
		"Über Öl ändern",
		"what?! (really)",
		"a -- b --- c",
		"jane.doe@example.com",
		"",
	}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once), "Slugify must be idempotent for %q", in)
	}
}
