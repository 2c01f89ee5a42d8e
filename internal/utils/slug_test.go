package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Perceuse à percussion 18V": "perceuse-a-percussion-18v",
		"  Clé  à molette  ":        "cle-a-molette",
		"Vis/Écrous -- M8":          "vis-ecrous-m8",
		"":                          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}
