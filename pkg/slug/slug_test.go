// Copyright (c) 2026 Libria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/libria/pkg/slug"
)

/*
TestFrom covers the slug transformation pipeline end to end.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "The Name of the Rose", "the-name-of-the-rose"},
		{"accents", "Les Misérables", "les-miserables"},
		{"punctuation", "Harry Potter & the Philosopher's Stone!", "harry-potter-the-philosopher-s-stone"},
		{"multiple_spaces", "War   and    Peace", "war-and-peace"},
		{"leading_trailing", "  --Dune--  ", "dune"},
		{"digits", "Fahrenheit 451", "fahrenheit-451"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, slug.From(tt.input))
		})
	}
}
