package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sources [][]string
		want    []string
	}{
		{
			name:    "user and ai tags",
			sources: [][]string{{"frontend", " design "}, {"design", "ui"}},
			want:    []string{"frontend", "design", "ui"},
		},
		{
			name:    "drops empties",
			sources: [][]string{{"", "  ", "a"}},
			want:    []string{"a"},
		},
		{
			name:    "case sensitive",
			sources: [][]string{{"UI"}, {"ui"}},
			want:    []string{"UI", "ui"},
		},
		{
			name:    "nothing",
			sources: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MergeTags(tt.sources...))
		})
	}
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"design", "frontend", "ui"}, ParseTags("design, frontend,, ui ,design"))
	assert.Equal(t, []string{}, ParseTags(""))
}
