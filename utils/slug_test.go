package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"Hello World"}, "hello-world"},
		{[]string{"Running Shoe", "Light & Fast"}, "running-shoe-light-and-fast"},
		{[]string{"  Café  Déjà vu "}, "cafe-deja-vu"},
		{[]string{"", "Only heading"}, "only-heading"},
		{[]string{"!!!"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.parts...), tt.parts)
	}
}

func TestUniqueSlugAppendsCounter(t *testing.T) {
	taken := map[string]bool{"hello-go": true, "hello-go-1": true}
	exists := func(_ context.Context, candidate string) (bool, error) {
		return taken[candidate], nil
	}

	got, err := UniqueSlug(context.Background(), exists, "Hello Go")
	require.NoError(t, err)
	assert.Equal(t, "hello-go-2", got)

	got, err = UniqueSlug(context.Background(), exists, "Fresh title")
	require.NoError(t, err)
	assert.Equal(t, "fresh-title", got)
}

func TestUniqueSlugErrors(t *testing.T) {
	never := func(context.Context, string) (bool, error) { return false, nil }
	_, err := UniqueSlug(context.Background(), never, "  ", "???")
	assert.ErrorIs(t, err, ErrEmptySlug)

	boom := errors.New("db down")
	failing := func(context.Context, string) (bool, error) { return false, boom }
	_, err = UniqueSlug(context.Background(), failing, "title")
	assert.ErrorIs(t, err, boom)
}
