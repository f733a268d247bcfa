package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

var ErrEmptySlug = errors.New("slug source produces an empty slug")

// SlugExistsFunc reports whether candidate is already taken by another document.
type SlugExistsFunc func(ctx context.Context, candidate string) (bool, error)

const maxSlugAttempts = 1000

// Slugify lowercases and transliterates parts joined by "-".
func Slugify(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return slug.Make(strings.Join(nonEmpty, " "))
}

// UniqueSlug slugifies source and appends -1, -2, ... until exists reports
// the candidate as free.
func UniqueSlug(ctx context.Context, exists SlugExistsFunc, parts ...string) (string, error) {
	base := Slugify(parts...)
	if base == "" {
		return "", ErrEmptySlug
	}

	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}
