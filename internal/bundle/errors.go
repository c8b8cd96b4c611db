package bundle

import (
	"fmt"
	"strings"
)

// UnsupportedFormatError is returned when the SDK path is not a zip archive.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("SDK path must be a zip archive: %s", e.Path)
}

// NoMatchingVariantError is returned when a bundle has no device library for a platform.
type NoMatchingVariantError struct {
	Bundle   string
	Platform string
}

func (e *NoMatchingVariantError) Error() string {
	return fmt.Sprintf("%s has no %s device library", e.Bundle, e.Platform)
}

// AmbiguousVariantError is returned when more than one device library matches a platform.
type AmbiguousVariantError struct {
	Bundle      string
	Platform    string
	Identifiers []string
}

func (e *AmbiguousVariantError) Error() string {
	return fmt.Sprintf("%s has %d %s device libraries (%s), expected exactly one",
		e.Bundle, len(e.Identifiers), e.Platform, strings.Join(e.Identifiers, ", "))
}
