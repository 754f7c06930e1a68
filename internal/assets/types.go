// Package assets contains the create/update workflow for registry entries.
package assets

import (
	"errors"
	"strings"

	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/registry"
	"github.com/pendergraft/contract-metadata/internal/validation"
)

// Common errors returned by the asset service.
var (
	ErrMissingRequiredField = errors.New("missing required fields for new asset")
	ErrUnsupportedFormat    = errors.New("unsupported image format")
	ErrImageNotFound        = errors.New("image not found")
	ErrEmptyImage           = errors.New("image is empty")
	ErrInvalidMetadata      = errors.New("metadata validation failed")
	ErrMalformedExisting    = errors.New("existing metadata is malformed")
)

// Update carries the fields supplied by the caller. Nil and empty values are
// left untouched on an existing record.
type Update struct {
	Name     *string
	Symbol   *string
	Decimals *int
	// Image is a local file path or an http(s) URL.
	Image string
	ERC20 *bool
	SPL   *bool
}

// Result describes a completed upsert.
type Result struct {
	ID       caip.AssetID
	Metadata *registry.Metadata
	Created  bool
	// IconPath is the icon written by this call, empty when the image was not changed.
	IconPath string
	// RemovedIcons lists icons deleted because the format changed.
	RemovedIcons []string
}

// ValidationError is returned when the merged record breaks the metadata
// schema. Nothing is written when it occurs.
type ValidationError struct {
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrInvalidMetadata.Error())
	b.WriteString(":")
	for _, v := range e.Violations {
		b.WriteString("\n  ")
		b.WriteString(v.String())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidMetadata
}
