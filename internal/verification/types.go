// Package verification checks registry entries against the metadata rules
// and the icon layout.
package verification

import (
	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/validation"
)

// Kind classifies a finding.
type Kind string

const (
	KindMetadataNotFound Kind = "MetadataNotFound"
	KindMalformedJSON    Kind = Kind(validation.KindMalformedJSON)
	KindMissingField     Kind = Kind(validation.KindMissingField)
	KindUnknownField     Kind = Kind(validation.KindUnknownField)
	KindSymbolTooLong    Kind = Kind(validation.KindSymbolTooLong)
	KindInvalidDecimals  Kind = Kind(validation.KindInvalidNumber)
	KindInvalidType      Kind = Kind(validation.KindInvalidType)

	KindIconNotFound  Kind = "IconNotFound"
	KindIconEmpty     Kind = "IconEmpty"
	KindIconFormat    Kind = "IconFormat"
	KindIconFileName  Kind = "IconFileName"
	KindIconDuplicate Kind = "DuplicateIcon"
	KindLogoMismatch  Kind = "LogoMismatch"

	KindChecksumMismatch    Kind = "ChecksumMismatch"
	KindChecksumUnavailable Kind = "ChecksumUnavailable"
	KindReferenceFormat     Kind = "ReferenceFormat"
)

// Finding is one report entry.
type Finding struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return f.Message
}

// Report is the outcome of verifying one asset. Entries keep check order.
type Report struct {
	Asset    caip.AssetID `json:"-"`
	ID       string       `json:"asset"`
	Errors   []Finding    `json:"errors"`
	Warnings []Finding    `json:"warnings"`
}

func newReport(id caip.AssetID) *Report {
	return &Report{
		Asset:    id,
		ID:       id.String(),
		Errors:   []Finding{},
		Warnings: []Finding{},
	}
}

// OK reports whether the asset passed. Warnings do not fail a report.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// HasError reports whether the report contains an error of kind k.
func (r *Report) HasError(k Kind) bool {
	for _, f := range r.Errors {
		if f.Kind == k {
			return true
		}
	}
	return false
}

// HasWarning reports whether the report contains a warning of kind k.
func (r *Report) HasWarning(k Kind) bool {
	for _, f := range r.Warnings {
		if f.Kind == k {
			return true
		}
	}
	return false
}

func (r *Report) errorf(k Kind, msg string) {
	r.Errors = append(r.Errors, Finding{Kind: k, Message: msg})
}

func (r *Report) warnf(k Kind, msg string) {
	r.Warnings = append(r.Warnings, Finding{Kind: k, Message: msg})
}

// Summary aggregates a VerifyAll run.
type Summary struct {
	Reports []*Report
	Passed  int
	Failed  int
}

// OK reports whether every asset passed.
func (s *Summary) OK() bool {
	return s.Failed == 0
}
