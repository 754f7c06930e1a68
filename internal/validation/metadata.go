package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed metadata.schema.json
var metadataSchemaBytes []byte

var (
	metadataSchema  *gojsonschema.Schema
	permittedFields []string
	maxSymbolLength int
)

func init() {
	var err error
	metadataSchema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(metadataSchemaBytes))
	if err != nil {
		panic(fmt.Sprintf("failed to load metadata schema: %v", err))
	}

	var doc struct {
		Properties map[string]struct {
			MaxLength int `json:"maxLength"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(metadataSchemaBytes, &doc); err != nil {
		panic(fmt.Sprintf("failed to read metadata schema: %v", err))
	}
	for field := range doc.Properties {
		permittedFields = append(permittedFields, field)
	}
	sort.Strings(permittedFields)
	maxSymbolLength = doc.Properties["symbol"].MaxLength
}

// Kind classifies a metadata violation.
type Kind string

// Violation kinds, in the order they are reported.
const (
	KindMalformedJSON Kind = "MalformedJSON"
	KindMissingField  Kind = "MissingRequiredField"
	KindUnknownField  Kind = "UnknownField"
	KindSymbolTooLong Kind = "SymbolTooLong"
	KindInvalidNumber Kind = "InvalidDecimals"
	KindInvalidType   Kind = "InvalidType"
)

const (
	rootField     = "(root)"
	decimalsField = "decimals"
	symbolField   = "symbol"
)

var kindOrder = map[Kind]int{
	KindMalformedJSON: 0,
	KindMissingField:  1,
	KindUnknownField:  2,
	KindSymbolTooLong: 3,
	KindInvalidNumber: 4,
	KindInvalidType:   5,
}

// Violation is a single metadata rule failure.
type Violation struct {
	Kind    Kind
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Field == "" || v.Field == rootField {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// MaxSymbolLength is the longest symbol accepted, in characters.
func MaxSymbolLength() int {
	return maxSymbolLength
}

// CheckMetadata validates a raw metadata document against the metadata schema.
// Violations are ordered by kind (missing, unknown, symbol, decimals, type)
// and then by field name, so output is stable across runs.
func CheckMetadata(doc []byte) []Violation {
	result, err := metadataSchema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return []Violation{{Kind: KindMalformedJSON, Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, toViolation(re))
	}

	sort.SliceStable(violations, func(i, j int) bool {
		oi, oj := kindRank(violations[i].Kind), kindRank(violations[j].Kind)
		if oi != oj {
			return oi < oj
		}
		return violations[i].Field < violations[j].Field
	})
	return violations
}

// CheckMetadataValue marshals v and validates it with CheckMetadata.
func CheckMetadataValue(v any) []Violation {
	doc, err := json.Marshal(v)
	if err != nil {
		return []Violation{{Kind: KindMalformedJSON, Message: fmt.Sprintf("encoding metadata: %v", err)}}
	}
	return CheckMetadata(doc)
}

func toViolation(re gojsonschema.ResultError) Violation {
	field := re.Field()
	if p, ok := re.Details()["property"].(string); ok && p != "" {
		field = p
	}

	switch re.Type() {
	case "required":
		return Violation{Kind: KindMissingField, Field: field, Message: "is required"}
	case "additional_property_not_allowed":
		return Violation{
			Kind:    KindUnknownField,
			Field:   field,
			Message: fmt.Sprintf("is not a permitted field (allowed: %s)", strings.Join(permittedFields, ", ")),
		}
	case "string_gte":
		return Violation{Kind: KindMissingField, Field: field, Message: "must not be empty"}
	case "string_lte":
		if field == symbolField {
			return Violation{
				Kind:    KindSymbolTooLong,
				Field:   field,
				Message: fmt.Sprintf("must be %d characters or less", maxSymbolLength),
			}
		}
	case "invalid_type":
		if field == rootField {
			return Violation{Kind: KindMalformedJSON, Field: field, Message: "metadata must be a JSON object"}
		}
		if field == decimalsField {
			return Violation{Kind: KindInvalidNumber, Field: field, Message: "must be an integer"}
		}
		return Violation{
			Kind:    KindInvalidType,
			Field:   field,
			Message: fmt.Sprintf("must be of type %v", re.Details()["expected"]),
		}
	case "number_gte", "number_lte":
		if field == decimalsField {
			return Violation{Kind: KindInvalidNumber, Field: field, Message: "must be between 0 and 255"}
		}
	}
	return Violation{Kind: KindInvalidType, Field: field, Message: re.Description()}
}

func kindRank(k Kind) int {
	if r, ok := kindOrder[k]; ok {
		return r
	}
	return len(kindOrder)
}
