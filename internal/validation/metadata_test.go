package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(vs []Violation) []Kind {
	out := make([]Kind, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Kind)
	}
	return out
}

func TestCheckMetadata(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantKinds []Kind
	}{
		{
			name: "valid full record",
			doc:  `{"name":"Dai Stablecoin","symbol":"DAI","decimals":18,"logo":"./icons/eip155:1/erc20:0x6B175474E89094C44Da98b954EedeAC495271d0F.svg","erc20":true}`,
		},
		{
			name: "valid minimal record",
			doc:  `{"name":"Bitcoin","logo":"./icons/bip122:000000000019d6689c085ae165831e93/slip44:0.svg"}`,
		},
		{
			name: "symbol exactly eleven",
			doc:  `{"name":"Long","symbol":"ABCDEFGHIJK","logo":"x.svg"}`,
		},
		{
			name:      "symbol twelve",
			doc:       `{"name":"Long","symbol":"ABCDEFGHIJKL","logo":"x.svg"}`,
			wantKinds: []Kind{KindSymbolTooLong},
		},
		{
			name:      "unknown field",
			doc:       `{"name":"Token","logo":"x.svg","badField":true}`,
			wantKinds: []Kind{KindUnknownField},
		},
		{
			name:      "spl20 is not the canonical flag",
			doc:       `{"name":"Token","logo":"x.svg","spl20":true}`,
			wantKinds: []Kind{KindUnknownField},
		},
		{
			name:      "missing name and logo",
			doc:       `{"symbol":"TKN"}`,
			wantKinds: []Kind{KindMissingField, KindMissingField},
		},
		{
			name:      "empty name",
			doc:       `{"name":"","logo":"x.svg"}`,
			wantKinds: []Kind{KindMissingField},
		},
		{
			name:      "decimals as string",
			doc:       `{"name":"Token","logo":"x.svg","decimals":"18"}`,
			wantKinds: []Kind{KindInvalidNumber},
		},
		{
			name:      "decimals out of range",
			doc:       `{"name":"Token","logo":"x.svg","decimals":256}`,
			wantKinds: []Kind{KindInvalidNumber},
		},
		{
			name:      "erc20 not boolean",
			doc:       `{"name":"Token","logo":"x.svg","erc20":"yes"}`,
			wantKinds: []Kind{KindInvalidType},
		},
		{
			name:      "not an object",
			doc:       `["name"]`,
			wantKinds: []Kind{KindMalformedJSON},
		},
		{
			name:      "not json",
			doc:       `{"name":`,
			wantKinds: []Kind{KindMalformedJSON},
		},
		{
			name:      "ordering across kinds",
			doc:       `{"badField":1,"symbol":"WAYTOOLONGSYMBOL","decimals":"x","logo":"x.svg"}`,
			wantKinds: []Kind{KindMissingField, KindUnknownField, KindSymbolTooLong, KindInvalidNumber},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckMetadata([]byte(tt.doc))
			if len(tt.wantKinds) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.wantKinds, kinds(got))
		})
	}
}

func TestCheckMetadata_Messages(t *testing.T) {
	got := CheckMetadata([]byte(`{"name":"Token","logo":"x.svg","badField":true}`))
	require.Len(t, got, 1)
	assert.Equal(t, "badField", got[0].Field)
	assert.True(t, strings.HasPrefix(got[0].String(), "badField: is not a permitted field"))

	got = CheckMetadata([]byte(`{"logo":"x.svg"}`))
	require.Len(t, got, 1)
	assert.Equal(t, "name: is required", got[0].String())
}

func TestCheckMetadataValue(t *testing.T) {
	doc := map[string]any{"name": "Token", "logo": "x.png", "decimals": 6}
	assert.Empty(t, CheckMetadataValue(doc))

	doc["symbol"] = "ABCDEFGHIJKLMNOP"
	assert.Equal(t, []Kind{KindSymbolTooLong}, kinds(CheckMetadataValue(doc)))
}

func TestSchemaDerivedRules(t *testing.T) {
	assert.Equal(t, []string{"decimals", "erc20", "logo", "name", "spl", "symbol"}, permittedFields)
	assert.Equal(t, 11, MaxSymbolLength())
}
