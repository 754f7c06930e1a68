package assets

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pendergraft/contract-metadata/internal/caip"
	"github.com/pendergraft/contract-metadata/internal/fetch"
	"github.com/pendergraft/contract-metadata/internal/registry"
	"github.com/pendergraft/contract-metadata/internal/validation"
)

const testID = "eip155:1/erc20:0x6B175474E89094C44Da98b954EedeAC495271d0F"

// mockFetcher serves canned responses keyed by URL.
type mockFetcher struct {
	responses map[string]*fetch.Result
	calls     int
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Result, error) {
	m.calls++
	if res, ok := m.responses[rawURL]; ok {
		return res, nil
	}
	return nil, &fetch.Error{Kind: fetch.KindStatus, URL: rawURL, StatusCode: 404}
}

type fixture struct {
	svc     *Service
	layout  registry.Layout
	fetcher *mockFetcher
	srcDir  string
	tempDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	layout := registry.NewLayout(t.TempDir())
	fetcher := &mockFetcher{responses: map[string]*fetch.Result{}}
	svc := NewService(layout, fetcher, zap.NewNop())
	svc.tempDir = t.TempDir()
	return &fixture{
		svc:     svc,
		layout:  layout,
		fetcher: fetcher,
		srcDir:  t.TempDir(),
		tempDir: svc.tempDir,
	}
}

func (f *fixture) image(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(f.srcDir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func (f *fixture) icons(t *testing.T, id caip.AssetID) []string {
	t.Helper()
	icons, err := f.layout.FindIcons(id)
	require.NoError(t, err)
	return icons
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }

func fullUpdate(image string) Update {
	return Update{
		Name:     strPtr("Test Token"),
		Symbol:   strPtr("TST"),
		Decimals: intPtr(18),
		Image:    image,
	}
}

func TestUpsert_Create(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)
	png := f.image(t, "logo.png", "png-bytes")

	res, err := f.svc.Upsert(context.Background(), id, fullUpdate(png))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, f.layout.IconPath(id, ".png"), res.IconPath)

	m, err := f.layout.Read(id)
	require.NoError(t, err)
	assert.Equal(t, "Test Token", m.Name)
	assert.Equal(t, "TST", m.Symbol)
	assert.Equal(t, 18, *m.Decimals)
	assert.Equal(t, registry.LogoPath(id, ".png"), m.Logo)
	require.NotNil(t, m.ERC20, "erc20 is inferred from the asset namespace")
	assert.True(t, *m.ERC20)
	assert.Nil(t, m.SPL)

	assert.Equal(t, []string{f.layout.IconPath(id, ".png")}, f.icons(t, id))
	content, err := os.ReadFile(f.layout.IconPath(id, ".png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
}

func TestUpsert_InferSPL(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse("solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp/spl:EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	_, err := f.svc.Upsert(context.Background(), id, fullUpdate(f.image(t, "usdc.svg", "<svg/>")))
	require.NoError(t, err)

	m, err := f.layout.Read(id)
	require.NoError(t, err)
	require.NotNil(t, m.SPL)
	assert.True(t, *m.SPL)
	assert.Nil(t, m.ERC20)
}

func TestUpsert_ExplicitFlagWins(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)

	u := fullUpdate(f.image(t, "logo.png", "png"))
	u.ERC20 = boolPtr(false)
	_, err := f.svc.Upsert(context.Background(), id, u)
	require.NoError(t, err)

	m, err := f.layout.Read(id)
	require.NoError(t, err)
	require.NotNil(t, m.ERC20)
	assert.False(t, *m.ERC20)
}

func TestUpsert_MissingRequiredFields(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)

	_, err := f.svc.Upsert(context.Background(), id, Update{Symbol: strPtr("TST")})
	require.ErrorIs(t, err, ErrMissingRequiredField)
	assert.Contains(t, err.Error(), "name, decimals, image")

	exists, err := f.layout.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsert_UpdateMergesFields(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, id, fullUpdate(f.image(t, "logo.png", "png")))
	require.NoError(t, err)

	res, err := f.svc.Upsert(ctx, id, Update{Name: strPtr("Renamed Token")})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Empty(t, res.IconPath)

	m, err := f.layout.Read(id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Token", m.Name)
	assert.Equal(t, "TST", m.Symbol)
	assert.Equal(t, 18, *m.Decimals)
	assert.Equal(t, registry.LogoPath(id, ".png"), m.Logo)
}

func TestUpsert_Idempotent(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)
	ctx := context.Background()
	u := fullUpdate(f.image(t, "logo.svg", "<svg/>"))

	_, err := f.svc.Upsert(ctx, id, u)
	require.NoError(t, err)
	first, err := f.layout.ReadRaw(id)
	require.NoError(t, err)

	_, err = f.svc.Upsert(ctx, id, u)
	require.NoError(t, err)
	second, err := f.layout.ReadRaw(id)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second))
	assert.Len(t, f.icons(t, id), 1)
}

func TestUpsert_FormatChange(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)
	ctx := context.Background()

	_, err := f.svc.Upsert(ctx, id, fullUpdate(f.image(t, "logo.png", "png")))
	require.NoError(t, err)

	res, err := f.svc.Upsert(ctx, id, Update{Image: f.image(t, "logo.svg", "<svg/>")})
	require.NoError(t, err)
	assert.Equal(t, []string{f.layout.IconPath(id, ".png")}, res.RemovedIcons)

	assert.Equal(t, []string{f.layout.IconPath(id, ".svg")}, f.icons(t, id))
	m, err := f.layout.Read(id)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(m.Logo, ".svg"))
}

func TestUpsert_UnsupportedLocalFormat(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upsert(context.Background(), caip.MustParse(testID), fullUpdate(f.image(t, "logo.gif", "gif")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUpsert_LocalImageErrors(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)

	_, err := f.svc.Upsert(context.Background(), id, fullUpdate(filepath.Join(f.srcDir, "missing.png")))
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = f.svc.Upsert(context.Background(), id, fullUpdate(f.image(t, "empty.svg", "")))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestUpsert_ValidationAbortsWrite(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)

	u := fullUpdate(f.image(t, "logo.png", "png"))
	u.Symbol = strPtr("WAYTOOLONGSYM")
	_, err := f.svc.Upsert(context.Background(), id, u)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, ErrInvalidMetadata)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, validation.KindSymbolTooLong, verr.Violations[0].Kind)

	exists, err := f.layout.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists, "no metadata file after a failed validation")
	assert.Empty(t, f.icons(t, id), "no icon after a failed validation")
}

func TestUpsert_MalformedExistingIsFatal(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)

	p := f.layout.Paths(id)
	require.NoError(t, os.MkdirAll(p.MetadataDir, 0755))
	require.NoError(t, os.WriteFile(p.MetadataPath, []byte("{broken"), 0644))

	_, err := f.svc.Upsert(context.Background(), id, fullUpdate(f.image(t, "logo.png", "png")))
	assert.ErrorIs(t, err, ErrMalformedExisting)

	raw, err := os.ReadFile(p.MetadataPath)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(raw))
}

func TestUpsert_RemoteImage(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)
	f.fetcher.responses["https://cdn.test/dai"] = &fetch.Result{
		Body:        []byte("<svg/>"),
		ContentType: "image/svg+xml",
		FinalURL:    "https://cdn.test/dai",
		Extension:   ".svg",
	}

	res, err := f.svc.Upsert(context.Background(), id, fullUpdate("https://cdn.test/dai"))
	require.NoError(t, err)
	assert.Equal(t, f.layout.IconPath(id, ".svg"), res.IconPath)
	assert.Equal(t, 1, f.fetcher.calls)

	leftovers, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary download must be removed")
}

func TestUpsert_RemoteCleanupOnFailure(t *testing.T) {
	f := newFixture(t)
	id := caip.MustParse(testID)
	f.fetcher.responses["https://cdn.test/dai.png"] = &fetch.Result{
		Body:      []byte("png"),
		FinalURL:  "https://cdn.test/dai.png",
		Extension: ".png",
	}

	u := fullUpdate("https://cdn.test/dai.png")
	u.Symbol = strPtr("WAYTOOLONGSYM")
	_, err := f.svc.Upsert(context.Background(), id, u)
	require.ErrorIs(t, err, ErrInvalidMetadata)

	leftovers, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "temporary download must be removed after a failure")
}

func TestUpsert_RemoteFetchError(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upsert(context.Background(), caip.MustParse(testID), fullUpdate("https://cdn.test/missing.png"))
	require.Error(t, err)
	assert.Equal(t, fetch.KindStatus, fetch.KindOf(err))
}
