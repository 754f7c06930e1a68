package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledIsNoop(t *testing.T) {
	Init(false)
	t.Cleanup(func() { Init(false) })

	AssetUpsert("eip155", "create", "success")
	AssetVerify("eip155", "pass")
	VerificationFinding("error", "UnknownField")
	ExportRecords("tokenlist", 3)
	ImportEntry("imported")
	ObserveCommand("verify", time.Now())

	assert.False(t, Enabled())
	assert.Nil(t, Gatherer())

	path := filepath.Join(t.TempDir(), "cm.prom")
	require.NoError(t, WriteTextfile(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCounters(t *testing.T) {
	Init(true)
	t.Cleanup(func() { Init(false) })

	AssetUpsert("eip155", "create", "success")
	AssetUpsert("eip155", "create", "success")
	AssetVerify("eip155", "fail")
	VerificationFinding("error", "ChecksumMismatch")
	ExportRecords("sqlite", 42)

	assert.Equal(t, 2.0, testutil.ToFloat64(upsertTotal.WithLabelValues("eip155", "create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(verifyTotal.WithLabelValues("eip155", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(findingTotal.WithLabelValues("error", "ChecksumMismatch")))
	assert.Equal(t, 42.0, testutil.ToFloat64(exportRecords.WithLabelValues("sqlite")))

	Init(true)
	assert.Equal(t, 0.0, testutil.ToFloat64(upsertTotal.WithLabelValues("eip155", "create", "success")))
}

func TestWriteTextfile(t *testing.T) {
	Init(true)
	t.Cleanup(func() { Init(false) })

	AssetVerify("bip122", "pass")
	ObserveCommand("verify", time.Now().Add(-time.Second))

	path := filepath.Join(t.TempDir(), "cm.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `contract_metadata_asset_verify_total{chain_namespace="bip122",result="pass"} 1`), out)
	assert.Contains(t, out, "contract_metadata_command_duration_seconds_count{command=\"verify\"} 1")
	assert.Contains(t, out, "contract_metadata_last_run_timestamp_seconds")
}
