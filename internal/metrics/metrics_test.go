package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.ObservePage("patch", 10)
	r.ObservePage("patch", 3)
	r.ObservePage("vpn", 0)
	r.ObserveCollection("patch", 13, 2)
	r.ObserveFailure("compute")
	r.SetScopes(4)
	r.SetDuration(1500 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pages.WithLabelValues("patch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pages.WithLabelValues("vpn")))
	assert.Equal(t, 13.0, testutil.ToFloat64(r.records.WithLabelValues("patch")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.partial.WithLabelValues("patch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures.WithLabelValues("compute")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.scopes))
	assert.InDelta(t, 1.5, testutil.ToFloat64(r.duration), 0.0001)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.ObservePage("database", 1)
	path := filepath.Join(t.TempDir(), "oci_report.prom")

	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `oci_report_pages_total{kind="database"} 1`)
	assert.Contains(t, string(data), "# TYPE oci_report_scopes gauge")
}

func TestRecorder_WriteTextfileError(t *testing.T) {
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
