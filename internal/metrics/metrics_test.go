package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/cienv/internal/metrics"
)

func counterValue(t *testing.T, r *metrics.Recorder, name, labelValue string) float64 {
	t.Helper()

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue == "" && len(m.GetLabel()) == 0 {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRecorder_Counts(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	r.RecordOutcome(metrics.OutcomeApplied)
	r.RecordOutcome(metrics.OutcomeApplied)
	r.RecordOutcome(metrics.OutcomeSkipped)
	r.RecordVariableSet()
	r.RecordVariableSet()
	r.RecordVariableSet()
	r.ObserveResolve("secret", 15*time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, r, "cienv_directives_total", metrics.OutcomeApplied))
	assert.Equal(t, 1.0, counterValue(t, r, "cienv_directives_total", metrics.OutcomeSkipped))
	assert.Equal(t, 0.0, counterValue(t, r, "cienv_directives_total", metrics.OutcomeAborted))
	assert.Equal(t, 3.0, counterValue(t, r, "cienv_variables_set_total", ""))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	r.RecordOutcome(metrics.OutcomeAborted)
	r.ObserveResolve("assumed-role", time.Second)

	path := filepath.Join(t.TempDir(), "cienv.prom")
	require.NoError(t, r.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `cienv_directives_total{outcome="aborted"} 1`)
	assert.Contains(t, string(content), `cienv_resolve_duration_seconds_count{kind="assumed-role"} 1`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	t.Parallel()

	var r *metrics.Recorder
	r.RecordOutcome(metrics.OutcomeApplied)
	r.RecordVariableSet()
	r.ObserveResolve("literal", time.Millisecond)
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile("/nonexistent/dir/file.prom"))
}

func TestRecorder_WriteTextfileError(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "cienv.prom"))
	assert.Error(t, err)
}
