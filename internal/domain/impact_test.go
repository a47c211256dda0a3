package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyImpact(t *testing.T) {
	tests := []struct {
		name     string
		iz       float64
		expected ImpactLabel
	}{
		{"zero", 0, ImpactNormal},
		{"just below advisory", 0.2999, ImpactNormal},
		{"advisory boundary", 0.3, ImpactAdvisory},
		{"mid advisory", 0.45, ImpactAdvisory},
		{"warning boundary", 0.6, ImpactWarning},
		{"just below critical", 0.7999, ImpactWarning},
		{"critical boundary", 0.8, ImpactCritical},
		{"one", 1, ImpactCritical},
		{"above range", 1.5, ImpactCritical},
		{"negative", -0.2, ImpactNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyImpact(tt.iz))
		})
	}
}

func TestClassifyImpact_Monotonic(t *testing.T) {
	prev := ClassifyImpact(0)
	for i := 1; i <= 10000; i++ {
		iz := float64(i) / 10000
		label := ClassifyImpact(iz)
		assert.GreaterOrEqual(t, label, prev, "label dropped at iz=%v", iz)
		assert.Contains(t, []ImpactLabel{ImpactNormal, ImpactAdvisory, ImpactWarning, ImpactCritical}, label)
		prev = label
	}
}

func TestImpactScore_ClampsInputs(t *testing.T) {
	assert.Equal(t, 1.0, ImpactScore(1.4, 2))
	assert.Equal(t, 0.0, ImpactScore(-0.5, 0.9))
	assert.InDelta(t, 0.782, ImpactScore(0.85, 0.92), 1e-12)
}

func TestImpactLabel_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]ImpactLabel{"label": ImpactWarning})
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"WARNING"}`, string(data))

	var decoded map[string]ImpactLabel
	require.NoError(t, json.Unmarshal([]byte(`{"label":"CRITICAL"}`), &decoded))
	assert.Equal(t, ImpactCritical, decoded["label"])

	assert.Error(t, json.Unmarshal([]byte(`{"label":"SEVERE"}`), &decoded))
	assert.Equal(t, "ImpactLabel(9)", ImpactLabel(9).String())
}
