package suitability

import (
	"testing"

	"opulanz-onboarding/internal/wizard"

	"github.com/stretchr/testify/assert"
)

func TestWarning(t *testing.T) {
	tests := []struct {
		horizon string
		risk    int
		warn    bool
	}{
		{HorizonShort, 5, true},
		{HorizonShort, 4, true},
		{HorizonShort, 3, false},
		{HorizonShort, 1, false},
		{HorizonMedium, 5, false},
		{HorizonMedium, 1, false},
		{HorizonLong, 1, true},
		{HorizonLong, 2, true},
		{HorizonLong, 3, false},
		{HorizonLong, 5, false},
		{"", 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.horizon, func(t *testing.T) {
			got := Warning(tt.horizon, tt.risk)
			if tt.warn {
				assert.NotEmpty(t, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}

	assert.Equal(t, shortHorizonHighRisk, Warning(HorizonShort, 4))
	assert.Equal(t, longHorizonLowRisk, Warning(HorizonLong, 2))
}

func TestAdvisory_DefaultsRisk(t *testing.T) {
	adv := Advisory("investmentHorizon", "riskTolerance")

	assert.Empty(t, adv(wizard.Draft{"investmentHorizon": "short"}))
	assert.NotEmpty(t, adv(wizard.Draft{"investmentHorizon": "short", "riskTolerance": float64(4)}))
	assert.NotEmpty(t, adv(wizard.Draft{"investmentHorizon": "long", "riskTolerance": "1"}))
}
