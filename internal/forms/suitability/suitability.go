// Package suitability holds the horizon/risk advisory shared by the investment
// and insurance wizards.
package suitability

import (
	"opulanz-onboarding/internal/wizard"
)

const (
	HorizonShort  = "short"
	HorizonMedium = "medium"
	HorizonLong   = "long"

	DefaultRiskTolerance = 3
	MinRiskTolerance     = 1
	MaxRiskTolerance     = 5
)

const (
	shortHorizonHighRisk = "Your high risk tolerance may not align with your short investment horizon. Consider adjusting your approach."
	longHorizonLowRisk   = "A conservative risk approach with a long investment horizon may limit potential returns."
)

// Warning returns the advisory for a horizon and a 1..5 risk tolerance, or "".
func Warning(horizon string, risk int) string {
	switch {
	case horizon == HorizonShort && risk >= 4:
		return shortHorizonHighRisk
	case horizon == HorizonLong && risk <= 2:
		return longHorizonLowRisk
	}
	return ""
}

// Advisory adapts Warning to a wizard step reading the given draft keys.
// A missing risk value falls back to DefaultRiskTolerance.
func Advisory(horizonKey, riskKey string) wizard.Advisory {
	return func(d wizard.Draft) string {
		risk := DefaultRiskTolerance
		if v, ok := d.Float(riskKey); ok {
			risk = int(v)
		}
		return Warning(d.String(horizonKey), risk)
	}
}
