// Package forms registers every onboarding wizard the service offers.
package forms

import (
	"opulanz-onboarding/internal/forms/accounting"
	"opulanz-onboarding/internal/forms/booking"
	"opulanz-onboarding/internal/forms/business"
	"opulanz-onboarding/internal/forms/formation"
	"opulanz-onboarding/internal/forms/insurance"
	"opulanz-onboarding/internal/forms/investment"
	"opulanz-onboarding/internal/forms/kyc"
	"opulanz-onboarding/internal/forms/personal"
	"opulanz-onboarding/internal/wizard"
)

// All returns fresh definitions in catalog order.
func All() []*wizard.Definition {
	return []*wizard.Definition{
		personal.Definition(),
		business.Definition(),
		insurance.Definition(),
		formation.Definition(),
		investment.Definition(),
		booking.Definition(),
		booking.InternationalTax(),
		kyc.Definition(),
		accounting.Definition(),
	}
}
