package booking

import (
	"testing"

	"opulanz-onboarding/internal/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booked() wizard.Draft {
	d, err := SelectService(Definition().InitialDraft().Merge(map[string]interface{}{
		"firstName":        "Ada",
		"lastName":         "Lovelace",
		"email":            "ada@example.com",
		"phone":            "+352 621 000 111",
		"appointmentDate":  "2026-11-03T14:30:00Z",
		"appointmentTime":  "14:30",
		"calendlyEventUrl": "https://calendly.com/events/abc",
		"paymentStatus":    PaymentCompleted,
		"paypalOrderId":    "8XY12345",
	}), ServiceCorporateTax)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCatalog(t *testing.T) {
	prices := map[string]float64{
		ServiceTaxReturn:        299,
		ServiceInternationalTax: 250,
		ServiceCorporateTax:     150,
		ServiceTaxCompliance:    250,
		ServicePersonalAdvisory: 100,
	}
	require.Len(t, Catalog, len(prices))
	for id, price := range prices {
		s, ok := FindService(id)
		require.True(t, ok, id)
		assert.Equal(t, price, s.Price, id)
	}
}

func TestSelectService(t *testing.T) {
	d, err := SelectService(wizard.Draft{}, ServiceTaxReturn)
	require.NoError(t, err)
	assert.Equal(t, ServiceTaxReturn, d.String("serviceId"))
	assert.Equal(t, "Tax Return Preparation", d.String("serviceTitle"))
	price, _ := d.Float("servicePrice")
	assert.Equal(t, 299.0, price)

	_, err = SelectService(wizard.Draft{}, "astrology")
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestSteps(t *testing.T) {
	v := wizard.NewValidator(Definition())

	tests := []struct {
		name  string
		step  string
		patch map[string]interface{}
		valid bool
	}{
		{name: "info complete", step: "info", valid: true},
		{name: "info bad email", step: "info", patch: map[string]interface{}{"email": "ada@example"}},
		{name: "info missing phone", step: "info", patch: map[string]interface{}{"phone": ""}},
		{name: "scheduled", step: "schedule", valid: true},
		{name: "not scheduled", step: "schedule", patch: map[string]interface{}{"appointmentDate": nil}},
		{name: "service selected", step: "service", valid: true},
		{name: "service missing", step: "service", patch: map[string]interface{}{"serviceId": ""}},
		{name: "service unknown", step: "service", patch: map[string]interface{}{"serviceId": "astrology"}},
		{name: "summary", step: "summary", valid: true},
		{name: "paid", step: "payment", patch: map[string]interface{}{"paymentStatus": PaymentPaid}, valid: true},
		{name: "completed", step: "payment", valid: true},
		{name: "pending", step: "payment", patch: map[string]interface{}{"paymentStatus": PaymentPending}},
		{name: "no order id", step: "payment", patch: map[string]interface{}{"paypalOrderId": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(booked().Merge(tt.patch), tt.step)
			assert.Equal(t, tt.valid, res.Valid, "%v", res.Errors)
		})
	}

	assert.True(t, v.ValidateAll(booked()).Valid)
}

func TestDefinition_Submission(t *testing.T) {
	def := Definition()
	require.NoError(t, def.Check())
	assert.True(t, def.Scheduling)
	assert.True(t, def.Submission.AcceptServerReference)
	assert.True(t, def.Submission.Format.Base36)
	assert.Equal(t, "TAX", def.Submission.Format.Prefix)
	assert.Equal(t, "tax_advisory", def.Submission.Type)
	assert.Equal(t, "confirmed", def.Submission.Status)
	assert.Empty(t, def.InitialDraft().String("serviceId"))
}

func TestPriceComesFromCatalog(t *testing.T) {
	def := Definition()
	s := def.NewSession("u1")

	_, err := def.ApplyStepUpdate(s, "service", map[string]interface{}{
		"serviceId":    ServiceTaxReturn,
		"servicePrice": 1,
	})
	assert.ErrorIs(t, err, wizard.ErrFieldNotOwned)

	s, err = def.ApplyStepUpdate(s, "service", map[string]interface{}{"serviceId": ServiceTaxReturn})
	require.NoError(t, err)

	// a draft saved before the price was server-side still gets catalog values
	forged := s.Draft.Merge(map[string]interface{}{"servicePrice": 1, "serviceTitle": ""})
	enriched := def.Submission.Enrich(forged)
	assert.Equal(t, 299.0, enriched["servicePrice"])
	assert.Equal(t, "Tax Return Preparation", enriched["serviceTitle"])
	assert.Equal(t, "EUR", enriched["serviceCurrency"])

	assert.Nil(t, def.Submission.Enrich(wizard.Draft{"serviceId": "astrology"}))
	assert.Equal(t, "Tax Return Preparation on 2026-11-03", def.Submission.Summary(wizard.Draft{
		"serviceId":       ServiceTaxReturn,
		"appointmentDate": "2026-11-03",
	}))
}

func TestInternationalTax_Preselected(t *testing.T) {
	def := InternationalTax()
	require.NoError(t, def.Check())
	assert.Equal(t, InternationalTaxWizardID, def.ID)
	assert.Equal(t, InternationalTaxStorageKey, def.Namespace("u1"))

	d := def.InitialDraft()
	assert.Equal(t, ServiceInternationalTax, d.String("serviceId"))
	assert.Equal(t, "International Tax", d.String("serviceTitle"))

	ignored := Definition(WithService("nope")).InitialDraft()
	assert.Empty(t, ignored.String("serviceId"))
}
