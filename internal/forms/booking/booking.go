// Package booking defines the paid tax advisory consultation booking.
package booking

import (
	"errors"
	"fmt"

	"opulanz-onboarding/internal/common/validation"
	"opulanz-onboarding/internal/submission"
	"opulanz-onboarding/internal/wizard"
)

const (
	WizardID   = "booking"
	StorageKey = "tax-advisory-booking"

	InternationalTaxWizardID   = "international-tax"
	InternationalTaxStorageKey = "international-tax-booking"

	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentPaid      = "PAID"
)

const (
	ServiceTaxReturn        = "tax-return-preparation"
	ServiceInternationalTax = "international-tax"
	ServiceCorporateTax     = "corporate-tax"
	ServiceTaxCompliance    = "tax-compliance"
	ServicePersonalAdvisory = "personal-tax-advisory"
)

var ErrUnknownService = errors.New("UNKNOWN_SERVICE")

// Service is one bookable consultation.
type Service struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
}

// Catalog lists the services in display order.
var Catalog = []Service{
	{ID: ServiceTaxReturn, Title: "Tax Return Preparation", Description: "Preparation and filing of your Luxembourg tax return", Price: 299, Currency: "EUR"},
	{ID: ServiceInternationalTax, Title: "International Tax", Description: "Cross-border situations, double taxation and residency questions", Price: 250, Currency: "EUR"},
	{ID: ServiceCorporateTax, Title: "Corporate Tax", Description: "Corporate income tax, VAT and company structuring", Price: 150, Currency: "EUR"},
	{ID: ServiceTaxCompliance, Title: "Tax Compliance", Description: "Review of your filing obligations and deadlines", Price: 250, Currency: "EUR"},
	{ID: ServicePersonalAdvisory, Title: "Personal Tax Advisory", Description: "One-to-one advice on your personal tax situation", Price: 100, Currency: "EUR"},
}

// FindService looks a service up by id.
func FindService(id string) (Service, bool) {
	for _, s := range Catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// ServicePatch is the draft update selecting a service.
func ServicePatch(id string) (map[string]interface{}, error) {
	s, ok := FindService(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, id)
	}
	return map[string]interface{}{
		"serviceId":    s.ID,
		"serviceTitle": s.Title,
		"servicePrice": s.Price,
	}, nil
}

// SelectService returns d with the service fields filled.
func SelectService(d wizard.Draft, id string) (wizard.Draft, error) {
	patch, err := ServicePatch(id)
	if err != nil {
		return d, err
	}
	return d.Merge(patch), nil
}

type options struct {
	id         string
	title      string
	storageKey string
	service    string
}

// Option customizes the definition.
type Option func(*options)

// WithService preselects a service in the initial draft. Unknown ids are ignored.
func WithService(id string) Option {
	return func(o *options) { o.service = id }
}

// WithID registers the flow under another wizard id and storage key.
func WithID(id, title, storageKey string) Option {
	return func(o *options) {
		o.id = id
		o.title = title
		o.storageKey = storageKey
	}
}

func serviceSelected(d wizard.Draft) []validation.ValidationError {
	id := d.String("serviceId")
	if id == "" {
		return []validation.ValidationError{wizard.FieldError("serviceId", validation.CodeRequired, "select a service")}
	}
	if _, ok := FindService(id); !ok {
		return []validation.ValidationError{wizard.FieldError("serviceId", validation.CodeEnum, "unknown service")}
	}
	return nil
}

// priced stamps the catalog title and price of the selected service. Drafts
// only carry the service id the applicant picked.
func priced(d wizard.Draft) map[string]interface{} {
	s, ok := FindService(d.String("serviceId"))
	if !ok {
		return nil
	}
	return map[string]interface{}{
		"serviceTitle":    s.Title,
		"servicePrice":    s.Price,
		"serviceCurrency": s.Currency,
	}
}

func scheduled(d wizard.Draft) []validation.ValidationError {
	return wizard.Required(d, "appointmentDate", "calendlyEventUrl")
}

func paid(d wizard.Draft) []validation.ValidationError {
	errs := wizard.Required(d, "paypalOrderId")
	switch d.String("paymentStatus") {
	case PaymentCompleted, PaymentPaid:
	default:
		errs = append(errs, wizard.FieldError("paymentStatus", validation.CodeRuleViolation, "payment not completed"))
	}
	return errs
}

// Definition builds the wizard.
func Definition(opts ...Option) *wizard.Definition {
	o := options{id: WizardID, title: "Tax advisory consultation", storageKey: StorageKey}
	for _, opt := range opts {
		opt(&o)
	}

	return &wizard.Definition{
		ID:          o.id,
		Title:       o.title,
		Description: "Book and pay for a consultation with a tax advisor",
		StorageKey:  o.storageKey,
		Steps: []wizard.StepDefinition{
			{
				ID:     "info",
				Order:  1,
				Label:  "Your Information",
				Fields: []string{"firstName", "lastName", "email", "phone"},
				Schema: validation.JSONSchema{
					Type: "object",
					Properties: map[string]validation.Property{
						"email": {Type: "string", Pattern: validation.Ptr(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)},
					},
					Required: []string{"firstName", "lastName", "email", "phone"},
				},
			},
			{
				ID:     "schedule",
				Order:  2,
				Label:  "Choose a Time",
				Fields: []string{"appointmentDate", "appointmentTime", "calendlyEventUrl", "calendlyInviteeUrl"},
				Rules:  []wizard.Rule{scheduled},
			},
			{
				ID:     "service",
				Order:  3,
				Label:  "Select a Service",
				Fields: []string{"serviceId"},
				Rules:  []wizard.Rule{serviceSelected},
			},
			{ID: "summary", Order: 4, Label: "Summary", Fields: []string{"notes"}},
			{
				ID:     "payment",
				Order:  5,
				Label:  "Payment",
				Fields: []string{"paymentStatus", "paypalOrderId"},
				Rules:  []wizard.Rule{paid},
			},
		},
		InitialDraft: func() wizard.Draft {
			d := wizard.Draft{"paymentStatus": PaymentPending}
			if o.service != "" {
				if selected, err := SelectService(d, o.service); err == nil {
					d = selected
				}
			}
			return d
		},
		Submission: wizard.SubmissionSpec{
			Type:                  submission.TypeTaxAdvisory,
			Status:                submission.StatusConfirmed,
			Endpoint:              "/api/tax-advisory-bookings",
			Format:                submission.Format{Prefix: "TAX", Base36: true},
			AcceptServerReference: true,
			Enrich:                priced,
			Summary: func(d wizard.Draft) string {
				s, _ := FindService(d.String("serviceId"))
				return s.Title + " on " + d.String("appointmentDate")
			},
		},
		Scheduling: true,
	}
}

// InternationalTax is the standalone international tax page flow, the booking
// wizard with the international tax service preselected.
func InternationalTax() *wizard.Definition {
	return Definition(
		WithID(InternationalTaxWizardID, "International tax consultation", InternationalTaxStorageKey),
		WithService(ServiceInternationalTax),
	)
}
