package admin

import (
	"context"
	"time"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// SeedCustomers are the demo investors.
func SeedCustomers() []Customer {
	lastAccess := mustTime("2025-01-28T14:30:00Z")
	return []Customer{
		{
			ID:           "cust-001",
			AccessCode:   "OPULANZ-INV-2025",
			Name:         "John Smith",
			Email:        "john.smith@example.com",
			Phone:        "+352 691 123 456",
			InvestorType: "professional",
			Profile:      "existing",
			Status:       StatusActive,
			CreatedAt:    mustTime("2024-06-15T10:00:00Z"),
			LastAccess:   &lastAccess,
		},
		{
			ID:           "cust-002",
			AccessCode:   "OPULANZ-INV-NEW-2025",
			Name:         "Marie Dupont",
			Email:        "marie.dupont@example.com",
			Phone:        "+33 6 12 34 56 78",
			InvestorType: "private",
			Profile:      "new",
			Status:       StatusActive,
			CreatedAt:    mustTime("2025-01-10T09:00:00Z"),
		},
	}
}

func unsplash(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		size := "w=600&h=400"
		if i == 0 {
			size = "w=1200&h=800"
		}
		out = append(out, "https://images.unsplash.com/photo-"+id+"?"+size+"&fit=crop")
	}
	return out
}

// SeedOfferings are the demo SPV properties.
func SeedOfferings() []Offering {
	created := mustTime("2024-06-01T00:00:00Z")
	return []Offering{
		{
			ID:           "spv-lux-residence-01",
			Title:        "Luxembourg City Premium Residence",
			Location:     "Luxembourg City, Luxembourg",
			PropertyType: "Residential, Luxury Apartments",
			Size:         "2,400 m²",
			YearBuilt:    "2022",
			Status:       OfferingOpen,
			Description:  "Premium residential property in the heart of Luxembourg City with 12 luxury apartment units, strong rental demand and quarterly reporting.",
			Features: []string{
				"Prime city-centre location with excellent transport links",
				"12 fully furnished luxury residential units",
				"Professional property management included",
				"Current occupancy rate above 95%",
				"Energy efficiency rating: Class A",
				"Quarterly investor distributions",
			},
			Images: unsplash("1600596542815-ffad4c1539a9", "1600607687939-ce8a6c25118c", "1600566753086-00f18fb6b3ea"),
			Financials: OfferingFinancials{
				TotalValue:            "€3,200,000",
				SPVShares:             "40 SPV shares",
				MinimumInvestment:     "€50,000",
				TargetReturn:          "7–9% p.a.",
				InvestmentTerm:        "5 years",
				DistributionFrequency: "Quarterly",
			},
			BankTransfer: OfferingBankTransfer{BankName: "Banque de Luxembourg", IBAN: "LU12 3456 7890 1234 5678", BIC: "BLLLLULL", Reference: "SPV-LUX-RES-01"},
			CreatedAt:    created,
		},
		{
			ID:           "spv-riga-commercial-02",
			Title:        "Riga Commercial Centre",
			Location:     "Riga, Latvia",
			PropertyType: "Commercial, Mixed Use",
			Size:         "4,800 m²",
			YearBuilt:    "2019",
			Status:       OfferingClosing,
			Description:  "Mixed-use commercial property in Riga's central business district with retail on the ground floor and four floors of offices under long-term leases.",
			Features: []string{
				"Central business district location",
				"Multi-tenant commercial property",
				"Established long-term lease agreements",
				"Semi-annual investor distributions",
			},
			Images: unsplash("1486406146926-c627a92ad1ab", "1497366216548-37526070297c", "1497366811353-6870744d04b2"),
			Financials: OfferingFinancials{
				TotalValue:            "€5,600,000",
				SPVShares:             "80 SPV shares",
				MinimumInvestment:     "€25,000",
				TargetReturn:          "8–11% p.a.",
				InvestmentTerm:        "7 years",
				DistributionFrequency: "Semi-Annual",
			},
			BankTransfer: OfferingBankTransfer{BankName: "Banque de Luxembourg", IBAN: "LU98 7654 3210 9876 5432", BIC: "BLLLLULL", Reference: "SPV-RIG-COM-02"},
			CreatedAt:    created,
		},
		{
			ID:           "spv-stockholm-dev-03",
			Title:        "Stockholm Waterfront Development",
			Location:     "Stockholm, Sweden",
			PropertyType: "Residential, New Development",
			Size:         "6,200 m²",
			YearBuilt:    "2026 (est.)",
			Status:       OfferingComing,
			Description:  "New-build waterfront development of 24 sustainably designed apartments in Stockholm, with most units reserved before completion.",
			Features: []string{
				"Premium waterfront location in Stockholm",
				"24 residential units with panoramic views",
				"Sustainable construction, BREEAM Excellent",
				"Capital distributions upon unit sales",
			},
			Images: unsplash("1600585154340-be6161a56a0c", "1600047509807-ba8f99d2cdde", "1600566753190-17f0baa2a6c3"),
			Financials: OfferingFinancials{
				TotalValue:            "€8,400,000",
				SPVShares:             "60 SPV shares",
				MinimumInvestment:     "€100,000",
				TargetReturn:          "9–12% p.a.",
				InvestmentTerm:        "4 years",
				DistributionFrequency: "Upon exit",
			},
			BankTransfer: OfferingBankTransfer{BankName: "Banque de Luxembourg", IBAN: "LU55 1122 3344 5566 7788", BIC: "BLLLLULL", Reference: "SPV-STO-DEV-03"},
			CreatedAt:    created,
		},
		{
			ID:           "spv-lux-office-04",
			Title:        "Kirchberg Office Complex",
			Location:     "Kirchberg, Luxembourg",
			PropertyType: "Commercial, Office",
			Size:         "3,600 m²",
			YearBuilt:    "2018",
			Status:       OfferingClosed,
			Description:  "Grade A office complex in the Kirchberg district, fully leased under a triple-net arrangement to institutional tenants.",
			Features: []string{
				"Kirchberg financial and institutional district",
				"Grade A office specification",
				"Triple-net lease structure",
				"Quarterly investor distributions",
			},
			Images: unsplash("1497366216548-37526070297c", "1497366811353-6870744d04b2", "1486406146926-c627a92ad1ab"),
			Financials: OfferingFinancials{
				TotalValue:            "€4,800,000",
				SPVShares:             "48 SPV shares",
				MinimumInvestment:     "€75,000",
				TargetReturn:          "6–8% p.a.",
				InvestmentTerm:        "6 years",
				DistributionFrequency: "Quarterly",
			},
			BankTransfer: OfferingBankTransfer{BankName: "Banque de Luxembourg", IBAN: "LU77 9988 7766 5544 3322", BIC: "BLLLLULL", Reference: "SPV-LUX-OFF-04"},
			CreatedAt:    created,
		},
	}
}

// SeedStore loads the demo data into an empty store.
func SeedStore(ctx context.Context, store Store) error {
	existing, err := store.ListCustomers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, c := range SeedCustomers() {
		c := c
		if err := store.CreateCustomer(ctx, &c); err != nil {
			return err
		}
	}
	for _, o := range SeedOfferings() {
		o := o
		if err := store.CreateOffering(ctx, &o); err != nil {
			return err
		}
	}
	return nil
}
