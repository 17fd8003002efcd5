package admin

import (
	"time"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	OfferingOpen    = "open"
	OfferingClosing = "closing"
	OfferingClosed  = "closed"
	OfferingComing  = "coming"

	OwnerCustomer = "customer"
	OwnerOffering = "offering"
)

// Activity types.
const (
	ActivityCustomerCreated = "customer_created"
	ActivityCustomerUpdated = "customer_updated"
	ActivityCustomerDeleted = "customer_deleted"
	ActivityCustomerLogin   = "customer_login"
	ActivityOfferingCreated = "offering_created"
	ActivityOfferingUpdated = "offering_updated"
	ActivityOfferingDeleted = "offering_deleted"
	ActivityDocumentAdded   = "document_added"
	ActivityDocumentRemoved = "document_removed"
)

// MaxActivity is how many activity entries are kept, newest first.
const MaxActivity = 50

// Customer is an SPV investor with portal access.
type Customer struct {
	ID           string     `json:"id" db:"id"`
	AccessCode   string     `json:"accessCode" db:"access_code"`
	Name         string     `json:"name" db:"name" validate:"required"`
	Email        string     `json:"email" db:"email" validate:"required,email"`
	Phone        string     `json:"phone,omitempty" db:"phone"`
	Company      string     `json:"company,omitempty" db:"company"`
	InvestorType string     `json:"investorType" db:"investor_type" validate:"required,oneof=institutional professional private"`
	Profile      string     `json:"profile" db:"profile" validate:"required,oneof=existing new"`
	Status       string     `json:"status" db:"status" validate:"required,oneof=active inactive"`
	Notes        string     `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastAccess   *time.Time `json:"lastAccess,omitempty" db:"last_access"`
}

// CustomerPatch is a partial update; nil fields are left alone.
type CustomerPatch struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Company      *string `json:"company,omitempty"`
	AccessCode   *string `json:"accessCode,omitempty"`
	InvestorType *string `json:"investorType,omitempty"`
	Profile      *string `json:"profile,omitempty"`
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

func (p CustomerPatch) apply(c *Customer) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.Name, p.Name)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.Company, p.Company)
	set(&c.AccessCode, p.AccessCode)
	set(&c.InvestorType, p.InvestorType)
	set(&c.Profile, p.Profile)
	set(&c.Status, p.Status)
	set(&c.Notes, p.Notes)
}

type OfferingFinancials struct {
	TotalValue            string `json:"totalValue"`
	SPVShares             string `json:"spvShares"`
	MinimumInvestment     string `json:"minimumInvestment"`
	TargetReturn          string `json:"targetReturn"`
	InvestmentTerm        string `json:"investmentTerm"`
	DistributionFrequency string `json:"distributionFrequency"`
}

type OfferingBankTransfer struct {
	BankName  string `json:"bankName"`
	IBAN      string `json:"iban"`
	BIC       string `json:"bic"`
	Reference string `json:"reference"`
}

// Offering is a property held by an SPV and offered to investors.
type Offering struct {
	ID           string               `json:"id"`
	Title        string               `json:"title" validate:"required"`
	Location     string               `json:"location" validate:"required"`
	PropertyType string               `json:"propertyType"`
	Size         string               `json:"size"`
	YearBuilt    string               `json:"yearBuilt"`
	Status       string               `json:"status" validate:"required,oneof=open closing closed coming"`
	Description  string               `json:"description"`
	Features     []string             `json:"features"`
	Images       []string             `json:"images" validate:"dive,url"`
	Financials   OfferingFinancials   `json:"financials"`
	BankTransfer OfferingBankTransfer `json:"bankTransfer"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// OfferingPatch is a partial update; nil fields are left alone.
type OfferingPatch struct {
	Title        *string               `json:"title,omitempty"`
	Location     *string               `json:"location,omitempty"`
	PropertyType *string               `json:"propertyType,omitempty"`
	Size         *string               `json:"size,omitempty"`
	YearBuilt    *string               `json:"yearBuilt,omitempty"`
	Status       *string               `json:"status,omitempty"`
	Description  *string               `json:"description,omitempty"`
	Features     []string              `json:"features,omitempty"`
	Images       []string              `json:"images,omitempty"`
	Financials   *OfferingFinancials   `json:"financials,omitempty"`
	BankTransfer *OfferingBankTransfer `json:"bankTransfer,omitempty"`
}

func (p OfferingPatch) apply(o *Offering) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&o.Title, p.Title)
	set(&o.Location, p.Location)
	set(&o.PropertyType, p.PropertyType)
	set(&o.Size, p.Size)
	set(&o.YearBuilt, p.YearBuilt)
	set(&o.Status, p.Status)
	set(&o.Description, p.Description)
	if p.Features != nil {
		o.Features = p.Features
	}
	if p.Images != nil {
		o.Images = p.Images
	}
	if p.Financials != nil {
		o.Financials = *p.Financials
	}
	if p.BankTransfer != nil {
		o.BankTransfer = *p.BankTransfer
	}
}

// Document is a file attached to a customer or an offering.
type Document struct {
	ID         string    `json:"id" db:"id"`
	OwnerKind  string    `json:"ownerKind" db:"owner_kind" validate:"required,oneof=customer offering"`
	OwnerID    string    `json:"ownerId" db:"owner_id" validate:"required"`
	Name       string    `json:"name" db:"name" validate:"required"`
	Type       string    `json:"type" db:"type" validate:"required"`
	URL        string    `json:"url" db:"url" validate:"required,url"`
	UploadedAt time.Time `json:"uploadedAt" db:"uploaded_at"`
}

// Admin is a back-office user profile.
type Admin struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required"`
	Email     string    `json:"email" db:"email" validate:"required,email"`
	Role      string    `json:"role" db:"role" validate:"required,oneof=owner admin viewer"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Activity is one back-office audit entry.
type Activity struct {
	ID          string    `json:"id" db:"id"`
	Type        string    `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
	EntityID    string    `json:"entityId,omitempty" db:"entity_id"`
	Timestamp   time.Time `json:"timestamp" db:"created_at"`
}

// Stats summarizes the back office dashboard.
type Stats struct {
	TotalCustomers  int `json:"totalCustomers"`
	ActiveCustomers int `json:"activeCustomers"`
	TotalOfferings  int `json:"totalOfferings"`
	OpenOfferings   int `json:"openOfferings"`
}
