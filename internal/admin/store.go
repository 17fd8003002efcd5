// Package admin is the SPV investment back office: customers, offerings,
// their documents, admin profiles and the activity log.
package admin

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("NOT_FOUND")
	ErrInvalidAccessCode = errors.New("INVALID_ACCESS_CODE")
	ErrDuplicate         = errors.New("DUPLICATE")
)

// Store persists back office entities. Lists come back in creation order,
// except activity which is newest first.
type Store interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	GetCustomerByAccessCode(ctx context.Context, code string) (*Customer, error)
	CreateCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error
	// DeleteCustomer also removes the customer's documents.
	DeleteCustomer(ctx context.Context, id string) error

	ListOfferings(ctx context.Context) ([]Offering, error)
	GetOffering(ctx context.Context, id string) (*Offering, error)
	CreateOffering(ctx context.Context, o *Offering) error
	UpdateOffering(ctx context.Context, o *Offering) error
	DeleteOffering(ctx context.Context, id string) error

	ListDocuments(ctx context.Context, ownerKind, ownerID string) ([]Document, error)
	AddDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, ownerKind, ownerID, docID string) (*Document, error)

	ListAdmins(ctx context.Context) ([]Admin, error)
	GetAdmin(ctx context.Context, id string) (*Admin, error)
	UpsertAdmin(ctx context.Context, a *Admin) error

	// AppendActivity keeps at most MaxActivity entries.
	AppendActivity(ctx context.Context, a Activity) error
	ListActivity(ctx context.Context, limit int) ([]Activity, error)
}
