package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	commonerrors "opulanz-onboarding/internal/common/errors"
	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/submission"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	AccessCodePrefix = "OPULANZ-"
	accessCodeLength = 8
	accessCodeTries  = 10
)

// Service applies back office rules on top of a Store: ids, validation, access
// codes and the activity log.
type Service struct {
	store     Store
	log       logger.Logger
	validate  *validator.Validate
	adminCode string
	now       func() time.Time
	random    func(n int) string
}

func NewService(store Store, adminCode string, log logger.Logger) *Service {
	return &Service{
		store:     store,
		log:       log.WithFields(map[string]interface{}{"component": "admin"}),
		validate:  validator.New(),
		adminCode: adminCode,
		now:       func() time.Time { return time.Now().UTC() },
		random:    submission.RandomString,
	}
}

func shortID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (s *Service) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return commonerrors.NewAdminValidationFailedError(err.Error())
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return commonerrors.NewAdminValidationFailedError(strings.Join(fields, "; ")).
		WithMetadata("fields", fields)
}

// record appends to the activity log. A failure is logged, never returned.
func (s *Service) record(ctx context.Context, kind, description, entityID string) {
	a := Activity{
		ID:          shortID("log"),
		Type:        kind,
		Description: description,
		EntityID:    entityID,
		Timestamp:   s.now(),
	}
	if err := s.store.AppendActivity(ctx, a); err != nil {
		s.log.Warn("failed to append activity", map[string]interface{}{
			"type":  kind,
			"error": err.Error(),
		})
	}
}

// =============================================================================
// Access codes
// =============================================================================

// GenerateAccessCode returns an unused OPULANZ-XXXXXXXX code.
func (s *Service) GenerateAccessCode(ctx context.Context) (string, error) {
	for i := 0; i < accessCodeTries; i++ {
		code := AccessCodePrefix + s.random(accessCodeLength)
		_, err := s.store.GetCustomerByAccessCode(ctx, code)
		if errors.Is(err, ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free access code after %d attempts", accessCodeTries)
}

// RandomAccessCode returns a fresh code without checking it is unused.
func RandomAccessCode() string {
	return AccessCodePrefix + submission.RandomString(accessCodeLength)
}

// ValidateAdminCode compares code with the configured admin code in constant time.
func (s *Service) ValidateAdminCode(code string) bool {
	if s.adminCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) == 1
}

// Login authenticates a customer by access code. Inactive customers are refused.
func (s *Service) Login(ctx context.Context, accessCode string) (*Customer, error) {
	c, err := s.store.GetCustomerByAccessCode(ctx, strings.TrimSpace(accessCode))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidAccessCode
	}
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive {
		return nil, ErrInvalidAccessCode
	}

	t := s.now()
	c.LastAccess = &t
	if err := s.store.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	s.record(ctx, ActivityCustomerLogin, fmt.Sprintf("Customer %q logged in", c.Name), c.ID)
	return c, nil
}

// =============================================================================
// Customers
// =============================================================================

func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.store.ListCustomers(ctx)
}

func (s *Service) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// CreateCustomer assigns the id, creation time, default status and an access
// code when none was given.
func (s *Service) CreateCustomer(ctx context.Context, c Customer) (*Customer, error) {
	c.ID = shortID("cust")
	c.CreatedAt = s.now()
	c.LastAccess = nil
	if c.Status == "" {
		c.Status = StatusActive
	}
	if err := s.check(c); err != nil {
		return nil, err
	}
	if c.AccessCode == "" {
		code, err := s.GenerateAccessCode(ctx)
		if err != nil {
			return nil, err
		}
		c.AccessCode = code
	}

	if err := s.store.CreateCustomer(ctx, &c); err != nil {
		return nil, err
	}
	s.record(ctx, ActivityCustomerCreated, fmt.Sprintf("Customer %q created", c.Name), c.ID)
	s.log.Info("customer created", map[string]interface{}{"customer_id": c.ID})
	return &c, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*Customer, error) {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(c)
	if err := s.check(c); err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.AccessCode) == "" {
		return nil, commonerrors.NewAdminValidationFailedError("AccessCode: required")
	}
	if err := s.store.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}
	s.record(ctx, ActivityCustomerUpdated, fmt.Sprintf("Customer %q updated", c.Name), c.ID)
	return c, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	c, err := s.store.GetCustomer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.record(ctx, ActivityCustomerDeleted, fmt.Sprintf("Customer %q deleted", c.Name), id)
	return nil
}

// =============================================================================
// Offerings
// =============================================================================

func (s *Service) ListOfferings(ctx context.Context) ([]Offering, error) {
	return s.store.ListOfferings(ctx)
}

func (s *Service) GetOffering(ctx context.Context, id string) (*Offering, error) {
	return s.store.GetOffering(ctx, id)
}

func (s *Service) CreateOffering(ctx context.Context, o Offering) (*Offering, error) {
	o.ID = shortID("spv")
	o.CreatedAt = s.now()
	if err := s.check(o); err != nil {
		return nil, err
	}
	if err := s.store.CreateOffering(ctx, &o); err != nil {
		return nil, err
	}
	s.record(ctx, ActivityOfferingCreated, fmt.Sprintf("Property %q created", o.Title), o.ID)
	return &o, nil
}

func (s *Service) UpdateOffering(ctx context.Context, id string, patch OfferingPatch) (*Offering, error) {
	o, err := s.store.GetOffering(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.apply(o)
	if err := s.check(o); err != nil {
		return nil, err
	}
	if err := s.store.UpdateOffering(ctx, o); err != nil {
		return nil, err
	}
	s.record(ctx, ActivityOfferingUpdated, fmt.Sprintf("Property %q updated", o.Title), o.ID)
	return o, nil
}

func (s *Service) DeleteOffering(ctx context.Context, id string) error {
	o, err := s.store.GetOffering(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteOffering(ctx, id); err != nil {
		return err
	}
	s.record(ctx, ActivityOfferingDeleted, fmt.Sprintf("Property %q deleted", o.Title), id)
	return nil
}

// =============================================================================
// Documents
// =============================================================================

func (s *Service) ownerExists(ctx context.Context, ownerKind, ownerID string) error {
	switch ownerKind {
	case OwnerCustomer:
		_, err := s.store.GetCustomer(ctx, ownerID)
		return err
	case OwnerOffering:
		_, err := s.store.GetOffering(ctx, ownerID)
		return err
	}
	return commonerrors.NewAdminValidationFailedError("unknown document owner " + ownerKind)
}

func (s *Service) ListDocuments(ctx context.Context, ownerKind, ownerID string) ([]Document, error) {
	if err := s.ownerExists(ctx, ownerKind, ownerID); err != nil {
		return nil, err
	}
	return s.store.ListDocuments(ctx, ownerKind, ownerID)
}

func (s *Service) AddDocument(ctx context.Context, ownerKind, ownerID string, d Document) (*Document, error) {
	if err := s.ownerExists(ctx, ownerKind, ownerID); err != nil {
		return nil, err
	}
	d.ID = shortID("doc")
	d.OwnerKind = ownerKind
	d.OwnerID = ownerID
	d.UploadedAt = s.now()
	if err := s.check(d); err != nil {
		return nil, err
	}
	if err := s.store.AddDocument(ctx, &d); err != nil {
		return nil, err
	}
	s.record(ctx, ActivityDocumentAdded, fmt.Sprintf("Document %q added to %s %s", d.Name, ownerKind, ownerID), d.ID)
	return &d, nil
}

func (s *Service) RemoveDocument(ctx context.Context, ownerKind, ownerID, docID string) error {
	d, err := s.store.DeleteDocument(ctx, ownerKind, ownerID, docID)
	if err != nil {
		return err
	}
	s.record(ctx, ActivityDocumentRemoved, fmt.Sprintf("Document %q removed from %s %s", d.Name, ownerKind, ownerID), d.ID)
	return nil
}

// =============================================================================
// Admins, activity and stats
// =============================================================================

func (s *Service) ListAdmins(ctx context.Context) ([]Admin, error) {
	return s.store.ListAdmins(ctx)
}

// SaveAdmin creates or updates an admin profile.
func (s *Service) SaveAdmin(ctx context.Context, a Admin) (*Admin, error) {
	if a.ID == "" {
		a.ID = shortID("adm")
		a.CreatedAt = s.now()
	} else if existing, err := s.store.GetAdmin(ctx, a.ID); err == nil {
		a.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	} else {
		a.CreatedAt = s.now()
	}
	if err := s.check(a); err != nil {
		return nil, err
	}
	if err := s.store.UpsertAdmin(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) Activity(ctx context.Context, limit int) ([]Activity, error) {
	return s.store.ListActivity(ctx, limit)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	offerings, err := s.store.ListOfferings(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{TotalCustomers: len(customers), TotalOfferings: len(offerings)}
	for _, c := range customers {
		if c.Status == StatusActive {
			st.ActiveCustomers++
		}
	}
	for _, o := range offerings {
		if o.Status == OfferingOpen || o.Status == OfferingClosing {
			st.OpenOfferings++
		}
	}
	return st, nil
}
