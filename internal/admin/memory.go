package admin

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps everything in process. It is the default back office store.
type MemoryStore struct {
	mu        sync.RWMutex
	customers []Customer
	offerings []Offering
	documents []Document
	admins    []Admin
	activity  []Activity
}

// NewMemoryStore returns an empty store, or one holding the demo data when seed is set.
func NewMemoryStore(seed bool) *MemoryStore {
	s := &MemoryStore{}
	if seed {
		s.customers = SeedCustomers()
		s.offerings = SeedOfferings()
	}
	return s
}

func (s *MemoryStore) ListCustomers(ctx context.Context) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Customer, len(s.customers))
	copy(out, s.customers)
	return out, nil
}

func (s *MemoryStore) customerIndex(id string) int {
	for i := range s.customers {
		if s.customers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.customerIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
	}
	c := s.customers[i]
	return &c, nil
}

func (s *MemoryStore) GetCustomerByAccessCode(ctx context.Context, code string) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.AccessCode == code {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: access code", ErrNotFound)
}

func (s *MemoryStore) CreateCustomer(ctx context.Context, c *Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.customers {
		if existing.ID == c.ID || existing.AccessCode == c.AccessCode {
			return fmt.Errorf("%w: customer %s", ErrDuplicate, c.ID)
		}
	}
	s.customers = append(s.customers, *c)
	return nil
}

func (s *MemoryStore) UpdateCustomer(ctx context.Context, c *Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.customerIndex(c.ID)
	if i < 0 {
		return fmt.Errorf("%w: customer %s", ErrNotFound, c.ID)
	}
	for j, existing := range s.customers {
		if j != i && existing.AccessCode == c.AccessCode {
			return fmt.Errorf("%w: access code in use", ErrDuplicate)
		}
	}
	s.customers[i] = *c
	return nil
}

func (s *MemoryStore) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.customerIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: customer %s", ErrNotFound, id)
	}
	s.customers = append(s.customers[:i], s.customers[i+1:]...)
	s.dropDocuments(OwnerCustomer, id)
	return nil
}

func (s *MemoryStore) ListOfferings(ctx context.Context) ([]Offering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Offering, 0, len(s.offerings))
	for _, o := range s.offerings {
		out = append(out, cloneOffering(o))
	}
	return out, nil
}

func (s *MemoryStore) offeringIndex(id string) int {
	for i := range s.offerings {
		if s.offerings[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) GetOffering(ctx context.Context, id string) (*Offering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.offeringIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: offering %s", ErrNotFound, id)
	}
	o := cloneOffering(s.offerings[i])
	return &o, nil
}

func (s *MemoryStore) CreateOffering(ctx context.Context, o *Offering) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offeringIndex(o.ID) >= 0 {
		return fmt.Errorf("%w: offering %s", ErrDuplicate, o.ID)
	}
	s.offerings = append(s.offerings, cloneOffering(*o))
	return nil
}

func (s *MemoryStore) UpdateOffering(ctx context.Context, o *Offering) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.offeringIndex(o.ID)
	if i < 0 {
		return fmt.Errorf("%w: offering %s", ErrNotFound, o.ID)
	}
	s.offerings[i] = cloneOffering(*o)
	return nil
}

func (s *MemoryStore) DeleteOffering(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.offeringIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: offering %s", ErrNotFound, id)
	}
	s.offerings = append(s.offerings[:i], s.offerings[i+1:]...)
	s.dropDocuments(OwnerOffering, id)
	return nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, ownerKind, ownerID string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Document
	for _, d := range s.documents {
		if d.OwnerKind == ownerKind && d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddDocument(ctx context.Context, d *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, *d)
	return nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, ownerKind, ownerID, docID string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.documents {
		if d.ID == docID && d.OwnerKind == ownerKind && d.OwnerID == ownerID {
			s.documents = append(s.documents[:i], s.documents[i+1:]...)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: document %s", ErrNotFound, docID)
}

// dropDocuments must be called with the lock held.
func (s *MemoryStore) dropDocuments(ownerKind, ownerID string) {
	kept := s.documents[:0]
	for _, d := range s.documents {
		if d.OwnerKind != ownerKind || d.OwnerID != ownerID {
			kept = append(kept, d)
		}
	}
	s.documents = kept
}

func (s *MemoryStore) ListAdmins(ctx context.Context) ([]Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Admin, len(s.admins))
	copy(out, s.admins)
	return out, nil
}

func (s *MemoryStore) GetAdmin(ctx context.Context, id string) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: admin %s", ErrNotFound, id)
}

func (s *MemoryStore) UpsertAdmin(ctx context.Context, a *Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.admins {
		if s.admins[i].ID == a.ID {
			s.admins[i] = *a
			return nil
		}
	}
	s.admins = append(s.admins, *a)
	return nil
}

func (s *MemoryStore) AppendActivity(ctx context.Context, a Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append([]Activity{a}, s.activity...)
	if len(s.activity) > MaxActivity {
		s.activity = s.activity[:MaxActivity]
	}
	return nil
}

func (s *MemoryStore) ListActivity(ctx context.Context, limit int) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.activity) {
		limit = len(s.activity)
	}
	out := make([]Activity, limit)
	copy(out, s.activity[:limit])
	return out, nil
}

func cloneOffering(o Offering) Offering {
	o.Features = append([]string(nil), o.Features...)
	o.Images = append([]string(nil), o.Images...)
	return o
}
