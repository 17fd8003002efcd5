package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const customerColumns = `id, access_code, name, email, COALESCE(phone, '') AS phone, COALESCE(company, '') AS company,
	investor_type, profile, status, COALESCE(notes, '') AS notes, created_at, last_access`

// PostgresStore keeps the back office in the spv_* tables.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func expectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return nil
}

// =============================================================================
// Customers
// =============================================================================

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	query := `SELECT ` + customerColumns + ` FROM spv_customers ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) getCustomer(ctx context.Context, where string, arg interface{}) (*Customer, error) {
	var c Customer
	query := `SELECT ` + customerColumns + ` FROM spv_customers WHERE ` + where + ` = $1`
	err := s.db.GetContext(ctx, &c, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: customer", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return s.getCustomer(ctx, "id", id)
}

func (s *PostgresStore) GetCustomerByAccessCode(ctx context.Context, code string) (*Customer, error) {
	return s.getCustomer(ctx, "access_code", code)
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO spv_customers
		(id, access_code, name, email, phone, company, investor_type, profile, status, notes, created_at, last_access)
		VALUES (:id, :access_code, :name, :email, :phone, :company, :investor_type, :profile, :status, :notes, :created_at, :last_access)`

	if _, err := s.db.NamedExecContext(ctx, query, c); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: customer %s", ErrDuplicate, c.ID)
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCustomer(ctx context.Context, c *Customer) error {
	query := `
		UPDATE spv_customers SET
			access_code = :access_code, name = :name, email = :email, phone = :phone, company = :company,
			investor_type = :investor_type, profile = :profile, status = :status, notes = :notes,
			last_access = :last_access
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, query, c)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: access code in use", ErrDuplicate)
		}
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return expectOne(res, "customer", c.ID)
}

func (s *PostgresStore) deleteOwned(ctx context.Context, table, ownerKind, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", ownerKind, err)
	}
	if err := expectOne(res, ownerKind, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM spv_documents WHERE owner_kind = $1 AND owner_id = $2`, ownerKind, id); err != nil {
		return fmt.Errorf("failed to delete %s documents: %w", ownerKind, err)
	}
	return tx.Commit()
}

func (s *PostgresStore) DeleteCustomer(ctx context.Context, id string) error {
	return s.deleteOwned(ctx, "spv_customers", OwnerCustomer, id)
}

// =============================================================================
// Offerings
// =============================================================================

type offeringRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Location     string    `db:"location"`
	PropertyType string    `db:"property_type"`
	Size         string    `db:"size"`
	YearBuilt    string    `db:"year_built"`
	Status       string    `db:"status"`
	Description  string    `db:"description"`
	Features     []byte    `db:"features"`
	Images       []byte    `db:"images"`
	Financials   []byte    `db:"financials"`
	BankTransfer []byte    `db:"bank_transfer"`
	CreatedAt    time.Time `db:"created_at"`
}

const offeringColumns = `id, title, location, COALESCE(property_type, '') AS property_type, COALESCE(size, '') AS size,
	COALESCE(year_built, '') AS year_built, status, COALESCE(description, '') AS description,
	features, images, financials, bank_transfer, created_at`

func toOfferingRow(o *Offering) (*offeringRow, error) {
	row := &offeringRow{
		ID: o.ID, Title: o.Title, Location: o.Location, PropertyType: o.PropertyType, Size: o.Size,
		YearBuilt: o.YearBuilt, Status: o.Status, Description: o.Description, CreatedAt: o.CreatedAt,
	}
	var err error
	if row.Features, err = json.Marshal(nonNil(o.Features)); err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}
	if row.Images, err = json.Marshal(nonNil(o.Images)); err != nil {
		return nil, fmt.Errorf("failed to marshal images: %w", err)
	}
	if row.Financials, err = json.Marshal(o.Financials); err != nil {
		return nil, fmt.Errorf("failed to marshal financials: %w", err)
	}
	if row.BankTransfer, err = json.Marshal(o.BankTransfer); err != nil {
		return nil, fmt.Errorf("failed to marshal bank transfer: %w", err)
	}
	return row, nil
}

func (r *offeringRow) offering() (Offering, error) {
	o := Offering{
		ID: r.ID, Title: r.Title, Location: r.Location, PropertyType: r.PropertyType, Size: r.Size,
		YearBuilt: r.YearBuilt, Status: r.Status, Description: r.Description, CreatedAt: r.CreatedAt,
	}
	for _, col := range []struct {
		raw  []byte
		dest interface{}
	}{
		{r.Features, &o.Features},
		{r.Images, &o.Images},
		{r.Financials, &o.Financials},
		{r.BankTransfer, &o.BankTransfer},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return o, fmt.Errorf("failed to decode offering %s: %w", r.ID, err)
		}
	}
	return o, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *PostgresStore) ListOfferings(ctx context.Context) ([]Offering, error) {
	var rows []offeringRow
	query := `SELECT ` + offeringColumns + ` FROM spv_offerings ORDER BY created_at, id`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list offerings: %w", err)
	}

	out := make([]Offering, 0, len(rows))
	for i := range rows {
		o, err := rows[i].offering()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *PostgresStore) GetOffering(ctx context.Context, id string) (*Offering, error) {
	var row offeringRow
	query := `SELECT ` + offeringColumns + ` FROM spv_offerings WHERE id = $1`
	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: offering %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}
	o, err := row.offering()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PostgresStore) CreateOffering(ctx context.Context, o *Offering) error {
	row, err := toOfferingRow(o)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO spv_offerings
		(id, title, location, property_type, size, year_built, status, description, features, images, financials, bank_transfer, created_at)
		VALUES (:id, :title, :location, :property_type, :size, :year_built, :status, :description, :features, :images, :financials, :bank_transfer, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: offering %s", ErrDuplicate, o.ID)
		}
		return fmt.Errorf("failed to create offering: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateOffering(ctx context.Context, o *Offering) error {
	row, err := toOfferingRow(o)
	if err != nil {
		return err
	}
	query := `
		UPDATE spv_offerings SET
			title = :title, location = :location, property_type = :property_type, size = :size,
			year_built = :year_built, status = :status, description = :description, features = :features,
			images = :images, financials = :financials, bank_transfer = :bank_transfer
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update offering: %w", err)
	}
	return expectOne(res, "offering", o.ID)
}

func (s *PostgresStore) DeleteOffering(ctx context.Context, id string) error {
	return s.deleteOwned(ctx, "spv_offerings", OwnerOffering, id)
}

// =============================================================================
// Documents
// =============================================================================

func (s *PostgresStore) ListDocuments(ctx context.Context, ownerKind, ownerID string) ([]Document, error) {
	var out []Document
	query := `
		SELECT id, owner_kind, owner_id, name, type, url, uploaded_at
		FROM spv_documents
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY uploaded_at, id`
	if err := s.db.SelectContext(ctx, &out, query, ownerKind, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddDocument(ctx context.Context, d *Document) error {
	query := `
		INSERT INTO spv_documents (id, owner_kind, owner_id, name, type, url, uploaded_at)
		VALUES (:id, :owner_kind, :owner_id, :name, :type, :url, :uploaded_at)`
	if _, err := s.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, ownerKind, ownerID, docID string) (*Document, error) {
	var d Document
	query := `
		DELETE FROM spv_documents
		WHERE id = $1 AND owner_kind = $2 AND owner_id = $3
		RETURNING id, owner_kind, owner_id, name, type, url, uploaded_at`
	err := s.db.GetContext(ctx, &d, query, docID, ownerKind, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, docID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}
	return &d, nil
}

// =============================================================================
// Admins and activity
// =============================================================================

func (s *PostgresStore) ListAdmins(ctx context.Context) ([]Admin, error) {
	var out []Admin
	if err := s.db.SelectContext(ctx, &out, `SELECT id, name, email, role, created_at FROM spv_admins ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetAdmin(ctx context.Context, id string) (*Admin, error) {
	var a Admin
	err := s.db.GetContext(ctx, &a, `SELECT id, name, email, role, created_at FROM spv_admins WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: admin %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) UpsertAdmin(ctx context.Context, a *Admin) error {
	query := `
		INSERT INTO spv_admins (id, name, email, role, created_at)
		VALUES (:id, :name, :email, :role, :created_at)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role`
	if _, err := s.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("failed to upsert admin: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendActivity(ctx context.Context, a Activity) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO spv_activity (id, type, description, entity_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Type, a.Description, a.EntityID, a.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM spv_activity WHERE id NOT IN (SELECT id FROM spv_activity ORDER BY created_at DESC, id DESC LIMIT $1)`,
		MaxActivity,
	); err != nil {
		return fmt.Errorf("failed to trim activity: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) ListActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 || limit > MaxActivity {
		limit = MaxActivity
	}
	var out []Activity
	query := `
		SELECT id, type, description, COALESCE(entity_id, '') AS entity_id, created_at
		FROM spv_activity
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
	if err := s.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return out, nil
}
