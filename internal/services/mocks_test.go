package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/healthbridge/medgrant/internal/apperrors"
	"github.com/healthbridge/medgrant/internal/models"
	"github.com/healthbridge/medgrant/internal/repository"
)

// --- fakeGrantStore ---
// Compile-time check to ensure fakeGrantStore implements GrantStore
var _ GrantStore = (*fakeGrantStore)(nil)

// fakeGrantStore is an in-memory GrantStore with the same semantics the
// Postgres repository provides: transactional supersede, active-code
// uniqueness and conditional binding.
type fakeGrantStore struct {
	mu     sync.Mutex
	grants map[uuid.UUID]*models.AccessGrant

	// CreateSupersedingFunc overrides CreateSuperseding when set.
	CreateSupersedingFunc func(ctx context.Context, grant *models.AccessGrant) error
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{grants: make(map[uuid.UUID]*models.AccessGrant)}
}

func (f *fakeGrantStore) CreateSuperseding(ctx context.Context, grant *models.AccessGrant) error {
	if f.CreateSupersedingFunc != nil {
		return f.CreateSupersedingFunc(ctx, grant)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, g := range f.grants {
		if g.Active && g.Code == grant.Code {
			return repository.ErrDuplicateCode
		}
	}
	for _, g := range f.grants {
		if g.OwnerID == grant.OwnerID && g.Active {
			g.Active = false
		}
	}

	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	stored := *grant
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	f.grants[grant.ID] = &stored
	return nil
}

func (f *fakeGrantStore) FindRedeemableByCode(ctx context.Context, code string, now time.Time) (*models.AccessGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, g := range f.grants {
		if g.Code == code && g.Redeemable(now) {
			cp := *g
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeGrantStore) HasActiveCode(ctx context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, g := range f.grants {
		if g.Active && g.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGrantStore) Bind(ctx context.Context, grantID, doctorID uuid.UUID, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	g, ok := f.grants[grantID]
	if !ok || g.ConsumedByID != nil {
		return false, nil
	}
	d := doctorID
	t := now
	g.ConsumedByID = &d
	g.ConsumedAt = &t
	return true, nil
}

func (f *fakeGrantStore) GetByID(ctx context.Context, id uuid.UUID) (*models.AccessGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	g, ok := f.grants[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

// activeGrantsOf lists the owner's currently active grants, newest first.
func (f *fakeGrantStore) activeGrantsOf(ownerID uuid.UUID) []*models.AccessGrant {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.AccessGrant
	for _, g := range f.grants {
		if g.OwnerID == ownerID && g.Active {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// --- fakeRecordStore ---
var _ RecordStore = (*fakeRecordStore)(nil)

type fakeRecordStore struct {
	mu          sync.Mutex
	visits      map[uuid.UUID]*models.VisitRecord
	conditions  []models.ChronicCondition
	medications []models.Medication
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{visits: make(map[uuid.UUID]*models.VisitRecord)}
}

func (f *fakeRecordStore) CreateVisit(ctx context.Context, visit *models.VisitRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	stored := *visit
	f.visits[visit.ID] = &stored
	return nil
}

func (f *fakeRecordStore) ListVisitsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.VisitRecord, error) {
	return f.ListVisitsByOwnerExcluding(ctx, ownerID, nil)
}

func (f *fakeRecordStore) ListVisitsByOwnerExcluding(ctx context.Context, ownerID uuid.UUID, excluded []uuid.UUID) ([]models.VisitRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	skip := make(map[uuid.UUID]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	var out []models.VisitRecord
	for _, v := range f.visits {
		if v.OwnerID == ownerID && !skip[v.ID] {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) CountVisitsByOwnerIn(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, id := range ids {
		if v, ok := f.visits[id]; ok && v.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRecordStore) CreateCondition(ctx context.Context, condition *models.ChronicCondition) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if condition.ID == uuid.Nil {
		condition.ID = uuid.New()
	}
	f.conditions = append(f.conditions, *condition)
	return nil
}

func (f *fakeRecordStore) ListConditionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChronicCondition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ChronicCondition
	for _, c := range f.conditions {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) CreateMedication(ctx context.Context, medication *models.Medication) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if medication.ID == uuid.Nil {
		medication.ID = uuid.New()
	}
	f.medications = append(f.medications, *medication)
	return nil
}

func (f *fakeRecordStore) ListMedicationsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Medication
	for _, m := range f.medications {
		if m.OwnerID == ownerID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- fakeAccountStore ---
var (
	_ repository.AccountStore = (*fakeAccountStore)(nil)
	_ AccountWriter           = (*fakeAccountStore)(nil)
)

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[uuid.UUID]*models.Account)}
}

func (f *fakeAccountStore) add(account *models.Account) *models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	stored := *account
	f.accounts[account.ID] = &stored
	return &stored
}

func (f *fakeAccountStore) Create(ctx context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.Email == account.Email && a.Role == account.Role {
			return apperrors.ErrConflict
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	stored := *account
	f.accounts[account.ID] = &stored
	return nil
}

func (f *fakeAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountStore) GetByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.accounts {
		if a.Email == email && a.Role == role {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeAccountStore) ListPendingDoctors(ctx context.Context) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Account
	for _, a := range f.accounts {
		if a.Role == models.RoleDoctor && a.Approval == models.ApprovalPending {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccountStore) UpdateApproval(ctx context.Context, id uuid.UUID, status models.ApprovalStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.accounts[id]
	if !ok || a.Role != models.RoleDoctor {
		return apperrors.ErrNotFound
	}
	a.Approval = status
	return nil
}

// --- fakeAuditStore ---
var _ AuditStore = (*fakeAuditStore)(nil)

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.GrantAuditLog

	CreateFunc func(ctx context.Context, entry *models.GrantAuditLog) error
}

func (f *fakeAuditStore) Create(ctx context.Context, entry *models.GrantAuditLog) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, entry)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.GrantAuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.GrantAuditLog
	for _, e := range f.entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}
