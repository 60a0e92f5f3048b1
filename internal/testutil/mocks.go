package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
)

// The mocks below behave like the real store: reads hand out copies, so a
// caller only changes stored state through an explicit write, and versioned
// writes are compare-and-swap.

// MockOwnerRepository is a mock implementation of domain.OwnerRepository
type MockOwnerRepository struct {
	mu                     sync.Mutex
	Owners                 map[string]*domain.Owner
	NextID                 int32
	GetOrCreateByAuth0IDFn func(auth0ID, email string) (*domain.Owner, error)
}

// NewMockOwnerRepository creates a new MockOwnerRepository
func NewMockOwnerRepository() *MockOwnerRepository {
	return &MockOwnerRepository{
		Owners: make(map[string]*domain.Owner),
		NextID: 1,
	}
}

// GetOrCreateByAuth0ID returns the owner of the subject, creating it on first sight
func (m *MockOwnerRepository) GetOrCreateByAuth0ID(ctx context.Context, auth0ID, email string) (*domain.Owner, error) {
	if m.GetOrCreateByAuth0IDFn != nil {
		return m.GetOrCreateByAuth0IDFn(auth0ID, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.Owners[auth0ID]; ok {
		cp := *owner
		return &cp, nil
	}
	owner := &domain.Owner{ID: m.NextID, Auth0ID: auth0ID, Email: email, CreatedAt: time.Now()}
	m.NextID++
	m.Owners[auth0ID] = owner
	cp := *owner
	return &cp, nil
}

// GetByAuth0ID retrieves an owner by Auth0 subject
func (m *MockOwnerRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.Owners[auth0ID]
	if !ok {
		return nil, domain.ErrOwnerNotFound
	}
	cp := *owner
	return &cp, nil
}

// GetAllIDs returns every owner ID in ascending order
func (m *MockOwnerRepository) GetAllIDs(ctx context.Context) ([]int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int32, 0, len(m.Owners))
	for _, o := range m.Owners {
		ids = append(ids, o.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// AddOwner adds an owner to the mock repository (helper for tests)
func (m *MockOwnerRepository) AddOwner(owner *domain.Owner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Owners[owner.Auth0ID] = owner
	if owner.ID >= m.NextID {
		m.NextID = owner.ID + 1
	}
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	mu              sync.Mutex
	Transactions    map[int32]*domain.Transaction
	NextID          int32
	GetAllByOwnerFn func(ownerID int32) ([]*domain.Transaction, error)
	DateRangeFn     func(ownerID int32, start, end time.Time) ([]*domain.Transaction, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[int32]*domain.Transaction),
		NextID:       1,
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *t
	stored.ID = m.NextID
	m.NextID++
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Transactions[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Transactions[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepository) GetAllByOwner(ctx context.Context, ownerID int32) ([]*domain.Transaction, error) {
	if m.GetAllByOwnerFn != nil {
		return m.GetAllByOwnerFn(ownerID)
	}
	return m.collect(func(t *domain.Transaction) bool { return t.OwnerID == ownerID }), nil
}

func (m *MockTransactionRepository) GetByOwnerAndDateRange(ctx context.Context, ownerID int32, start, end time.Time) ([]*domain.Transaction, error) {
	if m.DateRangeFn != nil {
		return m.DateRangeFn(ownerID, start, end)
	}
	return m.collect(func(t *domain.Transaction) bool {
		return t.OwnerID == ownerID && util.InDateRange(t.Date, start, end)
	}), nil
}

func (m *MockTransactionRepository) collect(keep func(*domain.Transaction) bool) []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions {
		if keep(t) {
			cp := *t
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *MockTransactionRepository) Update(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Transactions[t.ID]; !ok {
		return nil, domain.ErrTransactionNotFound
	}
	stored := *t
	stored.UpdatedAt = time.Now()
	m.Transactions[t.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Transactions[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, id)
	return nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(t *domain.Transaction) *domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.NextID
	}
	if t.ID >= m.NextID {
		m.NextID = t.ID + 1
	}
	stored := *t
	m.Transactions[t.ID] = &stored
	return t
}

// MockFinancingRepository is a mock implementation of domain.FinancingRepository.
// It also holds the payment rows so that deletes cascade and paired
// payment/balance writes are atomic under one mutex.
type MockFinancingRepository struct {
	mu              sync.Mutex
	Financings      map[int32]*domain.Financing
	Payments        map[int32]*domain.Payment
	NextID          int32
	NextPaymentID   int32
	GetByIDFn       func(id int32) (*domain.Financing, error)
	GetAllByOwnerFn func(ownerID int32) ([]*domain.Financing, error)
	UpdateFn        func(f *domain.Financing) (*domain.Financing, error)
}

// NewMockFinancingRepository creates a new MockFinancingRepository
func NewMockFinancingRepository() *MockFinancingRepository {
	return &MockFinancingRepository{
		Financings:    make(map[int32]*domain.Financing),
		Payments:      make(map[int32]*domain.Payment),
		NextID:        1,
		NextPaymentID: 1,
	}
}

func (m *MockFinancingRepository) Create(ctx context.Context, f *domain.Financing) (*domain.Financing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *f
	stored.ID = m.NextID
	m.NextID++
	stored.Version = 1
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Financings[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockFinancingRepository) GetByID(ctx context.Context, id int32) (*domain.Financing, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Financings[id]
	if !ok {
		return nil, domain.ErrFinancingNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MockFinancingRepository) GetAllByOwner(ctx context.Context, ownerID int32) ([]*domain.Financing, error) {
	if m.GetAllByOwnerFn != nil {
		return m.GetAllByOwnerFn(ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Financing, 0)
	for _, f := range m.Financings {
		if f.OwnerID == ownerID {
			cp := *f
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockFinancingRepository) Update(ctx context.Context, f *domain.Financing) (*domain.Financing, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.swapLocked(f); err != nil {
		return nil, err
	}
	cp := *m.Financings[f.ID]
	return &cp, nil
}

// swapLocked writes f if its version matches the stored one. m.mu must be held.
func (m *MockFinancingRepository) swapLocked(f *domain.Financing) error {
	current, ok := m.Financings[f.ID]
	if !ok {
		return domain.ErrFinancingNotFound
	}
	if current.Version != f.Version {
		return domain.ErrConcurrentUpdate
	}
	stored := *f
	stored.Version = current.Version + 1
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now()
	m.Financings[f.ID] = &stored
	f.Version = stored.Version
	f.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m *MockFinancingRepository) Delete(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Financings[id]; !ok {
		return domain.ErrFinancingNotFound
	}
	delete(m.Financings, id)
	for pid, p := range m.Payments {
		if p.FinancingID == id {
			delete(m.Payments, pid)
		}
	}
	return nil
}

// AddFinancing adds a financing to the mock repository (helper for tests)
func (m *MockFinancingRepository) AddFinancing(f *domain.Financing) *domain.Financing {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == 0 {
		f.ID = m.NextID
	}
	if f.ID >= m.NextID {
		m.NextID = f.ID + 1
	}
	if f.Version == 0 {
		f.Version = 1
	}
	stored := *f
	m.Financings[f.ID] = &stored
	return f
}

// Stored returns the current stored state of a financing (helper for tests)
func (m *MockFinancingRepository) Stored(id int32) *domain.Financing {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.Financings[id]
	if !ok {
		return nil
	}
	cp := *f
	return &cp
}

// PaymentCount returns the number of stored payments of a financing (helper for tests)
func (m *MockFinancingRepository) PaymentCount(financingID int32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.Payments {
		if p.FinancingID == financingID {
			n++
		}
	}
	return n
}

// MockPaymentRepository is a mock implementation of domain.PaymentRepository
// backed by the rows of a MockFinancingRepository.
type MockPaymentRepository struct {
	store               *MockFinancingRepository
	CreateWithBalanceFn func(f *domain.Financing, p *domain.Payment) (*domain.Payment, error)
}

// NewMockPaymentRepository creates a new MockPaymentRepository
func NewMockPaymentRepository(financings *MockFinancingRepository) *MockPaymentRepository {
	return &MockPaymentRepository{store: financings}
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.Payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepository) GetByFinancingID(ctx context.Context, financingID int32) ([]*domain.Payment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	result := make([]*domain.Payment, 0)
	for _, p := range m.store.Payments {
		if p.FinancingID == financingID {
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].PaymentDate.Equal(result[j].PaymentDate) {
			return result[i].PaymentDate.After(result[j].PaymentDate)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (m *MockPaymentRepository) CreateWithBalance(ctx context.Context, f *domain.Financing, p *domain.Payment) (*domain.Payment, error) {
	if m.CreateWithBalanceFn != nil {
		return m.CreateWithBalanceFn(f, p)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if err := m.store.swapLocked(f); err != nil {
		return nil, err
	}
	stored := *p
	stored.ID = m.store.NextPaymentID
	m.store.NextPaymentID++
	stored.FinancingID = f.ID
	stored.CreatedAt = time.Now()
	m.store.Payments[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockPaymentRepository) DeleteWithBalance(ctx context.Context, f *domain.Financing, paymentID int32) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.Payments[paymentID]
	if !ok || p.FinancingID != f.ID {
		return domain.ErrPaymentNotFound
	}
	if err := m.store.swapLocked(f); err != nil {
		return err
	}
	delete(m.store.Payments, paymentID)
	return nil
}

// MockGoalRepository is a mock implementation of domain.GoalRepository
type MockGoalRepository struct {
	mu       sync.Mutex
	Goals    map[int32]*domain.Goal
	NextID   int32
	UpdateFn func(g *domain.Goal) (*domain.Goal, error)
}

// NewMockGoalRepository creates a new MockGoalRepository
func NewMockGoalRepository() *MockGoalRepository {
	return &MockGoalRepository{
		Goals:  make(map[int32]*domain.Goal),
		NextID: 1,
	}
}

func (m *MockGoalRepository) Create(ctx context.Context, g *domain.Goal) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *g
	stored.ID = m.NextID
	m.NextID++
	stored.Version = 1
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Goals[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockGoalRepository) GetByID(ctx context.Context, id int32) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.Goals[id]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MockGoalRepository) GetAllByOwner(ctx context.Context, ownerID int32) ([]*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Goal, 0)
	for _, g := range m.Goals {
		if g.OwnerID == ownerID {
			cp := *g
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockGoalRepository) Update(ctx context.Context, g *domain.Goal) (*domain.Goal, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(g)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.Goals[g.ID]
	if !ok {
		return nil, domain.ErrGoalNotFound
	}
	if current.Version != g.Version {
		return nil, domain.ErrConcurrentUpdate
	}
	stored := *g
	stored.Version = current.Version + 1
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now()
	m.Goals[g.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockGoalRepository) Delete(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Goals[id]; !ok {
		return domain.ErrGoalNotFound
	}
	delete(m.Goals, id)
	return nil
}

// AddGoal adds a goal to the mock repository (helper for tests)
func (m *MockGoalRepository) AddGoal(g *domain.Goal) *domain.Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == 0 {
		g.ID = m.NextID
	}
	if g.ID >= m.NextID {
		m.NextID = g.ID + 1
	}
	if g.Version == 0 {
		g.Version = 1
	}
	stored := *g
	m.Goals[g.ID] = &stored
	return g
}

// Stored returns the current stored state of a goal (helper for tests)
func (m *MockGoalRepository) Stored(id int32) *domain.Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.Goals[id]
	if !ok {
		return nil
	}
	cp := *g
	return &cp
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	mu         sync.Mutex
	Categories map[int32]*domain.Category
	NextID     int32
	CreateFn   func(c *domain.Category) (*domain.Category, error)
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		NextID:     1,
	}
}

func (m *MockCategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	stored.ID = m.NextID
	m.NextID++
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Categories[stored.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCategoryRepository) GetAllByOwner(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	return m.collect(func(c *domain.Category) bool { return c.OwnerID == ownerID }), nil
}

func (m *MockCategoryRepository) GetByOwnerAndType(ctx context.Context, ownerID int32, categoryType domain.CategoryType) ([]*domain.Category, error) {
	return m.collect(func(c *domain.Category) bool {
		return c.OwnerID == ownerID && c.Type == categoryType
	}), nil
}

func (m *MockCategoryRepository) GetMainByOwner(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	return m.collect(func(c *domain.Category) bool {
		return c.OwnerID == ownerID && c.ParentID == nil
	}), nil
}

func (m *MockCategoryRepository) GetChildren(ctx context.Context, ownerID int32, parentID int32) ([]*domain.Category, error) {
	return m.collect(func(c *domain.Category) bool {
		return c.OwnerID == ownerID && c.ParentID != nil && *c.ParentID == parentID
	}), nil
}

func (m *MockCategoryRepository) GetByName(ctx context.Context, ownerID int32, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	found := m.collect(func(c *domain.Category) bool {
		return c.OwnerID == ownerID && c.Name == name && c.Type == categoryType
	})
	if len(found) == 0 {
		return nil, domain.ErrCategoryNotFound
	}
	return found[0], nil
}

// collect returns matching categories ordered by type then name, like the store
func (m *MockCategoryRepository) collect(keep func(*domain.Category) bool) []*domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Category, 0)
	for _, c := range m.Categories {
		if keep(c) {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (m *MockCategoryRepository) Update(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.Categories[c.ID]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	stored := *c
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now()
	m.Categories[c.ID] = &stored
	cp := stored
	return &cp, nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	return nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(c *domain.Category) *domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.NextID
	}
	if c.ID >= m.NextID {
		m.NextID = c.ID + 1
	}
	stored := *c
	m.Categories[c.ID] = &stored
	return c
}

// MockExportStore is a mock implementation of domain.ExportStore
type MockExportStore struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	Types     map[string]string
	UploadErr error
}

// NewMockExportStore creates a new MockExportStore
func NewMockExportStore() *MockExportStore {
	return &MockExportStore{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (m *MockExportStore) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = buf.Bytes()
	m.Types[objectPath] = contentType
	return objectPath, nil
}

func (m *MockExportStore) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("https://exports.test/%s?expires=%d", objectPath, int(expiry.Seconds())), nil
}

// Keys returns the stored object keys in lexical order (helper for tests)
func (m *MockExportStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Objects))
	for k := range m.Objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
