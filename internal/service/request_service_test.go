package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/agroflow/agroflow-backend/internal/models"
	"github.com/agroflow/agroflow-backend/internal/pkg/apperror"
	"github.com/agroflow/agroflow-backend/internal/repository"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// mockRequestRepository keeps requests in memory and mirrors the
// conditional writes the real repository performs, including the stale
// outcome when preconditions no longer hold.
type mockRequestRepository struct {
	requests map[uuid.UUID]*models.Request
}

func newMockRequestRepository() *mockRequestRepository {
	return &mockRequestRepository{requests: make(map[uuid.UUID]*models.Request)}
}

func (m *mockRequestRepository) Create(ctx context.Context, req *models.Request) error {
	req.ID = uuid.New()
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	for _, level := range workflow.Levels() {
		req.SetLevelState(level, workflow.LevelState{Status: workflow.StatusPending})
	}
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Request, error) {
	var out []models.Request
	for _, req := range m.requests {
		if req.FarmerID == farmerID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (m *mockRequestRepository) ListForAdminScope(ctx context.Context, level workflow.Level, assignment workflow.Jurisdiction, kebele string) ([]models.Request, error) {
	var out []models.Request
	for _, req := range m.requests {
		if !workflow.InJurisdiction(level, assignment, req.Jurisdiction()) {
			continue
		}
		if kebele != "" && req.Kebele != kebele {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (m *mockRequestRepository) UpdateDetails(ctx context.Context, id uuid.UUID, quantity int, note *string) (*models.Request, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	if !req.Chain().CanEditOrDelete() {
		return nil, repository.ErrRequestStale
	}
	req.Quantity = quantity
	req.Note = note
	req.UpdatedAt = time.Now()
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepository) UpdateLevelStatus(ctx context.Context, id uuid.UUID, level workflow.Level, decision workflow.Status, adminName string, feedback *string, decidedAt time.Time) (*models.Request, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrRequestNotFound
	}
	if !req.Chain().CanAct(level) {
		return nil, repository.ErrRequestStale
	}
	req.SetLevelState(level, workflow.LevelState{
		Status:    decision,
		AdminName: &adminName,
		Feedback:  feedback,
		DecidedAt: &decidedAt,
	})
	req.HandledBy = &adminName
	req.UpdatedAt = decidedAt
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepository) DeleteUnactioned(ctx context.Context, id, farmerID uuid.UUID) error {
	req, ok := m.requests[id]
	if !ok {
		return repository.ErrRequestNotFound
	}
	if req.FarmerID != farmerID || !req.Chain().CanEditOrDelete() {
		return repository.ErrRequestStale
	}
	delete(m.requests, id)
	return nil
}

func (m *mockRequestRepository) DeleteRejected(ctx context.Context, id uuid.UUID, level workflow.Level) error {
	req, ok := m.requests[id]
	if !ok {
		return repository.ErrRequestNotFound
	}
	if req.Chain()[level].Status != workflow.StatusRejected {
		return repository.ErrRequestStale
	}
	delete(m.requests, id)
	return nil
}

// mockProductReader is a fixed product catalog with mutable stock.
type mockProductReader struct {
	products map[uuid.UUID]*models.Product
}

func newMockProductReader() *mockProductReader {
	return &mockProductReader{products: make(map[uuid.UUID]*models.Product)}
}

func (m *mockProductReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductReader) add(amount int) uuid.UUID {
	id := uuid.New()
	m.products[id] = &models.Product{ID: id, Name: "DAP fertilizer", Amount: amount, Unit: "kg"}
	return id
}

// mockUserReader returns pre-registered users.
type mockUserReader struct {
	users map[uuid.UUID]*models.User
}

func newMockUserReader() *mockUserReader {
	return &mockUserReader{users: make(map[uuid.UUID]*models.User)}
}

func (m *mockUserReader) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserReader) add(u *models.User) *models.User {
	u.ID = uuid.New()
	m.users[u.ID] = u
	return u
}

// mockDeliveryRepository enforces the one-delivery-per-request rule and
// decrements product stock the way the real transaction does.
type mockDeliveryRepository struct {
	deliveries map[uuid.UUID]*models.Delivery
	products   *mockProductReader
}

func newMockDeliveryRepository(products *mockProductReader) *mockDeliveryRepository {
	return &mockDeliveryRepository{
		deliveries: make(map[uuid.UUID]*models.Delivery),
		products:   products,
	}
}

func (m *mockDeliveryRepository) Create(ctx context.Context, d *models.Delivery, productID uuid.UUID, quantity int) error {
	if _, ok := m.deliveries[d.RequestID]; ok {
		return repository.ErrDeliveryExists
	}
	d.ID = uuid.New()
	d.ConfirmedAt = time.Now()
	m.deliveries[d.RequestID] = d
	if p, ok := m.products.products[productID]; ok {
		p.Amount -= quantity
		if p.Amount < 0 {
			p.Amount = 0
		}
	}
	return nil
}

func (m *mockDeliveryRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Delivery, error) {
	d, ok := m.deliveries[requestID]
	if !ok {
		return nil, repository.ErrDeliveryNotFound
	}
	return d, nil
}

func (m *mockDeliveryRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, limit, offset int) ([]models.Delivery, error) {
	var out []models.Delivery
	for _, d := range m.deliveries {
		if d.FarmerID == farmerID {
			out = append(out, *d)
		}
	}
	return out, nil
}

// mockHub records pushed events.
type mockHub struct {
	events []string
}

func (m *mockHub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	m.events = append(m.events, event)
	return nil
}

type requestFixture struct {
	svc        *RequestService
	repo       *mockRequestRepository
	products   *mockProductReader
	users      *mockUserReader
	deliveries *mockDeliveryRepository
	hub        *mockHub

	farmer  *models.User
	admins  map[workflow.Level]*models.User
	product uuid.UUID
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()

	repo := newMockRequestRepository()
	products := newMockProductReader()
	users := newMockUserReader()
	deliveries := newMockDeliveryRepository(products)
	hub := &mockHub{}

	svc := NewRequestService(repo, products, users, deliveries)
	svc.SetHub(hub)

	farmer := users.add(&models.User{
		FullName: "Abebe Kebede",
		Role:     workflow.RoleFarmer,
		Region:   "Oromia", Zone: "Arsi", Woreda: "Hetosa", Kebele: "Boru",
	})

	admins := map[workflow.Level]*models.User{
		workflow.LevelKebele: users.add(&models.User{
			FullName: "Kebele Admin", Role: workflow.RoleKebeleAdmin,
			Region: "Oromia", Zone: "Arsi", Woreda: "Hetosa", Kebele: "Boru",
		}),
		workflow.LevelWoreda: users.add(&models.User{
			FullName: "Woreda Admin", Role: workflow.RoleWoredaAdmin,
			Region: "Oromia", Zone: "Arsi", Woreda: "Hetosa",
		}),
		workflow.LevelZone: users.add(&models.User{
			FullName: "Zone Admin", Role: workflow.RoleZoneAdmin,
			Region: "Oromia", Zone: "Arsi",
		}),
		workflow.LevelRegion: users.add(&models.User{
			FullName: "Region Admin", Role: workflow.RoleRegionAdmin,
			Region: "Oromia",
		}),
		workflow.LevelFederal: users.add(&models.User{
			FullName: "Federal Admin", Role: workflow.RoleFederalAdmin,
		}),
	}

	return &requestFixture{
		svc:        svc,
		repo:       repo,
		products:   products,
		users:      users,
		deliveries: deliveries,
		hub:        hub,
		farmer:     farmer,
		admins:     admins,
		product:    products.add(500),
	}
}

func (f *requestFixture) createRequest(t *testing.T, quantity int) *models.Request {
	t.Helper()
	req, err := f.svc.CreateRequest(context.Background(), f.farmer.ID, CreateRequestInput{
		ProductID: f.product,
		Quantity:  quantity,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func (f *requestFixture) decide(t *testing.T, requestID uuid.UUID, level workflow.Level, decision workflow.Status) *models.Request {
	t.Helper()
	req, err := f.svc.UpdateLevelStatus(context.Background(), f.admins[level].ID, requestID, level, decision, nil)
	if err != nil {
		t.Fatalf("%s %s: %v", level, decision, err)
	}
	return req
}

func TestRequestService_FullApprovalFlow(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 100)
	assert.Equal(t, workflow.StatusPending, req.OverallStatus())

	f.decide(t, req.ID, workflow.LevelKebele, workflow.StatusApproved)
	f.decide(t, req.ID, workflow.LevelWoreda, workflow.StatusApproved)
	f.decide(t, req.ID, workflow.LevelZone, workflow.StatusApproved)
	f.decide(t, req.ID, workflow.LevelRegion, workflow.StatusApproved)
	updated := f.decide(t, req.ID, workflow.LevelFederal, workflow.StatusAccepted)

	assert.Equal(t, workflow.StatusAccepted, updated.OverallStatus())
	assert.Equal(t, "Federal Admin", *updated.HandledBy)
	assert.Len(t, f.hub.events, 5)

	delivery, err := f.svc.ConfirmDelivery(ctx, f.farmer.ID, req.ID, nil)
	if err != nil {
		t.Fatalf("confirm delivery: %v", err)
	}
	assert.Equal(t, workflow.LevelFederal.String(), delivery.AcceptedLevel)
	assert.Equal(t, 400, f.products.products[f.product].Amount)

	// terminal: a second confirmation is a conflict
	_, err = f.svc.ConfirmDelivery(ctx, f.farmer.ID, req.ID, nil)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, 400, f.products.products[f.product].Amount)
}

func TestRequestService_AcceptMidChainStopsEscalation(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 50)
	f.decide(t, req.ID, workflow.LevelKebele, workflow.StatusApproved)
	updated := f.decide(t, req.ID, workflow.LevelWoreda, workflow.StatusAccepted)

	assert.Equal(t, workflow.StatusAccepted, updated.OverallStatus())

	// the woreda accepted rather than approved, so the zone cannot act
	_, err := f.svc.UpdateLevelStatus(ctx, f.admins[workflow.LevelZone].ID, req.ID, workflow.LevelZone, workflow.StatusApproved, nil)
	assert.True(t, apperror.IsForbidden(err))

	delivery, err := f.svc.ConfirmDelivery(ctx, f.farmer.ID, req.ID, nil)
	if err != nil {
		t.Fatalf("confirm delivery: %v", err)
	}
	assert.Equal(t, workflow.LevelWoreda.String(), delivery.AcceptedLevel)
	assert.Equal(t, "Woreda Admin", *delivery.AcceptedAdmin)
}

func TestRequestService_RejectionBlocksNextLevel(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 30)
	f.decide(t, req.ID, workflow.LevelKebele, workflow.StatusRejected)

	_, err := f.svc.UpdateLevelStatus(ctx, f.admins[workflow.LevelWoreda].ID, req.ID, workflow.LevelWoreda, workflow.StatusApproved, nil)
	assert.True(t, apperror.IsForbidden(err))

	stored, err := f.repo.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	assert.Equal(t, workflow.StatusRejected, stored.OverallStatus())
	assert.Equal(t, workflow.StatusPending, stored.WoredaStatus)
}

func TestRequestService_SkippingLevelsForbidden(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 30)

	// woreda may not move first: the kebele has not approved
	_, err := f.svc.UpdateLevelStatus(ctx, f.admins[workflow.LevelWoreda].ID, req.ID, workflow.LevelWoreda, workflow.StatusApproved, nil)
	assert.True(t, apperror.IsForbidden(err))

	// an administrator may not decide a level other than their own
	_, err = f.svc.UpdateLevelStatus(ctx, f.admins[workflow.LevelWoreda].ID, req.ID, workflow.LevelKebele, workflow.StatusApproved, nil)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRequestService_DoubleDecisionConflict(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 30)
	f.decide(t, req.ID, workflow.LevelKebele, workflow.StatusApproved)

	// the second identical decision loses the race at the write
	_, err := f.svc.UpdateLevelStatus(ctx, f.admins[workflow.LevelKebele].ID, req.ID, workflow.LevelKebele, workflow.StatusApproved, nil)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRequestService_JurisdictionEnforced(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	outsider := f.users.add(&models.User{
		FullName: "Other Kebele Admin", Role: workflow.RoleKebeleAdmin,
		Region: "Oromia", Zone: "Arsi", Woreda: "Hetosa", Kebele: "Gonde",
	})

	req := f.createRequest(t, 30)

	_, err := f.svc.UpdateLevelStatus(ctx, outsider.ID, req.ID, workflow.LevelKebele, workflow.StatusApproved, nil)
	assert.True(t, apperror.IsForbidden(err))

	_, err = f.svc.GetRequest(ctx, outsider.ID, req.ID)
	assert.True(t, apperror.IsForbidden(err))

	// the federal administrator sees everything
	_, err = f.svc.GetRequest(ctx, f.admins[workflow.LevelFederal].ID, req.ID)
	assert.NoError(t, err)
}

func TestRequestService_EditWindowClosesOnFirstDecision(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 30)

	quantity := 45
	updated, err := f.svc.EditRequest(ctx, f.farmer.ID, req.ID, EditRequestInput{Quantity: &quantity})
	if err != nil {
		t.Fatalf("edit request: %v", err)
	}
	assert.Equal(t, 45, updated.Quantity)

	f.decide(t, req.ID, workflow.LevelKebele, workflow.StatusApproved)

	quantity = 60
	_, err = f.svc.EditRequest(ctx, f.farmer.ID, req.ID, EditRequestInput{Quantity: &quantity})
	assert.True(t, apperror.IsForbidden(err))

	err = f.svc.DeleteRequest(ctx, f.farmer.ID, req.ID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRequestService_EditConflictOnConcurrentDecision(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 30)

	snapshot, err := f.repo.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	assert.True(t, snapshot.Chain().CanEditOrDelete())

	// a decision lands between the service's read and its write
	name := "Kebele Admin"
	now := time.Now()
	f.repo.requests[req.ID].SetLevelState(workflow.LevelKebele, workflow.LevelState{
		Status: workflow.StatusApproved, AdminName: &name, DecidedAt: &now,
	})

	quantity := 60
	_, err = f.svc.EditRequest(ctx, f.farmer.ID, req.ID, EditRequestInput{Quantity: &quantity})
	assert.True(t, apperror.IsForbidden(err) || apperror.IsConflict(err))
}

func TestRequestService_DeleteRejectedByDecidingLevel(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 30)
	f.decide(t, req.ID, workflow.LevelKebele, workflow.StatusApproved)
	f.decide(t, req.ID, workflow.LevelWoreda, workflow.StatusRejected)

	// only the level that recorded the rejection may delete
	err := f.svc.DeleteRequest(ctx, f.admins[workflow.LevelZone].ID, req.ID)
	assert.True(t, apperror.IsForbidden(err))

	err = f.svc.DeleteRequest(ctx, f.admins[workflow.LevelWoreda].ID, req.ID)
	assert.NoError(t, err)

	_, err = f.svc.GetRequest(ctx, f.farmer.ID, req.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRequestService_ConfirmDeliveryRequiresAcceptance(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	req := f.createRequest(t, 30)
	f.decide(t, req.ID, workflow.LevelKebele, workflow.StatusApproved)

	_, err := f.svc.ConfirmDelivery(ctx, f.farmer.ID, req.ID, nil)
	assert.True(t, apperror.IsForbidden(err))

	// someone else's request cannot be confirmed either
	other := f.users.add(&models.User{
		FullName: "Tigist Alemu", Role: workflow.RoleFarmer,
		Region: "Oromia", Zone: "Arsi", Woreda: "Hetosa", Kebele: "Boru",
	})
	f.decide(t, req.ID, workflow.LevelWoreda, workflow.StatusAccepted)
	_, err = f.svc.ConfirmDelivery(ctx, other.ID, req.ID, nil)
	assert.True(t, apperror.IsForbidden(err))
}

func TestRequestService_BulkPartialFailure(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	actable := f.createRequest(t, 10)
	blocked := f.createRequest(t, 20)
	f.decide(t, blocked.ID, workflow.LevelKebele, workflow.StatusRejected)

	results := f.svc.BulkUpdateLevelStatus(ctx, f.admins[workflow.LevelKebele].ID,
		[]uuid.UUID{actable.ID, blocked.ID, uuid.New()},
		workflow.LevelKebele, workflow.StatusApproved, nil)

	assert.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.True(t, apperror.IsNotFound(results[2].Err))

	stored, err := f.repo.GetByID(ctx, actable.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	assert.Equal(t, workflow.StatusApproved, stored.KebeleStatus)
}

func TestRequestService_ListFiltering(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	pending := f.createRequest(t, 10)
	rejected := f.createRequest(t, 20)
	accepted := f.createRequest(t, 30)

	f.decide(t, rejected.ID, workflow.LevelKebele, workflow.StatusRejected)
	f.decide(t, accepted.ID, workflow.LevelKebele, workflow.StatusAccepted)

	all, err := f.svc.ListForFarmer(ctx, f.farmer.ID, workflow.FilterAll)
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := f.svc.ListForFarmer(ctx, f.farmer.ID, workflow.FilterPending)
	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, pending.ID, got[0].ID)
	}

	got, err = f.svc.ListForFarmer(ctx, f.farmer.ID, workflow.FilterRejected)
	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, rejected.ID, got[0].ID)
	}

	scoped, err := f.svc.ListForAdmin(ctx, f.admins[workflow.LevelKebele].ID, workflow.FilterAll, "")
	assert.NoError(t, err)
	assert.Len(t, scoped, 3)
}

func TestRequestService_CreateValidation(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRequest(ctx, f.farmer.ID, CreateRequestInput{ProductID: f.product, Quantity: 0})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.CreateRequest(ctx, f.farmer.ID, CreateRequestInput{ProductID: uuid.New(), Quantity: 10})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.CreateRequest(ctx, f.admins[workflow.LevelKebele].ID, CreateRequestInput{ProductID: f.product, Quantity: 10})
	assert.True(t, apperror.IsForbidden(err))
}
