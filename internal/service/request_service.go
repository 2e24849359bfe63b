package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agroflow/agroflow-backend/internal/logger"
	"github.com/agroflow/agroflow-backend/internal/models"
	"github.com/agroflow/agroflow-backend/internal/pkg/apperror"
	"github.com/agroflow/agroflow-backend/internal/repository"
	"github.com/agroflow/agroflow-backend/internal/validation"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// RequestRepository describes the storage needed by RequestService.
type RequestRepository interface {
	Create(ctx context.Context, req *models.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Request, error)
	ListForAdminScope(ctx context.Context, level workflow.Level, assignment workflow.Jurisdiction, kebele string) ([]models.Request, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, quantity int, note *string) (*models.Request, error)
	UpdateLevelStatus(ctx context.Context, id uuid.UUID, level workflow.Level, decision workflow.Status, adminName string, feedback *string, decidedAt time.Time) (*models.Request, error)
	DeleteUnactioned(ctx context.Context, id, farmerID uuid.UUID) error
	DeleteRejected(ctx context.Context, id uuid.UUID, level workflow.Level) error
}

// ProductReader is the product lookup the request service needs.
type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// UserReader is the user lookup the request service needs.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// DeliveryRepository describes delivery storage.
type DeliveryRepository interface {
	Create(ctx context.Context, d *models.Delivery, productID uuid.UUID, quantity int) error
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.Delivery, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, limit, offset int) ([]models.Delivery, error)
}

// Notifier pushes events to connected users.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// RequestService owns the request workflow: level-gated transitions,
// status derivation, the edit/delete window and delivery confirmation.
// Every actor is passed in explicitly; the service reads no ambient state.
type RequestService struct {
	repo       RequestRepository
	products   ProductReader
	users      UserReader
	deliveries DeliveryRepository
	hub        Notifier
}

// NewRequestService creates the workflow service.
func NewRequestService(repo RequestRepository, products ProductReader, users UserReader, deliveries DeliveryRepository) *RequestService {
	return &RequestService{
		repo:       repo,
		products:   products,
		users:      users,
		deliveries: deliveries,
	}
}

// SetHub wires the notification hub. May stay nil in tests.
func (s *RequestService) SetHub(hub Notifier) {
	s.hub = hub
}

// CreateRequestInput carries the farmer's order.
type CreateRequestInput struct {
	ProductID uuid.UUID
	Quantity  int
	Note      *string
}

// CreateRequest creates a request with all five levels pending. The
// jurisdiction chain is captured from the farmer at creation time.
func (s *RequestService) CreateRequest(ctx context.Context, farmerID uuid.UUID, in CreateRequestInput) (*models.Request, error) {
	if err := validation.ValidateQuantity(in.Quantity); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.Note != nil {
		if err := validation.ValidateLength("note", *in.Note, 0, validation.MaxNoteLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	farmer, err := s.users.GetByID(ctx, farmerID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if farmer.Role != workflow.RoleFarmer {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only farmers may create requests")
	}

	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.New(apperror.ErrCodeValidation, "product does not exist")
		}
		return nil, err
	}

	req := &models.Request{
		FarmerID:  farmerID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Note:      in.Note,
		Region:    farmer.Region,
		Zone:      farmer.Zone,
		Woreda:    farmer.Woreda,
		Kebele:    farmer.Kebele,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	logInfo(logrus.Fields{
		"request_id": req.ID,
		"farmer_id":  farmerID,
		"product_id": in.ProductID,
	}, "request created")

	return req, nil
}

// EditRequestInput carries the editable fields. The product is immutable;
// changing it requires delete and recreate.
type EditRequestInput struct {
	Quantity *int
	Note     *string
}

// EditRequest changes quantity or note while no level has acted yet.
func (s *RequestService) EditRequest(ctx context.Context, actorID, requestID uuid.UUID, in EditRequestInput) (*models.Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRequestErr(err)
	}

	if req.FarmerID != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the owning farmer may edit this request")
	}
	if !req.Chain().CanEditOrDelete() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "request has already been acted on and can no longer be edited")
	}

	quantity := req.Quantity
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if err := validation.ValidateQuantity(quantity); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	note := req.Note
	if in.Note != nil {
		if err := validation.ValidateLength("note", *in.Note, 0, validation.MaxNoteLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		note = in.Note
	}

	updated, err := s.repo.UpdateDetails(ctx, requestID, quantity, note)
	if err != nil {
		if errors.Is(err, repository.ErrRequestStale) {
			// some level acted between our read and the write
			return nil, apperror.ErrStaleRequest
		}
		return nil, err
	}

	return updated, nil
}

// DeleteRequest removes a request. Farmers may delete their own while it is
// fully unactioned; an administrator may delete it once their own level has
// recorded the rejection.
func (s *RequestService) DeleteRequest(ctx context.Context, actorID, requestID uuid.UUID) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return mapUserErr(err)
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return mapRequestErr(err)
	}

	if actor.Role == workflow.RoleFarmer {
		if req.FarmerID != actorID {
			return apperror.New(apperror.ErrCodeForbidden, "only the owning farmer may delete this request")
		}
		if !req.Chain().CanEditOrDelete() {
			return apperror.New(apperror.ErrCodeForbidden, "request has already been acted on and can no longer be deleted")
		}

		if err := s.repo.DeleteUnactioned(ctx, requestID, actorID); err != nil {
			if errors.Is(err, repository.ErrRequestStale) {
				return apperror.ErrStaleRequest
			}
			return err
		}
		return nil
	}

	level, ok := actor.AdminLevel()
	if !ok {
		return apperror.ErrForbidden
	}
	if !workflow.InJurisdiction(level, actor.Jurisdiction(), req.Jurisdiction()) {
		return apperror.New(apperror.ErrCodeForbidden, "request is outside your jurisdiction")
	}
	if req.Chain()[level].Status != workflow.StatusRejected {
		return apperror.New(apperror.ErrCodeForbidden, "only the level that rejected the request may delete it")
	}

	if err := s.repo.DeleteRejected(ctx, requestID, level); err != nil {
		if errors.Is(err, repository.ErrRequestStale) {
			return apperror.ErrStaleRequest
		}
		return err
	}

	logInfo(logrus.Fields{
		"request_id": requestID,
		"admin_id":   actorID,
		"level":      level.String(),
	}, "rejected request deleted by administrator")

	return nil
}

// UpdateLevelStatus records one level's decision. Gating is validated on a
// fresh read, then re-asserted by the conditional write; a write that
// matches the id but no longer the preconditions is a concurrency conflict.
func (s *RequestService) UpdateLevelStatus(ctx context.Context, actorID, requestID uuid.UUID, level workflow.Level, decision workflow.Status, feedback *string) (*models.Request, error) {
	if !level.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown administrative level")
	}
	if !decision.IsDecision() {
		return nil, apperror.New(apperror.ErrCodeValidation, "decision must be approved, accepted or rejected")
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	actorLevel, ok := actor.AdminLevel()
	if !ok {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only administrators may decide requests")
	}
	if actorLevel != level {
		return nil, apperror.New(apperror.ErrCodeForbidden, "administrators may only decide their own level")
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRequestErr(err)
	}

	if !workflow.InJurisdiction(level, actor.Jurisdiction(), req.Jurisdiction()) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "request is outside your jurisdiction")
	}
	if !req.Chain().CanAct(level) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "level cannot act: it has already decided or the preceding level has not approved")
	}

	updated, err := s.repo.UpdateLevelStatus(ctx, requestID, level, decision, actor.FullName, feedback, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrRequestStale) {
			return nil, apperror.ErrStaleRequest
		}
		return nil, err
	}

	logInfo(logrus.Fields{
		"request_id": requestID,
		"level":      level.String(),
		"decision":   decision,
		"admin_id":   actorID,
	}, "request level decided")

	s.notifyFarmer(updated, level, decision)

	return updated, nil
}

// BulkItemResult is the outcome of one request within a bulk transition.
type BulkItemResult struct {
	RequestID uuid.UUID
	Err       error
}

// BulkUpdateLevelStatus applies one decision to many requests as
// independent atomic transitions. Failures are collected, never rolled up
// into an all-or-nothing batch.
func (s *RequestService) BulkUpdateLevelStatus(ctx context.Context, actorID uuid.UUID, requestIDs []uuid.UUID, level workflow.Level, decision workflow.Status, feedback *string) []BulkItemResult {
	results := make([]BulkItemResult, 0, len(requestIDs))
	for _, id := range requestIDs {
		_, err := s.UpdateLevelStatus(ctx, actorID, id, level, decision, feedback)
		results = append(results, BulkItemResult{RequestID: id, Err: err})
	}
	return results
}

// ConfirmDelivery records the farmer's receipt of an accepted request and
// decrements the product's stock. Terminal: at most one delivery exists
// per request.
func (s *RequestService) ConfirmDelivery(ctx context.Context, farmerID, requestID uuid.UUID, note *string) (*models.Delivery, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRequestErr(err)
	}

	if req.FarmerID != farmerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the owning farmer may confirm delivery")
	}

	chain := req.Chain()
	acceptedLevel, ok := chain.AcceptedLevel()
	if !ok {
		return nil, apperror.New(apperror.ErrCodeForbidden, "no level has accepted this request yet")
	}

	delivery := &models.Delivery{
		RequestID:        requestID,
		FarmerID:         farmerID,
		ConfirmationNote: note,
		AcceptedLevel:    acceptedLevel.String(),
		AcceptedAdmin:    chain[acceptedLevel].AdminName,
	}

	if err := s.deliveries.Create(ctx, delivery, req.ProductID, req.Quantity); err != nil {
		if errors.Is(err, repository.ErrDeliveryExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "delivery already confirmed for this request")
		}
		return nil, err
	}

	logInfo(logrus.Fields{
		"request_id":  requestID,
		"delivery_id": delivery.ID,
		"level":       delivery.AcceptedLevel,
	}, "delivery confirmed")

	return delivery, nil
}

// GetRequest returns one request, restricted to the owner or an
// administrator whose jurisdiction covers it.
func (s *RequestService) GetRequest(ctx context.Context, actorID, requestID uuid.UUID) (*models.Request, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapRequestErr(err)
	}

	if err := s.authorizeView(actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListForFarmer returns the farmer's own requests filtered by derived
// status.
func (s *RequestService) ListForFarmer(ctx context.Context, farmerID uuid.UUID, filter workflow.Filter) ([]models.Request, error) {
	requests, err := s.repo.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	return filterRequests(requests, filter), nil
}

// ListForAdmin returns the requests inside the administrator's
// jurisdiction, filtered by derived status and optionally one kebele.
func (s *RequestService) ListForAdmin(ctx context.Context, actorID uuid.UUID, filter workflow.Filter, kebele string) ([]models.Request, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	level, ok := actor.AdminLevel()
	if !ok {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only administrators may list scoped requests")
	}

	requests, err := s.repo.ListForAdminScope(ctx, level, actor.Jurisdiction(), kebele)
	if err != nil {
		return nil, err
	}
	return filterRequests(requests, filter), nil
}

// ListDeliveries returns a farmer's confirmed deliveries.
func (s *RequestService) ListDeliveries(ctx context.Context, farmerID uuid.UUID, limit, offset int) ([]models.Delivery, error) {
	return s.deliveries.ListByFarmer(ctx, farmerID, limit, offset)
}

func (s *RequestService) authorizeView(actor *models.User, req *models.Request) error {
	if actor.Role == workflow.RoleFarmer {
		if req.FarmerID != actor.ID {
			return apperror.New(apperror.ErrCodeForbidden, "request belongs to another farmer")
		}
		return nil
	}

	level, ok := actor.AdminLevel()
	if !ok {
		return apperror.ErrForbidden
	}
	if !workflow.InJurisdiction(level, actor.Jurisdiction(), req.Jurisdiction()) {
		return apperror.New(apperror.ErrCodeForbidden, "request is outside your jurisdiction")
	}
	return nil
}

// filterRequests applies the status filter through the workflow chain so
// the list endpoint and the derived status can never disagree.
func filterRequests(requests []models.Request, filter workflow.Filter) []models.Request {
	if filter == workflow.FilterAll {
		return requests
	}

	out := make([]models.Request, 0, len(requests))
	for _, req := range requests {
		if req.Chain().Matches(filter) {
			out = append(out, req)
		}
	}
	return out
}

// notifyFarmer pushes the status change to the owning farmer. Best effort.
func (s *RequestService) notifyFarmer(req *models.Request, level workflow.Level, decision workflow.Status) {
	if s.hub == nil {
		return
	}

	payload := map[string]any{
		"request_id":     req.ID,
		"level":          level.String(),
		"decision":       decision,
		"overall_status": req.OverallStatus(),
		"handled_by":     req.HandledBy,
	}
	if err := s.hub.BroadcastToUser(req.FarmerID, "request_status", payload); err != nil {
		logError(logrus.Fields{"request_id": req.ID}, "cannot push status notification: "+err.Error())
	}
}

func mapRequestErr(err error) error {
	if errors.Is(err, repository.ErrRequestNotFound) {
		return apperror.ErrRequestNotFound
	}
	return err
}

func mapUserErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperror.ErrUserNotFound
	}
	return err
}

func logInfo(fields logrus.Fields, msg string) {
	if logger.Log != nil {
		logger.Log.WithFields(fields).Info(msg)
	}
}

func logError(fields logrus.Fields, msg string) {
	if logger.Log != nil {
		logger.Log.WithFields(fields).Error(msg)
	}
}
