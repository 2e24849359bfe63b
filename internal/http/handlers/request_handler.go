package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agroflow/agroflow-backend/internal/dto"
	"github.com/agroflow/agroflow-backend/internal/http/handlers/common"
	"github.com/agroflow/agroflow-backend/internal/service"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// RequestHandler serves the product-request workflow endpoints.
type RequestHandler struct {
	requests *service.RequestService
}

// NewRequestHandler creates the handler.
func NewRequestHandler(requests *service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// CreateRequest handles POST /requests.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		common.RespondBadRequest(c, "product_id must be a valid UUID")
		return
	}

	created, err := h.requests.CreateRequest(c.Request.Context(), userID, service.CreateRequestInput{
		ProductID: productID,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewRequestResponse(created))
}

// ListRequests handles GET /requests?statusFilter=&kebele=.
// Farmers see their own requests; administrators see their jurisdiction.
func (h *RequestHandler) ListRequests(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	filter, err := workflow.ParseFilter(c.Query("statusFilter"))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var requests []*dto.RequestResponse
	if role == workflow.RoleFarmer {
		list, err := h.requests.ListForFarmer(c.Request.Context(), userID, filter)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		requests = dto.NewRequestListResponse(list)
	} else {
		list, err := h.requests.ListForAdmin(c.Request.Context(), userID, filter, c.Query("kebele"))
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		requests = dto.NewRequestListResponse(list)
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetRequest handles GET /requests/:id.
func (h *RequestHandler) GetRequest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	req, err := h.requests.GetRequest(c.Request.Context(), userID, requestID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRequestResponse(req))
}

// GetRequestStatus handles GET /requests/:id/status with the full
// per-level breakdown.
func (h *RequestHandler) GetRequestStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	req, err := h.requests.GetRequest(c.Request.Context(), userID, requestID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRequestStatusDetail(req))
}

// UpdateRequest handles PUT /requests/:id.
func (h *RequestHandler) UpdateRequest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	updated, err := h.requests.EditRequest(c.Request.Context(), userID, requestID, service.EditRequestInput{
		Quantity: req.Quantity,
		Note:     req.Note,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRequestResponse(updated))
}

// DeleteRequest handles DELETE /requests/:id.
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.requests.DeleteRequest(c.Request.Context(), userID, requestID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "request deleted", nil)
}

// UpdateLevelStatus handles PATCH /requests/:id/status.
func (h *RequestHandler) UpdateLevelStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateLevelStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	level, err := workflow.ParseLevel(req.Level)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	decision, err := workflow.NewDecision(req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	updated, err := h.requests.UpdateLevelStatus(c.Request.Context(), userID, requestID, level, decision, req.Feedback)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRequestResponse(updated))
}

// BulkUpdateStatus handles PATCH /requests/bulk-status: one decision applied to
// many requests as independent transitions with per-item outcomes.
func (h *RequestHandler) BulkUpdateStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.BulkUpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	level, err := workflow.ParseLevel(req.Level)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	decision, err := workflow.NewDecision(req.Status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	ids := make([]uuid.UUID, 0, len(req.RequestIDs))
	for _, raw := range req.RequestIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "request_ids must be valid UUIDs")
			return
		}
		ids = append(ids, id)
	}

	results := h.requests.BulkUpdateLevelStatus(c.Request.Context(), userID, ids, level, decision, req.Feedback)

	resp := dto.BulkUpdateResponse{Results: make([]dto.BulkUpdateItemResult, 0, len(results))}
	for _, r := range results {
		item := dto.BulkUpdateItemResult{RequestID: r.RequestID, OK: r.Err == nil}
		if r.Err != nil {
			item.Error = r.Err.Error()
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, item)
	}

	c.JSON(http.StatusOK, resp)
}

// ConfirmDelivery handles POST /requests/:id/delivery.
func (h *RequestHandler) ConfirmDelivery(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ConfirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		common.RespondBadRequest(c, err.Error())
		return
	}

	delivery, err := h.requests.ConfirmDelivery(c.Request.Context(), userID, requestID, req.Note)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, delivery)
}

// ListDeliveries handles GET /deliveries.
func (h *RequestHandler) ListDeliveries(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	deliveries, err := h.requests.ListDeliveries(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
}
