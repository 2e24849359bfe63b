package dto

// RegisterRequest carries the signup payload.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"`
	Region   string `json:"region"`
	Zone     string `json:"zone"`
	Woreda   string `json:"woreda"`
	Kebele   string `json:"kebele"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateRequestRequest creates a product request.
type CreateRequestRequest struct {
	ProductID string  `json:"product_id" binding:"required,uuid"`
	Quantity  int     `json:"quantity" binding:"required"`
	Note      *string `json:"note"`
}

// UpdateRequestRequest edits quantity or note while the request is
// unactioned. The product is immutable on edit.
type UpdateRequestRequest struct {
	Quantity *int    `json:"quantity"`
	Note     *string `json:"note"`
}

// UpdateLevelStatusRequest records one level's decision.
type UpdateLevelStatusRequest struct {
	Level    string  `json:"level" binding:"required"`
	Status   string  `json:"status" binding:"required"`
	Feedback *string `json:"feedback"`
}

// BulkUpdateStatusRequest applies one decision to many requests.
type BulkUpdateStatusRequest struct {
	RequestIDs []string `json:"request_ids" binding:"required,min=1"`
	Level      string   `json:"level" binding:"required"`
	Status     string   `json:"status" binding:"required"`
	Feedback   *string  `json:"feedback"`
}

// ConfirmDeliveryRequest confirms receipt of an accepted request.
type ConfirmDeliveryRequest struct {
	Note *string `json:"note"`
}

// CreateProductRequest publishes a product.
type CreateProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category" binding:"required"`
	SubCategory  *string `json:"sub_category"`
	Amount       int     `json:"amount"`
	Unit         string  `json:"unit" binding:"required"`
	Price        float64 `json:"price"`
	Description  *string `json:"description"`
	Manufacturer *string `json:"manufacturer"`
	ExpiryDate   *string `json:"expiry_date"`
}

// UpdateProductRequest edits a product owned by the caller.
type UpdateProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category" binding:"required"`
	SubCategory  *string `json:"sub_category"`
	Amount       int     `json:"amount"`
	Unit         string  `json:"unit" binding:"required"`
	Price        float64 `json:"price"`
	Description  *string `json:"description"`
	Manufacturer *string `json:"manufacturer"`
	ExpiryDate   *string `json:"expiry_date"`
}

// CreateReportRequest files a complaint against an administrator.
type CreateReportRequest struct {
	ReportedAdminID string  `json:"reported_admin_id" binding:"required,uuid"`
	ReportType      string  `json:"report_type" binding:"required"`
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description" binding:"required"`
	Evidence        *string `json:"evidence"`
	Priority        string  `json:"priority"`
}

// UpdateReportStatusRequest moves a report through its lifecycle.
type UpdateReportStatusRequest struct {
	Status          string  `json:"status" binding:"required"`
	ResolutionNotes *string `json:"resolution_notes"`
}
