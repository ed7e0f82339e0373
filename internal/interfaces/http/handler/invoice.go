package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	invoicingapp "github.com/billkit/backend/internal/application/invoicing"
	"github.com/billkit/backend/internal/domain/invoicing"
	"github.com/billkit/backend/internal/domain/shared/valueobject"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService     *invoicingapp.InvoiceService
	generateMiddleware []gin.HandlerFunc
}

// NewInvoiceHandler creates a new InvoiceHandler. Optional middleware is
// applied to the generation route only, ahead of the handler.
func NewInvoiceHandler(invoiceService *invoicingapp.InvoiceService, generateMiddleware ...gin.HandlerFunc) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:     invoiceService,
		generateMiddleware: generateMiddleware,
	}
}

// GenerateInvoiceRequest represents a request to generate an invoice
// @Description Request body for generating an invoice for an account
type GenerateInvoiceRequest struct {
	TargetDate string `json:"target_date" binding:"required,billingdate" example:"2025-08-07"`
	DryRun     bool   `json:"dry_run" example:"false"`
}

// InvoiceItemResponse represents an invoice item in API responses
type InvoiceItemResponse struct {
	ID             string           `json:"id"`
	Kind           string           `json:"kind"`
	SubscriptionID *string          `json:"subscription_id,omitempty"`
	BundleID       *string          `json:"bundle_id,omitempty"`
	PlanName       string           `json:"plan_name,omitempty"`
	PhaseName      string           `json:"phase_name,omitempty"`
	StartDate      string           `json:"start_date"`
	EndDate        *string          `json:"end_date,omitempty"`
	Amount         decimal.Decimal  `json:"amount"`
	Rate           *decimal.Decimal `json:"rate,omitempty"`
	Currency       string           `json:"currency"`
	LinkedItemID   *string          `json:"linked_item_id,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID          string                `json:"id"`
	AccountID   string                `json:"account_id"`
	InvoiceDate string                `json:"invoice_date"`
	TargetDate  string                `json:"target_date"`
	Currency    string                `json:"currency"`
	Balance     decimal.Decimal       `json:"balance"`
	Items       []InvoiceItemResponse `json:"items"`
}

func toInvoiceResponse(invoice *invoicing.Invoice) InvoiceResponse {
	items := invoice.Items()
	resp := InvoiceResponse{
		ID:          invoice.ID.String(),
		AccountID:   invoice.AccountID.String(),
		InvoiceDate: invoice.InvoiceDate.String(),
		TargetDate:  invoice.TargetDate.String(),
		Currency:    string(invoice.Currency),
		Balance:     invoice.Balance(),
		Items:       make([]InvoiceItemResponse, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = toInvoiceItemResponse(item)
	}
	return resp
}

func toInvoiceItemResponse(item invoicing.InvoiceItem) InvoiceItemResponse {
	resp := InvoiceItemResponse{
		ID:        item.ID.String(),
		Kind:      string(item.Kind),
		PlanName:  item.PlanName,
		PhaseName: item.PhaseName,
		StartDate: item.StartDate.String(),
		Amount:    item.Amount,
		Rate:      item.Rate,
		Currency:  string(item.Currency),
	}
	if item.SubscriptionID != nil {
		id := item.SubscriptionID.String()
		resp.SubscriptionID = &id
	}
	if item.BundleID != nil {
		id := item.BundleID.String()
		resp.BundleID = &id
	}
	if item.EndDate != nil {
		end := item.EndDate.String()
		resp.EndDate = &end
	}
	if item.LinkedItemID != nil {
		id := item.LinkedItemID.String()
		resp.LinkedItemID = &id
	}
	return resp
}

// Generate godoc
// @Summary      Generate an invoice
// @Description  Recompute charges up to the target date and invoice the delta against what was already billed
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID"
// @Param        request body GenerateInvoiceRequest true "Invoice generation request"
// @Success      201 {object} dto.Response{data=InvoiceResponse}
// @Success      204 "Nothing to invoice"
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounts/{id}/invoices [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	targetDate, err := valueobject.ParseDate(req.TargetDate)
	if err != nil {
		h.BadRequest(c, "Invalid target date, expected YYYY-MM-DD")
		return
	}

	invoice, err := h.invoiceService.GenerateInvoice(c.Request.Context(), invoicingapp.GenerateInvoiceRequest{
		AccountID:  accountID,
		TargetDate: targetDate,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if invoice == nil {
		h.NoContent(c)
		return
	}

	h.Created(c, toInvoiceResponse(invoice))
}

// Get godoc
// @Summary      Get an invoice
// @Description  Get an invoice with its items by id
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response{data=InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toInvoiceResponse(invoice))
}

// ListByAccount godoc
// @Summary      List account invoices
// @Description  List all invoices of an account, oldest first
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Account ID"
// @Success      200 {object} dto.Response{data=[]InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /accounts/{id}/invoices [get]
func (h *InvoiceHandler) ListByAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	invoices, err := h.invoiceService.ListInvoices(c.Request.Context(), accountID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	resp := make([]InvoiceResponse, len(invoices))
	for i, invoice := range invoices {
		resp[i] = toInvoiceResponse(invoice)
	}
	h.Success(c, resp)
}

// RegisterRoutes registers invoice routes on the given router group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	generate := append(append([]gin.HandlerFunc{}, h.generateMiddleware...), h.Generate)
	rg.POST("/accounts/:id/invoices", generate...)
	rg.GET("/accounts/:id/invoices", h.ListByAccount)
	rg.GET("/invoices/:id", h.Get)
}
