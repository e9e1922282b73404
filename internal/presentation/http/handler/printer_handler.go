package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/application/service"
	"github.com/sangkips/kitchen-pos/internal/domain/repository"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/kitchen-pos/pkg/apperror"
	"github.com/sangkips/kitchen-pos/pkg/pagination"
	"github.com/sangkips/kitchen-pos/pkg/printer"
)

// PrinterHandler handles receipt printing requests.
type PrinterHandler struct {
	printerService *service.PrinterService
	auditService   *service.PrintAuditService
	pages          *printer.BrowserSurface
}

// NewPrinterHandler creates a new printer handler. pages serves the
// browser fallback and may be nil when another surface is configured.
func NewPrinterHandler(printerService *service.PrinterService, auditService *service.PrintAuditService, pages *printer.BrowserSurface) *PrinterHandler {
	return &PrinterHandler{
		printerService: printerService,
		auditService:   auditService,
		pages:          pages,
	}
}

// GetStatus returns the print policy and the printers detected now.
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	response.OK(c, "Printer status retrieved", h.printerService.GetStatus(c.Request.Context()))
}

// TestPrint prints a sample receipt.
func (h *PrinterHandler) TestPrint(c *gin.Context) {
	var req request.TestPrintRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request: "+err.Error())
			return
		}
	}
	strategy, err := service.ParseStrategy(req.Strategy)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.printerService.TestPrint(c.Request.Context(), service.PrintOptions{
		Strategy:    strategy,
		RequestedBy: GetUserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPrintResult(c, result, "Test receipt printed")
}

// PrintReceipt prints an existing order.
func (h *PrinterHandler) PrintReceipt(c *gin.Context) {
	var req request.PrintReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	id, err := uuid.Parse(req.OrderID)
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return
	}
	strategy, err := service.ParseStrategy(req.Strategy)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.printerService.PrintOrderByID(c.Request.Context(), id, service.PrintOptions{
		Strategy:    strategy,
		ByCategory:  req.ByCategory,
		Config:      toReceiptConfig(req.Config),
		RequestedBy: GetUserID(c),
		Source:      "api",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPrintResult(c, result, "Receipt printed")
}

// respondPrintResult reports the per-job results. A partial success is a 207
// so the POS can offer to reprint the failed categories; a total failure
// takes the status of the first failed job's error kind.
func respondPrintResult(c *gin.Context, result *service.PrintResult, okMessage string) {
	switch result.State {
	case service.StateSucceeded:
		response.OK(c, okMessage, result)
	case service.StatePartiallySucceeded:
		response.Failure(c, http.StatusMultiStatus, "Some receipts could not be printed", result)
	default:
		kind := printer.KindUnknown
		for _, key := range result.Jobs {
			if r := result.Results[key]; !r.Success && r.ErrorKind != "" {
				kind = r.ErrorKind
				break
			}
		}
		appErr := apperror.NewPrinterError(&printer.Error{Kind: kind})
		response.Failure(c, appErr.Code, appErr.Message, result)
	}
}

// Preview renders an order as the receipt document and fallback HTML.
func (h *PrinterHandler) Preview(c *gin.Context) {
	var req request.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	id, err := uuid.Parse(req.OrderID)
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return
	}

	preview, err := h.printerService.PreviewOrderByID(c.Request.Context(), id, toReceiptConfig(req.Config))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, "Receipt preview generated", preview)
}

// FallbackPage serves a page presented to the browser fallback surface.
func (h *PrinterHandler) FallbackPage(c *gin.Context) {
	if h.pages == nil {
		response.NotFound(c, "Print page not found")
		return
	}
	page, err := h.pages.Get(c.Param("id"))
	if errors.Is(err, printer.ErrPageNotFound) {
		response.NotFound(c, "Print page not found or expired")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page.HTML))
}

// ListAudits lists recorded print jobs, newest first.
func (h *PrinterHandler) ListAudits(c *gin.Context) {
	var req request.AuditFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query: "+err.Error())
		return
	}

	params := &repository.PrintAuditFilterParams{
		Pagination: &pagination.PaginationParams{Page: req.Page, PerPage: req.PerPage},
		Success:    req.Success,
	}
	if req.OrderID != "" {
		id, err := uuid.Parse(req.OrderID)
		if err != nil {
			response.BadRequest(c, "Invalid order ID format")
			return
		}
		params.OrderID = &id
	}

	result, err := h.auditService.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Print audits retrieved", result)
}
