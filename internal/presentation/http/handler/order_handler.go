package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/kitchen-pos/internal/application/service"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/kitchen-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/kitchen-pos/pkg/apperror"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Checkout saves the cart as an order and prints it. The response always
// carries clear_current_order so the POS knows whether to reset the cart.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req request.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	strategy, err := service.ParseStrategy(req.Strategy)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	input := &service.CheckoutInput{
		PhoneNumber: req.PhoneNumber,
		SkipPrint:   req.SkipPrint,
		Print: service.PrintOptions{
			Strategy:   strategy,
			ByCategory: req.ByCategory,
		},
	}
	if userID := GetUserID(c); userID != nil {
		input.UserID = *userID
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			ItemID:    it.ItemID,
			Name:      it.Name,
			ShortName: it.ShortName,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Category:  it.Category,
		})
	}

	result, err := h.orderService.Checkout(c.Request.Context(), input)
	if errors.Is(err, apperror.ErrOrderCreationFailed) {
		appErr := apperror.GetAppError(err)
		response.Failure(c, appErr.Code, appErr.Message, gin.H{"clear_current_order": false})
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Order created"
	switch {
	case result.Print == nil && result.PrintError == "":
	case result.PrintError != "" || result.Print.State == service.StateFailed:
		message = "Order created but the receipt could not be printed"
	case result.Print.State == service.StatePartiallySucceeded:
		message = "Order created but some receipts could not be printed"
	default:
		message = "Order created and receipt printed"
	}
	response.Created(c, message, result)
}

// Get retrieves an order by ID
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", order)
}

// GetByNumber retrieves an order by its order number
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	order, err := h.orderService.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order retrieved successfully", order)
}

// UpdateStatus moves an order through the kitchen workflow
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return
	}
	var req request.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}
	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order status updated successfully", order)
}
