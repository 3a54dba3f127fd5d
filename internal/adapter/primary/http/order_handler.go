package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/paybridge/wechat-bridge/internal/core/service"
	"github.com/paybridge/wechat-bridge/internal/core/session"
	"github.com/paybridge/wechat-bridge/internal/port/input"
	"github.com/paybridge/wechat-bridge/internal/port/output"
)

// OrderHandler is a primary adapter (HTTP handler)
type OrderHandler struct {
	orderService input.OrderService
	reconciler   *service.Reconciler
	registry     *session.Registry
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService input.OrderService, reconciler *service.Reconciler, registry *session.Registry) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		reconciler:   reconciler,
		registry:     registry,
	}
}

// CreateOrderRequest represents the HTTP request to initiate an order
type CreateOrderRequest struct {
	OrderID          string `json:"order_id"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Description      string `json:"description"`
	NotifyURL        string `json:"notify_url"`
}

// OrderResponse represents the HTTP response for an initiated order
type OrderResponse struct {
	OrderID   string `json:"order_id"`
	CodeURL   string `json:"code_url,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// OrderStatusResponse represents the HTTP response for a status poll
type OrderStatusResponse struct {
	OrderID          string `json:"order_id"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// CreateOrder handles order initiation
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	// Convert to service request; waiters attach through the event
	// stream, not at creation time
	serviceReq := input.InitiateOrderRequest{
		OrderID:          req.OrderID,
		AmountMinorUnits: req.AmountMinorUnits,
		Description:      req.Description,
		NotifyURL:        req.NotifyURL,
	}

	// Call service (input port)
	response, err := h.orderService.InitiateOrder(c.Request().Context(), serviceReq)
	if err != nil {
		var gwErr *output.GatewayError
		if errors.As(err, &gwErr) {
			return c.JSON(http.StatusBadGateway, map[string]string{
				"error": gwErr.Error(),
			})
		}
		if strings.Contains(err.Error(), "must be") ||
			strings.Contains(err.Error(), "is required") ||
			strings.Contains(err.Error(), "length") {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		if strings.Contains(err.Error(), "already exists") {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create order",
		})
	}

	// Convert to HTTP response
	httpResponse := OrderResponse{
		OrderID:   response.OrderID,
		CodeURL:   response.CodeURL,
		Status:    string(response.Status),
		CreatedAt: response.CreatedAt.Format(time.RFC3339),
	}

	return c.JSON(http.StatusCreated, httpResponse)
}

// GetOrder handles order status polling. It is also the fallback for a
// client whose waiter connected after the notification already arrived.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id := c.Param("id")

	// Call service (input port)
	response, err := h.orderService.GetOrder(id)
	if err != nil {
		if errors.Is(err, output.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Order not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to retrieve order",
		})
	}

	httpResponse := OrderStatusResponse{
		OrderID:          response.OrderID,
		AmountMinorUnits: response.AmountMinorUnits,
		Description:      response.Description,
		Status:           string(response.Status),
		CreatedAt:        response.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        response.UpdatedAt.Format(time.RFC3339),
	}

	return c.JSON(http.StatusOK, httpResponse)
}

// StreamOutcome registers the connecting client as the order's waiter and
// streams the resolved outcome as a single server-sent event. The waiter
// is deregistered on disconnect, so a later push is a clean miss.
func (h *OrderHandler) StreamOutcome(c echo.Context) error {
	orderID := c.Param("id")

	sink := session.NewChannelSink()
	h.registry.Register(orderID, sink)
	defer h.registry.Deregister(orderID, sink)
	defer sink.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	select {
	case message, ok := <-sink.Outcomes():
		if !ok {
			return nil
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", message); err != nil {
			return nil
		}
		resp.Flush()
	case <-c.Request().Context().Done():
		// Client went away; deregistration happens on unwind
	}
	return nil
}

// Callback is the inbound notification endpoint. The gateway retries any
// response it cannot parse as a success acknowledgement, on its own
// schedule.
func (h *OrderHandler) Callback(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	ack, err := h.reconciler.Reconcile(body)
	if err != nil {
		var decodeErr *output.DecodeError
		if errors.As(err, &decodeErr) || errors.Is(err, output.ErrBadSignature) {
			log.Printf("Rejected notification: %v", err)
			return c.NoContent(http.StatusBadRequest)
		}
		var conflictErr *service.ConflictError
		if errors.As(err, &conflictErr) {
			// Never acknowledge a conflicting outcome; the gateway
			// gives up after its retry schedule is exhausted
			log.Printf("Conflicting notification: %v", conflictErr)
			return c.NoContent(http.StatusOK)
		}
		log.Printf("Reconciliation failed: %v", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	// A FAIL outcome is answered with an empty body
	if ack == nil {
		return c.NoContent(http.StatusOK)
	}
	return c.Blob(http.StatusOK, "text/xml; charset=utf-8", ack)
}
