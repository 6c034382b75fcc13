package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/liormulay/order-processing-system/internal/domain"
	"github.com/liormulay/order-processing-system/internal/service/intake"
)

// OrderHandler — тонкий HTTP-слой над этапом приёма заказов: разбор запроса,
// трансляция в Submit/Status и форматирование ответа. Дизайна здесь нет,
// вся логика живёт в intake.Service.
type OrderHandler struct {
	svc    *intake.Service
	logger *log.Entry
}

// NewOrderHandler создаёт HTTP-обработчик заказов.
func NewOrderHandler(svc *intake.Service, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.WithField("component", "order-handler")
	}
	return &OrderHandler{svc: svc, logger: logger}
}

// RegisterRoutes регистрирует маршруты заказов.
func (h *OrderHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders/:orderId", h.GetOrderStatus)
}

type orderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Category  string `json:"category" binding:"required"`
}

type createOrderRequest struct {
	CustomerName string             `json:"customerName" binding:"required"`
	Items        []orderItemRequest `json:"items" binding:"required,min=1,dive"`
	RequestedAt  time.Time          `json:"requestedAt" binding:"required"`
}

// CreateOrder принимает заказ. Ответ — подтверждение приёма в обработку,
// а не завершения: проверка склада произойдёт асинхронно.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("invalid order request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Category:  item.Category,
		})
	}

	orderID, err := h.svc.Submit(c.Request.Context(), req.CustomerName, items, req.RequestedAt)
	if err != nil {
		h.logger.WithError(err).Error("failed to process order")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process order",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"orderId": orderID,
		"status":  domain.OrderStatusPending,
		"message": "Order received and being processed",
	})
}

// GetOrderStatus возвращает текущий статус заказа. Неизвестный или истёкший
// идентификатор — 404.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	orderID := c.Param("orderId")

	status, err := h.svc.Status(c.Request.Context(), orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return
		}

		h.logger.WithError(err).WithField("order_id", orderID).Error("failed to retrieve order status")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve order status",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orderId": orderID,
		"status":  status,
	})
}
