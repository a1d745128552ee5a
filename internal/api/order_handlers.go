package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"orderdesk/internal/models"
	"orderdesk/internal/services"
)

func (s *Server) handleListOrders(c *gin.Context) {
	filter := services.ListFilter{
		SchemaID: c.Query("schemaId"),
		Status:   models.OrderStatus(c.Query("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	}
	filter.Limit = intQuery(c, "limit")
	filter.Offset = intQuery(c, "offset")
	orders, err := s.Orders.List(c.Request.Context(), currentMerchant(c), filter)
	if err != nil {
		s.Log.WithError(err).Error("list orders failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"items": orders})
}

type orderRequest struct {
	SchemaID string         `json:"schemaId"`
	Data     map[string]any `json:"data"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	if req.SchemaID == "" || len(req.Data) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}
	merchantID := currentMerchant(c)
	if err := s.Schemas.SchemaOwnedBy(c.Request.Context(), req.SchemaID, merchantID); err != nil {
		if errors.Is(err, models.ErrSchemaNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "schema_not_found_or_unauthorized"})
			return
		}
		s.Log.WithError(err).Error("schema lookup failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}
	order, err := s.Orders.Create(c.Request.Context(), req.SchemaID, merchantID, req.Data)
	if err != nil {
		s.Log.WithError(err).Error("create order failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) handleAdvanceOrder(c *gin.Context) {
	order, err := s.Orders.AdvanceStatus(c.Request.Context(), c.Param("id"), currentMerchant(c))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOrderNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
		case errors.Is(err, models.ErrStatusFinal):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "status_final"})
		default:
			s.Log.WithError(err).Error("advance order failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		}
		return
	}
	s.notifyStatusChange(c, order)
	c.JSON(http.StatusOK, order)
}

func (s *Server) handleDeleteOrder(c *gin.Context) {
	if err := s.Orders.Delete(c.Request.Context(), c.Param("id"), currentMerchant(c)); err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "order_not_found"})
			return
		}
		s.Log.WithError(err).Error("delete order failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// notifyStatusChange sends a WhatsApp update to the customer when the order
// carries a phone-bearing field. Delivery failure never fails the request.
func (s *Server) notifyStatusChange(c *gin.Context, order *models.Order) {
	if s.Notifier == nil {
		return
	}
	phone := phoneFromData(order.Data)
	if phone == "" {
		return
	}
	body := fmt.Sprintf("Your order is now %s.", order.Status)
	if err := s.Notifier.Send(c.Request.Context(), phone, body); err != nil {
		s.Log.WithError(err).WithField("orderId", order.ID).Warn("status notification failed")
	}
}

// phoneFromData picks the first phone-like field from the record data.
func phoneFromData(data map[string]any) string {
	for _, key := range []string{"customer_phone", "phone", "phone_number"} {
		if value, ok := data[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func intQuery(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
