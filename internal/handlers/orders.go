package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"shoply/internal/events"
	"shoply/internal/models"
	"shoply/internal/store"
)

type createOrderItemRequest struct {
	Product  string          `json:"product" binding:"required"`
	Quantity int             `json:"quantity" binding:"required,gt=0"`
	Price    decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	Items []createOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type orderItemResponse struct {
	ID          string `json:"id"`
	Product     string `json:"product"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	User       string              `json:"user"`
	CreatedAt  time.Time           `json:"created_at"`
	TotalPrice string              `json:"total_price"`
	IsPaid     bool                `json:"is_paid"`
	Items      []orderItemResponse `json:"items"`
}

// CreateOrder places an order for the authenticated user. Each item carries
// the unit price the client saw; the store snapshots it on the order item
// and computes the total. Validation failures, unknown products and stock
// shortages all reject the whole order with nothing committed.
func CreateOrder(orders OrderStore, users UserStore, producer OrderEvents, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		lines := make([]store.OrderLine, 0, len(req.Items))
		for _, item := range req.Items {
			productID, err := uuid.Parse(item.Product)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid product id")
				return
			}
			lines = append(lines, store.OrderLine{
				ProductID: productID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}

		ctx := c.Request.Context()
		order, err := orders.Place(ctx, userID, lines)
		if err != nil {
			var stockErr store.InsufficientStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "Insufficient stock for " + stockErr.ProductName,
					"product":   stockErr.ProductID.String(),
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			var notFoundErr store.ProductNotFoundError
			if errors.As(err, &notFoundErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":   "Product not found",
					"product": notFoundErr.ProductID.String(),
				})
				return
			}
			var validationErr store.ValidationError
			if errors.As(err, &validationErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		publishOrderCreated(producer, serviceName, c.GetHeader("X-Request-Id"), order)

		log.Println("[ORDER] [INFO] order created for user:", user.Username)
		c.JSON(http.StatusCreated, toOrderResponse(order, user.Username))
	}
}

// GetOrders lists the authenticated user's orders.
func GetOrders(orders OrderStore, users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := c.Request.Context()
		user, err := users.FindByID(ctx, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		list, err := orders.ListByUser(ctx, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		out := make([]orderResponse, 0, len(list))
		for i := range list {
			out = append(out, toOrderResponse(&list[i], user.Username))
		}
		c.JSON(http.StatusOK, out)
	}
}

// GetOrderDetail returns one order. An order belonging to another user is
// reported as not found.
func GetOrderDetail(orders OrderStore, users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid order id")
			return
		}

		ctx := c.Request.Context()
		order, err := orders.FindForUser(ctx, orderID, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		user, err := users.FindByID(ctx, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, toOrderResponse(order, user.Username))
	}
}

func toOrderResponse(o *models.Order, username string) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ID:          it.ID.String(),
			Product:     it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			Price:       it.Price.StringFixed(2),
		})
	}
	return orderResponse{
		ID:         o.ID.String(),
		User:       username,
		CreatedAt:  o.CreatedAt,
		TotalPrice: o.TotalPrice.StringFixed(2),
		IsPaid:     o.IsPaid,
		Items:      items,
	}
}

func publishOrderCreated(producer OrderEvents, serviceName, traceID string, order *models.Order) {
	if producer == nil {
		return
	}

	items := make([]events.OrderCreatedItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, events.OrderCreatedItem{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			Price:     it.Price.StringFixed(2),
		})
	}

	ev := events.Envelope{
		EventID:       uuid.NewString(),
		EventType:     events.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      serviceName,
		TraceID:       traceID,
		CorrelationID: order.ID.String(),
	}
	ev.Payload = events.MustMarshal(events.OrderCreatedPayload{
		OrderID:    order.ID.String(),
		UserID:     order.UserID.String(),
		Items:      items,
		TotalPrice: order.TotalPrice.StringFixed(2),
	})

	producer.Publish(events.PartitionKey(order.ID.String()), events.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(events.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
