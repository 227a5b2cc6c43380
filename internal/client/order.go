package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/freshmart/review-service/pkg/errors"
	"github.com/freshmart/review-service/pkg/httpclient"
)

// Order status values as reported by the order service.
const (
	OrderStatusDelivered = "delivered"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// OrderItem is a line item within an order.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CustomerInfo holds the contact details attached to an order.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is the subset of the order service's order representation that the
// review service needs for eligibility checks and snapshots.
type Order struct {
	ID           int64         `json:"id"`
	CustomerID   int64         `json:"customer_id"`
	Status       string        `json:"status"`
	Items        []OrderItem   `json:"items"`
	CustomerInfo *CustomerInfo `json:"customer_info,omitempty"`
}

// ContainsProduct reports whether the order includes the given product.
func (o *Order) ContainsProduct(productID int64) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// OrderClient talks to the order service over HTTP.
type OrderClient struct {
	httpClient HTTPDoer
	baseURL    string
	logger     *slog.Logger
}

// NewOrderClient creates a new order service client.
func NewOrderClient(httpClient HTTPDoer, baseURL string, logger *slog.Logger) *OrderClient {
	return &OrderClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// ListByCustomer returns all orders placed by the given customer.
func (c *OrderClient) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	url := fmt.Sprintf("%s/api/v1/orders?customer_id=%d", c.baseURL, customerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create list orders request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "order")
	}

	var envelope struct {
		Data []Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode orders response: %w", err)
	}

	c.logger.DebugContext(ctx, "fetched customer orders",
		slog.Int64("customer_id", customerID),
		slog.Int("count", len(envelope.Data)),
	)

	return envelope.Data, nil
}

// GetByID returns a single order or apperrors.ErrNotFound.
func (c *OrderClient) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	url := fmt.Sprintf("%s/api/v1/orders/%d", c.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create get order request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call order service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("order", orderID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "order")
	}

	var envelope struct {
		Data Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	return &envelope.Data, nil
}
