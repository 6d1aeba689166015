package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	pkgpagination "github.com/azafe/MyPhone-Backend/pkg/pagination"
)

type ListParams struct {
	Status enums.SaleStatus
	pkgpagination.Params
}

type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

// ListItem is the flat listing view of a sale. Line items, payments
// and warranties are only loaded through Get.
type ListItem struct {
	ID               uuid.UUID              `json:"id"`
	CustomerID       uuid.UUID              `json:"customer_id"`
	SellerID         uuid.UUID              `json:"seller_id"`
	Status           enums.SaleStatus       `json:"status"`
	PaymentMethod    enums.PaymentMethod    `json:"payment_method"`
	Currency         enums.Currency         `json:"currency"`
	Total            decimal.Decimal        `json:"total"`
	ReceivableStatus enums.ReceivableStatus `json:"receivable_status"`
	AmountPaid       decimal.Decimal        `json:"amount_paid"`
	BalanceDue       decimal.Decimal        `json:"balance_due"`
	CancelledAt      *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

type listQuery struct {
	status enums.SaleStatus
	limit  int
	cursor *pkgpagination.Cursor
}

func toListItem(m models.Sale) ListItem {
	return ListItem{
		ID:               m.ID,
		CustomerID:       m.CustomerID,
		SellerID:         m.SellerID,
		Status:           m.Status,
		PaymentMethod:    m.PaymentMethod,
		Currency:         m.Currency,
		Total:            m.Total,
		ReceivableStatus: m.ReceivableStatus,
		AmountPaid:       m.AmountPaid,
		BalanceDue:       m.BalanceDue,
		CancelledAt:      m.CancelledAt,
		CreatedAt:        m.CreatedAt,
	}
}
