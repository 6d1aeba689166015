package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/azafe/MyPhone-Backend/internal/customers"
	"github.com/azafe/MyPhone-Backend/internal/payments"
	"github.com/azafe/MyPhone-Backend/internal/tradein"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
)

// ItemInput is one serialized unit on an incoming sale. Quantity is
// implicitly 1; requests carrying any other quantity are rejected.
type ItemInput struct {
	StockItemID uuid.UUID
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	// WarrantyDays overrides the unit's default coverage; 0 keeps the
	// unit's own warranty_days.
	WarrantyDays int
}

// CreateInput is the full payload of a new sale.
type CreateInput struct {
	ActorID uuid.UUID

	SaleDate time.Time
	Customer customers.Input

	Currency      enums.Currency
	FxRate        decimal.Decimal
	PaymentMethod enums.PaymentMethod

	Items    []ItemInput
	Payments []payments.EntryInput
	TradeIns []tradein.Input

	Discount decimal.Decimal
	// DeclaredTotal is the client's expected total; nil skips the
	// cross-check and the server-computed total stands.
	DeclaredTotal *decimal.Decimal
	// Deposit caps the synthesized payment when no explicit entries are
	// given; zero means the full total is taken as paid.
	Deposit decimal.Decimal

	Observations string
}

// UpdateInput patches an existing sale. Nil fields are left untouched;
// a non-nil Items slice replaces the item set wholesale.
type UpdateInput struct {
	ActorID uuid.UUID

	SaleDate      *time.Time
	Customer      *customers.Input
	Items         []ItemInput
	PaymentMethod *enums.PaymentMethod
	Currency      *enums.Currency
	FxRate        *decimal.Decimal
	Discount      *decimal.Decimal
	DeclaredTotal *decimal.Decimal
	Observations  *string
}

// CancelInput describes who cancelled a sale and why.
type CancelInput struct {
	ActorID uuid.UUID
	Reason  string
}

// PaymentInput registers ledger entries against an existing sale.
type PaymentInput struct {
	ActorID uuid.UUID
	Entries []payments.EntryInput
}

// SettleInput clears whatever balance remains with one entry.
type SettleInput struct {
	ActorID  uuid.UUID
	Method   enums.PaymentMethod
	Currency enums.Currency
	FxRate   decimal.Decimal
	Note     string
}
