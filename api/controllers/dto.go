package controllers

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/azafe/MyPhone-Backend/internal/customers"
	"github.com/azafe/MyPhone-Backend/internal/payments"
	"github.com/azafe/MyPhone-Backend/internal/sales"
	"github.com/azafe/MyPhone-Backend/internal/tradein"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	pkgerrors "github.com/azafe/MyPhone-Backend/pkg/errors"
)

// Money travels as strings on the wire so clients cannot lose cents to
// float encoding.

type customerRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,max=128"`
	Phone string `json:"phone" validate:"required,max=32"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	DNI   string `json:"dni,omitempty" validate:"omitempty,max=32"`
}

type saleItemRequest struct {
	StockItemID  string `json:"stock_item_id" validate:"required,uuid"`
	Description  string `json:"description,omitempty" validate:"omitempty,max=255"`
	Quantity     int    `json:"quantity" validate:"required,eq=1"`
	UnitPrice    string `json:"unit_price" validate:"required"`
	WarrantyDays int    `json:"warranty_days,omitempty" validate:"omitempty,min=1,max=1095"`
}

type paymentEntryRequest struct {
	Method       string `json:"method" validate:"required,oneof=cash transfer card mixed trade_in"`
	Currency     string `json:"currency" validate:"required,oneof=ARS USD"`
	Amount       string `json:"amount" validate:"required"`
	FxRate       string `json:"fx_rate,omitempty"`
	Installments int    `json:"installments,omitempty" validate:"omitempty,min=1,max=24"`
	SurchargePct string `json:"surcharge_pct,omitempty"`
	Reference    string `json:"reference,omitempty" validate:"omitempty,max=128"`
	Note         string `json:"note,omitempty"`
}

type tradeInRequest struct {
	IMEI      string `json:"imei" validate:"required,max=32"`
	Brand     string `json:"brand,omitempty" validate:"omitempty,max=64"`
	Model     string `json:"model,omitempty" validate:"omitempty,max=128"`
	Color     string `json:"color,omitempty" validate:"omitempty,max=64"`
	Storage   string `json:"storage,omitempty" validate:"omitempty,max=32"`
	Battery   int    `json:"battery,omitempty" validate:"omitempty,min=0,max=100"`
	Valuation string `json:"valuation" validate:"required"`
	Currency  string `json:"currency" validate:"required,oneof=ARS USD"`
	FxRate    string `json:"fx_rate,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type createSaleRequest struct {
	SaleDate      string                `json:"sale_date" validate:"required"`
	Customer      customerRequest       `json:"customer" validate:"required"`
	Currency      string                `json:"currency" validate:"required,oneof=ARS USD"`
	FxRate        string                `json:"fx_rate,omitempty"`
	PaymentMethod string                `json:"payment_method" validate:"required,oneof=cash transfer card mixed trade_in"`
	Items         []saleItemRequest     `json:"items" validate:"required,min=1,dive"`
	Payments      []paymentEntryRequest `json:"payments,omitempty" validate:"omitempty,dive"`
	TradeIns      []tradeInRequest      `json:"trade_ins,omitempty" validate:"omitempty,dive"`
	Discount      string                `json:"discount,omitempty"`
	Deposit       string                `json:"deposit,omitempty"`
	Total         string                `json:"total,omitempty"`
	Observations  string                `json:"observations,omitempty"`
}

type updateSaleRequest struct {
	SaleDate      *string           `json:"sale_date,omitempty"`
	Customer      *customerRequest  `json:"customer,omitempty"`
	Items         []saleItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
	PaymentMethod *string           `json:"payment_method,omitempty" validate:"omitempty,oneof=cash transfer card mixed trade_in"`
	Currency      *string           `json:"currency,omitempty" validate:"omitempty,oneof=ARS USD"`
	FxRate        *string           `json:"fx_rate,omitempty"`
	Discount      *string           `json:"discount,omitempty"`
	Total         *string           `json:"total,omitempty"`
	Observations  *string           `json:"observations,omitempty"`
}

type cancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=255"`
}

type registerPaymentsRequest struct {
	Payments []paymentEntryRequest `json:"payments" validate:"required,min=1,dive"`
}

type settleSaleRequest struct {
	Method   string `json:"method" validate:"required,oneof=cash transfer card mixed trade_in"`
	Currency string `json:"currency" validate:"required,oneof=ARS USD"`
	FxRate   string `json:"fx_rate,omitempty"`
	Note     string `json:"note,omitempty"`
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a decimal string", field)).
			WithDetails(map[string]string{field: value})
	}
	return d, nil
}

func parseOptionalAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return parseAmount(field, value)
}

// parseDate accepts plain dates and full RFC 3339 timestamps.
func parseDate(field, value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a YYYY-MM-DD date", field)).
		WithDetails(map[string]string{field: value})
}

func (r createSaleRequest) toInput(actorID uuid.UUID) (sales.CreateInput, error) {
	in := sales.CreateInput{
		ActorID: actorID,
		Customer: customers.Input{
			Name:  r.Customer.Name,
			Phone: r.Customer.Phone,
			Email: r.Customer.Email,
			DNI:   r.Customer.DNI,
		},
		Currency:      enums.Currency(r.Currency),
		PaymentMethod: enums.PaymentMethod(r.PaymentMethod),
		Observations:  r.Observations,
	}

	var err error
	if in.SaleDate, err = parseDate("sale_date", r.SaleDate); err != nil {
		return in, err
	}
	if in.FxRate, err = parseOptionalAmount("fx_rate", r.FxRate); err != nil {
		return in, err
	}
	if in.Discount, err = parseOptionalAmount("discount", r.Discount); err != nil {
		return in, err
	}
	if in.Deposit, err = parseOptionalAmount("deposit", r.Deposit); err != nil {
		return in, err
	}
	if r.Total != "" {
		total, err := parseAmount("total", r.Total)
		if err != nil {
			return in, err
		}
		in.DeclaredTotal = &total
	}

	if in.Items, err = toItemInputs(r.Items); err != nil {
		return in, err
	}
	if in.Payments, err = toEntryInputs(r.Payments); err != nil {
		return in, err
	}

	for _, ti := range r.TradeIns {
		valuation, err := parseAmount("valuation", ti.Valuation)
		if err != nil {
			return in, err
		}
		fx, err := parseOptionalAmount("fx_rate", ti.FxRate)
		if err != nil {
			return in, err
		}
		in.TradeIns = append(in.TradeIns, tradein.Input{
			IMEI:      ti.IMEI,
			Brand:     ti.Brand,
			Model:     ti.Model,
			Color:     ti.Color,
			Storage:   ti.Storage,
			Battery:   ti.Battery,
			Valuation: valuation,
			Currency:  enums.Currency(ti.Currency),
			FxRate:    fx,
			Notes:     ti.Notes,
		})
	}
	return in, nil
}

func (r updateSaleRequest) toInput(actorID uuid.UUID) (sales.UpdateInput, error) {
	in := sales.UpdateInput{ActorID: actorID, Observations: r.Observations}

	var err error
	if r.SaleDate != nil {
		date, err := parseDate("sale_date", *r.SaleDate)
		if err != nil {
			return in, err
		}
		in.SaleDate = &date
	}
	if r.Customer != nil {
		in.Customer = &customers.Input{
			Name:  r.Customer.Name,
			Phone: r.Customer.Phone,
			Email: r.Customer.Email,
			DNI:   r.Customer.DNI,
		}
	}
	if r.PaymentMethod != nil {
		method := enums.PaymentMethod(*r.PaymentMethod)
		in.PaymentMethod = &method
	}
	if r.Currency != nil {
		currency := enums.Currency(*r.Currency)
		in.Currency = &currency
	}
	if r.FxRate != nil {
		fx, err := parseAmount("fx_rate", *r.FxRate)
		if err != nil {
			return in, err
		}
		in.FxRate = &fx
	}
	if r.Items != nil {
		if in.Items, err = toItemInputs(r.Items); err != nil {
			return in, err
		}
	}
	if r.Discount != nil {
		d, err := parseAmount("discount", *r.Discount)
		if err != nil {
			return in, err
		}
		in.Discount = &d
	}
	if r.Total != nil {
		total, err := parseAmount("total", *r.Total)
		if err != nil {
			return in, err
		}
		in.DeclaredTotal = &total
	}
	return in, nil
}

func toItemInputs(items []saleItemRequest) ([]sales.ItemInput, error) {
	out := make([]sales.ItemInput, 0, len(items))
	for _, item := range items {
		id, err := uuid.Parse(item.StockItemID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_item_id must be a uuid").
				WithDetails(map[string]string{"stock_item_id": item.StockItemID})
		}
		price, err := parseAmount("unit_price", item.UnitPrice)
		if err != nil {
			return nil, err
		}
		out = append(out, sales.ItemInput{
			StockItemID:  id,
			Description:  item.Description,
			Quantity:     item.Quantity,
			UnitPrice:    price,
			WarrantyDays: item.WarrantyDays,
		})
	}
	return out, nil
}

func toEntryInputs(entries []paymentEntryRequest) ([]payments.EntryInput, error) {
	out := make([]payments.EntryInput, 0, len(entries))
	for _, entry := range entries {
		amount, err := parseAmount("amount", entry.Amount)
		if err != nil {
			return nil, err
		}
		fx, err := parseOptionalAmount("fx_rate", entry.FxRate)
		if err != nil {
			return nil, err
		}
		surcharge, err := parseOptionalAmount("surcharge_pct", entry.SurchargePct)
		if err != nil {
			return nil, err
		}
		out = append(out, payments.EntryInput{
			Method:       enums.PaymentMethod(entry.Method),
			Currency:     enums.Currency(entry.Currency),
			Amount:       amount,
			FxRate:       fx,
			Installments: entry.Installments,
			SurchargePct: surcharge,
			Reference:    entry.Reference,
			Note:         entry.Note,
		})
	}
	return out, nil
}
