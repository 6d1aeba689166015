package tradein

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/internal/payments"
	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
)

// Input describes a device handed over as part of payment.
type Input struct {
	IMEI    string
	Brand   string
	Model   string
	Color   string
	Storage string
	Battery int

	Valuation decimal.Decimal
	Currency  enums.Currency
	FxRate    decimal.Decimal
	Notes     string
}

// Service takes trade-in devices into stock and credits their
// valuation against the sale's receivable.
type Service struct {
	ledger *payments.Ledger
}

func NewService(ledger *payments.Ledger) *Service {
	return &Service{ledger: ledger}
}

// Intake runs on the sale transaction: the received device enters
// stock in the drawer (pending inspection), and a trade_in ledger
// entry credits its valuation.
func (s *Service) Intake(ctx context.Context, tx *gorm.DB, sale *models.Sale, in Input) (*models.TradeIn, error) {
	imei := strings.TrimSpace(in.IMEI)
	if imei == "" {
		return nil, errors.New(errors.CodeValidation, "trade-in IMEI is required")
	}
	if !in.Valuation.IsPositive() {
		return nil, errors.New(errors.CodeValidation, "trade-in valuation must be positive")
	}

	unit := &models.StockItem{
		IMEI:         imei,
		Brand:        in.Brand,
		Model:        in.Model,
		Color:        in.Color,
		Storage:      in.Storage,
		Battery:      in.Battery,
		Status:       enums.StockDrawer,
		CostPrice:    in.Valuation,
		ListPrice:    in.Valuation,
		Observations: in.Notes,
	}
	if err := tx.WithContext(ctx).Create(unit).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.New(errors.CodeConflict, "trade-in device is already in stock").
				WithDetails(map[string]string{"imei": imei})
		}
		return nil, errors.Wrap(errors.CodeDependency, err, "create trade-in stock unit")
	}

	entries, err := s.ledger.Register(ctx, tx, sale, []payments.EntryInput{{
		Method:     enums.PaymentTradeIn,
		Currency:   in.Currency,
		Amount:     in.Valuation,
		FxRate:     in.FxRate,
		Reference:  "trade-in " + imei,
		Note:       in.Notes,
		RecordedBy: sale.SellerID,
	}})
	if err != nil {
		return nil, err
	}

	record := &models.TradeIn{
		SaleID:      sale.ID,
		StockItemID: unit.ID,
		PaymentID:   entries[0].ID,
		Valuation:   in.Valuation,
		Currency:    in.Currency,
	}
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "create trade-in record")
	}
	return record, nil
}
