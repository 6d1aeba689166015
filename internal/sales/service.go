package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/azafe/MyPhone-Backend/internal/audit"
	"github.com/azafe/MyPhone-Backend/internal/customers"
	"github.com/azafe/MyPhone-Backend/internal/inventory"
	"github.com/azafe/MyPhone-Backend/internal/payments"
	"github.com/azafe/MyPhone-Backend/internal/tradein"
	"github.com/azafe/MyPhone-Backend/pkg/db"
	"github.com/azafe/MyPhone-Backend/pkg/db/models"
	"github.com/azafe/MyPhone-Backend/pkg/enums"
	"github.com/azafe/MyPhone-Backend/pkg/errors"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
	"github.com/azafe/MyPhone-Backend/pkg/metrics"
	"github.com/azafe/MyPhone-Backend/pkg/outbox"
	pkgpagination "github.com/azafe/MyPhone-Backend/pkg/pagination"
)

// Invalidator drops cached stock entries after units change state.
type Invalidator interface {
	Invalidate(ctx context.Context, imeis ...string)
}

// Service orchestrates the sale lifecycle. Every state change runs in
// one transaction: stock claims, ledger entries, warranties, audit
// entries and outbox events commit or roll back together.
type Service struct {
	client    *db.Client
	repo      *Repository
	locker    *inventory.Locker
	ledger    *payments.Ledger
	audit     *audit.Recorder
	customers *customers.Service
	tradeins  *tradein.Service
	emitter   *outbox.Emitter
	cache     Invalidator
}

func NewService(client *db.Client, emitter *outbox.Emitter, cache Invalidator) *Service {
	ledger := payments.NewLedger()
	return &Service{
		client:    client,
		repo:      NewRepository(client),
		locker:    inventory.NewLocker(),
		ledger:    ledger,
		audit:     audit.NewRecorder(),
		customers: customers.NewService(),
		tradeins:  tradein.NewService(ledger),
		emitter:   emitter,
		cache:     cache,
	}
}

func observe(op string, start time.Time, err error) {
	outcome := "ok"
	if typed := errors.As(err); typed != nil {
		outcome = string(typed.Code())
	} else if err != nil {
		outcome = string(errors.CodeInternal)
	}
	metrics.SaleOperations.WithLabelValues(op, outcome).Inc()
	metrics.SaleOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Get returns a sale with its items, payments and warranties.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return s.repo.GetFull(ctx, id)
}

// List returns a page of sales, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != "" && !params.Status.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown sale status %q", params.Status))
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		status: params.Status,
		limit:  pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}
	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

// Create validates, prices and persists a new sale atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) (sale *models.Sale, err error) {
	start := time.Now()
	defer func() { observe("create", start, err) }()

	if in.SaleDate.IsZero() {
		return nil, errors.New(errors.CodeValidation, "sale_date is required")
	}
	if !in.Currency.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown currency %q", in.Currency))
	}
	if !in.PaymentMethod.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown payment method %q", in.PaymentMethod))
	}
	if in.Deposit.IsNegative() {
		return nil, errors.New(errors.CodeValidation, "deposit cannot be negative")
	}

	fxRate := in.FxRate
	switch in.Currency {
	case enums.CurrencyUSD:
		if !fxRate.IsPositive() {
			return nil, errors.New(errors.CodeValidation, "fx_rate is required for USD sales")
		}
	case enums.CurrencyARS:
		if fxRate.IsZero() {
			fxRate = decimal.NewFromInt(1)
		}
		if fxRate.IsNegative() {
			return nil, errors.New(errors.CodeValidation, "fx_rate must be positive")
		}
	}

	subtotal, total, err := computeTotals(in.Items, in.Discount)
	if err != nil {
		return nil, err
	}
	if in.DeclaredTotal != nil {
		if err := checkDeclaredTotal(*in.DeclaredTotal, total); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	var imeis []string

	txErr := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		customer, err := s.customers.ResolveOrCreate(ctx, tx, in.Customer)
		if err != nil {
			return err
		}

		sale = &models.Sale{
			CustomerID:       customer.ID,
			SellerID:         in.ActorID,
			SaleDate:         in.SaleDate,
			Status:           enums.SaleCompleted,
			PaymentMethod:    in.PaymentMethod,
			Currency:         in.Currency,
			FxRateUsed:       fxRate,
			Subtotal:         subtotal,
			Discount:         in.Discount,
			Total:            total,
			Deposit:          in.Deposit,
			ReceivableStatus: enums.ReceivablePending,
			AmountPaid:       decimal.Zero,
			BalanceDue:       total,
			Observations:     in.Observations,
		}
		if err := tx.WithContext(ctx).Create(sale).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "insert sale")
		}

		unitIDs := make([]uuid.UUID, len(in.Items))
		for i, item := range in.Items {
			unitIDs[i] = item.StockItemID
		}
		claimed, err := s.locker.Claim(ctx, tx, sale.ID, unitIDs, now)
		if err != nil {
			return err
		}
		for _, unit := range claimed {
			imeis = append(imeis, unit.IMEI)
		}

		if err := s.createItems(ctx, tx, sale, in.Items, claimed, now); err != nil {
			return err
		}

		entries := in.Payments
		if len(entries) == 0 && len(in.TradeIns) == 0 && total.IsPositive() {
			// Walk-in default: the deposit (when partial) or the full
			// total is taken as paid in the sale's own currency.
			amount := total
			if in.Deposit.IsPositive() && in.Deposit.LessThan(total) {
				amount = in.Deposit
			}
			entries = []payments.EntryInput{{
				Method:   in.PaymentMethod,
				Currency: in.Currency,
				Amount:   amount,
			}}
		}
		for i := range entries {
			if entries[i].RecordedBy == uuid.Nil {
				entries[i].RecordedBy = in.ActorID
			}
		}
		if _, err := s.ledger.Register(ctx, tx, sale, entries); err != nil {
			return err
		}
		for _, ti := range in.TradeIns {
			if _, err := s.tradeins.Intake(ctx, tx, sale, ti); err != nil {
				return err
			}
		}

		if err := tx.WithContext(ctx).Save(sale).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "persist sale totals")
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    in.ActorID,
			Action:     enums.AuditActionSaleCreated,
			EntityType: "sale",
			EntityID:   sale.ID,
			Detail: map[string]any{
				"total":    sale.Total.StringFixed(2),
				"currency": sale.Currency,
				"imeis":    imeis,
				"payments": len(entries),
			},
		}); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    in.ActorID,
			Action:     enums.AuditActionStockClaimed,
			EntityType: "sale",
			EntityID:   sale.ID,
			Detail:     map[string]any{"imeis": imeis},
		}); err != nil {
			return err
		}

		return s.emitter.Emit(ctx, tx, enums.EventSaleCreated, enums.AggregateSale, sale.ID, saleEventPayload(sale))
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidate(ctx, imeis)
	logger.Info(ctx, "sale created", map[string]any{
		"sale_id": sale.ID.String(),
		"total":   sale.Total.StringFixed(2),
	})
	return s.repo.GetFull(ctx, sale.ID)
}

// Update patches a completed sale, swapping items and repricing while
// keeping stock and the receivable consistent.
func (s *Service) Update(ctx context.Context, saleID uuid.UUID, in UpdateInput) (updated *models.Sale, err error) {
	start := time.Now()
	defer func() { observe("update", start, err) }()

	if in.Items != nil {
		if _, _, err := computeTotals(in.Items, decimal.Zero); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	var imeis []string

	txErr := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.repo.LockByID(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status == enums.SaleCancelled {
			return errors.New(errors.CodeConflict, "cancelled sales cannot be updated")
		}

		if in.Items != nil {
			swapped, err := s.replaceItems(ctx, tx, sale, in.Items, now)
			if err != nil {
				return err
			}
			imeis = swapped
		}

		if in.SaleDate != nil {
			if in.SaleDate.IsZero() {
				return errors.New(errors.CodeValidation, "sale_date cannot be empty")
			}
			sale.SaleDate = *in.SaleDate
		}
		if in.Customer != nil {
			customer, err := s.customers.ResolveOrCreate(ctx, tx, *in.Customer)
			if err != nil {
				return err
			}
			sale.CustomerID = customer.ID
		}
		if in.PaymentMethod != nil {
			if !in.PaymentMethod.IsValid() {
				return errors.New(errors.CodeValidation, fmt.Sprintf("unknown payment method %q", *in.PaymentMethod))
			}
			sale.PaymentMethod = *in.PaymentMethod
		}
		if in.Currency != nil || in.FxRate != nil {
			currency := sale.Currency
			if in.Currency != nil {
				if !in.Currency.IsValid() {
					return errors.New(errors.CodeValidation, fmt.Sprintf("unknown currency %q", *in.Currency))
				}
				currency = *in.Currency
			}
			fxRate := sale.FxRateUsed
			if in.FxRate != nil {
				fxRate = *in.FxRate
			}
			if currency != sale.Currency {
				// Ledger bases are fixed in the original currency; once
				// money moved, the sale currency cannot change.
				var entries int64
				if err := tx.WithContext(ctx).Model(&models.Payment{}).
					Where("sale_id = ?", sale.ID).
					Count(&entries).Error; err != nil {
					return errors.Wrap(errors.CodeDependency, err, "count payment entries")
				}
				if entries > 0 {
					return errors.New(errors.CodeConflict, "currency cannot change after payments are registered")
				}
			}
			if currency == enums.CurrencyUSD && !fxRate.IsPositive() {
				return errors.New(errors.CodeValidation, "fx_rate is required for USD sales")
			}
			if fxRate.IsNegative() {
				return errors.New(errors.CodeValidation, "fx_rate must be positive")
			}
			if currency == enums.CurrencyARS && fxRate.IsZero() {
				fxRate = decimal.NewFromInt(1)
			}
			sale.Currency = currency
			sale.FxRateUsed = fxRate
		}
		if in.Discount != nil {
			if in.Discount.IsNegative() {
				return errors.New(errors.CodeValidation, "discount cannot be negative")
			}
			sale.Discount = *in.Discount
		}
		if in.Observations != nil {
			sale.Observations = *in.Observations
		}
		if sale.Discount.GreaterThan(sale.Subtotal) {
			return errors.New(errors.CodeValidation, "discount exceeds subtotal")
		}

		sale.Total = sale.Subtotal.Sub(sale.Discount)
		if in.DeclaredTotal != nil {
			if err := checkDeclaredTotal(*in.DeclaredTotal, sale.Total); err != nil {
				return err
			}
		}

		if err := s.ledger.Recompute(ctx, tx, sale); err != nil {
			return err
		}
		if sale.AmountPaid.GreaterThan(sale.Total.Add(payments.Tolerance)) {
			return errors.New(errors.CodeValidation, "registered payments exceed the new total").
				WithDetails(map[string]string{
					"total":       sale.Total.StringFixed(2),
					"amount_paid": sale.AmountPaid.StringFixed(2),
				})
		}

		if err := tx.WithContext(ctx).Save(sale).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "persist sale")
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    in.ActorID,
			Action:     enums.AuditActionSaleUpdated,
			EntityType: "sale",
			EntityID:   sale.ID,
			Detail: map[string]any{
				"total":          sale.Total.StringFixed(2),
				"items_replaced": in.Items != nil,
			},
		}); err != nil {
			return err
		}
		updated = sale
		return s.emitter.Emit(ctx, tx, enums.EventSaleUpdated, enums.AggregateSale, sale.ID, saleEventPayload(sale))
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidate(ctx, imeis)
	return s.repo.GetFull(ctx, updated.ID)
}

// Cancel reverses a sale in full: every unit returns to stock, every
// payment gets a counter-entry and warranties are removed. Cancelling
// an already-cancelled sale is a no-op.
func (s *Service) Cancel(ctx context.Context, saleID uuid.UUID, in CancelInput) (cancelled *models.Sale, err error) {
	start := time.Now()
	defer func() { observe("cancel", start, err) }()

	now := time.Now().UTC()
	var imeis []string
	alreadyCancelled := false

	txErr := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.repo.LockByID(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status == enums.SaleCancelled {
			alreadyCancelled = true
			cancelled = sale
			return nil
		}

		released, err := s.locker.Release(ctx, tx, sale.ID)
		if err != nil {
			return err
		}
		for _, unit := range released {
			imeis = append(imeis, unit.IMEI)
		}

		if _, err := s.ledger.Reverse(ctx, tx, sale, in.ActorID); err != nil {
			return err
		}

		if err := tx.WithContext(ctx).
			Where("sale_id = ?", sale.ID).
			Delete(&models.Warranty{}).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "remove warranties")
		}

		sale.Status = enums.SaleCancelled
		sale.CancelReason = in.Reason
		actor := in.ActorID
		sale.CancelledBy = &actor
		sale.CancelledAt = &now
		// A cancelled sale has no outstanding receivable.
		sale.ReceivableStatus = enums.ReceivablePaid
		sale.BalanceDue = decimal.Zero
		if err := tx.WithContext(ctx).Save(sale).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "persist cancellation")
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    in.ActorID,
			Action:     enums.AuditActionSaleCancelled,
			EntityType: "sale",
			EntityID:   sale.ID,
			Detail: map[string]any{
				"reason": in.Reason,
				"imeis":  imeis,
			},
		}); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    in.ActorID,
			Action:     enums.AuditActionStockReleased,
			EntityType: "sale",
			EntityID:   sale.ID,
			Detail:     map[string]any{"imeis": imeis},
		}); err != nil {
			return err
		}

		cancelled = sale
		return s.emitter.Emit(ctx, tx, enums.EventSaleCancelled, enums.AggregateSale, sale.ID, saleEventPayload(sale))
	})
	if txErr != nil {
		return nil, txErr
	}

	if !alreadyCancelled {
		s.invalidate(ctx, imeis)
		logger.Info(ctx, "sale cancelled", map[string]any{"sale_id": cancelled.ID.String()})
	}
	return s.repo.GetFull(ctx, cancelled.ID)
}

// RegisterPayments appends ledger entries to an existing sale.
func (s *Service) RegisterPayments(ctx context.Context, saleID uuid.UUID, in PaymentInput) (sale *models.Sale, err error) {
	start := time.Now()
	defer func() { observe("register_payments", start, err) }()

	if len(in.Entries) == 0 {
		return nil, errors.New(errors.CodeValidation, "at least one payment entry is required")
	}
	entries := in.Entries
	for i := range entries {
		if entries[i].RecordedBy == uuid.Nil {
			entries[i].RecordedBy = in.ActorID
		}
	}

	return s.applyLedger(ctx, saleID, in.ActorID, len(entries), func(tx *gorm.DB, sale *models.Sale) error {
		_, err := s.ledger.Register(ctx, tx, sale, entries)
		return err
	})
}

// Settle clears the outstanding balance with one synthesized entry.
// Settling an already-paid sale returns the current state unchanged.
func (s *Service) Settle(ctx context.Context, saleID uuid.UUID, in SettleInput) (sale *models.Sale, err error) {
	start := time.Now()
	defer func() { observe("settle", start, err) }()

	return s.applyLedger(ctx, saleID, in.ActorID, 1, func(tx *gorm.DB, sale *models.Sale) error {
		_, err := s.ledger.Settle(ctx, tx, sale, payments.SettleInput{
			Method:     in.Method,
			Currency:   in.Currency,
			FxRate:     in.FxRate,
			Note:       in.Note,
			RecordedBy: in.ActorID,
		})
		return err
	})
}

func (s *Service) applyLedger(ctx context.Context, saleID uuid.UUID, actorID uuid.UUID, entryCount int, post func(tx *gorm.DB, sale *models.Sale) error) (*models.Sale, error) {
	var result *models.Sale
	txErr := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.repo.LockByID(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status == enums.SaleCancelled {
			return errors.New(errors.CodeConflict, "sale is cancelled")
		}

		if err := post(tx, sale); err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Save(sale).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "persist receivable")
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			ActorID:    actorID,
			Action:     enums.AuditActionPaymentRegistered,
			EntityType: "sale",
			EntityID:   sale.ID,
			Detail: map[string]any{
				"entries":           entryCount,
				"amount_paid":       sale.AmountPaid.StringFixed(2),
				"receivable_status": sale.ReceivableStatus,
			},
		}); err != nil {
			return err
		}

		result = sale
		return s.emitter.Emit(ctx, tx, enums.EventPaymentRegistered, enums.AggregateSale, sale.ID, saleEventPayload(sale))
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.repo.GetFull(ctx, result.ID)
}

// createItems persists sale items and warranties for freshly claimed
// units.
func (s *Service) createItems(ctx context.Context, tx *gorm.DB, sale *models.Sale, inputs []ItemInput, claimed []models.StockItem, now time.Time) error {
	unitsByID := make(map[uuid.UUID]models.StockItem, len(claimed))
	for _, unit := range claimed {
		unitsByID[unit.ID] = unit
	}

	for _, input := range inputs {
		unit := unitsByID[input.StockItemID]
		description := strings.TrimSpace(input.Description)
		if description == "" {
			description = describeUnit(unit)
		}

		item := &models.SaleItem{
			SaleID:       sale.ID,
			StockItemID:  input.StockItemID,
			Description:  description,
			Quantity:     1,
			UnitPrice:    input.UnitPrice.Round(2),
			LineTotal:    input.UnitPrice.Round(2),
			CostSnapshot: unit.CostPrice,
		}
		if err := tx.WithContext(ctx).Create(item).Error; err != nil {
			return errors.Wrap(errors.CodeDependency, err, "insert sale item")
		}

		days := input.WarrantyDays
		if days == 0 {
			days = unit.WarrantyDays
		}
		if days > 0 {
			warranty := &models.Warranty{
				SaleID:      sale.ID,
				SaleItemID:  item.ID,
				StockItemID: input.StockItemID,
				Days:        days,
				StartsAt:    now,
				ExpiresAt:   now.AddDate(0, 0, days),
			}
			if err := tx.WithContext(ctx).Create(warranty).Error; err != nil {
				return errors.Wrap(errors.CodeDependency, err, "insert warranty")
			}
		}
	}
	return nil
}

// replaceItems swaps the sale's item set wholesale: units no longer
// present return to stock, new units are claimed, and warranties are
// rebuilt. Returns the IMEIs touched.
func (s *Service) replaceItems(ctx context.Context, tx *gorm.DB, sale *models.Sale, inputs []ItemInput, now time.Time) ([]string, error) {
	current, err := s.repo.ItemsOf(ctx, tx, sale.ID)
	if err != nil {
		return nil, err
	}

	keep := make(map[uuid.UUID]bool, len(inputs))
	for _, input := range inputs {
		keep[input.StockItemID] = true
	}

	var removedIDs []uuid.UUID
	currentIDs := make(map[uuid.UUID]bool, len(current))
	for _, item := range current {
		currentIDs[item.StockItemID] = true
		if !keep[item.StockItemID] {
			removedIDs = append(removedIDs, item.StockItemID)
		}
	}

	var imeis []string
	if len(removedIDs) > 0 {
		var removedUnits []models.StockItem
		if err := tx.WithContext(ctx).Where("id IN ?", removedIDs).Find(&removedUnits).Error; err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "load removed units")
		}
		for _, unit := range removedUnits {
			imeis = append(imeis, unit.IMEI)
		}
		if err := s.locker.ReleaseUnits(ctx, tx, sale.ID, removedIDs); err != nil {
			return nil, err
		}
	}

	var addedIDs []uuid.UUID
	for _, input := range inputs {
		if !currentIDs[input.StockItemID] {
			addedIDs = append(addedIDs, input.StockItemID)
		}
	}
	claimed, err := s.locker.Claim(ctx, tx, sale.ID, addedIDs, now)
	if err != nil {
		return nil, err
	}
	for _, unit := range claimed {
		imeis = append(imeis, unit.IMEI)
	}

	// Rebuild items and warranties from scratch; kept units keep their
	// claim, only the rows are rewritten.
	if err := tx.WithContext(ctx).Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "clear sale items")
	}
	if err := tx.WithContext(ctx).Where("sale_id = ?", sale.ID).Delete(&models.Warranty{}).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "clear warranties")
	}

	var keptUnits []models.StockItem
	var keptIDs []uuid.UUID
	for id := range keep {
		if currentIDs[id] {
			keptIDs = append(keptIDs, id)
		}
	}
	if len(keptIDs) > 0 {
		if err := tx.WithContext(ctx).Where("id IN ?", keptIDs).Find(&keptUnits).Error; err != nil {
			return nil, errors.Wrap(errors.CodeDependency, err, "load kept units")
		}
	}

	if err := s.createItems(ctx, tx, sale, inputs, append(claimed, keptUnits...), now); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, input := range inputs {
		subtotal = subtotal.Add(input.UnitPrice)
	}
	sale.Subtotal = subtotal.Round(2)
	return imeis, nil
}

func (s *Service) invalidate(ctx context.Context, imeis []string) {
	if s.cache != nil && len(imeis) > 0 {
		s.cache.Invalidate(ctx, imeis...)
	}
}

func computeTotals(items []ItemInput, discount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, decimal.Zero, errors.New(errors.CodeValidation, "a sale requires at least one item")
	}
	if discount.IsNegative() {
		return decimal.Zero, decimal.Zero, errors.New(errors.CodeValidation, "discount cannot be negative")
	}

	seen := make(map[uuid.UUID]bool, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		if item.StockItemID == uuid.Nil {
			return decimal.Zero, decimal.Zero, errors.New(errors.CodeValidation, "stock_item_id is required").
				WithDetails(map[string]any{"item_index": i})
		}
		if item.Quantity != 1 {
			return decimal.Zero, decimal.Zero, errors.New(errors.CodeValidation, "serialized units always have quantity 1").
				WithDetails(map[string]any{"item_index": i, "quantity": item.Quantity})
		}
		if !item.UnitPrice.IsPositive() {
			return decimal.Zero, decimal.Zero, errors.New(errors.CodeValidation, "unit price must be positive").
				WithDetails(map[string]any{"item_index": i})
		}
		if seen[item.StockItemID] {
			return decimal.Zero, decimal.Zero, errors.New(errors.CodeValidation, "duplicate stock unit in items").
				WithDetails(map[string]any{"stock_item_id": item.StockItemID.String()})
		}
		seen[item.StockItemID] = true
		subtotal = subtotal.Add(item.UnitPrice)
	}

	subtotal = subtotal.Round(2)
	if discount.GreaterThan(subtotal) {
		return decimal.Zero, decimal.Zero, errors.New(errors.CodeValidation, "discount exceeds subtotal")
	}
	return subtotal, subtotal.Sub(discount).Round(2), nil
}

func checkDeclaredTotal(declared, computed decimal.Decimal) error {
	if declared.Sub(computed).Abs().GreaterThan(payments.Tolerance) {
		return errors.New(errors.CodeTotalMismatch, "declared total does not match the sum of line items").
			WithDetails(map[string]string{
				"declared_total": declared.StringFixed(2),
				"computed_total": computed.StringFixed(2),
			})
	}
	return nil
}

func describeUnit(unit models.StockItem) string {
	parts := []string{unit.Brand, unit.Model}
	if unit.Storage != "" {
		parts = append(parts, unit.Storage)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func saleEventPayload(sale *models.Sale) map[string]any {
	return map[string]any{
		"sale_id":           sale.ID,
		"customer_id":       sale.CustomerID,
		"status":            sale.Status,
		"currency":          sale.Currency,
		"total":             sale.Total.StringFixed(2),
		"amount_paid":       sale.AmountPaid.StringFixed(2),
		"balance_due":       sale.BalanceDue.StringFixed(2),
		"receivable_status": sale.ReceivableStatus,
	}
}
