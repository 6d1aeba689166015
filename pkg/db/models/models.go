package models

// All returns every model, in dependency order, for sqlite AutoMigrate
// in tests. Production schema is managed by goose migrations.
func All() []any {
	return []any{
		&Customer{},
		&StockItem{},
		&Sale{},
		&SaleItem{},
		&Payment{},
		&Warranty{},
		&TradeIn{},
		&IdempotencyRecord{},
		&AuditLogEntry{},
		&OutboxEvent{},
	}
}
