package enums

// AuditAction tags the state-changing operation an audit entry records.
type AuditAction string

const (
	AuditActionSaleCreated       AuditAction = "sale.created"
	AuditActionSaleUpdated       AuditAction = "sale.updated"
	AuditActionSaleCancelled     AuditAction = "sale.cancelled"
	AuditActionPaymentRegistered AuditAction = "payment.registered"
	AuditActionStockClaimed      AuditAction = "stock.claimed"
	AuditActionStockReleased     AuditAction = "stock.released"
	AuditActionWarrantyCreated   AuditAction = "warranty.created"
	AuditActionWarrantyRemoved   AuditAction = "warranty.removed"
)

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}
