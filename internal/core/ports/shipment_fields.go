package ports

// ShipmentField names a stored shipment field. Values match the document keys
// of domain.Shipment.
type ShipmentField string

const (
	FieldStatus            ShipmentField = "status"
	FieldCourierStatus     ShipmentField = "courier_status"
	FieldTrackingHistory   ShipmentField = "tracking_history"
	FieldEstimatedDelivery ShipmentField = "estimated_delivery"
	FieldPickupActualDate  ShipmentField = "pickup_actual_date"
	FieldLastSyncAt        ShipmentField = "last_sync_at"
	FieldLabelURL          ShipmentField = "label_url"
	FieldInvoiceURL        ShipmentField = "invoice_url"
	FieldDelhiveryPickupID ShipmentField = "delhivery_pickup_id"
	FieldConsignee         ShipmentField = "consignee"
	FieldWeightGrams       ShipmentField = "weight_grams"
	FieldDimensions        ShipmentField = "dimensions_cm"
	FieldPackageCount      ShipmentField = "package_count"
	FieldShippingMode      ShipmentField = "shipping_mode"
	FieldPaymentMode       ShipmentField = "payment_mode"
	FieldCODAmount         ShipmentField = "cod_amount"
	FieldEstimatedCost     ShipmentField = "estimated_cost"
	FieldCostBreakdown     ShipmentField = "cost_breakdown"
	FieldAdminNotes        ShipmentField = "admin_notes"
	FieldEditHistory       ShipmentField = "edit_history"
	FieldEditedBy          ShipmentField = "edited_by"
	FieldEditable          ShipmentField = "editable"
)

// Field groups owned by each writer. A writer that has called the courier
// since reading the row stores only its own group.
var (
	TrackingFields = []ShipmentField{
		FieldStatus, FieldCourierStatus, FieldTrackingHistory,
		FieldEstimatedDelivery, FieldPickupActualDate, FieldLastSyncAt,
	}
	EditFields = []ShipmentField{
		FieldConsignee, FieldWeightGrams, FieldDimensions, FieldPackageCount,
		FieldShippingMode, FieldPaymentMode, FieldCODAmount, FieldEstimatedCost,
		FieldCostBreakdown, FieldAdminNotes, FieldEditHistory, FieldEditedBy,
	}
	CostFields   = []ShipmentField{FieldEstimatedCost, FieldCostBreakdown}
	CancelFields = []ShipmentField{FieldStatus, FieldEditable, FieldEditedBy}
)
