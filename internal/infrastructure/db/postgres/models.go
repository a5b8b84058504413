package postgres

import (
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

type shipmentModel struct {
	ID      string `gorm:"primaryKey;type:text"`
	OrderID string `gorm:"index;not null"`

	WeightGrams  float64
	Dimensions   domain.Dimensions `gorm:"serializer:json;type:jsonb"`
	PackageCount int
	ShippingMode string
	PaymentMode  string
	CODAmount    float64
	Consignee    domain.Consignee `gorm:"serializer:json;type:jsonb"`

	OriginPincode      string
	DestinationPincode string
	DestinationCity    string
	DestinationState   string

	AWB               string `gorm:"column:awb"`
	Courier           string
	TrackingURL       string
	DelhiveryOrderID  string
	DelhiveryPickupID string
	CourierStatus     string

	LabelURL    string
	InvoiceURL  string
	ManifestURL string

	EstimatedCost float64
	ActualCost    *float64
	CostBreakdown domain.CostBreakdown `gorm:"serializer:json;type:jsonb"`

	EstimatedDelivery   *time.Time
	PickupScheduledDate *time.Time
	PickupActualDate    *time.Time
	PlacedAt            *time.Time
	ApprovedAt          *time.Time
	LastSyncAt          *time.Time

	Status string `gorm:"index;not null"`

	Editable    bool
	EditHistory []domain.EditRecord `gorm:"serializer:json;type:jsonb"`

	FailedReason string
	RetryCount   int

	AdminNotes string
	EditedBy   string
	ApprovedBy string

	TrackingHistory []domain.TrackingScan `gorm:"serializer:json;type:jsonb"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (shipmentModel) TableName() string { return "shipments" }

func toShipmentModel(s *domain.Shipment) *shipmentModel {
	return &shipmentModel{
		ID:                  s.ID,
		OrderID:             s.OrderID,
		WeightGrams:         s.WeightGrams,
		Dimensions:          s.Dimensions,
		PackageCount:        s.PackageCount,
		ShippingMode:        string(s.ShippingMode),
		PaymentMode:         string(s.PaymentMode),
		CODAmount:           s.CODAmount,
		Consignee:           s.Consignee,
		OriginPincode:       s.OriginPincode,
		DestinationPincode:  s.DestinationPincode,
		DestinationCity:     s.DestinationCity,
		DestinationState:    s.DestinationState,
		AWB:                 s.AWB,
		Courier:             s.Courier,
		TrackingURL:         s.TrackingURL,
		DelhiveryOrderID:    s.DelhiveryOrderID,
		DelhiveryPickupID:   s.DelhiveryPickupID,
		CourierStatus:       s.CourierStatus,
		LabelURL:            s.LabelURL,
		InvoiceURL:          s.InvoiceURL,
		ManifestURL:         s.ManifestURL,
		EstimatedCost:       s.EstimatedCost,
		ActualCost:          s.ActualCost,
		CostBreakdown:       s.CostBreakdown,
		EstimatedDelivery:   s.EstimatedDelivery,
		PickupScheduledDate: s.PickupScheduledDate,
		PickupActualDate:    s.PickupActualDate,
		PlacedAt:            s.PlacedAt,
		ApprovedAt:          s.ApprovedAt,
		LastSyncAt:          s.LastSyncAt,
		Status:              string(s.Status),
		Editable:            s.Editable,
		EditHistory:         s.EditHistory,
		FailedReason:        s.FailedReason,
		RetryCount:          s.RetryCount,
		AdminNotes:          s.AdminNotes,
		EditedBy:            s.EditedBy,
		ApprovedBy:          s.ApprovedBy,
		TrackingHistory:     s.TrackingHistory,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func (m *shipmentModel) toEntity() *domain.Shipment {
	return &domain.Shipment{
		ID:                  m.ID,
		OrderID:             m.OrderID,
		WeightGrams:         m.WeightGrams,
		Dimensions:          m.Dimensions,
		PackageCount:        m.PackageCount,
		ShippingMode:        domain.ShippingMode(m.ShippingMode),
		PaymentMode:         domain.PaymentMode(m.PaymentMode),
		CODAmount:           m.CODAmount,
		Consignee:           m.Consignee,
		OriginPincode:       m.OriginPincode,
		DestinationPincode:  m.DestinationPincode,
		DestinationCity:     m.DestinationCity,
		DestinationState:    m.DestinationState,
		AWB:                 m.AWB,
		Courier:             m.Courier,
		TrackingURL:         m.TrackingURL,
		DelhiveryOrderID:    m.DelhiveryOrderID,
		DelhiveryPickupID:   m.DelhiveryPickupID,
		CourierStatus:       m.CourierStatus,
		LabelURL:            m.LabelURL,
		InvoiceURL:          m.InvoiceURL,
		ManifestURL:         m.ManifestURL,
		EstimatedCost:       m.EstimatedCost,
		ActualCost:          m.ActualCost,
		CostBreakdown:       m.CostBreakdown,
		EstimatedDelivery:   m.EstimatedDelivery,
		PickupScheduledDate: m.PickupScheduledDate,
		PickupActualDate:    m.PickupActualDate,
		PlacedAt:            m.PlacedAt,
		ApprovedAt:          m.ApprovedAt,
		LastSyncAt:          m.LastSyncAt,
		Status:              domain.ShipmentStatus(m.Status),
		Editable:            m.Editable,
		EditHistory:         m.EditHistory,
		FailedReason:        m.FailedReason,
		RetryCount:          m.RetryCount,
		AdminNotes:          m.AdminNotes,
		EditedBy:            m.EditedBy,
		ApprovedBy:          m.ApprovedBy,
		TrackingHistory:     m.TrackingHistory,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

type orderModel struct {
	ID               string `gorm:"primaryKey;type:text"`
	Status           string
	PaymentMethod    string
	TotalAmount      float64
	Customer         domain.Customer `gorm:"serializer:json;type:jsonb"`
	ItemsDescription string
	DeliveryMeta     domain.DeliveryMeta `gorm:"serializer:json;type:jsonb"`
	DeliveredAt      *time.Time
	UpdatedAt        time.Time
}

func (orderModel) TableName() string { return "orders" }

func (m *orderModel) toEntity() *domain.Order {
	return &domain.Order{
		ID:               m.ID,
		Status:           domain.OrderStatus(m.Status),
		PaymentMethod:    domain.PaymentMode(m.PaymentMethod),
		TotalAmount:      m.TotalAmount,
		Customer:         m.Customer,
		ItemsDescription: m.ItemsDescription,
		DeliveryMeta:     m.DeliveryMeta,
		DeliveredAt:      m.DeliveredAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type pickupModel struct {
	ID                   string `gorm:"primaryKey;type:text"`
	PickupLocation       string `gorm:"not null"`
	PickupDate           string `gorm:"type:text;index;not null"`
	PickupTime           string
	ExpectedPackageCount int
	CourierPickupID      string
	Status               string `gorm:"not null"`
	FailedReason         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (pickupModel) TableName() string { return "daily_pickups" }

func (m *pickupModel) toEntity() *domain.DailyPickup {
	return &domain.DailyPickup{
		ID:                   m.ID,
		PickupLocation:       m.PickupLocation,
		PickupDate:           m.PickupDate,
		PickupTime:           m.PickupTime,
		ExpectedPackageCount: m.ExpectedPackageCount,
		CourierPickupID:      m.CourierPickupID,
		Status:               domain.PickupStatus(m.Status),
		FailedReason:         m.FailedReason,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

type userModel struct {
	ID           string `gorm:"primaryKey;type:text"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "admin_users" }
