package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

// stubShipmentService records the inputs it receives and returns canned results.
type stubShipmentService struct {
	createIn  ports.CreateShipmentInput
	listIn    ports.ListShipmentsInput
	editIn    ports.EditShipmentInput
	approveBy string
	bulkIDs   []string
	err       error
}

func (s *stubShipmentService) CreateShipment(_ context.Context, in ports.CreateShipmentInput) (*domain.Shipment, error) {
	s.createIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Shipment{ID: "shp-1", OrderID: in.OrderID, Status: domain.StatusPendingReview}, nil
}

func (s *stubShipmentService) GetShipment(_ context.Context, id string) (*domain.Shipment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Shipment{ID: id}, nil
}

func (s *stubShipmentService) ListShipments(_ context.Context, in ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	s.listIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &ports.ListShipmentsResult{Page: 1, Limit: 20}, nil
}

func (s *stubShipmentService) Stats(context.Context) (*ports.ShipmentStats, error) {
	return &ports.ShipmentStats{}, s.err
}

func (s *stubShipmentService) EditShipment(_ context.Context, in ports.EditShipmentInput) (*domain.Shipment, error) {
	s.editIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Shipment{ID: in.ID}, nil
}

func (s *stubShipmentService) RecalculateCost(_ context.Context, id string) (*domain.Shipment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Shipment{ID: id}, nil
}

func (s *stubShipmentService) ApproveShipment(_ context.Context, id, by string) (*domain.Shipment, error) {
	s.approveBy = by
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Shipment{ID: id, Status: domain.StatusPlaced, AWB: "AWB1"}, nil
}

func (s *stubShipmentService) BulkApprove(_ context.Context, ids []string, by string) ports.BulkResult {
	s.bulkIDs = ids
	s.approveBy = by
	return ports.BulkResult{
		Succeeded: ids[:1],
		Failed:    []ports.BulkFailure{{ID: ids[len(ids)-1], Error: "courier unavailable"}},
	}
}

func (s *stubShipmentService) CancelShipment(_ context.Context, id, _ string) (*domain.Shipment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Shipment{ID: id, Status: domain.StatusCancelled}, nil
}

func (s *stubShipmentService) CheckEligibility(_ context.Context, id string) (*ports.EligibilityReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.EligibilityReport{Editable: true}, nil
}

func TestShipmentHandler_Create(t *testing.T) {
	svc := &stubShipmentService{}
	h := NewShipmentHandler(svc)

	body := `{"order_id":" ord-1 ","weight_grams":750,"dimensions_cm":{"length":10,"width":8,"height":4},"payment_mode":"cod","cod_amount":499}`
	c, rec := newContext(http.MethodPost, "/admin/shipments", body)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	in := svc.createIn
	if in.OrderID != "ord-1" || in.WeightGrams != 750 || in.Dimensions.Length != 10 {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.PaymentMode != domain.PaymentCOD || in.CODAmount == nil || *in.CODAmount != 499 {
		t.Fatalf("unexpected payment: %+v", in)
	}
	if in.CreatedBy != "alice" {
		t.Fatalf("expected created_by alice, got %q", in.CreatedBy)
	}
}

func TestShipmentHandler_Create_Validation(t *testing.T) {
	h := NewShipmentHandler(&stubShipmentService{})

	c, _ := newContext(http.MethodPost, "/admin/shipments", `{"weight_grams":0,"shipping_mode":"Air"}`)
	err := h.Create(c)
	requireValidation(t, err, "order_id")
	requireValidation(t, err, "weight_grams")
	requireValidation(t, err, "shipping_mode")
}

func TestShipmentHandler_Create_RequiresActor(t *testing.T) {
	h := NewShipmentHandler(&stubShipmentService{})

	c, _ := newContext(http.MethodPost, "/admin/shipments", `{"order_id":"o","weight_grams":1}`)
	c.Set("username", nil)
	requireHTTPStatus(t, h.Create(c), http.StatusUnauthorized)
}

func TestShipmentHandler_List_ParsesFilters(t *testing.T) {
	svc := &stubShipmentService{}
	h := NewShipmentHandler(svc)

	c, rec := newContext(http.MethodGet, "/admin/shipments?status=placed,%20in_transit&search=AWB&date_from=2024-03-01&date_to=2024-03-02&page=2&limit=5", "")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	in := svc.listIn
	if len(in.Statuses) != 2 || in.Statuses[1] != domain.StatusInTransit {
		t.Fatalf("unexpected statuses: %v", in.Statuses)
	}
	if in.Page != 2 || in.Limit != 5 || in.Search != "AWB" {
		t.Fatalf("unexpected paging: %+v", in)
	}
	wantTo := time.Date(2024, 3, 2, 23, 59, 59, 999999999, time.UTC)
	if !in.DateTo.Equal(wantTo) {
		t.Fatalf("date_to should cover the whole day, got %v", in.DateTo)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if items, ok := resp["items"].([]any); !ok || len(items) != 0 {
		t.Fatalf("expected empty items array, got %v", resp["items"])
	}
}

func TestShipmentHandler_List_InvalidDateRange(t *testing.T) {
	h := NewShipmentHandler(&stubShipmentService{})

	c, _ := newContext(http.MethodGet, "/admin/shipments?date_from=2024-03-05&date_to=2024-03-01", "")
	requireValidation(t, h.List(c), "date_to")

	c, _ = newContext(http.MethodGet, "/admin/shipments?date_from=05/03/2024", "")
	requireValidation(t, h.List(c), "date_from")
}

func TestShipmentHandler_Edit(t *testing.T) {
	svc := &stubShipmentService{}
	h := NewShipmentHandler(svc)

	c, rec := newContext(http.MethodPatch, "/admin/shipments/shp-1", `{"fields":{"weight_grams":900}}`)
	c.SetParamNames("id")
	c.SetParamValues("shp-1")
	if err := h.Edit(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.editIn.ID != "shp-1" || svc.editIn.EditedBy != "alice" || svc.editIn.Fields["weight_grams"] != float64(900) {
		t.Fatalf("unexpected edit input: %+v", svc.editIn)
	}
}

func TestShipmentHandler_Edit_EmptyFields(t *testing.T) {
	h := NewShipmentHandler(&stubShipmentService{})

	c, _ := newContext(http.MethodPatch, "/admin/shipments/shp-1", `{"fields":{}}`)
	requireValidation(t, h.Edit(c), "fields")
}

func TestShipmentHandler_Approve_PropagatesServiceError(t *testing.T) {
	svc := &stubShipmentService{err: domain.NewPreconditionError("shipment is %s", domain.StatusPlaced)}
	h := NewShipmentHandler(svc)

	c, _ := newContext(http.MethodPost, "/admin/shipments/shp-1/approve", "")
	c.SetParamNames("id")
	c.SetParamValues("shp-1")
	if err := h.Approve(c); !domain.IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if svc.approveBy != "alice" {
		t.Fatalf("approver not forwarded: %q", svc.approveBy)
	}
}

func TestShipmentHandler_BulkApprove(t *testing.T) {
	svc := &stubShipmentService{}
	h := NewShipmentHandler(svc)

	c, rec := newContext(http.MethodPost, "/admin/shipments/approve", `{"ids":["a","b"]}`)
	if err := h.BulkApprove(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp bulkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Succeeded) != 1 || len(resp.Failed) != 1 || resp.Failed[0].ID != "b" {
		t.Fatalf("unexpected bulk response: %+v", resp)
	}
}

func TestShipmentHandler_BulkApprove_Validation(t *testing.T) {
	h := NewShipmentHandler(&stubShipmentService{})

	c, _ := newContext(http.MethodPost, "/admin/shipments/approve", `{"ids":[]}`)
	requireValidation(t, h.BulkApprove(c), "ids")
}

func TestShipmentHandler_Get_NotFound(t *testing.T) {
	h := NewShipmentHandler(&stubShipmentService{err: domain.ErrShipmentNotFound})

	c, _ := newContext(http.MethodGet, "/admin/shipments/missing", "")
	if err := h.Get(c); !errors.Is(err, domain.ErrShipmentNotFound) {
		t.Fatalf("expected ErrShipmentNotFound, got %v", err)
	}
}
