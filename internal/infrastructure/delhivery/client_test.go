package delhivery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
	"github.com/giftkart/shipping-admin/internal/infrastructure/delhivery"
)

func testConfig() delhivery.Config {
	return delhivery.Config{
		Token:          "test-token",
		OriginPincode:  "560001",
		OriginState:    "KA",
		PickupLocation: "GiftKart BLR",
	}
}

func newTestClient(mockAPI *delhivery.MockAPIClient) *delhivery.Client {
	return delhivery.NewWithAPIClient(testConfig(), mockAPI, zerolog.Nop())
}

func TestCheckServiceability_InvalidPincodeSkipsNetwork(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	called := false
	mockAPI.OnGetPincode = func(ctx context.Context, pincode string) (*delhivery.PincodeResponse, error) {
		called = true
		return &delhivery.PincodeResponse{}, nil
	}
	client := newTestClient(mockAPI)

	for _, pin := range []string{"", "12345", "1234567", "abcdef", "56000a"} {
		res := client.CheckServiceability(context.Background(), pin)
		assert.False(t, res.Serviceable, pin)
		assert.Equal(t, ports.ServiceabilityInvalidPincode, res.Status, pin)
	}
	assert.False(t, called, "no network call for malformed pincodes")
}

func TestCheckServiceability_NoCredentials(t *testing.T) {
	client := delhivery.NewWithAPIClient(delhivery.Config{}, delhivery.NewMockAPIClient(), zerolog.Nop())

	res := client.CheckServiceability(context.Background(), "110001")
	assert.False(t, res.Serviceable)
	assert.Equal(t, ports.ServiceabilityNoCredentials, res.Status)
}

func TestCheckServiceability_FailuresAreStructured(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status ports.ServiceabilityStatus
	}{
		{"unauthorized", &delhivery.APIError{StatusCode: 401, Message: "bad token"}, ports.ServiceabilityAuthError},
		{"forbidden", &delhivery.APIError{StatusCode: 403, Message: "nope"}, ports.ServiceabilityAuthError},
		{"not found", &delhivery.APIError{StatusCode: 404, Message: "missing"}, ports.ServiceabilityNotFound},
		{"server error", &delhivery.APIError{StatusCode: 502, Message: "bad gateway"}, ports.ServiceabilityNetworkError},
		{"timeout", context.DeadlineExceeded, ports.ServiceabilityNetworkError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := delhivery.NewMockAPIClient()
			mockAPI.OnGetPincode = func(ctx context.Context, pincode string) (*delhivery.PincodeResponse, error) {
				return nil, tt.err
			}
			res := newTestClient(mockAPI).CheckServiceability(context.Background(), "110001")
			assert.False(t, res.Serviceable)
			assert.Equal(t, tt.status, res.Status)
		})
	}
}

func TestCheckServiceability_Serviceable(t *testing.T) {
	res := newTestClient(delhivery.NewMockAPIClient()).CheckServiceability(context.Background(), "560034")

	assert.True(t, res.Serviceable)
	assert.Equal(t, ports.ServiceabilityOK, res.Status)
	assert.True(t, res.Features.COD)
	assert.True(t, res.Features.Reverse)
}

func TestCheckServiceability_Embargo(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.OnGetPincode = func(ctx context.Context, pincode string) (*delhivery.PincodeResponse, error) {
		return &delhivery.PincodeResponse{DeliveryCodes: []delhivery.DeliveryCode{{
			PostalCode: delhivery.PostalCode{COD: "Y", PrePaid: "Y", Remarks: "Embargo"},
		}}}, nil
	}

	res := newTestClient(mockAPI).CheckServiceability(context.Background(), "560034")
	assert.False(t, res.Serviceable)
	assert.Equal(t, ports.ServiceabilityNotServiceable, res.Status)
}

func TestEstimateCost_FromAPI(t *testing.T) {
	est := newTestClient(delhivery.NewMockAPIClient()).EstimateCost(context.Background(), ports.CostQuery{
		DestinationPincode: "110001",
		Mode:               domain.ModeSurface,
		WeightGrams:        1000,
		PaymentMode:        domain.PaymentPrepaid,
	})

	assert.Equal(t, domain.CostSourceAPI, est.Source)
	assert.Greater(t, est.Amount, 0.0)
	assert.Equal(t, est.Amount, est.Breakdown.Total)
	assert.Greater(t, est.Breakdown.Taxes, 0.0)
}

func TestEstimateCost_FallsBack(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		mockAPI := delhivery.NewMockAPIClient()
		mockAPI.SimulateErrors = true

		est := newTestClient(mockAPI).EstimateCost(context.Background(), ports.CostQuery{
			DestinationPincode: "110001",
			Mode:               domain.ModeExpress,
			WeightGrams:        1200,
			PaymentMode:        domain.PaymentCOD,
		})
		assert.Equal(t, domain.CostSourceEstimated, est.Source)
		assert.Equal(t, delhivery.FallbackCost(domain.ModeExpress, 1200, domain.PaymentCOD).Total, est.Amount)
	})

	t.Run("missing total", func(t *testing.T) {
		mockAPI := delhivery.NewMockAPIClient()
		mockAPI.OnGetCharges = func(ctx context.Context, req *delhivery.ChargesRequest) ([]delhivery.Charge, error) {
			return []delhivery.Charge{{ChargeDL: 80}}, nil
		}

		est := newTestClient(mockAPI).EstimateCost(context.Background(), ports.CostQuery{
			DestinationPincode: "110001",
			Mode:               domain.ModeSurface,
			WeightGrams:        500,
		})
		assert.Equal(t, domain.CostSourceEstimated, est.Source)
	})

	t.Run("bad pincode", func(t *testing.T) {
		est := newTestClient(delhivery.NewMockAPIClient()).EstimateCost(context.Background(), ports.CostQuery{
			DestinationPincode: "11",
			Mode:               domain.ModeSurface,
			WeightGrams:        500,
		})
		assert.Equal(t, domain.CostSourceEstimated, est.Source)
	})
}

func TestEstimateTAT_FallbackUsesZoneTable(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	pickup := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	est := newTestClient(mockAPI).EstimateTAT(context.Background(), ports.TATQuery{
		DestinationPincode: "560034",
		DestinationState:   "Karnataka",
		DestinationCity:    "Bengaluru",
		Mode:               domain.ModeSurface,
		PickupDate:         pickup,
	})

	assert.Equal(t, domain.CostSourceEstimated, est.Source)
	assert.Equal(t, 2, est.EstimatedDays)
	assert.Equal(t, pickup.AddDate(0, 0, 2), est.ExpectedDeliveryDate)
}

func TestEstimateTAT_FromAPI(t *testing.T) {
	pickup := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	est := newTestClient(delhivery.NewMockAPIClient()).EstimateTAT(context.Background(), ports.TATQuery{
		DestinationPincode: "110001",
		Mode:               domain.ModeExpress,
		PickupDate:         pickup,
	})

	assert.Equal(t, domain.CostSourceAPI, est.Source)
	assert.Equal(t, 2, est.EstimatedDays)
}

func bookingRequest() ports.BookingRequest {
	return ports.BookingRequest{
		OrderID:            "ORD-1001",
		Consignee:          domain.Consignee{Name: "Asha Rao", Phone: "9876543210", Address: "12 MG Road", ProductsDesc: "Hamper"},
		DestinationPincode: "560034",
		DestinationCity:    "Bengaluru",
		DestinationState:   "Karnataka",
		PaymentMode:        domain.PaymentCOD,
		CODAmount:          1499,
		TotalAmount:        1499,
		Quantity:           1,
		WeightGrams:        1000,
		Dimensions:         domain.Dimensions{Length: 30, Width: 20, Height: 10},
		ShippingMode:       domain.ModeSurface,
	}
}

func TestCreateShipment_Success(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	var sent *delhivery.CreateRequest
	mockAPI.OnCreateShipment = func(ctx context.Context, req *delhivery.CreateRequest) (*delhivery.CreateResponse, error) {
		sent = req
		return &delhivery.CreateResponse{Success: true, Packages: []delhivery.PackageOutcome{
			{Waybill: "1490000000001", RefNum: req.Shipments[0].Order, Status: "Success"},
		}}, nil
	}

	res, err := newTestClient(mockAPI).CreateShipment(context.Background(), bookingRequest())

	require.NoError(t, err)
	assert.Equal(t, "1490000000001", res.AWB)
	assert.Contains(t, res.TrackingURL, "1490000000001")
	require.NotNil(t, res.Cost)
	assert.Greater(t, *res.Cost, 0.0)

	require.NotNil(t, sent)
	assert.Equal(t, "GiftKart BLR", sent.PickupLocation.Name)
	assert.Equal(t, "COD", sent.Shipments[0].PaymentMode)
	assert.Equal(t, 1499.0, sent.Shipments[0].CODAmount)
}

func TestCreateShipment_NoWaybillFails(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.OnCreateShipment = func(ctx context.Context, req *delhivery.CreateRequest) (*delhivery.CreateResponse, error) {
		return &delhivery.CreateResponse{Success: false, Packages: []delhivery.PackageOutcome{
			{Status: "Fail", Remarks: []string{"Crashing pincode"}},
		}}, nil
	}

	_, err := newTestClient(mockAPI).CreateShipment(context.Background(), bookingRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, delhivery.ErrRejected))
	assert.Contains(t, err.Error(), "Crashing pincode")
}

func TestCreateShipment_TransportErrorIsRetryable(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.SimulateErrors = true

	_, err := newTestClient(mockAPI).CreateShipment(context.Background(), bookingRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, delhivery.ErrUnavailable))
	assert.True(t, delhivery.IsRetryable(err))
}

func trackResponse(status, statusType string) *delhivery.TrackResponse {
	return &delhivery.TrackResponse{ShipmentData: []delhivery.ShipmentData{{Shipment: delhivery.TrackedShipment{
		AWB:                  "AWB1",
		Status:               delhivery.StatusDetail{Status: status, StatusType: statusType, StatusLocation: "Bengaluru_Hub"},
		ExpectedDeliveryDate: "2024-03-14T00:00:00",
		Scans: []delhivery.ScanEntry{
			{ScanDetail: delhivery.ScanDetail{Scan: "Manifested", ScanDateTime: "2024-03-10T09:00:00.000", ScannedLocation: "Origin"}},
			{ScanDetail: delhivery.ScanDetail{Scan: status, ScanDateTime: "2024-03-12T18:30:00", ScannedLocation: "Bengaluru_Hub"}},
		},
	}}}}
}

func TestGetTrackingInfo_Normalises(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.OnTrackShipment = func(ctx context.Context, awb string) (*delhivery.TrackResponse, error) {
		return trackResponse("Delivered", "DL"), nil
	}

	info := newTestClient(mockAPI).GetTrackingInfo(context.Background(), "AWB1")

	require.NotNil(t, info)
	assert.Equal(t, domain.StatusDelivered, info.Status)
	assert.Equal(t, "Delivered", info.CourierStatus)
	require.Len(t, info.History, 2)
	assert.Equal(t, "Manifested", info.History[0].Status)
	assert.Equal(t, 10, info.History[0].Timestamp.Day())
	require.NotNil(t, info.ExpectedDelivery)
	assert.Equal(t, 14, info.ExpectedDelivery.Day())
}

func TestGetTrackingInfo_AbsenceIsNil(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.OnTrackShipment = func(ctx context.Context, awb string) (*delhivery.TrackResponse, error) {
		return nil, &delhivery.APIError{StatusCode: 500, Message: "boom"}
	}
	assert.Nil(t, newTestClient(mockAPI).GetTrackingInfo(context.Background(), "AWB1"))

	mockAPI.OnTrackShipment = func(ctx context.Context, awb string) (*delhivery.TrackResponse, error) {
		return &delhivery.TrackResponse{}, nil
	}
	assert.Nil(t, newTestClient(mockAPI).GetTrackingInfo(context.Background(), "AWB1"))
	assert.Nil(t, newTestClient(mockAPI).GetTrackingInfo(context.Background(), ""))
}

func TestGetTrackingInfo_UnknownStatusKeepsCurrent(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.OnTrackShipment = func(ctx context.Context, awb string) (*delhivery.TrackResponse, error) {
		return trackResponse("Held at Customs", "UD"), nil
	}

	info := newTestClient(mockAPI).GetTrackingInfo(context.Background(), "AWB1")

	require.NotNil(t, info)
	assert.Equal(t, domain.ShipmentStatus(""), info.Status)
	assert.Equal(t, "Held at Customs", info.CourierStatus)
}

func TestValidateEditEligibility(t *testing.T) {
	tests := []struct {
		status   string
		eligible bool
		known    bool
		reason   string
	}{
		{"Manifested", true, true, ""},
		{"In Transit", true, true, ""},
		{"Pending", true, true, ""},
		{"Scheduled", true, true, ""},
		{"Delivered", false, true, "at the courier"},
		{"LOST", false, true, "at the courier"},
		{"Dispatched", false, true, "does not accept edits"},
		{"Held at Customs", false, false, "unrecognised courier status"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			mockAPI := delhivery.NewMockAPIClient()
			mockAPI.OnTrackShipment = func(ctx context.Context, awb string) (*delhivery.TrackResponse, error) {
				return trackResponse(tt.status, "UD"), nil
			}

			res := newTestClient(mockAPI).ValidateEditEligibility(context.Background(), "AWB1")
			assert.Equal(t, tt.eligible, res.Eligible)
			assert.Equal(t, tt.known, res.Known)
			assert.Equal(t, tt.status, res.CurrentStatus)
			if tt.reason != "" {
				assert.Contains(t, res.Reason, tt.reason)
			}
		})
	}
}

func TestSchedulePickup_DuplicateIsSuccess(t *testing.T) {
	client := newTestClient(delhivery.NewMockAPIClient())
	req := ports.PickupSchedule{Date: "2024-03-11", Time: "14:00:00", PackageCount: 2}

	first, err := client.SchedulePickup(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.AlreadyExists)

	second, err := client.SchedulePickup(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.AlreadyExists)
	assert.Equal(t, first.PickupID, second.PickupID)
}

func TestGenerateLabel_PrefersInlinePDF(t *testing.T) {
	doc, err := newTestClient(delhivery.NewMockAPIClient()).GenerateLabel(context.Background(), "AWB1", "")

	require.NoError(t, err)
	assert.True(t, len(doc.Content) > 4)
	assert.Equal(t, "%PDF", string(doc.Content[:4]))
}

func TestGenerateInvoice_URLOnly(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.OnInvoice = func(ctx context.Context, awb string) (*delhivery.DocumentResponse, error) {
		return &delhivery.DocumentResponse{PackagesFound: 1, Packages: []delhivery.DocumentPackage{
			{WBN: awb, PDFDownloadLink: "https://s3.example.com/inv.pdf?sig=abc"},
		}}, nil
	}

	doc, err := newTestClient(mockAPI).GenerateInvoice(context.Background(), "AWB1")

	require.NoError(t, err)
	assert.Empty(t, doc.Content)
	assert.Equal(t, "https://s3.example.com/inv.pdf?sig=abc", doc.URL)
}

func TestGenerateLabel_NoPackages(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	mockAPI.OnPackingSlip = func(ctx context.Context, awb, size string) (*delhivery.DocumentResponse, error) {
		return &delhivery.DocumentResponse{}, nil
	}

	_, err := newTestClient(mockAPI).GenerateLabel(context.Background(), "AWB1", "4R")
	assert.True(t, errors.Is(err, delhivery.ErrNotFound))
}

func TestCancelShipment_ErrorKinds(t *testing.T) {
	t.Run("refused", func(t *testing.T) {
		mockAPI := delhivery.NewMockAPIClient()
		mockAPI.OnEditShipment = func(ctx context.Context, req delhivery.EditRequest) (*delhivery.EditResponse, error) {
			assert.Equal(t, "true", req["cancellation"])
			return &delhivery.EditResponse{Status: false, Error: "already dispatched"}, nil
		}
		err := newTestClient(mockAPI).CancelShipment(context.Background(), "AWB1")
		assert.True(t, errors.Is(err, delhivery.ErrValidation))
		assert.Contains(t, err.Error(), "already dispatched")
	})

	t.Run("auth", func(t *testing.T) {
		mockAPI := delhivery.NewMockAPIClient()
		mockAPI.OnEditShipment = func(ctx context.Context, req delhivery.EditRequest) (*delhivery.EditResponse, error) {
			return nil, &delhivery.APIError{StatusCode: 401, Message: "invalid token"}
		}
		err := newTestClient(mockAPI).CancelShipment(context.Background(), "AWB1")
		assert.True(t, errors.Is(err, delhivery.ErrAuth))
		assert.False(t, delhivery.IsRetryable(err))
	})

	t.Run("validation", func(t *testing.T) {
		mockAPI := delhivery.NewMockAPIClient()
		mockAPI.OnEditShipment = func(ctx context.Context, req delhivery.EditRequest) (*delhivery.EditResponse, error) {
			return nil, &delhivery.APIError{StatusCode: 400, Message: "bad waybill"}
		}
		err := newTestClient(mockAPI).CancelShipment(context.Background(), "AWB1")
		assert.True(t, errors.Is(err, delhivery.ErrValidation))
	})
}

func TestEditShipment_TranslatesFields(t *testing.T) {
	mockAPI := delhivery.NewMockAPIClient()
	var sent delhivery.EditRequest
	mockAPI.OnEditShipment = func(ctx context.Context, req delhivery.EditRequest) (*delhivery.EditResponse, error) {
		sent = req
		return &delhivery.EditResponse{Status: true}, nil
	}
	client := newTestClient(mockAPI)

	err := client.EditShipment(context.Background(), "AWB1", map[string]any{
		"pt":          domain.PaymentPrepaid,
		"name":        "Asha",
		"admin_notes": "local only",
	})
	require.NoError(t, err)
	assert.Equal(t, "AWB1", sent["waybill"])
	assert.Equal(t, "Pre-paid", sent["pt"])
	assert.NotContains(t, sent, "admin_notes")

	sent = nil
	require.NoError(t, client.EditShipment(context.Background(), "AWB1", map[string]any{"admin_notes": "x"}))
	assert.Nil(t, sent, "notes-only edits never reach the courier")
}
