package eligibility

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// Edit field names accepted by the courier's edit API, plus admin_notes which
// stays local.
const (
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldAddress      = "add"
	FieldProductsDesc = "products_desc"
	FieldWeight       = "weight"
	FieldHeight       = "shipment_height"
	FieldWidth        = "shipment_width"
	FieldLength       = "shipment_length"
	FieldPaymentType  = "pt"
	FieldCODAmount    = "cod_amount"
	FieldAdminNotes   = "admin_notes"
)

// EditableFields is the whitelist. Any other key is an error.
var EditableFields = []string{
	FieldName, FieldPhone, FieldAddress, FieldProductsDesc, FieldWeight,
	FieldHeight, FieldWidth, FieldLength, FieldPaymentType, FieldCODAmount, FieldAdminNotes,
}

const (
	maxWeightGrams  = 50000
	maxDimensionCm  = 200
	maxNotesLength  = 1000
	minNameLength   = 2
	phoneDigitCount = 10
)

var validate = validator.New()

// FieldsResult is the outcome of ValidateEditFields. Normalized holds the
// accepted values converted to their canonical Go types (float64 for numbers,
// domain.PaymentMode for pt, a 10-digit string for phone).
type FieldsResult struct {
	Valid      bool                `json:"valid"`
	Errors     []domain.FieldError `json:"errors,omitempty"`
	Normalized map[string]any      `json:"-"`
}

// ValidateEditFields checks every key of update against the whitelist and the
// per-field constraints. Unknown keys are reported, not dropped.
func ValidateEditFields(update map[string]any) FieldsResult {
	res := FieldsResult{Normalized: make(map[string]any, len(update))}
	if len(update) == 0 {
		res.Errors = append(res.Errors, domain.FieldError{Field: "fields", Message: "no fields to update"})
		return res
	}

	keys := make([]string, 0, len(update))
	for k := range update {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := checkField(k, update[k])
		if err != nil {
			res.Errors = append(res.Errors, domain.FieldError{Field: k, Message: err.Error()})
			continue
		}
		res.Normalized[k] = v
	}
	res.Valid = len(res.Errors) == 0
	return res
}

func checkField(key string, raw any) (any, error) {
	switch key {
	case FieldName:
		s, err := asString(raw)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if len([]rune(s)) < minNameLength {
			return nil, fmt.Errorf("must be at least %d characters", minNameLength)
		}
		return s, nil

	case FieldPhone:
		s, err := asString(raw)
		if err != nil {
			return nil, err
		}
		phone, ok := NormalizePhone(s)
		if !ok {
			return nil, fmt.Errorf("must contain exactly %d digits", phoneDigitCount)
		}
		return phone, nil

	case FieldAddress, FieldProductsDesc:
		s, err := asString(raw)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("must not be empty")
		}
		return s, nil

	case FieldWeight:
		return numberInRange(raw, maxWeightGrams)

	case FieldHeight, FieldWidth, FieldLength:
		return numberInRange(raw, maxDimensionCm)

	case FieldPaymentType:
		s, err := asString(raw)
		if err != nil {
			return nil, err
		}
		mode := domain.ParsePaymentMode(s)
		if mode != domain.PaymentCOD && mode != domain.PaymentPrepaid {
			return nil, fmt.Errorf("must be COD or Prepaid")
		}
		return mode, nil

	case FieldCODAmount:
		n, err := asNumber(raw)
		if err != nil {
			return nil, err
		}
		if err := validate.Var(n, "gte=0"); err != nil {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil

	case FieldAdminNotes:
		s, err := asString(raw)
		if err != nil {
			return nil, err
		}
		if err := validate.Var(s, fmt.Sprintf("max=%d", maxNotesLength)); err != nil {
			return nil, fmt.Errorf("must be at most %d characters", maxNotesLength)
		}
		return s, nil
	}
	return nil, fmt.Errorf("field is not editable")
}

// numberInRange accepts values in (0, max].
func numberInRange(raw any, max int) (float64, error) {
	n, err := asNumber(raw)
	if err != nil {
		return 0, err
	}
	if err := validate.Var(n, fmt.Sprintf("gt=0,lte=%d", max)); err != nil {
		return 0, fmt.Errorf("must be greater than 0 and at most %d", max)
	}
	return n, nil
}

// NormalizePhone strips formatting and a leading +91 / 0 trunk prefix.
func NormalizePhone(s string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != phoneDigitCount {
		return "", false
	}
	return digits, true
}

func asString(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("must be a string")
	}
	return s, nil
}

func asNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number")
		}
		return f, nil
	}
	return 0, fmt.Errorf("must be a number")
}
