package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Test struct with validation tags
type testLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	Email     string `json:"email" validate:"required,email"`
}

// Feature: pricing-settlement, Property 14: Required field validation works
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeProduct bool, includeQuantity bool, includeEmail bool) bool {
			// Create request with some fields missing
			reqMap := make(map[string]interface{})

			if includeProduct {
				reqMap["product_id"] = uuid.NewString()
			}
			if includeQuantity {
				reqMap["quantity"] = 5
			}
			if includeEmail {
				reqMap["email"] = "buyer@example.com"
			}

			// If all fields are present, this should pass validation
			allFieldsPresent := includeProduct && includeQuantity && includeEmail

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var testReq testLineRequest
			err := DecodeAndValidate(req, &testReq)

			if allFieldsPresent {
				// Should pass validation
				return err == nil
			}
			// Should fail validation
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that validation errors are properly formatted
func TestProperty_ValidationErrorsAreFormatted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors include field information", prop.ForAll(
		func() bool {
			// Create request with an invalid product id
			reqMap := map[string]interface{}{
				"product_id": "not-a-uuid",
				"quantity":   5,
				"email":      "buyer@example.com",
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var testReq testLineRequest
			err := DecodeAndValidate(req, &testReq)

			if err == nil {
				return false // Should have validation error
			}

			// Format the errors
			validationErrors := FormatValidationErrors(err)

			// Should have at least one error
			if len(validationErrors) == 0 {
				return false
			}

			// Each error should have a field and message
			for _, ve := range validationErrors {
				if ve.Field == "" || ve.Message == "" {
					return false
				}
			}

			return true
		},
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test quantity range validation
func TestProperty_QuantityValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-positive quantities are rejected", prop.ForAll(
		func(quantity int) bool {
			reqMap := map[string]interface{}{
				"product_id": uuid.NewString(),
				"quantity":   quantity,
				"email":      "buyer@example.com",
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var testReq testLineRequest
			err := DecodeAndValidate(req, &testReq)

			if quantity > 0 {
				return err == nil // Should pass
			}
			return err != nil // Should fail
		},
		gen.IntRange(-100, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Malformed JSON fails before validation runs
func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte(`{"quantity": `)))
	req.Header.Set("Content-Type", "application/json")

	var testReq testLineRequest
	if err := DecodeAndValidate(req, &testReq); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}
