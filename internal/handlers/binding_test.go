package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindTarget struct {
	PropertyAddress string  `json:"property_address"`
	RentalAmount    float64 `json:"rental_amount"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindTarget
		expectError bool
	}{
		{
			name:     "nested payload under the resource key",
			key:      "application",
			body:     `{"application": {"property_address": "12 Oak St", "rental_amount": 2500}}`,
			expected: bindTarget{PropertyAddress: "12 Oak St", RentalAmount: 2500},
		},
		{
			name:     "flat payload",
			key:      "application",
			body:     `{"property_address": "12 Oak St", "rental_amount": 2500}`,
			expected: bindTarget{PropertyAddress: "12 Oak St", RentalAmount: 2500},
		},
		{
			name:     "missing key falls back to flat binding",
			key:      "application",
			body:     `{"other": "value", "property_address": "99 Elm Ave", "rental_amount": 1800}`,
			expected: bindTarget{PropertyAddress: "99 Elm Ave", RentalAmount: 1800},
		},
		{
			name:     "different resource key",
			key:      "lease",
			body:     `{"lease": {"property_address": "7 Pine Rd", "rental_amount": 3100}}`,
			expected: bindTarget{PropertyAddress: "7 Pine Rd", RentalAmount: 3100},
		},
		{
			name:        "flat payload with wrong field type",
			key:         "application",
			body:        `{"property_address": "12 Oak St", "rental_amount": "invalid"}`,
			expectError: true,
		},
		{
			name:        "nested payload with wrong field type",
			key:         "application",
			body:        `{"application": {"property_address": "12 Oak St", "rental_amount": "invalid"}}`,
			expectError: true,
		},
		{
			name:        "nested key present but not an object",
			key:         "application",
			body:        `{"application": "some string"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result bindTarget
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
