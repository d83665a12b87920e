package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
	}{
		{name: "Israel phone", phone: "+972541234567", wantCode: "IL"},
		{name: "US phone", phone: "+12125551234", wantCode: "US"},
		{name: "UK phone", phone: "+442071234567", wantCode: "GB"},
		{name: "unmapped region", phone: "+81312345678", wantCode: ""},
		{name: "not normalized", phone: "12125551234", wantCode: ""},
		{name: "empty phone", phone: "", wantCode: ""},
		{name: "invalid phone", phone: "not-a-phone", wantCode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantCode == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestInferTimezoneFromPhone(t *testing.T) {
	assert.Equal(t, "Asia/Jerusalem", InferTimezoneFromPhone("+972541234567"))
	assert.Equal(t, "America/New_York", InferTimezoneFromPhone("+12125551234"))
	assert.Equal(t, "Europe/London", InferTimezoneFromPhone("+442071234567"))
	assert.Equal(t, DefaultTimezone, InferTimezoneFromPhone("+81312345678"))
	assert.Equal(t, DefaultTimezone, InferTimezoneFromPhone(""))
}
