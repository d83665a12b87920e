package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeToE164(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		country string
		want    string
	}{
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   ", want: ""},
		{name: "already E.164", input: "+15551234567", want: "+15551234567"},
		{name: "E.164 with surrounding spaces", input: "  +972541234567 ", want: "+972541234567"},
		{name: "short E.164 kept", input: "+1234567", want: "+1234567"},
		{name: "US local 10 digits", input: "5551234567", want: "+15551234567"},
		{name: "US with country code", input: "15551234567", want: "+15551234567"},
		{name: "parentheses and dashes", input: "(555) 123-4567", want: "+15551234567"},
		{name: "dots", input: "555.123.4567", want: "+15551234567"},
		{name: "plus with spaces", input: "+1 (212) 555-1234", want: "+12125551234"},
		{name: "letters only", input: "abc", want: ""},
		{name: "only special characters", input: "()---   ", want: ""},
		{name: "international fallback", input: "44 20 7123 4567", want: "+442071234567"},
		{name: "seven digits", input: "1234567", want: "+1234567"},
		{name: "six digits", input: "123456", want: ""},
		{name: "sixteen digits", input: "1234567890123456", want: ""},
		{name: "10 digits outside US", input: "5551234567", country: "GB", want: "+5551234567"},
		{name: "lowercase us country", input: "5551234567", country: "us", want: "+15551234567"},
		{name: "11 digits not leading 1", input: "25551234567", want: "+25551234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeToE164(tt.input, tt.country))
		})
	}
}

func TestNormalizeToE164_Idempotent(t *testing.T) {
	inputs := []string{
		"+1234567",
		"+15551234567",
		"+442071234567",
		"+123456789012345",
		"(555) 123-4567",
		"15551234567",
		"44 20 7123 4567",
	}

	for _, in := range inputs {
		once := NormalizeToE164(in, DefaultCountry)
		assert.Equal(t, once, NormalizeToE164(once, DefaultCountry), "input %q", in)
	}
}

func TestNormalizePhone_UsesUSDefault(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone("555-123-4567"))
}

func TestFormatPhoneDisplay(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: "-"},
		{name: "whitespace", input: "  ", want: "-"},
		{name: "E.164 US", input: "+15551234567", want: "(555) 123-4567"},
		{name: "10 digits", input: "5551234567", want: "(555) 123-4567"},
		{name: "already formatted", input: "(555) 123-4567", want: "(555) 123-4567"},
		{name: "non-US passthrough", input: " +442071234567 ", want: "+442071234567"},
		{name: "garbage passthrough", input: "call me", want: "call me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPhoneDisplay(tt.input))
		})
	}
}

func TestPhoneRegion(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "israel", input: "+972541234567", want: "IL"},
		{name: "united kingdom", input: "+442071234567", want: "GB"},
		{name: "not normalized", input: "5551234567", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhoneRegion(tt.input))
		})
	}
}
