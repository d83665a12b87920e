package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	DefaultCountry = "US"

	DisplayPlaceholder = "-"
)

var (
	reE164     = regexp.MustCompile(`^\+\d{7,15}$`)
	reNonDigit = regexp.MustCompile(`\D+`)
)

// NormalizeToE164 canonicalizes free-form phone text into E.164. It returns
// "" when no dialable number can be derived. Values already in E.164 shape
// are returned unchanged, so the function is idempotent.
func NormalizeToE164(raw string, defaultCountry string) string {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return ""
	}

	if reE164.MatchString(phone) {
		return phone
	}

	digits := reNonDigit.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}

	switch {
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	case len(digits) == 10 && isUS(defaultCountry):
		return "+1" + digits
	case len(digits) >= 7 && len(digits) <= 15:
		// no per-country length rules here
		return "+" + digits
	}
	return ""
}

func NormalizePhone(raw string) string {
	return NormalizeToE164(raw, DefaultCountry)
}

// FormatPhoneDisplay renders US numbers as "(AAA) BBB-CCCC". Anything else is
// echoed back trimmed.
func FormatPhoneDisplay(raw string) string {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return DisplayPlaceholder
	}

	digits := reNonDigit.ReplaceAllString(phone, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return phone
	}

	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}

// PhoneRegion returns the ISO 3166-1 region code for a normalized number, or
// "" when the number cannot be parsed. Numbers that fail per-region validation
// still resolve to the main region of their calling code.
func PhoneRegion(e164 string) string {
	e164 = strings.TrimSpace(e164)
	if !reE164.MatchString(e164) {
		return ""
	}

	number, err := phonenumbers.Parse(e164, DefaultCountry)
	if err != nil {
		return ""
	}

	region := phonenumbers.GetRegionCodeForNumber(number)
	if region == "" || region == phonenumbers.UNKNOWN_REGION {
		region = phonenumbers.GetRegionCodeForCountryCode(int(number.GetCountryCode()))
	}
	if region == phonenumbers.UNKNOWN_REGION {
		return ""
	}
	return region
}

func isUS(country string) bool {
	country = strings.TrimSpace(country)
	return country == "" || strings.EqualFold(country, DefaultCountry)
}
