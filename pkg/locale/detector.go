package locale

import "detailbook/pkg/sanitizer"

// InferCountryFromPhone expects an E.164 number and returns nil for regions
// outside Countries.
func InferCountryFromPhone(phone string) *Country {
	region := sanitizer.PhoneRegion(phone)
	if region == "" {
		return nil
	}
	country, ok := Countries[region]
	if !ok {
		return nil
	}
	return &country
}

func InferTimezoneFromPhone(phone string) string {
	if country := InferCountryFromPhone(phone); country != nil {
		return country.DefaultTimezone
	}
	return DefaultTimezone
}
