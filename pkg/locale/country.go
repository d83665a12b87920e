package locale

const (
	DefaultTimezone = "UTC"
)

type Country struct {
	Code            string // ISO 3166-1 alpha-2 region (e.g., "US", "IL")
	Name            string
	CallingCode     string // e.g. "+1"
	DefaultTimezone string // IANA identifier
}

var (
	Countries = map[string]Country{
		"US": {Code: "US", Name: "United States", CallingCode: "+1", DefaultTimezone: "America/New_York"},
		"CA": {Code: "CA", Name: "Canada", CallingCode: "+1", DefaultTimezone: "America/Toronto"},
		"GB": {Code: "GB", Name: "United Kingdom", CallingCode: "+44", DefaultTimezone: "Europe/London"},
		"IL": {Code: "IL", Name: "Israel", CallingCode: "+972", DefaultTimezone: "Asia/Jerusalem"},
		"AU": {Code: "AU", Name: "Australia", CallingCode: "+61", DefaultTimezone: "Australia/Sydney"},
		"DE": {Code: "DE", Name: "Germany", CallingCode: "+49", DefaultTimezone: "Europe/Berlin"},
		"MX": {Code: "MX", Name: "Mexico", CallingCode: "+52", DefaultTimezone: "America/Mexico_City"},
	}
)
