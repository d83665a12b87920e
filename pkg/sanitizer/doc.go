// Package sanitizer provides input normalization functions for detailer and
// customer data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully, by
// returning empty strings or empty slices rather than errors. An empty result
// from NormalizeToE164 means the input could not be turned into a dialable
// number and callers decide the fallback.
//
// Normalization includes:
//   - Phone numbers: E.164 keys for storage and lookup, "(555) 123-4567" for display
//   - URLs: Enforce HTTPS, lowercase host, drop "www." and utm_* parameters
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Cities: search keys with letters only - "Los Angeles" becomes "los_angeles"
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
