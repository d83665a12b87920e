package sanitizer

import (
	"net/url"
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reKeepLettersOnly = regexp.MustCompile(`[^\p{L}]+`)
	reTrimUnderscores = regexp.MustCompile(`_+`)
	reHandle          = regexp.MustCompile(`^[a-z0-9._]+$`)
)

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

func collapseUnderscores(s string) string {
	s = reTrimUnderscores.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// SanitizeCityKey builds the search key stored next to a display city.
func SanitizeCityKey(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reKeepLettersOnly.ReplaceAllString(s, "_") },
		collapseUnderscores,
	}
	return p.Apply(input)
}

// SanitizeHandle strips URL prefixes and the leading "@" from a social handle.
// Values that are not plain handles are returned trimmed so that full profile
// links still count as present.
func SanitizeHandle(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	lowered := strings.ToLower(s)
	for _, prefix := range []string{"https://", "http://", "www.", "instagram.com/", "tiktok.com/"} {
		lowered = strings.TrimPrefix(lowered, prefix)
	}
	lowered = strings.TrimSuffix(strings.TrimPrefix(lowered, "@"), "/")
	if reHandle.MatchString(lowered) {
		return lowered
	}
	return s
}

func SanitizeURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	if !strings.HasPrefix(strings.ToLower(s), "http://") && !strings.HasPrefix(strings.ToLower(s), "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	if after, ok := strings.CutPrefix(u.Host, "www."); ok {
		u.Host = after
	}
	u.Path = strings.TrimSuffix(strings.TrimSpace(u.Path), "/")

	q := u.Query()
	qClean := url.Values{}
	for k, v := range q {
		key := strings.TrimSpace(strings.ToLower(k))
		if strings.HasPrefix(key, "utm_") {
			continue
		}
		for _, val := range v {
			if value := strings.TrimSpace(val); value != "" {
				qClean.Add(key, value)
			}
		}
	}
	u.RawQuery = qClean.Encode()
	u.Fragment = ""

	return u.String()
}

func SanitizeURLs(urls []string) []string {
	return NormalizeStringSlice(urls, SanitizeURL)
}
