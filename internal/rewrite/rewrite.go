// Package rewrite makes root-relative references in an upstream page absolute.
package rewrite

import "strings"

// HTML rewrites href="/, src="/ and "/search (in that order) against base,
// which must end with a slash. Other forms such as action="/ or CSS url(/...)
// are left untouched.
func HTML(body, base string) string {
	body = strings.ReplaceAll(body, `href="/`, `href="`+base)
	body = strings.ReplaceAll(body, `src="/`, `src="`+base)
	body = strings.ReplaceAll(body, `"/search`, `"`+base+"search")
	return body
}

// EnsureTrailingSlash is used on directory keys before they become a base.
func EnsureTrailingSlash(base string) string {
	if strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}
