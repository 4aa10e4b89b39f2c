package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ResolveLink turns href into an absolute http(s) URL using pageURL as base.
// Fragments are dropped; non-web schemes such as mailto: are rejected.
func ResolveLink(pageURL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty href")
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href: %w", err)
	}
	abs := base.ResolveReference(ref)
	abs.Fragment = ""
	abs.Scheme = strings.ToLower(abs.Scheme)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", abs.Scheme)
	}
	return abs.String(), nil
}

// PageURL returns the listing URL for the given 1-based page index.
// Page 1 is the category URL itself.
func PageURL(categoryURL, param string, page int) (string, error) {
	if page <= 1 {
		return categoryURL, nil
	}
	u, err := url.Parse(categoryURL)
	if err != nil {
		return "", fmt.Errorf("parse category url: %w", err)
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
