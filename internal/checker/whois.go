package checker

import (
	"fmt"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// WHOISClient looks up registration expiry for the full-sweep
// enrichment pass.
type WHOISClient struct{}

func NewWHOISClient() *WHOISClient {
	return &WHOISClient{}
}

func (w *WHOISClient) ExpiresAt(domain string) (*time.Time, error) {
	raw, err := whois.Whois(domain)
	if err != nil {
		return nil, fmt.Errorf("whois lookup failed: %w", err)
	}

	result, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("whois parse failed: %w", err)
	}

	if result.Domain.ExpirationDate == "" {
		return nil, nil
	}

	t, err := parseWhoisDate(result.Domain.ExpirationDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseWhoisDate(dateStr string) (time.Time, error) {
	// Common WHOIS date formats; registries are not consistent.
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"02-Jan-2006",
		"2006.01.02 15:04:05",
		"2006/01/02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
