// Package geoip maps client IPs to ISO country codes using a MaxMind
// database. Registration falls back to it for the donor location field.
package geoip

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// Resolver wraps a GeoIP2 country database. A nil Resolver is valid
// and resolves every address to the empty country.
type Resolver struct {
	reader *geoip2.Reader
}

// Open loads the database at path. An empty path means the lookup is
// not configured and yields a nil resolver without error.
func Open(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Country returns the ISO country code for the provided IP, empty when
// the database has no answer.
func (r *Resolver) Country(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record == nil || record.Country.IsoCode == "" {
		return "", nil
	}
	return record.Country.IsoCode, nil
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
