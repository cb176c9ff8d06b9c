package geoip

import (
	"context"
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/rs/zerolog/log"
)

// Provider wraps the GeoIP2 database reader to provide country lookup functionality.
type Provider struct {
	db       *geoip2.Reader
	resolver *net.Resolver
}

// Open initializes the GeoIP database reader from a specific file path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db, resolver: net.DefaultResolver}, nil
}

// Close closes the underlying GeoIP database reader.
func (p *Provider) Close() error {
	return p.db.Close()
}

// CountryCode returns the ISO country code (e.g., "US", "DE") for an IP literal or a host name.
// Host names are resolved and the first address with a known country wins.
// It returns an empty string when nothing can be determined.
func (p *Provider) CountryCode(ctx context.Context, host string) string {
	if ip := net.ParseIP(host); ip != nil {
		return p.lookup(ip)
	}

	addrs, err := p.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("host", host).Msg("GeoIP host lookup failed")
		return ""
	}

	for _, addr := range addrs {
		if code := p.lookup(addr.IP); code != "" {
			return code
		}
	}

	return ""
}

func (p *Provider) lookup(ip net.IP) string {
	record, err := p.db.Country(ip)
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}
