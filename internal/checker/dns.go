package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

const defaultDNSServer = "8.8.8.8:53"

// Resolver answers A lookups for the full-sweep DNS snapshot.
type Resolver struct {
	client *dns.Client
	server string
}

func NewResolver() *Resolver {
	server := defaultDNSServer
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(conf.Servers) > 0 {
		server = conf.Servers[0] + ":" + conf.Port
	}

	return &Resolver{
		client: &dns.Client{Timeout: 5 * time.Second},
		server: server,
	}
}

// LookupA resolves the domain's A records.
func (r *Resolver) LookupA(ctx context.Context, domain string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("dns lookup returned %s", dns.RcodeToString[resp.Rcode])
	}

	var ips []string
	for _, answer := range resp.Answer {
		if a, ok := answer.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips, nil
}
