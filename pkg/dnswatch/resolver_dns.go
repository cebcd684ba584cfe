package dnswatch

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"

	"github.com/miekg/dns"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

const DefaultResolvConf = "/etc/resolv.conf"

// dnsResolver sends A queries directly so the rcode tells NXDOMAIN and
// NODATA apart, which net.Resolver folds into a single "not found".
type dnsResolver struct {
	client  *dns.Client
	servers []string
}

func NewDNSResolver(options ResolverOptions) (Resolver, error) {
	servers, err := nameservers(options)
	if err != nil {
		return nil, err
	}
	return &dnsResolver{
		client:  &dns.Client{Net: "udp", Timeout: options.Timeout},
		servers: servers,
	}, nil
}

func nameservers(options ResolverOptions) ([]string, error) {
	if options.Nameserver != "" {
		if _, _, err := net.SplitHostPort(options.Nameserver); err == nil {
			return []string{options.Nameserver}, nil
		}
		return []string{net.JoinHostPort(options.Nameserver, "53")}, nil
	}

	path := options.ResolvConf
	if path == "" {
		path = DefaultResolvConf
	}
	config, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, errors.NewIOError("failed to read resolver configuration", err).WithContext("path", path)
	}
	if len(config.Servers) == 0 {
		return nil, errors.NewValidationError("no nameservers configured", nil).WithContext("path", path)
	}

	servers := make([]string, 0, len(config.Servers))
	for _, server := range config.Servers {
		servers = append(servers, net.JoinHostPort(server, config.Port))
	}
	return servers, nil
}

func (r *dnsResolver) Resolve(ctx context.Context, domain string) Resolution {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		response, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}

		switch response.Rcode {
		case dns.RcodeNameError:
			return Resolution{Kind: ResolutionNXDomain}
		case dns.RcodeSuccess:
			addresses := make([]string, 0, len(response.Answer))
			for _, rr := range response.Answer {
				if a, ok := rr.(*dns.A); ok {
					addresses = append(addresses, a.A.String())
				}
			}
			if len(addresses) == 0 {
				return Resolution{Kind: ResolutionNoData}
			}
			return Resolution{Kind: ResolutionAnswer, Addresses: addresses}
		default:
			// SERVFAIL, REFUSED and friends: ask the next server.
			lastErr = fmt.Errorf("server %s answered %s", server, dns.RcodeToString[response.Rcode])
		}
	}

	if isTimeout(lastErr) {
		return Resolution{Kind: ResolutionTimeout, Detail: lastErr.Error()}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no nameserver answered")
	}
	return Resolution{Kind: ResolutionFailure, Detail: lastErr.Error()}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, os.ErrDeadlineExceeded)
}
