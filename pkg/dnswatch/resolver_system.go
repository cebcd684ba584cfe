package dnswatch

import (
	"context"
	stderrors "errors"
	"net"
	"time"
)

type systemResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// NewSystemResolver uses the platform resolver. It cannot distinguish a
// missing domain from a missing A record, both come back as NXDomain.
func NewSystemResolver(timeout time.Duration) Resolver {
	return &systemResolver{
		resolver: net.DefaultResolver,
		timeout:  timeout,
	}
}

func (r *systemResolver) Resolve(ctx context.Context, domain string) Resolution {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	ips, err := r.resolver.LookupIP(ctx, "ip4", domain)
	if err != nil {
		var dnsErr *net.DNSError
		if stderrors.As(err, &dnsErr) {
			switch {
			case dnsErr.IsNotFound:
				return Resolution{Kind: ResolutionNXDomain}
			case dnsErr.IsTimeout:
				return Resolution{Kind: ResolutionTimeout, Detail: dnsErr.Error()}
			}
		}
		if isTimeout(err) {
			return Resolution{Kind: ResolutionTimeout, Detail: err.Error()}
		}
		return Resolution{Kind: ResolutionFailure, Detail: err.Error()}
	}

	if len(ips) == 0 {
		return Resolution{Kind: ResolutionNoData}
	}
	addresses := make([]string, 0, len(ips))
	for _, ip := range ips {
		addresses = append(addresses, ip.String())
	}
	return Resolution{Kind: ResolutionAnswer, Addresses: addresses}
}
