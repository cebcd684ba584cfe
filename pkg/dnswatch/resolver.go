package dnswatch

import (
	"context"
	"time"

	"github.com/TenmonAI/tenmon-ark-monitor/pkg/errors"
)

// ResolutionKind is what a resolver adapter reports; the adapters own all
// inspection of library-specific error types.
type ResolutionKind int

const (
	ResolutionAnswer ResolutionKind = iota
	ResolutionNXDomain
	ResolutionNoData
	ResolutionTimeout
	ResolutionFailure
)

type Resolution struct {
	Kind      ResolutionKind
	Addresses []string
	Detail    string
}

// Resolver performs one A-record resolution attempt
type Resolver interface {
	Resolve(ctx context.Context, domain string) Resolution
}

// ResolverFunc adapts a plain function to Resolver
type ResolverFunc func(ctx context.Context, domain string) Resolution

func (f ResolverFunc) Resolve(ctx context.Context, domain string) Resolution {
	return f(ctx, domain)
}

type ResolverType string

const (
	ResolverTypeDNS    ResolverType = "dns"
	ResolverTypeSystem ResolverType = "system"
)

type ResolverOptions struct {
	Type ResolverType `yaml:"type" toml:"type"`

	// Nameserver overrides the servers from ResolvConf, host or host:port
	Nameserver string        `yaml:"nameserver,omitempty" toml:"nameserver"`
	ResolvConf string        `yaml:"resolv_conf,omitempty" toml:"resolv_conf"`
	Timeout    time.Duration `yaml:"timeout,omitempty" toml:"timeout"`
}

// NewResolver builds the resolver selected by options.Type
func NewResolver(options ResolverOptions) (Resolver, error) {
	switch options.Type {
	case ResolverTypeDNS, "":
		return NewDNSResolver(options)
	case ResolverTypeSystem:
		return NewSystemResolver(options.Timeout), nil
	default:
		return nil, errors.NewValidationError("unsupported resolver type: "+string(options.Type), nil).
			WithContext("supported_types", "dns, system")
	}
}

func ValidateResolverOptions(options ResolverOptions) error {
	switch options.Type {
	case ResolverTypeDNS, ResolverTypeSystem, "":
	default:
		return errors.NewValidationError("unsupported resolver type: "+string(options.Type), nil)
	}
	if options.Timeout <= 0 {
		return errors.NewValidationError("resolver timeout must be positive", nil)
	}
	return nil
}
