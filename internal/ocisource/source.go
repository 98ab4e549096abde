package ocisource

import (
	"context"
	"time"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/rs/zerolog"

	"oci-compliance-report/internal/collect"
	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/scope"
)

// Service names used for breakers and log fields.
const (
	serviceIdentity      = "identity"
	serviceOSManagement  = "osmanagement"
	serviceObjectStorage = "objectstorage"
	serviceFileStorage   = "filestorage"
	serviceCloudGuard    = "cloudguard"
	serviceDatabase      = "database"
	serviceLoadBalancer  = "loadbalancer"
	serviceNetwork       = "virtualnetwork"
	serviceCompute       = "compute"
	serviceMonitoring    = "monitoring"
	serviceAnnouncements = "announcements"
)

// Source implements scope.Directory and every inventory source on top of the OCI SDK.
// Each call is retried on transient errors and guarded by a breaker per service.
type Source struct {
	clients    *Clients
	maxRetries int
	breakers   *breakers
	log        zerolog.Logger
}

// Option configures a Source.
type Option func(*Source)

func WithMaxRetries(n int) Option {
	return func(s *Source) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

func WithBreakerSettings(settings BreakerSettings) Option {
	return func(s *Source) {
		s.breakers = newBreakers(settings, s.log)
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Source) {
		s.log = log
	}
}

func NewSource(clients *Clients, opts ...Option) *Source {
	s := &Source{
		clients:    clients,
		maxRetries: DefaultMaxRetries,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breakers == nil {
		s.breakers = newBreakers(DefaultBreakerSettings(), s.log)
	}
	return s
}

// call runs one SDK request through the service breaker and the retry loop.
func call[T any](ctx context.Context, s *Source, service, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.breakers.execute(service, func() error {
		return withRetry(ctx, s.log, func() error {
			var err error
			out, err = fn(ctx)
			return err
		}, s.maxRetries, service+"."+op)
	})
	if err != nil {
		var zero T
		s.log.Debug().Err(err).Str("service", service).Str("operation", op).Str("opc_request_id", requestID(err)).Msg("OCI call failed")
		return zero, err
	}
	return out, nil
}

// page converts a listing response into a collect.Page.
func page[S, T any](items []S, next *string, convert func(S) T) *collect.Page[T] {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, convert(item))
	}
	return collect.NewPage(out, next)
}

func limit(opts collect.PageOptions) *int {
	if opts.Limit <= 0 {
		return nil
	}
	return common.Int(opts.Limit)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return common.String(s)
}

func boolean(p *bool) bool {
	return p != nil && *p
}

func integer(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func int64Of(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func sdkTime(t *common.SDKTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}

var (
	_ scope.Directory               = (*Source)(nil)
	_ inventory.PatchSource         = (*Source)(nil)
	_ inventory.InstanceGroupSource = (*Source)(nil)
	_ inventory.ObjectStorageSource = (*Source)(nil)
	_ inventory.FileStorageSource   = (*Source)(nil)
	_ inventory.CloudGuardSource    = (*Source)(nil)
	_ inventory.DatabaseSource      = (*Source)(nil)
	_ inventory.LoadBalancerSource  = (*Source)(nil)
	_ inventory.VPNSource           = (*Source)(nil)
	_ inventory.ComputeSource       = (*Source)(nil)
	_ inventory.AnnouncementSource  = (*Source)(nil)
)

// Sources exposes the Source under every inventory source interface.
func (s *Source) Sources() inventory.Sources {
	return inventory.Sources{
		Patch:         s,
		Groups:        s,
		ObjectStorage: s,
		FileStorage:   s,
		CloudGuard:    s,
		Database:      s,
		LoadBalancer:  s,
		VPN:           s,
		Compute:       s,
		Announcements: s,
	}
}
