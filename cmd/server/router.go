package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accesshandler "laurel/internal/access/handler"
	certhandler "laurel/internal/certificate/handler"
	expiryhandler "laurel/internal/expiry/handler"
	mshandler "laurel/internal/multisig/handler"
	"laurel/internal/platform/config"
	"laurel/internal/platform/health"
	policyhandler "laurel/internal/policy/handler"
	prereqhandler "laurel/internal/prereq/handler"
	"laurel/pkg/platform/middleware/admin"
	"laurel/pkg/platform/middleware/auth"
	"laurel/pkg/platform/middleware/device"
	"laurel/pkg/platform/middleware/metadata"
	"laurel/pkg/platform/middleware/request"
	"laurel/pkg/platform/middleware/requesttime"
)

const deviceCookieName = "__Secure-Device-ID"

// routerDeps collects everything the HTTP surface needs from the
// composition root.
type routerDeps struct {
	cfg         *config.Config
	logger      *slog.Logger
	proxies     []netip.Prefix
	validator   auth.TokenValidator
	revocations auth.TokenRevocationChecker
	fingerprint func(userAgent string) string

	health       *health.Handler
	certificates *certhandler.Handler
	courses      *prereqhandler.Handler
	approvals    *mshandler.Handler
	lifecycle    *expiryhandler.Handler
	policies     *policyhandler.Handler
	access       *accesshandler.Handler
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(deps.logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: deps.proxies}).Handler)
	r.Use(device.Device(&device.DeviceConfig{
		FingerprintFn: deps.fingerprint,
		CookieName:    deviceCookieName,
	}))
	r.Use(request.Logger(deps.logger))
	r.Use(request.Timeout(deps.cfg.Server.RequestTimeout))
	r.Use(request.BodyLimit(deps.cfg.Server.MaxBodyBytes))
	r.Use(request.LatencyMiddleware(request.NewMetrics()))

	deps.health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Unauthenticated reads. Employers verify certificates and students
	// inspect learning paths without holding a token.
	r.Group(func(r chi.Router) {
		deps.certificates.RegisterPublic(r)
		deps.courses.RegisterPublic(r)
		deps.approvals.RegisterPublic(r)
		deps.lifecycle.RegisterPublic(r)
		deps.policies.RegisterPublic(r)
	})

	// Governance writes require a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.validator, deps.revocations, deps.logger))

		r.Group(func(r chi.Router) {
			r.Use(request.ContentTypeJSON)
			deps.certificates.Register(r)
			deps.courses.Register(r)
			deps.approvals.Register(r)
			deps.lifecycle.Register(r)
		})

		// Policy documents arrive as raw YAML, so the JSON content-type
		// guard stays off these routes.
		deps.policies.Register(r)
	})

	// Role administration rides the static admin token instead of a bearer
	// token; it has to work before any role exists to mint tokens with.
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(deps.cfg.Server.AdminTokenHash, deps.logger))
		r.Use(request.ContentTypeJSON)
		deps.access.Register(r)
	})

	return r
}

// parseTrustedProxies converts configured CIDR strings into prefixes for the
// metadata middleware. A malformed entry fails startup rather than silently
// widening or narrowing the set of proxies allowed to assert client IPs.
func parseTrustedProxies(cidrs []string) ([]netip.Prefix, error) {
	if len(cidrs) == 0 {
		return nil, nil
	}
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("parse trusted proxy %q: %w", cidr, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}
