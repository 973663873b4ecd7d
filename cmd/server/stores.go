package main

import (
	"database/sql"

	accessservice "laurel/internal/access/service"
	accessstore "laurel/internal/access/store"
	certservice "laurel/internal/certificate/service"
	certstore "laurel/internal/certificate/store"
	expiryservice "laurel/internal/expiry/service"
	expirystore "laurel/internal/expiry/store"
	msservice "laurel/internal/multisig/service"
	msstore "laurel/internal/multisig/store"
	policyservice "laurel/internal/policy/service"
	policystore "laurel/internal/policy/store"
	prereqservice "laurel/internal/prereq/service"
	prereqstore "laurel/internal/prereq/store"
	"laurel/pkg/platform/audit"
	"laurel/pkg/platform/audit/outbox"
	outboxmemory "laurel/pkg/platform/audit/outbox/store/memory"
	outboxpostgres "laurel/pkg/platform/audit/outbox/store/postgres"
	auditmemory "laurel/pkg/platform/audit/store/memory"
	auditpostgres "laurel/pkg/platform/audit/store/postgres"
)

// storeSet bundles one persistence backend per context, typed as the
// interfaces the services consume. The certificate store appears three
// times because three contexts read it through their own narrow slice;
// all three fields hold the same instance, keeping the store the single
// source of truth for certificate state.
type storeSet struct {
	roles         accessservice.RoleStore
	certs         certservice.CertificateStore
	certLifecycle expiryservice.CertificateStore
	certReader    prereqservice.CertificateReader
	graph         prereqservice.GraphStore
	requests      msservice.RequestStore
	renewals      expiryservice.Store
	policies      policyservice.Store
	audit         audit.Store
	outbox        outbox.Store
}

// newPostgresStores wires every context onto the shared connection pool.
func newPostgresStores(db *sql.DB) *storeSet {
	certs := certstore.NewPostgres(db)
	return &storeSet{
		roles:         accessstore.NewPostgres(db),
		certs:         certs,
		certLifecycle: certs,
		certReader:    certs,
		graph:         prereqstore.NewPostgres(db),
		requests:      msstore.NewPostgres(db),
		renewals:      expirystore.NewPostgres(db),
		policies:      policystore.NewPostgres(db),
		audit:         auditpostgres.New(db),
		outbox:        outboxpostgres.New(db),
	}
}

// newMemoryStores runs the whole server in process. Suits development and
// the end-to-end tests; state does not survive a restart.
func newMemoryStores() *storeSet {
	certs := certstore.NewInMemoryStore()
	return &storeSet{
		roles:         accessstore.NewInMemoryStore(),
		certs:         certs,
		certLifecycle: certs,
		certReader:    certs,
		graph:         prereqstore.NewInMemoryStore(),
		requests:      msstore.NewInMemoryStore(),
		renewals:      expirystore.NewInMemoryStore(),
		policies:      policystore.NewInMemoryStore(),
		audit:         auditmemory.NewInMemoryStore(),
		outbox:        outboxmemory.New(),
	}
}
