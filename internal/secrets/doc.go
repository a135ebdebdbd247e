// Package secrets resolves per-tenant upstream API credentials.
//
// Tenant credentials have accumulated across three storage generations:
// current-generation secret references, a legacy reference field under an
// older name, and (oldest) plaintext keys embedded directly on the tenant
// record. The resolver walks these generations in order and silently
// migrates whatever it finds forward, so resolution is self-healing: after
// the first successful call a tenant always short-circuits on the
// current-generation reference.
package secrets
