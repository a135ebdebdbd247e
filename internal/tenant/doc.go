// Package tenant defines the data access contract for tenant records.
//
// Tenant records are created by the client-management side of the platform;
// the gateway only reads them and writes back credential-migration and
// metric-detection results. The contract therefore exposes lookups plus a
// partial update with explicit clear-field semantics, and nothing else.
//
// Repository implementations live in repository/postgres/ and
// repository/memory/.
package tenant
