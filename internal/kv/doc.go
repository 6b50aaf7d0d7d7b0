// Package kv provides the persistence backends behind the tenant store:
// an in-memory map for tests and single-node development, Redis for
// production, and Postgres for deployments that already run one.
package kv
