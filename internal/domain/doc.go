// Package domain contains the core domain model for Oread.
//
// The domain is process- and persistence-agnostic: it does not depend on YAML parsing,
// os/exec, or the filesystem. Infra/adapters map into/from these types.
package domain
