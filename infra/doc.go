// Package infra contains technical adapters: the zerolog logger, the
// Prometheus and Sentry integrations, graph and instance file formats and
// the epoch record stores. These packages depend only on the interfaces
// defined in the core packages.
package infra
