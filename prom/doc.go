// Package prom exposes bastion lifecycle events as Prometheus metrics.
//
// It adapts a [bastion.Hooks] to a set of collectors so that breaker state,
// rejections, slow calls, and retry activity can be scraped without the core
// package knowing about Prometheus.
package prom
