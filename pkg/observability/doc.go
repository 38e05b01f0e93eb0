/*
Package observability binds the design runtime's lifecycle hooks to Prometheus
metrics and structured logs.

Hooks run while the runtime lock is held, so everything here is non-blocking.
*/
package observability
