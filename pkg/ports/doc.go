/*
Package ports defines the driven ports (interfaces) for the canopy runtime.

These interfaces decouple the design runtime from the backend that stores and
streams its events, allowing the same runtime to sit on top of an in-memory log,
Redis Streams, a bbolt file, a Kafka topic or a remote HTTP server.

# Key Interfaces

  - EventLog: Ordered, replayable stream of design events (startup fetch, live feed, append).
  - IDSource: Hands out batches of fresh element identifiers.
  - SnapshotStore: Persists materialized design trees per project.
  - DistributedLocker: Provides distributed locking for concurrent snapshot access.
*/
package ports
