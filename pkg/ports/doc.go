/*
Package ports defines the driven ports (interfaces) for the content graph engine.

These interfaces decouple the presentation state machine from external implementations,
so the same machine runs in a terminal, behind HTTP, or inside tests.

# Key Interfaces

  - DocumentSource: fetches the authored Document (file, memory, HTTP upload).
  - SequencePlayer: plays a visual sequence and returns when it completes.
  - SnapshotStore: persists session Snapshots between requests.
  - DistributedLocker: provides distributed locking for concurrent session access.
  - Presenter: the session-facing surface consumed by the HTTP and MCP adapters.
*/
package ports
