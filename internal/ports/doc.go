// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Transport], [Session], [Channel]: authenticated remote copy with atomic placement
//   - [LedgerRepository]: durable per-file send state
//   - [Exporter]: turns pending records into one batch file
//   - [Archiver]: moves sent files out of the outgoing directory
//   - [MediaStore]: media directory plus its append-only sent log
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with SSH/SFTP,
// SQL, the local file system, zerolog, or in-memory fakes for tests.
package ports
