// Package session provides session management for racetrack.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Eviction of idle sessions to a persistence backend
//   - Snapshot and restore of a race with its strategies
//
// Session Identifiers:
//
// Sessions use 4-character hexadecimal IDs for easy reference and are looked
// up case-insensitively.
//
// Persistence:
//
// SessionPersistence stores PersistedSessionData snapshots. Three backends
// are available: MemoryPersistence, FilePersistence (one JSON file per
// session) and SQLPersistence (gorm, SQLite or Postgres). Snapshots hold the
// race state, turn history and the remaining state of every strategy, so a
// restored race continues exactly where it stopped.
//
// Usage:
//
//	store, err := session.NewFilePersistence("sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store, logger)
//	if err := manager.Purge(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", "oval", race, drivers)
package session
