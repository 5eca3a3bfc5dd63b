// Package domain defines the core business types for the campus outreach program.
//
// Types in this package are pure value objects with no behavior beyond small
// derivations, no database dependencies, and no HTTP concerns. They are the
// shared language between the engine, the stores, and the reporters.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
