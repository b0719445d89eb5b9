// Package pg owns the PostgreSQL connection lifecycle: pool construction
// with retry, goose schema migrations, a health probe, and error
// classification helpers shared by the repository layer.
package pg
