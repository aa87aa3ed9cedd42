// Package bootstrap makes sure a PostgreSQL database exists before the
// application that needs it starts. It parses a connection URL, waits for
// the server to accept TCP connections, and creates the database through
// the server's administrative database when the catalog does not list it.
package bootstrap
