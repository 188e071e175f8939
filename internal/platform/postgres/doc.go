// Package postgres implements the store interfaces on PostgreSQL: the
// path-addressed document repository, users and background tasks. It also
// embeds the schema migrations and runs them with goose.
package postgres
