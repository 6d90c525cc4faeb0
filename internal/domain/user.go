package domain

// User is the domain entity for a stored user record.
// It does not depend on Gin or Postgres.
type User struct {
	ID     int64
	Name   string
	Email  string
	Phone  *string
	Active bool
}
