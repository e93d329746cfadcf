//go:build !prod

package database

// GetDefaultDBPath returns the database path for development mode.
// In dev mode, the database is stored in the working directory for easy access and debugging.
func GetDefaultDBPath() string {
	return "sidepanel.db"
}

// IsDevelopment reports whether the binary was built without the prod tag.
// Environment-derived model defaults are only honoured in development.
func IsDevelopment() bool {
	return true
}
