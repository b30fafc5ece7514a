package postgres

// DefaultListLimit caps list queries when the caller passes no limit
const DefaultListLimit = 50
