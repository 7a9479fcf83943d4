package store

// Stores is the top-level container for all storage backends.
type Stores struct {
	TgUsers TgUserStore
	Users   UserStore
	Goals   GoalStore
	Offsets OffsetStore
}

// StoreConfig selects and configures the storage backend.
type StoreConfig struct {
	// PostgresDSN selects managed mode when non-empty.
	PostgresDSN string
	// SQLitePath is used in standalone mode.
	SQLitePath string
}
