package generator

// Config drives the demo account generator.
type Config struct {
	NumAccounts int
	// DuplicateChance is the probability of reusing an email already
	// generated, which exercises duplicate handling in the seeder.
	DuplicateChance float64
	// Password is shared by every generated account.
	Password string
	Seed     int64
}

// DefaultConfig returns baseline settings for a local demo dataset.
func DefaultConfig() Config {
	return Config{
		NumAccounts:     200,
		DuplicateChance: 0.05,
		Password:        "demo-password",
		Seed:            42,
	}
}
