package testplayers

// Config describes a synthetic league.
type Config struct {
	Clubs int   // Number of clubs
	Seed  int64 // Seed for prices and points

	// Players per club by position; zero values use the defaults.
	Goalkeepers int
	Defenders   int
	Midfielders int
	Forwards    int
}

// Default league shape, roughly a Premier League player list.
const (
	DefaultClubs       = 20
	DefaultGoalkeepers = 3
	DefaultDefenders   = 8
	DefaultMidfielders = 8
	DefaultForwards    = 4
	DefaultSeed        = 42
)

func (c Config) withDefaults() Config {
	if c.Clubs <= 0 {
		c.Clubs = DefaultClubs
	}
	if c.Goalkeepers <= 0 {
		c.Goalkeepers = DefaultGoalkeepers
	}
	if c.Defenders <= 0 {
		c.Defenders = DefaultDefenders
	}
	if c.Midfielders <= 0 {
		c.Midfielders = DefaultMidfielders
	}
	if c.Forwards <= 0 {
		c.Forwards = DefaultForwards
	}
	return c
}
