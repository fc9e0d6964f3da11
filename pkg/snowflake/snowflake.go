package snowflake

// Snowflake generates time-ordered unique IDs.
type Snowflake interface {
	Generate() int64
	GenerateString() string
}
