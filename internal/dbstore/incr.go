package dbstore

// Incr marks an Update value as "increment the column by this amount"
// rather than "overwrite it with this amount" — the claim step's
// attempts=attempts+1 needs this, and a plain map[string]any write would
// race under concurrent claims.
type Incr int
