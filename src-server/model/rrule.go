package model

import "github.com/uptrace/bun"

// One generated instance date of a recurring master event, either parsed
// from its rrule set or listed in its rdates. Child event overrides are
// validated against this table.
type RRule struct {
	bun.BaseModel `bun:"table:rrules"`

	EventID string `bun:"event_id,notnull"`
	Date    int64  `bun:"date,notnull"`
}
