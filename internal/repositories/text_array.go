package repositories

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// textArray binds a list to a NOT NULL TEXT[] column; nil is stored as '{}'
func textArray(items []string) driver.Valuer {
	if items == nil {
		items = []string{}
	}
	return pq.Array(items)
}

// emptyIfNil keeps scanned lists non-nil so they encode as [] rather than null
func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
