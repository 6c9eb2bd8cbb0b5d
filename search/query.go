// Package search maintains a full-text index over stored messages and
// answers ad-hoc queries against it.
package search

import (
	"strconv"
	"strings"
)

const defaultLimit = 10

// Query decouples raw search input from the index engine. Flags follow a
// command-line style: `invoice --user alice --limit 25`.
type Query struct {
	RawInput string
	Terms    string
	Username string
	Limit    int
}

// NewQuery parses a raw search string, extracting --user and --limit flags;
// everything else becomes search terms.
func NewQuery(input string) *Query {
	query := &Query{RawInput: input, Limit: defaultLimit}

	parts := strings.Fields(input)
	var terms []string
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			value := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "user":
				query.Username = value
			case "limit":
				if limit, err := strconv.Atoi(value); err == nil && limit > 0 {
					query.Limit = limit
				}
			}
			i++
			continue
		}
		terms = append(terms, part)
	}
	query.Terms = strings.Join(terms, " ")
	return query
}
