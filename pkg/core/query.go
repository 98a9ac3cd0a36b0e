package core

import (
	"fmt"
	"strings"
)

// DatabaseType is the registry selector offered by the search form.
type DatabaseType string

const (
	DatabaseAll              DatabaseType = "all"
	DatabaseChangeOfName     DatabaseType = "change_of_name"
	DatabaseChangeOfPOB      DatabaseType = "change_of_pob"
	DatabaseChangeOfDOB      DatabaseType = "change_of_dob"
	DatabaseMarriageOfficers DatabaseType = "marriage_officers"
)

// ParseDatabaseType validates a database selector. The empty string means all.
func ParseDatabaseType(s string) (DatabaseType, error) {
	switch dt := DatabaseType(strings.TrimSpace(s)); dt {
	case "":
		return DatabaseAll, nil
	case DatabaseAll, DatabaseChangeOfName, DatabaseChangeOfPOB, DatabaseChangeOfDOB, DatabaseMarriageOfficers:
		return dt, nil
	}
	return "", fmt.Errorf("unknown database type %q", s)
}

// Query is what the person search form collects. Only Name is sent to the
// registry; Location, Profession and DatabaseType are kept so callers can
// echo them back, but the search endpoint does not receive them yet.
type Query struct {
	Name         string       `json:"name"`
	Location     string       `json:"location,omitempty"`
	Profession   string       `json:"profession,omitempty"`
	DatabaseType DatabaseType `json:"database_type,omitempty"`
}

// TrimmedName returns the name as it is transmitted.
func (q Query) TrimmedName() string {
	return strings.TrimSpace(q.Name)
}
