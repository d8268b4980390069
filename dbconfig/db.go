// Package dbconfig loads swap deployments from the operator's Postgres config database.
package dbconfig

import (
	"strings"

	"github.com/pkg/errors"

	_ "github.com/lib/pq"
)

type DBConfig struct {
	dbConnStr string
}

// NewDBConfig creates a new DBConfig instance with the provided connection string.
//
// Parameters:
// - connStr: the database connection string.
//
// Returns:
// - *DBConfig: a pointer to the newly created DBConfig instance.
// - error: an error if the connection string is empty.
func NewDBConfig(connStr string) (*DBConfig, error) {
	if strings.TrimSpace(connStr) == "" {
		return nil, errors.Wrap(ErrDatabaseConnect, "connection string is empty")
	}

	return &DBConfig{
		dbConnStr: connStr,
	}, nil
}
