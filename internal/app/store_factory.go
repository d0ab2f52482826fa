package app

import (
	"strings"

	"github.com/cassidycr/accildatabase/internal/store"
	"github.com/cassidycr/accildatabase/internal/store/postgres"
	"github.com/cassidycr/accildatabase/internal/store/sqlite"
)

func NewStore(dsn string) (store.SessionStore, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn)
	default:
		return sqlite.NewSQLiteStore(dsn)
	}
}
