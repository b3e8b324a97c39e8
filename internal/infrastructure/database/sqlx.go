package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// NewSqlxConnection opens a sqlx handle over the pgx database/sql driver.
func NewSqlxConnection(config Config) (*sqlx.DB, error) {
	config = config.withDefaults()

	db, err := sqlx.Connect("pgx", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	return db, nil
}
