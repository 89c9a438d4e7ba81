package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the PostgreSQL-backed candidate directory.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}
