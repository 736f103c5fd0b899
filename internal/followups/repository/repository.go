// Package repository provides pgx data access for leads, follow-up templates,
// and the follow-up queue.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("lead not found")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrItemNotFound      = errors.New("queue item not found")
	ErrDuplicateTemplate = errors.New("template already exists for stage and offset")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}
