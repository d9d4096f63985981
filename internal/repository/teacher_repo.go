package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"parentyn-backend/internal/models"
)

type TeacherRepo struct {
	pool *pgxpool.Pool
}

func NewTeacherRepo(pool *pgxpool.Pool) *TeacherRepo {
	return &TeacherRepo{pool: pool}
}

func (r *TeacherRepo) Create(ctx context.Context, t *models.Teacher) error {
	query := `
		INSERT INTO teachers (id, email, password_hash, full_name, school)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	t.ID = uuid.New()
	return r.pool.QueryRow(ctx, query,
		t.ID, t.Email, t.PasswordHash, t.FullName, t.School,
	).Scan(&t.CreatedAt)
}

func (r *TeacherRepo) GetByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	t := &models.Teacher{}
	query := `SELECT id, email, password_hash, full_name, school, created_at
		FROM teachers WHERE email = $1`

	err := r.pool.QueryRow(ctx, query, email).Scan(
		&t.ID, &t.Email, &t.PasswordHash, &t.FullName, &t.School, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TeacherRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Teacher, error) {
	t := &models.Teacher{}
	query := `SELECT id, email, password_hash, full_name, school, created_at
		FROM teachers WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Email, &t.PasswordHash, &t.FullName, &t.School, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
