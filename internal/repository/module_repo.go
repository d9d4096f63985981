package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"parentyn-backend/internal/models"
)

type ModuleRepo struct {
	pool *pgxpool.Pool
}

func NewModuleRepo(pool *pgxpool.Pool) *ModuleRepo {
	return &ModuleRepo{pool: pool}
}

func (r *ModuleRepo) Create(ctx context.Context, m *models.GameModule) error {
	m.ID = uuid.New()
	if len(m.LevelsJSON) == 0 {
		m.LevelsJSON = json.RawMessage("[]")
	}
	if m.Status == "" {
		m.Status = "draft"
	}

	query := `INSERT INTO modules (id, teacher_id, title, subject, grade, class_level, template, status, lesson_note, levels_json, level_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		m.ID, m.TeacherID, m.Title, m.Subject, m.Grade, m.ClassLevel,
		m.Template, m.Status, m.LessonNote, m.LevelsJSON, m.LevelCount,
	).Scan(&m.CreatedAt)
}

func (r *ModuleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.GameModule, error) {
	m := &models.GameModule{}
	query := `SELECT id, teacher_id, title, subject, grade, class_level, template, status, lesson_note, levels_json, level_count, created_at
		FROM modules WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.TeacherID, &m.Title, &m.Subject, &m.Grade, &m.ClassLevel,
		&m.Template, &m.Status, &m.LessonNote, &m.LevelsJSON, &m.LevelCount, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *ModuleRepo) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.GameModule, error) {
	query := `SELECT id, teacher_id, title, subject, grade, class_level, template, status, lesson_note, levels_json, level_count, created_at
		FROM modules WHERE teacher_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []*models.GameModule
	for rows.Next() {
		m := &models.GameModule{}
		err := rows.Scan(
			&m.ID, &m.TeacherID, &m.Title, &m.Subject, &m.Grade, &m.ClassLevel,
			&m.Template, &m.Status, &m.LessonNote, &m.LevelsJSON, &m.LevelCount, &m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// LevelCount returns how many levels a module has, bounding the level
// index a teacher may push to a session. Unknown module reads as 0.
func (r *ModuleRepo) LevelCount(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT level_count FROM modules WHERE id = $1", id).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ModuleRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, "UPDATE modules SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *ModuleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM modules WHERE id = $1", id)
	return err
}
