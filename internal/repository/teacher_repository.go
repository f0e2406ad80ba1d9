package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

// TeacherRepository manages teacher profiles and their lookup links.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherColumns = "user_id, slug, bio, accepting_students, format, age_preference, created_at, updated_at"

// FindByUserID fetches a teacher profile by its owning user.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_profiles WHERE user_id = $1", teacherColumns)
	var profile models.TeacherProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindBySlug fetches a teacher profile by its public slug.
func (r *TeacherRepository) FindBySlug(ctx context.Context, slug string) (*models.TeacherProfile, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_profiles WHERE slug = $1", teacherColumns)
	var profile models.TeacherProfile
	if err := r.db.GetContext(ctx, &profile, query, slug); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ExistsBySlug checks whether another teacher already uses the slug.
func (r *TeacherRepository) ExistsBySlug(ctx context.Context, slug, excludeUserID string) (bool, error) {
	query := "SELECT 1 FROM teacher_profiles WHERE slug = $1"
	args := []interface{}{slug}
	if excludeUserID != "" {
		query += " AND user_id <> $2"
		args = append(args, excludeUserID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher slug: %w", err)
	}
	return true, nil
}

// Save creates or replaces the profile row together with its instrument and
// language sets in one transaction. A failure mid-way leaves the previous
// profile and links untouched.
func (r *TeacherRepository) Save(ctx context.Context, profile *models.TeacherProfile, instrumentIDs, languageIDs []string) error {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save teacher profile: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO teacher_profiles (user_id, slug, bio, accepting_students, format, age_preference, created_at, updated_at)
		VALUES (:user_id, :slug, :bio, :accepting_students, :format, :age_preference, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET slug = :slug, bio = :bio, accepting_students = :accepting_students, format = :format, age_preference = :age_preference, updated_at = :updated_at`
	if _, err = tx.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert teacher profile: %w", err)
	}
	if err = replaceLinks(ctx, tx, "teacher_instruments", "instrument_id", profile.UserID, instrumentIDs); err != nil {
		return err
	}
	if err = replaceLinks(ctx, tx, "teacher_languages", "language_id", profile.UserID, languageIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save teacher profile: %w", err)
	}
	return nil
}

// ListInstruments returns a teacher's instruments ordered by name.
func (r *TeacherRepository) ListInstruments(ctx context.Context, userID string) ([]models.Instrument, error) {
	const query = `SELECT i.id, i.name FROM instruments i JOIN teacher_instruments ti ON ti.instrument_id = i.id WHERE ti.teacher_id = $1 ORDER BY i.name ASC`
	var instruments []models.Instrument
	if err := r.db.SelectContext(ctx, &instruments, query, userID); err != nil {
		return nil, fmt.Errorf("list teacher instruments: %w", err)
	}
	return instruments, nil
}

// ListLanguages returns a teacher's languages ordered by name.
func (r *TeacherRepository) ListLanguages(ctx context.Context, userID string) ([]models.Language, error) {
	const query = `SELECT l.id, l.code, l.name FROM languages l JOIN teacher_languages tl ON tl.language_id = l.id WHERE tl.teacher_id = $1 ORDER BY l.name ASC`
	var languages []models.Language
	if err := r.db.SelectContext(ctx, &languages, query, userID); err != nil {
		return nil, fmt.Errorf("list teacher languages: %w", err)
	}
	return languages, nil
}

func replaceLinks(ctx context.Context, tx *sqlx.Tx, table, column, userID string, ids []string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE teacher_id = $1", table), userID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (teacher_id, %s) VALUES ($1, $2)", table, column), userID, id); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// SearchCandidates returns accepting teachers joined with their user rows,
// optionally restricted to those teaching the given instrument. Timezone and
// age-preference filtering happen in the service layer.
func (r *TeacherRepository) SearchCandidates(ctx context.Context, instrumentID string) ([]models.TeacherSearchResult, error) {
	query := `SELECT tp.user_id, tp.slug, u.full_name, u.avatar_url, u.timezone, tp.format, tp.age_preference, tp.accepting_students
		FROM teacher_profiles tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.accepting_students = TRUE`
	var args []interface{}
	if instrumentID != "" {
		query += " AND EXISTS (SELECT 1 FROM teacher_instruments ti WHERE ti.teacher_id = tp.user_id AND ti.instrument_id = $1)"
		args = append(args, instrumentID)
	}
	query += " ORDER BY u.full_name ASC"

	var results []models.TeacherSearchResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("search teacher candidates: %w", err)
	}
	return results, nil
}

// ListAllInstruments returns the instrument lookup table.
func (r *TeacherRepository) ListAllInstruments(ctx context.Context) ([]models.Instrument, error) {
	var instruments []models.Instrument
	if err := r.db.SelectContext(ctx, &instruments, `SELECT id, name FROM instruments ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	return instruments, nil
}

// ListAllLanguages returns the language lookup table.
func (r *TeacherRepository) ListAllLanguages(ctx context.Context) ([]models.Language, error) {
	var languages []models.Language
	if err := r.db.SelectContext(ctx, &languages, `SELECT id, code, name FROM languages ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	return languages, nil
}
