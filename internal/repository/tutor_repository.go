package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/tutorhub-api/internal/models"
)

const tutorProfileColumns = `id, user_id, bio, education, hourly_rate, timezone, rating, total_reviews, created_at, updated_at`

// TutorRepository manages persistence for tutor profiles and their category
// associations.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs a TutorRepository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// FindByID fetches a tutor profile by profile ID.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.TutorProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM tutor_profiles WHERE id = $1`, tutorProfileColumns)
	var profile models.TutorProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUserID fetches the tutor profile owned by a user.
func (r *TutorRepository) FindByUserID(ctx context.Context, userID string) (*models.TutorProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM tutor_profiles WHERE user_id = $1`, tutorProfileColumns)
	var profile models.TutorProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a tutor profile together with its category links.
func (r *TutorRepository) Create(ctx context.Context, profile *models.TutorProfile, categoryIDs []string) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO tutor_profiles (id, user_id, bio, education, hourly_rate, timezone, rating, total_reviews, created_at, updated_at)
		VALUES (:id, :user_id, :bio, :education, :hourly_rate, :timezone, :rating, :total_reviews, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, profile); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create tutor profile: %w", err)
	}
	if err := r.replaceCategoriesTx(ctx, tx, profile.ID, categoryIDs); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tutor profile: %w", err)
	}
	return nil
}

// Update modifies profile fields and rewrites category links when a new set
// is provided.
func (r *TutorRepository) Update(ctx context.Context, profile *models.TutorProfile, categoryIDs []string) error {
	profile.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `UPDATE tutor_profiles SET bio = :bio, education = :education, hourly_rate = :hourly_rate, timezone = :timezone, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, profile); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update tutor profile: %w", err)
	}
	if categoryIDs != nil {
		if err := r.replaceCategoriesTx(ctx, tx, profile.ID, categoryIDs); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tutor profile: %w", err)
	}
	return nil
}

func (r *TutorRepository) replaceCategoriesTx(ctx context.Context, tx *sqlx.Tx, tutorID string, categoryIDs []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tutor_categories WHERE tutor_id = $1`, tutorID); err != nil {
		return fmt.Errorf("clear tutor categories: %w", err)
	}
	for _, categoryID := range categoryIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tutor_categories (tutor_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, tutorID, categoryID); err != nil {
			return fmt.Errorf("link tutor category: %w", err)
		}
	}
	return nil
}

// CategoriesForTutor returns the categories linked to a tutor profile.
func (r *TutorRepository) CategoriesForTutor(ctx context.Context, tutorID string) ([]models.Category, error) {
	const query = `SELECT c.id, c.name, c.created_at FROM categories c
		JOIN tutor_categories tc ON tc.category_id = c.id
		WHERE tc.tutor_id = $1 ORDER BY c.name`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, tutorID); err != nil {
		return nil, fmt.Errorf("tutor categories: %w", err)
	}
	return categories, nil
}

// CountCategories returns how many of the provided category IDs exist.
func (r *TutorRepository) CountCategories(ctx context.Context, categoryIDs []string) (int, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(categoryIDs))
	args := make([]interface{}, len(categoryIDs))
	for i, id := range categoryIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM categories WHERE id IN (%s)`, strings.Join(placeholders, ","))
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}
