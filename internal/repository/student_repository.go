package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-club-api/internal/models"
)

const studentColumns = `s.id, s.name, s.national_id, s.date_of_birth, s.school, s.address, s.branch, s.class_name, s.phone,
        (s.profile_image IS NOT NULL) AS has_profile_image, s.profile_image_content_type,
        s.mother_id, s.father_id, s.is_active, s.deleted_at, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, int, error) {
	base := "FROM students s LEFT JOIN group_students gs ON gs.student_id = s.id LEFT JOIN groups g ON g.id = gs.group_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("gs.group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR s.national_id LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":        "s.name",
		"national_id": "s.national_id",
		"created_at":  "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s,
        gs.group_id AS group_id, g.name AS group_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, studentColumns, base, column, order, size, offset)

	var students []models.StudentListItem
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s WHERE s.id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByNationalID fetches a student by national ID.
func (r *StudentRepository) FindByNationalID(ctx context.Context, nationalID string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s WHERE s.national_id = $1`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, nationalID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindIDByNationalID returns the id of the student holding nationalID, ignoring excludeID.
// It returns sql.ErrNoRows when no other student holds it.
func (r *StudentRepository) FindIDByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID, excludeID string) (string, error) {
	query := "SELECT id FROM students WHERE national_id = $1"
	args := []interface{}{nationalID}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var id string
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("check national id: %w", err)
	}
	return id, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, name, national_id, date_of_birth, school, address, branch, class_name, phone,
        mother_id, father_id, is_active, created_at, updated_at)
        VALUES (:id, :name, :national_id, :date_of_birth, :school, :address, :branch, :class_name, :phone,
        :mother_id, :father_id, :is_active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, student); err != nil {
		return fmt.Errorf("create student: %w", translate(err))
	}
	return nil
}

// Update modifies an existing student's personal fields.
func (r *StudentRepository) Update(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, national_id = :national_id, date_of_birth = :date_of_birth,
        school = :school, address = :address, branch = :branch, class_name = :class_name, phone = :phone,
        mother_id = :mother_id, father_id = :father_id, updated_at = :updated_at WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, student); err != nil {
		return fmt.Errorf("update student: %w", translate(err))
	}
	return nil
}

// Deactivate soft-deletes a student that is still active.
func (r *StudentRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE students SET is_active = false, deleted_at = $2, updated_at = $2 WHERE id = $1 AND is_active`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}

// GetProfileImage loads the inline profile image. Missing images surface as sql.ErrNoRows.
func (r *StudentRepository) GetProfileImage(ctx context.Context, id string) (*models.ProfileImage, error) {
	const query = `SELECT profile_image, COALESCE(profile_image_content_type, '') AS profile_image_content_type
        FROM students WHERE id = $1 AND profile_image IS NOT NULL`
	var img models.ProfileImage
	if err := r.db.GetContext(ctx, &img, query, id); err != nil {
		return nil, err
	}
	return &img, nil
}

// SetProfileImage replaces the profile image; a nil image clears it.
func (r *StudentRepository) SetProfileImage(ctx context.Context, exec sqlx.ExtContext, id string, img *models.ProfileImage) error {
	var (
		data        []byte
		contentType *string
	)
	if img != nil {
		data = img.Data
		contentType = &img.ContentType
	}
	const query = `UPDATE students SET profile_image = $2, profile_image_content_type = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, data, contentType, time.Now().UTC()); err != nil {
		return fmt.Errorf("set profile image: %w", err)
	}
	return nil
}

// ListWithoutGroup returns active students who belong to no group.
func (r *StudentRepository) ListWithoutGroup(ctx context.Context) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s
        WHERE s.is_active AND NOT EXISTS (SELECT 1 FROM group_students gs WHERE gs.student_id = s.id)
        ORDER BY s.name`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students without group: %w", err)
	}
	return students, nil
}
