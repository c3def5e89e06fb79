package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/internal/repository"
	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/validation"
)

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error)
	FindByID(ctx context.Context, id string) (*models.LessonDetail, error)
	Lock(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
	Roster(ctx context.Context, exec sqlx.ExtContext, lessonID string) ([]models.RosterStudent, error)
	IsEnrolled(ctx context.Context, exec sqlx.ExtContext, lessonID, studentID string) (bool, error)
	CountActive(ctx context.Context, exec sqlx.ExtContext, lessonID string) (int, error)
	Enroll(ctx context.Context, exec sqlx.ExtContext, enrollment *models.LessonStudent) error
	Withdraw(ctx context.Context, lessonID, studentID string, at time.Time) (bool, error)
	StudentsWithoutLesson(ctx context.Context, lessonID string) ([]models.Student, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LessonDetail, error)
}

type groupExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

var (
	errLessonNotFound = appErrors.Clone(appErrors.ErrNotFound, "ders bulunamadı")
	errLessonFull     = appErrors.Clone(appErrors.ErrConflict, "ders kontenjanı dolu")
)

// LessonService manages lessons and their enrollment rosters.
type LessonService struct {
	lessons     lessonRepository
	groups      groupExistenceChecker
	students    studentFinder
	tx          txProvider
	invalidator cacheInvalidator
	validator   *validation.Validator
	logger      *zap.Logger
}

// NewLessonService constructs the lesson service.
func NewLessonService(lessons lessonRepository, groups groupExistenceChecker, students studentFinder, tx txProvider, invalidator cacheInvalidator, validate *validation.Validator, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	return &LessonService{
		lessons:     lessons,
		groups:      groups,
		students:    students,
		tx:          tx,
		invalidator: invalidator,
		validator:   defaultValidator(validate),
		logger:      logger,
	}
}

// List returns lessons matching the filter.
func (s *LessonService) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error) {
	lessons, err := s.lessons.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "ders listesi alınamadı")
	}
	return emptyIfNil(lessons), nil
}

// Get returns a lesson.
func (s *LessonService) Get(ctx context.Context, id string) (*models.LessonDetail, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errLessonNotFound
		}
		return nil, appErrors.Internal(err, "ders bilgileri alınamadı")
	}
	return lesson, nil
}

// Create adds a lesson to an existing group.
func (s *LessonService) Create(ctx context.Context, req dto.LessonRequest) (*models.Lesson, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}
	lesson := &models.Lesson{IsActive: true}
	applyLessonRequest(lesson, req)
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, s.writeError(err, "ders kaydedilemedi")
	}
	return lesson, nil
}

// Update modifies a lesson.
func (s *LessonService) Update(ctx context.Context, id string, req dto.LessonRequest) (*models.Lesson, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lesson := existing.Lesson
	applyLessonRequest(&lesson, req)
	if err := s.lessons.Update(ctx, &lesson); err != nil {
		return nil, s.writeError(err, "ders güncellenemedi")
	}
	s.invalidator.InvalidatePattern(ctx, attendanceSummaryKeyPrefix+"*")
	return &lesson, nil
}

// Delete removes a lesson with its roster and attendance.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.lessons.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "ders silinemedi")
	}
	s.invalidator.InvalidatePattern(ctx, attendanceSummaryKeyPrefix+"*")
	return nil
}

// CapacityAndStudents reports seats and the active roster.
func (s *LessonService) CapacityAndStudents(ctx context.Context, lessonID string) (*models.LessonCapacity, error) {
	lesson, err := s.Get(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	roster, err := s.lessons.Roster(ctx, nil, lessonID)
	if err != nil {
		return nil, appErrors.Internal(err, "ders öğrencileri alınamadı")
	}
	capacity := models.NewLessonCapacity(lessonID, lesson.Capacity, roster)
	return &capacity, nil
}

// AssignStudent enrolls a student while seats remain. The lesson row is locked so
// concurrent assignments cannot overbook it.
func (s *LessonService) AssignStudent(ctx context.Context, req dto.LessonAssignmentRequest) (*models.LessonStudent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, appErrors.Internal(err, "öğrenci bilgileri alınamadı")
	}
	if !student.IsActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pasif öğrenci derse atanamaz")
	}

	enrollment := &models.LessonStudent{LessonID: req.LessonID, StudentID: req.StudentID}
	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		lesson, err := s.lessons.Lock(ctx, tx, req.LessonID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errLessonNotFound
			}
			return err
		}
		if !lesson.IsActive {
			return appErrors.Clone(appErrors.ErrConflict, "pasif derse öğrenci atanamaz")
		}
		enrolled, err := s.lessons.IsEnrolled(ctx, tx, req.LessonID, req.StudentID)
		if err != nil {
			return err
		}
		if enrolled {
			return appErrors.Clone(appErrors.ErrConflict, "öğrenci bu derse zaten kayıtlı")
		}
		count, err := s.lessons.CountActive(ctx, tx, req.LessonID)
		if err != nil {
			return err
		}
		if count >= lesson.Capacity {
			return errLessonFull
		}
		return s.lessons.Enroll(ctx, tx, enrollment)
	})
	if err != nil {
		return nil, s.writeError(err, "öğrenci derse atanamadı")
	}

	s.invalidator.Invalidate(ctx, attendanceSummaryKey(req.StudentID))
	s.logger.Info("student assigned to lesson", zap.String("lesson_id", req.LessonID), zap.String("student_id", req.StudentID))
	return enrollment, nil
}

// UnassignStudent ends a student's active enrollment.
func (s *LessonService) UnassignStudent(ctx context.Context, lessonID, studentID string) error {
	withdrawn, err := s.lessons.Withdraw(ctx, lessonID, studentID, time.Now().UTC())
	if err != nil {
		return appErrors.Internal(err, "öğrenci dersten çıkarılamadı")
	}
	if !withdrawn {
		return appErrors.Clone(appErrors.ErrNotFound, "öğrenci bu derse kayıtlı değil")
	}
	s.invalidator.Invalidate(ctx, attendanceSummaryKey(studentID))
	return nil
}

// StudentsWithoutLesson returns active students not enrolled in the lesson.
func (s *LessonService) StudentsWithoutLesson(ctx context.Context, lessonID string) ([]models.Student, error) {
	if _, err := s.Get(ctx, lessonID); err != nil {
		return nil, err
	}
	students, err := s.lessons.StudentsWithoutLesson(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Internal(err, "derse kayıtlı olmayan öğrenciler alınamadı")
	}
	return emptyIfNil(students), nil
}

// ListByStudent returns the lessons a student attends.
func (s *LessonService) ListByStudent(ctx context.Context, studentID string) ([]models.LessonDetail, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errStudentNotFound
		}
		return nil, appErrors.Internal(err, "öğrenci bilgileri alınamadı")
	}
	lessons, err := s.lessons.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "öğrencinin dersleri alınamadı")
	}
	return emptyIfNil(lessons), nil
}

func (s *LessonService) validateRequest(ctx context.Context, req dto.LessonRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationFailed(s.validator, err)
	}
	exists, err := s.groups.Exists(ctx, req.GroupID)
	if err != nil {
		return appErrors.Internal(err, "grup kontrol edilemedi")
	}
	if !exists {
		return errGroupNotFound
	}
	return nil
}

func (s *LessonService) writeError(err error, message string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrConflict, "öğrenci bu derse zaten kayıtlı")
	case errors.Is(err, repository.ErrReferenced):
		return appErrors.Clone(appErrors.ErrNotFound, "ilişkili kayıt bulunamadı")
	}
	return appErrors.Internal(err, message)
}

func applyLessonRequest(lesson *models.Lesson, req dto.LessonRequest) {
	lesson.Name = strings.TrimSpace(req.Name)
	lesson.StartingDayOfWeek = req.StartingDayOfWeek
	lesson.StartingHour = req.StartingHour
	lesson.EndingDayOfWeek = req.EndingDayOfWeek
	lesson.EndingHour = req.EndingHour
	lesson.Capacity = req.Capacity
	lesson.GroupID = req.GroupID
	if req.IsActive != nil {
		lesson.IsActive = *req.IsActive
	}
}
