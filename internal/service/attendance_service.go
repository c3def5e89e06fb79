package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/validation"
)

type attendanceRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.Attendance) error
	RosterForDate(ctx context.Context, lessonID string, date time.Time) ([]models.AttendanceRosterRow, error)
	ListByLesson(ctx context.Context, lessonID string) ([]models.AttendanceRosterRow, error)
	Tally(ctx context.Context, studentID, lessonID string) (*models.AttendanceTally, error)
	TalliesForStudent(ctx context.Context, studentID string) ([]models.AttendanceTally, error)
}

type lessonRosterReader interface {
	FindByID(ctx context.Context, id string) (*models.LessonDetail, error)
	Roster(ctx context.Context, exec sqlx.ExtContext, lessonID string) ([]models.RosterStudent, error)
}

// AttendanceService records lesson attendance and computes presence ratios.
type AttendanceService struct {
	attendance  attendanceRepository
	lessons     lessonRosterReader
	students    studentFinder
	tx          txProvider
	cache       aggregateCache
	invalidator cacheInvalidator
	metrics     *MetricsService
	validator   *validation.Validator
	logger      *zap.Logger
}

// AttendanceServiceDeps groups the collaborators of AttendanceService.
type AttendanceServiceDeps struct {
	Attendance  attendanceRepository
	Lessons     lessonRosterReader
	Students    studentFinder
	Tx          txProvider
	Cache       aggregateCache
	Invalidator cacheInvalidator
	Metrics     *MetricsService
	Validator   *validation.Validator
	Logger      *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(deps AttendanceServiceDeps) *AttendanceService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Cache == nil {
		deps.Cache = (*CacheService)(nil)
	}
	if deps.Invalidator == nil {
		deps.Invalidator = noopInvalidator{}
	}
	return &AttendanceService{
		attendance:  deps.Attendance,
		lessons:     deps.Lessons,
		students:    deps.Students,
		tx:          deps.Tx,
		cache:       deps.Cache,
		invalidator: deps.Invalidator,
		metrics:     deps.Metrics,
		validator:   defaultValidator(deps.Validator),
		logger:      deps.Logger,
	}
}

// RecordBulk upserts the marks of one lesson date in a single transaction.
// Every student must be on the lesson's active roster.
func (s *AttendanceService) RecordBulk(ctx context.Context, req dto.BulkAttendanceRequest) ([]models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Validation(err, "tarih YYYY-AA-GG biçiminde olmalıdır")
	}
	if _, err := s.lessonByID(ctx, req.LessonID); err != nil {
		return nil, err
	}

	// Last mark wins when a student appears twice.
	order := make([]string, 0, len(req.Marks))
	marks := make(map[string]*bool, len(req.Marks))
	for _, mark := range req.Marks {
		if _, seen := marks[mark.StudentID]; !seen {
			order = append(order, mark.StudentID)
		}
		marks[mark.StudentID] = mark.IsPresent
	}
	records := make([]models.Attendance, 0, len(order))
	for _, studentID := range order {
		records = append(records, models.Attendance{
			LessonID:       req.LessonID,
			StudentID:      studentID,
			AttendanceDate: date,
			IsPresent:      marks[studentID],
		})
	}

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		roster, err := s.lessons.Roster(ctx, tx, req.LessonID)
		if err != nil {
			return err
		}
		enrolled := make(map[string]struct{}, len(roster))
		for _, student := range roster {
			enrolled[student.StudentID] = struct{}{}
		}
		var outsiders []string
		for _, record := range records {
			if _, ok := enrolled[record.StudentID]; !ok {
				outsiders = append(outsiders, record.StudentID)
			}
		}
		if len(outsiders) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("derse kayıtlı olmayan öğrenciler: %s", strings.Join(outsiders, ", ")))
		}
		return s.attendance.UpsertBatch(ctx, tx, records)
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Internal(err, "yoklama kaydedilemedi")
	}

	s.metrics.AddAttendanceMarks(len(records))
	s.invalidator.Invalidate(ctx, summaryKeys(order)...)
	s.logger.Info("attendance recorded", zap.String("lesson_id", req.LessonID), zap.String("date", req.Date), zap.Int("marks", len(records)))
	return records, nil
}

// GetForLesson returns the roster with marks for date, or every recorded mark when date is nil.
func (s *AttendanceService) GetForLesson(ctx context.Context, lessonID string, date *time.Time) ([]models.AttendanceRosterRow, error) {
	if _, err := s.lessonByID(ctx, lessonID); err != nil {
		return nil, err
	}
	var (
		rows []models.AttendanceRosterRow
		err  error
	)
	if date != nil {
		rows, err = s.attendance.RosterForDate(ctx, lessonID, *date)
	} else {
		rows, err = s.attendance.ListByLesson(ctx, lessonID)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "yoklama bilgileri alınamadı")
	}
	return emptyIfNil(rows), nil
}

// PercentageFor returns the share of marked sessions the student attended, rounded to two decimals.
func (s *AttendanceService) PercentageFor(ctx context.Context, studentID, lessonID string) (*dto.AttendancePercentage, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	tally, err := s.attendance.Tally(ctx, studentID, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errLessonNotFound
		}
		return nil, appErrors.Internal(err, "devam oranı hesaplanamadı")
	}
	return &dto.AttendancePercentage{
		StudentID:  studentID,
		LessonID:   lessonID,
		Present:    tally.Present,
		Recorded:   tally.Recorded,
		Percentage: tally.Percentage(),
	}, nil
}

// StudentSummary returns per-lesson percentages for every lesson the student attends and their mean.
func (s *AttendanceService) StudentSummary(ctx context.Context, studentID string) (*models.StudentAttendanceSummary, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	key := attendanceSummaryKey(studentID)
	var cached models.StudentAttendanceSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	tallies, err := s.attendance.TalliesForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "devam özeti hesaplanamadı")
	}
	summary := models.NewStudentAttendanceSummary(studentID, tallies)
	_ = s.cache.Set(ctx, key, summary, 0)
	return &summary, nil
}

func (s *AttendanceService) lessonByID(ctx context.Context, lessonID string) (*models.LessonDetail, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errLessonNotFound
		}
		return nil, appErrors.Internal(err, "ders bilgileri alınamadı")
	}
	return lesson, nil
}

func (s *AttendanceService) ensureStudent(ctx context.Context, studentID string) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errStudentNotFound
		}
		return appErrors.Internal(err, "öğrenci bilgileri alınamadı")
	}
	return nil
}

func summaryKeys(studentIDs []string) []string {
	keys := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		keys = append(keys, attendanceSummaryKey(id))
	}
	return keys
}
