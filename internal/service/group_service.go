package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/internal/repository"
	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/validation"
)

type groupRepository interface {
	List(ctx context.Context) ([]models.GroupDetail, error)
	FindByID(ctx context.Context, id string) (*models.GroupDetail, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
	ListStudents(ctx context.Context, groupID string) ([]models.RosterStudent, error)
	MoveStudent(ctx context.Context, exec sqlx.ExtContext, studentID, groupID string) (*string, error)
	RemoveStudent(ctx context.Context, groupID, studentID string) (bool, error)
}

type ungroupedStudentLister interface {
	ListWithoutGroup(ctx context.Context) ([]models.Student, error)
}

var errGroupNotFound = appErrors.Clone(appErrors.ErrNotFound, "grup bulunamadı")

// GroupService manages groups and the one-group-per-student membership.
type GroupService struct {
	groups    groupRepository
	students  ungroupedStudentLister
	tx        txProvider
	validator *validation.Validator
	logger    *zap.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(groups groupRepository, students ungroupedStudentLister, tx txProvider, validate *validation.Validator, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{groups: groups, students: students, tx: tx, validator: defaultValidator(validate), logger: logger}
}

// List returns all groups.
func (s *GroupService) List(ctx context.Context) ([]models.GroupDetail, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "grup listesi alınamadı")
	}
	return emptyIfNil(groups), nil
}

// Get returns a group with its counts.
func (s *GroupService) Get(ctx context.Context, id string) (*models.GroupDetail, error) {
	group, err := s.groups.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errGroupNotFound
		}
		return nil, appErrors.Internal(err, "grup bilgileri alınamadı")
	}
	return group, nil
}

// Create adds a group.
func (s *GroupService) Create(ctx context.Context, req dto.GroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	group := &models.Group{Name: strings.TrimSpace(req.Name), MinAge: req.MinAge, MaxAge: req.MaxAge}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, appErrors.Internal(err, "grup kaydedilemedi")
	}
	return group, nil
}

// Update modifies a group.
func (s *GroupService) Update(ctx context.Context, id string, req dto.GroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	group := existing.Group
	group.Name = strings.TrimSpace(req.Name)
	group.MinAge = req.MinAge
	group.MaxAge = req.MaxAge
	if err := s.groups.Update(ctx, &group); err != nil {
		return nil, appErrors.Internal(err, "grup güncellenemedi")
	}
	return &group, nil
}

// Delete removes a group that no lesson references.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	group, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if group.LessonCount > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "gruba bağlı dersler varken grup silinemez")
	}
	if err := s.groups.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return appErrors.Clone(appErrors.ErrConflict, "gruba bağlı dersler varken grup silinemez")
		}
		return appErrors.Internal(err, "grup silinemedi")
	}
	return nil
}

// ListStudents returns the group's members.
func (s *GroupService) ListStudents(ctx context.Context, groupID string) ([]models.RosterStudent, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	students, err := s.groups.ListStudents(ctx, groupID)
	if err != nil {
		return nil, appErrors.Internal(err, "grup öğrencileri alınamadı")
	}
	return emptyIfNil(students), nil
}

// AddStudent moves a student into a group, leaving any previous group in the same transaction.
func (s *GroupService) AddStudent(ctx context.Context, req dto.GroupMembershipRequest) (*models.GroupAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	if _, err := s.Get(ctx, req.GroupID); err != nil {
		return nil, err
	}

	var previous *string
	err := inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		var err error
		previous, err = s.groups.MoveStudent(ctx, tx, req.StudentID, req.GroupID)
		return err
	})
	if err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.As(err, &appErr):
			return nil, appErr
		case errors.Is(err, sql.ErrNoRows):
			return nil, errStudentNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "öğrencinin grubu eşzamanlı olarak değiştirildi, lütfen tekrar deneyin")
		}
		return nil, appErrors.Internal(err, "öğrenci gruba eklenemedi")
	}

	fields := []zap.Field{zap.String("student_id", req.StudentID), zap.String("group_id", req.GroupID)}
	if previous != nil {
		fields = append(fields, zap.String("previous_group_id", *previous))
	}
	s.logger.Info("student moved to group", fields...)
	return &models.GroupAssignment{StudentID: req.StudentID, GroupID: req.GroupID, PreviousGroupID: previous}, nil
}

// RemoveStudent drops a membership.
func (s *GroupService) RemoveStudent(ctx context.Context, groupID, studentID string) error {
	removed, err := s.groups.RemoveStudent(ctx, groupID, studentID)
	if err != nil {
		return appErrors.Internal(err, "öğrenci gruptan çıkarılamadı")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "öğrenci bu grupta değil")
	}
	return nil
}

// StudentsWithoutGroup lists active students who belong to no group.
func (s *GroupService) StudentsWithoutGroup(ctx context.Context) ([]models.Student, error) {
	students, err := s.students.ListWithoutGroup(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "grupsuz öğrenciler alınamadı")
	}
	return emptyIfNil(students), nil
}
