package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Student, error)
	FindIDByNationalID(ctx context.Context, exec sqlx.ExtContext, nationalID, excludeID string) (string, error)
	Create(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
	Update(ctx context.Context, exec sqlx.ExtContext, student *models.Student) error
	Deactivate(ctx context.Context, id string, at time.Time) error
	GetProfileImage(ctx context.Context, id string) (*models.ProfileImage, error)
	SetProfileImage(ctx context.Context, exec sqlx.ExtContext, id string, img *models.ProfileImage) error
}

type parentRepository interface {
	FindByID(ctx context.Context, kind models.ParentKind, id string) (*models.Parent, error)
	FindByNationalID(ctx context.Context, exec sqlx.ExtContext, kind models.ParentKind, nationalID string) (models.ParentLookup, error)
	Create(ctx context.Context, exec sqlx.ExtContext, kind models.ParentKind, parent *models.Parent) error
	Update(ctx context.Context, exec sqlx.ExtContext, kind models.ParentKind, parent *models.Parent) error
}

type relativeLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Relative, error)
}

var errStudentNotFound = appErrors.Clone(appErrors.ErrNotFound, "öğrenci bulunamadı")

// StudentService manages the roster together with the parents students share.
type StudentService struct {
	students  studentRepository
	parents   parentRepository
	relatives relativeLister
	tx        txProvider
	validator *validation.Validator
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(students studentRepository, parents parentRepository, relatives relativeLister, tx txProvider, validate *validation.Validator, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:  students,
		parents:   parents,
		relatives: relatives,
		tx:        tx,
		validator: defaultValidator(validate),
		logger:    logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "öğrenci listesi alınamadı")
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return emptyIfNil(students), &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return nil, s.loadError(err)
	}
	return student, nil
}

// GetByNationalID returns a student by national ID.
func (s *StudentService) GetByNationalID(ctx context.Context, nationalID string) (*models.Student, error) {
	if !validation.ValidNationalID(nationalID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "TC kimlik numarası 11 haneli ve yalnızca rakamlardan oluşmalıdır")
	}
	student, err := s.students.FindByNationalID(ctx, nationalID)
	if err != nil {
		return nil, s.loadError(err)
	}
	return student, nil
}

// GetWithParents returns a student with the mother and father records.
func (s *StudentService) GetWithParents(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.StudentDetail{Student: *student}
	if detail.Mother, err = s.parent(ctx, models.ParentMother, student.MotherID); err != nil {
		return nil, err
	}
	if detail.Father, err = s.parent(ctx, models.ParentFather, student.FatherID); err != nil {
		return nil, err
	}
	return detail, nil
}

// GetDetail returns a student with parents and relatives.
func (s *StudentService) GetDetail(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.GetWithParents(ctx, id)
	if err != nil {
		return nil, err
	}
	relatives, err := s.relatives.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "yakın bilgileri alınamadı")
	}
	detail.Relatives = emptyIfNil(relatives)
	return detail, nil
}

// Create registers a student, finding or creating the mother and father by national ID.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	student := &models.Student{IsActive: true}
	if err := applyStudentRequest(student, req); err != nil {
		return nil, err
	}
	image, err := decodeProfileImage(req.ProfileImage, req.ProfileImageContentType)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNationalIDFree(ctx, req.NationalID, ""); err != nil {
		return nil, err
	}

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		motherID, err := s.findOrCreateParent(ctx, tx, models.ParentMother, req.Mother)
		if err != nil {
			return err
		}
		fatherID, err := s.findOrCreateParent(ctx, tx, models.ParentFather, req.Father)
		if err != nil {
			return err
		}
		student.MotherID = motherID
		student.FatherID = fatherID

		if err := s.students.Create(ctx, tx, student); err != nil {
			return err
		}
		if image != nil {
			if err := s.students.SetProfileImage(ctx, tx, student.ID, image); err != nil {
				return err
			}
			student.HasProfileImage = true
			student.ProfileImageContentType = &image.ContentType
		}
		return nil
	})
	if err != nil {
		return nil, s.writeError(ctx, err, req.NationalID, "", "öğrenci kaydedilemedi")
	}

	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("mother_id", student.MotherID), zap.String("father_id", student.FatherID))
	return student, nil
}

// Update rewrites a student and fully overwrites the linked parents.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	image, err := decodeProfileImage(req.ProfileImage, req.ProfileImageContentType)
	if err != nil {
		return nil, err
	}
	if req.NationalID != student.NationalID {
		if err := s.ensureNationalIDFree(ctx, req.NationalID, id); err != nil {
			return nil, err
		}
	}
	if err := applyStudentRequest(student, req); err != nil {
		return nil, err
	}

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		motherID, err := s.overwriteParent(ctx, tx, models.ParentMother, student.MotherID, req.Mother)
		if err != nil {
			return err
		}
		fatherID, err := s.overwriteParent(ctx, tx, models.ParentFather, student.FatherID, req.Father)
		if err != nil {
			return err
		}
		student.MotherID = motherID
		student.FatherID = fatherID

		if err := s.students.Update(ctx, tx, student); err != nil {
			return err
		}
		if req.ProfileImage != nil {
			if err := s.students.SetProfileImage(ctx, tx, id, image); err != nil {
				return err
			}
			student.HasProfileImage = image != nil
			student.ProfileImageContentType = nil
			if image != nil {
				student.ProfileImageContentType = &image.ContentType
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.writeError(ctx, err, req.NationalID, id, "öğrenci güncellenemedi")
	}

	s.logger.Info("student updated", zap.String("student_id", id))
	return student, nil
}

// Deactivate soft-deletes a student. Inactive students are left untouched.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	student, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !student.IsActive {
		return nil
	}
	if err := s.students.Deactivate(ctx, id, time.Now().UTC()); err != nil {
		return appErrors.Internal(err, "öğrenci pasifleştirilemedi")
	}
	s.logger.Info("student deactivated", zap.String("student_id", id))
	return nil
}

// GetProfileImage returns the stored profile image.
func (s *StudentService) GetProfileImage(ctx context.Context, id string) (*models.ProfileImage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	img, err := s.students.GetProfileImage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profil fotoğrafı bulunamadı")
		}
		return nil, appErrors.Internal(err, "profil fotoğrafı alınamadı")
	}
	return img, nil
}

// UpdateProfileImage replaces the profile image with base64 encoded data.
func (s *StudentService) UpdateProfileImage(ctx context.Context, id string, req dto.ProfileImageRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationFailed(s.validator, err)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	img, err := decodeProfileImage(&req.Data, &req.ContentType)
	if err != nil {
		return err
	}
	if err := s.students.SetProfileImage(ctx, nil, id, img); err != nil {
		return appErrors.Internal(err, "profil fotoğrafı kaydedilemedi")
	}
	return nil
}

// DeleteProfileImage clears the profile image.
func (s *StudentService) DeleteProfileImage(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.students.SetProfileImage(ctx, nil, id, nil); err != nil {
		return appErrors.Internal(err, "profil fotoğrafı silinemedi")
	}
	return nil
}

func (s *StudentService) parent(ctx context.Context, kind models.ParentKind, id string) (*models.Parent, error) {
	parent, err := s.parents.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "veli bilgileri alınamadı")
	}
	return parent, nil
}

// ensureNationalIDFree fails with a conflict naming the student that already holds nationalID.
func (s *StudentService) ensureNationalIDFree(ctx context.Context, nationalID, excludeID string) error {
	existingID, err := s.students.FindIDByNationalID(ctx, nil, nationalID, excludeID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return appErrors.Internal(err, "TC kimlik numarası kontrol edilemedi")
	}
	return duplicateStudent(existingID)
}

// findOrCreateParent reuses the parent holding the national ID, filling only its empty contact fields.
func (s *StudentService) findOrCreateParent(ctx context.Context, tx sqlx.ExtContext, kind models.ParentKind, req dto.ParentRequest) (string, error) {
	lookup, err := s.parents.FindByNationalID(ctx, tx, kind, req.NationalID)
	if err != nil {
		return "", err
	}
	if lookup.Found {
		existing := lookup.Parent
		if existing.BackfillFrom(parentFromRequest(req)) {
			if err := s.parents.Update(ctx, tx, kind, existing); err != nil {
				return "", err
			}
		}
		return existing.ID, nil
	}

	parent := parentFromRequest(req)
	if err := s.parents.Create(ctx, tx, kind, &parent); err != nil {
		return "", err
	}
	return parent.ID, nil
}

// overwriteParent replaces every field of the linked parent. When the national ID already
// belongs to another parent row the student is relinked to that row instead.
func (s *StudentService) overwriteParent(ctx context.Context, tx sqlx.ExtContext, kind models.ParentKind, currentID string, req dto.ParentRequest) (string, error) {
	target := parentFromRequest(req)
	target.ID = currentID

	lookup, err := s.parents.FindByNationalID(ctx, tx, kind, req.NationalID)
	if err != nil {
		return "", err
	}
	if lookup.Found {
		target.ID = lookup.Parent.ID
	}
	if err := s.parents.Update(ctx, tx, kind, &target); err != nil {
		return "", err
	}
	return target.ID, nil
}

func (s *StudentService) loadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errStudentNotFound
	}
	return appErrors.Internal(err, "öğrenci bilgileri alınamadı")
}

// writeError maps transaction failures. A unique violation means another request won the race.
func (s *StudentService) writeError(ctx context.Context, err error, nationalID, excludeID, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, repository.ErrDuplicate) {
		if existingID, lookupErr := s.students.FindIDByNationalID(ctx, nil, nationalID, excludeID); lookupErr == nil {
			return duplicateStudent(existingID)
		}
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "kayıt eşzamanlı olarak değiştirildi, lütfen tekrar deneyin")
	}
	return appErrors.Internal(err, message)
}

func duplicateStudent(existingID string) error {
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("bu TC kimlik numarasıyla kayıtlı bir öğrenci zaten var (id: %s)", existingID))
}

func parentFromRequest(req dto.ParentRequest) models.Parent {
	return models.Parent{
		Name:       strings.TrimSpace(req.Name),
		NationalID: req.NationalID,
		Phone:      strings.TrimSpace(req.Phone),
		Email:      strings.TrimSpace(req.Email),
		Occupation: strings.TrimSpace(req.Occupation),
	}
}

func applyStudentRequest(student *models.Student, req dto.StudentRequest) error {
	student.Name = strings.TrimSpace(req.Name)
	student.NationalID = req.NationalID
	student.School = req.School
	student.Address = req.Address
	student.Branch = req.Branch
	student.ClassName = req.Class
	student.Phone = req.Phone
	student.DateOfBirth = nil
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := time.Parse(dto.DateLayout, *req.DateOfBirth)
		if err != nil {
			return appErrors.Validation(err, "doğum tarihi YYYY-AA-GG biçiminde olmalıdır")
		}
		student.DateOfBirth = &dob
	}
	return nil
}

// decodeProfileImage returns nil for an absent or empty image.
func decodeProfileImage(data, contentType *string) (*models.ProfileImage, error) {
	if data == nil || *data == "" {
		return nil, nil
	}
	raw := *data
	// Accept data URLs as produced by browser file readers.
	if i := strings.Index(raw, ";base64,"); strings.HasPrefix(raw, "data:") && i > 0 {
		if contentType == nil || *contentType == "" {
			ct := strings.TrimPrefix(raw[:i], "data:")
			contentType = &ct
		}
		raw = raw[i+len(";base64,"):]
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, appErrors.Validation(err, "profil fotoğrafı geçerli bir base64 verisi değil")
	}
	img := &models.ProfileImage{Data: decoded, ContentType: "application/octet-stream"}
	if contentType != nil && *contentType != "" {
		img.ContentType = *contentType
	}
	return img, nil
}
