package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
)

type fakeLessonRepo struct {
	lessons     map[string]*models.Lesson
	enrollments map[string]map[string]bool
	seq         int
}

func newFakeLessonRepo(lessons ...models.Lesson) *fakeLessonRepo {
	repo := &fakeLessonRepo{lessons: map[string]*models.Lesson{}, enrollments: map[string]map[string]bool{}}
	for i := range lessons {
		l := lessons[i]
		repo.lessons[l.ID] = &l
		repo.enrollments[l.ID] = map[string]bool{}
	}
	return repo
}

func (f *fakeLessonRepo) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error) {
	var out []models.LessonDetail
	for _, l := range f.lessons {
		out = append(out, models.LessonDetail{Lesson: *l})
	}
	return out, nil
}

func (f *fakeLessonRepo) FindByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.LessonDetail{Lesson: *l, EnrolledCount: len(f.enrollments[id])}, nil
}

func (f *fakeLessonRepo) Lock(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *l
	return &clone, nil
}

func (f *fakeLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	f.seq++
	lesson.ID = fmt.Sprintf("les-%d", f.seq)
	clone := *lesson
	f.lessons[lesson.ID] = &clone
	f.enrollments[lesson.ID] = map[string]bool{}
	return nil
}

func (f *fakeLessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	clone := *lesson
	f.lessons[lesson.ID] = &clone
	return nil
}

func (f *fakeLessonRepo) Delete(ctx context.Context, id string) error {
	delete(f.lessons, id)
	delete(f.enrollments, id)
	return nil
}

func (f *fakeLessonRepo) Roster(ctx context.Context, exec sqlx.ExtContext, lessonID string) ([]models.RosterStudent, error) {
	var out []models.RosterStudent
	for studentID := range f.enrollments[lessonID] {
		out = append(out, models.RosterStudent{StudentID: studentID})
	}
	return out, nil
}

func (f *fakeLessonRepo) IsEnrolled(ctx context.Context, exec sqlx.ExtContext, lessonID, studentID string) (bool, error) {
	return f.enrollments[lessonID][studentID], nil
}

func (f *fakeLessonRepo) CountActive(ctx context.Context, exec sqlx.ExtContext, lessonID string) (int, error) {
	return len(f.enrollments[lessonID]), nil
}

func (f *fakeLessonRepo) Enroll(ctx context.Context, exec sqlx.ExtContext, enrollment *models.LessonStudent) error {
	enrollment.ID = "enr-" + enrollment.StudentID
	enrollment.IsActive = true
	enrollment.JoinedAt = time.Now().UTC()
	f.enrollments[enrollment.LessonID][enrollment.StudentID] = true
	return nil
}

func (f *fakeLessonRepo) Withdraw(ctx context.Context, lessonID, studentID string, at time.Time) (bool, error) {
	if !f.enrollments[lessonID][studentID] {
		return false, nil
	}
	delete(f.enrollments[lessonID], studentID)
	return true, nil
}

func (f *fakeLessonRepo) StudentsWithoutLesson(ctx context.Context, lessonID string) ([]models.Student, error) {
	return nil, nil
}

func (f *fakeLessonRepo) ListByStudent(ctx context.Context, studentID string) ([]models.LessonDetail, error) {
	var out []models.LessonDetail
	for id, roster := range f.enrollments {
		if roster[studentID] {
			out = append(out, models.LessonDetail{Lesson: *f.lessons[id]})
		}
	}
	return out, nil
}

type lessonFixture struct {
	svc         *LessonService
	lessons     *fakeLessonRepo
	invalidator *recordingInvalidator
	expectTx    func(commit bool)
}

func newLessonFixture(t *testing.T, lessons *fakeLessonRepo, students *fakeStudentRepo) lessonFixture {
	tx, mock := newTxProviderMock(t)
	groups := newFakeGroupRepo(models.GroupDetail{Group: models.Group{ID: "g-1"}})
	invalidator := &recordingInvalidator{}
	t.Cleanup(func() { require.NoError(t, mock.ExpectationsWereMet()) })
	return lessonFixture{
		svc:         NewLessonService(lessons, groups, students, tx, invalidator, nil, nil),
		lessons:     lessons,
		invalidator: invalidator,
		expectTx: func(commit bool) {
			mock.ExpectBegin()
			if commit {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}
		},
	}
}

func activeStudents(ids ...string) *fakeStudentRepo {
	repo := newFakeStudentRepo()
	for _, id := range ids {
		repo.students[id] = &models.Student{ID: id, IsActive: true}
	}
	return repo
}

func TestLessonServiceAssignStudentEnforcesCapacity(t *testing.T) {
	lessons := newFakeLessonRepo(models.Lesson{ID: "les-1", Capacity: 1, IsActive: true})
	f := newLessonFixture(t, lessons, activeStudents("stu-1", "stu-2"))

	f.expectTx(true)
	enrollment, err := f.svc.AssignStudent(context.Background(), dto.LessonAssignmentRequest{LessonID: "les-1", StudentID: "stu-1"})
	require.NoError(t, err)
	assert.True(t, enrollment.IsActive)
	assert.Equal(t, []string{attendanceSummaryKey("stu-1")}, f.invalidator.keys)

	f.expectTx(false)
	_, err = f.svc.AssignStudent(context.Background(), dto.LessonAssignmentRequest{LessonID: "les-1", StudentID: "stu-2"})
	appErr := requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, errLessonFull.Message, appErr.Message)
	assert.False(t, lessons.enrollments["les-1"]["stu-2"])
}

func TestLessonServiceAssignStudentRejectsDuplicate(t *testing.T) {
	lessons := newFakeLessonRepo(models.Lesson{ID: "les-1", Capacity: 5, IsActive: true})
	lessons.enrollments["les-1"]["stu-1"] = true
	f := newLessonFixture(t, lessons, activeStudents("stu-1"))

	f.expectTx(false)
	_, err := f.svc.AssignStudent(context.Background(), dto.LessonAssignmentRequest{LessonID: "les-1", StudentID: "stu-1"})
	requireStatus(t, err, http.StatusConflict)
	assert.Empty(t, f.invalidator.keys)
}

func TestLessonServiceAssignStudentLookups(t *testing.T) {
	lessons := newFakeLessonRepo(models.Lesson{ID: "closed", Capacity: 5, IsActive: false})
	students := activeStudents("stu-1")
	students.students["gone"] = &models.Student{ID: "gone", IsActive: false}
	f := newLessonFixture(t, lessons, students)

	_, err := f.svc.AssignStudent(context.Background(), dto.LessonAssignmentRequest{LessonID: "closed", StudentID: "ghost"})
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.svc.AssignStudent(context.Background(), dto.LessonAssignmentRequest{LessonID: "closed", StudentID: "gone"})
	requireStatus(t, err, http.StatusConflict)

	f.expectTx(false)
	_, err = f.svc.AssignStudent(context.Background(), dto.LessonAssignmentRequest{LessonID: "missing", StudentID: "stu-1"})
	requireStatus(t, err, http.StatusNotFound)

	f.expectTx(false)
	_, err = f.svc.AssignStudent(context.Background(), dto.LessonAssignmentRequest{LessonID: "closed", StudentID: "stu-1"})
	requireStatus(t, err, http.StatusConflict)
}

func TestLessonServiceCreateRequiresGroup(t *testing.T) {
	f := newLessonFixture(t, newFakeLessonRepo(), activeStudents())
	req := dto.LessonRequest{Name: "Yüzme", StartingDayOfWeek: 1, StartingHour: "17:00", EndingDayOfWeek: 1, EndingHour: "18:00", Capacity: 12, GroupID: "g-1"}

	lesson, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, lesson.IsActive)

	req.GroupID = "missing"
	_, err = f.svc.Create(context.Background(), req)
	requireStatus(t, err, http.StatusNotFound)

	req.GroupID = "g-1"
	req.StartingHour = "25:00"
	_, err = f.svc.Create(context.Background(), req)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestLessonServiceCapacityAndUnassign(t *testing.T) {
	lessons := newFakeLessonRepo(models.Lesson{ID: "les-1", Capacity: 3, IsActive: true})
	lessons.enrollments["les-1"]["stu-1"] = true
	f := newLessonFixture(t, lessons, activeStudents("stu-1"))

	capacity, err := f.svc.CapacityAndStudents(context.Background(), "les-1")
	require.NoError(t, err)
	assert.Equal(t, 1, capacity.EnrolledCount)
	assert.Equal(t, 2, capacity.Remaining)

	require.NoError(t, f.svc.UnassignStudent(context.Background(), "les-1", "stu-1"))
	assert.Equal(t, []string{attendanceSummaryKey("stu-1")}, f.invalidator.keys)
	requireStatus(t, f.svc.UnassignStudent(context.Background(), "les-1", "stu-1"), http.StatusNotFound)
}

func TestLessonServiceDeleteInvalidatesSummaries(t *testing.T) {
	lessons := newFakeLessonRepo(models.Lesson{ID: "les-1", Capacity: 3, IsActive: true})
	f := newLessonFixture(t, lessons, activeStudents())

	require.NoError(t, f.svc.Delete(context.Background(), "les-1"))
	assert.Equal(t, []string{attendanceSummaryKeyPrefix + "*"}, f.invalidator.patterns)
	requireStatus(t, f.svc.Delete(context.Background(), "les-1"), http.StatusNotFound)
}

func TestLessonServiceEmptyListsAreNotNil(t *testing.T) {
	lessons := newFakeLessonRepo(models.Lesson{ID: "les-1", Capacity: 5, IsActive: true})
	f := newLessonFixture(t, lessons, activeStudents("stu-1"))

	taken, err := f.svc.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.NotNil(t, taken)
	assert.Empty(t, taken)

	outside, err := f.svc.StudentsWithoutLesson(context.Background(), "les-1")
	require.NoError(t, err)
	assert.NotNil(t, outside)

	delete(lessons.lessons, "les-1")
	all, err := f.svc.List(context.Background(), models.LessonFilter{})
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}
