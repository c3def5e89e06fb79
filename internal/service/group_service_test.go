package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/internal/repository"
)

type fakeGroupRepo struct {
	groups    map[string]*models.GroupDetail
	members   map[string]string
	known     map[string]bool
	moveErr   error
	deleteErr error
	seq       int
}

func newFakeGroupRepo(groups ...models.GroupDetail) *fakeGroupRepo {
	repo := &fakeGroupRepo{groups: map[string]*models.GroupDetail{}, members: map[string]string{}, known: map[string]bool{}}
	for i := range groups {
		g := groups[i]
		repo.groups[g.ID] = &g
	}
	return repo
}

func (f *fakeGroupRepo) List(ctx context.Context) ([]models.GroupDetail, error) {
	var out []models.GroupDetail
	for _, g := range f.groups {
		out = append(out, *g)
	}
	return out, nil
}

func (f *fakeGroupRepo) FindByID(ctx context.Context, id string) (*models.GroupDetail, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *g
	return &clone, nil
}

func (f *fakeGroupRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := f.groups[id]
	return ok, nil
}

func (f *fakeGroupRepo) Create(ctx context.Context, group *models.Group) error {
	f.seq++
	group.ID = fmt.Sprintf("grp-%d", f.seq)
	f.groups[group.ID] = &models.GroupDetail{Group: *group}
	return nil
}

func (f *fakeGroupRepo) Update(ctx context.Context, group *models.Group) error {
	f.groups[group.ID].Group = *group
	return nil
}

func (f *fakeGroupRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeGroupRepo) ListStudents(ctx context.Context, groupID string) ([]models.RosterStudent, error) {
	var out []models.RosterStudent
	for studentID, g := range f.members {
		if g == groupID {
			out = append(out, models.RosterStudent{StudentID: studentID})
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) MoveStudent(ctx context.Context, exec sqlx.ExtContext, studentID, groupID string) (*string, error) {
	if f.moveErr != nil {
		return nil, f.moveErr
	}
	if !f.known[studentID] {
		return nil, sql.ErrNoRows
	}
	var previous *string
	if current, ok := f.members[studentID]; ok {
		previous = &current
	}
	f.members[studentID] = groupID
	return previous, nil
}

func (f *fakeGroupRepo) RemoveStudent(ctx context.Context, groupID, studentID string) (bool, error) {
	if f.members[studentID] != groupID {
		return false, nil
	}
	delete(f.members, studentID)
	return true, nil
}

func TestGroupServiceAddStudentMovesBetweenGroups(t *testing.T) {
	groups := newFakeGroupRepo(models.GroupDetail{Group: models.Group{ID: "g-1"}}, models.GroupDetail{Group: models.Group{ID: "g-2"}})
	groups.known["stu-1"] = true
	tx, mock := newTxProviderMock(t)
	svc := NewGroupService(groups, newFakeStudentRepo(), tx, nil, nil)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	first, err := svc.AddStudent(context.Background(), dto.GroupMembershipRequest{GroupID: "g-1", StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Nil(t, first.PreviousGroupID)

	second, err := svc.AddStudent(context.Background(), dto.GroupMembershipRequest{GroupID: "g-2", StudentID: "stu-1"})
	require.NoError(t, err)
	require.NotNil(t, second.PreviousGroupID)
	assert.Equal(t, "g-1", *second.PreviousGroupID)
	assert.Equal(t, map[string]string{"stu-1": "g-2"}, groups.members)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupServiceAddStudentErrors(t *testing.T) {
	groups := newFakeGroupRepo(models.GroupDetail{Group: models.Group{ID: "g-1"}})
	tx, mock := newTxProviderMock(t)
	svc := NewGroupService(groups, newFakeStudentRepo(), tx, nil, nil)

	_, err := svc.AddStudent(context.Background(), dto.GroupMembershipRequest{GroupID: "missing", StudentID: "stu-1"})
	requireStatus(t, err, http.StatusNotFound)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.AddStudent(context.Background(), dto.GroupMembershipRequest{GroupID: "g-1", StudentID: "ghost"})
	appErr := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, errStudentNotFound.Message, appErr.Message)

	groups.known["stu-1"] = true
	groups.moveErr = fmt.Errorf("insert membership: %w", repository.ErrDuplicate)
	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.AddStudent(context.Background(), dto.GroupMembershipRequest{GroupID: "g-1", StudentID: "stu-1"})
	requireStatus(t, err, http.StatusConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupServiceDeleteBlockedByLessons(t *testing.T) {
	groups := newFakeGroupRepo(
		models.GroupDetail{Group: models.Group{ID: "busy"}, LessonCount: 2},
		models.GroupDetail{Group: models.Group{ID: "racy"}},
		models.GroupDetail{Group: models.Group{ID: "empty"}},
	)
	svc := NewGroupService(groups, newFakeStudentRepo(), nil, nil, nil)

	requireStatus(t, svc.Delete(context.Background(), "busy"), http.StatusConflict)

	groups.deleteErr = fmt.Errorf("delete group: %w", repository.ErrReferenced)
	requireStatus(t, svc.Delete(context.Background(), "racy"), http.StatusConflict)

	groups.deleteErr = nil
	require.NoError(t, svc.Delete(context.Background(), "empty"))
	assert.NotContains(t, groups.groups, "empty")
}

func TestGroupServiceCreateValidatesAgeRange(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), newFakeStudentRepo(), nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.GroupRequest{Name: "Minikler", MinAge: 10, MaxAge: 8})
	requireStatus(t, err, http.StatusBadRequest)

	group, err := svc.Create(context.Background(), dto.GroupRequest{Name: " Minikler ", MinAge: 6, MaxAge: 8})
	require.NoError(t, err)
	assert.Equal(t, "Minikler", group.Name)
}

func TestGroupServiceRemoveStudent(t *testing.T) {
	groups := newFakeGroupRepo(models.GroupDetail{Group: models.Group{ID: "g-1"}})
	groups.members["stu-1"] = "g-1"
	svc := NewGroupService(groups, newFakeStudentRepo(), nil, nil, nil)

	require.NoError(t, svc.RemoveStudent(context.Background(), "g-1", "stu-1"))
	requireStatus(t, svc.RemoveStudent(context.Background(), "g-1", "stu-1"), http.StatusNotFound)
}

func TestGroupServiceEmptyListsAreNotNil(t *testing.T) {
	groups := newFakeGroupRepo()
	svc := NewGroupService(groups, newFakeStudentRepo(), nil, nil, nil)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	ungrouped, err := svc.StudentsWithoutGroup(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ungrouped)

	groups.groups["g-1"] = &models.GroupDetail{Group: models.Group{ID: "g-1"}}
	members, err := svc.ListStudents(context.Background(), "g-1")
	require.NoError(t, err)
	assert.NotNil(t, members)
	assert.Empty(t, members)
}
