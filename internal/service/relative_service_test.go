package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
)

func TestRelativeServiceCreateResolvesStudentByNationalID(t *testing.T) {
	students := newFakeStudentRepo(models.Student{ID: "stu-1", NationalID: "12345678901", IsActive: true})
	relatives := newFakeRelativeRepo()
	svc := NewRelativeService(relatives, students, nil, nil)

	relative, err := svc.Create(context.Background(), dto.RelativeRequest{StudentNationalID: "12345678901", Name: " Fatma Kaya ", RelationType: "Teyze"})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", relative.StudentID)
	assert.Equal(t, "Fatma Kaya", relative.Name)

	_, err = svc.Create(context.Background(), dto.RelativeRequest{StudentNationalID: "99999999999", Name: "Ali"})
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.Create(context.Background(), dto.RelativeRequest{Name: "Ali"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestRelativeServiceBulkSaveContinuesAfterFailures(t *testing.T) {
	students := newFakeStudentRepo(models.Student{ID: "stu-1", NationalID: "12345678901", IsActive: true})
	relatives := newFakeRelativeRepo()
	relatives.failFor = "Bozuk"
	svc := NewRelativeService(relatives, students, nil, nil)

	result, err := svc.BulkSave(context.Background(), dto.BulkRelativesRequest{
		StudentNationalID: "12345678901",
		Relatives: []dto.RelativeRequest{
			{Name: "Fatma", RelationType: "Teyze"},
			{Name: "", RelationType: "Dayı"},
			{Name: "Bozuk"},
			{Name: "Hasan", NationalID: "12345678905"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, 2, result.Failed[1].Index)
	assert.Equal(t, "Bozuk", result.Failed[1].Name)
	assert.Len(t, relatives.rows, 2)
}

func TestRelativeServiceBulkSaveRequiresKnownStudent(t *testing.T) {
	svc := NewRelativeService(newFakeRelativeRepo(), newFakeStudentRepo(), nil, nil)

	_, err := svc.BulkSave(context.Background(), dto.BulkRelativesRequest{StudentNationalID: "12345678901", Relatives: []dto.RelativeRequest{{Name: "Fatma"}}})
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.BulkSave(context.Background(), dto.BulkRelativesRequest{StudentNationalID: "12345678901"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestRelativeServiceUpdateKeepsOwner(t *testing.T) {
	relatives := newFakeRelativeRepo()
	relatives.rows["rel-1"] = &models.Relative{ID: "rel-1", StudentID: "stu-1", Name: "Fatma"}
	svc := NewRelativeService(relatives, newFakeStudentRepo(), nil, nil)

	updated, err := svc.Update(context.Background(), "rel-1", dto.RelativeRequest{Name: "Fatma Kaya", Phone: "5551234567"})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", updated.StudentID)
	assert.Equal(t, "5551234567", relatives.rows["rel-1"].Phone)

	require.NoError(t, svc.Delete(context.Background(), "rel-1"))
	requireStatus(t, svc.Delete(context.Background(), "rel-1"), http.StatusNotFound)
}

func TestRelativeServiceListByStudentWithoutRelatives(t *testing.T) {
	students := newFakeStudentRepo(models.Student{ID: "stu-1", NationalID: "12345678901", IsActive: true})
	svc := NewRelativeService(newFakeRelativeRepo(), students, nil, nil)

	relatives, err := svc.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.NotNil(t, relatives)
	assert.Empty(t, relatives)

	_, err = svc.ListByStudent(context.Background(), "ghost")
	requireStatus(t, err, http.StatusNotFound)
}
