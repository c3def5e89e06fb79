package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-club-api/internal/models"
)

func TestParentRepositoryFindByNationalIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM mothers WHERE national_id = $1")).
		WithArgs("11111111111").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	lookup, err := repo.FindByNationalID(context.Background(), nil, models.ParentMother, "11111111111")
	require.NoError(t, err)
	assert.Equal(t, models.ParentNotFound(), lookup)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParentRepositoryFindByNationalIDLocksInsideTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParentRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fathers WHERE national_id = $1 FOR UPDATE")).
		WithArgs("22222222222").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "national_id", "phone", "email", "occupation", "created_at", "updated_at"}).
			AddRow("f-1", "Mehmet", "22222222222", "", "m@example.com", "", now, now))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	lookup, err := repo.FindByNationalID(context.Background(), tx, models.ParentFather, "22222222222")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.True(t, lookup.Found)
	assert.Equal(t, "f-1", lookup.Parent.ID)
	assert.Equal(t, "m@example.com", lookup.Parent.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParentRepositoryRejectsUnknownKind(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParentRepository(db)

	lookup, err := repo.FindByNationalID(context.Background(), nil, models.ParentKind("aunt"), "11111111111")
	assert.Error(t, err)
	assert.False(t, lookup.Found)
}

func TestParentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewParentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mothers")).
		WithArgs(sqlmock.AnyArg(), "Ayşe", "11111111111", "5551112233", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	parent := &models.Parent{Name: "Ayşe", NationalID: "11111111111", Phone: "5551112233"}
	require.NoError(t, repo.Create(context.Background(), nil, models.ParentMother, parent))
	assert.NotEmpty(t, parent.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
