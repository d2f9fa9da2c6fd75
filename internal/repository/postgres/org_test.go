package postgres

import (
	"context"
	"database/sql"
	"testing"

	"fleetrent-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizationRepository_GetOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrganizationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"org_id", "org_name", "user_id", "name", "email", "locale"}).
			AddRow("org-1", "Atlas Cars", "user-1", "Youssef", "owner@atlas.test", "fr")

		mock.ExpectQuery(`SELECT o\.id AS org_id, .+ FROM organizations o JOIN users u ON u\.id = o\.owner_id WHERE o\.id = \$1`).
			WithArgs("org-1").
			WillReturnRows(rows)

		owner, err := repo.GetOwner(ctx, "org-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", owner.UserID)
		assert.Equal(t, "owner@atlas.test", owner.Email)
		assert.Equal(t, "fr", owner.Locale)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM organizations o`).
			WithArgs("org-404").
			WillReturnError(sql.ErrNoRows)

		owner, err := repo.GetOwner(ctx, "org-404")
		assert.Nil(t, owner)
		assert.ErrorIs(t, err, repository.ErrOwnerNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
