package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/marsops/backend/internal/domain/contract"
	"github.com/marsops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockContractRepository creates a GormContractRepository with a mocked SQL connection
func newMockContractRepository(t *testing.T) (*GormContractRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormContractRepository(gormDB), mock, mockDB
}

func TestNewGormContractRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormContractRepository_FindByID(t *testing.T) {
	t.Run("finds existing contract", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		contractID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "number", "name", "counterparty", "type", "status", "value", "currency"}).
			AddRow(contractID, "MSA-2026-001", "Master Services Agreement", "Acme Corp", "MSA", "DRAFT", decimal.Zero, "USD")

		mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(contractID, 1).
			WillReturnRows(rows)

		c, err := repo.FindByID(context.Background(), contractID)

		assert.NoError(t, err)
		assert.NotNil(t, c)
		assert.Equal(t, contractID, c.ID)
		assert.Equal(t, "MSA-2026-001", c.Number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent contract", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		contractID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(contractID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindByID(context.Background(), contractID)

		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_FindByNumber(t *testing.T) {
	t.Run("uppercases the number before querying", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		contractID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "number", "name", "counterparty", "type", "status", "value", "currency"}).
			AddRow(contractID, "NDA-2026-007", "Mutual NDA", "Globex", "NDA", "APPROVED", decimal.Zero, "USD")

		mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE number = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("NDA-2026-007", 1).
			WillReturnRows(rows)

		c, err := repo.FindByNumber(context.Background(), "nda-2026-007")

		assert.NoError(t, err)
		assert.NotNil(t, c)
		assert.Equal(t, "NDA-2026-007", c.Number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_FindByEnvelopeID(t *testing.T) {
	t.Run("finds contract by envelope", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		contractID := uuid.New()
		envelopeID := "abc-def-123"

		rows := sqlmock.NewRows([]string{"id", "number", "name", "counterparty", "type", "status", "value", "currency", "envelope_id"}).
			AddRow(contractID, "SOW-2026-003", "Statement of Work", "Initech", "SOW", "APPROVED", decimal.Zero, "USD", envelopeID)

		mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE envelope_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(envelopeID, 1).
			WillReturnRows(rows)

		c, err := repo.FindByEnvelopeID(context.Background(), envelopeID)

		assert.NoError(t, err)
		assert.NotNil(t, c)
		assert.Equal(t, envelopeID, c.EnvelopeID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for unknown envelope", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "contracts" WHERE envelope_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindByEnvelopeID(context.Background(), "missing")

		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_Save(t *testing.T) {
	t.Run("saves contract", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		c, err := contract.NewContract("MSA-2026-001", "Master Services Agreement", "Acme Corp", contract.ContractTypeMSA)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "contracts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Save(context.Background(), c)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_SaveWithLock(t *testing.T) {
	t.Run("updates guarded by version", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		c, err := contract.NewContract("MSA-2026-001", "Master Services Agreement", "Acme Corp", contract.ContractTypeMSA)
		require.NoError(t, err)
		require.Equal(t, 1, c.Version)

		mock.ExpectExec(`UPDATE "contracts" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.SaveWithLock(context.Background(), c)

		assert.NoError(t, err)
		assert.Equal(t, 2, c.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		c, err := contract.NewContract("MSA-2026-002", "Statement of Work", "Globex", contract.ContractTypeSOW)
		require.NoError(t, err)

		// Another writer already bumped the row's version
		mock.ExpectExec(`UPDATE "contracts" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.SaveWithLock(context.Background(), c)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
		assert.Equal(t, 1, c.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_Count(t *testing.T) {
	t.Run("counts contracts", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "contracts"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		count, err := repo.Count(context.Background(), shared.Filter{})

		assert.NoError(t, err)
		assert.Equal(t, int64(12), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies status filter", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "contracts" WHERE status = \$1`).
			WithArgs("APPROVED").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		filter := shared.Filter{Filters: map[string]interface{}{"status": "APPROVED"}}
		count, err := repo.Count(context.Background(), filter)

		assert.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_CountByStatus(t *testing.T) {
	t.Run("groups counts by status", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"status", "count"}).
			AddRow("DRAFT", 3).
			AddRow("APPROVED", 7)

		mock.ExpectQuery(`SELECT status, count\(\*\) as count FROM "contracts" GROUP BY .*status.*`).
			WillReturnRows(rows)

		counts, err := repo.CountByStatus(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, int64(3), counts[contract.ApprovalStatusDraft])
		assert.Equal(t, int64(7), counts[contract.ApprovalStatusApproved])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormContractRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements ContractRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		var _ contract.ContractRepository = repo
	})
}
