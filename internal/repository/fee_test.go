package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newFeeRepoWithMock(t *testing.T) (FeeRepository, sqlmock.Sqlmock) {
	t.Helper()

	rawDB, dbMock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { rawDB.Close() })

	return NewFeeRepository(sqlx.NewDb(rawDB, "sqlmock")), dbMock
}

// Require must leave a settled fee alone; a repeated gated attempt cannot
// put the user back on the hook.
func TestFeeRequire_PreservesSettledFee(t *testing.T) {
	repo, dbMock := newFeeRepoWithMock(t)

	dbMock.ExpectExec(`ON CONFLICT \(user_id, fee_type\) DO UPDATE(.|\n)*WHERE fees\.paid = FALSE`).
		WithArgs("user-1", FeeTypeActivation, 60.0, "Account activation fee on realized ROI").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Require("user-1", FeeTypeActivation, 60.0, "Account activation fee on realized ROI", nil)
	require.NoError(t, err)
	require.NoError(t, dbMock.ExpectationsWereMet())
}

// Impose must reopen the gate even over a settled fee so each extraction
// cycle owes its own tax clearance.
func TestFeeImpose_ReopensSettledGate(t *testing.T) {
	repo, dbMock := newFeeRepoWithMock(t)

	dbMock.ExpectExec(`ON CONFLICT \(user_id, fee_type\) DO UPDATE(.|\n)*paid = FALSE, paid_at = NULL, transaction_reference = NULL`).
		WithArgs("user-1", FeeTypeTaxClearance, 54.0, "Tax clearance on extracted ROI").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Impose("user-1", FeeTypeTaxClearance, 54.0, "Tax clearance on extracted ROI", nil)
	require.NoError(t, err)
	require.NoError(t, dbMock.ExpectationsWereMet())
}
