package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	appcontext "github.com/arkvest/arkvest/internal/context"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInvestmentRepo struct {
	mock.Mock
}

func (m *MockInvestmentRepo) Insert(investment *repository.Investment, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockInvestmentRepo) GetOne(id string) (*repository.Investment, bool, error) {
	args := m.Called(id)
	return args.Get(0).(*repository.Investment), args.Bool(1), args.Error(2)
}

func (m *MockInvestmentRepo) GetAllByUserId(userID string) ([]repository.Investment, error) {
	return nil, nil
}

func (m *MockInvestmentRepo) GetActive(limit int) ([]repository.Investment, error) {
	return nil, nil
}

func (m *MockInvestmentRepo) UpdateValue(id string, value float64, tx *sqlx.Tx) error {
	return nil
}

func (m *MockInvestmentRepo) Complete(id string, finalValue float64) error {
	return nil
}

func (m *MockInvestmentRepo) LatchRoiWithdrawn(id string, tx *sqlx.Tx) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvestmentRepo) AppendTransaction(entry *repository.InvestmentTransaction, tx *sqlx.Tx) (string, error) {
	args := m.Called(entry)
	return args.String(0), args.Error(1)
}

func (m *MockInvestmentRepo) GetTransactions(investmentID string) ([]repository.InvestmentTransaction, error) {
	return nil, nil
}

type MockFeeRepo struct {
	mock.Mock
}

func (m *MockFeeRepo) Get(userID, feeType string) (*repository.Fee, bool, error) {
	args := m.Called(userID, feeType)
	return args.Get(0).(*repository.Fee), args.Bool(1), args.Error(2)
}

func (m *MockFeeRepo) Require(userID, feeType string, amount float64, reason string, tx *sqlx.Tx) error {
	args := m.Called(userID, feeType, amount, reason)
	return args.Error(0)
}

func (m *MockFeeRepo) Impose(userID, feeType string, amount float64, reason string, tx *sqlx.Tx) error {
	args := m.Called(userID, feeType, amount, reason)
	return args.Error(0)
}

func (m *MockFeeRepo) MarkPaid(userID, feeType, reference string, tx *sqlx.Tx) error {
	return nil
}

func (m *MockFeeRepo) Clear(userID, feeType string) error {
	return nil
}

func (m *MockFeeRepo) GetAllByUserId(userID string) ([]repository.Fee, error) {
	return nil, nil
}

type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) Insert(wallet *repository.Wallet, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockWalletRepo) GetByUserID(userID string) (*repository.Wallet, bool, error) {
	return nil, false, nil
}

func (m *MockWalletRepo) CreditAvailable(userID string, amount float64, tx *sqlx.Tx) (float64, error) {
	return 0, nil
}

func (m *MockWalletRepo) DebitAvailable(userID string, amount float64, tx *sqlx.Tx) (float64, error) {
	return 0, nil
}

func (m *MockWalletRepo) CreditLocked(userID string, amount float64, tx *sqlx.Tx) (float64, error) {
	args := m.Called(userID, amount)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockWalletRepo) DebitLocked(userID string, amount float64, tx *sqlx.Tx) (float64, error) {
	return 0, nil
}

func (m *MockWalletRepo) Hold(id string) error {
	return nil
}

type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) Insert(entry *repository.LedgerEntry, tx *sqlx.Tx) (string, error) {
	args := m.Called(entry)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerRepo) GetAllByUserId(userID string, limit, offset int) ([]repository.LedgerEntry, error) {
	return nil, nil
}

// MockExtractionDB backs BeginTx with a sqlmock connection so the handler's
// transaction lifecycle runs for real while the repositories are mocked.
type MockExtractionDB struct {
	repository.Database
	sqlxDB         *sqlx.DB
	investmentRepo repository.InvestmentRepository
	feeRepo        repository.FeeRepository
	walletRepo     repository.WalletRepository
	ledgerRepo     repository.LedgerRepository
	activityRepo   repository.ActivityRepository
}

func (m *MockExtractionDB) Investment() repository.InvestmentRepository {
	return m.investmentRepo
}

func (m *MockExtractionDB) Fee() repository.FeeRepository {
	return m.feeRepo
}

func (m *MockExtractionDB) Wallet() repository.WalletRepository {
	return m.walletRepo
}

func (m *MockExtractionDB) Ledger() repository.LedgerRepository {
	return m.ledgerRepo
}

func (m *MockExtractionDB) Activity() repository.ActivityRepository {
	return m.activityRepo
}

func (m *MockExtractionDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.sqlxDB.BeginTxx(ctx, opts)
}

func newTestInvestmentHandler(t *testing.T, db *MockExtractionDB) *InvestmentHandler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	errorHandler := errHandler.New("", nil, logger)

	var baseURL = "http://localhost"
	var wg sync.WaitGroup

	return &InvestmentHandler{
		DB:         db,
		ErrHandler: errorHandler,
		Helper:     helper.New(&baseURL, &wg, nil),
	}
}

func newExtractionRequest(t *testing.T, user *repository.User, investmentID string) *http.Request {
	t.Helper()

	req, err := http.NewRequest("POST", "/api/investments/"+investmentID+"/extract-roi", nil)
	require.NoError(t, err)
	req.SetPathValue("id", investmentID)

	return appcontext.ContextSetAuthenticatedUser(req, user)
}

// A user who settled the tax clearance fee on an earlier extraction must owe
// it again when a later investment matures, otherwise the newly locked ROI
// has no release path.
func TestHandleExtractROI_RenewsTaxClearanceOnNewCycle(t *testing.T) {
	rawDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer rawDB.Close()

	sqlxDB := sqlx.NewDb(rawDB, "sqlmock")
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	testUser := &repository.User{ID: "user-1"}

	investment := &repository.Investment{
		ID:           "inv-2",
		UserID:       testUser.ID,
		Amount:       1000,
		CurrentValue: 1300,
		Status:       repository.InvestmentCompletedStatus,
		RoiWithdrawn: false,
	}

	mockInvestmentRepo := new(MockInvestmentRepo)
	mockFeeRepo := new(MockFeeRepo)
	mockWalletRepo := new(MockWalletRepo)
	mockLedgerRepo := new(MockLedgerRepo)
	mockActivityRepo := new(MockActivityRepo)

	mockInvestmentRepo.On("GetOne", "inv-2").Return(investment, true, nil)
	mockInvestmentRepo.On("LatchRoiWithdrawn", "inv-2").Return(true, nil)
	mockInvestmentRepo.On("AppendTransaction", mock.Anything).Return("itx-1", nil)

	// activation fee settled in the first cycle; it stays settled
	mockFeeRepo.On("Get", testUser.ID, repository.FeeTypeActivation).
		Return(&repository.Fee{FeeType: repository.FeeTypeActivation, Required: true, Paid: true}, true, nil)

	// the new cycle's tax clearance gate closes again with the fresh amount
	mockFeeRepo.On("Impose", testUser.ID, repository.FeeTypeTaxClearance, 54.0, mock.Anything).
		Return(nil)

	mockWalletRepo.On("CreditLocked", testUser.ID, 300.0).Return(300.0, nil)
	mockLedgerRepo.On("Insert", mock.Anything).Return("ledger-1", nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&repository.ActivityLog{}, nil)

	db := &MockExtractionDB{
		sqlxDB:         sqlxDB,
		investmentRepo: mockInvestmentRepo,
		feeRepo:        mockFeeRepo,
		walletRepo:     mockWalletRepo,
		ledgerRepo:     mockLedgerRepo,
		activityRepo:   mockActivityRepo,
	}

	investmentHandler := newTestInvestmentHandler(t, db)

	rr := httptest.NewRecorder()
	investmentHandler.HandleExtractROI(rr, newExtractionRequest(t, testUser, "inv-2"))

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]interface{}
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "Expected response['data'] to be a map")
	require.Equal(t, 300.0, data["roi"])
	require.Equal(t, 54.0, data["tax_clearance_fee_due"])

	mockFeeRepo.AssertExpectations(t)
	mockFeeRepo.AssertNotCalled(t, "Require", testUser.ID, repository.FeeTypeTaxClearance, mock.Anything, mock.Anything)
	mockInvestmentRepo.AssertExpectations(t)
	require.NoError(t, dbMock.ExpectationsWereMet())
}

func TestHandleExtractROI_SecondAttemptSeesClosedLatch(t *testing.T) {
	rawDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer rawDB.Close()

	sqlxDB := sqlx.NewDb(rawDB, "sqlmock")
	dbMock.ExpectBegin()
	dbMock.ExpectRollback()

	testUser := &repository.User{ID: "user-1"}

	investment := &repository.Investment{
		ID:           "inv-1",
		UserID:       testUser.ID,
		Amount:       1000,
		CurrentValue: 1300,
		Status:       repository.InvestmentCompletedStatus,
		RoiWithdrawn: false,
	}

	mockInvestmentRepo := new(MockInvestmentRepo)
	mockFeeRepo := new(MockFeeRepo)

	mockInvestmentRepo.On("GetOne", "inv-1").Return(investment, true, nil)
	mockInvestmentRepo.On("LatchRoiWithdrawn", "inv-1").Return(false, nil)

	mockFeeRepo.On("Get", testUser.ID, repository.FeeTypeActivation).
		Return(&repository.Fee{FeeType: repository.FeeTypeActivation, Required: true, Paid: true}, true, nil)

	db := &MockExtractionDB{
		sqlxDB:         sqlxDB,
		investmentRepo: mockInvestmentRepo,
		feeRepo:        mockFeeRepo,
	}

	investmentHandler := newTestInvestmentHandler(t, db)

	rr := httptest.NewRecorder()
	investmentHandler.HandleExtractROI(rr, newExtractionRequest(t, testUser, "inv-1"))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	mockFeeRepo.AssertNotCalled(t, "Impose", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockInvestmentRepo.AssertExpectations(t)
}
