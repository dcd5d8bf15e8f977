package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/arkvest/arkvest/internal/config"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepo implements UserRepository but only mocks the needed methods.
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Insert(user *repository.User, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockUserRepo) GetOne(id string) (*repository.User, bool, error) {
	return nil, false, nil
}

func (m *MockUserRepo) GetByEmail(email string) (*repository.User, bool, error) {
	args := m.Called(email)
	return args.Get(0).(*repository.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	return false, nil
}

func (m *MockUserRepo) UpdatePassword(id, hashedPassword string) error {
	return nil
}

func (m *MockUserRepo) SetWithdrawalPin(id, hashedPin string) error {
	return nil
}

func (m *MockUserRepo) SetKycStatus(id, status string) error {
	return nil
}

func (m *MockUserRepo) Lock(id string) error {
	return nil
}

func (m *MockUserRepo) Unlock(id string) error {
	return nil
}

func (m *MockUserRepo) List(limit, offset int) ([]repository.User, error) {
	return nil, nil
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Insert(log *repository.ActivityLog) (*repository.ActivityLog, error) {
	args := m.Called(log)
	return args.Get(0).(*repository.ActivityLog), args.Error(1)
}

func (m *MockActivityRepo) CountConsecutiveFailedLoginAttempts(userID, actionDesc string) int {
	return 0
}

func (m *MockActivityRepo) GetAllByUserId(userID string, limit, offset int) ([]repository.ActivityLog, error) {
	return nil, nil
}

// MockDB exposes only the repositories the login path touches; everything
// else panics if reached, which is exactly what we want in a unit test.
type MockDB struct {
	repository.Database
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
}

func (m *MockDB) User() repository.UserRepository {
	return m.userRepo
}

func (m *MockDB) Activity() repository.ActivityRepository {
	return m.activityRepo
}

func (m *MockDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, nil
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(recipient string, data any, patterns ...string) error {
	args := m.Called(recipient, data, patterns)
	return args.Error(0)
}

func newTestAuthHandler(userRepo repository.UserRepository, activityRepo repository.ActivityRepository) *AuthHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	errorHandler := errHandler.New("", nil, logger)

	var baseURL = "http://localhost"
	var wg sync.WaitGroup

	mockConfig := &config.Config{
		BaseURL: baseURL,
	}
	mockConfig.Jwt.SecretKey = "test_secret"

	return &AuthHandler{
		DB: &MockDB{
			userRepo:     userRepo,
			activityRepo: activityRepo,
		},
		Config:     mockConfig,
		ErrHandler: errorHandler,
		Helper:     helper.New(&baseURL, &wg, nil),
		Mailer:     new(MockMailer),
	}
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	mockUserRepo := new(MockUserRepo)
	mockActivityRepo := new(MockActivityRepo)

	testUser := &repository.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.UserAccountActiveStatus,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&repository.ActivityLog{}, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockActivityRepo)

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "correctpassword",
	})

	req, err := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]interface{}
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Contains(t, response, "data")

	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "Expected response['data'] to be a map")

	require.Contains(t, data, "authentication_token")
	require.Contains(t, data, "authentication_token_expiry")
	require.NotEmpty(t, data["authentication_token"])

	mockUserRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	mockUserRepo := new(MockUserRepo)
	mockActivityRepo := new(MockActivityRepo)

	testUser := &repository.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.UserAccountActiveStatus,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)
	mockActivityRepo.On("Insert", mock.Anything).Return(&repository.ActivityLog{}, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockActivityRepo)

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "wrongpassword",
	})

	req, err := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var response map[string]interface{}
	err = json.Unmarshal(rr.Body.Bytes(), &response)
	require.NoError(t, err)

	require.Equal(t, false, response["success"])
	mockUserRepo.AssertExpectations(t)
}

func TestHandleAuthLogin_LockedAccount(t *testing.T) {
	mockUserRepo := new(MockUserRepo)
	mockActivityRepo := new(MockActivityRepo)

	testUser := &repository.User{
		ID:             "123",
		Email:          "test@example.com",
		HashedPassword: "$2a$10$oiIYEECpY/GRNs9Fi7Yh1.o4Dw2fTD26eu5z48KYgXkMuOiWlSvqG",
		Status:         repository.UserAccountLockedStatus,
	}

	mockUserRepo.On("GetByEmail", "test@example.com").Return(testUser, true, nil)

	authHandler := newTestAuthHandler(mockUserRepo, mockActivityRepo)

	requestBody, _ := json.Marshal(map[string]string{
		"email":    "test@example.com",
		"password": "correctpassword",
	})

	req, err := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()

	authHandler.HandleAuthLogin(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	mockUserRepo.AssertExpectations(t)
}
