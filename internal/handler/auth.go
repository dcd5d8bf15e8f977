package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/arkvest/arkvest/internal/config"
	"github.com/arkvest/arkvest/internal/errHandler"
	"github.com/arkvest/arkvest/internal/helper"
	"github.com/arkvest/arkvest/internal/repository"
	"github.com/arkvest/arkvest/internal/request"
	"github.com/arkvest/arkvest/internal/response"
	"github.com/arkvest/arkvest/internal/smtp"
	"github.com/arkvest/arkvest/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
)

const (
	UserActivityLogRegistrationDescription  = "Account registration"
	UserActivityLogFailedLoginDescription   = "Failed login attempt"
	UserActivityLogLoginDescription         = "Logged in"
	UserActivityLogAccountLockedDescription = "Account locked after repeated failed logins"

	// maxFailedLoginAttempts is the consecutive-failure threshold after
	// which the account is locked.
	maxFailedLoginAttempts = 5
)

type AuthHandler struct {
	DB         repository.Database
	Config     *config.Config
	ErrHandler *errHandler.ErrorHandler
	Helper     *helper.HelperRepository
	Mailer     smtp.MailerInterface
}

func NewAuthHandler(handler *AuthHandler) *AuthHandler {
	return &AuthHandler{
		DB:         handler.DB,
		Config:     handler.Config,
		ErrHandler: handler.ErrHandler,
		Helper:     handler.Helper,
		Mailer:     handler.Mailer,
	}
}

// New user registration involves input validation, uniqueness checks on
// email and phone number, then a single database transaction that inserts
// the user record and provisions their wallet. A failure at any point rolls
// the whole thing back.
func (h *AuthHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email       string              `json:"email"`
		Password    string              `json:"password"`
		FirstName   string              `json:"first_name"`
		LastName    string              `json:"last_name"`
		PhoneNumber string              `json:"phone_number"`
		Gender      string              `json:"gender"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	// the Validate function returns a slice of errors if the password does
	// not meet the minimum requirements
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	_, found, err := h.DB.User().GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(!found, "Email is already in use")

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(len(input.FirstName) >= 3, "First name is too short")

	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
	input.Validator.Check(len(input.LastName) >= 3, "Last name is too short")

	input.Validator.Check(validator.NotBlank(input.Gender), "Gender is required")

	input.Validator.Check(validator.NotBlank(input.PhoneNumber), "Phone number is required")
	input.Validator.Check(validator.Matches(input.PhoneNumber, validator.RgxPhoneNumber), "Phone number must be in international format")

	found, err = h.DB.User().CheckIfPhoneNumberExist(input.PhoneNumber)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	input.Validator.Check(!found, "Phone number has been registered")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	tx, err := h.DB.BeginTx(r.Context(), nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	createdUser := &repository.User{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		PhoneNumber:    input.PhoneNumber,
		Gender:         input.Gender,
		HashedPassword: hashedPassword,
	}

	userID, err := h.DB.User().Insert(createdUser, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	userWallet := &repository.Wallet{UserID: userID}
	_, err = h.DB.Wallet().Insert(userWallet, tx)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if err = tx.Commit(); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      userID,
			Entity:      repository.ActivityLogUserEntity,
			EntityId:    &userID,
			Description: UserActivityLogRegistrationDescription,
		})

		if err != nil {
			log.Printf("Error logging user registration action: %v", err)
			return err
		}

		return nil
	})

	h.Helper.BackgroundTask(r, func() error {
		emailData := h.Helper.NewEmailData()
		emailData["Name"] = createdUser.FirstName + " " + createdUser.LastName
		emailData["Currency"] = "USD"

		err := h.Mailer.Send(createdUser.Email, emailData, "welcome.tmpl")
		if err != nil {
			log.Printf("Error sending welcome email: %v", err)
			return err
		}

		return nil
	})

	message := "Account created successfully"

	err = response.JSONCreatedResponse(w, nil, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user, found, err := h.DB.User().GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(found, "Incorrect email/password")

	if found {
		if user.Status == repository.UserAccountLockedStatus {
			input.Validator.AddError("Your account has been locked, contact support")
			h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
			return
		}

		passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		input.Validator.Check(validator.NotBlank(input.Password), "Password is required")
		input.Validator.Check(passwordMatches, "Incorrect email/password")

		if !passwordMatches {
			h.Helper.BackgroundTask(r, func() error {
				_, err := h.DB.Activity().Insert(&repository.ActivityLog{
					UserID:      user.ID,
					Entity:      repository.ActivityLogUserEntity,
					EntityId:    &user.ID,
					Description: UserActivityLogFailedLoginDescription,
				})

				if err != nil {
					log.Printf("Error logging failed login action: %v", err)
					return err
				}

				return nil
			})

			attempts := h.DB.Activity().CountConsecutiveFailedLoginAttempts(user.ID, UserActivityLogFailedLoginDescription)
			if attempts+1 >= maxFailedLoginAttempts {
				if err := h.DB.User().Lock(user.ID); err != nil {
					log.Printf("Error locking account: %v", err)
				}

				h.Helper.BackgroundTask(r, func() error {
					_, err := h.DB.Activity().Insert(&repository.ActivityLog{
						UserID:      user.ID,
						Entity:      repository.ActivityLogUserEntity,
						EntityId:    &user.ID,
						Description: UserActivityLogAccountLockedDescription,
					})
					return err
				})
			}
		}
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	var claims jwt.Claims
	claims.Subject = user.ID

	expiry := time.Now().Add(24 * time.Hour)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.Activity().Insert(&repository.ActivityLog{
			UserID:      user.ID,
			Entity:      repository.ActivityLogUserEntity,
			EntityId:    &user.ID,
			Description: UserActivityLogLoginDescription,
		})
		return err
	})

	message := "Login successful"

	data := map[string]any{
		"AuthenticationToken":       string(jwtBytes),
		"AuthenticationTokenExpiry": strconv.FormatInt(expiry.Unix(), 10),
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
