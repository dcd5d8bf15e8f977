package app

import (
	"net/http"

	"github.com/arkvest/arkvest/internal/handler"
	"github.com/arkvest/arkvest/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler)

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		DB:         app.DB,
		Config:     &app.Config,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
		Mailer:     app.Mailer,
	})

	userHandler := handler.NewUserHandler(&handler.UserHandler{
		UserRepo:     app.DB.User(),
		WalletRepo:   app.DB.Wallet(),
		LedgerRepo:   app.DB.Ledger(),
		FeeRepo:      app.DB.Fee(),
		ActivityRepo: app.DB.Activity(),
		ErrHandler:   app.errorHandler,
		Helper:       app.Helper,
	})

	kycHandler := handler.NewKycHandler(&handler.KycHandler{
		KycRepo:      app.DB.Kyc(),
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		FileUploader: app.FileUploader,
		ErrHandler:   app.errorHandler,
		Helper:       app.Helper,
	})

	planHandler := handler.NewPlanHandler(&handler.PlanHandler{
		PlanRepo:   app.DB.Plan(),
		ErrHandler: app.errorHandler,
	})

	investmentHandler := handler.NewInvestmentHandler(&handler.InvestmentHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
	})

	depositHandler := handler.NewDepositHandler(&handler.DepositHandler{
		DB:           app.DB,
		FileUploader: app.FileUploader,
		ErrHandler:   app.errorHandler,
		Helper:       app.Helper,
	})

	withdrawalHandler := handler.NewWithdrawalHandler(&handler.WithdrawalHandler{
		DB:         app.DB,
		Cache:      app.Cache,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
	})

	feeHandler := handler.NewFeeHandler(&handler.FeeHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
	})

	ticketHandler := handler.NewTicketHandler(&handler.TicketHandler{
		TicketRepo:   app.DB.Ticket(),
		ActivityRepo: app.DB.Activity(),
		ErrHandler:   app.errorHandler,
		Helper:       app.Helper,
	})

	adminHandler := handler.NewAdminHandler(&handler.AdminHandler{
		DB:         app.DB,
		Stream:     app.Kafka,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	mux.HandleFunc("POST /api/auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleAuthLogin)

	mux.HandleFunc("GET /api/plans", planHandler.HandlePlans)

	// authenticated routes
	requireUser := middlewareRepo.RequireAuthenticatedUser

	mux.Handle("GET /api/me", requireUser(http.HandlerFunc(userHandler.HandleProfile)))
	mux.Handle("POST /api/me/withdrawal-pin", requireUser(http.HandlerFunc(userHandler.HandleSetWithdrawalPin)))
	mux.Handle("GET /api/me/wallet", requireUser(http.HandlerFunc(userHandler.HandleWalletBalance)))
	mux.Handle("GET /api/me/ledger", requireUser(http.HandlerFunc(userHandler.HandleLedgerHistory)))
	mux.Handle("GET /api/me/fees", requireUser(http.HandlerFunc(userHandler.HandleFees)))

	mux.Handle("GET /api/kyc/requirements", requireUser(http.HandlerFunc(kycHandler.HandleRequirements)))
	mux.Handle("POST /api/kyc/documents", requireUser(http.HandlerFunc(kycHandler.HandleUploadDocument)))
	mux.Handle("GET /api/kyc/documents", requireUser(http.HandlerFunc(kycHandler.HandleMyDocuments)))

	mux.Handle("POST /api/investments", requireUser(http.HandlerFunc(investmentHandler.HandleCreateInvestment)))
	mux.Handle("GET /api/investments", requireUser(http.HandlerFunc(investmentHandler.HandleMyInvestments)))
	mux.Handle("GET /api/investments/{id}", requireUser(http.HandlerFunc(investmentHandler.HandleInvestmentDetails)))
	mux.Handle("POST /api/investments/{id}/extract-roi", requireUser(http.HandlerFunc(investmentHandler.HandleExtractROI)))

	mux.Handle("POST /api/deposits", requireUser(http.HandlerFunc(depositHandler.HandleCreateDeposit)))
	mux.Handle("GET /api/deposits", requireUser(http.HandlerFunc(depositHandler.HandleMyDeposits)))
	mux.Handle("GET /api/deposits/{id}", requireUser(http.HandlerFunc(depositHandler.HandleDepositDetails)))

	mux.Handle("POST /api/withdrawals", requireUser(http.HandlerFunc(withdrawalHandler.HandleCreateWithdrawal)))
	mux.Handle("GET /api/withdrawals", requireUser(http.HandlerFunc(withdrawalHandler.HandleMyWithdrawals)))
	mux.Handle("GET /api/withdrawals/{id}", requireUser(http.HandlerFunc(withdrawalHandler.HandleWithdrawalDetails)))
	mux.Handle("POST /api/withdrawals/{id}/network-fee", requireUser(http.HandlerFunc(withdrawalHandler.HandleSubmitNetworkFee)))

	mux.Handle("POST /api/fees/activation/pay", requireUser(http.HandlerFunc(feeHandler.HandlePayActivationFee)))
	mux.Handle("POST /api/fees/tax-clearance/pay", requireUser(http.HandlerFunc(feeHandler.HandlePayTaxClearanceFee)))

	mux.Handle("POST /api/tickets", requireUser(http.HandlerFunc(ticketHandler.HandleOpenTicket)))
	mux.Handle("GET /api/tickets", requireUser(http.HandlerFunc(ticketHandler.HandleMyTickets)))
	mux.Handle("GET /api/tickets/{id}", requireUser(http.HandlerFunc(ticketHandler.HandleTicketThread)))
	mux.Handle("POST /api/tickets/{id}/messages", requireUser(http.HandlerFunc(ticketHandler.HandleReplyTicket)))

	// back-office routes
	requireAdmin := func(next http.HandlerFunc) http.Handler {
		return requireUser(middlewareRepo.RequireAdmin(next))
	}

	mux.Handle("GET /api/admin/users", requireAdmin(adminHandler.HandleListUsers))
	mux.Handle("POST /api/admin/users/{id}/lock", requireAdmin(adminHandler.HandleLockUser))
	mux.Handle("POST /api/admin/users/{id}/unlock", requireAdmin(adminHandler.HandleUnlockUser))

	mux.Handle("GET /api/admin/deposits", requireAdmin(adminHandler.HandlePendingDeposits))
	mux.Handle("POST /api/admin/deposits/{id}/review", requireAdmin(adminHandler.HandleReviewDeposit))

	mux.Handle("GET /api/admin/withdrawals", requireAdmin(adminHandler.HandleWithdrawalQueue))
	mux.Handle("POST /api/admin/withdrawals/{id}/network-fee/review", requireAdmin(adminHandler.HandleReviewNetworkFee))
	mux.Handle("POST /api/admin/withdrawals/{id}/approve", requireAdmin(adminHandler.HandleApproveWithdrawal))
	mux.Handle("POST /api/admin/withdrawals/{id}/reject", requireAdmin(adminHandler.HandleRejectWithdrawal))

	mux.Handle("POST /api/admin/fees", requireAdmin(adminHandler.HandleSetFee))
	mux.Handle("POST /api/admin/fees/clear", requireAdmin(adminHandler.HandleClearFee))

	mux.Handle("POST /api/admin/investments/{id}/value", requireAdmin(adminHandler.HandleAdjustInvestmentValue))
	mux.Handle("POST /api/admin/investments/{id}/transactions", requireAdmin(adminHandler.HandlePushInvestmentTransaction))

	mux.Handle("POST /api/admin/kyc/documents/{id}/review", requireAdmin(adminHandler.HandleReviewKycDocument))

	mux.Handle("GET /api/admin/tickets", requireAdmin(adminHandler.HandleOpenTickets))
	mux.Handle("POST /api/admin/tickets/{id}/close", requireAdmin(adminHandler.HandleCloseTicket))

	mux.Handle("GET /api/admin/audit-logs", requireAdmin(adminHandler.HandleAuditLogs))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
