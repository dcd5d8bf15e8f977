package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/arkvest/arkvest/assets"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Database interface defines available repositories
type Database interface {
	User() UserRepository
	Wallet() WalletRepository
	Ledger() LedgerRepository
	Fee() FeeRepository
	Plan() PlanRepository
	Investment() InvestmentRepository
	Deposit() DepositRepository
	Withdrawal() WithdrawalRepository
	Kyc() KycRepository
	Activity() ActivityRepository
	Audit() AuditRepository
	Ticket() TicketRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// DatabaseImpl implements the Database interface
type DatabaseImpl struct {
	db             *sqlx.DB
	userRepo       UserRepository
	walletRepo     WalletRepository
	ledgerRepo     LedgerRepository
	feeRepo        FeeRepository
	planRepo       PlanRepository
	investmentRepo InvestmentRepository
	depositRepo    DepositRepository
	withdrawalRepo WithdrawalRepository
	kycRepo        KycRepository
	activityRepo   ActivityRepository
	auditRepo      AuditRepository
	ticketRepo     TicketRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	tx, err := d.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Wallet() WalletRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletRepo == nil {
		d.walletRepo = NewWalletRepository(d.db)
	}
	return d.walletRepo
}

func (d *DatabaseImpl) Ledger() LedgerRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ledgerRepo == nil {
		d.ledgerRepo = NewLedgerRepository(d.db)
	}
	return d.ledgerRepo
}

func (d *DatabaseImpl) Fee() FeeRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.feeRepo == nil {
		d.feeRepo = NewFeeRepository(d.db)
	}
	return d.feeRepo
}

func (d *DatabaseImpl) Plan() PlanRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.planRepo == nil {
		d.planRepo = NewPlanRepository(d.db)
	}
	return d.planRepo
}

func (d *DatabaseImpl) Investment() InvestmentRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.investmentRepo == nil {
		d.investmentRepo = NewInvestmentRepository(d.db)
	}
	return d.investmentRepo
}

func (d *DatabaseImpl) Deposit() DepositRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.depositRepo == nil {
		d.depositRepo = NewDepositRepository(d.db)
	}
	return d.depositRepo
}

func (d *DatabaseImpl) Withdrawal() WithdrawalRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.withdrawalRepo == nil {
		d.withdrawalRepo = NewWithdrawalRepository(d.db)
	}
	return d.withdrawalRepo
}

func (d *DatabaseImpl) Kyc() KycRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.kycRepo == nil {
		d.kycRepo = NewKycRepository(d.db)
	}
	return d.kycRepo
}

func (d *DatabaseImpl) Activity() ActivityRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.activityRepo == nil {
		d.activityRepo = NewActivityRepository(d.db)
	}
	return d.activityRepo
}

func (d *DatabaseImpl) Audit() AuditRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.auditRepo == nil {
		d.auditRepo = NewAuditRepository(d.db)
	}
	return d.auditRepo
}

func (d *DatabaseImpl) Ticket() TicketRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ticketRepo == nil {
		d.ticketRepo = NewTicketRepository(d.db)
	}
	return d.ticketRepo
}
