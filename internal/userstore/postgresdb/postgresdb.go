// Package postgresdb provides a PostgreSQL-based implementation of the
// credential store for deployments where the snapshot file is not
// durable enough. Rows are durable per statement, so Load and Save are
// no-ops here.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/sessiond/internal/user"
	"github.com/patric-chuzhbe/sessiond/internal/userstore"
)

const uniqueViolationCode = "23505"

// PostgresDB is a PostgreSQL-backed credential store.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
	bcryptCost        int
}

type initOptions struct {
	bcryptCost int
}

// InitOption customizes New.
type InitOption func(*initOptions)

// WithBCryptCost overrides the password hashing cost factor.
func WithBCryptCost(cost int) InitOption {
	return func(options *initOptions) {
		options.bcryptCost = cost
	}
}

// New establishes a connection to the PostgreSQL database, runs schema
// migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/userstore/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.Up(database, migrationsDir); err != nil {
		return nil,
			fmt.Errorf(
				"in internal/userstore/postgresdb/postgresdb.go/New(): error while `goose.Up()` calling: %w",
				err,
			)
	}

	return &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
		bcryptCost:        options.bcryptCost,
	}, nil
}

// Insert adds a record after checking email uniqueness. The check and
// the append run in one transaction; the unique index on email is the
// backstop against two transactions passing the check concurrently.
func (db *PostgresDB) Insert(ctx context.Context, credential userstore.Credential) (*user.User, error) {
	transaction, err := db.database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	var existingID string
	err = transaction.QueryRowContext(
		ctx,
		`SELECT id FROM users WHERE email = $1`,
		credential.Email,
	).Scan(&existingID)
	if err == nil {
		return nil, userstore.ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(credential.Password), db.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("in internal/userstore/postgresdb/postgresdb.go/Insert(): error while `bcrypt.GenerateFromPassword()` calling: %w", err)
	}

	record := user.User{
		ID:           uuid.New().String(),
		Name:         credential.Name,
		Email:        credential.Email,
		PasswordHash: string(hashed),
	}

	_, err = transaction.ExecContext(
		ctx,
		`INSERT INTO users (id, name, email, hashed_password) VALUES ($1, $2, $3, $4)`,
		record.ID,
		record.Name,
		record.Email,
		record.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, userstore.ErrAlreadyExists
		}
		return nil, err
	}

	if err := transaction.Commit(); err != nil {
		return nil, err
	}

	return &record, nil
}

// Verify fetches the record by email and compares the supplied password
// against the stored hash.
func (db *PostgresDB) Verify(ctx context.Context, credential userstore.Credential) (*user.User, error) {
	record, err := db.queryOne(
		ctx,
		`SELECT id, name, email, hashed_password FROM users WHERE email = $1`,
		credential.Email,
	)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(credential.Password)); err != nil {
		return nil, userstore.ErrInvalidCredentials
	}

	return record, nil
}

// Find returns the record addressed by the selector, checking ID, then
// name, then email.
func (db *PostgresDB) Find(ctx context.Context, selector userstore.Selector) (*user.User, error) {
	column, value, err := selectorColumn(selector)
	if err != nil {
		return nil, err
	}

	return db.queryOne(
		ctx,
		`SELECT id, name, email, hashed_password FROM users WHERE `+column+` = $1`,
		value,
	)
}

// Remove deletes the record addressed by the selector using the same
// ID/name/email precedence as Find.
func (db *PostgresDB) Remove(ctx context.Context, selector userstore.Selector) error {
	column, value, err := selectorColumn(selector)
	if err != nil {
		return err
	}

	result, err := db.database.ExecContext(
		ctx,
		`DELETE FROM users WHERE ctid IN (SELECT ctid FROM users WHERE `+column+` = $1 LIMIT 1)`,
		value,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return userstore.ErrNotFound
	}

	return nil
}

// Load is a no-op, rows are read on demand.
func (db *PostgresDB) Load(ctx context.Context) error {
	return nil
}

// Save is a no-op, rows are durable per statement.
func (db *PostgresDB) Save(ctx context.Context) error {
	return nil
}

// Ping checks database connectivity within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection pool.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) queryOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	record := user.User{}
	err := db.database.QueryRowContext(ctx, query, arg).Scan(
		&record.ID,
		&record.Name,
		&record.Email,
		&record.PasswordHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, userstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func selectorColumn(selector userstore.Selector) (column, value string, err error) {
	switch {
	case selector.ID != "":
		return "id", selector.ID, nil
	case selector.Name != "":
		return "name", selector.Name, nil
	case selector.Email != "":
		return "email", selector.Email, nil
	}

	return "", "", userstore.ErrInvalidSelector
}

var _ userstore.Store = (*PostgresDB)(nil)
