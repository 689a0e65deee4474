package borrowers

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the postgres dialect
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

const defaultBorrowersTableName = "borrowers"

var (
	ErrNilDB               = errors.New("sqlx db must not be nil")
	ErrQueryBorrowerFailed = errors.New("querying the borrower failed")
)

type borrowerRow struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Email string    `db:"email"`
}

// getter is the part of *sqlx.DB the directory uses.
type getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// PostgresDirectory reads borrowers with sqlx on top of the lib/pq driver.
type PostgresDirectory struct {
	db        getter
	tableName string
}

func NewPostgresDirectory(db *sqlx.DB, tableName string) (*PostgresDirectory, error) {
	if db == nil {
		return nil, ErrNilDB
	}

	return newPostgresDirectory(db, tableName), nil
}

func newPostgresDirectory(db getter, tableName string) *PostgresDirectory {
	if tableName == "" {
		tableName = defaultBorrowersTableName
	}

	return &PostgresDirectory{db: db, tableName: tableName}
}

func (d *PostgresDirectory) FindByID(ctx context.Context, id uuid.UUID) (core.Borrower, error) {
	return d.findOne(ctx, goqu.C("id").Eq(id.String()))
}

// FindByEmail compares lower(email), backed by a unique index on that expression.
func (d *PostgresDirectory) FindByEmail(ctx context.Context, email string) (core.Borrower, error) {
	return d.findOne(ctx, goqu.L("lower(email) = ?", NormalizeEmail(email)))
}

func (d *PostgresDirectory) findOne(ctx context.Context, where goqu.Expression) (core.Borrower, error) {
	query, args, err := d.selectBorrower(where)
	if err != nil {
		return core.Borrower{}, errors.Join(ErrQueryBorrowerFailed, err)
	}

	row := borrowerRow{}
	if err = d.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Borrower{}, core.ErrBorrowerNotFound
		}

		return core.Borrower{}, errors.Join(ErrQueryBorrowerFailed, err)
	}

	return core.Borrower{ID: row.ID, Name: row.Name, Email: row.Email}, nil
}

func (d *PostgresDirectory) selectBorrower(where goqu.Expression) (string, []any, error) {
	return goqu.Dialect("postgres").
		From(d.tableName).
		Prepared(true).
		Select("id", "name", "email").
		Where(where).
		Limit(1).
		ToSQL()
}
