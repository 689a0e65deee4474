package catalog

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the postgres dialect
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

const (
	defaultItemsTableName = "items"

	colID                   = "id"
	colISBN                 = "isbn"
	colTitle                = "title"
	colAvailable            = "available"
	colBasePrice            = "base_price"
	colExtraDaysRentalPrice = "extra_days_rental_price"
	colInsuranceFee         = "insurance_fee"
)

var (
	ErrNilPool          = errors.New("pgx pool must not be nil")
	ErrQueryItemFailed  = errors.New("querying the item failed")
	ErrUpdateItemFailed = errors.New("updating the item availability failed")
	ErrInvalidPrice     = errors.New("item price is not a valid decimal")
)

// pgxQuerier is the part of *pgxpool.Pool the store uses.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore reads items from PostgreSQL via pgx. Concurrent look-ups of the same ISBN share one query.
type PostgresStore struct {
	db        pgxQuerier
	tableName string
	isbnGroup *singleflight.Group
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithItemsTableName overrides the default "items" table.
func WithItemsTableName(tableName string) PostgresOption {
	return func(s *PostgresStore) {
		if tableName != "" {
			s.tableName = tableName
		}
	}
}

func NewPostgresStore(pool *pgxpool.Pool, options ...PostgresOption) (*PostgresStore, error) {
	if pool == nil {
		return nil, ErrNilPool
	}

	return newPostgresStore(pool, options...), nil
}

func newPostgresStore(db pgxQuerier, options ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:        db,
		tableName: defaultItemsTableName,
		isbnGroup: &singleflight.Group{},
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (core.Item, error) {
	return s.findOne(ctx, goqu.Ex{colID: id.String()})
}

func (s *PostgresStore) FindByISBN(ctx context.Context, isbn string) (core.Item, error) {
	isbn = NormalizeISBN(isbn)

	result, err, _ := s.isbnGroup.Do(isbn, func() (any, error) {
		return s.findOne(ctx, goqu.Ex{colISBN: isbn})
	})
	if err != nil {
		return core.Item{}, err
	}

	return result.(core.Item), nil
}

func (s *PostgresStore) CompareAndSetAvailability(ctx context.Context, id uuid.UUID, expected, next bool) error {
	sqlQuery, args, err := goqu.Dialect("postgres").
		Update(s.tableName).
		Prepared(true).
		Set(goqu.Record{colAvailable: next}).
		Where(goqu.Ex{colID: id.String(), colAvailable: expected}).
		ToSQL()
	if err != nil {
		return errors.Join(ErrUpdateItemFailed, err)
	}

	tag, err := s.db.Exec(ctx, sqlQuery, args...)
	if err != nil {
		return errors.Join(ErrUpdateItemFailed, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrAvailabilityConflict
	}

	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, where goqu.Ex) (core.Item, error) {
	sqlQuery, args, err := s.selectItem(where)
	if err != nil {
		return core.Item{}, errors.Join(ErrQueryItemFailed, err)
	}

	var (
		id                                   uuid.UUID
		isbn, title                          string
		available                            bool
		basePrice, extraDaysPrice, insurance string
	)

	err = s.db.QueryRow(ctx, sqlQuery, args...).
		Scan(&id, &isbn, &title, &available, &basePrice, &extraDaysPrice, &insurance)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Item{}, core.ErrItemNotFound
	}
	if err != nil {
		return core.Item{}, errors.Join(ErrQueryItemFailed, err)
	}

	pricing, err := pricingFrom(basePrice, extraDaysPrice, insurance)
	if err != nil {
		return core.Item{}, err
	}

	return core.Item{ID: id, ISBN: isbn, Title: title, Available: available, Pricing: pricing}, nil
}

// selectItem casts the numeric columns to text so that no precision is lost on the way to decimal.Decimal.
func (s *PostgresStore) selectItem(where goqu.Ex) (string, []any, error) {
	return goqu.Dialect("postgres").
		From(s.tableName).
		Prepared(true).
		Select(
			goqu.C(colID),
			goqu.C(colISBN),
			goqu.C(colTitle),
			goqu.C(colAvailable),
			goqu.L(colBasePrice+"::text"),
			goqu.L(colExtraDaysRentalPrice+"::text"),
			goqu.L(colInsuranceFee+"::text"),
		).
		Where(where).
		Limit(1).
		ToSQL()
}

func pricingFrom(basePrice, extraDaysRentalPrice, insuranceFee string) (core.Pricing, error) {
	values := make([]decimal.Decimal, 3)

	for i, raw := range []string{basePrice, extraDaysRentalPrice, insuranceFee} {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return core.Pricing{}, errors.Join(ErrInvalidPrice, err)
		}

		values[i] = value
	}

	return core.Pricing{BasePrice: values[0], ExtraDaysRentalPrice: values[1], InsuranceFee: values[2]}, nil
}
