package borrowers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
)

type getterStub struct {
	row   borrowerRow
	err   error
	query string
	args  []any
}

func (g *getterStub) GetContext(_ context.Context, dest any, query string, args ...any) error {
	g.query, g.args = query, args
	if g.err != nil {
		return g.err
	}

	*(dest.(*borrowerRow)) = g.row

	return nil
}

func Test_MemoryDirectory_FindByEmail_IsCaseInsensitive(t *testing.T) {
	// arrange
	borrower := core.Borrower{ID: uuid.New(), Name: "Ada", Email: "Ada@Example.org"}
	directory := NewMemoryDirectory(borrower)

	// act
	found, err := directory.FindByEmail(context.Background(), "  ada@example.ORG ")

	// assert
	require.NoError(t, err)
	assert.Equal(t, borrower, found)
}

func Test_MemoryDirectory_NotFound(t *testing.T) {
	_, err := NewMemoryDirectory().FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, core.ErrBorrowerNotFound)
}

func Test_PostgresDirectory_FindByEmail_LowerCasesInput(t *testing.T) {
	// arrange
	id := uuid.New()
	db := &getterStub{row: borrowerRow{ID: id, Name: "Ada", Email: "ada@example.org"}}
	directory := newPostgresDirectory(db, "")

	// act
	found, err := directory.FindByEmail(context.Background(), "ADA@example.org")

	// assert
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)
	assert.Contains(t, db.query, "lower(email) = $1")
	assert.Contains(t, db.query, `FROM "borrowers"`)
	assert.Contains(t, db.args, "ada@example.org")
}

func Test_PostgresDirectory_MapsNoRowsToNotFound(t *testing.T) {
	// arrange
	directory := newPostgresDirectory(&getterStub{err: sql.ErrNoRows}, "readers")

	// act
	_, err := directory.FindByID(context.Background(), uuid.New())

	// assert
	assert.ErrorIs(t, err, core.ErrBorrowerNotFound)
}
