package directory

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*Directory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestListingOwner(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery("SELECT seller_id FROM listings").
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows([]string{"seller_id"}).AddRow("seller9"))

	owner, ok, err := d.ListingOwner(context.Background(), "l1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "seller9", owner)
}

func TestListingOwner_Missing(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery("SELECT seller_id FROM listings").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"seller_id"}))

	_, ok, err := d.ListingOwner(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBidderExists(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := d.BidderExists(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
}
