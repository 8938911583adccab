// Package directory answers the engine's identity questions: who owns a
// listing and whether a bidder account exists. Both are read-only lookups
// against tables owned by the wider marketplace.
package directory

import (
	"context"
	"database/sql"
	"errors"
)

type Directory struct {
	db *sql.DB
}

func New(db *sql.DB) *Directory { return &Directory{db: db} }

// ListingOwner returns the seller id for a listing; ok is false when the
// listing does not exist.
func (d *Directory) ListingOwner(ctx context.Context, listingID string) (owner string, ok bool, err error) {
	err = d.db.QueryRowContext(ctx,
		`SELECT seller_id FROM listings WHERE id = $1`, listingID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return owner, true, nil
}

func (d *Directory) BidderExists(ctx context.Context, bidderID string) (bool, error) {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, bidderID).Scan(&exists)
	return exists, err
}
