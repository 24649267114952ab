package items

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shelfmark/shelfmark/pkg/errcodes"
	"github.com/shelfmark/shelfmark/pkg/models"
	"github.com/uptrace/bun"
)

type ListOwnedItemsOptions struct {
	Limit      *int
	Offset     *int
	SeriesName *string

	includeTotal bool
}

type UpdateOwnedItemOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateOwnedItem inserts the item and its editions in one transaction.
func (svc *Service) CreateOwnedItem(ctx context.Context, item *models.OwnedItem) error {
	now := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = item.CreatedAt
	item.Title = strings.TrimSpace(item.Title)

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(item).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		for _, edition := range item.Editions {
			edition.OwnedItemID = item.ID
			if edition.CreatedAt.IsZero() {
				edition.CreatedAt = now
			}
			edition.UpdatedAt = edition.CreatedAt
			_, err := tx.NewInsert().
				Model(edition).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
}

func (svc *Service) RetrieveOwnedItem(ctx context.Context, id int) (*models.OwnedItem, error) {
	item := &models.OwnedItem{}

	err := svc.db.
		NewSelect().
		Model(item).
		Relation("Editions").
		Where("oi.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Owned item")
		}
		return nil, errors.WithStack(err)
	}

	return item, nil
}

func (svc *Service) ListOwnedItems(ctx context.Context, opts ListOwnedItemsOptions) ([]*models.OwnedItem, error) {
	items, _, err := svc.listOwnedItemsWithTotal(ctx, opts)
	return items, err
}

func (svc *Service) ListOwnedItemsWithTotal(ctx context.Context, opts ListOwnedItemsOptions) ([]*models.OwnedItem, int, error) {
	opts.includeTotal = true
	return svc.listOwnedItemsWithTotal(ctx, opts)
}

func (svc *Service) listOwnedItemsWithTotal(ctx context.Context, opts ListOwnedItemsOptions) ([]*models.OwnedItem, int, error) {
	var items []*models.OwnedItem
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&items).
		Relation("Editions").
		Order("oi.title ASC")

	if opts.SeriesName != nil {
		q = q.Where("LOWER(oi.series_name) = LOWER(?)", strings.TrimSpace(*opts.SeriesName))
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return items, total, nil
}

// ItemsForSeriesName returns every owned item declaring the given series
// name, editions included. This is the reconciler's evidence set.
func (svc *Service) ItemsForSeriesName(ctx context.Context, name string) ([]*models.OwnedItem, error) {
	name = strings.TrimSpace(name)
	return svc.ListOwnedItems(ctx, ListOwnedItemsOptions{SeriesName: &name})
}

func (svc *Service) UpdateOwnedItem(ctx context.Context, item *models.OwnedItem, opts UpdateOwnedItemOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	item.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(item).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Owned item")
		}
		return errors.WithStack(err)
	}
	return nil
}

// DeleteOwnedItem soft-deletes an item. Editions are left in place; they are
// only reachable through the item.
func (svc *Service) DeleteOwnedItem(ctx context.Context, itemID int) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.OwnedItem)(nil)).
		Where("id = ?", itemID).
		Exec(ctx)
	return errors.WithStack(err)
}
