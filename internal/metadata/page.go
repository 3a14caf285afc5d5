package metadata

import (
	"context"

	"github.com/pitabwire/canonico/model"
)

// Lister fetches canonical records.
type Lister interface {
	List(ctx context.Context) ([]model.Canonico, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.Canonico, error)
}

// PageProvider builds the canonical list page payload.
type PageProvider struct {
	lister Lister
}

// NewPageProvider creates a PageProvider backed by lister.
func NewPageProvider(lister Lister) *PageProvider {
	return &PageProvider{lister: lister}
}

// CanonicoPage loads the records matching status and pairs their display
// rows with the column descriptors. StatusUnset loads every record.
func (p *PageProvider) CanonicoPage(ctx context.Context, status model.Status) (model.CanonicoPage, error) {
	var (
		records []model.Canonico
		err     error
	)
	if status == model.StatusUnset {
		records, err = p.lister.List(ctx)
	} else {
		records, err = p.lister.ListByStatus(ctx, status)
	}
	if err != nil {
		return model.CanonicoPage{}, err
	}

	return model.CanonicoPage{
		List:    PrepareForDisplay(records),
		Columns: CanonicoColumns(),
	}, nil
}
