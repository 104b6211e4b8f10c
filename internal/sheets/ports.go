package sheets

import (
	"context"

	"finsync/internal/core"
)

// TransactionWriter is the outbound port the sync worker appends through.
type TransactionWriter interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
