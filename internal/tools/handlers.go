package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hession/datamate/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handlers executes decoded tool invocations against the dataset
type Handlers struct {
	store       store.Store
	log         zerolog.Logger
	newTicketID func() string
}

// NewHandlers creates handlers over a read-only store
func NewHandlers(s store.Store, log zerolog.Logger) *Handlers {
	return &Handlers{
		store:       s,
		log:         log,
		newTicketID: uuid.NewString,
	}
}

// Invoke runs the tool matching the argument type
func (h *Handlers) Invoke(ctx context.Context, args Args) (Result, error) {
	switch a := args.(type) {
	case CustomerNamesArgs:
		return h.customerNames(ctx, a.N)
	case TopProductsArgs:
		return h.topProducts(ctx, a.N)
	case SalesByRegionArgs:
		return h.salesByRegion(ctx, a.Region)
	case AveragePriceArgs:
		return h.averagePrice(ctx)
	case SupportTicketArgs:
		return h.supportTicket(a.Issue), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTool, args)
	}
}

func (h *Handlers) customerNames(ctx context.Context, n int) ([]string, error) {
	rows, err := h.store.Query(ctx,
		"SELECT Customer FROM "+store.TableName+
			" WHERE Customer IS NOT NULL GROUP BY Customer ORDER BY MIN(rowid) LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

func (h *Handlers) topProducts(ctx context.Context, n int) ([]string, error) {
	rows, err := h.store.Query(ctx,
		"SELECT Product FROM "+store.TableName+
			" WHERE Product IS NOT NULL GROUP BY Product ORDER BY SUM(Total) DESC, MIN(rowid) LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	return firstColumn(rows), nil
}

func (h *Handlers) salesByRegion(ctx context.Context, region string) (map[string]decimal.Decimal, error) {
	rows, err := h.store.Query(ctx,
		"SELECT COALESCE(SUM(Total), 0) FROM "+store.TableName+" WHERE Region = ?", region)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	if len(rows) == 1 && len(rows[0]) == 1 {
		if d, ok := store.Decimal(rows[0][0]); ok {
			total = d
		}
	}
	return map[string]decimal.Decimal{region: total}, nil
}

func (h *Handlers) averagePrice(ctx context.Context) (decimal.NullDecimal, error) {
	rows, err := h.store.Query(ctx, "SELECT AVG(Price) FROM "+store.TableName)
	if err != nil {
		return decimal.NullDecimal{}, err
	}

	if len(rows) == 1 && len(rows[0]) == 1 {
		if d, ok := store.Decimal(rows[0][0]); ok {
			return decimal.NullDecimal{Decimal: d, Valid: true}, nil
		}
	}
	// AVG over an empty table is NULL
	return decimal.NullDecimal{}, nil
}

func (h *Handlers) supportTicket(issue string) string {
	h.log.Info().
		Str("ticket_id", h.newTicketID()).
		Str("issue", issue).
		Msg("support ticket created")
	return TicketAck
}

func firstColumn(rows []store.Row) []string {
	values := make([]string, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			values = append(values, store.Text(r[0]))
		}
	}
	return values
}
