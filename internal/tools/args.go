package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CustomerNamesArgs arguments of get_customer_names
type CustomerNamesArgs struct {
	N int `json:"n,omitempty" jsonschema:"description=Number of names to show,default=10,minimum=1,maximum=1000"`
}

// TopProductsArgs arguments of get_top_products
type TopProductsArgs struct {
	N int `json:"n,omitempty" jsonschema:"description=Number of top products,default=5,minimum=1,maximum=1000"`
}

// SalesByRegionArgs arguments of get_sales_by_region
type SalesByRegionArgs struct {
	Region string `json:"region" jsonschema:"description=Name of region"`
}

// AveragePriceArgs get_average_price takes no arguments
type AveragePriceArgs struct{}

// SupportTicketArgs arguments of create_support_ticket
type SupportTicketArgs struct {
	Issue string `json:"issue,omitempty" jsonschema:"description=Issue description"`
}

func (CustomerNamesArgs) ToolID() ToolID { return CustomerNames }
func (TopProductsArgs) ToolID() ToolID   { return TopProducts }
func (SalesByRegionArgs) ToolID() ToolID { return SalesByRegion }
func (AveragePriceArgs) ToolID() ToolID  { return AveragePrice }
func (SupportTicketArgs) ToolID() ToolID { return SupportTicket }

func (a CustomerNamesArgs) normalize() (Args, error) {
	n, err := normalizeLimit(a.N, DefaultCustomerNames)
	if err != nil {
		return nil, err
	}
	a.N = n
	return a, nil
}

func (a TopProductsArgs) normalize() (Args, error) {
	n, err := normalizeLimit(a.N, DefaultTopProducts)
	if err != nil {
		return nil, err
	}
	a.N = n
	return a, nil
}

func (a SalesByRegionArgs) normalize() (Args, error) {
	if a.Region == "" {
		return nil, fmt.Errorf("%w: region is required", ErrInvalidArguments)
	}
	return a, nil
}

func (a AveragePriceArgs) normalize() (Args, error) { return a, nil }

func (a SupportTicketArgs) normalize() (Args, error) {
	a.Issue = strings.TrimSpace(a.Issue)
	return a, nil
}

// normalizeLimit maps 0 to the default and clamps to MaxLimit
func normalizeLimit(n, def int) (int, error) {
	switch {
	case n < 0:
		return 0, fmt.Errorf("%w: n must be positive, got %d", ErrInvalidArguments, n)
	case n == 0:
		return def, nil
	case n > MaxLimit:
		return MaxLimit, nil
	default:
		return n, nil
	}
}

// DecodeArgs decodes the model's JSON argument string for tool id.
// An empty string means no arguments.
func DecodeArgs(id ToolID, raw string) (Args, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("%w: %s", ErrMalformedArguments, id)
	}

	switch id {
	case CustomerNames:
		return decodeInto[CustomerNamesArgs](raw)
	case TopProducts:
		return decodeInto[TopProductsArgs](raw)
	case SalesByRegion:
		return decodeInto[SalesByRegionArgs](raw)
	case AveragePrice:
		return decodeInto[AveragePriceArgs](raw)
	case SupportTicket:
		return decodeInto[SupportTicketArgs](raw)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTool, int(id))
	}
}

func decodeInto[T Args](raw string) (Args, error) {
	var args T
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return args.normalize()
}

// prototype returns the zero argument struct used for schema reflection
func prototype(id ToolID) (Args, bool) {
	switch id {
	case CustomerNames:
		return CustomerNamesArgs{}, true
	case TopProducts:
		return TopProductsArgs{}, true
	case SalesByRegion:
		return SalesByRegionArgs{}, true
	case AveragePrice:
		return AveragePriceArgs{}, true
	case SupportTicket:
		return SupportTicketArgs{}, true
	}
	return nil, false
}
