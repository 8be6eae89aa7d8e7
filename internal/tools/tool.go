package tools

import (
	"errors"
)

// ToolID identifies one of the fixed data tools
type ToolID int

const (
	CustomerNames ToolID = iota + 1
	TopProducts
	SalesByRegion
	AveragePrice
	SupportTicket
)

var toolNames = map[ToolID]string{
	CustomerNames: "get_customer_names",
	TopProducts:   "get_top_products",
	SalesByRegion: "get_sales_by_region",
	AveragePrice:  "get_average_price",
	SupportTicket: "create_support_ticket",
}

// String returns the wire name the model uses for the tool
func (id ToolID) String() string {
	if name, ok := toolNames[id]; ok {
		return name
	}
	return "unknown"
}

// AllToolIDs returns every tool in registration order
func AllToolIDs() []ToolID {
	return []ToolID{CustomerNames, TopProducts, SalesByRegion, AveragePrice, SupportTicket}
}

const (
	// MaxLimit caps the n argument of list tools
	MaxLimit = 1000

	DefaultCustomerNames = 10
	DefaultTopProducts   = 5

	// TicketAck is returned for every support ticket
	TicketAck = "Your support ticket has been created. Our team will contact you soon."
)

var (
	ErrUnknownTool        = errors.New("unknown tool")
	ErrMalformedArguments = errors.New("malformed tool arguments")
	ErrInvalidArguments   = errors.New("invalid tool arguments")
)

// Args is implemented only by the argument structs of this package
type Args interface {
	ToolID() ToolID
	normalize() (Args, error)
}

// Result is what a tool returns: []string, a scalar, or a one-entry map
type Result = any

// Invocation a decoded tool call, consumed once
type Invocation struct {
	ID   ToolID
	Args Args
}

// ParameterDef parameter definition
type ParameterDef struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string" | "integer" | "number" | "boolean"
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Minimum     any    `json:"minimum,omitempty"`
	Maximum     any    `json:"maximum,omitempty"`
}

// Descriptor metadata the model sees for one tool
type Descriptor struct {
	ID          ToolID         `json:"-"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  []ParameterDef `json:"parameters"`
}
