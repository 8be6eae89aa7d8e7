package tools

import (
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

var toolDescriptions = map[ToolID]string{
	CustomerNames: "Return a list of customer names.",
	TopProducts:   "Show top products by sales.",
	SalesByRegion: "Get total sales for a region.",
	AveragePrice:  "Get average sale price.",
	SupportTicket: "Create a support ticket for a user issue.",
}

var reflector = &jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
}

// Describe reflects the descriptor of a built-in tool from its argument struct.
// json and jsonschema tags carry names, types, descriptions, defaults and
// required flags.
func Describe(id ToolID) (Descriptor, error) {
	proto, ok := prototype(id)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %d", ErrUnknownTool, int(id))
	}

	schema := reflector.Reflect(proto)

	desc := Descriptor{
		ID:          id,
		Name:        id.String(),
		Description: toolDescriptions[id],
		Parameters:  []ParameterDef{},
	}

	if schema.Properties == nil {
		return desc, nil
	}

	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		param := ParameterDef{
			Name:        pair.Key,
			Type:        prop.Type,
			Description: prop.Description,
			Required:    slices.Contains(schema.Required, pair.Key),
			Default:     prop.Default,
		}
		if prop.Minimum != "" {
			param.Minimum = prop.Minimum
		}
		if prop.Maximum != "" {
			param.Maximum = prop.Maximum
		}
		desc.Parameters = append(desc.Parameters, param)
	}

	return desc, nil
}
