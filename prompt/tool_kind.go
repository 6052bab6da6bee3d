package prompt

import (
	"fmt"
	"strings"

	"github.com/haowjy/tableau-toolbox-go"
)

// ToolKind selects the prompt template.
type ToolKind string

const (
	RangeBinning       ToolKind = "range_binning"
	BooleanFlag        ToolKind = "boolean_flag"
	CompositeOrderFlag ToolKind = "composite_order_flag"
	DateRangeFilter    ToolKind = "date_range_filter"
	PresenceFlag       ToolKind = "presence_flag"
)

var kindOrder = []ToolKind{RangeBinning, BooleanFlag, CompositeOrderFlag, DateRangeFilter, PresenceFlag}

// Kinds lists the tool kinds in selector order.
func Kinds() []ToolKind {
	return append([]ToolKind(nil), kindOrder...)
}

func (k ToolKind) String() string {
	return string(k)
}

// DisplayName returns the label shown in the tool selector.
func (k ToolKind) DisplayName() string {
	switch k {
	case RangeBinning:
		return "Range binning"
	case BooleanFlag:
		return "Boolean flag"
	case CompositeOrderFlag:
		return "Composite order flag"
	case DateRangeFilter:
		return "Date range filter"
	case PresenceFlag:
		return "Presence flag (有/無)"
	default:
		return string(k)
	}
}

// Syntax names the Tableau construct the template asks for.
func (k ToolKind) Syntax() string {
	switch k {
	case RangeBinning:
		return "CASE WHEN"
	case BooleanFlag, PresenceFlag:
		return "IIF"
	case CompositeOrderFlag:
		return "IF / ELSEIF with AND"
	case DateRangeFilter:
		return "DATEDIFF comparison"
	default:
		return ""
	}
}

// ParseToolKind accepts snake_case, kebab-case or CamelCase names.
func ParseToolKind(name string) (ToolKind, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(name))
	for _, k := range kindOrder {
		if strings.ReplaceAll(string(k), "_", "") == norm {
			return k, nil
		}
	}
	return "", &llmprovider.ValidationError{
		Field:  "tool",
		Value:  name,
		Reason: fmt.Sprintf("unknown tool %q", name),
		Err:    llmprovider.ErrInvalidRequest,
	}
}
