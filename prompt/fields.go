package prompt

// InputType tells the form which control renders a field.
type InputType string

const (
	InputText     InputType = "text"
	InputTextArea InputType = "textarea"
	InputCheckbox InputType = "checkbox"
	InputSelect   InputType = "select"
	InputNumber   InputType = "number"
)

// FieldSpec describes one input of a tool form.
type FieldSpec struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Help     string    `json:"help,omitempty"`
	Type     InputType `json:"type"`
	Default  string    `json:"default,omitempty"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
}

var fieldSpecs = map[ToolKind][]FieldSpec{
	RangeBinning: {
		{Name: "field", Label: "Field", Type: InputText, Default: "Age", Required: true,
			Help: "Tableau field to bin, e.g. Sales or [Order Amount]"},
		{Name: "bins", Label: "Bins", Type: InputText, Default: "0-18,19-35,36-60,60+", Required: true,
			Help: "Comma-separated ranges (0-18,19-35) or ascending breakpoints (null, <0, 0, 6, 13)"},
		{Name: "unit", Label: "Display unit", Type: InputText,
			Help: "Appended to every bin label, e.g. days"},
		{Name: "has_null", Label: "Field can be NULL", Type: InputCheckbox, Default: "false"},
	},
	BooleanFlag: {
		{Name: "field", Label: "Field", Type: InputText, Default: "coupon", Required: true},
		{Name: "condition", Label: "Condition", Type: InputText, Default: "> 0",
			Help: "Comparison that makes the flag true"},
		{Name: "true_label", Label: "True label", Type: InputText, Default: "Y"},
		{Name: "false_label", Label: "False label", Type: InputText, Default: "N"},
	},
	CompositeOrderFlag: {
		{Name: "fields", Label: "Fields", Type: InputTextArea, Required: true,
			Default: "Takeaway orders\nDine-in orders",
			Help:    "Two or more fields, one per line"},
		{Name: "handle_null", Label: "Fields can be NULL", Type: InputCheckbox, Default: "true"},
		{Name: "has_negative", Label: "Fields can be negative", Type: InputCheckbox, Default: "true"},
		{Name: "is_value", Label: "Only test presence (ISNULL)", Type: InputCheckbox, Default: "true"},
		{Name: "is_yn", Label: "Fields hold Y/N", Type: InputCheckbox, Default: "false"},
		{Name: "prefix", Label: "Label prefix", Type: InputText},
		{Name: "suffix", Label: "Label suffix", Type: InputText},
	},
	DateRangeFilter: {
		{Name: "date_field", Label: "Date field", Type: InputText, Default: "local_date", Required: true},
		{Name: "reference_date", Label: "Reference date", Type: InputText, Default: "[Parameters].[data_time]", Required: true,
			Help: "Field or parameter to compare against"},
		{Name: "range_value", Label: "Range", Type: InputNumber, Default: "30"},
		{Name: "range_unit", Label: "Unit", Type: InputSelect, Default: "day",
			Options: []string{"day", "week", "month", "quarter", "year"}},
		{Name: "include_equal", Label: "Include boundary (<=)", Type: InputCheckbox, Default: "true"},
		{Name: "true_label", Label: "Inside label", Type: InputText, Default: "Y"},
		{Name: "false_label", Label: "Outside label", Type: InputText, Default: "N"},
	},
	PresenceFlag: {
		{Name: "field", Label: "Field", Type: InputText, Default: "Coupon", Required: true},
		{Name: "label", Label: "Label", Type: InputText,
			Help: "Rendered as 有label / 無label; defaults to the field name"},
		{Name: "condition_type", Label: "Present when", Type: InputSelect, Default: "greater_than_zero",
			Options: []string{"greater_than_zero", "not_null", "not_empty", "true"}},
	},
}

// Fields returns the form inputs of kind.
func Fields(kind ToolKind) []FieldSpec {
	return append([]FieldSpec(nil), fieldSpecs[kind]...)
}
