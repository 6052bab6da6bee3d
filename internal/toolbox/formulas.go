package toolbox

import (
	"strings"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/formula"
	"github.com/haowjy/tableau-toolbox-go/prompt"
)

// Local formula builders. They produce Tableau syntax without a provider call.
const (
	FormulaBooleanTags = "boolean_tags"
	FormulaDateRange   = "date_range"
	FormulaExistence   = "existence"
)

// FormulaKinds lists the local builders.
func FormulaKinds() []string {
	return []string{FormulaBooleanTags, FormulaDateRange, FormulaExistence}
}

// FormulaInfo describes one local builder for the form UI.
type FormulaInfo struct {
	Kind        string             `json:"kind"`
	DisplayName string             `json:"display_name"`
	Fields      []prompt.FieldSpec `json:"fields"`
}

// Formulas lists the local builders with their form inputs.
func Formulas() []FormulaInfo {
	conditions := make([]string, 0, len(formula.ConditionTypes))
	for _, ct := range formula.ConditionTypes {
		conditions = append(conditions, string(ct))
	}

	return []FormulaInfo{
		{
			Kind:        FormulaBooleanTags,
			DisplayName: "Boolean tags",
			Fields: []prompt.FieldSpec{
				{Name: "fields", Label: "Fields", Type: prompt.InputTextArea, Required: true,
					Default: "is_member\nhas_coupon",
					Help:    "One field per line; is_/has_ prefixes and _flag/_ind suffixes are dropped from labels"},
			},
		},
		{
			Kind:        FormulaDateRange,
			DisplayName: "Date range flag",
			Fields: []prompt.FieldSpec{
				{Name: "date_field", Label: "Date field", Type: prompt.InputText, Default: "local_date", Required: true},
				{Name: "reference_date", Label: "Reference date", Type: prompt.InputText, Default: "[Parameters].[data_time]", Required: true},
				{Name: "range_value", Label: "Range", Type: prompt.InputNumber, Default: "30"},
				{Name: "range_unit", Label: "Unit", Type: prompt.InputSelect, Default: "day", Options: formula.DateUnits},
				{Name: "include_equal", Label: "Include boundary (<=)", Type: prompt.InputCheckbox, Default: "true"},
				{Name: "true_label", Label: "Inside label", Type: prompt.InputText, Default: "Y"},
				{Name: "false_label", Label: "Outside label", Type: prompt.InputText, Default: "N"},
			},
		},
		{
			Kind:        FormulaExistence,
			DisplayName: "Existence check (有/無)",
			Fields: []prompt.FieldSpec{
				{Name: "field", Label: "Field", Type: prompt.InputText, Default: "Coupon", Required: true},
				{Name: "label", Label: "Label", Type: prompt.InputText,
					Help: "Rendered as 有label / 無label; defaults to the field name"},
				{Name: "condition_type", Label: "Present when", Type: prompt.InputSelect,
					Default: string(formula.GreaterThanZero), Options: conditions},
			},
		},
	}
}

// Formula runs the local builder named kind over the submitted fields.
func (s *Service) Formula(kind string, fields map[string]string) (string, error) {
	get := func(name string) string { return strings.TrimSpace(fields[name]) }

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case FormulaBooleanTags:
		return formula.BooleanTags(formula.SplitList(fields["fields"]))

	case FormulaDateRange:
		n, err := formula.ParseInt("range_value", get("range_value"), 30)
		if err != nil {
			return "", err
		}
		return formula.DateRange(formula.DateRangeOptions{
			DateField:     get("date_field"),
			ReferenceDate: get("reference_date"),
			RangeValue:    n,
			RangeUnit:     get("range_unit"),
			IncludeEqual:  formula.ParseBool(get("include_equal"), true),
			TrueLabel:     get("true_label"),
			FalseLabel:    get("false_label"),
		})

	case FormulaExistence:
		ct, err := formula.ParseConditionType(get("condition_type"))
		if err != nil {
			return "", err
		}
		label := get("label")
		if label == "" {
			label = strings.Trim(get("field"), "[]")
		}
		return formula.Existence(formula.ExistenceOptions{
			Field:     get("field"),
			Label:     label,
			Condition: ct,
		})
	}

	return "", &llmprovider.ValidationError{
		Field:  "kind",
		Value:  kind,
		Reason: "unknown formula (valid: " + strings.Join(FormulaKinds(), ", ") + ")",
		Err:    llmprovider.ErrInvalidRequest,
	}
}
