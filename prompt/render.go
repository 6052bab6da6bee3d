// Package prompt renders the instruction text sent to the model for each
// toolbox tool. Rendering is pure: identical inputs give identical output.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/formula"
)

// Sampling temperatures used by the SQL helper prompts.
const (
	ColumnMeaningTemperature = 0.1
	RelationsTemperature     = 0.5
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"quote": strconv.Quote,
	"inc":   func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/*.tmpl"))

// Render builds the prompt for kind from the submitted form fields.
// Field names are embedded as bracketed Tableau references and free-text
// values as double-quoted literals, so quotes or newlines in user input
// cannot end the instruction early.
func Render(kind ToolKind, fields map[string]string) (string, error) {
	var (
		data any
		err  error
	)
	switch kind {
	case RangeBinning:
		data, err = rangeBinningData(fields)
	case BooleanFlag:
		data, err = booleanFlagData(fields)
	case CompositeOrderFlag:
		data, err = compositeOrderData(fields)
	case DateRangeFilter:
		data, err = dateRangeData(fields)
	case PresenceFlag:
		data, err = presenceData(fields)
	default:
		parsed, perr := ParseToolKind(string(kind))
		if perr != nil {
			return "", perr
		}
		return Render(parsed, fields)
	}
	if err != nil {
		return "", err
	}
	return execute(string(kind), data)
}

// Column is one column passed to the relations prompt.
type Column struct {
	Name     string
	DataType string
}

// ColumnMeaning asks for the business meaning of a database column name.
func ColumnMeaning(column string) (string, error) {
	if strings.TrimSpace(column) == "" {
		return "", missing("column")
	}
	return execute("column_meaning", struct{ Column string }{strings.TrimSpace(column)})
}

// Relations asks which columns of a table or view are likely related.
func Relations(objectType string, columns []Column) (string, error) {
	if len(columns) == 0 {
		return "", invalid("columns", columns, "at least one column is required")
	}
	if objectType == "" {
		objectType = "TABLE"
	}
	return execute("relations", struct {
		ObjectType string
		Columns    []Column
	}{objectType, columns})
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

func value(fields map[string]string, name string) string {
	return strings.TrimSpace(fields[name])
}

func requiredValue(fields map[string]string, name string) (string, error) {
	v := value(fields, name)
	if v == "" {
		return "", missing(name)
	}
	return v, nil
}

func withDefault(fields map[string]string, name, def string) string {
	if v := value(fields, name); v != "" {
		return v
	}
	return def
}

func missing(field string) error {
	return invalid(field, "", field+" is required")
}

func invalid(field string, v any, reason string) error {
	return &llmprovider.ValidationError{Field: field, Value: v, Reason: reason, Err: llmprovider.ErrInvalidRequest}
}

type rangeBinning struct {
	Field       string
	Bins        []string
	Breakpoints bool
	Unit        string
	HasNull     bool
}

func rangeBinningData(fields map[string]string) (*rangeBinning, error) {
	field, err := requiredValue(fields, "field")
	if err != nil {
		return nil, err
	}
	raw, err := requiredValue(fields, "bins")
	if err != nil {
		return nil, err
	}

	bins := formula.SplitList(raw)
	breakpoints := formula.IsBreakpointList(bins)
	if breakpoints {
		if _, err := formula.ValidateBreakpoints(raw); err != nil {
			return nil, err
		}
	}

	return &rangeBinning{
		Field:       formula.FieldRef(field),
		Bins:        bins,
		Breakpoints: breakpoints,
		Unit:        value(fields, "unit"),
		HasNull:     formula.ParseBool(fields["has_null"], false),
	}, nil
}

type booleanFlag struct {
	Field      string
	Condition  string
	TrueLabel  string
	FalseLabel string
}

func booleanFlagData(fields map[string]string) (*booleanFlag, error) {
	field, err := requiredValue(fields, "field")
	if err != nil {
		return nil, err
	}
	return &booleanFlag{
		Field:      formula.FieldRef(field),
		Condition:  withDefault(fields, "condition", "> 0"),
		TrueLabel:  withDefault(fields, "true_label", "Y"),
		FalseLabel: withDefault(fields, "false_label", "N"),
	}, nil
}

type compositeOrder struct {
	Fields      []string
	HandleNull  bool
	HasNegative bool
	IsValue     bool
	IsYN        bool
	OnePattern  string
	ManyPattern string
}

func compositeOrderData(fields map[string]string) (*compositeOrder, error) {
	raw, err := requiredValue(fields, "fields")
	if err != nil {
		return nil, err
	}
	names := formula.SplitList(raw)
	if len(names) < 2 {
		return nil, invalid("fields", raw, "at least two fields are required")
	}

	refs := make([]string, len(names))
	for i, n := range names {
		refs[i] = formula.FieldRef(n)
	}

	prefix, suffix := value(fields, "prefix"), value(fields, "suffix")
	return &compositeOrder{
		Fields:      refs,
		HandleNull:  formula.ParseBool(fields["handle_null"], true),
		HasNegative: formula.ParseBool(fields["has_negative"], true),
		IsValue:     formula.ParseBool(fields["is_value"], true),
		IsYN:        formula.ParseBool(fields["is_yn"], false),
		OnePattern:  prefix + "only <field>" + suffix,
		ManyPattern: prefix + "only <field1>/<field2>" + suffix,
	}, nil
}

type dateRange struct {
	DateField     string
	ReferenceDate string
	RangeValue    int
	RangeUnit     string
	Operator      string
	TrueLabel     string
	FalseLabel    string
}

func dateRangeData(fields map[string]string) (*dateRange, error) {
	dateField, err := requiredValue(fields, "date_field")
	if err != nil {
		return nil, err
	}
	reference, err := requiredValue(fields, "reference_date")
	if err != nil {
		return nil, err
	}

	n, err := formula.ParseInt("range_value", fields["range_value"], 30)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, invalid("range_value", n, "must be at least 1")
	}

	unit := strings.ToLower(withDefault(fields, "range_unit", "day"))
	known := false
	for _, u := range formula.DateUnits {
		known = known || u == unit
	}
	if !known {
		return nil, invalid("range_unit", unit, "must be one of "+strings.Join(formula.DateUnits, ", "))
	}

	operator := "<"
	if formula.ParseBool(fields["include_equal"], true) {
		operator = "<="
	}

	return &dateRange{
		DateField:     formula.FieldRef(dateField),
		ReferenceDate: formula.FieldRef(reference),
		RangeValue:    n,
		RangeUnit:     unit,
		Operator:      operator,
		TrueLabel:     withDefault(fields, "true_label", "Y"),
		FalseLabel:    withDefault(fields, "false_label", "N"),
	}, nil
}

type presence struct {
	Field       string
	Condition   string
	HasLabel    string
	HasNotLabel string
}

func presenceData(fields map[string]string) (*presence, error) {
	field, err := requiredValue(fields, "field")
	if err != nil {
		return nil, err
	}
	ct, err := formula.ParseConditionType(fields["condition_type"])
	if err != nil {
		return nil, err
	}

	label := strings.TrimPrefix(value(fields, "label"), "有")
	if label == "" {
		label = strings.NewReplacer("[", "", "]", "").Replace(field)
	}

	ref := formula.FieldRef(field)
	return &presence{
		Field:       ref,
		Condition:   formula.Condition(ct, ref),
		HasLabel:    "有" + label,
		HasNotLabel: "無" + label,
	}, nil
}
