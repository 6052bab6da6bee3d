// Package formula builds Tableau calculated fields locally, without a model
// call, for the tools whose output is fully determined by their inputs.
package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/haowjy/tableau-toolbox-go"
)

// Date units accepted by DATEDIFF.
var DateUnits = []string{"day", "week", "month", "quarter", "year"}

// bracketedRef matches a single bracketed field or a [Source].[Field] pair.
var bracketedRef = regexp.MustCompile(`^\[[^\[\]]+\](\.\[[^\[\]]+\])?$`)

// FieldRef returns name as a Tableau field reference. Input that is exactly
// one bracketed reference (or a parameter reference such as [Parameters].[Date])
// is kept as is; anything else is wrapped, with ] doubled. Line breaks become spaces.
func FieldRef(name string) string {
	name = strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(name))
	if bracketedRef.MatchString(name) {
		return name
	}
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// StringLiteral quotes s as a single-quoted Tableau string.
func StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &llmprovider.ValidationError{Field: field, Value: value, Reason: field + " is required", Err: llmprovider.ErrInvalidRequest}
	}
	return nil
}

func invalid(field string, value any, reason string) error {
	return &llmprovider.ValidationError{Field: field, Value: value, Reason: reason, Err: llmprovider.ErrInvalidRequest}
}

// TagLabel derives the display label of a boolean column: brackets removed,
// one is_/has_ prefix and one _flag/_ind suffix stripped, underscores turned
// into spaces, first letter upper-cased and the rest lower-cased.
func TagLabel(field string) string {
	label := strings.NewReplacer("[", "", "]", "").Replace(strings.TrimSpace(field))

	lower := strings.ToLower(label)
	for _, prefix := range []string{"is_", "has_"} {
		if strings.HasPrefix(lower, prefix) {
			label = label[len(prefix):]
			break
		}
	}
	lower = strings.ToLower(label)
	for _, suffix := range []string{"_flag", "_ind"} {
		if strings.HasSuffix(lower, suffix) {
			label = label[:len(label)-len(suffix)]
			break
		}
	}

	return capitalize(strings.TrimSpace(strings.ReplaceAll(label, "_", " ")))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// BooleanTag returns the 有/無 tag for a numeric column where NULL counts as 0.
func BooleanTag(field string) (string, error) {
	if err := required("field", field); err != nil {
		return "", err
	}

	ref := "[" + strings.NewReplacer("[", "", "]", "").Replace(strings.TrimSpace(field)) + "]"
	label := TagLabel(field)

	var sb strings.Builder
	fmt.Fprintf(&sb, "// 計算欄位名稱：是否有 %s\n", label)
	fmt.Fprintf(&sb, "IIF(IFNULL(%s, 0) > 0, %s, %s)", ref, StringLiteral("有"+label), StringLiteral("無"+label))
	return sb.String(), nil
}

// BooleanTags builds one tag per non-blank field, separated by a blank line.
func BooleanTags(fields []string) (string, error) {
	var out []string
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			continue
		}
		tag, err := BooleanTag(f)
		if err != nil {
			return "", err
		}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return "", invalid("fields", fields, "at least one field name is required")
	}
	return strings.Join(out, "\n\n"), nil
}

// DateRangeOptions configures DateRange.
type DateRangeOptions struct {
	DateField     string
	ReferenceDate string
	RangeValue    int
	RangeUnit     string
	IncludeEqual  bool
	TrueLabel     string
	FalseLabel    string
}

// DateRange returns a flag telling whether DateField lies within RangeValue
// units before ReferenceDate. NULL dates yield the false label.
func DateRange(opts DateRangeOptions) (string, error) {
	if err := required("date_field", opts.DateField); err != nil {
		return "", err
	}
	if err := required("reference_date", opts.ReferenceDate); err != nil {
		return "", err
	}
	if opts.RangeValue < 1 {
		return "", invalid("range_value", opts.RangeValue, "must be at least 1")
	}

	unit := strings.ToLower(strings.TrimSpace(opts.RangeUnit))
	if unit == "" {
		unit = "day"
	}
	if !validUnit(unit) {
		return "", invalid("range_unit", opts.RangeUnit, "must be one of "+strings.Join(DateUnits, ", "))
	}

	trueLabel, falseLabel := opts.TrueLabel, opts.FalseLabel
	if trueLabel == "" {
		trueLabel = "Y"
	}
	if falseLabel == "" {
		falseLabel = "N"
	}

	operator := "<"
	if opts.IncludeEqual {
		operator = "<="
	}

	dateField := FieldRef(opts.DateField)
	reference := FieldRef(opts.ReferenceDate)

	var sb strings.Builder
	fmt.Fprintf(&sb, "// 判斷 %s 是否在 %s 的 %d %s 內\n", dateField, reference, opts.RangeValue, unit)
	fmt.Fprintf(&sb, "IFNULL(IIF(DATEDIFF('%s', %s, %s) %s %d, %s, %s), %s)",
		unit, dateField, reference, operator, opts.RangeValue,
		StringLiteral(trueLabel), StringLiteral(falseLabel), StringLiteral(falseLabel))
	return sb.String(), nil
}

func validUnit(unit string) bool {
	for _, u := range DateUnits {
		if u == unit {
			return true
		}
	}
	return false
}

// ConditionType selects what counts as "present" for Existence.
type ConditionType string

const (
	GreaterThanZero ConditionType = "greater_than_zero"
	NotNull         ConditionType = "not_null"
	NotEmpty        ConditionType = "not_empty"
	IsTrue          ConditionType = "true"
)

// ConditionTypes lists the accepted presence conditions.
var ConditionTypes = []ConditionType{GreaterThanZero, NotNull, NotEmpty, IsTrue}

// ParseConditionType validates a condition name; empty input yields GreaterThanZero.
func ParseConditionType(s string) (ConditionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GreaterThanZero, nil
	}
	for _, ct := range ConditionTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	return "", invalid("condition_type", s, "unknown condition type")
}

// Condition renders the Tableau test for ct against an already bracketed field.
func Condition(ct ConditionType, field string) string {
	switch ct {
	case NotNull:
		return fmt.Sprintf("NOT ISNULL(%s)", field)
	case NotEmpty:
		return fmt.Sprintf("NOT ISNULL(%s) AND %s <> ''", field, field)
	case IsTrue:
		return field
	default:
		return fmt.Sprintf("%s > 0", field)
	}
}

// ExistenceOptions configures Existence.
type ExistenceOptions struct {
	Field     string
	Label     string
	Condition ConditionType
}

// Existence returns an IIF labelling rows 有X / 無X, with NULL treated as 無X.
// A leading 有 in the label is dropped. Unknown conditions fall back to > 0.
func Existence(opts ExistenceOptions) (string, error) {
	if err := required("field", opts.Field); err != nil {
		return "", err
	}
	if err := required("label", opts.Label); err != nil {
		return "", err
	}

	field := FieldRef(opts.Field)
	label := strings.TrimPrefix(strings.TrimSpace(opts.Label), "有")

	condition := Condition(opts.Condition, field)
	var explanation string
	switch opts.Condition {
	case NotNull:
		explanation = fmt.Sprintf("// 判斷 %s 是否有值（不為 NULL）", field)
	case NotEmpty:
		explanation = fmt.Sprintf("// 判斷 %s 是否有值且不為空字串", field)
	case IsTrue:
		explanation = fmt.Sprintf("// 判斷 %s 是否為 TRUE", field)
	default:
		explanation = fmt.Sprintf("// 判斷 %s 是否大於 0", field)
	}

	has, hasNot := StringLiteral("有"+label), StringLiteral("無"+label)

	var sb strings.Builder
	sb.WriteString(explanation + "\n")
	fmt.Fprintf(&sb, "// 處理 NULL 值：若結果為 NULL，則視為「無%s」\n", label)
	sb.WriteString("IFNULL(\n")
	fmt.Fprintf(&sb, "    IIF(%s, %s, %s),\n", condition, has, hasNot)
	fmt.Fprintf(&sb, "    %s\n", hasNot)
	sb.WriteString(")")
	return sb.String(), nil
}

// ParseBool reads a form or JSON flag. Empty input yields def.
func ParseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

// ParseInt reads a positive integer, yielding def for empty input.
func ParseInt(field, s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalid(field, s, "must be a whole number")
	}
	return n, nil
}
