package explore

import (
	"fmt"
	"strings"

	llmprovider "github.com/haowjy/tableau-toolbox-go"
)

// Type categories returned by MapDataType.
const (
	TypeDatetime = "datetime"
	TypeNumeric  = "numeric"
	TypeString   = "string"
	TypeBoolean  = "boolean"
	TypeOther    = "other"
)

// SchemaQuery returns the column-listing query for an object in dialect d.
// The query takes two bind arguments: schema name then object name.
func SchemaQuery(d Dialect, objectType ObjectType) (string, error) {
	p1, p2 := d.placeholders()
	switch d {
	case Redshift:
		if objectType == View {
			return fmt.Sprintf("SELECT column_name, data_type FROM svv_columns WHERE table_schema = %s AND table_name = %s ORDER BY ordinal_position", p1, p2), nil
		}
		return fmt.Sprintf(`SELECT "column" AS column_name, type AS data_type FROM pg_table_def WHERE schemaname = %s AND tablename = %s ORDER BY "column"`, p1, p2), nil
	case Postgres:
		return fmt.Sprintf("SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = %s AND table_name = %s AND table_schema NOT IN ('information_schema', 'pg_catalog') ORDER BY ordinal_position", p1, p2), nil
	case MySQL:
		return fmt.Sprintf("SELECT COLUMN_NAME AS column_name, DATA_TYPE AS data_type FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = %s AND TABLE_NAME = %s ORDER BY ORDINAL_POSITION", p1, p2), nil
	}
	return "", &llmprovider.ValidationError{Field: "dialect", Value: d, Reason: "unsupported database dialect", Err: llmprovider.ErrInvalidRequest}
}

// ValidateIdentifier rejects names that are empty or contain anything other
// than ASCII letters, digits and underscores. Identifiers are interpolated
// into SQL unescaped.
func ValidateIdentifier(field, name string) error {
	if name == "" {
		return &llmprovider.ValidationError{Field: field, Value: name, Reason: "is required", Err: llmprovider.ErrInvalidRequest}
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return &llmprovider.ValidationError{
				Field:  field,
				Value:  name,
				Reason: "may only contain letters, digits and underscores",
				Err:    llmprovider.ErrInvalidRequest,
			}
		}
	}
	return nil
}

// qualifiedName returns the quoted schema.object reference.
func qualifiedName(d Dialect, schema, object string) (string, error) {
	if err := ValidateIdentifier("schema", schema); err != nil {
		return "", err
	}
	if err := ValidateIdentifier("object", object); err != nil {
		return "", err
	}
	return d.quote(schema) + "." + d.quote(object), nil
}

// CountQuery returns the total-row-count query for schema.object.
func CountQuery(d Dialect, schema, object string) (string, error) {
	name, err := qualifiedName(d, schema, object)
	if err != nil {
		return "", err
	}
	return "SELECT COUNT(*) AS total_rows FROM " + name, nil
}

// MapDataType folds a database type name into one of the Type* categories.
func MapDataType(dataType string) string {
	t := strings.ToLower(dataType)
	switch {
	case containsAny(t, "timestamp", "date", "time"):
		return TypeDatetime
	case containsAny(t, "int", "numeric", "decimal", "float", "double", "real", "long"):
		return TypeNumeric
	case containsAny(t, "char", "text", "string"):
		return TypeString
	case strings.Contains(t, "bool"):
		return TypeBoolean
	}
	return TypeOther
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// CombinationColumn is one grouping column. Grain truncates datetime columns;
// it is ignored for other types.
type CombinationColumn struct {
	Name     string    `json:"name"`
	DataType string    `json:"data_type,omitempty"`
	Grain    DateGrain `json:"grain,omitempty"`
}

// CombinationCountQuery returns the query counting rows per distinct
// combination of columns, most frequent first.
func CombinationCountQuery(d Dialect, schema, object string, columns []CombinationColumn) (string, error) {
	name, err := qualifiedName(d, schema, object)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", &llmprovider.ValidationError{Field: "columns", Value: columns, Reason: "select at least one column", Err: llmprovider.ErrInvalidRequest}
	}

	selects := make([]string, 0, len(columns)+1)
	groups := make([]string, 0, len(columns))
	for _, col := range columns {
		if err := ValidateIdentifier("column", col.Name); err != nil {
			return "", err
		}
		grain, err := ParseDateGrain(string(col.Grain))
		if err != nil {
			return "", err
		}
		quoted := d.quote(col.Name)
		if grain != GrainNone && MapDataType(col.DataType) == TypeDatetime {
			expr := d.truncate(quoted, grain)
			selects = append(selects, fmt.Sprintf("%s AS %s", expr, d.quote(col.Name+"_"+string(grain))))
			groups = append(groups, expr)
			continue
		}
		selects = append(selects, quoted)
		groups = append(groups, quoted)
	}
	selects = append(selects, "COUNT(*) AS count")

	return fmt.Sprintf("SELECT\n    %s\nFROM\n    %s\nGROUP BY\n    %s\nORDER BY\n    count DESC",
		strings.Join(selects, ",\n    "),
		name,
		strings.Join(groups, ",\n    "),
	), nil
}
