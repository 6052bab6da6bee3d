// Package explore builds the schema-discovery and field-combination SQL used
// to inspect a table before writing Tableau calculations against it.
package explore

import (
	"fmt"
	"strings"

	llmprovider "github.com/haowjy/tableau-toolbox-go"
)

// Dialect identifies the SQL flavour of the connected database.
type Dialect string

const (
	Postgres Dialect = "postgres"
	Redshift Dialect = "redshift"
	MySQL    Dialect = "mysql"
)

// Dialects lists the supported dialects in selector order.
func Dialects() []Dialect {
	return []Dialect{Redshift, Postgres, MySQL}
}

// ParseDialect accepts the display names ("PostgreSQL", "Redshift", "MySQL")
// and the short forms case-insensitively.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "redshift":
		return Redshift, nil
	case "mysql":
		return MySQL, nil
	}
	names := make([]string, 0, len(Dialects()))
	for _, d := range Dialects() {
		names = append(names, d.DisplayName())
	}
	return "", &llmprovider.ValidationError{
		Field:  "dialect",
		Value:  s,
		Reason: "unsupported database dialect (valid: " + strings.Join(names, ", ") + ")",
		Err:    llmprovider.ErrInvalidRequest,
	}
}

// DisplayName returns the name shown in the UI.
func (d Dialect) DisplayName() string {
	switch d {
	case Postgres:
		return "PostgreSQL"
	case Redshift:
		return "Redshift"
	case MySQL:
		return "MySQL"
	}
	return string(d)
}

// driverName returns the database/sql driver registered for d.
func (d Dialect) driverName() string {
	if d == MySQL {
		return "mysql"
	}
	return "pgx"
}

// quote wraps an identifier in the dialect's quote characters.
func (d Dialect) quote(ident string) string {
	if d == MySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// placeholders returns the two bind placeholders for schema and object name.
func (d Dialect) placeholders() (string, string) {
	if d == MySQL {
		return "?", "?"
	}
	return "$1", "$2"
}

// ObjectType distinguishes tables from views; Redshift reads their columns
// from different catalogs.
type ObjectType string

const (
	Table ObjectType = "TABLE"
	View  ObjectType = "VIEW"
)

// ParseObjectType accepts "table" or "view" in any case.
func ParseObjectType(s string) (ObjectType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TABLE":
		return Table, nil
	case "VIEW":
		return View, nil
	}
	return "", &llmprovider.ValidationError{
		Field:  "object_type",
		Value:  s,
		Reason: fmt.Sprintf("must be %s or %s", Table, View),
		Err:    llmprovider.ErrInvalidRequest,
	}
}

// DateGrain is the truncation applied to datetime columns before grouping.
type DateGrain string

const (
	GrainNone  DateGrain = ""
	GrainDay   DateGrain = "day"
	GrainWeek  DateGrain = "week"
	GrainMonth DateGrain = "month"
	GrainYear  DateGrain = "year"
)

// ParseDateGrain accepts day, week, month or year. An empty string means no truncation.
func ParseDateGrain(s string) (DateGrain, error) {
	g := DateGrain(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GrainNone, GrainDay, GrainWeek, GrainMonth, GrainYear:
		return g, nil
	}
	return "", &llmprovider.ValidationError{
		Field:  "date_grain",
		Value:  s,
		Reason: "must be day, week, month or year",
		Err:    llmprovider.ErrInvalidRequest,
	}
}

// truncate returns the dialect expression truncating col to grain.
func (d Dialect) truncate(col string, grain DateGrain) string {
	if d != MySQL {
		return fmt.Sprintf("DATE_TRUNC('%s', %s)", grain, col)
	}
	switch grain {
	case GrainWeek:
		return fmt.Sprintf("DATE(DATE_SUB(%s, INTERVAL WEEKDAY(%s) DAY))", col, col)
	case GrainMonth:
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m-01')", col)
	case GrainYear:
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-01-01')", col)
	default:
		return fmt.Sprintf("DATE(%s)", col)
	}
}

// monthLabel formats col as its YYYY-MM month.
func (d Dialect) monthLabel(col string) string {
	if d == MySQL {
		return "DATE_FORMAT(" + col + ", '%Y-%m')"
	}
	return "TO_CHAR(DATE_TRUNC('month', " + col + "), 'YYYY-MM')"
}

// avg averages col as a floating point value.
func (d Dialect) avg(col string) string {
	if d == MySQL {
		return "AVG(" + col + ")"
	}
	return "AVG(CAST(" + col + " AS DOUBLE PRECISION))"
}
