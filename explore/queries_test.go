package explore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmprovider "github.com/haowjy/tableau-toolbox-go"
)

func TestSchemaQuery(t *testing.T) {
	tests := []struct {
		name       string
		dialect    Dialect
		objectType ObjectType
		want       string
	}{
		{
			name:       "redshift table",
			dialect:    Redshift,
			objectType: Table,
			want:       `SELECT "column" AS column_name, type AS data_type FROM pg_table_def WHERE schemaname = $1 AND tablename = $2 ORDER BY "column"`,
		},
		{
			name:       "redshift view",
			dialect:    Redshift,
			objectType: View,
			want:       "SELECT column_name, data_type FROM svv_columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position",
		},
		{
			name:       "postgres view",
			dialect:    Postgres,
			objectType: View,
			want:       "SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 AND table_schema NOT IN ('information_schema', 'pg_catalog') ORDER BY ordinal_position",
		},
		{
			name:       "mysql table",
			dialect:    MySQL,
			objectType: Table,
			want:       "SELECT COLUMN_NAME AS column_name, DATA_TYPE AS data_type FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SchemaQuery(tt.dialect, tt.objectType)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SchemaQuery(Dialect("oracle"), Table)
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)
}

func TestValidateIdentifier(t *testing.T) {
	assert.NoError(t, ValidateIdentifier("schema", "public"))
	assert.NoError(t, ValidateIdentifier("object", "Order_Items_2024"))

	for _, bad := range []string{"", "orders;drop", `a"b`, "a b", "a.b", "訂單"} {
		err := ValidateIdentifier("object", bad)
		var ve *llmprovider.ValidationError
		require.True(t, errors.As(err, &ve), "expected validation error for %q", bad)
		assert.Equal(t, "object", ve.Field)
	}
}

func TestCountQuery(t *testing.T) {
	got, err := CountQuery(Postgres, "public", "orders")
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) AS total_rows FROM "public"."orders"`, got)

	got, err = CountQuery(MySQL, "shop", "orders")
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) AS total_rows FROM `shop`.`orders`", got)

	_, err = CountQuery(Redshift, "public", "orders--")
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)
}

func TestMapDataType(t *testing.T) {
	tests := map[string]string{
		"timestamp without time zone": TypeDatetime,
		"DATE":                        TypeDatetime,
		"bigint":                      TypeNumeric,
		"numeric(18,2)":               TypeNumeric,
		"double precision":            TypeNumeric,
		"character varying(256)":      TypeString,
		"nvarchar":                    TypeString,
		"text":                        TypeString,
		"boolean":                     TypeBoolean,
		"jsonb":                       TypeOther,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapDataType(in), in)
	}
}

func TestCombinationCountQuery(t *testing.T) {
	cols := []CombinationColumn{
		{Name: "region", DataType: "varchar"},
		{Name: "order_date", DataType: "timestamp", Grain: GrainMonth},
	}

	got, err := CombinationCountQuery(Postgres, "public", "orders", cols)
	require.NoError(t, err)
	assert.Equal(t, `SELECT
    "region",
    DATE_TRUNC('month', "order_date") AS "order_date_month",
    COUNT(*) AS count
FROM
    "public"."orders"
GROUP BY
    "region",
    DATE_TRUNC('month', "order_date")
ORDER BY
    count DESC`, got)

	got, err = CombinationCountQuery(MySQL, "shop", "orders", cols)
	require.NoError(t, err)
	assert.Contains(t, got, "DATE_FORMAT(`order_date`, '%Y-%m-01') AS `order_date_month`")
	assert.Contains(t, got, "FROM\n    `shop`.`orders`")
}

func TestCombinationCountQueryMySQLGrains(t *testing.T) {
	tests := map[DateGrain]string{
		GrainDay:   "DATE(`d`)",
		GrainWeek:  "DATE(DATE_SUB(`d`, INTERVAL WEEKDAY(`d`) DAY))",
		GrainMonth: "DATE_FORMAT(`d`, '%Y-%m-01')",
		GrainYear:  "DATE_FORMAT(`d`, '%Y-01-01')",
	}
	for grain, want := range tests {
		got, err := CombinationCountQuery(MySQL, "s", "t", []CombinationColumn{{Name: "d", DataType: "datetime", Grain: grain}})
		require.NoError(t, err)
		assert.Contains(t, got, want+" AS `d_"+string(grain)+"`")
	}
}

func TestCombinationCountQueryIgnoresGrainOnNonDates(t *testing.T) {
	got, err := CombinationCountQuery(Redshift, "s", "t", []CombinationColumn{{Name: "qty", DataType: "integer", Grain: GrainDay}})
	require.NoError(t, err)
	assert.NotContains(t, got, "DATE_TRUNC")
	assert.Contains(t, got, `GROUP BY
    "qty"`)
}

func TestCombinationCountQueryValidation(t *testing.T) {
	_, err := CombinationCountQuery(Postgres, "s", "t", nil)
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)

	_, err = CombinationCountQuery(Postgres, "s", "t", []CombinationColumn{{Name: `x"; --`}})
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)
}

func TestCombinationCountQueryRejectsUnknownGrain(t *testing.T) {
	for _, d := range Dialects() {
		t.Run(string(d), func(t *testing.T) {
			got, err := CombinationCountQuery(d, "public", "orders", []CombinationColumn{
				{Name: "created_at", DataType: "timestamp", Grain: "day', now()) AS x FROM pg_user; --"},
			})
			var ve *llmprovider.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "date_grain", ve.Field)
			assert.Empty(t, got)
		})
	}

	// unknown grains are rejected even where the column is not a date
	_, err := CombinationCountQuery(Postgres, "s", "t", []CombinationColumn{{Name: "qty", DataType: "integer", Grain: "quarter"}})
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)
}

func TestCombinationCountQueryNormalizesGrain(t *testing.T) {
	got, err := CombinationCountQuery(Postgres, "s", "t", []CombinationColumn{{Name: "d", DataType: "date", Grain: " Month "}})
	require.NoError(t, err)
	assert.Contains(t, got, `DATE_TRUNC('month', "d") AS "d_month"`)
}

func TestParseHelpers(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = ParseDialect("redshift")
	require.NoError(t, err)
	assert.Equal(t, Redshift, d)

	_, err = ParseDialect("sqlite")
	assert.ErrorContains(t, err, "valid: Redshift, PostgreSQL, MySQL")

	ot, err := ParseObjectType("view")
	require.NoError(t, err)
	assert.Equal(t, View, ot)

	ot, err = ParseObjectType("")
	require.NoError(t, err)
	assert.Equal(t, Table, ot)

	g, err := ParseDateGrain("Week")
	require.NoError(t, err)
	assert.Equal(t, GrainWeek, g)

	_, err = ParseDateGrain("quarter")
	assert.Error(t, err)
}
