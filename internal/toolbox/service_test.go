package toolbox

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/explore"
	"github.com/haowjy/tableau-toolbox-go/prompt"
)

type call struct {
	prompt   string
	provider llmprovider.ProviderID
	opts     llmprovider.GenerateOptions
}

type fakeGenerator struct {
	mu         sync.Mutex
	calls      []call
	available  []llmprovider.ProviderID
	registered []llmprovider.ProviderID
	registry   *llmprovider.CapabilityRegistry
	respond    func(prompt string) (string, error)
}

func (f *fakeGenerator) GenerateWithOptions(_ context.Context, p string, provider llmprovider.ProviderID, opts llmprovider.GenerateOptions) (*llmprovider.GenerationResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{prompt: p, provider: provider, opts: opts})
	f.mu.Unlock()

	text := "IIF([x] > 0, 'a', 'b')"
	if f.respond != nil {
		var err error
		text, err = f.respond(p)
		if err != nil {
			return nil, err
		}
	}
	model := opts.Model
	if model == "" {
		model = "default-model"
	}
	return &llmprovider.GenerationResult{Text: text, Provider: provider, Model: model, InputTokens: 10, OutputTokens: 5}, nil
}

func (f *fakeGenerator) Available() []llmprovider.ProviderID { return f.available }

func (f *fakeGenerator) Registered() []llmprovider.ProviderID { return f.registered }

func (f *fakeGenerator) Registry() *llmprovider.CapabilityRegistry { return f.registry }

func TestTools(t *testing.T) {
	s := NewService(&fakeGenerator{})

	tools := s.Tools()
	require.Len(t, tools, len(prompt.Kinds()))
	assert.Equal(t, prompt.RangeBinning, tools[0].Kind)
	assert.Equal(t, "CASE WHEN", tools[0].Syntax)
	assert.NotEmpty(t, tools[0].Fields)
}

func TestProviders(t *testing.T) {
	reg, err := llmprovider.NewCapabilityRegistry()
	require.NoError(t, err)

	s := NewService(&fakeGenerator{
		available:  []llmprovider.ProviderID{llmprovider.ProviderGemini, llmprovider.ProviderAnthropic},
		registered: []llmprovider.ProviderID{llmprovider.ProviderOpenAI, llmprovider.ProviderGemini, llmprovider.ProviderAnthropic},
		registry:   reg,
	})

	got := s.Providers()
	require.Len(t, got, 3)
	assert.Equal(t, "OpenAI", got[0].DisplayName)
	assert.False(t, got[0].Available)
	assert.Equal(t, "gpt-4o-mini", got[0].DefaultModel)
	assert.Equal(t, "Gemini", got[1].DisplayName)
	assert.True(t, got[1].Available)
	assert.Equal(t, "gemini-2.0-flash", got[1].DefaultModel)
	assert.Equal(t, "gemini-2.0-flash", got[1].Models[0])
	assert.Equal(t, "Claude", got[2].DisplayName)
	assert.Equal(t, "claude-3-5-haiku-20241022", got[2].DefaultModel)
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewService(gen)

	res, err := s.Generate(context.Background(), Request{
		Tool:     "RangeBinning",
		Provider: "OpenAI",
		Model:    " gpt-4o ",
		Fields:   map[string]string{"field": "Age", "bins": "0-18,19-35,36-60,60+"},
	})
	require.NoError(t, err)

	assert.Equal(t, prompt.RangeBinning, res.Tool)
	assert.Equal(t, llmprovider.ProviderOpenAI, res.Provider)
	assert.Equal(t, "gpt-4o", res.Model)
	assert.Equal(t, "IIF([x] > 0, 'a', 'b')", res.Text)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "gpt-4o", gen.calls[0].opts.Model)
	assert.Contains(t, gen.calls[0].prompt, "[Age]")

	want, err := prompt.Render(prompt.RangeBinning, map[string]string{"field": "Age", "bins": "0-18,19-35,36-60,60+"})
	require.NoError(t, err)
	assert.Equal(t, want, gen.calls[0].prompt)
}

func TestGenerateRejectsBeforeCallingProvider(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		is   error
	}{
		{"unknown provider", Request{Tool: "boolean_flag", Provider: "mistral", Fields: map[string]string{"field": "x"}}, llmprovider.ErrUnknownProvider},
		{"unknown tool", Request{Tool: "pivot", Provider: "gemini"}, llmprovider.ErrInvalidRequest},
		{"missing field", Request{Tool: "presence_flag", Provider: "gemini", Fields: map[string]string{}}, llmprovider.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			_, err := NewService(gen).Generate(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.is)
			assert.Empty(t, gen.calls)
		})
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	providerErr := llmprovider.NewStatusError(llmprovider.ProviderAnthropic, 429, "slow down")
	gen := &fakeGenerator{respond: func(string) (string, error) { return "", providerErr }}

	_, err := NewService(gen).Generate(context.Background(), Request{
		Tool:     "boolean_flag",
		Provider: "Claude",
		Fields:   map[string]string{"field": "Orders"},
	})
	assert.ErrorIs(t, err, llmprovider.ErrRateLimited)
	assert.Len(t, gen.calls, 1)
}

func TestPrompt(t *testing.T) {
	s := NewService(&fakeGenerator{})

	kind, text, err := s.Prompt(Request{Tool: "presence-flag", Fields: map[string]string{"field": "Coupon"}})
	require.NoError(t, err)
	assert.Equal(t, prompt.PresenceFlag, kind)
	assert.Contains(t, text, "[Coupon]")
}

func TestFormula(t *testing.T) {
	s := NewService(&fakeGenerator{})

	got, err := s.Formula("boolean_tags", map[string]string{"fields": "is_vip\nhas_coupon"})
	require.NoError(t, err)
	assert.Contains(t, got, "IIF(IFNULL([is_vip], 0) > 0")
	assert.Contains(t, got, "IIF(IFNULL([has_coupon], 0) > 0")

	got, err = s.Formula("date_range", map[string]string{"date_field": "Order Date", "reference_date": "Today"})
	require.NoError(t, err)
	assert.Contains(t, got, "DATEDIFF('day', [Order Date], [Today]) <= 30")

	got, err = s.Formula("date_range", map[string]string{
		"date_field": "d", "reference_date": "r", "range_value": "2", "range_unit": "month", "include_equal": "false",
	})
	require.NoError(t, err)
	assert.Contains(t, got, "DATEDIFF('month', [d], [r]) < 2")

	got, err = s.Formula("existence", map[string]string{"field": "[Coupon]", "condition_type": "not_null"})
	require.NoError(t, err)
	assert.Contains(t, got, "IIF(NOT ISNULL([Coupon]), '有Coupon', '無Coupon')")

	_, err = s.Formula("date_range", map[string]string{"date_field": "d", "reference_date": "r", "range_value": "abc"})
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)

	_, err = s.Formula("sparkline", nil)
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)
}

func TestExploreDisabled(t *testing.T) {
	s := NewService(&fakeGenerator{})
	assert.False(t, s.ExplorerEnabled())

	_, err := s.Schema(context.Background(), SchemaRequest{Schema: "public", Object: "orders"})
	assert.ErrorIs(t, err, ErrExplorerDisabled)

	_, err = s.Combinations(context.Background(), CombinationRequest{Schema: "public", Object: "orders"})
	assert.ErrorIs(t, err, ErrExplorerDisabled)

	_, err = s.Profile(context.Background(), ProfileRequest{Schema: "public", Object: "orders", Column: "status"})
	assert.ErrorIs(t, err, ErrExplorerDisabled)
}

func TestSchema(t *testing.T) {
	db, mock := newSQLMock(t)
	s := NewService(&fakeGenerator{}, WithExplorer(explore.NewExplorer(db, explore.Redshift)))

	mock.ExpectQuery(regexp.QuoteMeta("FROM svv_columns")).
		WithArgs("analytics", "v_orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).AddRow("order_id", "integer"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) AS total_rows FROM "analytics"."v_orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"total_rows"}).AddRow(int64(42)))

	res, err := s.Schema(context.Background(), SchemaRequest{Schema: "analytics", Object: "v_orders", ObjectType: "view"})
	require.NoError(t, err)
	assert.Equal(t, explore.View, res.ObjectType)
	assert.Equal(t, explore.Redshift, res.Dialect)
	assert.Equal(t, int64(42), res.RowCount)
	assert.Equal(t, []explore.Column{{Name: "order_id", DataType: "integer", Category: explore.TypeNumeric}}, res.Columns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCombinations(t *testing.T) {
	db, mock := newSQLMock(t)
	s := NewService(&fakeGenerator{}, WithExplorer(explore.NewExplorer(db, explore.Postgres)))

	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) AS count`)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("paid", int64(3)).AddRow("open", int64(1)))

	res, err := s.Combinations(context.Background(), CombinationRequest{
		Schema:  "public",
		Object:  "orders",
		Columns: []explore.CombinationColumn{{Name: "status"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
	assert.InDelta(t, 75.0, res.Rows[0].Percent, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileLooksUpDataType(t *testing.T) {
	db, mock := newSQLMock(t)
	s := NewService(&fakeGenerator{}, WithExplorer(explore.NewExplorer(db, explore.Postgres)))

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("order_id", "integer").
			AddRow("is_member", "boolean"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "is_member", COUNT(*) AS count FROM "public"."orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"is_member", "count"}).AddRow("true", int64(1)).AddRow("false", int64(3)))

	p, err := s.Profile(context.Background(), ProfileRequest{Schema: "public", Object: "orders", Column: "is_member"})
	require.NoError(t, err)
	assert.Equal(t, explore.TypeBoolean, p.Category)
	require.Len(t, p.Buckets, 2)
	assert.InDelta(t, 25.0, p.Buckets[0].Percent, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCombinationsLooksUpGrainedTypes(t *testing.T) {
	db, mock := newSQLMock(t)
	s := NewService(&fakeGenerator{}, WithExplorer(explore.NewExplorer(db, explore.Postgres)))

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("status", "text").
			AddRow("created_at", "timestamp with time zone"))
	mock.ExpectQuery(regexp.QuoteMeta(`DATE_TRUNC('month', "created_at") AS "created_at_month"`)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "created_at_month", "count"}).
			AddRow("paid", "2024-01-01", int64(3)))

	res, err := s.Combinations(context.Background(), CombinationRequest{
		Schema: "public",
		Object: "orders",
		Columns: []explore.CombinationColumn{
			{Name: "status"},
			{Name: "created_at", Grain: explore.GrainMonth},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCombinationsWithoutGrainSkipsCatalog(t *testing.T) {
	db, mock := newSQLMock(t)
	s := NewService(&fakeGenerator{}, WithExplorer(explore.NewExplorer(db, explore.Postgres)))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT\n    \"status\",\n    COUNT(*) AS count")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("paid", int64(2)))

	_, err := s.Combinations(context.Background(), CombinationRequest{
		Schema:  "public",
		Object:  "orders",
		Columns: []explore.CombinationColumn{{Name: "status"}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileWithDataType(t *testing.T) {
	db, mock := newSQLMock(t)
	s := NewService(&fakeGenerator{}, WithExplorer(explore.NewExplorer(db, explore.Postgres)))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(DISTINCT "status")`)).
		WillReturnRows(sqlmock.NewRows([]string{"distinct_count"}).AddRow(int64(0)))

	p, err := s.Profile(context.Background(), ProfileRequest{Schema: "public", Object: "orders", Column: "status", DataType: "text"})
	require.NoError(t, err)
	require.NotNil(t, p.Distinct)
	assert.Zero(t, *p.Distinct)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUnknownColumn(t *testing.T) {
	db, mock := newSQLMock(t)
	s := NewService(&fakeGenerator{}, WithExplorer(explore.NewExplorer(db, explore.Postgres)))

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).AddRow("order_id", "integer"))

	_, err := s.Profile(context.Background(), ProfileRequest{Schema: "public", Object: "orders", Column: "missing"})
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)

	_, err = s.Profile(context.Background(), ProfileRequest{Schema: "public", Object: "orders", Column: "a b"})
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnMeanings(t *testing.T) {
	gen := &fakeGenerator{respond: func(p string) (string, error) {
		switch {
		case strings.Contains(p, `"cust_id"`):
			return "客戶編號", nil
		case strings.Contains(p, `"ord_dt"`):
			return "訂單日期", nil
		}
		return "?", nil
	}}
	s := NewService(gen)

	got, err := s.ColumnMeanings(context.Background(), "gemini", "", []string{"cust_id", "ord_dt"})
	require.NoError(t, err)
	assert.Equal(t, []ColumnMeaning{{"cust_id", "客戶編號"}, {"ord_dt", "訂單日期"}}, got)

	require.Len(t, gen.calls, 2)
	for _, c := range gen.calls {
		require.NotNil(t, c.opts.Params)
		assert.Equal(t, prompt.ColumnMeaningTemperature, *c.opts.Params.Temperature)
	}

	_, err = s.ColumnMeanings(context.Background(), "gemini", "", nil)
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)
}

func TestColumnMeaningsStopsAtFirstFailure(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "", llmprovider.NewStatusError(llmprovider.ProviderOpenAI, 500, "boom")
	}}

	_, err := NewService(gen).ColumnMeanings(context.Background(), "openai", "", []string{"a", "b", "c"})
	assert.ErrorIs(t, err, llmprovider.ErrProviderUnavailable)
	assert.Len(t, gen.calls, 1)
}

func TestRelations(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) { return "order_id 與 customer_id 可能為主外鍵", nil }}
	s := NewService(gen)

	res, err := s.Relations(context.Background(), RelationsRequest{
		Provider: "claude",
		Columns:  []explore.Column{{Name: "order_id", DataType: "integer"}, {Name: "customer_id", DataType: "integer"}},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "order_id")

	require.Len(t, gen.calls, 1)
	assert.Contains(t, gen.calls[0].prompt, "TABLE")
	assert.Contains(t, gen.calls[0].prompt, `"customer_id" (integer)`)
	assert.Equal(t, prompt.RelationsTemperature, *gen.calls[0].opts.Params.Temperature)

	_, err = s.Relations(context.Background(), RelationsRequest{Provider: "claude"})
	assert.ErrorIs(t, err, llmprovider.ErrInvalidRequest)
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
