package explore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"

	llmprovider "github.com/haowjy/tableau-toolbox-go"
)

// Profile limits.
const (
	TopValuesLimit      = 30
	SampleLimit         = 30
	HistogramSampleSize = 10000
	HistogramBins       = 10
)

// ProfileQueryKind selects one of the per-column profiling queries.
type ProfileQueryKind string

const (
	QueryDateRange     ProfileQueryKind = "date_range"
	QueryMonthly       ProfileQueryKind = "monthly"
	QueryNumericStats  ProfileQueryKind = "numeric_stats"
	QueryNumericSample ProfileQueryKind = "numeric_sample"
	QueryDistinctCount ProfileQueryKind = "distinct_count"
	QueryTopValues     ProfileQueryKind = "top_values"
	QuerySample        ProfileQueryKind = "sample"
	QueryValueCounts   ProfileQueryKind = "value_counts"
)

// Bucket is one labelled count in a distribution.
type Bucket struct {
	Label   string  `json:"label"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// Profile summarizes the values of one column. Which fields are set depends
// on Category:
//   - datetime: Min, Max and a monthly distribution in Buckets
//   - numeric: Min, Max, Avg and a histogram in Buckets
//   - string: Distinct plus the top values in Buckets, or a Sample when
//     there are more than TopValuesLimit distinct values
//   - boolean: value counts in Buckets
type Profile struct {
	Column   string   `json:"column"`
	DataType string   `json:"data_type"`
	Category string   `json:"category"`
	Min      string   `json:"min,omitempty"`
	Max      string   `json:"max,omitempty"`
	Avg      *float64 `json:"avg,omitempty"`
	Distinct *int64   `json:"distinct,omitempty"`
	Buckets  []Bucket `json:"buckets,omitempty"`
	Sample   []string `json:"sample,omitempty"`
}

// ProfileQuery returns the profiling query of the given kind for one column
// of schema.object.
func ProfileQuery(d Dialect, schema, object, column string, kind ProfileQueryKind) (string, error) {
	name, err := qualifiedName(d, schema, object)
	if err != nil {
		return "", err
	}
	if err := ValidateIdentifier("column", column); err != nil {
		return "", err
	}
	c := d.quote(column)
	notNull := " WHERE " + c + " IS NOT NULL"

	switch kind {
	case QueryDateRange:
		return "SELECT MIN(" + c + ") AS min_date, MAX(" + c + ") AS max_date FROM " + name, nil
	case QueryMonthly:
		return "SELECT " + d.monthLabel(c) + " AS month_start, COUNT(*) AS count FROM " + name + notNull + " GROUP BY 1 ORDER BY 1", nil
	case QueryNumericStats:
		return "SELECT MIN(" + c + ") AS min_val, MAX(" + c + ") AS max_val, " + d.avg(c) + " AS avg_val FROM " + name + notNull, nil
	case QueryNumericSample:
		return "SELECT " + c + " FROM " + name + notNull + " LIMIT " + strconv.Itoa(HistogramSampleSize), nil
	case QueryDistinctCount:
		return "SELECT COUNT(DISTINCT " + c + ") AS distinct_count FROM " + name, nil
	case QueryTopValues:
		return "SELECT " + c + ", COUNT(*) AS count FROM " + name + notNull + " GROUP BY " + c + " ORDER BY count DESC LIMIT " + strconv.Itoa(TopValuesLimit), nil
	case QuerySample:
		return "SELECT DISTINCT " + c + " FROM " + name + notNull + " LIMIT " + strconv.Itoa(SampleLimit), nil
	case QueryValueCounts:
		return "SELECT " + c + ", COUNT(*) AS count FROM " + name + notNull + " GROUP BY " + c, nil
	}
	return "", &llmprovider.ValidationError{Field: "query", Value: kind, Reason: "unknown profile query", Err: llmprovider.ErrInvalidRequest}
}

// Profile computes the summary for col according to its type category.
func (e *Explorer) Profile(ctx context.Context, schema, object string, col Column) (*Profile, error) {
	p := &Profile{Column: col.Name, DataType: col.DataType, Category: MapDataType(col.DataType)}
	query := func(kind ProfileQueryKind) (string, error) {
		return ProfileQuery(e.dialect, schema, object, col.Name, kind)
	}

	var err error
	switch p.Category {
	case TypeDatetime:
		err = e.profileDatetime(ctx, p, query)
	case TypeNumeric:
		err = e.profileNumeric(ctx, p, query)
	case TypeString:
		err = e.profileString(ctx, p, query)
	case TypeBoolean:
		err = e.profileBoolean(ctx, p, query)
	default:
		return nil, &llmprovider.ValidationError{
			Field:  "column",
			Value:  col.Name,
			Reason: fmt.Sprintf("profiling is not supported for type %q", col.DataType),
			Err:    llmprovider.ErrInvalidRequest,
		}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

type queryFunc func(ProfileQueryKind) (string, error)

func (e *Explorer) profileDatetime(ctx context.Context, p *Profile, query queryFunc) error {
	q, err := query(QueryDateRange)
	if err != nil {
		return err
	}
	var minV, maxV sql.NullString
	if err := e.db.QueryRowContext(ctx, q).Scan(&minV, &maxV); err != nil {
		return fmt.Errorf("date range of %s: %w", p.Column, err)
	}
	p.Min, p.Max = minV.String, maxV.String

	if q, err = query(QueryMonthly); err != nil {
		return err
	}
	p.Buckets, err = e.queryBuckets(ctx, q)
	return err
}

func (e *Explorer) profileNumeric(ctx context.Context, p *Profile, query queryFunc) error {
	q, err := query(QueryNumericStats)
	if err != nil {
		return err
	}
	var (
		minV, maxV sql.NullString
		avg        sql.NullFloat64
	)
	if err := e.db.QueryRowContext(ctx, q).Scan(&minV, &maxV, &avg); err != nil {
		return fmt.Errorf("numeric stats of %s: %w", p.Column, err)
	}
	p.Min, p.Max = minV.String, maxV.String
	if avg.Valid {
		v := round2(avg.Float64)
		p.Avg = &v
	}

	if q, err = query(QueryNumericSample); err != nil {
		return err
	}
	raw, err := e.queryStrings(ctx, q)
	if err != nil {
		return err
	}
	values := make([]float64, 0, len(raw))
	for _, s := range raw {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			values = append(values, v)
		}
	}
	p.Buckets = Histogram(values, HistogramBins)
	return nil
}

func (e *Explorer) profileString(ctx context.Context, p *Profile, query queryFunc) error {
	q, err := query(QueryDistinctCount)
	if err != nil {
		return err
	}
	var distinct int64
	if err := e.db.QueryRowContext(ctx, q).Scan(&distinct); err != nil {
		return fmt.Errorf("distinct count of %s: %w", p.Column, err)
	}
	p.Distinct = &distinct

	switch {
	case distinct == 0:
		return nil
	case distinct <= TopValuesLimit:
		if q, err = query(QueryTopValues); err != nil {
			return err
		}
		p.Buckets, err = e.queryBuckets(ctx, q)
		return err
	default:
		if q, err = query(QuerySample); err != nil {
			return err
		}
		p.Sample, err = e.queryStrings(ctx, q)
		return err
	}
}

func (e *Explorer) profileBoolean(ctx context.Context, p *Profile, query queryFunc) error {
	q, err := query(QueryValueCounts)
	if err != nil {
		return err
	}
	p.Buckets, err = e.queryBuckets(ctx, q)
	return err
}

// queryBuckets reads (label, count) rows and fills in each row's share.
func (e *Explorer) queryBuckets(ctx context.Context, query string) ([]Bucket, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query distribution: %w", err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var (
			label sql.NullString
			b     Bucket
		)
		if err := rows.Scan(&label, &b.Count); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		b.Label = label.String
		if !label.Valid {
			b.Label = "NULL"
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distribution: %w", err)
	}
	setPercents(out)
	return out, nil
}

// queryStrings reads the first column of every row, skipping NULLs.
func (e *Explorer) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query values: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		if v.Valid {
			out = append(out, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values: %w", err)
	}
	return out, nil
}

// Histogram splits values into n equal-width bins over [min, max], the last
// bin closed on the right. A single distinct value gets a unit-wide range
// centred on it. Labels read "lo-hi" with one decimal.
func Histogram(values []float64, n int) []Bucket {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)

	out := make([]Bucket, n)
	for i := range out {
		out[i].Label = fmt.Sprintf("%.1f-%.1f", lo+float64(i)*width, lo+float64(i+1)*width)
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		out[i].Count++
	}
	setPercents(out)
	return out
}

func setPercents(buckets []Bucket) {
	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	if total == 0 {
		return
	}
	for i := range buckets {
		buckets[i].Percent = round2(float64(buckets[i].Count) / float64(total) * 100)
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
