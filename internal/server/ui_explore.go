package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/explore"
	"github.com/haowjy/tableau-toolbox-go/formula"
	"github.com/haowjy/tableau-toolbox-go/internal/toolbox"
	"github.com/haowjy/tableau-toolbox-go/prompt"
)

// Actions offered by the exploration form.
const (
	actionSchema       = "schema"
	actionCombinations = "combinations"
	actionProfile      = "profile"
)

var exploreFields = []prompt.FieldSpec{
	{Name: "action", Label: "Action", Type: prompt.InputSelect, Default: actionSchema,
		Options: []string{actionSchema, actionCombinations, actionProfile}},
	{Name: "schema", Label: "Schema", Type: prompt.InputText, Default: "public", Required: true},
	{Name: "object", Label: "Table or view", Type: prompt.InputText, Required: true},
	{Name: "object_type", Label: "Object type", Type: prompt.InputSelect, Default: string(explore.Table),
		Options: []string{string(explore.Table), string(explore.View)}},
	{Name: "column", Label: "Column", Type: prompt.InputText, Help: "Column to profile"},
	{Name: "columns", Label: "Group by", Type: prompt.InputTextArea,
		Help: "One column per line; append :day, :week, :month or :year to truncate a date column"},
}

// runExplore executes the selected action and renders its result as text.
func (s *Server) runExplore(ctx context.Context, values map[string]string) (string, error) {
	get := func(name string) string { return strings.TrimSpace(values[name]) }

	switch get("action") {
	case actionSchema:
		res, err := s.svc.Schema(ctx, toolbox.SchemaRequest{
			Schema:     get("schema"),
			Object:     get("object"),
			ObjectType: get("object_type"),
		})
		if err != nil {
			return "", err
		}
		return formatSchema(get("schema")+"."+get("object"), res), nil

	case actionCombinations:
		res, err := s.svc.Combinations(ctx, toolbox.CombinationRequest{
			Schema:     get("schema"),
			Object:     get("object"),
			ObjectType: get("object_type"),
			Columns:    parseCombinationColumns(values["columns"]),
		})
		if err != nil {
			return "", err
		}
		return formatCombinations(res), nil

	case actionProfile:
		p, err := s.svc.Profile(ctx, toolbox.ProfileRequest{
			Schema:     get("schema"),
			Object:     get("object"),
			ObjectType: get("object_type"),
			Column:     get("column"),
		})
		if err != nil {
			return "", err
		}
		return formatProfile(p), nil
	}

	return "", &llmprovider.ValidationError{
		Field:  "action",
		Value:  values["action"],
		Reason: "unknown action " + strconv.Quote(values["action"]),
		Err:    llmprovider.ErrInvalidRequest,
	}
}

// parseCombinationColumns reads "name" or "name:grain" entries.
func parseCombinationColumns(text string) []explore.CombinationColumn {
	var cols []explore.CombinationColumn
	for _, item := range formula.SplitList(text) {
		name, grain, _ := strings.Cut(item, ":")
		cols = append(cols, explore.CombinationColumn{
			Name:  strings.TrimSpace(name),
			Grain: explore.DateGrain(strings.TrimSpace(grain)),
		})
	}
	return cols
}

func formatSchema(name string, res *toolbox.SchemaResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s): %d rows\n\n", name, res.ObjectType, res.Dialect.DisplayName(), res.RowCount)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "column\ttype\tcategory")
	for _, c := range res.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.DataType, c.Category)
	}
	_ = tw.Flush()
	return b.String()
}

func formatCombinations(res *explore.CombinationResult) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(append(append([]string(nil), res.Columns...), "count", "percent"), "\t"))
	for _, r := range res.Rows {
		cells := append(append([]string(nil), r.Values...),
			strconv.FormatInt(r.Count, 10),
			strconv.FormatFloat(r.Percent, 'f', 2, 64)+"%")
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()

	fmt.Fprintf(&b, "\n%d rows in %d combinations\n\n%s\n", res.Total, len(res.Rows), res.SQL)
	return b.String()
}

func formatProfile(p *explore.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)\n", p.Column, p.DataType, p.Category)
	if p.Min != "" || p.Max != "" {
		fmt.Fprintf(&b, "min: %s\nmax: %s\n", p.Min, p.Max)
	}
	if p.Avg != nil {
		fmt.Fprintf(&b, "avg: %s\n", strconv.FormatFloat(*p.Avg, 'f', 2, 64))
	}
	if p.Distinct != nil {
		fmt.Fprintf(&b, "distinct: %d\n", *p.Distinct)
	}

	if len(p.Buckets) > 0 {
		b.WriteString("\n")
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "value\tcount\tpercent")
		for _, bk := range p.Buckets {
			fmt.Fprintf(tw, "%s\t%d\t%.2f%%\n", bk.Label, bk.Count, bk.Percent)
		}
		_ = tw.Flush()
	}

	if len(p.Sample) > 0 {
		b.WriteString("\nsample:\n")
		for _, v := range p.Sample {
			b.WriteString("  " + v + "\n")
		}
	}
	return b.String()
}
