package toolbox

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/explore"
	"github.com/haowjy/tableau-toolbox-go/prompt"
)

// SchemaRequest names the object to inspect.
type SchemaRequest struct {
	Schema     string `json:"schema"`
	Object     string `json:"object"`
	ObjectType string `json:"object_type,omitempty"`
}

// SchemaResult lists the columns and row count of an object.
type SchemaResult struct {
	Dialect    explore.Dialect    `json:"dialect"`
	ObjectType explore.ObjectType `json:"object_type"`
	Columns    []explore.Column   `json:"columns"`
	RowCount   int64              `json:"row_count"`
}

// Schema lists the columns of an object and counts its rows.
func (s *Service) Schema(ctx context.Context, req SchemaRequest) (*SchemaResult, error) {
	if err := s.requireExplorer(); err != nil {
		return nil, err
	}
	objectType, err := explore.ParseObjectType(req.ObjectType)
	if err != nil {
		return nil, err
	}

	cols, err := s.explorer.Columns(ctx, req.Schema, req.Object, objectType)
	if err != nil {
		return nil, err
	}
	total, err := s.explorer.RowCount(ctx, req.Schema, req.Object)
	if err != nil {
		return nil, err
	}

	return &SchemaResult{
		Dialect:    s.explorer.Dialect(),
		ObjectType: objectType,
		Columns:    cols,
		RowCount:   total,
	}, nil
}

// CombinationRequest selects the columns to group by. A column with a grain
// but no data type has its type read from the catalog.
type CombinationRequest struct {
	Schema     string                      `json:"schema"`
	Object     string                      `json:"object"`
	ObjectType string                      `json:"object_type,omitempty"`
	Columns    []explore.CombinationColumn `json:"columns"`
}

// Combinations counts rows per distinct combination of the requested columns.
func (s *Service) Combinations(ctx context.Context, req CombinationRequest) (*explore.CombinationResult, error) {
	if err := s.requireExplorer(); err != nil {
		return nil, err
	}

	columns := append([]explore.CombinationColumn(nil), req.Columns...)
	var types map[string]string
	for i, col := range columns {
		if col.Grain == explore.GrainNone || col.DataType != "" {
			continue
		}
		if types == nil {
			var err error
			if types, err = s.columnTypes(ctx, req.Schema, req.Object, req.ObjectType); err != nil {
				return nil, err
			}
		}
		columns[i].DataType = types[col.Name]
	}
	return s.explorer.CombinationCounts(ctx, req.Schema, req.Object, columns)
}

// columnTypes maps each column of schema.object to its database type.
func (s *Service) columnTypes(ctx context.Context, schema, object, objectTypeName string) (map[string]string, error) {
	objectType, err := explore.ParseObjectType(objectTypeName)
	if err != nil {
		return nil, err
	}
	cols, err := s.explorer.Columns(ctx, schema, object, objectType)
	if err != nil {
		return nil, err
	}
	types := make(map[string]string, len(cols))
	for _, c := range cols {
		types[c.Name] = c.DataType
	}
	return types, nil
}

// ProfileRequest names the column to profile. DataType may be left empty,
// in which case it is read from the catalog.
type ProfileRequest struct {
	Schema     string `json:"schema"`
	Object     string `json:"object"`
	ObjectType string `json:"object_type,omitempty"`
	Column     string `json:"column"`
	DataType   string `json:"data_type,omitempty"`
}

// Profile summarizes one column according to its type category.
func (s *Service) Profile(ctx context.Context, req ProfileRequest) (*explore.Profile, error) {
	if err := s.requireExplorer(); err != nil {
		return nil, err
	}
	if err := explore.ValidateIdentifier("column", req.Column); err != nil {
		return nil, err
	}

	col := explore.Column{Name: req.Column, DataType: req.DataType}
	if col.DataType == "" {
		types, err := s.columnTypes(ctx, req.Schema, req.Object, req.ObjectType)
		if err != nil {
			return nil, err
		}
		var found bool
		if col.DataType, found = types[req.Column]; !found {
			return nil, &llmprovider.ValidationError{
				Field:  "column",
				Value:  req.Column,
				Reason: "column not found in " + req.Schema + "." + req.Object,
				Err:    llmprovider.ErrInvalidRequest,
			}
		}
	}

	p, err := s.explorer.Profile(ctx, req.Schema, req.Object, col)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("profiled column",
		zap.String("object", req.Schema+"."+req.Object),
		zap.String("column", col.Name),
		zap.String("category", p.Category),
	)
	return p, nil
}

// ColumnMeaning pairs a column with its suggested business meaning.
type ColumnMeaning struct {
	Column  string `json:"column"`
	Meaning string `json:"meaning"`
}

// ColumnMeanings asks provider for the business meaning of each column, one
// request per column, stopping at the first failure.
func (s *Service) ColumnMeanings(ctx context.Context, providerName, model string, columns []string) ([]ColumnMeaning, error) {
	provider, err := llmprovider.ParseProviderID(providerName)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &llmprovider.ValidationError{Field: "columns", Value: columns, Reason: "at least one column is required", Err: llmprovider.ErrInvalidRequest}
	}

	opts := llmprovider.GenerateOptions{
		Model:  strings.TrimSpace(model),
		Params: &llmprovider.RequestParams{Temperature: floatPtr(prompt.ColumnMeaningTemperature)},
	}

	out := make([]ColumnMeaning, 0, len(columns))
	for _, col := range columns {
		text, err := prompt.ColumnMeaning(col)
		if err != nil {
			return nil, err
		}
		res, err := s.gen.GenerateWithOptions(ctx, text, provider, opts)
		if err != nil {
			s.logger.Warn("column meaning failed", zap.String("column", col), zap.Error(err))
			return nil, err
		}
		out = append(out, ColumnMeaning{Column: strings.TrimSpace(col), Meaning: res.Text})
	}
	return out, nil
}

// RelationsRequest carries the columns of one object for a relations suggestion.
type RelationsRequest struct {
	Provider   string           `json:"provider"`
	Model      string           `json:"model,omitempty"`
	ObjectType string           `json:"object_type,omitempty"`
	Columns    []explore.Column `json:"columns"`
}

// Relations asks provider which columns of an object are likely related.
func (s *Service) Relations(ctx context.Context, req RelationsRequest) (*llmprovider.GenerationResult, error) {
	provider, err := llmprovider.ParseProviderID(req.Provider)
	if err != nil {
		return nil, err
	}
	objectType, err := explore.ParseObjectType(req.ObjectType)
	if err != nil {
		return nil, err
	}

	cols := make([]prompt.Column, 0, len(req.Columns))
	for _, c := range req.Columns {
		cols = append(cols, prompt.Column{Name: c.Name, DataType: c.DataType})
	}
	text, err := prompt.Relations(string(objectType), cols)
	if err != nil {
		return nil, err
	}

	return s.gen.GenerateWithOptions(ctx, text, provider, llmprovider.GenerateOptions{
		Model:  strings.TrimSpace(req.Model),
		Params: &llmprovider.RequestParams{Temperature: floatPtr(prompt.RelationsTemperature)},
	})
}

func floatPtr(f float64) *float64 {
	return &f
}
