package server

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/formula"
	"github.com/haowjy/tableau-toolbox-go/internal/toolbox"
	"github.com/haowjy/tableau-toolbox-go/prompt"
)

//go:embed templates/*.html
var templateFS embed.FS

type ui struct {
	page *template.Template
}

func newUI() *ui {
	return &ui{
		page: template.Must(template.New("index.html").Funcs(template.FuncMap{
			"isChecked": func(v string) bool { return formula.ParseBool(v, false) },
		}).ParseFS(templateFS, "templates/index.html")),
	}
}

// formField is one rendered form control with its current value.
type formField struct {
	prompt.FieldSpec
	Value string
}

type pageData struct {
	Providers       []toolbox.ProviderInfo
	Tools           []toolbox.ToolInfo
	Formulas        []toolbox.FormulaInfo
	ExplorerEnabled bool

	// Active is the sidebar entry being shown: a formula kind, "explore",
	// or empty for the provider tools.
	Active   string
	Title    string
	Subtitle string
	Action   string
	Button   string

	Provider toolbox.ProviderInfo
	Tool     toolbox.ToolInfo
	Model    string
	Fields   []formField
	Output   string
	Error    string
	Meta     string
}

func (s *Server) index(c *gin.Context) {
	data := s.pageFor(c.Query("provider"), c.Query("tool"), c.Query("model"))
	setDefaults(data.Fields)
	s.render(c, data)
}

func (s *Server) submit(c *gin.Context) {
	data := s.pageFor(c.PostForm("provider"), c.PostForm("tool"), c.PostForm("model"))
	values := readFields(c, data.Fields)

	req := toolbox.Request{
		Tool:     string(data.Tool.Kind),
		Provider: string(data.Provider.ID),
		Model:    data.Model,
		Fields:   values,
	}

	start := time.Now()
	res, err := s.runGenerate(c, req)
	if err != nil {
		s.logger.Info("ui generation failed", zap.String("tool", req.Tool), zap.Error(err))
		data.Error = pageMessage(err)
	} else {
		data.Output = res.Text
		data.Meta = res.Provider.DisplayName() + " · " + res.Model + " · " + time.Since(start).Round(time.Millisecond).String()
	}
	s.render(c, data)
}

func (s *Server) formulaPage(c *gin.Context) {
	data, ok := s.formulaPageFor(c.Param("kind"))
	if !ok {
		c.String(http.StatusNotFound, "unknown formula %q", c.Param("kind"))
		return
	}
	setDefaults(data.Fields)
	s.render(c, data)
}

func (s *Server) submitFormula(c *gin.Context) {
	data, ok := s.formulaPageFor(c.Param("kind"))
	if !ok {
		c.String(http.StatusNotFound, "unknown formula %q", c.Param("kind"))
		return
	}

	out, err := s.svc.Formula(data.Active, readFields(c, data.Fields))
	if err != nil {
		s.logger.Info("ui formula failed", zap.String("formula", data.Active), zap.Error(err))
		data.Error = pageMessage(err)
	} else {
		data.Output = out
	}
	s.render(c, data)
}

func (s *Server) explorePage(c *gin.Context) {
	data := s.explorePageData()
	setDefaults(data.Fields)
	s.render(c, data)
}

func (s *Server) submitExplore(c *gin.Context) {
	data := s.explorePageData()
	values := readFields(c, data.Fields)

	start := time.Now()
	out, err := s.runExplore(c.Request.Context(), values)
	if err != nil {
		s.logger.Info("ui exploration failed", zap.String("action", values["action"]), zap.Error(err))
		data.Error = pageMessage(err)
	} else {
		data.Output = out
		data.Meta = values["action"] + " · " + time.Since(start).Round(time.Millisecond).String()
	}
	s.render(c, data)
}

// basePage fills the sidebar shared by every page.
func (s *Server) basePage() pageData {
	return pageData{
		Providers:       s.svc.Providers(),
		Tools:           s.svc.Tools(),
		Formulas:        toolbox.Formulas(),
		ExplorerEnabled: s.svc.ExplorerEnabled(),
	}
}

func (s *Server) formulaPageFor(kind string) (pageData, bool) {
	data := s.basePage()
	for _, f := range data.Formulas {
		if f.Kind != kind {
			continue
		}
		data.Active = f.Kind
		data.Title = f.DisplayName
		data.Subtitle = "Built locally, no provider call."
		data.Action = "/formulas/" + f.Kind
		data.Button = "Build"
		data.Fields = newFormFields(f.Fields)
		return data, true
	}
	return data, false
}

func (s *Server) explorePageData() pageData {
	data := s.basePage()
	data.Active = "explore"
	data.Title = "SQL exploration"
	data.Subtitle = "Inspect a table before writing calculated fields."
	if !data.ExplorerEnabled {
		data.Subtitle = "Database exploration is disabled. Set DATABASE_URL and restart."
	}
	data.Action = "/explore"
	data.Button = "Run"
	data.Fields = newFormFields(exploreFields)
	return data
}

// pageFor resolves the selected provider, tool and model, falling back to
// the first entry of each selector.
func (s *Server) pageFor(providerName, toolName, model string) pageData {
	data := s.basePage()
	data.Model = model

	if len(data.Providers) > 0 {
		data.Provider = data.Providers[0]
		if id, err := llmprovider.ParseProviderID(providerName); err == nil {
			for _, p := range data.Providers {
				if p.ID == id {
					data.Provider = p
					break
				}
			}
		}
	}

	data.Tool = data.Tools[0]
	if kind, err := prompt.ParseToolKind(toolName); err == nil {
		for _, t := range data.Tools {
			if t.Kind == kind {
				data.Tool = t
				break
			}
		}
	}

	if data.Model == "" {
		data.Model = data.Provider.DefaultModel
	}

	data.Title = data.Tool.DisplayName
	data.Subtitle = "Generates Tableau " + data.Tool.Syntax + " syntax."
	data.Action = "/"
	data.Button = "Generate"
	data.Fields = newFormFields(data.Tool.Fields)
	return data
}

func newFormFields(specs []prompt.FieldSpec) []formField {
	fields := make([]formField, 0, len(specs))
	for _, f := range specs {
		fields = append(fields, formField{FieldSpec: f})
	}
	return fields
}

func setDefaults(fields []formField) {
	for i, f := range fields {
		fields[i].Value = f.Default
	}
}

// readFields copies the posted values into fields and returns them by name.
func readFields(c *gin.Context, fields []formField) map[string]string {
	values := make(map[string]string, len(fields))
	for i, f := range fields {
		// checkboxes post a hidden "false" followed by "true" when ticked
		v := ""
		if all := c.PostFormArray(f.Name); len(all) > 0 {
			v = all[len(all)-1]
		}
		fields[i].Value = v
		values[f.Name] = v
	}
	return values
}

// pageMessage is the error text shown above the output box.
func pageMessage(err error) string {
	if errors.Is(err, toolbox.ErrExplorerDisabled) {
		return explorerDisabledMessage
	}
	return llmprovider.UserMessage(err)
}

func (s *Server) render(c *gin.Context, data pageData) {
	var buf bytes.Buffer
	if err := s.ui.page.Execute(&buf, data); err != nil {
		s.logger.Error("render page", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

