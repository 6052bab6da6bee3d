package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haowjy/tableau-toolbox-go/internal/toolbox"
)

func (s *Server) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": s.svc.Providers()})
}

func (s *Server) listTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tools":    s.svc.Tools(),
		"formulas": toolbox.Formulas(),
	})
}

func (s *Server) renderPrompt(c *gin.Context) {
	var req toolbox.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kind, text, err := s.svc.Prompt(req)
	if err != nil {
		respondServiceError(c, err, ErrCodeInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": kind, "prompt": text})
}

func (s *Server) generate(c *gin.Context) {
	var req toolbox.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := s.runGenerate(c, req)
	if err != nil {
		respondServiceError(c, err, ErrCodeInternal)
		return
	}
	c.JSON(http.StatusOK, res)
}

// runGenerate calls the service and records the attempt.
func (s *Server) runGenerate(c *gin.Context, req toolbox.Request) (*toolbox.Result, error) {
	start := time.Now()
	res, err := s.svc.Generate(c.Request.Context(), req)
	s.metrics.ObserveGeneration(req.Provider, req.Tool, time.Since(start), err)
	return res, err
}

type formulaRequest struct {
	Fields map[string]string `json:"fields"`
}

func (s *Server) buildFormula(c *gin.Context) {
	var req formulaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kind := c.Param("kind")
	text, err := s.svc.Formula(kind, req.Fields)
	if err != nil {
		respondServiceError(c, err, ErrCodeInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "formula": text})
}

func (s *Server) exploreSchema(c *gin.Context) {
	var req toolbox.SchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := s.svc.Schema(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, ErrCodeDatabase)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) exploreCombinations(c *gin.Context) {
	var req toolbox.CombinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := s.svc.Combinations(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, ErrCodeDatabase)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) exploreProfile(c *gin.Context) {
	var req toolbox.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := s.svc.Profile(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, ErrCodeDatabase)
		return
	}
	c.JSON(http.StatusOK, res)
}

type meaningsRequest struct {
	Provider string   `json:"provider"`
	Model    string   `json:"model,omitempty"`
	Columns  []string `json:"columns"`
}

func (s *Server) exploreMeanings(c *gin.Context) {
	var req meaningsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	meanings, err := s.svc.ColumnMeanings(c.Request.Context(), req.Provider, req.Model, req.Columns)
	s.metrics.ObserveGeneration(req.Provider, toolColumnMeaning, time.Since(start), err)
	if err != nil {
		respondServiceError(c, err, ErrCodeInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meanings": meanings})
}

func (s *Server) exploreRelations(c *gin.Context) {
	var req toolbox.RelationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	res, err := s.svc.Relations(c.Request.Context(), req)
	s.metrics.ObserveGeneration(req.Provider, toolRelations, time.Since(start), err)
	if err != nil {
		respondServiceError(c, err, ErrCodeInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"provider":   res.Provider,
		"model":      res.Model,
		"suggestion": res.Text,
	})
}
