package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// FinancialHandler handles financial line and cost code HTTP requests
type FinancialHandler struct {
	Financials *services.FinancialService
	Audit      *services.AuditService
}

func NewFinancialHandler(financials *services.FinancialService, audit *services.AuditService) *FinancialHandler {
	return &FinancialHandler{Financials: financials, Audit: audit}
}

// ListLines handles POST /api/financials/list
func (h *FinancialHandler) ListLines(c *gin.Context) {
	var input struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	lines, err := h.Financials.ListLines(c.Request.Context(), identityFrom(c), input.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "lines": lines})
}

// CreateLine handles POST /api/financials/create
func (h *FinancialHandler) CreateLine(c *gin.Context) {
	var input db.FinancialLine
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	line, err := h.Financials.CreateLine(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "line": line})
}

// UpdateLine handles POST /api/financials/update
func (h *FinancialHandler) UpdateLine(c *gin.Context) {
	var input struct {
		LineID string `json:"line_id"`
		services.UpdateLineInput
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	line, err := h.Financials.UpdateLine(c.Request.Context(), identityFrom(c), input.LineID, input.UpdateLineInput)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "line": line})
}

// DeleteLine handles POST /api/financials/delete
func (h *FinancialHandler) DeleteLine(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		LineID string `json:"line_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.Financials.DeleteLine(c.Request.Context(), identity, input.LineID); err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "financial.delete", identity,
		map[string]any{"line_id": input.LineID}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListCostCodes handles POST /api/cost-codes/list
func (h *FinancialHandler) ListCostCodes(c *gin.Context) {
	var input struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	codes, err := h.Financials.ListCostCodes(c.Request.Context(), identityFrom(c), input.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cost_codes": codes})
}

// CreateCostCode handles POST /api/cost-codes/create
func (h *FinancialHandler) CreateCostCode(c *gin.Context) {
	var input db.CostCode
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	code, err := h.Financials.CreateCostCode(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "cost_code": code})
}

// DeleteCostCode handles POST /api/cost-codes/delete
func (h *FinancialHandler) DeleteCostCode(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		CostCodeID string `json:"cost_code_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.Financials.DeleteCostCode(c.Request.Context(), identity, input.CostCodeID); err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "costcode.delete", identity,
		map[string]any{"cost_code_id": input.CostCodeID}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
