package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// RFIHandler handles request-for-information HTTP requests
type RFIHandler struct {
	RFIs  *services.RFIService
	Audit *services.AuditService
}

func NewRFIHandler(rfis *services.RFIService, audit *services.AuditService) *RFIHandler {
	return &RFIHandler{RFIs: rfis, Audit: audit}
}

// List handles POST /api/rfis/list
func (h *RFIHandler) List(c *gin.Context) {
	var input struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	rfis, err := h.RFIs.ListRFIs(c.Request.Context(), identityFrom(c), input.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rfis": rfis})
}

// Create handles POST /api/rfis/create
func (h *RFIHandler) Create(c *gin.Context) {
	var input db.RFI
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	rfi, err := h.RFIs.CreateRFI(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "rfi": rfi})
}

// Update handles POST /api/rfis/update
func (h *RFIHandler) Update(c *gin.Context) {
	var input struct {
		RFIID string `json:"rfi_id"`
		services.UpdateRFIInput
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	rfi, err := h.RFIs.UpdateRFI(c.Request.Context(), identityFrom(c), input.RFIID, input.UpdateRFIInput)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rfi": rfi})
}

// Delete handles POST /api/rfis/delete
func (h *RFIHandler) Delete(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		RFIID string `json:"rfi_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.RFIs.DeleteRFI(c.Request.Context(), identity, input.RFIID); err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "rfi.delete", identity,
		map[string]any{"rfi_id": input.RFIID}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
