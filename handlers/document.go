package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/db"
	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// DocumentHandler handles document and document-link HTTP requests
type DocumentHandler struct {
	Documents *services.DocumentService
	Audit     *services.AuditService
}

func NewDocumentHandler(documents *services.DocumentService, audit *services.AuditService) *DocumentHandler {
	return &DocumentHandler{Documents: documents, Audit: audit}
}

// List handles POST /api/documents/list
func (h *DocumentHandler) List(c *gin.Context) {
	var input struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	docs, err := h.Documents.ListDocuments(c.Request.Context(), identityFrom(c), input.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "documents": docs})
}

// Create handles POST /api/documents/create
func (h *DocumentHandler) Create(c *gin.Context) {
	var input db.Document
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	doc, err := h.Documents.CreateDocument(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "document": doc})
}

// Delete handles POST /api/documents/delete
func (h *DocumentHandler) Delete(c *gin.Context) {
	identity := identityFrom(c)
	var input struct {
		DocumentID string `json:"document_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.Documents.DeleteDocument(c.Request.Context(), identity, input.DocumentID); err != nil {
		respondError(c, err)
		return
	}
	h.Audit.Record(c.Request.Context(), "document.delete", identity,
		map[string]any{"document_id": input.DocumentID}, c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Link handles POST /api/document-links/create
func (h *DocumentHandler) Link(c *gin.Context) {
	var input db.DocumentLink
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	link, err := h.Documents.LinkDocument(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "link": link})
}

// Unlink handles POST /api/document-links/delete
func (h *DocumentHandler) Unlink(c *gin.Context) {
	var input struct {
		LinkID string `json:"link_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.Documents.UnlinkDocument(c.Request.Context(), identityFrom(c), input.LinkID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
