// internal/handlers/contact.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carlane/carlane-backend/internal/services"
	"github.com/carlane/carlane-backend/internal/utils"
)

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// POST /contact
func (h *ContactHandler) CreateMessage(c *gin.Context) {
	var req services.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	message, err := h.contactService.CreateMessage(&req)
	if err != nil {
		handleServiceError(c, "Message", err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Message received",
		"contact": message,
	})
}

// GET /contact
func (h *ContactHandler) GetMessages(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	messages, total, err := h.contactService.ListMessages(params, unreadOnly)
	if err != nil {
		handleServiceError(c, "Message", err)
		return
	}

	result := utils.CreatePaginationResult(messages, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /contact/:id/read
func (h *ContactHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid message ID", nil)
		return
	}

	message, err := h.contactService.MarkRead(id)
	if err != nil {
		handleServiceError(c, "Message", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"contact": message,
	})
}

// DELETE /contact/:id
func (h *ContactHandler) DeleteMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid message ID", nil)
		return
	}

	if err := h.contactService.DeleteMessage(id); err != nil {
		handleServiceError(c, "Message", err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Message deleted",
	})
}
