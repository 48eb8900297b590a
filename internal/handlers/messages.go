package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/utils"
)

// MessageHandler handles messaging between patients/students and faculty.
type MessageHandler struct {
	DB *gorm.DB
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{DB: db}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
	Subject    string `json:"subject"`
	Content    string `json:"content" binding:"required"`
}

// SendMessage sends a message from the authenticated user to another user.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	senderID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	if senderID == req.ReceiverID {
		utils.BadRequest(c, "Cannot send a message to yourself")
		return
	}

	var receiver models.User
	if err := h.DB.First(&receiver, "id = ?", req.ReceiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Receiver not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	message := models.Message{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Subject:    req.Subject,
		Content:    req.Content,
	}
	if err := h.DB.Create(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to send message: "+err.Error())
		return
	}

	utils.Created(c, "Message sent successfully", message)
}

// GetMessagesForUser lists the authenticated user's messages, newest first.
// ?with=<userID> narrows to the conversation with that user.
func (h *MessageHandler) GetMessagesForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	query := h.DB.Preload("Sender").Preload("Receiver").Order("created_at desc")
	if with := c.Query("with"); with != "" {
		query = query.Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, with, with, userID)
	} else {
		query = query.Where("sender_id = ? OR receiver_id = ?", userID, userID)
	}

	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	utils.Success(c, "Messages fetched successfully", messages)
}

// MarkMessageAsRead marks a message as read; only the receiver may do so.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	messageID := c.Param("messageId")

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var message models.Message
	if err := h.DB.First(&message, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if message.ReceiverID != userID {
		utils.Forbidden(c, "Only the receiver can mark a message as read")
		return
	}

	if !message.IsRead {
		now := time.Now()
		message.IsRead = true
		message.ReadAt = &now
		if err := h.DB.Save(&message).Error; err != nil {
			utils.InternalServerError(c, "Failed to mark message as read: "+err.Error())
			return
		}
	}

	utils.Success(c, "Message marked as read", message)
}
