package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carehub-server/internal/middleware"
	"carehub-server/internal/models"
	"carehub-server/internal/utils"
)

// MessageHandler handles messaging between linked patients and physicians.
type MessageHandler struct {
	DB *gorm.DB
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{DB: db}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required,uuid"`
	Subject     string `json:"subject" binding:"max=255"`
	Content     string `json:"content" binding:"required"`
}

// SendMessage sends a message. Only a linked patient/physician pair may
// exchange messages.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if userID == req.RecipientID {
		utils.BadRequest(c, "Cannot send a message to yourself.")
		return
	}

	linked, err := h.isLinkedPair(userID, role, req.RecipientID)
	if err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}
	if !linked {
		utils.Forbidden(c, "You can only message your linked physician or patients.")
		return
	}

	message := models.Message{
		SenderID:   userID,
		ReceiverID: req.RecipientID,
		Subject:    req.Subject,
		Content:    req.Content,
	}
	if err := h.DB.Create(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to send message: "+err.Error())
		return
	}

	utils.Created(c, "Message sent successfully", message)
}

// isLinkedPair reports whether the two users form a linked patient/physician
// pair, from the perspective of the sender's role.
func (h *MessageHandler) isLinkedPair(senderUserID string, senderRole models.Role, receiverUserID string) (bool, error) {
	switch senderRole {
	case models.RolePatient:
		patient, err := patientProfileForUser(h.DB, senderUserID)
		if err != nil || patient.PhysicianID == nil {
			return false, ignoreNotFound(err)
		}
		physician, err := physicianProfileForUser(h.DB, receiverUserID)
		if err != nil {
			return false, ignoreNotFound(err)
		}
		return physician.ID == *patient.PhysicianID, nil
	case models.RolePhysician:
		physician, err := physicianProfileForUser(h.DB, senderUserID)
		if err != nil {
			return false, ignoreNotFound(err)
		}
		patient, err := patientProfileForUser(h.DB, receiverUserID)
		if err != nil || patient.PhysicianID == nil {
			return false, ignoreNotFound(err)
		}
		return *patient.PhysicianID == physician.ID, nil
	}
	return false, nil
}

func ignoreNotFound(err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// GetMessages lists the authenticated user's messages, optionally restricted
// to the exchange with one peer (?with=<userId>), oldest first.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	query := h.DB.Order("created_at asc")
	if peer := c.Query("with"); peer != "" {
		query = query.Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peer, peer, userID)
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

// Conversation summarizes the exchange with one peer.
type Conversation struct {
	PeerID      string         `json:"peerId"`
	LastMessage models.Message `json:"lastMessage"`
	UnreadCount int            `json:"unreadCount"`
}

// GetConversations folds the user's messages into per-peer summaries, most
// recently active first.
func (h *MessageHandler) GetConversations(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var messages []models.Message
	if err := h.DB.Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc").Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	order := []string{}
	byPeer := map[string]*Conversation{}
	for _, m := range messages {
		peer := m.SenderID
		if peer == userID {
			peer = m.ReceiverID
		}
		conv, seen := byPeer[peer]
		if !seen {
			conv = &Conversation{PeerID: peer, LastMessage: m}
			byPeer[peer] = conv
			order = append(order, peer)
		}
		if m.ReceiverID == userID && m.ReadAt == nil {
			conv.UnreadCount++
		}
	}

	conversations := make([]Conversation, 0, len(order))
	for _, peer := range order {
		conversations = append(conversations, *byPeer[peer])
	}

	utils.Success(c, "Conversations fetched successfully", conversations)
}

// MarkMessageRead marks a message addressed to the authenticated user as read.
func (h *MessageHandler) MarkMessageRead(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var message models.Message
	if err := h.DB.First(&message, "id = ? AND receiver_id = ?", c.Param("id"), userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if message.ReadAt == nil {
		now := time.Now()
		message.ReadAt = &now
		if err := h.DB.Save(&message).Error; err != nil {
			utils.InternalServerError(c, "Failed to mark message as read: "+err.Error())
			return
		}
	}

	utils.Success(c, "Message marked as read", message)
}
