package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carehub-server/internal/models"
)

func messagesRouter(db *gorm.DB, userID string, role models.Role) *gin.Engine {
	router := gin.New()
	h := NewMessageHandler(db)
	grp := router.Group("/messages", authAs(userID, role))
	grp.POST("", h.SendMessage)
	grp.GET("", h.GetMessages)
	grp.GET("/conversations", h.GetConversations)
	grp.PATCH("/:id/read", h.MarkMessageRead)
	return router
}

func TestMessagingBetweenLinkedPair(t *testing.T) {
	db := setupTestDB(t)
	docUser, docProfile := seedPhysicianAccount(t, db, "Dr Chat", "chat@clinic.test", "gp")
	patUser, patProfile := seedPatientAccount(t, db, "Pat Chat", "chat@home.test")

	require.NoError(t, db.Model(&models.PatientProfile{}).
		Where("id = ?", patProfile.ID).Update("physician_id", docProfile.ID).Error)

	patRouter := messagesRouter(db, patUser.ID, models.RolePatient)
	docRouter := messagesRouter(db, docUser.ID, models.RolePhysician)

	rec := performJSON(t, patRouter, http.MethodPost, "/messages", gin.H{
		"recipientId": docUser.ID,
		"subject":     "BP readings",
		"content":     "My systolic spiked yesterday.",
	})
	requireStatus(t, rec, http.StatusCreated)

	var sent models.Message
	decodeData(t, rec, &sent)
	assert.Equal(t, patUser.ID, sent.SenderID)
	assert.Nil(t, sent.ReadAt)

	rec = performJSON(t, docRouter, http.MethodPost, "/messages", gin.H{
		"recipientId": patUser.ID,
		"content":     "Please book a slot this week.",
	})
	requireStatus(t, rec, http.StatusCreated)

	// The exchange with one peer is ordered oldest first.
	rec = performJSON(t, patRouter, http.MethodGet, "/messages?with="+docUser.ID, nil)
	requireStatus(t, rec, http.StatusOK)
	var thread []models.Message
	decodeData(t, rec, &thread)
	require.Len(t, thread, 2)
	assert.Equal(t, patUser.ID, thread[0].SenderID)

	// Conversations fold into one peer with one unread message.
	rec = performJSON(t, docRouter, http.MethodGet, "/messages/conversations", nil)
	requireStatus(t, rec, http.StatusOK)
	var conversations []Conversation
	decodeData(t, rec, &conversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, patUser.ID, conversations[0].PeerID)
	assert.Equal(t, 1, conversations[0].UnreadCount)

	// Reading clears the unread count.
	rec = performJSON(t, docRouter, http.MethodPatch, "/messages/"+sent.ID+"/read", nil)
	requireStatus(t, rec, http.StatusOK)

	rec = performJSON(t, docRouter, http.MethodGet, "/messages/conversations", nil)
	requireStatus(t, rec, http.StatusOK)
	decodeData(t, rec, &conversations)
	require.Len(t, conversations, 1)
	assert.Zero(t, conversations[0].UnreadCount)
}

func TestMessagingRequiresLink(t *testing.T) {
	db := setupTestDB(t)
	docUser, _ := seedPhysicianAccount(t, db, "Dr Stranger", "stranger@clinic.test", "gp")
	patUser, _ := seedPatientAccount(t, db, "Pat Stranger", "stranger@home.test")

	patRouter := messagesRouter(db, patUser.ID, models.RolePatient)
	rec := performJSON(t, patRouter, http.MethodPost, "/messages", gin.H{
		"recipientId": docUser.ID,
		"content":     "hello?",
	})
	requireStatus(t, rec, http.StatusForbidden)

	docRouter := messagesRouter(db, docUser.ID, models.RolePhysician)
	rec = performJSON(t, docRouter, http.MethodPost, "/messages", gin.H{
		"recipientId": patUser.ID,
		"content":     "hello?",
	})
	requireStatus(t, rec, http.StatusForbidden)
}

func TestMarkReadScopedToReceiver(t *testing.T) {
	db := setupTestDB(t)
	docUser, docProfile := seedPhysicianAccount(t, db, "Dr Scope", "scope@clinic.test", "gp")
	patUser, patProfile := seedPatientAccount(t, db, "Pat Scope", "scope@home.test")

	require.NoError(t, db.Model(&models.PatientProfile{}).
		Where("id = ?", patProfile.ID).Update("physician_id", docProfile.ID).Error)

	message := models.Message{SenderID: patUser.ID, ReceiverID: docUser.ID, Content: "hi"}
	require.NoError(t, db.Create(&message).Error)

	// The sender cannot mark their own message as read.
	patRouter := messagesRouter(db, patUser.ID, models.RolePatient)
	rec := performJSON(t, patRouter, http.MethodPatch, "/messages/"+message.ID+"/read", nil)
	requireStatus(t, rec, http.StatusNotFound)
}
