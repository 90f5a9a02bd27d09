package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carehub-server/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.Migrate(db))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// authAs stands in for the JWT middleware in tests.
func authAs(userID string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

func seedPatientAccount(t *testing.T, db *gorm.DB, name, email string) (models.User, models.PatientProfile) {
	t.Helper()

	user := models.User{Email: email, Role: models.RolePatient}
	require.NoError(t, user.SetPassword("testpass123"))
	require.NoError(t, db.Create(&user).Error)

	profile := models.PatientProfile{UserID: user.ID, FullName: name}
	require.NoError(t, db.Create(&profile).Error)
	return user, profile
}

func seedPhysicianAccount(t *testing.T, db *gorm.DB, name, email, specialty string) (models.User, models.PhysicianProfile) {
	t.Helper()

	user := models.User{Email: email, Role: models.RolePhysician}
	require.NoError(t, user.SetPassword("testpass123"))
	require.NoError(t, db.Create(&user).Error)

	profile := models.PhysicianProfile{UserID: user.ID, FullName: name, Specialization: specialty}
	require.NoError(t, db.Create(&profile).Error)
	return user, profile
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}
