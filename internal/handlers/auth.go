package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carehub-server/internal/config"
	"carehub-server/internal/connect"
	"carehub-server/internal/middleware"
	"carehub-server/internal/models"
	"carehub-server/internal/schedule"
	"carehub-server/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Log      *slog.Logger
	Connect  *connect.Service
	Schedule *schedule.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, log *slog.Logger, connectSvc *connect.Service, scheduleSvc *schedule.Service) *AuthHandler {
	return &AuthHandler{DB: db, Cfg: cfg, Log: log, Connect: connectSvc, Schedule: scheduleSvc}
}

// RegisterPatientRequest represents the request body for patient signup.
type RegisterPatientRequest struct {
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required,min=8"`
	FullName    string     `json:"fullName" binding:"required,max=150"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Phone       string     `json:"phone" binding:"max=30"`
	Address     string     `json:"address"`
	HeightCm    *float64   `json:"heightCm" binding:"omitempty,gte=0,lte=300"`
	WeightKg    *float64   `json:"weightKg" binding:"omitempty,gte=0,lte=500"`
	ConnectCode string     `json:"connectCode"`
}

// RegisterPatient creates a PATIENT user together with its profile. When a
// connect code is supplied it is redeemed best-effort: an invalid code does
// not fail the signup, the patient can link later from profile edit.
func (h *AuthHandler) RegisterPatient(c *gin.Context) {
	var req RegisterPatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if taken, err := h.emailTaken(req.Email); err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	} else if taken {
		utils.BadRequest(c, "User with this email already exists")
		return
	}

	user := models.User{
		Email: req.Email,
		Role:  models.RolePatient,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	var profile models.PatientProfile
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile = models.PatientProfile{
			UserID:      user.ID,
			FullName:    req.FullName,
			DateOfBirth: req.DateOfBirth,
			Phone:       req.Phone,
			Address:     req.Address,
			HeightCm:    req.HeightCm,
			WeightKg:    req.WeightKg,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to create patient: "+err.Error())
		return
	}

	if req.ConnectCode != "" {
		if _, err := h.Connect.Redeem(c.Request.Context(), profile.ID, req.ConnectCode); err != nil {
			if errors.Is(err, connect.ErrCodeInvalid) {
				h.Log.Warn("ignoring invalid connect code at signup", "patientId", profile.ID)
			} else {
				h.Log.Error("connect code redemption failed at signup", "patientId", profile.ID, "error", err)
			}
		}
	}

	utils.Created(c, "Patient registered successfully", gin.H{
		"user":    user.Sanitize(),
		"profile": profile,
	})
}

// RegisterPhysicianRequest represents the request body for physician signup.
type RegisterPhysicianRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	FullName       string `json:"fullName" binding:"required,max=150"`
	Specialization string `json:"specialization" binding:"max=150"`
	ClinicName     string `json:"clinicName" binding:"max=150"`
}

// RegisterPhysician creates a PHYSICIAN user with its profile and seeds four
// weeks of default availability slots.
func (h *AuthHandler) RegisterPhysician(c *gin.Context) {
	var req RegisterPhysicianRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if taken, err := h.emailTaken(req.Email); err != nil {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	} else if taken {
		utils.BadRequest(c, "User with this email already exists")
		return
	}

	user := models.User{
		Email: req.Email,
		Role:  models.RolePhysician,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	var profile models.PhysicianProfile
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile = models.PhysicianProfile{
			UserID:         user.ID,
			FullName:       req.FullName,
			Specialization: req.Specialization,
			ClinicName:     req.ClinicName,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to create physician: "+err.Error())
		return
	}

	// Slot generation failing should not fail the signup.
	start := time.Now()
	end := start.AddDate(0, 0, 7*schedule.DefaultHorizonWeeks)
	if _, err := h.Schedule.GenerateDefaultSlots(c.Request.Context(), profile.ID, start, end); err != nil {
		h.Log.Error("failed to generate default slots", "physicianId", profile.ID, "error", err)
	}

	utils.Created(c, "Physician registered successfully", gin.H{
		"user":    user.Sanitize(),
		"profile": profile,
	})
}

func (h *AuthHandler) emailTaken(email string) (bool, error) {
	var existing models.User
	err := h.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	User         models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	accessToken, refreshTokenString, err := utils.GenerateTokens(&user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate tokens: "+err.Error())
		return
	}

	refreshToken := models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
	}
	if err := h.DB.Create(&refreshToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to store refresh token: "+err.Error())
		return
	}

	h.setRefreshCookie(c, refreshTokenString, h.Cfg.JWTRefreshExpirationHours*60*60)

	utils.Success(c, "Login successful", LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenString,
		User:         user.Sanitize(),
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshTokenResponse represents the response body for successful token refresh.
type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken rotates the refresh token and issues a new access token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	// Prefer the HTTP-only cookie, fall back to the request body.
	tokenString, err := c.Cookie("refresh_token")
	if err != nil || tokenString == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		tokenString = req.RefreshToken
	}

	claims, err := utils.ValidateToken(tokenString, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token: "+err.Error())
		return
	}

	var storedToken models.RefreshToken
	if err := h.DB.Where("token = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?",
		tokenString, claims.UserID, time.Now()).First(&storedToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
		} else {
			utils.InternalServerError(c, "Database error checking refresh token: "+err.Error())
		}
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		utils.InternalServerError(c, "Failed to find user associated with token: "+err.Error())
		return
	}

	// Rotation: revoke the old token before issuing a new pair.
	storedToken.Revoke(time.Now())
	if err := h.DB.Save(&storedToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to revoke old refresh token: "+err.Error())
		return
	}

	newAccessToken, newRefreshTokenString, err := utils.GenerateTokens(&user, h.Cfg)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate new tokens: "+err.Error())
		return
	}

	newRefreshToken := models.RefreshToken{
		UserID:    user.ID,
		Token:     newRefreshTokenString,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
	}
	if err := h.DB.Create(&newRefreshToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to store new refresh token: "+err.Error())
		return
	}

	h.setRefreshCookie(c, newRefreshTokenString, h.Cfg.JWTRefreshExpirationHours*60*60)

	utils.Success(c, "Access token refreshed successfully", RefreshTokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshTokenString,
	})
}

// LogoutRequest represents the request body for user logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Logout revokes the presented refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var storedToken models.RefreshToken
	if err := h.DB.Where("token = ? AND revoked_at IS NULL", req.RefreshToken).First(&storedToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already invalid, which is fine for logout.
			h.setRefreshCookie(c, "", -1)
			utils.Success(c, "Logout successful", nil)
		} else {
			utils.InternalServerError(c, "Database error during logout: "+err.Error())
		}
		return
	}

	storedToken.Revoke(time.Now())
	if err := h.DB.Save(&storedToken).Error; err != nil {
		utils.InternalServerError(c, "Failed to revoke refresh token: "+err.Error())
		return
	}

	h.setRefreshCookie(c, "", -1)
	utils.Success(c, "Logout successful. Refresh token has been invalidated.", nil)
}

// GetProfile returns the authenticated account plus its role profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User profile not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	payload := gin.H{"user": user.Sanitize()}
	switch user.Role {
	case models.RolePatient:
		var profile models.PatientProfile
		if err := h.DB.Preload("Physician").First(&profile, "user_id = ?", user.ID).Error; err == nil {
			payload["profile"] = profile
		}
	case models.RolePhysician:
		var profile models.PhysicianProfile
		if err := h.DB.First(&profile, "user_id = ?", user.ID).Error; err == nil {
			payload["profile"] = profile
		}
	}

	utils.Success(c, "Profile fetched successfully", payload)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetCookie(
		"refresh_token",
		value,
		maxAge,
		"/",
		"",
		h.Cfg.Environment != "development",
		true,
	)
}
