package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carehub-server/internal/connect"
	"carehub-server/internal/middleware"
	"carehub-server/internal/utils"
)

// ConnectHandler exposes connect-code issuance and redemption.
type ConnectHandler struct {
	DB      *gorm.DB
	Connect *connect.Service
}

// NewConnectHandler creates a new ConnectHandler.
func NewConnectHandler(db *gorm.DB, connectSvc *connect.Service) *ConnectHandler {
	return &ConnectHandler{DB: db, Connect: connectSvc}
}

// IssueCode issues a fresh connect code for the authenticated physician.
func (h *ConnectHandler) IssueCode(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := physicianProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Physician profile not found")
		return
	}

	code, err := h.Connect.Issue(c.Request.Context(), profile.ID)
	if err != nil {
		if errors.Is(err, connect.ErrPhysicianNotFound) {
			utils.NotFound(c, "Physician not found")
		} else {
			utils.InternalServerError(c, "Failed to issue connect code: "+err.Error())
		}
		return
	}

	utils.Created(c, "Connect code issued successfully", code)
}

// ListCodes lists the authenticated physician's active connect codes.
func (h *ConnectHandler) ListCodes(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := physicianProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Physician profile not found")
		return
	}

	codes, err := h.Connect.ActiveCodes(c.Request.Context(), profile.ID)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch connect codes: "+err.Error())
		return
	}

	utils.Success(c, "Connect codes fetched successfully", codes)
}

// RedeemCodeRequest represents the request body for redeeming a connect code.
type RedeemCodeRequest struct {
	Code string `json:"code" binding:"required,min=4,max=12"`
}

// RedeemCode redeems a connect code on behalf of the authenticated patient,
// linking them to the issuing physician.
func (h *ConnectHandler) RedeemCode(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req RedeemCodeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var profileID string
	{
		profile, err := patientProfileForUser(h.DB, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.NotFound(c, "Patient profile not found")
			} else {
				utils.InternalServerError(c, "Database error: "+err.Error())
			}
			return
		}
		profileID = profile.ID
	}

	physician, err := h.Connect.Redeem(c.Request.Context(), profileID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, connect.ErrCodeInvalid):
			utils.BadRequest(c, "Connect code is invalid, expired, or already used")
		case errors.Is(err, connect.ErrPatientNotFound):
			utils.NotFound(c, "Patient profile not found")
		default:
			utils.InternalServerError(c, "Failed to redeem connect code: "+err.Error())
		}
		return
	}

	utils.Success(c, "Physician linked successfully", physician.Public())
}
