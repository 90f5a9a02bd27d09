package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carehub-server/internal/middleware"
	"carehub-server/internal/models"
	"carehub-server/internal/utils"
)

// maxAttachmentBytes caps uploaded lab files at 10 MiB.
const maxAttachmentBytes = 10 << 20

// HealthRecordHandler handles a patient's health records.
type HealthRecordHandler struct {
	DB *gorm.DB
}

// NewHealthRecordHandler creates a new HealthRecordHandler.
func NewHealthRecordHandler(db *gorm.DB) *HealthRecordHandler {
	return &HealthRecordHandler{DB: db}
}

// HealthRecordRequest represents the request body for creating or updating a
// health record. All metrics are optional but range-checked: a negative or
// absurd value is rejected before it reaches the database.
type HealthRecordRequest struct {
	RecordedAt   *time.Time `json:"recordedAt"`
	SystolicBP   *int       `json:"systolicBp" binding:"omitempty,gte=0,lte=400"`
	DiastolicBP  *int       `json:"diastolicBp" binding:"omitempty,gte=0,lte=400"`
	SugarFasting *float64   `json:"sugarFasting" binding:"omitempty,gte=0,lte=1000"`
	SugarPP      *float64   `json:"sugarPp" binding:"omitempty,gte=0,lte=1000"`
	Notes        string     `json:"notes"`
}

// CreateRecord creates a health record for the authenticated patient.
func (h *HealthRecordHandler) CreateRecord(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	var req HealthRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	profile, err := patientProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Patient profile not found")
		return
	}

	recordedAt := time.Now()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	record := models.HealthRecord{
		PatientID:    profile.ID,
		RecordedAt:   recordedAt,
		SystolicBP:   req.SystolicBP,
		DiastolicBP:  req.DiastolicBP,
		SugarFasting: req.SugarFasting,
		SugarPP:      req.SugarPP,
		Notes:        req.Notes,
	}
	if err := h.DB.Create(&record).Error; err != nil {
		utils.InternalServerError(c, "Failed to create record: "+err.Error())
		return
	}

	utils.Created(c, "Health record created successfully", record)
}

// ListRecords lists the authenticated patient's records, newest first.
func (h *HealthRecordHandler) ListRecords(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := patientProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Patient profile not found")
		return
	}

	var records []models.HealthRecord
	if err := h.DB.Where("patient_id = ?", profile.ID).Order("recorded_at desc").Find(&records).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch records: "+err.Error())
		return
	}

	utils.Success(c, "Health records fetched successfully", records)
}

// ownRecord fetches a record by id scoped to the authenticated patient.
func (h *HealthRecordHandler) ownRecord(c *gin.Context) (*models.HealthRecord, bool) {
	userID, _ := middleware.GetUserIDFromContext(c)

	profile, err := patientProfileForUser(h.DB, userID)
	if err != nil {
		utils.NotFound(c, "Patient profile not found")
		return nil, false
	}

	var record models.HealthRecord
	if err := h.DB.First(&record, "id = ? AND patient_id = ?", c.Param("id"), profile.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Health record not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return nil, false
	}
	return &record, true
}

// GetRecord returns a single record with its attachment metadata.
func (h *HealthRecordHandler) GetRecord(c *gin.Context) {
	record, ok := h.ownRecord(c)
	if !ok {
		return
	}

	var attachment models.HealthRecordAttachment
	if err := h.DB.Select("id", "created_at", "updated_at", "health_record_id", "file_name", "file_type").
		First(&attachment, "health_record_id = ?", record.ID).Error; err == nil {
		record.Attachment = &attachment
	}

	utils.Success(c, "Health record fetched successfully", record)
}

// UpdateRecord updates a record's metrics.
func (h *HealthRecordHandler) UpdateRecord(c *gin.Context) {
	var req HealthRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	record, ok := h.ownRecord(c)
	if !ok {
		return
	}

	if req.RecordedAt != nil {
		record.RecordedAt = *req.RecordedAt
	}
	if req.SystolicBP != nil {
		record.SystolicBP = req.SystolicBP
	}
	if req.DiastolicBP != nil {
		record.DiastolicBP = req.DiastolicBP
	}
	if req.SugarFasting != nil {
		record.SugarFasting = req.SugarFasting
	}
	if req.SugarPP != nil {
		record.SugarPP = req.SugarPP
	}
	if req.Notes != "" {
		record.Notes = req.Notes
	}

	if err := h.DB.Save(record).Error; err != nil {
		utils.InternalServerError(c, "Failed to update record: "+err.Error())
		return
	}

	utils.Success(c, "Health record updated successfully", record)
}

// DeleteRecord deletes a record and its attachment.
func (h *HealthRecordHandler) DeleteRecord(c *gin.Context) {
	record, ok := h.ownRecord(c)
	if !ok {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.HealthRecordAttachment{}, "health_record_id = ?", record.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.HealthRecord{}, "id = ?", record.ID).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to delete record: "+err.Error())
		return
	}

	utils.Success(c, "Health record deleted successfully", nil)
}

// UploadAttachment attaches a lab file to a record, replacing any previous one.
func (h *HealthRecordHandler) UploadAttachment(c *gin.Context) {
	record, ok := h.ownRecord(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "A file is required: "+err.Error())
		return
	}
	if fileHeader.Size > maxAttachmentBytes {
		utils.BadRequest(c, "File exceeds the 10 MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.InternalServerError(c, "Failed to open uploaded file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.InternalServerError(c, "Failed to read uploaded file: "+err.Error())
		return
	}

	attachment := models.HealthRecordAttachment{
		HealthRecordID: record.ID,
		FileName:       fileHeader.Filename,
		FileType:       fileHeader.Header.Get("Content-Type"),
		FileData:       data,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.HealthRecordAttachment{}, "health_record_id = ?", record.ID).Error; err != nil {
			return err
		}
		return tx.Create(&attachment).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to store attachment: "+err.Error())
		return
	}

	utils.Created(c, "Attachment uploaded successfully", gin.H{
		"id":       attachment.ID,
		"fileName": attachment.FileName,
		"fileType": attachment.FileType,
	})
}

// GetAttachment streams the lab file attached to a record.
func (h *HealthRecordHandler) GetAttachment(c *gin.Context) {
	record, ok := h.ownRecord(c)
	if !ok {
		return
	}

	var attachment models.HealthRecordAttachment
	if err := h.DB.First(&attachment, "health_record_id = ?", record.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "No attachment on this record")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+attachment.FileName+`"`)
	c.Data(http.StatusOK, attachment.FileType, attachment.FileData)
}
