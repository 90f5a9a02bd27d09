package connect

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carehub-server/internal/models"
)

// maxIssueAttempts bounds the retry loop on token collisions. With an 8-char
// code over a 31-character alphabet a collision is vanishingly rare, so
// exhausting the attempts indicates something is wrong with the database.
const maxIssueAttempts = 5

// Service issues and redeems connect codes.
type Service struct {
	db         *gorm.DB
	log        *slog.Logger
	ttl        time.Duration
	codeLength int
}

// NewService creates a connect-code service.
func NewService(db *gorm.DB, log *slog.Logger, ttl time.Duration, codeLength int) *Service {
	return &Service{
		db:         db,
		log:        log,
		ttl:        ttl,
		codeLength: codeLength,
	}
}

// Issue generates a fresh connect code for the given physician profile and
// persists it with the configured expiry. Returns ErrPhysicianNotFound when
// the profile does not exist.
func (s *Service) Issue(ctx context.Context, physicianID string) (*models.ConnectCode, error) {
	var physician models.PhysicianProfile
	if err := s.db.WithContext(ctx).First(&physician, "id = ?", physicianID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhysicianNotFound
		}
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, err := generateCode(s.codeLength)
		if err != nil {
			return nil, err
		}

		code := models.ConnectCode{
			Code:        token,
			PhysicianID: physician.ID,
			ExpiresAt:   time.Now().Add(s.ttl),
		}
		if err := s.db.WithContext(ctx).Create(&code).Error; err != nil {
			// Only a collision on the unique code index warrants another
			// token; anything else is a real storage failure.
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, err
			}
			lastErr = err
			continue
		}

		s.log.Info("connect code issued",
			"physicianId", physician.ID,
			"expiresAt", code.ExpiresAt)
		return &code, nil
	}

	return nil, lastErr
}

// Redeem consumes a connect code on behalf of a patient profile and links the
// patient to the issuing physician. The unused/unexpired check and the
// marking as used happen inside one transaction so two concurrent redemptions
// of the same code cannot both succeed.
func (s *Service) Redeem(ctx context.Context, patientID, code string) (*models.PhysicianProfile, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, ErrCodeInvalid
	}

	var physician models.PhysicianProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var patient models.PatientProfile
		if err := tx.First(&patient, "id = ?", patientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPatientNotFound
			}
			return err
		}

		var cc models.ConnectCode
		q := tx
		if tx.Dialector.Name() == "mysql" {
			// Row lock closes the check-then-act race between two concurrent
			// redemptions. SQLite serializes writing transactions on its own
			// and rejects FOR UPDATE.
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&cc, "code = ?", normalized).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeInvalid
			}
			return err
		}

		now := time.Now()
		if cc.IsUsed() || cc.IsExpired(now) {
			return ErrCodeInvalid
		}

		cc.UsedAt = &now
		cc.UsedByPatientID = &patient.ID
		if err := tx.Save(&cc).Error; err != nil {
			return err
		}

		if err := tx.Model(&patient).Update("physician_id", cc.PhysicianID).Error; err != nil {
			return err
		}

		return tx.First(&physician, "id = ?", cc.PhysicianID).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("connect code redeemed",
		"patientId", patientID,
		"physicianId", physician.ID)
	return &physician, nil
}

// ActiveCodes lists a physician's currently spendable codes, newest first.
func (s *Service) ActiveCodes(ctx context.Context, physicianID string) ([]models.ConnectCode, error) {
	var codes []models.ConnectCode
	err := s.db.WithContext(ctx).
		Where("physician_id = ? AND used_at IS NULL AND expires_at > ?", physicianID, time.Now()).
		Order("created_at desc").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}
