package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carehub-server/internal/models"
)

var (
	// ErrSlotNotFound is returned when booking a slot that does not exist or
	// belongs to another physician.
	ErrSlotNotFound = errors.New("availability slot not found")

	// ErrSlotTaken is returned when the slot is already booked.
	ErrSlotTaken = errors.New("availability slot is already booked")
)

// Window is a daily time-of-day range used when generating default slots.
type Window struct {
	StartHour, StartMinute int
	EndHour, EndMinute     int
}

// DefaultWindows are the out-of-the-box bookable windows for a new physician:
// a morning and an afternoon half-hour on weekdays.
var DefaultWindows = []Window{
	{StartHour: 10, EndHour: 10, EndMinute: 30},
	{StartHour: 14, EndHour: 14, EndMinute: 30},
}

// DefaultHorizonWeeks is how far ahead default slots are generated at signup.
const DefaultHorizonWeeks = 4

// Service manages availability slots and appointment booking.
type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewService creates a scheduling service.
func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

// GenerateDefaultSlots creates DefaultWindows slots on weekdays between
// start and end (inclusive dates) for the physician, skipping any window that
// overlaps an existing slot. Returns the number of slots created.
func (s *Service) GenerateDefaultSlots(ctx context.Context, physicianID string, start, end time.Time) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			wd := day.Weekday()
			if wd == time.Saturday || wd == time.Sunday {
				continue
			}
			for _, w := range DefaultWindows {
				slotStart := time.Date(day.Year(), day.Month(), day.Day(), w.StartHour, w.StartMinute, 0, 0, day.Location())
				slotEnd := time.Date(day.Year(), day.Month(), day.Day(), w.EndHour, w.EndMinute, 0, 0, day.Location())

				var overlapping int64
				if err := tx.Model(&models.AvailabilitySlot{}).
					Where("physician_id = ? AND start_at < ? AND end_at > ?", physicianID, slotEnd, slotStart).
					Count(&overlapping).Error; err != nil {
					return err
				}
				if overlapping > 0 {
					continue
				}

				slot := models.AvailabilitySlot{
					PhysicianID: physicianID,
					Start:       slotStart,
					End:         slotEnd,
				}
				if err := tx.Create(&slot).Error; err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("availability slots generated", "physicianId", physicianID, "count", created)
	return created, nil
}

// FreeSlots lists a physician's unbooked future slots, optionally restricted
// to a single calendar day.
func (s *Service) FreeSlots(ctx context.Context, physicianID string, day *time.Time) ([]models.AvailabilitySlot, error) {
	q := s.db.WithContext(ctx).
		Where("physician_id = ? AND is_booked = ? AND start_at > ?", physicianID, false, time.Now())
	if day != nil {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		q = q.Where("start_at >= ? AND start_at < ?", dayStart, dayStart.AddDate(0, 0, 1))
	}

	var slots []models.AvailabilitySlot
	if err := q.Order("start_at asc").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// Book reserves a free slot for a patient and creates the appointment.
// Marking the slot booked and inserting the appointment happen in one
// transaction so a slot can never be double-booked.
func (s *Service) Book(ctx context.Context, patientID, slotID, reason string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.AvailabilitySlot
		q := tx
		if tx.Dialector.Name() == "mysql" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&slot, "id = ?", slotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		if slot.IsBooked {
			return ErrSlotTaken
		}

		if err := tx.Model(&slot).Update("is_booked", true).Error; err != nil {
			return err
		}

		appointment = models.Appointment{
			PatientID:   patientID,
			PhysicianID: slot.PhysicianID,
			SlotID:      &slot.ID,
			StartTime:   slot.Start,
			EndTime:     slot.End,
			Status:      models.StatusPending,
			Reason:      reason,
		}
		return tx.Create(&appointment).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment booked",
		"patientId", patientID,
		"physicianId", appointment.PhysicianID,
		"start", appointment.StartTime)
	return &appointment, nil
}
