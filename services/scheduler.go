package services

import (
	"fmt"
	"time"

	"lmsportal_go/database"
	"lmsportal_go/models"
	"lmsportal_go/services/notifications"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the periodic maintenance jobs: flushing cached activity
// logs, archiving old ones, and reminding students of due assignments.
type Scheduler struct {
	cron       *cron.Cron
	logArchive *LogArchiveService
	notifier   *notifications.Service
}

// NewScheduler creates a scheduler with the standard job set registered
func NewScheduler() *Scheduler {
	s := &Scheduler{
		cron:       cron.New(),
		logArchive: NewLogArchiveService(),
		notifier:   notifications.NewService(),
	}

	// Cached activity logs older than a day move to the database
	s.cron.AddFunc("@hourly", func() {
		if err := s.logArchive.FlushCachedLogsToDatabase(); err != nil {
			logrus.WithError(err).Warn("Scheduled log flush failed")
		}
	})

	// Database logs older than 30 days move to S3
	s.cron.AddFunc("0 2 * * *", func() {
		if err := s.logArchive.ArchiveOldLogs(30); err != nil {
			logrus.WithError(err).Warn("Scheduled log archive failed")
		}
	})

	// Morning reminder for assignments due within a day
	s.cron.AddFunc("0 7 * * *", func() {
		if err := s.RemindDueAssignments(); err != nil {
			logrus.WithError(err).Warn("Scheduled assignment reminders failed")
		}
	})

	return s
}

// Start begins running jobs on their schedules
func (s *Scheduler) Start() {
	s.cron.Start()
	logrus.Info("Scheduler started")
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logrus.Info("Scheduler stopped")
}

// RemindDueAssignments notifies every ungraded student of each active
// assignment due within the next 24 hours. A student is only reminded once
// per assignment.
func (s *Scheduler) RemindDueAssignments() error {
	now := time.Now()
	var assignments []models.Assignment
	if err := database.DB.Preload("Subject").
		Where("is_active = ? AND due_date BETWEEN ? AND ?", true, now, now.Add(24*time.Hour)).
		Find(&assignments).Error; err != nil {
		return fmt.Errorf("failed to load due assignments: %v", err)
	}

	for _, assignment := range assignments {
		var students []models.Student
		if err := database.DB.Preload("User").
			Where("class_id = ? AND is_active = ?", assignment.ClassID, true).
			Find(&students).Error; err != nil {
			logrus.WithError(err).Errorf("Failed to load students for assignment %d", assignment.ID)
			continue
		}

		title := fmt.Sprintf("Assignment due: %s", assignment.Title)
		message := fmt.Sprintf("%s (%s) is due on %s.",
			assignment.Title, assignment.Subject.Name, assignment.DueDate.Format("2006-01-02 15:04"))

		userIDs := make([]uint, 0, len(students))
		for _, student := range students {
			// Already graded students have nothing left to submit
			var graded int64
			database.DB.Model(&models.Grade{}).
				Where("student_id = ? AND assignment_id = ?", student.ID, assignment.ID).
				Count(&graded)
			if graded > 0 {
				continue
			}

			// Skip students reminded about this assignment already
			var sent int64
			database.DB.Model(&models.Notification{}).
				Where("user_id = ? AND title = ? AND created_at > ?", student.UserID, title, now.Add(-48*time.Hour)).
				Count(&sent)
			if sent > 0 {
				continue
			}

			userIDs = append(userIDs, student.UserID)
		}

		if len(userIDs) == 0 {
			continue
		}
		if err := s.notifier.EnqueueOrCreate(userIDs, notifications.Queued(title, message, "warning")); err != nil {
			logrus.WithError(err).Errorf("Failed to send reminders for assignment %d", assignment.ID)
		}
	}

	return nil
}
