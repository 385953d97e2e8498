package services

import (
	"fmt"
	"time"

	"lmsportal_go/database"
	"lmsportal_go/models"
	"lmsportal_go/storage"
	"lmsportal_go/utils"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ReportExportService builds gradebook spreadsheets and pushes them to S3
type ReportExportService struct {
	storage *storage.StorageService
}

// NewReportExportService creates a new service instance
func NewReportExportService() *ReportExportService {
	st, err := storage.NewStorageService()
	if err != nil {
		logrus.WithError(err).Warn("Failed to initialise storage; report uploads will fail until configured")
	}
	return &ReportExportService{storage: st}
}

// GenerateGradebook builds the XLSX for the export's class and uploads it,
// moving the ReportExport row through pending -> completed/failed. Meant to
// run in a goroutine after the row is created.
func (res *ReportExportService) GenerateGradebook(exportID uint) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Gradebook export %d panicked: %v", exportID, r)
			database.DB.Model(&models.ReportExport{}).Where("id = ?", exportID).
				Updates(map[string]interface{}{"status": "failed", "error": fmt.Sprintf("panic: %v", r)})
		}
	}()

	var export models.ReportExport
	if err := database.DB.Preload("Class").First(&export, exportID).Error; err != nil {
		logrus.WithError(err).Errorf("Gradebook export %d not found", exportID)
		return
	}

	markFailed := func(err error) {
		logrus.WithError(err).Errorf("Gradebook export %d failed", exportID)
		database.DB.Model(&export).Updates(map[string]interface{}{
			"status": "failed",
			"error":  err.Error(),
		})
	}

	data, err := res.buildGradebook(&export.Class)
	if err != nil {
		markFailed(err)
		return
	}

	if res.storage == nil {
		markFailed(fmt.Errorf("storage not configured"))
		return
	}

	key, err := res.storage.UploadBytes("reports/gradebooks", export.FileName, data)
	if err != nil {
		markFailed(err)
		return
	}

	if err := database.DB.Model(&export).Updates(map[string]interface{}{
		"s3_key":    key,
		"file_size": int64(len(data)),
		"status":    "completed",
		"error":     "",
	}).Error; err != nil {
		logrus.WithError(err).Errorf("Failed to finalise gradebook export %d", exportID)
		return
	}

	logrus.Infof("Gradebook export %d completed (%s, %d bytes)", exportID, key, len(data))
}

// GenerateGradebookSync builds the workbook immediately and returns the bytes
// for streaming. A copy is uploaded to S3 when storage is configured, and the
// export is recorded as completed either way so it shows up in the history.
func (res *ReportExportService) GenerateGradebookSync(class *models.Class, requestedByID uint) (*models.ReportExport, []byte, error) {
	data, err := res.buildGradebook(class)
	if err != nil {
		return nil, nil, err
	}

	export := models.ReportExport{
		RequestedByID: requestedByID,
		ClassID:       class.ID,
		FileName:      gradebookFileName(class.ID),
		FileSize:      int64(len(data)),
		Status:        "completed",
	}

	if res.storage != nil {
		if key, err := res.storage.UploadBytes("reports/gradebooks", export.FileName, data); err == nil {
			export.S3Key = key
		} else {
			logrus.WithError(err).Warnf("Gradebook upload for class %d failed; download still served", class.ID)
			export.Error = err.Error()
		}
	}

	if err := database.DB.Create(&export).Error; err != nil {
		logrus.WithError(err).Warn("Failed to record gradebook export")
	}

	return &export, data, nil
}

// PresignDownload returns a temporary link for a completed export
func (res *ReportExportService) PresignDownload(export *models.ReportExport) (string, error) {
	if export.Status != "completed" || export.S3Key == "" {
		return "", fmt.Errorf("export is not completed")
	}
	if res.storage == nil {
		return "", fmt.Errorf("storage not configured")
	}
	return res.storage.PresignedURL(export.S3Key, 15*time.Minute)
}

func gradebookFileName(classID uint) string {
	return fmt.Sprintf("gradebook-class-%d-%s.xlsx", classID, time.Now().Format("20060102-150405"))
}

// buildGradebook renders two sheets: the gradebook itself (a student per
// row, an assignment per column, average and letter at the end) and an
// attendance summary with per-student day counts.
func (res *ReportExportService) buildGradebook(class *models.Class) ([]byte, error) {
	var students []models.Student
	if err := database.DB.Preload("User").
		Where("class_id = ? AND is_active = ?", class.ID, true).
		Order("roll_number").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to load students: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := res.writeGradesSheet(f, class, students); err != nil {
		return nil, err
	}
	if err := res.writeAttendanceSheet(f, class, students); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %v", err)
	}
	return buf.Bytes(), nil
}

func (res *ReportExportService) writeGradesSheet(f *excelize.File, class *models.Class, students []models.Student) error {
	var assignments []models.Assignment
	if err := database.DB.Where("class_id = ? AND is_active = ?", class.ID, true).
		Order("due_date").Find(&assignments).Error; err != nil {
		return fmt.Errorf("failed to load assignments: %v", err)
	}

	assignmentIDs := make([]uint, 0, len(assignments))
	for _, a := range assignments {
		assignmentIDs = append(assignmentIDs, a.ID)
	}

	gradesByStudent := map[uint]map[uint]models.Grade{}
	if len(assignmentIDs) > 0 {
		var grades []models.Grade
		if err := database.DB.Preload("Assignment").
			Where("assignment_id IN ?", assignmentIDs).Find(&grades).Error; err != nil {
			return fmt.Errorf("failed to load grades: %v", err)
		}
		for _, g := range grades {
			if gradesByStudent[g.StudentID] == nil {
				gradesByStudent[g.StudentID] = map[uint]models.Grade{}
			}
			gradesByStudent[g.StudentID][g.AssignmentID] = g
		}
	}

	sheet := "Gradebook"
	f.SetSheetName(f.GetSheetName(0), sheet)

	setCell := func(col, row int, value interface{}) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellValue(sheet, cell, value)
	}

	setCell(1, 1, fmt.Sprintf("%s (%s %s, %s)", class.Name, class.GradeLevel, class.Section, class.AcademicYear))
	setCell(1, 2, fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04")))

	headerRow := 4
	setCell(1, headerRow, "Roll No")
	setCell(2, headerRow, "Student ID")
	setCell(3, headerRow, "Name")
	col := 4
	for _, a := range assignments {
		setCell(col, headerRow, fmt.Sprintf("%s (%d)", a.Title, a.TotalMarks))
		col++
	}
	setCell(col, headerRow, "Average %")
	setCell(col+1, headerRow, "Letter")

	row := headerRow + 1
	for _, s := range students {
		setCell(1, row, s.RollNumber)
		setCell(2, row, s.StudentID)
		setCell(3, row, s.User.FullName())

		var percentageSum float64
		graded := 0
		col = 4
		for _, a := range assignments {
			if g, ok := gradesByStudent[s.ID][a.ID]; ok {
				setCell(col, row, g.MarksObtained)
				percentageSum += g.Percentage()
				graded++
			}
			col++
		}
		if graded > 0 {
			average := utils.Round2(percentageSum / float64(graded))
			setCell(col, row, average)
			setCell(col+1, row, models.LetterForPercentage(average))
		}
		row++
	}

	return nil
}

func (res *ReportExportService) writeAttendanceSheet(f *excelize.File, class *models.Class, students []models.Student) error {
	type attendanceTally struct {
		StudentID uint
		Status    string
		Count     int64
	}
	var tallies []attendanceTally
	if err := database.DB.Model(&models.Attendance{}).
		Select("student_id, status, COUNT(*) as count").
		Where("class_id = ?", class.ID).
		Group("student_id, status").
		Scan(&tallies).Error; err != nil {
		return fmt.Errorf("failed to load attendance: %v", err)
	}

	byStudent := map[uint]map[string]int64{}
	for _, t := range tallies {
		if byStudent[t.StudentID] == nil {
			byStudent[t.StudentID] = map[string]int64{}
		}
		byStudent[t.StudentID][t.Status] = t.Count
	}

	sheet := "Attendance Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add attendance sheet: %v", err)
	}

	setCell := func(col, row int, value interface{}) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		f.SetCellValue(sheet, cell, value)
	}

	setCell(1, 1, fmt.Sprintf("Attendance for %s (%s)", class.Name, class.AcademicYear))

	headerRow := 3
	headers := []string{"Roll No", "Student ID", "Name", "Total Days", "Present", "Late", "Absent", "Excused", "Attendance %"}
	for i, h := range headers {
		setCell(i+1, headerRow, h)
	}

	row := headerRow + 1
	for _, s := range students {
		counts := byStudent[s.ID]
		total := counts["present"] + counts["late"] + counts["absent"] + counts["excused"]

		setCell(1, row, s.RollNumber)
		setCell(2, row, s.StudentID)
		setCell(3, row, s.User.FullName())
		setCell(4, row, total)
		setCell(5, row, counts["present"])
		setCell(6, row, counts["late"])
		setCell(7, row, counts["absent"])
		setCell(8, row, counts["excused"])
		if total > 0 {
			// Late still counts as attended
			setCell(9, row, utils.Round2(float64(counts["present"]+counts["late"])/float64(total)*100))
		} else {
			setCell(9, row, 0)
		}
		row++
	}

	return nil
}
