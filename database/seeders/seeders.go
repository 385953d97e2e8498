package seeders

import (
	"log"
	"time"

	"lmsportal_go/database"
	"lmsportal_go/models"
	"lmsportal_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedUsers()
	SeedSubjects()
	SeedTeachers()
	SeedClasses()
	SeedStudents()
	SeedAssignments()

	log.Println("Database seeding completed successfully!")
}

// SeedUsers seeds the users table along with their profile roles
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	// Hash the default password
	hashedPassword, _ := utils.HashPassword("password123")

	users := []struct {
		user models.User
		role models.Role
	}{
		{
			user: models.User{
				BaseModel: models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 8, 15, 2, 28, 56, 0, time.UTC)},
				Username:  "admin",
				Password:  hashedPassword,
				Email:     "admin@lmsportal.com",
				FirstName: "System",
				LastName:  "Administrator",
				IsActive:  true,
			},
			role: models.RoleAdmin,
		},
		{
			user: models.User{
				BaseModel: models.BaseModel{ID: 2, CreatedAt: time.Date(2025, 8, 15, 2, 28, 56, 0, time.UTC)},
				Username:  "staff_mary",
				Password:  hashedPassword,
				Email:     "mary.jones@lmsportal.com",
				FirstName: "Mary",
				LastName:  "Jones",
				IsActive:  true,
			},
			role: models.RoleStaff,
		},
		{
			user: models.User{
				BaseModel: models.BaseModel{ID: 3, CreatedAt: time.Date(2025, 8, 15, 2, 28, 56, 0, time.UTC)},
				Username:  "teacher_john",
				Password:  hashedPassword,
				Email:     "john.smith@lmsportal.com",
				FirstName: "John",
				LastName:  "Smith",
				IsActive:  true,
			},
			role: models.RoleTeacher,
		},
		{
			user: models.User{
				BaseModel: models.BaseModel{ID: 4, CreatedAt: time.Date(2025, 8, 15, 2, 28, 56, 0, time.UTC)},
				Username:  "teacher_sarah",
				Password:  hashedPassword,
				Email:     "sarah.connor@lmsportal.com",
				FirstName: "Sarah",
				LastName:  "Connor",
				IsActive:  true,
			},
			role: models.RoleTeacher,
		},
		{
			user: models.User{
				BaseModel: models.BaseModel{ID: 5, CreatedAt: time.Date(2025, 8, 15, 2, 28, 57, 0, time.UTC)},
				Username:  "alice_w",
				Password:  hashedPassword,
				Email:     "alice.wilson@gmail.com",
				FirstName: "Alice",
				LastName:  "Wilson",
				IsActive:  true,
			},
			role: models.RoleStudent,
		},
		{
			user: models.User{
				BaseModel: models.BaseModel{ID: 6, CreatedAt: time.Date(2025, 8, 15, 2, 28, 57, 0, time.UTC)},
				Username:  "bob_b",
				Password:  hashedPassword,
				Email:     "bob.brown@gmail.com",
				FirstName: "Bob",
				LastName:  "Brown",
				IsActive:  true,
			},
			role: models.RoleStudent,
		},
	}

	for _, entry := range users {
		if err := database.DB.Create(&entry.user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", entry.user.Username, err)
			continue
		}
		// AfterCreate attached a student profile; promote where needed
		if entry.role != models.RoleStudent {
			if err := database.DB.Model(&models.Profile{}).Where("user_id = ?", entry.user.ID).Update("role", entry.role).Error; err != nil {
				log.Printf("Error setting role for user %s: %v", entry.user.Username, err)
			}
		}
	}

	log.Println("Users seeded successfully")
}

// SeedSubjects seeds the subjects table
func SeedSubjects() {
	var count int64
	database.DB.Model(&models.Subject{}).Count(&count)
	if count > 0 {
		log.Println("Subjects already seeded, skipping...")
		return
	}

	subjects := []models.Subject{
		{
			BaseModel:   models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 8, 15, 2, 28, 56, 0, time.UTC)},
			Name:        "Mathematics",
			Code:        "MATH",
			Description: "Algebra, geometry and arithmetic",
			Credits:     4,
		},
		{
			BaseModel:   models.BaseModel{ID: 2, CreatedAt: time.Date(2025, 8, 15, 2, 28, 56, 0, time.UTC)},
			Name:        "English",
			Code:        "ENG",
			Description: "Grammar, literature and composition",
			Credits:     3,
		},
		{
			BaseModel:   models.BaseModel{ID: 3, CreatedAt: time.Date(2025, 8, 15, 2, 28, 56, 0, time.UTC)},
			Name:        "Science",
			Code:        "SCI",
			Description: "Physics, chemistry and biology foundations",
			Credits:     4,
		},
		{
			BaseModel:   models.BaseModel{ID: 4, CreatedAt: time.Date(2025, 8, 15, 2, 28, 56, 0, time.UTC)},
			Name:        "History",
			Code:        "HIST",
			Description: "World and national history",
			Credits:     2,
		},
	}

	for _, subject := range subjects {
		if err := database.DB.Create(&subject).Error; err != nil {
			log.Printf("Error seeding subject %s: %v", subject.Code, err)
		}
	}

	log.Println("Subjects seeded successfully")
}

// SeedTeachers seeds the teachers table
func SeedTeachers() {
	var count int64
	database.DB.Model(&models.Teacher{}).Count(&count)
	if count > 0 {
		log.Println("Teachers already seeded, skipping...")
		return
	}

	teachers := []models.Teacher{
		{
			BaseModel:       models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 8, 20, 6, 15, 59, 0, time.UTC)},
			UserID:          3,
			EmployeeID:      "EMP001",
			Department:      "Mathematics",
			Qualification:   "M.Sc. Mathematics",
			ExperienceYears: 8,
			Specialization:  "Algebra, Calculus",
			HireDate:        time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC),
			IsActive:        true,
		},
		{
			BaseModel:       models.BaseModel{ID: 2, CreatedAt: time.Date(2025, 8, 20, 6, 15, 59, 0, time.UTC)},
			UserID:          4,
			EmployeeID:      "EMP002",
			Department:      "English",
			Qualification:   "M.A. English Literature",
			ExperienceYears: 5,
			Specialization:  "Creative Writing, Grammar",
			HireDate:        time.Date(2021, 1, 15, 0, 0, 0, 0, time.UTC),
			IsActive:        true,
		},
	}

	for _, teacher := range teachers {
		if err := database.DB.Create(&teacher).Error; err != nil {
			log.Printf("Error seeding teacher %s: %v", teacher.EmployeeID, err)
		}
	}

	log.Println("Teachers seeded successfully")
}

// SeedClasses seeds the classes table
func SeedClasses() {
	var count int64
	database.DB.Model(&models.Class{}).Count(&count)
	if count > 0 {
		log.Println("Classes already seeded, skipping...")
		return
	}

	teacher1 := uint(1)
	teacher2 := uint(2)

	classes := []models.Class{
		{
			BaseModel:    models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 8, 15, 2, 28, 57, 0, time.UTC)},
			Name:         "Grade 10 Section A",
			GradeLevel:   "10",
			Section:      "A",
			AcademicYear: "2025-2026",
			TeacherID:    &teacher1,
			RoomNumber:   "101",
			MaxStudents:  30,
			IsActive:     true,
		},
		{
			BaseModel:    models.BaseModel{ID: 2, CreatedAt: time.Date(2025, 8, 15, 2, 28, 57, 0, time.UTC)},
			Name:         "Grade 10 Section B",
			GradeLevel:   "10",
			Section:      "B",
			AcademicYear: "2025-2026",
			TeacherID:    &teacher2,
			RoomNumber:   "102",
			MaxStudents:  30,
			IsActive:     true,
		},
	}

	for _, class := range classes {
		if err := database.DB.Create(&class).Error; err != nil {
			log.Printf("Error seeding class %s: %v", class.Name, err)
		}
	}

	log.Println("Classes seeded successfully")
}

// SeedStudents seeds the students table
func SeedStudents() {
	var count int64
	database.DB.Model(&models.Student{}).Count(&count)
	if count > 0 {
		log.Println("Students already seeded, skipping...")
		return
	}

	class1 := uint(1)
	class2 := uint(2)

	students := []models.Student{
		{
			BaseModel:     models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 8, 15, 2, 28, 57, 0, time.UTC)},
			UserID:        5,
			StudentID:     "STU2025001",
			RollNumber:    "1",
			ClassID:       &class1,
			Gender:        "F",
			GuardianName:  "Robert Wilson",
			GuardianPhone: "0891234567",
			GuardianEmail: "robert.wilson@gmail.com",
			AdmissionDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			BloodGroup:    "O+",
			IsActive:      true,
		},
		{
			BaseModel:     models.BaseModel{ID: 2, CreatedAt: time.Date(2025, 8, 15, 2, 28, 57, 0, time.UTC)},
			UserID:        6,
			StudentID:     "STU2025002",
			RollNumber:    "1",
			ClassID:       &class2,
			Gender:        "M",
			GuardianName:  "Linda Brown",
			GuardianPhone: "0897654321",
			AdmissionDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			BloodGroup:    "A+",
			IsActive:      true,
		},
	}

	for _, student := range students {
		if err := database.DB.Create(&student).Error; err != nil {
			log.Printf("Error seeding student %s: %v", student.StudentID, err)
		}
	}

	log.Println("Students seeded successfully")
}

// SeedAssignments seeds the assignments table
func SeedAssignments() {
	var count int64
	database.DB.Model(&models.Assignment{}).Count(&count)
	if count > 0 {
		log.Println("Assignments already seeded, skipping...")
		return
	}

	assignments := []models.Assignment{
		{
			BaseModel:      models.BaseModel{ID: 1, CreatedAt: time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)},
			Title:          "Algebra Worksheet 1",
			Description:    "Linear equations practice set",
			SubjectID:      1,
			ClassID:        1,
			TeacherID:      1,
			AssignmentType: "homework",
			TotalMarks:     50,
			DueDate:        time.Date(2025, 9, 1, 23, 59, 0, 0, time.UTC),
			IsActive:       true,
		},
		{
			BaseModel:      models.BaseModel{ID: 2, CreatedAt: time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)},
			Title:          "Essay: My Summer",
			Description:    "Five paragraph essay",
			SubjectID:      2,
			ClassID:        2,
			TeacherID:      2,
			AssignmentType: "project",
			TotalMarks:     100,
			DueDate:        time.Date(2025, 9, 5, 23, 59, 0, 0, time.UTC),
			IsActive:       true,
		},
	}

	for _, assignment := range assignments {
		if err := database.DB.Create(&assignment).Error; err != nil {
			log.Printf("Error seeding assignment %s: %v", assignment.Title, err)
		}
	}

	log.Println("Assignments seeded successfully")
}
