package models

import "time"

// School is the tenant boundary; every other record hangs off a school ID.
type School struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Student master data. The pipeline reads ParentID; lifecycle is owned by
// the sync endpoint and upstream spreadsheet tooling.
type Student struct {
	StudentID       string    `db:"student_id" json:"student_id"`
	SchoolID        string    `db:"school_id" json:"school_id"`
	AdmissionNumber string    `db:"admission_number" json:"admission_number"`
	Name            string    `db:"name" json:"name"`
	Gender          string    `db:"gender" json:"gender"`
	Class           string    `db:"class" json:"class"`
	Section         string    `db:"section" json:"section"`
	BloodGroup      *string   `db:"blood_group" json:"blood_group,omitempty"`
	BoardingType    *string   `db:"boarding_type" json:"boarding_type,omitempty"`
	AdmissionDate   string    `db:"admission_date" json:"admission_date"`
	AcademicYear    string    `db:"academic_year" json:"academic_year"`
	ParentID        *string   `db:"parent_id" json:"parent_id,omitempty"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Parent master data; FCMToken is the push-delivery address.
type Parent struct {
	ParentID       string    `db:"parent_id" json:"parent_id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	FatherName     string    `db:"father_name" json:"father_name"`
	FatherPhone    string    `db:"father_phone" json:"father_phone"`
	MotherName     string    `db:"mother_name" json:"mother_name"`
	MotherPhone    string    `db:"mother_phone" json:"mother_phone"`
	GuardianName   string    `db:"guardian_name" json:"guardian_name"`
	GuardianPhone  string    `db:"guardian_phone" json:"guardian_phone"`
	PrimaryContact string    `db:"primary_contact" json:"primary_contact"`
	Address        string    `db:"address" json:"address"`
	FCMToken       *string   `db:"fcm_token" json:"fcm_token,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Teacher master data.
type Teacher struct {
	TeacherID         string    `db:"teacher_id" json:"teacher_id"`
	SchoolID          string    `db:"school_id" json:"school_id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	Phone             string    `db:"phone" json:"phone"`
	CanTakeAttendance bool      `db:"can_take_attendance" json:"can_take_attendance"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Counter is the per-(school, prefix) sequential ID cell. Mutated only
// inside the transaction that also creates the new entity.
type Counter struct {
	SchoolID   string `db:"school_id" json:"school_id"`
	Prefix     string `db:"prefix" json:"prefix"`
	LastNumber int    `db:"last_number" json:"last_number"`
}

// ID prefixes for sequential allocation.
const (
	PrefixStudent = "S"
	PrefixParent  = "P"
	PrefixTeacher = "T"
)
