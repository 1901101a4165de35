package models

// Semester enumerates the terms an offering can run in.
type Semester string

const (
	SemesterAutumn Semester = "autumn"
	SemesterSpring Semester = "spring"
	SemesterSummer Semester = "summer"
)

// StaffRole enumerates staff positions on a course offering.
type StaffRole string

const (
	StaffRoleLecturer  StaffRole = "lecturer"
	StaffRoleAssistant StaffRole = "assistant"
	StaffRoleLab       StaffRole = "lab"
	StaffRoleOther     StaffRole = "other"
)

// Course is a catalog entry identified by a unique code.
type Course struct {
	ID          string  `db:"id" json:"id"`
	Code        string  `db:"code" json:"code"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// CourseOffering is a concrete run of a course in a given year and semester.
type CourseOffering struct {
	ID              string   `db:"id" json:"id"`
	CourseID        string   `db:"course_id" json:"course_id"`
	AcademicYear    string   `db:"academic_year" json:"academic_year"`
	Semester        Semester `db:"semester" json:"semester"`
	MainProfessorID string   `db:"main_professor_id" json:"main_professor_id"`
}

// CourseStaff links a user to an offering with a staff role.
type CourseStaff struct {
	OfferingID string    `db:"offering_id" json:"offering_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Role       StaffRole `db:"role" json:"role"`
}

// OfferingDetail combines an offering with its course and staff.
type OfferingDetail struct {
	CourseOffering
	Course *Course       `json:"course,omitempty"`
	Staff  []StaffMember `json:"staff,omitempty"`
}

// StaffMember is a staff row joined with user identity.
type StaffMember struct {
	UserID   string    `db:"user_id" json:"user_id"`
	FullName string    `db:"full_name" json:"full_name"`
	Email    string    `db:"email" json:"email"`
	Role     StaffRole `db:"role" json:"role"`
}

// CascadeResult reports what an offering deletion removed.
type CascadeResult struct {
	DeletedStaffCount    int `json:"deleted_staff_count"`
	DeletedProjectsCount int `json:"deleted_projects_count"`
}
