package models

// ProjectSummaryRow aggregates one project's standing inside an offering.
type ProjectSummaryRow struct {
	ProjectID         string   `json:"project_id"`
	Title             string   `json:"title"`
	DeliverableCount  int      `json:"deliverable_count"`
	FinalGradesCount  int      `json:"final_grades_count"`
	AverageFinalScore *float64 `json:"average_final_score,omitempty"`
}

// OfferingSummary is the professor-facing report for one offering.
type OfferingSummary struct {
	Offering CourseOffering      `json:"offering"`
	Course   *Course             `json:"course,omitempty"`
	Stats    OfferingStats       `json:"stats"`
	Projects []ProjectSummaryRow `json:"projects"`
}

// OfferingStats carries offering-wide aggregates.
type OfferingStats struct {
	ProjectCount             int      `json:"project_count"`
	ProjectsWithFinalGrades  int      `json:"projects_with_final_grades"`
	AverageOfProjectAverages *float64 `json:"average_of_project_averages,omitempty"`
}

// ProjectReport summarises a single project's deliverables and finals.
type ProjectReport struct {
	Project      Project             `json:"project"`
	Deliverables []Deliverable       `json:"deliverables"`
	FinalGrades  []ProjectFinalGrade `json:"final_grades"`
}

// ReportFormat selects the rendering for summary exports.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)
