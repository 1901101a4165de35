package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campuslab/project-jury-api/internal/models"
)

// OfferingRepository handles persistence of course offerings and staff links.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository constructs the repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// Create persists a new course offering.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.CourseOffering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	const query = `INSERT INTO course_offerings (id, course_id, academic_year, semester, main_professor_id)
        VALUES (:id, :course_id, :academic_year, :semester, :main_professor_id)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// FindByID returns an offering by its ID.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.CourseOffering, error) {
	const query = `SELECT id, course_id, academic_year, semester, main_professor_id FROM course_offerings WHERE id = $1`
	var offering models.CourseOffering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// ListByCourse returns offerings of a course, newest academic year first.
func (r *OfferingRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CourseOffering, error) {
	const query = `SELECT id, course_id, academic_year, semester, main_professor_id
        FROM course_offerings WHERE course_id = $1 ORDER BY academic_year DESC, semester ASC`
	var offerings []models.CourseOffering
	if err := r.db.SelectContext(ctx, &offerings, query, courseID); err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}
	return offerings, nil
}

// ListByProfessor returns offerings where the user is main professor.
func (r *OfferingRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.CourseOffering, error) {
	const query = `SELECT id, course_id, academic_year, semester, main_professor_id
        FROM course_offerings WHERE main_professor_id = $1 ORDER BY academic_year DESC, semester ASC`
	var offerings []models.CourseOffering
	if err := r.db.SelectContext(ctx, &offerings, query, professorID); err != nil {
		return nil, fmt.Errorf("list offerings by professor: %w", err)
	}
	return offerings, nil
}

// ListStaff returns staff rows joined with user identity.
func (r *OfferingRepository) ListStaff(ctx context.Context, offeringID string) ([]models.StaffMember, error) {
	const query = `SELECT cs.user_id, u.full_name, u.email, cs.role
        FROM course_staff cs JOIN users u ON u.id = cs.user_id
        WHERE cs.offering_id = $1 ORDER BY u.full_name`
	var staff []models.StaffMember
	if err := r.db.SelectContext(ctx, &staff, query, offeringID); err != nil {
		return nil, fmt.Errorf("list offering staff: %w", err)
	}
	return staff, nil
}

// UpsertStaff creates or updates a staff link on an offering.
func (r *OfferingRepository) UpsertStaff(ctx context.Context, staff *models.CourseStaff) error {
	const query = `INSERT INTO course_staff (offering_id, user_id, role) VALUES (:offering_id, :user_id, :role)
        ON CONFLICT (offering_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("upsert offering staff: %w", err)
	}
	return nil
}

// DeleteStaffTx removes every staff link of an offering inside the given
// transaction and returns the number of rows removed.
func (r *OfferingRepository) DeleteStaffTx(ctx context.Context, tx *sqlx.Tx, offeringID string) (int, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM course_staff WHERE offering_id = $1`, offeringID)
	if err != nil {
		return 0, fmt.Errorf("delete offering staff: %w", err)
	}
	return rowsAffected(result)
}

// DeleteProjectsTx removes every project scoped to an offering inside the
// given transaction and returns the number of rows removed. Project members
// and final grades go with their projects; deliverables are detached by the
// schema (project_id set to null) and keep their jury assignments and grades.
func (r *OfferingRepository) DeleteProjectsTx(ctx context.Context, tx *sqlx.Tx, offeringID string) (int, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id IN
        (SELECT id FROM projects WHERE offering_id = $1)`, offeringID); err != nil {
		return 0, fmt.Errorf("delete project members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_final_grades WHERE project_id IN
        (SELECT id FROM projects WHERE offering_id = $1)`, offeringID); err != nil {
		return 0, fmt.Errorf("delete project final grades: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE offering_id = $1`, offeringID)
	if err != nil {
		return 0, fmt.Errorf("delete offering projects: %w", err)
	}
	return rowsAffected(result)
}

// DeleteGradingTx removes deliverables, files, jury assignments, grades and
// final grades belonging to an offering's projects, inside the given
// transaction. Used only when deep cascade is enabled.
func (r *OfferingRepository) DeleteGradingTx(ctx context.Context, tx *sqlx.Tx, offeringID string) error {
	statements := []string{
		`DELETE FROM grades WHERE deliverable_id IN
            (SELECT d.id FROM deliverables d JOIN projects p ON p.id = d.project_id WHERE p.offering_id = $1)`,
		`DELETE FROM jury_assignments WHERE deliverable_id IN
            (SELECT d.id FROM deliverables d JOIN projects p ON p.id = d.project_id WHERE p.offering_id = $1)`,
		`DELETE FROM project_final_grades WHERE project_id IN
            (SELECT id FROM projects WHERE offering_id = $1)`,
		`DELETE FROM deliverable_files WHERE deliverable_id IN
            (SELECT d.id FROM deliverables d JOIN projects p ON p.id = d.project_id WHERE p.offering_id = $1)`,
		`DELETE FROM deliverables WHERE project_id IN
            (SELECT id FROM projects WHERE offering_id = $1)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, offeringID); err != nil {
			return fmt.Errorf("cascade grading rows: %w", err)
		}
	}
	return nil
}

// DeleteTx removes the offering row itself inside the given transaction.
func (r *OfferingRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, offeringID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_course_offerings WHERE offering_id = $1`, offeringID); err != nil {
		return fmt.Errorf("delete offering group links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM course_offerings WHERE id = $1`, offeringID); err != nil {
		return fmt.Errorf("delete offering: %w", err)
	}
	return nil
}

func rowsAffected(result interface{ RowsAffected() (int64, error) }) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}
