package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuslab/project-jury-api/internal/models"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type mockProjectStore struct {
	projects map[string]models.Project
	members  map[string]map[string]*models.ProjectMember
}

func newMockProjectStore() *mockProjectStore {
	return &mockProjectStore{
		projects: map[string]models.Project{},
		members:  map[string]map[string]*models.ProjectMember{},
	}
}

func (m *mockProjectStore) put(project models.Project, members ...models.ProjectMember) {
	m.projects[project.ID] = project
	bucket := map[string]*models.ProjectMember{}
	for i := range members {
		member := members[i]
		bucket[member.UserID] = &member
	}
	m.members[project.ID] = bucket
}

func (m *mockProjectStore) CreateTx(ctx context.Context, tx *sqlx.Tx, project *models.Project) error {
	if project.ID == "" {
		project.ID = "proj-new"
	}
	m.put(*project, models.ProjectMember{ProjectID: project.ID, UserID: project.CreatedByID, IsLeader: true})
	return nil
}

func (m *mockProjectStore) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if p, ok := m.projects[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProjectStore) ListByOffering(ctx context.Context, offeringID string) ([]models.Project, error) {
	var out []models.Project
	for _, p := range m.projects {
		if p.OfferingID != nil && *p.OfferingID == offeringID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectStore) ListByGroup(ctx context.Context, groupID string) ([]models.Project, error) {
	var out []models.Project
	for _, p := range m.projects {
		if p.GroupID != nil && *p.GroupID == groupID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectStore) ListByMember(ctx context.Context, userID string) ([]models.Project, error) {
	var out []models.Project
	for id, bucket := range m.members {
		if _, ok := bucket[userID]; ok {
			out = append(out, m.projects[id])
		}
	}
	return out, nil
}

func (m *mockProjectStore) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMemberDetail, error) {
	var out []models.ProjectMemberDetail
	for _, member := range m.members[projectID] {
		out = append(out, models.ProjectMemberDetail{UserID: member.UserID, IsLeader: member.IsLeader})
	}
	return out, nil
}

func (m *mockProjectStore) FindMember(ctx context.Context, projectID, userID string) (*models.ProjectMember, error) {
	if member, ok := m.members[projectID][userID]; ok {
		copied := *member
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProjectStore) AddMember(ctx context.Context, member *models.ProjectMember) error {
	if m.members[member.ProjectID] == nil {
		m.members[member.ProjectID] = map[string]*models.ProjectMember{}
	}
	copied := *member
	m.members[member.ProjectID][member.UserID] = &copied
	return nil
}

func (m *mockProjectStore) UpdateMemberLeadership(ctx context.Context, projectID, userID string, isLeader bool) error {
	m.members[projectID][userID].IsLeader = isLeader
	return nil
}

func (m *mockProjectStore) RemoveMember(ctx context.Context, projectID, userID string) error {
	delete(m.members[projectID], userID)
	return nil
}

func (m *mockProjectStore) CountLeaders(ctx context.Context, projectID, excludeUserID string) (int, error) {
	count := 0
	for _, member := range m.members[projectID] {
		if member.IsLeader && member.UserID != excludeUserID {
			count++
		}
	}
	return count, nil
}

type mockGroupReader struct {
	groups map[string]models.Group
}

func (m *mockGroupReader) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func testProjectService(t *testing.T, store *mockProjectStore) *ProjectService {
	t.Helper()
	db, _ := newTestDB(t)
	offerings := &mockOfferingRepo{offerings: map[string]models.CourseOffering{
		"off-1": {ID: "off-1", CourseID: "c1", AcademicYear: "2025/2026", Semester: models.SemesterAutumn, MainProfessorID: "prof-1"},
	}}
	groups := &mockGroupReader{groups: map[string]models.Group{"group-1": {ID: "group-1", Name: "Alpha"}}}
	users := &mockUserReader{users: map[string]models.User{
		"stu-1": {ID: "stu-1", Role: models.RoleStudent},
		"stu-2": {ID: "stu-2", Role: models.RoleStudent},
	}}
	return NewProjectService(db, store, offerings, groups, users, nil, nil)
}

func TestProjectCreateMakesCreatorLeader(t *testing.T) {
	store := newMockProjectStore()
	db, mock := newTestDB(t)
	svc := NewProjectService(db, store, &mockOfferingRepo{offerings: map[string]models.CourseOffering{}}, &mockGroupReader{}, &mockUserReader{}, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	project, err := svc.Create(context.Background(), models.Requester{ID: "stu-1", Role: models.RoleStudent}, CreateProjectRequest{Title: "Compiler"})
	require.NoError(t, err)

	member, err := store.FindMember(context.Background(), project.ID, "stu-1")
	require.NoError(t, err)
	require.True(t, member.IsLeader)
}

func TestProjectCreateUnknownGroup(t *testing.T) {
	store := newMockProjectStore()
	svc := testProjectService(t, store)

	missing := "group-missing"
	_, err := svc.Create(context.Background(), models.Requester{ID: "stu-1", Role: models.RoleStudent}, CreateProjectRequest{Title: "Compiler", GroupID: &missing})
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestProjectAddMemberRequiresLeaderOrStaff(t *testing.T) {
	store := newMockProjectStore()
	store.put(models.Project{ID: "proj-1", Title: "Compiler"},
		models.ProjectMember{ProjectID: "proj-1", UserID: "stu-1", IsLeader: true},
		models.ProjectMember{ProjectID: "proj-1", UserID: "stu-2", IsLeader: false},
	)
	svc := testProjectService(t, store)

	stranger := models.Requester{ID: "stu-9", Role: models.RoleStudent}
	err := svc.AddMember(context.Background(), stranger, "proj-1", "stu-2")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	plainMember := models.Requester{ID: "stu-2", Role: models.RoleStudent}
	err = svc.AddMember(context.Background(), plainMember, "proj-1", "stu-1")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	professor := models.Requester{ID: "prof-1", Role: models.RoleProfessor}
	err = svc.AddMember(context.Background(), professor, "proj-1", "stu-1")
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestProjectLeaderFloorOnDemotion(t *testing.T) {
	store := newMockProjectStore()
	store.put(models.Project{ID: "proj-1", Title: "Compiler"},
		models.ProjectMember{ProjectID: "proj-1", UserID: "stu-1", IsLeader: true},
		models.ProjectMember{ProjectID: "proj-1", UserID: "stu-2", IsLeader: false},
	)
	svc := testProjectService(t, store)
	admin := models.Requester{ID: "admin-1", Role: models.RoleAdmin}

	err := svc.UpdateLeadership(context.Background(), admin, "proj-1", "stu-1", false)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, svc.UpdateLeadership(context.Background(), admin, "proj-1", "stu-2", true))
	require.NoError(t, svc.UpdateLeadership(context.Background(), admin, "proj-1", "stu-1", false))
}

func TestProjectLeaderFloorOnRemoval(t *testing.T) {
	store := newMockProjectStore()
	store.put(models.Project{ID: "proj-1", Title: "Compiler"},
		models.ProjectMember{ProjectID: "proj-1", UserID: "stu-1", IsLeader: true},
		models.ProjectMember{ProjectID: "proj-1", UserID: "stu-2", IsLeader: false},
	)
	svc := testProjectService(t, store)
	admin := models.Requester{ID: "admin-1", Role: models.RoleAdmin}

	err := svc.RemoveMember(context.Background(), admin, "proj-1", "stu-1")
	require.ErrorIs(t, err, appErrors.ErrValidation)

	require.NoError(t, svc.RemoveMember(context.Background(), admin, "proj-1", "stu-2"))

	_, err = store.FindMember(context.Background(), "proj-1", "stu-2")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
