package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/middleware"
	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/internal/service"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Courses      *CourseHandler
	Offerings    *OfferingHandler
	Groups       *GroupHandler
	Projects     *ProjectHandler
	Deliverables *DeliverableHandler
	Jury         *JuryHandler
	Grades       *GradeHandler
	Reports      *ReportHandler
}

// RegisterRoutes mounts the API under prefix. Everything except
// registration and login requires a bearer token; role allow-lists are
// enforced per route and ownership checks live in the services.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleProfessor)
	admin := middleware.RequireRoles(models.RoleAdmin)

	secured.GET("/me", h.Auth.Me)
	secured.GET("/me/offerings", h.Offerings.Mine)
	secured.GET("/me/projects", h.Projects.Mine)
	secured.GET("/me/jury-tasks", h.Jury.Tasks)
	secured.GET("/me/grades", h.Grades.Mine)

	secured.GET("/users", staff, h.Users.List)
	secured.GET("/users/:id", middleware.RBAC("admin", "professor", "SELF"), h.Users.Get)
	secured.GET("/professors", h.Users.Professors)

	secured.POST("/courses", admin, h.Courses.Create)
	secured.GET("/courses", h.Courses.List)
	secured.GET("/courses/:id", h.Courses.Get)
	secured.GET("/courses/:id/offerings", h.Offerings.ListByCourse)

	secured.POST("/offerings", admin, h.Offerings.Create)
	secured.GET("/offerings/:id", h.Offerings.Get)
	secured.PUT("/offerings/:id/staff", staff, h.Offerings.UpsertStaff)
	secured.DELETE("/offerings/:id", staff, h.Offerings.Delete)
	secured.GET("/offerings/:id/groups", h.Offerings.Groups)
	secured.GET("/offerings/:id/projects", h.Offerings.Projects)
	secured.GET("/offerings/:id/summary", staff, h.Reports.OfferingSummary)
	secured.GET("/offerings/:id/summary/export", staff, h.Reports.Export)

	secured.POST("/groups", h.Groups.Create)
	secured.GET("/groups/:id", h.Groups.Get)
	secured.POST("/groups/:id/members", h.Groups.AddMember)
	secured.DELETE("/groups/:id/members/:userId", h.Groups.RemoveMember)
	secured.POST("/groups/:id/offerings/:offeringId", h.Groups.LinkOffering)
	secured.DELETE("/groups/:id/offerings/:offeringId", h.Groups.UnlinkOffering)
	secured.GET("/groups/:id/projects", h.Groups.Projects)

	secured.POST("/projects", h.Projects.Create)
	secured.GET("/projects/:id", h.Projects.Get)
	secured.POST("/projects/:id/members", h.Projects.AddMember)
	secured.PATCH("/projects/:id/members/:userId", h.Projects.UpdateLeadership)
	secured.DELETE("/projects/:id/members/:userId", h.Projects.RemoveMember)
	secured.GET("/projects/:id/deliverables", h.Projects.Deliverables)
	secured.GET("/projects/:id/final-grades", h.Projects.FinalGrades)
	secured.GET("/projects/:id/report", staff, h.Reports.ProjectReport)

	secured.POST("/deliverables", h.Deliverables.Create)
	secured.GET("/deliverables/:id", h.Deliverables.Get)
	secured.PUT("/deliverables/:id", h.Deliverables.Update)
	secured.POST("/deliverables/:id/files", h.Deliverables.AddFile)
	secured.GET("/deliverables/:id/files", h.Deliverables.Files)

	secured.POST("/deliverables/:id/jury/reassign", staff, h.Jury.Reassign)
	secured.GET("/deliverables/:id/jury", staff, h.Jury.List)

	secured.POST("/deliverables/:id/grades", middleware.RequireRoles(models.RoleStudent), h.Grades.Submit)
	secured.GET("/deliverables/:id/grades", staff, h.Grades.List)
	secured.POST("/deliverables/:id/recalculate", staff, h.Grades.Recalculate)
}
