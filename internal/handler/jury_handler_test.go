package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/internal/service"
	"github.com/campuslab/project-jury-api/pkg/config"
)

type juryRepoStub struct{}

func (juryRepoStub) EligiblePoolTx(ctx context.Context, tx *sqlx.Tx, projectID, groupID, deliverableID string) ([]string, error) {
	return nil, nil
}

func (juryRepoStub) CreateBatchTx(ctx context.Context, tx *sqlx.Tx, assignments []models.JuryAssignment) error {
	return nil
}

func (juryRepoStub) ListByDeliverable(ctx context.Context, deliverableID string) ([]models.JuryAssignmentDetail, error) {
	return nil, nil
}

func (juryRepoStub) ListByJuror(ctx context.Context, jurorID string) ([]models.JurorTask, error) {
	return nil, nil
}

type missingDeliverableStub struct{}

func (missingDeliverableStub) FindByID(ctx context.Context, id string) (*models.Deliverable, error) {
	return nil, sql.ErrNoRows
}

type projectReaderStub struct{}

func (projectReaderStub) FindByID(ctx context.Context, id string) (*models.Project, error) {
	return nil, sql.ErrNoRows
}

func newJuryTestHandler() *JuryHandler {
	svc := service.NewJuryService(nil, juryRepoStub{}, missingDeliverableStub{}, projectReaderStub{}, nil, config.JuryConfig{}, nil)
	return NewJuryHandler(svc, nil)
}

// A reassign request without a body uses the default count; the handler must
// reach the service instead of rejecting the empty payload.
func TestJuryHandlerReassignEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newJuryTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/deliverables/d1/jury/reassign", http.NoBody)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	handler.Reassign(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestJuryHandlerReassignMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newJuryTestHandler()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/deliverables/d1/jury/reassign", bytes.NewReader([]byte(`{"count":`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	handler.Reassign(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
