package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shikshalink/attendance-api/internal/middleware"
	"github.com/shikshalink/attendance-api/internal/models"
	"github.com/shikshalink/attendance-api/internal/service"
)

type dayRepoMock struct {
	existing *models.DayRecord
	upserted *models.DayRecord
}

func (m *dayRepoMock) Get(ctx context.Context, schoolID, classSectionID string, date time.Time) (*models.DayRecord, error) {
	return m.existing, nil
}

func (m *dayRepoMock) Upsert(ctx context.Context, rec *models.DayRecord) (*models.DayRecord, *models.DayRecord, error) {
	m.upserted = rec
	return m.existing, rec, nil
}

func (m *dayRepoMock) Unlock(ctx context.Context, schoolID, classSectionID string, date time.Time, unlockedBy string) error {
	return nil
}

func newAttendanceTestContext(t *testing.T, method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, "/attendance", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{
		{Key: "schoolId", Value: "SCH1"},
		{Key: "classSectionId", Value: "5-A"},
		{Key: "date", Value: "2026-03-10"},
	}
	return c, w
}

func TestAttendanceHandlerMarkDay(t *testing.T) {
	repo := &dayRepoMock{}
	svc := service.NewAttendanceService(repo, nil, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc)

	body := `{"students":{"S001":{"studentName":"Asha","rollNumber":"1","status":"A"}}}`
	c, w := newAttendanceTestContext(t, http.MethodPut, body)

	handler.MarkDay(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, "SCH1", repo.upserted.SchoolID)
	assert.Equal(t, models.AttendanceStatusAbsent, repo.upserted.Students["S001"].Status)
}

func TestAttendanceHandlerMarkDayLockedConflict(t *testing.T) {
	repo := &dayRepoMock{existing: &models.DayRecord{Meta: models.DayMeta{Locked: true}}}
	svc := service.NewAttendanceService(repo, nil, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc)

	c, w := newAttendanceTestContext(t, http.MethodPut, `{"students":{}}`)

	handler.MarkDay(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "LOCKED")
}

func TestAttendanceHandlerGetDayNotFound(t *testing.T) {
	svc := service.NewAttendanceService(&dayRepoMock{}, nil, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc)

	c, w := newAttendanceTestContext(t, http.MethodGet, "")

	handler.GetDay(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandlerUnlockForbiddenForTeacher(t *testing.T) {
	svc := service.NewAttendanceService(&dayRepoMock{}, nil, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc)

	c, w := newAttendanceTestContext(t, http.MethodPost, "")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "U1", SchoolID: "SCH1", Role: models.RoleTeacher})

	handler.Unlock(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAttendanceHandlerUnlockAsAdmin(t *testing.T) {
	svc := service.NewAttendanceService(&dayRepoMock{}, nil, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc)

	c, w := newAttendanceTestContext(t, http.MethodPost, "")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "U1", SchoolID: "SCH1", Role: models.RoleAdmin})

	handler.Unlock(c)
	require.Equal(t, http.StatusOK, w.Code)
}
