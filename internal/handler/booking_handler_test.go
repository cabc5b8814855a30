package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/tutorhub-api/internal/middleware"
	"github.com/edustack/tutorhub-api/internal/models"
	"github.com/edustack/tutorhub-api/internal/service"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
	"github.com/edustack/tutorhub-api/pkg/export"
)

type bookingServiceMock struct {
	createResp    *models.Booking
	createErr     error
	createCalled  bool
	lastStudentID string
	listResp      []models.Booking
	listErr       error
	lastStatus    string
	cancelResp    *models.Booking
	cancelErr     error
	statement     export.Statement
	statementErr  error
}

func (m *bookingServiceMock) Create(ctx context.Context, studentID string, req service.CreateBookingRequest) (*models.Booking, error) {
	m.createCalled = true
	m.lastStudentID = studentID
	return m.createResp, m.createErr
}

func (m *bookingServiceMock) GetByID(ctx context.Context, callerID string, role models.UserRole, bookingID string) (*models.Booking, error) {
	return m.createResp, m.createErr
}

func (m *bookingServiceMock) Cancel(ctx context.Context, callerID string, role models.UserRole, bookingID string) (*models.Booking, error) {
	return m.cancelResp, m.cancelErr
}

func (m *bookingServiceMock) Complete(ctx context.Context, tutorUserID, bookingID string) (*models.Booking, error) {
	return m.createResp, m.createErr
}

func (m *bookingServiceMock) List(ctx context.Context, callerID string, role models.UserRole, statusFilter string) ([]models.Booking, error) {
	m.lastStatus = statusFilter
	return m.listResp, m.listErr
}

func (m *bookingServiceMock) Statement(ctx context.Context, callerID string, role models.UserRole, statusFilter string) (export.Statement, error) {
	return m.statement, m.statementErr
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
}

func TestBookingHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{
		createResp: &models.Booking{ID: "b-1", Status: models.BookingConfirmed},
	}
	handler := NewBookingHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateBookingRequest{
		TutorID: "tutor-1",
		Subject: "Algebra",
		StartAt: time.Date(2026, 1, 7, 14, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 1, 7, 15, 0, 0, 0, time.UTC),
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
	assert.Equal(t, "student-1", mockSvc.lastStudentID)
}

func TestBookingHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(&bookingServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(`{"tutor_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{
		createErr: appErrors.Clone(appErrors.ErrConflict, "tutor not available: existing booking"),
	}
	handler := NewBookingHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateBookingRequest{
		TutorID: "tutor-1",
		Subject: "Algebra",
		StartAt: time.Date(2026, 1, 7, 14, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 1, 7, 15, 0, 0, 0, time.UTC),
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandlerListPassesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{listResp: []models.Booking{{ID: "b-1"}}}
	handler := NewBookingHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/bookings?status=confirmed", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CONFIRMED", mockSvc.lastStatus)
}

func TestBookingHandlerCancelInvalidState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{
		cancelErr: appErrors.Clone(appErrors.ErrInvalidState, "booking already cancelled"),
	}
	handler := NewBookingHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/bookings/b-1/cancel", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Cancel(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBookingHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &bookingServiceMock{
		statement: export.Statement{
			Headers: []string{"Subject", "Price"},
			Rows:    []map[string]string{{"Subject": "Algebra", "Price": "40.00"}},
			Footer:  map[string]string{"Subject": "Total", "Price": "40.00"},
		},
	}
	handler := NewBookingHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/bookings/export?format=csv", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Algebra")
	assert.Contains(t, w.Body.String(), "Total")
}

func TestBookingHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBookingHandler(&bookingServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/bookings/export?format=xml", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, studentClaims())

	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
