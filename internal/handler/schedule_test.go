package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/segyhp/invoice-followups/internal/domain"
	"github.com/segyhp/invoice-followups/internal/mocks"
	customError "github.com/segyhp/invoice-followups/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testScheduleID = uuid.MustParse("a3c1d9f2-6b1e-4e0f-8d0a-2c5b7e9f1a02")
	testTemplateID = uuid.MustParse("c7e2b4a1-9d3f-4a6b-8e1c-5f0d2a7b3c03")
)

func newScheduleRouter(svc *mocks.MockScheduleService) http.Handler {
	logger, _ := test.NewNullLogger()
	return newTestRouter(NewScheduleHandler(svc, logger))
}

func TestScheduleHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*mocks.MockScheduleService)
		expectedStatus int
		expectedFields map[string]interface{}
	}{
		{
			name: "creates schedule",
			body: map[string]interface{}{
				"name": "Standard",
				"steps": []map[string]interface{}{
					{"template_id": testTemplateID, "day_offset": -3, "order": 0},
					{"template_id": testTemplateID, "day_offset": 7, "order": 1},
				},
			},
			setupMock: func(svc *mocks.MockScheduleService) {
				svc.On("Create", mock.Anything, testAccountID, mock.MatchedBy(func(req *domain.CreateScheduleRequest) bool {
					return req.Name == "Standard" && len(req.Steps) == 2 && req.Steps[0].DayOffset == -3
				})).Return(&domain.Schedule{ID: testScheduleID, Name: "Standard", IsActive: true}, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "requires at least one step",
			body:           map[string]interface{}{"name": "Empty", "steps": []interface{}{}},
			setupMock:      func(svc *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
			expectedFields: map[string]interface{}{"steps": "min"},
		},
		{
			name: "validates nested steps",
			body: map[string]interface{}{
				"name":  "Bad",
				"steps": []map[string]interface{}{{"day_offset": 400}},
			},
			setupMock:      func(svc *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
			expectedFields: map[string]interface{}{
				"steps[0].template_id": "required",
				"steps[0].day_offset":  "lte",
			},
		},
		{
			name: "unknown template",
			body: map[string]interface{}{
				"name":  "Standard",
				"steps": []map[string]interface{}{{"template_id": testTemplateID, "day_offset": 0}},
			},
			setupMock: func(svc *mocks.MockScheduleService) {
				svc.On("Create", mock.Anything, testAccountID, mock.Anything).
					Return(nil, customError.WrapTemplateNotFound(testTemplateID.String())).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockScheduleService{}
			tt.setupMock(svc)

			w := doRequest(t, newScheduleRouter(svc), http.MethodPost, "/api/v1/schedules", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedFields != nil {
				body := decodeBody(t, w, nil)
				assert.Equal(t, tt.expectedFields, body.Error.Details["fields"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestScheduleHandler_List(t *testing.T) {
	svc := &mocks.MockScheduleService{}
	svc.On("List", mock.Anything, testAccountID).Return([]*domain.Schedule{
		{ID: testScheduleID, Name: "Standard", IsDefault: true},
	}, nil).Once()

	w := doRequest(t, newScheduleRouter(svc), http.MethodGet, "/api/v1/schedules", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var schedules []*domain.Schedule
	decodeBody(t, w, &schedules)
	require.Len(t, schedules, 1)
	assert.True(t, schedules[0].IsDefault)
	svc.AssertExpectations(t)
}

func TestScheduleHandler_SetActive(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*mocks.MockScheduleService)
		expectedStatus int
	}{
		{
			name: "deactivates and reports regenerated invoices",
			body: map[string]interface{}{"is_active": false},
			setupMock: func(svc *mocks.MockScheduleService) {
				svc.On("SetActive", mock.Anything, testAccountID, testScheduleID, false).Return(&domain.ScheduleChangeResponse{
					Schedule:              &domain.Schedule{ID: testScheduleID},
					RegeneratedInvoiceIDs: []string{testInvoiceID.String()},
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "requires is_active",
			body:           map[string]interface{}{},
			setupMock:      func(svc *mocks.MockScheduleService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockScheduleService{}
			tt.setupMock(svc)

			w := doRequest(t, newScheduleRouter(svc), http.MethodPut, "/api/v1/schedules/"+testScheduleID.String()+"/active", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestScheduleHandler_UpdateSteps(t *testing.T) {
	svc := &mocks.MockScheduleService{}
	svc.On("UpdateSteps", mock.Anything, testAccountID, testScheduleID, mock.MatchedBy(func(req *domain.UpdateScheduleStepsRequest) bool {
		return len(req.Steps) == 1 && req.Steps[0].TemplateID == testTemplateID
	})).Return(&domain.ScheduleChangeResponse{Schedule: &domain.Schedule{ID: testScheduleID}}, nil).Once()

	w := doRequest(t, newScheduleRouter(svc), http.MethodPut, "/api/v1/schedules/"+testScheduleID.String()+"/steps",
		map[string]interface{}{"steps": []map[string]interface{}{{"template_id": testTemplateID, "day_offset": 5}}})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestScheduleHandler_SetDefault(t *testing.T) {
	svc := &mocks.MockScheduleService{}
	svc.On("SetDefault", mock.Anything, testAccountID, testScheduleID).
		Return(&domain.Schedule{ID: testScheduleID, IsDefault: true}, nil).Once()

	w := doRequest(t, newScheduleRouter(svc), http.MethodPost, "/api/v1/schedules/"+testScheduleID.String()+"/default", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestScheduleHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "deleted", expectedStatus: http.StatusNoContent},
		{
			name:           "still referenced",
			err:            customError.NewBusinessError(customError.ErrCodeScheduleInUse, "in use", customError.ErrScheduleInUse),
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "default schedule",
			err:            customError.NewBusinessError(customError.ErrCodeScheduleDefaultLocked, "default", customError.ErrScheduleDefaultLocked),
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "not found",
			err:            customError.WrapScheduleNotFound(testScheduleID.String()),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockScheduleService{}
			svc.On("Delete", mock.Anything, testAccountID, testScheduleID).Return(tt.err).Once()

			w := doRequest(t, newScheduleRouter(svc), http.MethodDelete, "/api/v1/schedules/"+testScheduleID.String(), nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
