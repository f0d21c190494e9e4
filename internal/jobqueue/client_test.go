package jobqueue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solhaug/microstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_GetJobs(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/jobs", r.URL.Path)
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]*models.Job{
			{ID: "job-1", Operation: models.OperationAdd, Status: models.JobQueued},
			{ID: "job-2", Operation: models.OperationBump, Status: models.JobQueued},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	jobs, err := c.GetJobs(context.Background(), JobFilter{
		Statuses:   []models.JobStatus{models.JobQueued},
		Operations: []models.JobOperation{models.OperationAdd, models.OperationBump},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.Equal(t, "operation=ADD&operation=BUMP&status=queued", gotQuery)
}

func TestHTTPClient_UpdateJobStatus(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/jobs/job-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	err := c.UpdateJobStatus(context.Background(), "job-1", models.JobFailed, "went wrong")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "failed", "log": "went wrong"}, gotBody)
}

func TestHTTPClient_UpdateDescription(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	require.NoError(t, c.UpdateDescription(context.Background(), "job-1", "Add income"))
	assert.Equal(t, map[string]string{"description": "Add income"}, gotBody)
}

func TestHTTPClient_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "no such job"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	err := c.UpdateJobStatus(context.Background(), "missing", models.JobCompleted, "")
	require.Error(t, err)

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "no such job", se.Message)
}

func TestHTTPClient_ServiceErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.GetJobs(context.Background(), JobFilter{})
	require.Error(t, err)

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.Status)
	assert.Equal(t, "boom", se.Message)
}
