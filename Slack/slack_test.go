package Slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Attendance/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLeave() Models.Leave {
	return Models.Leave{
		ID:        "leave-1",
		LeaveType: Models.LeaveType{ID: "annual", Name: "Annual", MaxDays: 21, Criterion: Models.CriterionYearly},
		Remark:    "family trip",
		Status:    Models.LeavePending,
		AppliedAt: time.Date(2024, time.August, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestSlackNotifierPostsWebhook(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "#hr")
	require.NoError(t, n.LeaveApplied(context.Background(), sampleLeave()))

	assert.Equal(t, "Leave request submitted", payload["text"])
	assert.Equal(t, "#hr", payload["channel"])
	attachments, ok := payload["attachments"].([]interface{})
	require.True(t, ok)
	require.Len(t, attachments, 1)

	first := attachments[0].(map[string]interface{})
	assert.Equal(t, "Annual leave applied on Aug 15, 2024 09:30: family trip", first["text"])
}

func TestSlackNotifierReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, "")
	assert.Error(t, n.LeaveApproved(context.Background(), sampleLeave()))
}
