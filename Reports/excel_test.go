package Reports

import (
	"testing"
	"time"

	"Attendance/Models"
	"Attendance/Services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildAttendanceWorkbook(t *testing.T) {
	lat, lng := 30.0444, 31.2357
	in := time.Date(2024, time.August, 14, 9, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)

	buf, err := BuildAttendanceWorkbook(Workbook{
		Attendance: []Models.Attendance{
			{ID: "a1", Timestamp: in, Type: Models.AttendanceCheckIn, Latitude: &lat, Longitude: &lng, UploadStatus: Models.UploadUploaded},
			{ID: "a2", Timestamp: out, Type: Models.AttendanceCheckOut},
		},
		Days: []Services.DaySummary{
			{Date: "2024-08-14", FirstCheckIn: &in, LastCheckOut: &out, WorkedMinutes: 480, Marks: 2},
		},
		Leaves: []Models.Leave{
			{ID: "l1", LeaveType: Models.LeaveType{Name: "Annual"}, Status: Models.LeavePending, AppliedAt: in},
		},
		Location: time.UTC,
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{AttendanceSheet, SummarySheet, LeavesSheet}, f.GetSheetList())

	rows, err := f.GetRows(AttendanceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Time", rows[0][1])
	assert.Equal(t, []string{"a1", "2024-08-14 09:00:00", "check_in"}, rows[1][:3])
	assert.Equal(t, "30.0444", rows[1][4])
	assert.Equal(t, "uploaded", rows[1][7])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "2024-08-14", summary[1][0])
	assert.Equal(t, "8", summary[1][3])
	assert.Equal(t, "No", summary[1][4])

	leaves, err := f.GetRows(LeavesSheet)
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	assert.Equal(t, []string{"l1", "Annual", "pending"}, leaves[1][:3])
}

func TestBuildEmptyWorkbook(t *testing.T) {
	buf, err := BuildAttendanceWorkbook(Workbook{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(AttendanceSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
