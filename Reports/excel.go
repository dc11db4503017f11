package Reports

import (
	"bytes"
	"fmt"
	"time"

	"Attendance/Models"
	"Attendance/Services"

	"github.com/xuri/excelize/v2"
)

const (
	AttendanceSheet = "Attendance"
	SummarySheet    = "Daily Summary"
	LeavesSheet     = "Leaves"

	timeLayout = "2006-01-02 15:04:05"
)

// Workbook is the input of an attendance export.
type Workbook struct {
	Attendance []Models.Attendance
	Days       []Services.DaySummary
	Leaves     []Models.Leave
	Location   *time.Location
}

// BuildAttendanceWorkbook renders the export as an xlsx file with one sheet
// for marks, one for the per-day summary and one for leaves.
func BuildAttendanceWorkbook(w Workbook) (*bytes.Buffer, error) {
	loc := w.Location
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6FA"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating header style: %v", err)
	}

	attendanceRows := make([][]interface{}, 0, len(w.Attendance))
	for _, a := range w.Attendance {
		var lat, lng interface{}
		if a.HasLocation() {
			lat, lng = *a.Latitude, *a.Longitude
		}
		attendanceRows = append(attendanceRows, []interface{}{
			a.ID,
			a.Timestamp.In(loc).Format(timeLayout),
			string(a.Type),
			string(a.VerificationMethod),
			lat,
			lng,
			a.DeviceID,
			string(a.UploadStatus),
		})
	}

	summaryRows := make([][]interface{}, 0, len(w.Days))
	for _, d := range w.Days {
		summaryRows = append(summaryRows, []interface{}{
			d.Date,
			formatOptional(d.FirstCheckIn, loc),
			formatOptional(d.LastCheckOut, loc),
			float64(d.WorkedMinutes) / 60,
			yesNo(d.OnLeave),
			yesNo(d.WorkFromHome),
			d.Marks,
		})
	}

	leaveRows := make([][]interface{}, 0, len(w.Leaves))
	for _, l := range w.Leaves {
		leaveRows = append(leaveRows, []interface{}{
			l.ID,
			l.LeaveType.Name,
			string(l.Status),
			l.AppliedAt.In(loc).Format(timeLayout),
			l.ApprovedBy,
			formatOptional(l.ApprovedAt, loc),
			l.Remark,
		})
	}

	sheets := []struct {
		name    string
		headers []string
		rows    [][]interface{}
	}{
		{AttendanceSheet, []string{"ID", "Time", "Type", "Verification", "Latitude", "Longitude", "Device", "Upload Status"}, attendanceRows},
		{SummarySheet, []string{"Date", "First Check-in", "Last Check-out", "Worked Hours", "Leave", "Work From Home", "Marks"}, summaryRows},
		{LeavesSheet, []string{"ID", "Leave Type", "Status", "Applied At", "Approved By", "Approved At", "Remark"}, leaveRows},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return nil, fmt.Errorf("error renaming sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("error creating sheet: %v", err)
		}
		if err := writeSheet(f, sheet.name, sheet.headers, sheet.rows, headerStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("error writing Excel file to buffer: %v", err)
	}
	return &buf, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("error writing %s headers: %v", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("error styling %s headers: %v", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing %s row %d: %v", sheet, i+2, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func formatOptional(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(timeLayout)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
