package Controllers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"Attendance/middleware"

	"github.com/gofiber/fiber/v2"
)

// LogGroup represents a group of logs by method and path
type LogGroup struct {
	Path        string               `json:"path"`
	Method      string               `json:"method"`
	Count       int                  `json:"count"`
	AvgLatency  float64              `json:"avg_latency_ms"`
	MinLatency  float64              `json:"min_latency_ms"`
	MaxLatency  float64              `json:"max_latency_ms"`
	SuccessRate float64              `json:"success_rate"`
	Logs        []middleware.LogData `json:"logs"`
}

// LogsResponse represents the response structure for logs API
type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"total_logs"`
	TotalGroups int        `json:"total_groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	DateFrom    time.Time  `json:"date_from"`
	DateTo      time.Time  `json:"date_to"`
}

// LogsController reads the request log written by middleware.RequestLogger
type LogsController struct {
	File string
	Now  func() time.Time
}

func NewLogsController(file string) *LogsController {
	return &LogsController{File: file, Now: time.Now}
}

// GetLogs retrieves logs with pagination, date filtering, and grouping.
// Without from/to only today's requests are returned.
func (c *LogsController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	now := c.Now()
	dateFrom, dateTo, err := dateRange(ctx, now, dayStart(now))
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	logs, err := readLogsFromFile(c.File, dateFrom, dateTo)
	if err != nil {
		log.Printf("Error reading logs: %v", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read logs",
		})
	}

	filtered := filterLogs(logs, ctx.Query("path"), ctx.Query("method"), ctx.Query("status"))
	groups := groupLogsByPath(filtered)

	totalGroups := len(groups)
	start := (page - 1) * pageSize
	if start > totalGroups {
		start = totalGroups
	}
	end := start + pageSize
	if end > totalGroups {
		end = totalGroups
	}

	return ctx.JSON(LogsResponse{
		Groups:      groups[start:end],
		TotalLogs:   len(filtered),
		TotalGroups: totalGroups,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (totalGroups + pageSize - 1) / pageSize,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
	})
}

// readLogsFromFile reads JSON log lines with from <= timestamp < to. A missing
// file means nothing was logged yet.
func readLogsFromFile(filePath string, from, to time.Time) ([]middleware.LogData, error) {
	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var logs []middleware.LogData
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry middleware.LogData
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// Skip invalid JSON lines
			continue
		}
		if !entry.Timestamp.Before(from) && entry.Timestamp.Before(to) {
			logs = append(logs, entry)
		}
	}
	return logs, scanner.Err()
}

// filterLogs filters logs by path, method, and status
func filterLogs(logs []middleware.LogData, pathFilter, methodFilter, statusFilter string) []middleware.LogData {
	status, statusErr := strconv.Atoi(statusFilter)

	var filtered []middleware.LogData
	for _, entry := range logs {
		if pathFilter != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(pathFilter)) {
			continue
		}
		if methodFilter != "" && !strings.EqualFold(entry.Method, methodFilter) {
			continue
		}
		if statusFilter != "" && statusErr == nil && entry.Status != status {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

// groupLogsByPath groups logs by method and path, busiest first
func groupLogsByPath(logs []middleware.LogData) []LogGroup {
	groupMap := make(map[string]*LogGroup)
	successes := make(map[string]int)

	for _, entry := range logs {
		key := fmt.Sprintf("%s %s", entry.Method, entry.Path)
		latencyMs := float64(entry.Latency.Microseconds()) / 1000.0

		group, exists := groupMap[key]
		if !exists {
			group = &LogGroup{Path: entry.Path, Method: entry.Method, MinLatency: latencyMs}
			groupMap[key] = group
		}
		group.Count++
		group.Logs = append(group.Logs, entry)
		group.AvgLatency += (latencyMs - group.AvgLatency) / float64(group.Count)
		if latencyMs < group.MinLatency {
			group.MinLatency = latencyMs
		}
		if latencyMs > group.MaxLatency {
			group.MaxLatency = latencyMs
		}
		if entry.Status >= 200 && entry.Status < 300 {
			successes[key]++
		}
		group.SuccessRate = float64(successes[key]) / float64(group.Count)
	}

	groups := make([]LogGroup, 0, len(groupMap))
	for _, group := range groupMap {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Method+groups[i].Path < groups[j].Method+groups[j].Path
	})
	return groups
}
