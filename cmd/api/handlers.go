package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"attendance/internal/attendance"
	"attendance/internal/auth"
	"attendance/internal/config"
	"attendance/internal/leave"
)

func registerRoutes(r *gin.Engine, cfg config.App, svc *attendance.Service, leaveSvc *leave.Service, refresh auth.RefreshStore) {
	adapter := svc.Adapter()

	r.GET("/", func(c *gin.Context) {
		health := adapter.HealthCheck(c.Request.Context())
		students, _ := adapter.ListStudents(c.Request.Context())
		today, _ := adapter.ListDaily(c.Request.Context(), attendance.DateKey(time.Now()))
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Attendance Management System API",
			"status":  "running",
			"time":    time.Now().UTC(),
			"database": gin.H{
				"type":   health.Mode,
				"status": health.Status,
			},
			"data": gin.H{
				"studentsCount":          len(students),
				"attendanceRecordsToday": len(today),
			},
		})
	})

	registerAuthRoutes(r, cfg, refresh)

	r.GET("/api/db/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"database":  adapter.HealthCheck(c.Request.Context()),
			"timestamp": time.Now().UTC(),
		})
	})

	authed := r.Group("/api", auth.RequireAuth(cfg.JWTSigningKey, cfg.JWTIssuer))
	admin := authed.Group("", auth.RequireRole("admin"))

	// Photo check-in: any authenticated user.
	authed.POST("/attendance/mark", func(c *gin.Context) {
		var req struct {
			Latitude    any    `json:"latitude"`
			Longitude   any    `json:"longitude"`
			Address     string `json:"address"`
			Photo       string `json:"photo"`
			StudentID   string `json:"studentId"`
			StudentName string `json:"studentName"`
			Datetime    string `json:"datetime"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		var eventDate time.Time
		if req.Datetime != "" {
			if parsed, err := time.Parse(time.RFC3339, req.Datetime); err == nil {
				eventDate = parsed
			}
		}

		sub, err := svc.SubmitCheckIn(c.Request.Context(), attendance.CheckInInput{
			StudentEmail: req.StudentID,
			StudentName:  req.StudentName,
			Photo:        req.Photo,
			Lat:          asString(req.Latitude),
			Long:         asString(req.Longitude),
			Address:      req.Address,
			Date:         eventDate,
		})
		switch {
		case errors.Is(err, attendance.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			failStorage(c, "process attendance submission", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Attendance submitted successfully! Pending admin verification.",
			"data": gin.H{
				"id":          sub.ID,
				"status":      sub.Status,
				"submittedAt": sub.SubmittedAt,
			},
		})
	})

	admin.GET("/attendance/all", func(c *gin.Context) {
		records, err := adapter.ListSubmissions(c.Request.Context())
		if err != nil {
			failStorage(c, "fetch attendance records", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    records,
			"count":   len(records),
			"source":  adapter.Mode().String(),
		})
	})

	admin.PUT("/attendance/verify/:id", func(c *gin.Context) {
		var req struct {
			Status     string `json:"status" binding:"required"`
			VerifiedBy string `json:"verifiedBy"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if req.VerifiedBy == "" {
			if claims, ok := auth.CurrentUser(c); ok {
				req.VerifiedBy = claims.Name
			}
		}

		sub, synced, err := svc.Verify(c.Request.Context(), c.Param("id"), req.Status, req.VerifiedBy)
		switch {
		case errors.Is(err, attendance.ErrNotFound):
			fail(c, http.StatusNotFound, "Attendance record not found")
			return
		case errors.Is(err, attendance.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			failStorage(c, "verify attendance", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"message":         fmt.Sprintf("Attendance %s successfully", strings.ToLower(req.Status)),
			"data":            sub,
			"dashboardSynced": synced,
		})
	})

	admin.GET("/users/students", func(c *gin.Context) {
		students, err := adapter.ListStudents(c.Request.Context())
		if err != nil {
			failStorage(c, "fetch students", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Found %d students", len(students)),
			"count":   len(students),
			"data":    students,
			"source":  adapter.Mode().String(),
		})
	})

	admin.POST("/users/students", func(c *gin.Context) {
		var req struct {
			Name       string `json:"name"`
			Email      string `json:"email"`
			StudentID  string `json:"studentId"`
			Department string `json:"department"`
			Year       string `json:"year"`
			Phone      string `json:"phone"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		student, err := adapter.AddStudent(c.Request.Context(), attendance.Student{
			Name:       req.Name,
			Email:      req.Email,
			StudentID:  req.StudentID,
			Department: req.Department,
			Year:       req.Year,
			Phone:      req.Phone,
		})
		switch {
		case errors.Is(err, attendance.ErrDuplicate):
			fail(c, http.StatusBadRequest, "Student with this email already exists")
			return
		case errors.Is(err, attendance.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			failStorage(c, "add student", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Student added successfully",
			"data":    student,
		})
	})

	admin.POST("/attendance/daily/mark", func(c *gin.Context) {
		var req struct {
			Date        string `json:"date"`
			StudentID   string `json:"studentId"`
			StudentName string `json:"studentName"`
			Status      string `json:"status"`
			MarkedBy    string `json:"markedBy"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		entry, err := svc.QuickMark(c.Request.Context(), attendance.QuickMarkInput{
			Date:        req.Date,
			StudentID:   req.StudentID,
			StudentName: req.StudentName,
			Status:      req.Status,
			MarkedBy:    req.MarkedBy,
		})
		switch {
		case errors.Is(err, attendance.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			failStorage(c, "mark attendance", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Attendance marked successfully",
			"data":    entry,
		})
	})

	authed.GET("/attendance/daily", func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			date = attendance.DateKey(time.Now())
		}
		entries, err := adapter.ListDaily(c.Request.Context(), date)
		if err != nil {
			failStorage(c, "fetch daily attendance", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "date": date, "count": len(entries), "data": entries})
	})

	authed.GET("/attendance/daily/all", func(c *gin.Context) {
		entries, err := adapter.ListAllDaily(c.Request.Context())
		if err != nil {
			failStorage(c, "fetch daily attendance", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(entries), "data": entries})
	})

	admin.GET("/dashboard/stats", func(c *gin.Context) {
		stats, err := svc.DashboardStats(c.Request.Context(), time.Now())
		if err != nil {
			failStorage(c, "fetch dashboard statistics", err)
			return
		}
		stats.PendingLeaveRequests = leaveSvc.PendingCount()
		c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
	})

	admin.GET("/users/dashboard/students", func(c *gin.Context) {
		students, err := adapter.ListStudents(c.Request.Context())
		if err != nil {
			failStorage(c, "fetch students for dashboard", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(students), "data": students})
	})

	admin.GET("/users/dashboard/present-today", func(c *gin.Context) {
		present, err := svc.PresentToday(c.Request.Context(), time.Now())
		if err != nil {
			failStorage(c, "fetch present students", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(present),
			"date":    attendance.DateKey(time.Now()),
			"data":    present,
		})
	})

	registerLeaveRoutes(authed, admin, leaveSvc)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "API endpoint not found",
		})
	})
}

func registerLeaveRoutes(authed, admin *gin.RouterGroup, leaveSvc *leave.Service) {
	authed.POST("/leave/request", func(c *gin.Context) {
		var req struct {
			StudentID   string `json:"studentId"`
			StudentName string `json:"studentName"`
			Reason      string `json:"reason"`
			StartDate   string `json:"startDate"`
			EndDate     string `json:"endDate"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if claims, ok := auth.CurrentUser(c); ok && req.StudentID == "" {
			req.StudentID = claims.Subject
			req.StudentName = claims.Name
		}

		created, err := leaveSvc.Submit(req.StudentID, req.StudentName, req.Reason, req.StartDate, req.EndDate)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Leave request submitted successfully",
			"data":    created,
		})
	})

	authed.GET("/leave/requests", func(c *gin.Context) {
		claims, _ := auth.CurrentUser(c)
		requests := leaveSvc.List(claims.Subject, claims.Role == "admin")
		c.JSON(http.StatusOK, gin.H{"success": true, "data": requests})
	})

	admin.PUT("/leave/review/:id", func(c *gin.Context) {
		var req struct {
			Status     string `json:"status" binding:"required"`
			ReviewedBy string `json:"reviewedBy"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if req.ReviewedBy == "" {
			if claims, ok := auth.CurrentUser(c); ok {
				req.ReviewedBy = claims.Name
			}
		}

		reviewed, err := leaveSvc.Review(c.Param("id"), req.Status, req.ReviewedBy)
		switch {
		case errors.Is(err, leave.ErrNotFound):
			fail(c, http.StatusNotFound, "Leave request not found")
			return
		case err != nil:
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Leave request %s successfully", strings.ToLower(req.Status)),
			"data":    reviewed,
		})
	})
}

// fail sends a non-2xx envelope with an actionable message.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// failStorage logs the storage-layer detail and surfaces a generic message
// so storage internals never leak to end users.
func failStorage(c *gin.Context, op string, err error) {
	log.Printf("%s failed: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Something went wrong, please try again",
	})
}

// asString renders the lat/long the capture layer sends, which may arrive
// as JSON numbers or strings.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
