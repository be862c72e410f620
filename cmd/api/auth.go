package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attendance/internal/auth"
	"attendance/internal/config"
)

// registerAuthRoutes wires login/register/logout. Accounts come from
// configuration: one admin and one student, as in the original deployment.
func registerAuthRoutes(r *gin.Engine, cfg config.App, refresh auth.RefreshStore) {
	r.POST("/api/auth/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		var name, role string
		switch {
		case email == strings.ToLower(cfg.AdminEmail) && req.Password == cfg.AdminPassword:
			name, role = "Admin User", "admin"
		case email == strings.ToLower(cfg.StudentEmail) && req.Password == cfg.StudentPassword:
			name, role = "Student User", "student"
		default:
			log.Printf("login failed: %s", email)
			fail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		tokens, err := auth.Issue(email, name, role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			failStorage(c, "issue tokens", err)
			return
		}
		if err := refresh.Save(c.Request.Context(), tokens.RefreshToken, email, tokens.RefreshExp); err != nil {
			log.Printf("refresh token save failed: %v", err)
		}

		log.Printf("login successful: %s (%s)", email, role)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login successful",
			"data": gin.H{
				"token":        tokens.AccessToken,
				"refreshToken": tokens.RefreshToken,
				"expiresAt":    tokens.AccessExp.Unix(),
				"user": gin.H{
					"name":  name,
					"email": email,
					"role":  role,
				},
			},
		})
	})

	r.POST("/api/auth/register", func(c *gin.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if req.Name == "" || req.Email == "" || req.Password == "" {
			fail(c, http.StatusBadRequest, "Name, email, and password are required")
			return
		}

		// Self-service registration is accepted but not persisted; the
		// roster is managed by admins through /api/users/students.
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "User registered successfully",
			"data":    gin.H{"name": req.Name, "email": req.Email, "role": req.Role},
		})
	})

	r.POST("/api/auth/logout", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = c.ShouldBindJSON(&req)
		if req.RefreshToken != "" {
			if err := refresh.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
				log.Printf("refresh token revoke failed: %v", err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
	})
}
