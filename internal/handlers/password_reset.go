package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"shoply/internal/mailer"
	"shoply/internal/store"
)

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// RequestPasswordReset issues a single-use reset token and mails a link
// containing it. The token only ever lives in the token store and the mail;
// it is never persisted alongside the user.
func RequestPasswordReset(users UserStore, resets ResetTokenStore, m mailer.Mailer, frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		ctx := c.Request.Context()
		user, err := users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "email not registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		token := generateRefreshString()
		if token == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
			return
		}
		if err := resets.Save(ctx, token, user.ID); err != nil {
			log.Println("[AUTH] [ERROR] reset token save failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token store error"})
			return
		}

		resetLink := fmt.Sprintf("%s/password-reset-confirm/?token=%s", frontendURL, token)
		if err := m.SendPasswordReset(user.Email, resetLink); err != nil {
			log.Println("[AUTH] [ERROR] reset mail send failed:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "mail send failed"})
			return
		}

		log.Println("[AUTH] [INFO] password reset requested for:", user.Username)
		c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
	}
}

// ConfirmPasswordReset consumes the token and replaces the user's password.
func ConfirmPasswordReset(users UserStore, resets ResetTokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetConfirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := validatePasswordStrength(req.NewPassword); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		userID, err := resets.Consume(ctx, strings.TrimSpace(req.Token))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid token"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password hash failed"})
			return
		}

		if err := users.UpdatePassword(ctx, userID, string(hash)); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		log.Println("[AUTH] [INFO] password reset completed for user:", userID)
		c.JSON(http.StatusOK, gin.H{"detail": "Password reset successful"})
	}
}
