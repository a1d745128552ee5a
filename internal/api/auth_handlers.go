package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"orderdesk/internal/models"
)

type otpRequest struct {
	Phone string `json:"phone"`
}

func (s *Server) handleOTPRequest(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Phone) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	code, err := s.OTP.Issue(c.Request.Context(), req.Phone)
	if err != nil {
		s.Log.WithError(err).Error("otp issue failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "otp_issue_failed"})
		return
	}
	if s.Notifier != nil {
		body := fmt.Sprintf("Your orderdesk login code is %s.", code)
		if err := s.Notifier.Send(c.Request.Context(), req.Phone, body); err != nil {
			s.Log.WithError(err).Warn("otp delivery failed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (s *Server) handleOTPVerify(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" || req.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	merchant, err := s.OTP.Verify(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		if errors.Is(err, models.ErrOTPInvalid) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "otp_invalid"})
			return
		}
		s.Log.WithError(err).Error("otp verify failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "otp_verify_failed"})
		return
	}
	session, err := s.Sessions.Issue(merchant.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session_issue_failed"})
		return
	}
	c.JSON(http.StatusOK, session)
}
