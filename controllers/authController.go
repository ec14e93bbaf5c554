package controllers

import (
	"net/http"
	"time"

	"lostfound-bot/models"
	"lostfound-bot/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	admin  models.Admin
	secret string
	now    func() time.Time
	log    logrus.FieldLogger
}

// NewAuthController serves logins for admin, whose Password is a bcrypt hash.
func NewAuthController(admin models.Admin, secret string, now func() time.Time, log logrus.FieldLogger) *AuthController {
	return &AuthController{admin: admin, secret: secret, now: now, log: log}
}

// LoginAdmin exchanges the admin credentials for a bearer token.
func (ac *AuthController) LoginAdmin(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if ac.admin.Username == "" || ac.admin.Password == "" ||
		input.Username != ac.admin.Username || !ac.admin.ComparePassword(input.Password) {
		ac.log.WithField("username", input.Username).Warn("admin login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	now := ac.now()
	token, err := utils.GenerateAdminToken(ac.secret, ac.admin.Username, now)
	if err != nil {
		ac.log.WithError(err).Error("failed to sign admin token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"username":  ac.admin.Username,
		"expiresAt": now.Add(utils.TokenTTL).UTC(),
	})
}
