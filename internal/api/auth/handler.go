package auth

import (
	"errors"
	"net/http"
	"strings"

	"freelancer-hub/database"
	"freelancer-hub/internal/app/http/middleware"
	"freelancer-hub/internal/app/http/respond"
	"freelancer-hub/internal/app/services"
	"freelancer-hub/internal/apperr"
	"freelancer-hub/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrWeakPassword       = apperr.Validation("Password must be at least 8 characters long and contain both letters and numbers", map[string]string{"password": "weak"})
	ErrEmailTaken         = apperr.Conflict("Email is already registered")
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")
	ErrGoogleAccount      = apperr.Unauthorized("This account uses Google sign-in")
)

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

type sessionResponse struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

func startSession(c *gin.Context, status int, user users.User) {
	token, err := middleware.IssueSessionToken(user, services.Now())
	if err != nil {
		respond.Error(c, err)
		return
	}
	middleware.SetSessionCookie(c, token)
	c.JSON(status, sessionResponse{Token: token, User: user})
}

func Register(c *gin.Context) {
	var input struct {
		Name         string `json:"name" binding:"required,max=120"`
		BusinessName string `json:"business_name" binding:"max=120"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required"`
		Currency     string `json:"default_currency" binding:"omitempty,len=3"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BindError(c, err)
		return
	}
	if !isPasswordStrong(input.Password) {
		respond.Error(c, ErrWeakPassword)
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	var n int64
	if err := database.DB.Model(&users.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		respond.Error(c, err)
		return
	}
	if n > 0 {
		respond.Error(c, ErrEmailTaken)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(c, err)
		return
	}
	pw := string(hashed)
	user := users.User{
		Name:            input.Name,
		BusinessName:    input.BusinessName,
		Email:           email,
		Password:        &pw,
		AuthProvider:    "local",
		Role:            users.RoleUser,
		DefaultCurrency: "usd",
	}
	if input.Currency != "" {
		user.DefaultCurrency = strings.ToLower(input.Currency)
	}
	if err := database.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respond.Error(c, ErrEmailTaken)
			return
		}
		respond.Error(c, err)
		return
	}

	if err := sendWelcome(c.Request.Context(), user); err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("welcome email not sent")
	}
	startSession(c, http.StatusCreated, user)
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BindError(c, err)
		return
	}

	var user users.User
	err := database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
	if err != nil {
		respond.Error(c, ErrInvalidCredentials)
		return
	}
	if user.Password == nil || *user.Password == "" {
		respond.Error(c, ErrGoogleAccount)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		respond.Error(c, ErrInvalidCredentials)
		return
	}
	startSession(c, http.StatusOK, user)
}

func Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func ChangePassword(c *gin.Context) {
	userID := c.GetUint("user_id")

	var body struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BindError(c, err)
		return
	}
	if !isPasswordStrong(body.NewPassword) {
		respond.Error(c, ErrWeakPassword)
		return
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		respond.Error(c, apperr.Unauthorized("User not found"))
		return
	}
	if user.Password == nil || *user.Password == "" {
		respond.Error(c, apperr.Validation("This account does not have a password. Sign in with Google instead.", nil))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(body.OldPassword)); err != nil {
		respond.Error(c, apperr.Unauthorized("Old password is incorrect"))
		return
	}

	hashedNew, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := database.DB.Model(&user).Update("password", string(hashedNew)).Error; err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
