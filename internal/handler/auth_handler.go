package handler

import (
	"net/http"
	"time"

	"aigym-api/internal/model"
	"aigym-api/pkg/database"
	"aigym-api/pkg/jwtutil"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Admin roles allowed at registration
var validAdminRoles = map[string]bool{
	"super_admin": true,
	"manager":     true,
	"specialist":  true,
}

func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find admin in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var admin model.Admin
	result := database.GetDB().Where("email = ?", req.Email).First(&admin)
	if result.Error != nil {
		log.Error("Admin not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("admin_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Verify password
	err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password))
	if err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	// Generate JWT token with the admin's role
	token, err := jwtutil.GenerateToken(admin.Email, admin.ID, admin.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	// Increment active tokens gauge
	prometheus.IncreaseActiveTokens()

	log.Info("Admin logged in",
		zap.String("email", admin.Email),
		zap.String("role", admin.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"admin": map[string]interface{}{
			"id":    admin.ID,
			"email": admin.Email,
			"role":  admin.Role,
		},
	})
}

func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	// Default to the least privileged role
	if req.Role == "" {
		req.Role = "specialist"
	}
	if !validAdminRoles[req.Role] {
		log.Error("Invalid admin role", zap.String("role", req.Role))
		prometheus.RecordAuthError("invalid_role")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	// Check if admin already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.Admin
	result := database.GetDB().Where("email = ?", req.Email).First(&existing)
	if result.Error == nil {
		log.Error("Admin already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	// Create new admin
	admin := model.Admin{
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     req.Role,
	}

	// Save to database - track DB insert operation
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&admin); result.Error != nil {
		log.Error("Failed to create admin", zap.Error(result.Error))
		prometheus.RecordAuthError("admin_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("Admin registered", zap.String("email", admin.Email), zap.String("role", admin.Role))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Admin registered successfully",
		"admin": map[string]interface{}{
			"id":    admin.ID,
			"email": admin.Email,
			"role":  admin.Role,
		},
	})
}

// GetProfile returns the authenticated admin's profile
func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)

	adminID, ok := c.Get("admin_id").(uint)
	if !ok {
		log.Error("Failed to get admin ID from context")
		prometheus.RecordAuthError("unauthorized_profile_access")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var admin model.Admin
	if result := database.GetDB().First(&admin, adminID); result.Error != nil {
		log.Error("Admin not found", zap.Uint("admin_id", adminID))
		prometheus.RecordAuthError("admin_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
	}

	return c.JSON(http.StatusOK, admin)
}

// UpdateProfile changes the authenticated admin's email
func UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)

	adminID, ok := c.Get("admin_id").(uint)
	if !ok {
		prometheus.RecordAuthError("unauthorized_profile_update")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	var admin model.Admin
	if result := database.GetDB().First(&admin, adminID); result.Error != nil {
		prometheus.RecordAuthError("admin_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
	}

	var existing model.Admin
	result := database.GetDB().Where("email = ? AND id != ?", req.Email, adminID).First(&existing)
	if result.Error == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&admin).Update("email", req.Email).Error; err != nil {
		log.Error("Failed to update profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile update failed"})
	}

	log.Info("Profile updated", zap.Uint("admin_id", adminID))
	return c.JSON(http.StatusOK, admin)
}

// ChangePassword updates the authenticated admin's password
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)

	adminID, ok := c.Get("admin_id").(uint)
	if !ok {
		log.Error("Failed to get admin ID from context")
		prometheus.RecordAuthError("unauthorized_password_change")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse password change request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.NewPassword == "" {
		prometheus.RecordAuthError("incomplete_password_change")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var admin model.Admin
	if result := database.GetDB().First(&admin, adminID); result.Error != nil {
		log.Error("Admin not found", zap.Uint("admin_id", adminID))
		prometheus.RecordAuthError("admin_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.CurrentPassword)); err != nil {
		log.Error("Current password mismatch", zap.Uint("admin_id", adminID))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&admin).Update("password", string(hashedPassword)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		prometheus.RecordAuthError("password_update_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "password change failed"})
	}

	log.Info("Password changed", zap.Uint("admin_id", adminID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

// Logout ends the authenticated session. Sign-out is synchronous: the response
// is sent only after the active-token bookkeeping is done, so the client never
// observes a half-cleared session.
func Logout(c echo.Context) error {
	log := logger.FromContext(c)

	adminID, ok := c.Get("admin_id").(uint)
	if !ok {
		prometheus.RecordAuthError("unauthorized_logout")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	prometheus.DecreaseActiveTokens()
	log.Info("Admin logged out", zap.Uint("admin_id", adminID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
