package handler

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aigym-api/internal/model"
	"aigym-api/pkg/database"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListUsers returns users filtered by community and a case-insensitive search
// over email and name. Each user is returned with their tag list preloaded.
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.User{})

	if communityID := c.QueryParam("community_id"); communityID != "" {
		id, err := strconv.ParseUint(communityID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community_id"})
		}
		query = query.Where("community_id = ?", uint(id))
	}

	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list users"})
	}

	// Attach tags in one pass instead of a query per user
	tagsByUser, err := tagsForUsers(users)
	if err != nil {
		log.Error("Failed to load user tags", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list users"})
	}

	type userWithTags struct {
		model.User
		Tags []model.UserTag `json:"tags"`
	}
	out := make([]userWithTags, 0, len(users))
	for _, u := range users {
		tags := tagsByUser[u.ID]
		if tags == nil {
			tags = []model.UserTag{}
		}
		out = append(out, userWithTags{User: u, Tags: tags})
	}

	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

func tagsForUsers(users []model.User) (map[uint][]model.UserTag, error) {
	result := make(map[uint][]model.UserTag)
	if len(users) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	var memberships []model.UserTagMembership
	if err := database.GetDB().Where("user_id IN ?", ids).Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return result, nil
	}

	tagIDs := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		tagIDs = append(tagIDs, m.TagID)
	}
	var tags []model.UserTag
	if err := database.GetDB().Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	tagByID := make(map[uint]model.UserTag, len(tags))
	for _, t := range tags {
		tagByID[t.ID] = t
	}

	for _, m := range memberships {
		if tag, ok := tagByID[m.TagID]; ok {
			result[m.UserID] = append(result[m.UserID], tag)
		}
	}
	return result, nil
}

func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		CommunityID uint   `json:"community_id"`
		Email       string `json:"email"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		TagIDs      []uint `json:"tag_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.CommunityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and community_id are required"})
	}

	var community model.Community
	if err := database.GetDB().First(&community, req.CommunityID).Error; err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "community not found"})
	}

	var existing model.User
	result := database.GetDB().Where("community_id = ? AND email = ?", req.CommunityID, req.Email).First(&existing)
	if result.Error == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists in this community"})
	}

	user := model.User{
		CommunityID: req.CommunityID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return applyUserTags(tx, &user, req.TagIDs)
	})
	if err != nil {
		if err == errTagWrongCommunity {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tag does not belong to the user's community"})
		}
		log.Error("Failed to create user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	log.Info("User created", zap.Uint("user_id", user.ID), zap.Uint("community_id", user.CommunityID))
	return c.JSON(http.StatusCreated, user)
}

func GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Preload("Community").First(&user, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	tagsByUser, err := tagsForUsers([]model.User{user})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
	}
	tags := tagsByUser[user.ID]
	if tags == nil {
		tags = []model.UserTag{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": user,
		"tags": tags,
	})
}

func UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var user model.User
	if err := database.GetDB().First(&user, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var req struct {
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		if *req.Email == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email cannot be empty"})
		}
		updates["email"] = *req.Email
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Updates(updates).Error; err != nil {
		log.Error("Failed to update user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user together with their tag memberships and direct
// content assignments
func DeleteUser(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var user model.User
	if err := database.GetDB().First(&user, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.UserTagMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&model.ContentUserAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		log.Error("Failed to delete user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete user"})
	}

	log.Info("User deleted", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted"})
}

// ReplaceUserTags replaces the full tag set of a user. Tags from another
// community are rejected.
func ReplaceUserTags(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	var user model.User
	if err := database.GetDB().First(&user, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	var req struct {
		TagIDs []uint `json:"tag_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		return applyUserTags(tx, &user, req.TagIDs)
	})
	if err != nil {
		if err == errTagWrongCommunity {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tag does not belong to the user's community"})
		}
		log.Error("Failed to replace user tags", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace tags"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Tags updated", "tag_ids": req.TagIDs})
}

var errTagWrongCommunity = echo.NewHTTPError(http.StatusBadRequest, "tag community mismatch")

// applyUserTags replaces every tag membership of the user with tagIDs. All
// tags must belong to the user's community.
func applyUserTags(tx *gorm.DB, user *model.User, tagIDs []uint) error {
	if err := tx.Where("user_id = ?", user.ID).Delete(&model.UserTagMembership{}).Error; err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		var tag model.UserTag
		if err := tx.First(&tag, tagID).Error; err != nil {
			return err
		}
		if tag.CommunityID != user.CommunityID {
			return errTagWrongCommunity
		}
		m := model.UserTagMembership{UserID: user.ID, TagID: tagID}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
	}
	return nil
}

// bulkRowError describes one rejected CSV row in the error report
type bulkRowError struct {
	Row   int    `json:"row"`
	Email string `json:"email"`
	Error string `json:"error"`
}

// BulkImportUsers imports users from a CSV file with an email,first_name,last_name
// header. Rows that fail validation are collected into the upload's error
// report; valid rows are still imported.
func BulkImportUsers(c echo.Context) error {
	log := logger.FromContext(c)
	adminID, _ := c.Get("admin_id").(uint)

	communityID, err := strconv.ParseUint(c.FormValue("community_id"), 10, 32)
	if err != nil || communityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "community_id is required"})
	}

	var community model.Community
	if err := database.GetDB().First(&community, uint(communityID)).Error; err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "community not found"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open upload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read file"})
	}
	defer file.Close()

	upload := model.BulkUpload{
		CommunityID: community.ID,
		UploadType:  "users",
		FileName:    fileHeader.Filename,
		Status:      model.BulkUploadStatusProcessing,
		CreatedBy:   adminID,
	}
	if err := database.GetDB().Create(&upload).Error; err != nil {
		log.Error("Failed to create bulk upload record", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start import"})
	}

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		failBulkUpload(&upload, "empty or unreadable CSV")
		prometheus.RecordBulkUpload(model.BulkUploadStatusFailed)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty or unreadable CSV"})
	}

	emailCol, firstCol, lastCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "email":
			emailCol = i
		case "first_name":
			firstCol = i
		case "last_name":
			lastCol = i
		}
	}
	if emailCol < 0 {
		failBulkUpload(&upload, "missing email column")
		prometheus.RecordBulkUpload(model.BulkUploadStatusFailed)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "CSV must have an email column"})
	}

	var rowErrors []bulkRowError
	total, succeeded := 0, 0
	rowNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			rowErrors = append(rowErrors, bulkRowError{Row: rowNum, Error: "malformed row"})
			total++
			continue
		}
		total++

		email := strings.TrimSpace(record[emailCol])
		if email == "" || !strings.Contains(email, "@") {
			rowErrors = append(rowErrors, bulkRowError{Row: rowNum, Email: email, Error: "invalid email"})
			continue
		}

		var existing model.User
		result := database.GetDB().Where("community_id = ? AND email = ?", community.ID, email).First(&existing)
		if result.Error == nil {
			rowErrors = append(rowErrors, bulkRowError{Row: rowNum, Email: email, Error: "already exists"})
			continue
		}

		user := model.User{CommunityID: community.ID, Email: email}
		if firstCol >= 0 && firstCol < len(record) {
			user.FirstName = strings.TrimSpace(record[firstCol])
		}
		if lastCol >= 0 && lastCol < len(record) {
			user.LastName = strings.TrimSpace(record[lastCol])
		}
		if err := database.GetDB().Create(&user).Error; err != nil {
			rowErrors = append(rowErrors, bulkRowError{Row: rowNum, Email: email, Error: "insert failed"})
			continue
		}
		succeeded++
	}

	now := time.Now()
	status := model.BulkUploadStatusCompleted
	if succeeded == 0 && total > 0 {
		status = model.BulkUploadStatusFailed
	}
	report, _ := json.Marshal(rowErrors)

	database.GetDB().Model(&upload).Updates(map[string]interface{}{
		"total_rows":      total,
		"successful_rows": succeeded,
		"failed_rows":     len(rowErrors),
		"status":          status,
		"error_report":    report,
		"completed_at":    &now,
	})

	prometheus.RecordBulkUpload(status)
	log.Info("Bulk user import finished",
		zap.Uint("community_id", community.ID),
		zap.Int("total", total),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(rowErrors)))

	return c.JSON(http.StatusOK, echo.Map{
		"upload_id":       upload.ID,
		"status":          status,
		"total_rows":      total,
		"successful_rows": succeeded,
		"failed_rows":     len(rowErrors),
		"errors":          rowErrors,
	})
}

func failBulkUpload(upload *model.BulkUpload, reason string) {
	now := time.Now()
	report, _ := json.Marshal([]bulkRowError{{Row: 0, Error: reason}})
	database.GetDB().Model(upload).Updates(map[string]interface{}{
		"status":       model.BulkUploadStatusFailed,
		"error_report": report,
		"completed_at": &now,
	})
}
