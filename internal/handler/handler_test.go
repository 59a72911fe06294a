package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"aigym-api/internal/model"
	"aigym-api/pkg/config"
	"aigym-api/pkg/database"
	"aigym-api/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter int64

// setupTestDB opens a fresh in-memory database and installs it as the global
// connection for the duration of one test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One named in-memory database per test so parallel pool connections
	// see the same data without leaking between tests
	dbID := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared", dbID)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		database.DB = prev
	})

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	return db
}

// newTestContext builds an echo context for a JSON request with an
// authenticated admin already in place
func newTestContext(t *testing.T, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e := echo.New()
	c := e.NewContext(req, rec)
	c.Set("admin_id", uint(1))
	c.Set("email", "admin@example.com")
	c.Set("admin_role", "super_admin")
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedCommunity(t *testing.T, db *gorm.DB, name string) model.Community {
	t.Helper()
	community := model.Community{Name: name, Status: model.CommunityStatusActive, BrandColor: "#3B82F6"}
	require.NoError(t, db.Create(&community).Error)
	return community
}

func seedUser(t *testing.T, db *gorm.DB, communityID uint, email string) model.User {
	t.Helper()
	user := model.User{CommunityID: communityID, Email: email}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedTag(t *testing.T, db *gorm.DB, communityID uint, name string) model.UserTag {
	t.Helper()
	tag := model.UserTag{CommunityID: communityID, Name: name, Color: "#6B7280"}
	require.NoError(t, db.Create(&tag).Error)
	return tag
}

func seedContentItem(t *testing.T, db *gorm.DB, contentType, title, status string) model.ContentItem {
	t.Helper()
	item := model.ContentItem{Title: title, ContentType: contentType, Status: status, CreatedBy: 1}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func pathContext(c echo.Context, names []string, values []string) {
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}
