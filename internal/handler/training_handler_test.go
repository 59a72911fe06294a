package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"aigym-api/internal/model"
	"aigym-api/internal/pagebuilder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWod_NormalizesPages(t *testing.T) {
	db := setupTestDB(t)

	pages := []map[string]interface{}{
		{
			"title": "Second",
			"order": 5,
			"blocks": []map[string]interface{}{
				{"type": "rich-text", "order": 9, "data": map[string]interface{}{"text": "cool down"}},
				{"type": "section-header", "order": 2, "data": map[string]interface{}{"title": "Finish"}},
			},
		},
		{
			"title":  "First",
			"order":  1,
			"blocks": []map[string]interface{}{},
		},
	}

	c, rec := newTestContext(t, http.MethodPost, "/api/wods", map[string]interface{}{
		"title": "Monday Heavy",
		"pages": pages,
	})
	require.NoError(t, CreateWod(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var wod model.Wod
	require.NoError(t, db.Where("title = ?", "Monday Heavy").First(&wod).Error)
	assert.Equal(t, model.ContentStatusDraft, wod.Status)
	assert.Equal(t, 1, wod.Difficulty)

	var stored []pagebuilder.Page
	require.NoError(t, json.Unmarshal(wod.Pages, &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, "First", stored[0].Title)
	assert.Equal(t, 0, stored[0].Order)
	assert.Equal(t, "Second", stored[1].Title)
	assert.Equal(t, 1, stored[1].Order)

	blocks := stored[1].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, "section-header", blocks[0].Type)
	assert.Equal(t, 0, blocks[0].Order)
	assert.NotEmpty(t, blocks[0].ID)
	assert.Equal(t, stored[1].ID, blocks[0].PageID)
}

func TestCreateWod_RejectsUnknownBlockType(t *testing.T) {
	db := setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/wods", map[string]interface{}{
		"title": "Broken",
		"pages": []map[string]interface{}{
			{
				"title": "Page",
				"blocks": []map[string]interface{}{
					{"type": "hologram", "data": map[string]interface{}{}},
				},
			},
		},
	})
	require.NoError(t, CreateWod(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	db.Model(&model.Wod{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateWod_ValidatesContentReferences(t *testing.T) {
	db := setupTestDB(t)
	published := seedContentItem(t, db, model.ContentTypeVideo, "Demo", model.ContentStatusPublished)
	draft := seedContentItem(t, db, model.ContentTypeVideo, "WIP", model.ContentStatusDraft)

	makeBody := func(itemID uint) map[string]interface{} {
		return map[string]interface{}{
			"title": "With video",
			"pages": []map[string]interface{}{
				{
					"title": "Page",
					"blocks": []map[string]interface{}{
						{"type": "video", "data": map[string]interface{}{"content_item_id": itemID}},
					},
				},
			},
		}
	}

	c, rec := newTestContext(t, http.MethodPost, "/api/wods", makeBody(published.ID))
	require.NoError(t, CreateWod(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	c2, rec2 := newTestContext(t, http.MethodPost, "/api/wods", makeBody(draft.ID))
	require.NoError(t, CreateWod(c2))
	assert.Equal(t, http.StatusBadRequest, rec2.Code)

	c3, rec3 := newTestContext(t, http.MethodPost, "/api/wods", makeBody(9999))
	require.NoError(t, CreateWod(c3))
	assert.Equal(t, http.StatusBadRequest, rec3.Code)
}

func TestCreateWod_RejectsBlockRepositoryFolder(t *testing.T) {
	db := setupTestDB(t)
	folder := model.Folder{Name: "Blocks Home", RepositoryType: model.RepositoryTypeBlocks, Path: "/Blocks Home"}
	require.NoError(t, db.Create(&folder).Error)

	c, rec := newTestContext(t, http.MethodPost, "/api/wods", map[string]interface{}{
		"title":     "Misplaced",
		"folder_id": folder.ID,
	})
	require.NoError(t, CreateWod(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProgram_KeepsPagesWhenAbsent(t *testing.T) {
	db := setupTestDB(t)

	pagesJSON := `[{"id":"p1","title":"Week 1","blocks":[],"order":0}]`
	program := model.Program{Title: "12 Week", Status: model.ContentStatusDraft, Pages: []byte(pagesJSON), Difficulty: 2}
	require.NoError(t, db.Create(&program).Error)

	id := strconv.Itoa(int(program.ID))
	c, rec := newTestContext(t, http.MethodPut, "/api/programs/"+id, map[string]interface{}{
		"title":  "12 Week Strength",
		"status": "published",
	})
	pathContext(c, []string{"id"}, []string{id})
	require.NoError(t, UpdateProgram(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Program
	require.NoError(t, db.First(&updated, program.ID).Error)
	assert.Equal(t, "12 Week Strength", updated.Title)
	assert.Equal(t, model.ContentStatusPublished, updated.Status)
	assert.JSONEq(t, pagesJSON, string(updated.Pages))
}

func TestCreateWorkoutBlock_InvalidDifficulty(t *testing.T) {
	setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/workout-blocks", map[string]interface{}{
		"title":      "Too hard",
		"difficulty": 9,
	})
	require.NoError(t, CreateWorkoutBlock(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
