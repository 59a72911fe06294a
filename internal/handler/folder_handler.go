package handler

import (
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

func isValidRepositoryType(t string) bool {
	return t == model.RepositoryTypeWods || t == model.RepositoryTypeBlocks
}

// ListFolders returns the folder tree of one repository type as a flat list
// ordered by path, which the client renders as a tree
func ListFolders(c echo.Context) error {
	log := logger.FromContext(c)

	repoType := c.QueryParam("repository_type")
	if !isValidRepositoryType(repoType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "repository_type must be 'wods' or 'blocks'"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var folders []model.Folder
	if err := database.GetDB().Where("repository_type = ?", repoType).Order("path ASC").Find(&folders).Error; err != nil {
		log.Error("Failed to list folders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list folders"})
	}

	return c.JSON(http.StatusOK, echo.Map{"folders": folders})
}

// CreateFolder creates a folder, deriving its path and depth from the parent.
// The parent must exist and live in the same repository type.
func CreateFolder(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name           string `json:"name"`
		ParentFolderID *uint  `json:"parent_folder_id"`
		RepositoryType string `json:"repository_type"`
		Color          string `json:"color"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if !isValidRepositoryType(req.RepositoryType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "repository_type must be 'wods' or 'blocks'"})
	}

	folder := model.Folder{
		Name:           strings.TrimSpace(req.Name),
		ParentFolderID: req.ParentFolderID,
		RepositoryType: req.RepositoryType,
		Color:          req.Color,
		Path:           "/" + strings.TrimSpace(req.Name),
		Depth:          0,
	}
	if folder.Color == "" {
		folder.Color = "#6B7280"
	}

	if req.ParentFolderID != nil {
		var parent model.Folder
		if err := database.GetDB().First(&parent, *req.ParentFolderID).Error; err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent folder not found"})
		}
		if parent.RepositoryType != req.RepositoryType {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent folder belongs to a different repository"})
		}
		folder.Path = parent.Path + "/" + folder.Name
		folder.Depth = parent.Depth + 1
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&folder).Error; err != nil {
		log.Error("Failed to create folder", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create folder"})
	}

	log.Info("Folder created", zap.Uint("folder_id", folder.ID), zap.String("path", folder.Path))
	return c.JSON(http.StatusCreated, folder)
}

// UpdateFolder renames or recolors a folder. A rename rewrites the paths of
// the folder and every descendant.
func UpdateFolder(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folder ID"})
	}

	var folder model.Folder
	if err := database.GetDB().First(&folder, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "folder not found"})
	}

	var req struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.Color != nil {
			if err := tx.Model(&folder).Update("color", *req.Color).Error; err != nil {
				return err
			}
		}
		if req.Name == nil {
			return nil
		}
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "name cannot be empty")
		}

		oldPath := folder.Path
		newPath := "/" + name
		if folder.ParentFolderID != nil {
			var parent model.Folder
			if err := tx.First(&parent, *folder.ParentFolderID).Error; err != nil {
				return err
			}
			newPath = parent.Path + "/" + name
		}

		if err := tx.Model(&folder).Updates(map[string]interface{}{
			"name": name,
			"path": newPath,
		}).Error; err != nil {
			return err
		}

		// Rewrite descendant paths
		var descendants []model.Folder
		if err := tx.Where("repository_type = ? AND path LIKE ?", folder.RepositoryType, oldPath+"/%").Find(&descendants).Error; err != nil {
			return err
		}
		for _, d := range descendants {
			updated := newPath + strings.TrimPrefix(d.Path, oldPath)
			if err := tx.Model(&model.Folder{}).Where("id = ?", d.ID).Update("path", updated).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
		}
		log.Error("Failed to update folder", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update folder"})
	}

	return c.JSON(http.StatusOK, folder)
}

// DeleteFolder removes a folder. Child folders and the training documents it
// held are reparented to the deleted folder's parent rather than deleted.
func DeleteFolder(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folder ID"})
	}

	var folder model.Folder
	if err := database.GetDB().First(&folder, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "folder not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		// Reparent direct children and recompute their subtree paths
		var children []model.Folder
		if err := tx.Where("parent_folder_id = ?", folder.ID).Find(&children).Error; err != nil {
			return err
		}

		parentPath := ""
		parentDepth := 0
		if folder.ParentFolderID != nil {
			var parent model.Folder
			if err := tx.First(&parent, *folder.ParentFolderID).Error; err != nil {
				return err
			}
			parentPath = parent.Path
			parentDepth = parent.Depth + 1
		}

		for _, child := range children {
			oldChildPath := child.Path
			newChildPath := parentPath + "/" + child.Name
			depthDelta := parentDepth - child.Depth

			if err := tx.Model(&model.Folder{}).Where("id = ?", child.ID).Updates(map[string]interface{}{
				"parent_folder_id": folder.ParentFolderID,
				"path":             newChildPath,
				"depth":            parentDepth,
			}).Error; err != nil {
				return err
			}

			var descendants []model.Folder
			if err := tx.Where("repository_type = ? AND path LIKE ?", folder.RepositoryType, oldChildPath+"/%").Find(&descendants).Error; err != nil {
				return err
			}
			for _, d := range descendants {
				updated := newChildPath + strings.TrimPrefix(d.Path, oldChildPath)
				if err := tx.Model(&model.Folder{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
					"path":  updated,
					"depth": d.Depth + depthDelta,
				}).Error; err != nil {
					return err
				}
			}
		}

		// Move documents out of the deleted folder
		if err := tx.Model(&model.Wod{}).Where("folder_id = ?", folder.ID).Update("folder_id", folder.ParentFolderID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.WorkoutBlock{}).Where("folder_id = ?", folder.ID).Update("folder_id", folder.ParentFolderID).Error; err != nil {
			return err
		}

		return tx.Delete(&folder).Error
	})
	if err != nil {
		log.Error("Failed to delete folder", zap.Error(err), zap.Uint("folder_id", folder.ID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete folder"})
	}

	log.Info("Folder deleted", zap.Uint("folder_id", folder.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Folder deleted"})
}
