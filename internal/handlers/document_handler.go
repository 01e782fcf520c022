// backend-erp/internal/handlers/document_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"backend-erp/config"
	"backend-erp/internal/storage"
	"backend-erp/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Files - общее файловое хранилище документов. Устанавливается при
// старте приложения.
var Files *storage.Store

func SetFileStore(s *storage.Store) {
	Files = s
}

// UploadDocumentHandler принимает multipart-форму с файлом и привязкой
// к клиенту или проекту.
func UploadDocumentHandler(c *gin.Context) {
	entityType := c.PostForm("entity_type")
	if entityType != models.DocumentEntityClient && entityType != models.DocumentEntityProject {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity_type должен быть client или project"})
		return
	}
	entityID, err := strconv.ParseUint(c.PostForm("entity_id"), 10, 64)
	if err != nil || entityID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный entity_id"})
		return
	}

	// Сущность должна существовать до приёма файла.
	var lookupErr error
	switch entityType {
	case models.DocumentEntityClient:
		lookupErr = config.DB.First(&models.Client{}, entityID).Error
	case models.DocumentEntityProject:
		lookupErr = config.DB.First(&models.Project{}, entityID).Error
	}
	if lookupErr != nil {
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Сущность не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске сущности"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл не передан"})
		return
	}

	storedName, err := Files.Save(file, c.SaveUploadedFile)
	if err != nil {
		slog.Error("не удалось сохранить файл", "error", err, "filename", file.Filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить файл"})
		return
	}

	document := models.Document{
		Name:       file.Filename,
		FilePath:   storedName,
		FileType:   strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), "."),
		EntityType: entityType,
		EntityID:   uint(entityID),
		Notes:      c.PostForm("notes"),
	}
	if err := config.DB.Create(&document).Error; err != nil {
		// Запись не удалась - файл на диске больше никому не нужен.
		if removeErr := Files.Remove(storedName); removeErr != nil {
			slog.Warn("не удалось удалить осиротевший файл", "error", removeErr, "file", storedName)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить документ"})
		return
	}

	slog.Info("документ загружен", "document_id", document.ID, "entity_type", entityType, "entity_id", entityID)
	c.JSON(http.StatusCreated, document)
}

// ListDocumentsHandler возвращает документы с фильтром по привязке.
func ListDocumentsHandler(c *gin.Context) {
	query := config.DB.Model(&models.Document{})

	if entityType := c.Query("entity_type"); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		query = query.Where("entity_id = ?", entityID)
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать документы"})
		return
	}

	var documents []models.Document
	if err := query.Order("created_at DESC").Scopes(Paginate(c)).Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить документы"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, documents, count))
}

// DownloadDocumentHandler отдаёт файл документа под его исходным именем.
func DownloadDocumentHandler(c *gin.Context) {
	var document models.Document
	if err := config.DB.First(&document, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Документ не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске документа"})
		return
	}

	path, err := Files.Path(document.FilePath)
	if err != nil {
		slog.Error("файл документа отсутствует на диске", "document_id", document.ID, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Файл документа не найден"})
		return
	}
	c.FileAttachment(path, document.Name)
}

// DeleteDocumentHandler удаляет документ и его файл.
func DeleteDocumentHandler(c *gin.Context) {
	var document models.Document
	if err := config.DB.First(&document, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Документ не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске документа"})
		return
	}

	if err := config.DB.Delete(&document).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить документ"})
		return
	}
	if err := Files.Remove(document.FilePath); err != nil {
		slog.Warn("не удалось удалить файл документа", "error", err, "file", document.FilePath)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Документ удалён"})
}
