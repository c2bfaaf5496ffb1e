package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ytprompt/internal/storage"
	"ytprompt/web/components"
)

// FileHandler は成果物ファイルAPIのハンドラー
type FileHandler struct {
	store *storage.ArtifactStore
}

// NewFileHandler は新しいFileHandlerを作成
func NewFileHandler(store *storage.ArtifactStore) *FileHandler {
	return &FileHandler{store: store}
}

// Download は成果物ファイルを返す
func (h *FileHandler) Download(c echo.Context) error {
	fileID := c.Param("file_id")

	path, format, err := h.store.Find(fileID)
	if errors.Is(err, storage.ErrArtifactNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "file not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.Attachment(path, "youtube_summary_"+fileID+"."+format)
}

// List は成果物一覧を返す
func (h *FileHandler) List(c echo.Context) error {
	files, err := h.store.List()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"files": files})
}

// Delete は成果物を削除する
func (h *FileHandler) Delete(c echo.Context) error {
	fileID := c.Param("file_id")

	deleted, err := h.store.Delete(fileID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "file not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "File " + fileID + " deleted successfully"})
}

// ListPage は成果物一覧ページを表示
func (h *FileHandler) ListPage(c echo.Context) error {
	files, err := h.store.List()
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return render(c, components.FileList(files))
}
