package handlers

import (
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"ytprompt/internal/version"
)

// Home はサービス情報を返す
func Home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name":    "YouTube Transcript Prompt API",
		"status":  "running",
		"version": version.Version,
		"endpoints": map[string]string{
			"process":  "POST /process",
			"download": "GET /download/:file_id",
			"files":    "GET /files",
			"delete":   "DELETE /files/:file_id",
			"jobs":     "POST /jobs, GET /jobs, GET /jobs/:id, GET /jobs/stats",
			"ui":       "GET /ui/files",
			"health":   "GET /health",
		},
	})
}

// Health はヘルスチェック
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	return component.Render(c.Request().Context(), c.Response())
}
