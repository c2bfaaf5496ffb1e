package handlers

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Credentials はBasic認証の資格情報
type Credentials struct {
	Username string
	Password string
}

// Routes はルート登録に必要なハンドラー群
type Routes struct {
	Process *ProcessHandler
	Files   *FileHandler
	Jobs    *JobHandler
}

// Register はルートを登録する
func Register(e *echo.Echo, creds Credentials, r Routes) {
	e.GET("/", Home)
	e.GET("/health", Health)

	g := e.Group("", middleware.BasicAuth(basicAuthValidator(creds)))

	g.POST("/process", r.Process.Process)

	g.GET("/download/:file_id", r.Files.Download)
	g.GET("/files", r.Files.List)
	g.DELETE("/files/:file_id", r.Files.Delete)
	g.GET("/ui/files", r.Files.ListPage)

	g.POST("/jobs", r.Jobs.Submit)
	g.GET("/jobs", r.Jobs.List)
	g.GET("/jobs/stats", r.Jobs.Stats)
	g.GET("/jobs/:id", r.Jobs.Get)
	g.DELETE("/jobs/:id", r.Jobs.Delete)
}

func basicAuthValidator(creds Credentials) middleware.BasicAuthValidator {
	return func(username, password string, c echo.Context) (bool, error) {
		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(creds.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(creds.Password)) == 1
		return userOK && passOK, nil
	}
}
