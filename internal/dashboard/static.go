package dashboard

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

//go:embed assets/*
var embeddedAssets embed.FS

func mountStatic(r *gin.Engine, logger *slog.Logger) {
	fs, err := static.EmbedFolder(embeddedAssets, "assets")
	if err != nil {
		panic("dashboard: failed to load embedded assets: " + err.Error())
	}
	r.Use(static.Serve("/", fs))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.RequestURI, "/api") || strings.HasPrefix(c.Request.RequestURI, "/swagger") {
			return
		}
		index, err := fs.Open("index.html")
		if err != nil {
			if logger != nil {
				logger.Error("dashboard: failed to open index.html", "error", err)
			}
			return
		}
		defer index.Close()
		stat, _ := index.Stat()
		http.ServeContent(c.Writer, c.Request, "index.html", stat.ModTime(), index)
	})
}
