package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountExports serves written board reports from the export directory.
func (s *Server) mountExports() {
	if s.exportDir == "" {
		s.logger.Warn("export directory not configured; downloads disabled")
		return
	}

	s.engine.GET("/exports/:file", func(c *gin.Context) {
		name := c.Param("file")
		if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
			return
		}

		path := filepath.Join(s.exportDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": "export not found"})
			return
		}
		c.FileAttachment(path, name)
	})
}
