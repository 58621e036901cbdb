package tileserver

import (
	"bytes"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"
)

// StatusResponse is the response from the /status endpoint
type StatusResponse struct {
	Status   string          `json:"status"`
	Service  string          `json:"service"`
	Port     int             `json:"port"`
	Archives []ArchiveStatus `json:"archives"`
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Status:   "ok",
		Service:  "tileserver",
		Port:     s.Port(),
		Archives: s.Archives(),
	})
}

const maxZoom = 30

var gzipMagic = []byte{0x1f, 0x8b}

func (s *Server) handleTile(c *gin.Context) {
	name := c.Param("archive")

	tile, ok := parseTile(c.Param("z"), c.Param("x"), c.Param("y"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tile coordinates"})
		return
	}

	archive, ok := s.archive(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive not found", "archive": name})
		return
	}

	data, err := archive.Tile(c.Request.Context(), tile)
	if errors.Is(err, ErrTileNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Failed to read tile",
			zap.String("archive", name),
			zap.Uint32("z", uint32(tile.Z)),
			zap.Uint32("x", tile.X),
			zap.Uint32("y", tile.Y),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read tile"})
		return
	}

	// vector tiles are usually stored gzipped
	if bytes.HasPrefix(data, gzipMagic) {
		c.Header("Content-Encoding", "gzip")
	}
	c.Data(http.StatusOK, archive.ContentType(data), data)
}

// parseTile parses z, x and y ("12.png"); the extension of y is ignored
func parseTile(zs, xs, ys string) (maptile.Tile, bool) {
	ys = strings.TrimSuffix(ys, path.Ext(ys))

	z, err := strconv.ParseUint(zs, 10, 32)
	if err != nil || z > maxZoom {
		return maptile.Tile{}, false
	}
	x, err := strconv.ParseUint(xs, 10, 32)
	if err != nil {
		return maptile.Tile{}, false
	}
	y, err := strconv.ParseUint(ys, 10, 32)
	if err != nil {
		return maptile.Tile{}, false
	}

	// x and y must lie within the 2^z by 2^z grid
	n := uint64(1) << z
	if x >= n || y >= n {
		return maptile.Tile{}, false
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), true
}
