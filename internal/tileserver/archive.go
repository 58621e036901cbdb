package tileserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"

	// pure Go SQLite driver, registered as "sqlite"
	_ "modernc.org/sqlite"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
)

var (
	ErrInvalidArchive = errors.New("invalid mbtiles archive")
	ErrTileNotFound   = errors.New("tile not found")
)

// Archive is an MBTiles file opened read-only
type Archive struct {
	Name     string
	Path     string
	Format   string
	Bounds   *domain.GeoBounds
	Metadata map[string]string

	db *sql.DB
}

// OpenArchive opens and validates an MBTiles file
func OpenArchive(ctx context.Context, name, path string) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidArchive, path)
	}

	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	a := &Archive{Name: name, Path: path, db: db}
	if err := a.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// readOnlyDSN builds a SQLite URI for path. The path is escaped so '#', '?'
// and '%' in directory names are not taken as URI syntax.
func readOnlyDSN(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}
	return u.String()
}

func (a *Archive) load(ctx context.Context) error {
	hasTiles, err := a.hasRelation(ctx, "tiles")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidArchive, a.Path, err)
	}
	if !hasTiles {
		return fmt.Errorf("%w: %s has no tiles table", ErrInvalidArchive, a.Path)
	}

	a.Metadata = make(map[string]string)
	hasMetadata, err := a.hasRelation(ctx, "metadata")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidArchive, a.Path, err)
	}
	if hasMetadata {
		if err := a.readMetadata(ctx); err != nil {
			return err
		}
	}

	a.Format = strings.ToLower(a.Metadata["format"])
	if raw := a.Metadata["bounds"]; raw != "" {
		bounds, err := parseBounds(raw)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidArchive, a.Path, err)
		}
		a.Bounds = bounds
	}
	return nil
}

func (a *Archive) hasRelation(ctx context.Context, name string) (bool, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE name = ? AND type IN ('table', 'view')`, name,
	).Scan(&n)
	return n > 0, err
}

func (a *Archive) readMetadata(ctx context.Context) error {
	rows, err := a.db.QueryContext(ctx, `SELECT name, value FROM metadata`)
	if err != nil {
		return fmt.Errorf("failed to read metadata of %s: %w", a.Path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("failed to read metadata of %s: %w", a.Path, err)
		}
		a.Metadata[k.String] = v.String
	}
	return rows.Err()
}

// parseBounds parses the MBTiles "left,bottom,right,top" bounds value
func parseBounds(raw string) (*domain.GeoBounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bounds %q: want 4 comma separated values", raw)
	}

	v := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bounds %q: %w", raw, err)
		}
		v[i] = f
	}
	return domain.BoundsFromSlice(v)
}

// Tile reads one tile. The row is the TMS row, as stored in MBTiles.
func (a *Archive) Tile(ctx context.Context, t maptile.Tile) ([]byte, error) {
	var data []byte
	err := a.db.QueryRowContext(ctx,
		`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		int64(t.Z), int64(t.X), int64(t.Y),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTileNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ContentType returns the media type of the archive's tiles
func (a *Archive) ContentType(data []byte) string {
	switch a.Format {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "pbf", "mvt":
		return "application/x-protobuf"
	}
	return http.DetectContentType(data)
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}
