package types

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ewkbSRIDFlag marks WKB geometries that carry an explicit SRID.
const ewkbSRIDFlag = 0x20000000

// GeographyPoint is a WGS84 point attached to an order's delivery address.
type GeographyPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Value renders the point as an EWKT literal, which Postgres casts to
// geography and which round-trips through plain TEXT columns.
func (g GeographyPoint) Value() (driver.Value, error) {
	lng := strconv.FormatFloat(g.Lng, 'f', -1, 64)
	lat := strconv.FormatFloat(g.Lat, 'f', -1, 64)
	return "SRID=4326;POINT(" + lng + " " + lat + ")", nil
}

// Scan accepts EWKT/WKT text, hex-encoded EWKB, or raw WKB bytes.
func (g *GeographyPoint) Scan(value interface{}) error {
	if value == nil {
		*g = GeographyPoint{}
		return nil
	}

	switch v := value.(type) {
	case string:
		return g.scanText(v)
	case []byte:
		text := strings.TrimSpace(string(v))
		if looksLikePointText(text) {
			return g.scanText(text)
		}
		if decoded, err := hex.DecodeString(text); err == nil && len(decoded) >= 21 {
			return g.scanWKB(decoded)
		}
		return g.scanWKB(v)
	case fmt.Stringer:
		return g.scanText(v.String())
	default:
		return fmt.Errorf("geography: cannot scan %T", value)
	}
}

func looksLikePointText(text string) bool {
	upper := strings.ToUpper(text)
	return strings.HasPrefix(upper, "SRID=") || strings.HasPrefix(upper, "POINT")
}

func (g *GeographyPoint) scanText(raw string) error {
	raw = strings.TrimSpace(raw)

	// PostGIS drivers commonly hand back hex-encoded EWKB as text.
	if decoded, err := hex.DecodeString(raw); err == nil && len(decoded) >= 21 {
		return g.scanWKB(decoded)
	}

	if idx := strings.Index(raw, ";"); idx != -1 && strings.HasPrefix(strings.ToUpper(raw), "SRID=") {
		raw = strings.TrimSpace(raw[idx+1:])
	}

	upper := strings.ToUpper(raw)
	if !strings.HasPrefix(upper, "POINT") {
		return fmt.Errorf("geography: unsupported text %q", raw)
	}
	open := strings.IndexByte(raw, '(')
	closing := strings.LastIndexByte(raw, ')')
	if open == -1 || closing <= open {
		return fmt.Errorf("geography: malformed point %q", raw)
	}

	coords := strings.Fields(raw[open+1 : closing])
	if len(coords) != 2 {
		return fmt.Errorf("geography: expected two coordinates in %q", raw)
	}

	lng, err := parseCoordinate(coords[0])
	if err != nil {
		return err
	}
	lat, err := parseCoordinate(coords[1])
	if err != nil {
		return err
	}

	g.Lng, g.Lat = lng, lat
	return nil
}

func (g *GeographyPoint) scanWKB(raw []byte) error {
	if len(raw) < 21 {
		return fmt.Errorf("geography: wkb payload too short (%d bytes)", len(raw))
	}

	var order binary.ByteOrder
	switch raw[0] {
	case 0:
		order = binary.BigEndian
	case 1:
		order = binary.LittleEndian
	default:
		return fmt.Errorf("geography: invalid wkb byte order %d", raw[0])
	}

	geomType := order.Uint32(raw[1:5])
	body := raw[5:]
	if geomType&ewkbSRIDFlag != 0 {
		geomType &^= ewkbSRIDFlag
		if len(body) < 20 {
			return fmt.Errorf("geography: truncated ewkb payload")
		}
		body = body[4:] // skip SRID
	}
	if geomType != 1 {
		return fmt.Errorf("geography: geometry type %d is not a point", geomType)
	}
	if len(body) < 16 {
		return fmt.Errorf("geography: truncated point payload")
	}

	g.Lng = math.Float64frombits(order.Uint64(body[0:8]))
	g.Lat = math.Float64frombits(order.Uint64(body[8:16]))
	return nil
}

func parseCoordinate(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("geography: bad coordinate %q: %w", value, err)
	}
	return f, nil
}
