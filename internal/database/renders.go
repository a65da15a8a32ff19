package database

import (
	"database/sql"
)

const renderColumns = `id, render_id, poi_id, poi_name, locale, provider, manifest_path, payload_path,
	storyboard_path, response_path, signed_manifest_url, signed_video_url, asset_count, dry_run,
	manifest, created_at`

// InsertRender records a stored render. Re-recording a render id replaces the row.
func (db *DB) InsertRender(r Render) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO renders (render_id, poi_id, poi_name, locale, provider, manifest_path,
		payload_path, storyboard_path, response_path, signed_manifest_url, signed_video_url,
		asset_count, dry_run, manifest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RenderID, r.POIID, r.POIName, r.Locale, r.Provider, r.ManifestPath,
		r.PayloadPath, r.StoryboardPath, r.ResponsePath, r.SignedManifestURL, r.SignedVideoURL,
		r.AssetCount, boolToInt(r.DryRun), r.Manifest,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLatestRenderForPOI returns the most recent render of a POI, or nil.
func (db *DB) GetLatestRenderForPOI(poiID string) (*Render, error) {
	row := db.conn.QueryRow(
		`SELECT `+renderColumns+` FROM renders WHERE poi_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		poiID,
	)
	return nullable(scanRender(row))
}

// GetRender returns a render by its render id, or nil.
func (db *DB) GetRender(renderID string) (*Render, error) {
	row := db.conn.QueryRow(`SELECT `+renderColumns+` FROM renders WHERE render_id = ?`, renderID)
	return nullable(scanRender(row))
}

// GetAllRenders returns every render, newest first.
func (db *DB) GetAllRenders() ([]Render, error) {
	rows, err := db.conn.Query(`SELECT ` + renderColumns + ` FROM renders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var renders []Render
	for rows.Next() {
		r, err := scanRender(rows)
		if err != nil {
			return nil, err
		}
		renders = append(renders, *r)
	}
	return renders, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRender(s scanner) (*Render, error) {
	var r Render
	var poiName, locale, manifestPath, payloadPath, storyboardPath, responsePath sql.NullString
	var dryRun int
	if err := s.Scan(&r.ID, &r.RenderID, &r.POIID, &poiName, &locale, &r.Provider,
		&manifestPath, &payloadPath, &storyboardPath, &responsePath,
		&r.SignedManifestURL, &r.SignedVideoURL, &r.AssetCount, &dryRun,
		&r.Manifest, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.POIName = poiName.String
	r.Locale = locale.String
	r.ManifestPath = manifestPath.String
	r.PayloadPath = payloadPath.String
	r.StoryboardPath = storyboardPath.String
	r.ResponsePath = responsePath.String
	r.DryRun = dryRun != 0
	return &r, nil
}

func nullable(r *Render, err error) (*Render, error) {
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
