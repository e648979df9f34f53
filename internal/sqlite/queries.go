// File path: internal/sqlite/queries.go
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/calhayes/specview/internal/common"
	"github.com/calhayes/specview/internal/metadata"
	"github.com/calhayes/specview/internal/spec/blob"
	"github.com/calhayes/specview/internal/spec/template"
)

// Spec record type codes.
const (
	specTypeTemplate   = "TMPL"
	specTypeEventRules = "ER"
)

type specRecordRow struct {
	Payload    []byte `db:"payload"`
	Encoding   string `db:"encoding"`
	Compressed bool   `db:"compressed"`
}

// FetchEventRules assembles the event-rules XML document for a spec key.
func (s *Store) FetchEventRules(ctx context.Context, specKey string) (metadata.SpecDocument, error) {
	return s.fetchDocument(ctx, specTypeEventRules, specKey)
}

// FetchTemplate assembles the data-structure-template XML document for a
// template name.
func (s *Store) FetchTemplate(ctx context.Context, templateName string) (metadata.SpecDocument, error) {
	return s.fetchDocument(ctx, specTypeTemplate, templateName)
}

// fetchDocument concatenates a key's spec records in sequence order. XML
// records pass through as stored; binary records run through the blob
// decoder, whose diagnostics are logged and then discarded. A key with no
// records is ErrNotFound.
func (s *Store) fetchDocument(ctx context.Context, specType, specKey string) (metadata.SpecDocument, error) {
	logger := common.Logger()
	key := strings.TrimSpace(specKey)
	if key == "" {
		return metadata.SpecDocument{}, fmt.Errorf("sqlite: spec key required for %s fetch", specType)
	}

	var rows []specRecordRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT payload, encoding, compressed FROM spec_records
                 WHERE spec_key = ? AND spec_type = ? ORDER BY sequence`,
		key, specType)
	if err != nil {
		return metadata.SpecDocument{}, fmt.Errorf("select spec records %s/%s: %w", specType, key, err)
	}
	if len(rows) == 0 {
		return metadata.SpecDocument{}, fmt.Errorf("spec %s/%s: %w", specType, key, metadata.ErrNotFound)
	}

	var b strings.Builder
	for _, row := range rows {
		if row.Encoding == "binary" {
			result, diag := blob.Decode(row.Payload, row.Compressed)
			if !result.OK {
				logger.Warn("sqlite: spec record failed to decode",
					"spec", key, "type", specType,
					"sequence", diag.Sequence, "size", diag.BlobSize,
					"head", diag.HeadPreview)
				continue
			}
			logger.Debug("sqlite: spec record decoded",
				"spec", key, "type", specType,
				"encoding", result.Best.Encoding, "order", result.Best.Order,
				"unpacked", result.Best.UnpackedLen, "decompressed", result.FromDecompressed)
			b.Write(result.Data)
			continue
		}
		b.Write(row.Payload)
	}

	return metadata.SpecDocument{
		SpecKey:     key,
		XML:         template.NormalizePayload(b.String()),
		RecordCount: len(rows),
	}, nil
}

// QueryObjects lists catalog objects by type and name pattern. The pattern
// uses "*" as wildcard; limit caps the result when positive.
func (s *Store) QueryObjects(ctx context.Context, objectType, namePattern string, limit int) ([]metadata.CatalogObject, error) {
	like := strings.ReplaceAll(strings.TrimSpace(namePattern), "*", "%")
	if like == "" {
		like = "%"
	}
	query := `SELECT object_name, object_type, description, system_code
                  FROM object_catalog
                  WHERE object_type = ? AND object_name LIKE ?
                  ORDER BY object_name`
	args := []interface{}{strings.TrimSpace(objectType), like}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var out []metadata.CatalogObject
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query object catalog: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var obj metadata.CatalogObject
		if err := rows.Scan(&obj.ObjectName, &obj.ObjectType, &obj.Description, &obj.SystemCode); err != nil {
			return nil, fmt.Errorf("scan catalog object: %w", err)
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

// FetchTableIndexes returns the indexes declared for a table with their
// ordered key columns. A table with no declared indexes yields an empty
// list, not an error.
func (s *Store) FetchTableIndexes(ctx context.Context, tableName string) ([]metadata.TableIndex, error) {
	name := strings.TrimSpace(tableName)
	rows, err := s.db.QueryxContext(ctx,
		`SELECT idx_id, idx_name, is_primary FROM table_indexes
                 WHERE table_name = ? ORDER BY idx_id`, name)
	if err != nil {
		return nil, fmt.Errorf("query table indexes %s: %w", name, err)
	}
	defer rows.Close()

	var out []metadata.TableIndex
	byID := make(map[int]int)
	for rows.Next() {
		var idx metadata.TableIndex
		if err := rows.Scan(&idx.ID, &idx.Name, &idx.Primary); err != nil {
			return nil, fmt.Errorf("scan table index: %w", err)
		}
		byID[idx.ID] = len(out)
		out = append(out, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	keyRows, err := s.db.QueryxContext(ctx,
		`SELECT idx_id, column_name FROM table_index_keys
                 WHERE table_name = ? ORDER BY idx_id, seq`, name)
	if err != nil {
		return nil, fmt.Errorf("query index keys %s: %w", name, err)
	}
	defer keyRows.Close()
	for keyRows.Next() {
		var id int
		var column string
		if err := keyRows.Scan(&id, &column); err != nil {
			return nil, fmt.Errorf("scan index key: %w", err)
		}
		if pos, ok := byID[id]; ok {
			out[pos].KeyColumns = append(out[pos].KeyColumns, column)
		}
	}
	return out, keyRows.Err()
}

// FetchDictionaryTitles resolves titles for a batch of data items. Items
// without a dictionary row are absent from the result.
func (s *Store) FetchDictionaryTitles(ctx context.Context, dataItems []string) ([]metadata.DictionaryTitle, error) {
	if len(dataItems) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT data_item, title1, title2 FROM data_dictionary WHERE data_item IN (?)`,
		dataItems)
	if err != nil {
		return nil, fmt.Errorf("build dictionary query: %w", err)
	}
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query data dictionary: %w", err)
	}
	defer rows.Close()

	var out []metadata.DictionaryTitle
	for rows.Next() {
		var title metadata.DictionaryTitle
		if err := rows.Scan(&title.DataItem, &title.Title1, &title.Title2); err != nil {
			return nil, fmt.Errorf("scan dictionary title: %w", err)
		}
		out = append(out, title)
	}
	return out, rows.Err()
}
