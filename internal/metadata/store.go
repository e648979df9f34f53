// File path: internal/metadata/store.go
package metadata

import (
	"context"
	"errors"
)

// ErrNotFound reports that a requested spec document or catalog object does
// not exist in the backing store. Callers distinguish it from transport
// failures so they can report a missing spec by name.
var ErrNotFound = errors.New("metadata: not found")

// SpecDocument is a normalized XML payload for one logical spec record — a
// data structure template or an event-rule stream. RecordCount is the number
// of source records assembled into the document. Documents for the same key
// are never merged; the most recent fetch wins.
type SpecDocument struct {
	SpecKey     string `json:"spec_key"`
	XML         string `json:"xml"`
	RecordCount int    `json:"record_count"`
}

// CatalogObject is one row from the ERP object catalog.
type CatalogObject struct {
	ObjectName  string `json:"object_name"`
	ObjectType  string `json:"object_type"`
	Description string `json:"description"`
	SystemCode  string `json:"system_code"`
}

// TableIndex describes one index defined over an ERP table.
type TableIndex struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Primary    bool     `json:"primary"`
	KeyColumns []string `json:"key_columns"`
}

// DictionaryTitle carries the human-readable label for a data dictionary
// item, resolved independently of any spec.
type DictionaryTitle struct {
	DataItem string `json:"data_item"`
	Title1   string `json:"title1"`
	Title2   string `json:"title2"`
}

// ObjectTypeBusinessFunction is the catalog type code for business function
// objects, used when resolving engine names from template names.
const ObjectTypeBusinessFunction = "BSFN"

// Store exposes the metadata/spec query operations the decoding engine
// depends on. Implementations own transport, retry, and timeout policy;
// callers treat every method as a plain request/response.
type Store interface {
	// FetchEventRules returns the event-rules XML document for a spec key.
	FetchEventRules(ctx context.Context, specKey string) (SpecDocument, error)
	// FetchTemplate returns the data-structure-template XML document for a
	// template name.
	FetchTemplate(ctx context.Context, templateName string) (SpecDocument, error)
	// QueryObjects lists catalog objects of the given type whose names match
	// the pattern ("*" wildcard), capped at limit when limit > 0.
	QueryObjects(ctx context.Context, objectType, namePattern string, limit int) ([]CatalogObject, error)
	// FetchTableIndexes returns the index metadata declared for a table.
	FetchTableIndexes(ctx context.Context, tableName string) ([]TableIndex, error)
	// FetchDictionaryTitles resolves titles for a batch of data items.
	// Unknown items are simply absent from the result.
	FetchDictionaryTitles(ctx context.Context, dataItems []string) ([]DictionaryTitle, error)
	Close() error
}
