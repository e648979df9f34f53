// File path: internal/spec/resolver/resolver_test.go
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calhayes/specview/internal/metadata"
	"github.com/calhayes/specview/internal/spec/template"
)

// fakeStore is an in-memory metadata.Store for resolver tests.
type fakeStore struct {
	mu              sync.Mutex
	events          map[string]string
	templates       map[string]string
	objects         []metadata.CatalogObject
	indexes         map[string][]metadata.TableIndex
	titles          map[string]metadata.DictionaryTitle
	templateDelay   time.Duration
	templateFetches map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:          make(map[string]string),
		templates:       make(map[string]string),
		indexes:         make(map[string][]metadata.TableIndex),
		titles:          make(map[string]metadata.DictionaryTitle),
		templateFetches: make(map[string]int),
	}
}

func (f *fakeStore) FetchEventRules(ctx context.Context, specKey string) (metadata.SpecDocument, error) {
	f.mu.Lock()
	xml, ok := f.events[specKey]
	f.mu.Unlock()
	if !ok {
		return metadata.SpecDocument{}, fmt.Errorf("event rules %s: %w", specKey, metadata.ErrNotFound)
	}
	return metadata.SpecDocument{SpecKey: specKey, XML: xml, RecordCount: 1}, nil
}

func (f *fakeStore) FetchTemplate(ctx context.Context, templateName string) (metadata.SpecDocument, error) {
	f.mu.Lock()
	f.templateFetches[templateName]++
	xml, ok := f.templates[templateName]
	delay := f.templateDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		return metadata.SpecDocument{}, fmt.Errorf("template %s: %w", templateName, metadata.ErrNotFound)
	}
	return metadata.SpecDocument{SpecKey: templateName, XML: xml, RecordCount: 1}, nil
}

func (f *fakeStore) QueryObjects(ctx context.Context, objectType, namePattern string, limit int) ([]metadata.CatalogObject, error) {
	prefix := strings.TrimSuffix(namePattern, "*")
	var out []metadata.CatalogObject
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, obj := range f.objects {
		if obj.ObjectType != objectType {
			continue
		}
		if !strings.HasPrefix(obj.ObjectName, prefix) {
			continue
		}
		out = append(out, obj)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) FetchTableIndexes(ctx context.Context, tableName string) ([]metadata.TableIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	indexes, ok := f.indexes[tableName]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", tableName, metadata.ErrNotFound)
	}
	return indexes, nil
}

func (f *fakeStore) FetchDictionaryTitles(ctx context.Context, dataItems []string) ([]metadata.DictionaryTitle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []metadata.DictionaryTitle
	for _, item := range dataItems {
		if title, ok := f.titles[item]; ok {
			out = append(out, title)
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) fetchCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.templateFetches[name]
}

const fakeTemplateXML = `<DSTemplate szDescription="My Template">
  <Template>
    <DSItem idItem="1" nSeq="1" szCopyWord="OUT" szDict="AL1" szField="Field1"/>
  </Template>
</DSTemplate>`

func TestDataStructureTemplateCached(t *testing.T) {
	store := newFakeStore()
	store.templates["D0001"] = fakeTemplateXML
	r := New(store)

	first, err := r.DataStructureTemplate(context.Background(), "D0001")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := r.DataStructureTemplate(context.Background(), " D0001 ")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first != second {
		t.Fatalf("repeated resolution must return the identical instance")
	}
	if n := store.fetchCount("D0001"); n != 1 {
		t.Fatalf("expected exactly one fetch, got %d", n)
	}
}

func TestDataStructureTemplateConcurrent(t *testing.T) {
	store := newFakeStore()
	store.templates["D0001"] = fakeTemplateXML
	store.templateDelay = 20 * time.Millisecond
	r := New(store)

	const workers = 8
	results := make([]*template.Template, workers)
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tmpl, err := r.DataStructureTemplate(context.Background(), "D0001")
			if err != nil {
				failures.Add(1)
				return
			}
			results[i] = tmpl
		}(i)
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d concurrent resolutions failed", failures.Load())
	}
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("concurrent callers received different instances")
		}
	}
	if n := store.fetchCount("D0001"); n != 1 {
		t.Fatalf("expected a single collapsed fetch, got %d", n)
	}
}

func TestDataStructureTemplateFailureNotCached(t *testing.T) {
	store := newFakeStore()
	r := New(store)

	if _, err := r.DataStructureTemplate(context.Background(), "D0404"); !errors.Is(err, metadata.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	// A later arrival of the document must be visible: the failure did not
	// poison the cache.
	store.mu.Lock()
	store.templates["D0404"] = fakeTemplateXML
	store.mu.Unlock()
	if _, err := r.DataStructureTemplate(context.Background(), "D0404"); err != nil {
		t.Fatalf("resolve after document arrived: %v", err)
	}
	if n := store.fetchCount("D0404"); n != 2 {
		t.Fatalf("expected a retry fetch, got %d", n)
	}
}

func TestDataStructureTemplateBlankName(t *testing.T) {
	r := New(newFakeStore())
	var validation *template.ValidationError
	if _, err := r.DataStructureTemplate(context.Background(), "   "); !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveBusinessFunctionName(t *testing.T) {
	store := newFakeStore()
	store.objects = []metadata.CatalogObject{
		{ObjectName: "B1234_ENGINE", ObjectType: metadata.ObjectTypeBusinessFunction},
		{ObjectName: "B1234_OTHER", ObjectType: metadata.ObjectTypeBusinessFunction},
	}
	r := New(store)

	name, err := r.ResolveBusinessFunctionName(context.Background(), "D1234")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if name != "B1234_ENGINE" {
		t.Fatalf("expected first match, got %q", name)
	}

	if _, err := r.ResolveBusinessFunctionName(context.Background(), "D9999"); !errors.Is(err, metadata.ErrNotFound) {
		t.Fatalf("expected not-found for unmatched pattern, got %v", err)
	}
}

const fakeEventXML = `<EventRules>
  <ERIf szDesc="If AddressNumber is greater than Zero">
  </ERIf>
  <ERBSFNCall szFunction="MyFunc" szTemplate="D0001">
    <ERParam szCopyWord="OUT" idItem="1"><Member idItem="1"/></ERParam>
  </ERBSFNCall>
  <ERFileIO szTable="F0101" szOp="FETCH_SINGLE" idIndex="1">
    <ERParam szCopyWord="IN" szDict="AN8"><From><Member idItem="1"/></From></ERParam>
  </ERFileIO>
  <EREndIf/>
</EventRules>`

func TestFormattedEventRules(t *testing.T) {
	store := newFakeStore()
	store.events["E55"] = fakeEventXML
	store.templates["D9001"] = fakeTemplateXML
	store.templates["D0001"] = fakeTemplateXML
	store.objects = []metadata.CatalogObject{
		{ObjectName: "B0001_ENGINE", ObjectType: metadata.ObjectTypeBusinessFunction},
	}
	store.indexes["F0101"] = []metadata.TableIndex{{ID: 1, Name: "Address Number", Primary: true}}
	store.titles["AN8"] = metadata.DictionaryTitle{DataItem: "AN8", Title1: "Address Number"}
	r := New(store)

	result, err := r.FormattedEventRules(context.Background(), "E55", "D9001")
	if err != nil {
		t.Fatalf("formatted event rules: %v", err)
	}
	if result.StatusMessage != StatusLoaded {
		t.Fatalf("unexpected status message %q", result.StatusMessage)
	}
	if result.EventSpecKey != "E55" || result.TemplateName != "D9001" {
		t.Fatalf("unexpected result identity %+v", result)
	}

	want := strings.Join([]string{
		"If AddressNumber is greater than Zero",
		"\tMyFunc(B0001_ENGINE.MyFunc)",
		"\t|   BF Field1 [AL1] <- Field1 [AL1]",
		"\tF0101.FetchSingle Index 1",
		"\t\tField1 [AL1] -> Address Number [AN8]",
		"End If",
	}, "\n")
	if result.Text != want {
		t.Fatalf("unexpected text:\n%s\n--- want ---\n%s", result.Text, want)
	}
}

func TestFormattedEventRulesDegradesMissingEngine(t *testing.T) {
	store := newFakeStore()
	store.events["E55"] = fakeEventXML
	store.templates["D9001"] = fakeTemplateXML
	store.templates["D0001"] = fakeTemplateXML
	r := New(store)

	result, err := r.FormattedEventRules(context.Background(), "E55", "D9001")
	if err != nil {
		t.Fatalf("formatted event rules: %v", err)
	}
	if !strings.Contains(result.Text, "MyFunc(D0001.MyFunc)") {
		t.Fatalf("missing engine must degrade to the template name:\n%s", result.Text)
	}
	if !strings.Contains(result.Text, "F0101.FetchSingle") {
		t.Fatalf("file IO header missing:\n%s", result.Text)
	}
	if strings.Contains(result.Text, "Index 1") {
		t.Fatalf("unresolved index must not render:\n%s", result.Text)
	}
}

func TestFormattedEventRulesMissingEvent(t *testing.T) {
	store := newFakeStore()
	store.templates["D9001"] = fakeTemplateXML
	r := New(store)

	if _, err := r.FormattedEventRules(context.Background(), "E404", "D9001"); !errors.Is(err, metadata.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestFormattedEventRulesBlankArguments(t *testing.T) {
	r := New(newFakeStore())
	var validation *template.ValidationError
	if _, err := r.FormattedEventRules(context.Background(), "", "D1"); !errors.As(err, &validation) {
		t.Fatalf("blank event key: expected validation error, got %v", err)
	}
	if _, err := r.FormattedEventRules(context.Background(), "E1", "  "); !errors.As(err, &validation) {
		t.Fatalf("blank template name: expected validation error, got %v", err)
	}
}
