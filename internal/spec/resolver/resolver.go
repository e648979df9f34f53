// File path: internal/spec/resolver/resolver.go

// Package resolver orchestrates spec decoding end to end: it fetches
// template and event documents from the metadata store, owns the
// per-template-name parse cache, resolves business function engine names,
// and assembles formatted results. One Resolver corresponds to one session;
// its cache lives and dies with it, so independent sessions and tests never
// share state.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/calhayes/specview/internal/common"
	"github.com/calhayes/specview/internal/metadata"
	"github.com/calhayes/specview/internal/spec/ertree"
	"github.com/calhayes/specview/internal/spec/render"
	"github.com/calhayes/specview/internal/spec/template"
)

// StatusLoaded is the status message of a fully assembled formatted result.
const StatusLoaded = "Event rules loaded."

// FormattedResult is the immutable outcome of a successful event rules
// render.
type FormattedResult struct {
	Text          string `json:"text"`
	StatusMessage string `json:"status_message"`
	EventSpecKey  string `json:"event_spec_key"`
	TemplateName  string `json:"template_name"`
}

// Resolver caches parsed templates per name and coordinates metadata
// lookups. The cache is the only shared mutable state in the decoding
// subsystem; singleflight guarantees at most one concurrent fetch+parse per
// template name, and only successful parses are ever stored, so a cancelled
// fetch leaves the name unresolved for the next caller.
type Resolver struct {
	store  metadata.Store
	flight singleflight.Group

	mu        sync.RWMutex
	templates map[string]*template.Template
}

// New constructs a Resolver over the given metadata store.
func New(store metadata.Store) *Resolver {
	return &Resolver{
		store:     store,
		templates: make(map[string]*template.Template),
	}
}

// DataStructureTemplate returns the parsed template for name, fetching and
// parsing at most once per name for the resolver's lifetime. Repeated calls
// return the identical instance.
func (r *Resolver) DataStructureTemplate(ctx context.Context, name string) (*template.Template, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, &template.ValidationError{Reason: "template name required"}
	}

	r.mu.RLock()
	cached, ok := r.templates[trimmed]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := r.flight.Do(trimmed, func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.templates[trimmed]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}
		doc, err := r.store.FetchTemplate(ctx, trimmed)
		if err != nil {
			return nil, err
		}
		parsed, err := template.Parse(trimmed, doc.XML)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.templates[trimmed] = parsed
		r.mu.Unlock()
		return parsed, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*template.Template), nil
}

// ResolveBusinessFunctionName derives the engine name serving a template: a
// leading D in the template name becomes B, and the object catalog is
// queried for the first business function matching that pattern. Returns a
// metadata.ErrNotFound-wrapped error when no object matches.
func (r *Resolver) ResolveBusinessFunctionName(ctx context.Context, templateName string) (string, error) {
	trimmed := strings.TrimSpace(templateName)
	if trimmed == "" {
		return "", &template.ValidationError{Reason: "template name required"}
	}
	pattern := trimmed
	if pattern[0] == 'D' {
		pattern = "B" + pattern[1:]
	}
	pattern += "*"
	objects, err := r.store.QueryObjects(ctx, metadata.ObjectTypeBusinessFunction, pattern, 1)
	if err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", fmt.Errorf("business function for template %s (pattern %s): %w", trimmed, pattern, metadata.ErrNotFound)
	}
	return objects[0].ObjectName, nil
}

// FormattedEventRules fetches, decodes, resolves, and renders the event
// rules for eventSpecKey against templateName. Independent metadata lookups
// run concurrently; rendering starts only once every name it needs is
// resolved. A failed call yields no partial text; a successful call always
// yields complete text even when individual cross-references degraded.
func (r *Resolver) FormattedEventRules(ctx context.Context, eventSpecKey, templateName string) (FormattedResult, error) {
	logger := common.Logger()
	eventKey := strings.TrimSpace(eventSpecKey)
	tmplName := strings.TrimSpace(templateName)
	if eventKey == "" {
		return FormattedResult{}, &template.ValidationError{Reason: "event spec key required"}
	}
	if tmplName == "" {
		return FormattedResult{}, &template.ValidationError{Reason: "template name required"}
	}

	var eventDoc metadata.SpecDocument
	var eventTmpl *template.Template
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := r.store.FetchEventRules(gctx, eventKey)
		if err != nil {
			return fmt.Errorf("fetch event rules %s: %w", eventKey, err)
		}
		eventDoc = doc
		return nil
	})
	g.Go(func() error {
		tmpl, err := r.DataStructureTemplate(gctx, tmplName)
		if err != nil {
			return fmt.Errorf("fetch template %s: %w", tmplName, err)
		}
		eventTmpl = tmpl
		return nil
	})
	if err := g.Wait(); err != nil {
		return FormattedResult{}, err
	}

	tree, err := ertree.Parse(eventDoc.SpecKey, eventDoc.XML)
	if err != nil {
		return FormattedResult{}, err
	}

	lookups, err := r.buildLookups(ctx, tree, eventTmpl)
	if err != nil {
		return FormattedResult{}, err
	}

	text := render.Render(tree, lookups)
	logger.Debug("resolver: event rules rendered",
		"event", eventKey, "template", tmplName,
		"records", eventDoc.RecordCount, "lines", strings.Count(text, "\n")+1)
	return FormattedResult{
		Text:          text,
		StatusMessage: StatusLoaded,
		EventSpecKey:  eventKey,
		TemplateName:  tmplName,
	}, nil
}

// buildLookups resolves every cross-reference the tree needs, batched per
// distinct table, data-item set, and call template rather than per
// parameter. Missing catalog entries degrade; transport failures propagate.
func (r *Resolver) buildLookups(ctx context.Context, tree *ertree.Tree, eventTmpl *template.Template) (render.Lookups, error) {
	logger := common.Logger()
	lookups := render.Lookups{
		EventTemplate: eventTmpl,
		DictTitles:    make(map[string]string),
		TableIndexes:  make(map[string]map[int]string),
		EngineNames:   make(map[string]string),
	}

	tables := tree.Tables()
	dataItems := tree.DataItems()
	callTemplates := tree.CallTemplates()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, table := range tables {
		table := table
		g.Go(func() error {
			indexes, err := r.store.FetchTableIndexes(gctx, table)
			if err != nil {
				if errors.Is(err, metadata.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("fetch indexes for %s: %w", table, err)
			}
			named := make(map[int]string, len(indexes))
			for _, idx := range indexes {
				named[idx.ID] = idx.Name
			}
			mu.Lock()
			lookups.TableIndexes[table] = named
			mu.Unlock()
			return nil
		})
	}

	if len(dataItems) > 0 {
		g.Go(func() error {
			titles, err := r.store.FetchDictionaryTitles(gctx, dataItems)
			if err != nil {
				return fmt.Errorf("fetch dictionary titles: %w", err)
			}
			mu.Lock()
			for _, t := range titles {
				if t.Title1 != "" {
					lookups.DictTitles[t.DataItem] = t.Title1
				}
			}
			mu.Unlock()
			return nil
		})
	}

	for _, name := range callTemplates {
		name := name
		g.Go(func() error {
			if _, err := r.DataStructureTemplate(gctx, name); err != nil {
				if errors.Is(err, metadata.ErrNotFound) {
					logger.Warn("resolver: call template missing", "template", name)
					return nil
				}
				return err
			}
			engine, err := r.ResolveBusinessFunctionName(gctx, name)
			if err != nil {
				if errors.Is(err, metadata.ErrNotFound) {
					logger.Warn("resolver: business function unresolved", "template", name)
					return nil
				}
				return err
			}
			mu.Lock()
			lookups.EngineNames[name] = engine
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return render.Lookups{}, err
	}

	lookups.Template = func(name string) (*template.Template, bool) {
		r.mu.RLock()
		defer r.mu.RUnlock()
		tmpl, ok := r.templates[name]
		return tmpl, ok
	}
	return lookups, nil
}
