// Package diagram owns the entities and relationships of a class diagram.
// It sequences ingestion, relationship inference, ordering and rendering.
//
// Every ingestion call comes in a create variant, which clears the diagram
// first, and an add variant, which appends. Both parse all inputs before
// touching the diagram, so a failed call leaves it unchanged. Create
// variants rebuild relationships; add variants do not, and callers batch
// them with a final Rebuild.
//
// A Diagram is not safe for concurrent use.
package diagram

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/hpp2puml/internal/graph"
	"github.com/phobologic/hpp2puml/internal/model"
	"github.com/phobologic/hpp2puml/internal/order"
	"github.com/phobologic/hpp2puml/internal/parse"
	"github.com/phobologic/hpp2puml/internal/puml"
)

// Diagram is a mutable set of entities plus the relationships inferred
// from them.
type Diagram struct {
	entities []model.Entity
	rels     graph.Relationships

	withDependencies bool
	strict           bool
	templateFile     string
	logger           *slog.Logger
}

// Option configures a Diagram.
type Option func(*Diagram)

// WithDependencies enables dependency relationships.
func WithDependencies(enabled bool) Option {
	return func(d *Diagram) { d.withDependencies = enabled }
}

// WithStrict makes syntax errors in inputs fatal.
func WithStrict(strict bool) Option {
	return func(d *Diagram) { d.strict = strict }
}

// WithTemplateFile overrides blocks of the built-in template with the
// template in path.
func WithTemplateFile(path string) Option {
	return func(d *Diagram) { d.templateFile = path }
}

// WithLogger sets the logger for ingestion diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Diagram) { d.logger = logger }
}

// New returns an empty Diagram.
func New(opts ...Option) *Diagram {
	d := &Diagram{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Entities returns the current entities.
func (d *Diagram) Entities() []model.Entity { return d.entities }

// Relationships returns the relationship lists from the last rebuild.
func (d *Diagram) Relationships() graph.Relationships { return d.rels }

// Clear removes all entities and relationships.
func (d *Diagram) Clear() {
	d.entities = nil
	d.rels = graph.Relationships{}
}

// CreateFromFile replaces the diagram with the declarations in path.
func (d *Diagram) CreateFromFile(ctx context.Context, path string) error {
	return d.ingest(ctx, []string{path}, parse.FromFile, true)
}

// CreateFromFileList replaces the diagram with the declarations in paths.
func (d *Diagram) CreateFromFileList(ctx context.Context, paths []string) error {
	return d.ingest(ctx, paths, parse.FromFile, true)
}

// AddFromFile appends the declarations in path without rebuilding.
func (d *Diagram) AddFromFile(ctx context.Context, path string) error {
	return d.ingest(ctx, []string{path}, parse.FromFile, false)
}

// AddFromFileList appends the declarations in paths without rebuilding.
func (d *Diagram) AddFromFileList(ctx context.Context, paths []string) error {
	return d.ingest(ctx, paths, parse.FromFile, false)
}

// CreateFromString replaces the diagram with the declarations in source.
func (d *Diagram) CreateFromString(ctx context.Context, source string) error {
	return d.ingest(ctx, []string{source}, parse.FromString, true)
}

// CreateFromStringList replaces the diagram with the declarations in
// sources.
func (d *Diagram) CreateFromStringList(ctx context.Context, sources []string) error {
	return d.ingest(ctx, sources, parse.FromString, true)
}

// AddFromString appends the declarations in source without rebuilding.
func (d *Diagram) AddFromString(ctx context.Context, source string) error {
	return d.ingest(ctx, []string{source}, parse.FromString, false)
}

// AddFromStringList appends the declarations in sources without
// rebuilding.
func (d *Diagram) AddFromStringList(ctx context.Context, sources []string) error {
	return d.ingest(ctx, sources, parse.FromString, false)
}

func (d *Diagram) ingest(ctx context.Context, inputs []string, mode parse.Mode, create bool) error {
	headers, err := d.parseConcurrent(ctx, inputs, mode)
	if err != nil {
		return err
	}

	var entities []model.Entity
	for _, h := range headers {
		converted, err := convert(h)
		if err != nil {
			return err
		}
		d.logger.Debug("parsed input", "input", h.Name, "classes", len(h.Classes), "enums", len(h.Enums))
		entities = append(entities, converted...)
	}

	if create {
		d.Clear()
	}
	d.entities = append(d.entities, entities...)
	if create {
		d.Rebuild()
	}
	return nil
}

// parseConcurrent parses inputs on a bounded pool of workers, each with its
// own parser. Headers are returned in input order. The first failure
// cancels the remaining work.
func (d *Diagram) parseConcurrent(ctx context.Context, inputs []string, mode parse.Mode) ([]*parse.Header, error) {
	headers := make([]*parse.Header, len(inputs))
	if len(inputs) == 0 {
		return headers, nil
	}

	numWorkers := min(runtime.GOMAXPROCS(0), len(inputs))
	work := make(chan int, len(inputs))
	for i := range inputs {
		work <- i
	}
	close(work)

	g, ctx := errgroup.WithContext(ctx)
	for range numWorkers {
		g.Go(func() error {
			p := parse.New(parse.WithStrict(d.strict), parse.WithLogger(d.logger))
			defer p.Close()

			for idx := range work {
				if err := ctx.Err(); err != nil {
					return errors.WithStack(err)
				}
				h, err := p.Parse(ctx, inputs[idx], mode)
				if err != nil {
					return err
				}
				headers[idx] = h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return headers, nil
}

// BuildRelationshipLists recomputes every relationship list from the
// current entities.
func (d *Diagram) BuildRelationshipLists() {
	d.rels = graph.Build(d.entities, d.withDependencies)
}

// SortElements puts entities, members and relationships into canonical
// order.
func (d *Diagram) SortElements() {
	order.Entities(d.entities)
	order.Relationships(d.rels.Inheritance)
	order.Relationships(d.rels.Aggregation)
	order.Relationships(d.rels.Nesting)
	order.Relationships(d.rels.Dependency)
}

// Rebuild infers relationships from scratch and sorts everything.
func (d *Diagram) Rebuild() {
	d.BuildRelationshipLists()
	d.SortElements()
	d.logger.Debug("rebuilt diagram",
		"entities", len(d.entities),
		"inheritance", len(d.rels.Inheritance),
		"aggregation", len(d.rels.Aggregation),
		"nesting", len(d.rels.Nesting),
		"dependency", len(d.rels.Dependency))
}

// Render writes the diagram to w in PlantUML syntax.
func (d *Diagram) Render(w io.Writer) error {
	r, err := puml.NewFromFile(d.templateFile)
	if err != nil {
		return err
	}
	return r.Render(w, puml.Document{
		Entities:         d.entities,
		Inheritance:      d.rels.Inheritance,
		Aggregation:      d.rels.Aggregation,
		Nesting:          d.rels.Nesting,
		Dependency:       d.rels.Dependency,
		WithDependencies: d.withDependencies,
	})
}

// RenderString renders the diagram to a string.
func (d *Diagram) RenderString() (string, error) {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}
