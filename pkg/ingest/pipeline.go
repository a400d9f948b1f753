// Package ingest turns a dataset's server-side file list into a hydrated,
// locally indexed working set.
//
// Loading a dataset fetches its files and annotations, downloads every
// file's content in parallel, gunzips it when needed, and replaces zip and
// tar containers by their members. Once every download has settled, the
// store's file set is reconciled, annotations are attached to the surviving
// files, and a fresh text index is built.
//
// A file whose download or expansion fails is logged and left out; it never
// fails the load as a whole.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dataspace/mirror/pkg/connection"
	"github.com/dataspace/mirror/pkg/constants"
	"github.com/dataspace/mirror/pkg/content"
	"github.com/dataspace/mirror/pkg/index"
	"github.com/dataspace/mirror/pkg/logger"
	"github.com/dataspace/mirror/pkg/models"
	"github.com/dataspace/mirror/pkg/store"
	"golang.org/x/sync/errgroup"
)

type Pipeline struct {
	conn       connection.Connection
	content    content.Provider
	dispatcher store.Dispatcher
	logger     logger.Logger
	metrics    *Metrics
	indexOpts  index.Options
}

type Option func(p *Pipeline)

func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithIndexOptions(opts index.Options) Option {
	return func(p *Pipeline) { p.indexOpts = opts }
}

func New(conn connection.Connection, provider content.Provider, d store.Dispatcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		conn:       conn,
		content:    provider,
		dispatcher: d,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result describes a completed load.
type Result struct {
	Dataset *models.Dataset
	// Files is the reconciled file set in server order, archive members in
	// place of their archive.
	Files []*models.File
	// Archives were replaced by their members.
	Archives []*models.File
	// Failed lists files whose content could not be obtained.
	Failed            []models.ID
	AnnotationsByFile map[models.ID][]*models.Annotation
	// Dropped annotations referenced a file missing from Files.
	Dropped []*models.Annotation
}

// outcome is what one file contributed after steps 2 to 4.
type outcome struct {
	file    *models.File
	members []*models.File
	archive bool
	err     error
}

// LoadDataset runs the full pipeline for the dataset id.
func (p *Pipeline) LoadDataset(ctx context.Context, id models.ID) (*Result, error) {
	if id.Kind() != models.KindDataset {
		return nil, fmt.Errorf("%w: not a Dataset: %q", constants.ErrValidation, id.String())
	}
	start := time.Now()

	query := url.Values{
		models.FieldSpaceID:   {id.SpaceID()},
		models.FieldDatasetID: {id.ItemID()},
	}

	var (
		files       []*models.File
		annotations []*models.Annotation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		files, _, err = connection.Send[*models.File](p.conn, gctx, &connection.Request{
			Method: http.MethodGet, Resource: constants.ResourceFiles, Query: query,
		})
		return err
	})
	g.Go(func() error {
		var err error
		annotations, _, err = connection.Send[*models.Annotation](p.conn, gctx, &connection.Request{
			Method: http.MethodGet, Resource: constants.ResourceAnnotations, Query: query,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}

	outcomes := p.hydrate(ctx, files)
	res := p.reconcile(outcomes)
	p.resolve(res, annotations)

	dataset, err := p.reindex(ctx, id, res.Files)
	if err != nil {
		return nil, err
	}
	res.Dataset = dataset

	if p.metrics != nil {
		p.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	}
	p.logger.Info("dataset loaded", "dataset", id.String(), "files", len(res.Files),
		"archives", len(res.Archives), "failed", len(res.Failed), "annotations", len(annotations)-len(res.Dropped))
	return res, nil
}

// IngestFile runs steps 2 to 4 for one freshly created file, reconciles the
// outcome into the store and rebuilds the dataset index. It returns the
// files that now stand for f: f itself, or its archive members. When f
// cannot be ingested it is removed from the store and the error returned.
func (p *Pipeline) IngestFile(ctx context.Context, f *models.File) ([]*models.File, error) {
	if f == nil || f.ID.Kind() != models.KindFile {
		return nil, fmt.Errorf("%w: not a File", constants.ErrValidation)
	}

	o := p.process(ctx, f)
	res := p.reconcile([]outcome{o})

	datasetID := f.ID.Parent()
	all := p.dispatcher.State().Files(datasetID.SpaceID(), datasetID.ItemID())
	if _, err := p.reindex(ctx, datasetID, all); err != nil {
		return nil, err
	}
	if o.err != nil {
		return nil, o.err
	}
	return res.Files, nil
}

// hydrate runs process for every file in parallel. Per-file errors are
// recorded in the outcome and never cancel siblings.
func (p *Pipeline) hydrate(ctx context.Context, files []*models.File) []outcome {
	outcomes := make([]outcome, len(files))
	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			outcomes[i] = p.process(ctx, f)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// process downloads, decompresses and expands a single file.
func (p *Pipeline) process(ctx context.Context, f *models.File) outcome {
	data, err := p.download(ctx, f)
	if err != nil {
		p.fail(f, "download", err)
		return outcome{file: f, err: err}
	}

	data, err = decompress(f.Name, data)
	if err != nil {
		p.fail(f, "decompress", err)
		return outcome{file: f, err: err}
	}
	if p.metrics != nil {
		p.metrics.Bytes.Add(float64(len(data)))
	}

	kind := archiveFormat(f.Name)
	if kind == formatNone {
		p.content.SetRawContent(f.ID, data)
		return outcome{file: f}
	}

	members, err := expand(f, kind, data)
	if err != nil {
		p.fail(f, "expand", err)
		return outcome{file: f, err: err}
	}
	o := outcome{file: f, archive: true}
	for _, m := range members {
		p.content.SetRawContent(m.file.ID, m.data)
		o.members = append(o.members, m.file)
	}
	if p.metrics != nil {
		p.metrics.ArchiveMembers.WithLabelValues(string(kind)).Add(float64(len(members)))
	}
	return o
}

// download returns cached content for plain files, and otherwise fetches
// it. Fetched plain content is written back to the cache.
func (p *Pipeline) download(ctx context.Context, f *models.File) ([]byte, error) {
	reusable := Reusable(f.Name)
	if reusable {
		data, ok, err := p.content.GetFromCache(ctx, f.ID)
		if err != nil {
			p.logger.Debug("cache read failed", "file", f.ID.String(), "error", err)
		} else if ok {
			p.countDownload("cache")
			return data, nil
		}
	}

	data, err := p.conn.Fetch(ctx, ContentPath(f.ID))
	if err != nil {
		return nil, err
	}
	p.countDownload("network")

	if reusable {
		if err := p.content.StoreInCache(ctx, f.ID, data); err != nil {
			p.logger.Warn("cache write failed", "file", f.ID.String(), "error", err)
		}
	}
	return data, nil
}

// Reusable reports whether content stored under name can be served from the
// cache as is. Gzip and archive containers are always downloaded again.
func Reusable(name string) bool {
	return !isGzipName(name) && archiveFormat(name) == formatNone
}

func (p *Pipeline) countDownload(source string) {
	if p.metrics != nil {
		p.metrics.Downloads.WithLabelValues(source).Inc()
	}
}

func (p *Pipeline) fail(f *models.File, step string, err error) {
	p.logger.Warn("file skipped", "file", f.ID.String(), "name", f.Name, "step", step, "error", err)
	if p.metrics != nil {
		p.metrics.DownloadFailures.Inc()
	}
}

// reconcile applies the settled outcomes to the store: archive containers
// and failed files are deleted along with their raw content, surviving
// files and archive members are loaded.
func (p *Pipeline) reconcile(outcomes []outcome) *Result {
	res := &Result{AnnotationsByFile: map[models.ID][]*models.Annotation{}}
	var removed []*models.File
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			res.Failed = append(res.Failed, o.file.ID)
			removed = append(removed, o.file)
		case o.archive:
			res.Archives = append(res.Archives, o.file)
			res.Files = append(res.Files, o.members...)
			removed = append(removed, o.file)
		default:
			res.Files = append(res.Files, o.file)
		}
	}

	for _, f := range removed {
		p.content.ClearRawContent(f.ID)
	}
	if len(removed) > 0 {
		p.dispatcher.Dispatch(store.NewAction(store.ActionDelete, entities(removed)...))
	}
	if len(res.Files) > 0 {
		p.dispatcher.Dispatch(store.NewAction(store.ActionLoad, entities(res.Files)...))
	}
	return res
}

// resolve attaches annotations to the reconciled files. Annotations whose
// file is missing are dropped with a warning.
func (p *Pipeline) resolve(res *Result, annotations []*models.Annotation) {
	known := make(map[models.ID]bool, len(res.Files))
	for _, f := range res.Files {
		known[f.ID] = true
	}

	var kept []*models.Annotation
	for _, a := range annotations {
		fileID := a.ID.Parent()
		if !known[fileID] {
			p.logger.Warn("annotation dropped", "annotation", a.ID.String(), "file", fileID.String())
			res.Dropped = append(res.Dropped, a)
			continue
		}
		res.AnnotationsByFile[fileID] = append(res.AnnotationsByFile[fileID], a)
		kept = append(kept, a)
	}
	if len(kept) > 0 {
		p.dispatcher.Dispatch(store.NewAction(store.ActionLoad, entities(kept)...))
	}
}

// reindex builds a fresh index over files and stores it, with the new file
// count, on the dataset record.
func (p *Pipeline) reindex(ctx context.Context, id models.ID, files []*models.File) (*models.Dataset, error) {
	ix, err := index.New(p.indexOpts)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	for _, f := range files {
		raw, ok := p.content.RawContent(f.ID)
		if !ok {
			continue
		}
		ix.Add(f.ID.String(), f.Name, raw)
	}
	if p.metrics != nil {
		p.metrics.IndexTokens.Set(float64(ix.Tokens()))
	}

	dataset, err := p.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	dataset = dataset.Copy()
	dataset.FileCount = len(files)
	dataset.Index = ix
	p.dispatcher.Dispatch(store.NewAction(store.ActionLoad, dataset))
	return dataset, nil
}

// dataset returns the stored record, fetching it when the store lacks it.
func (p *Pipeline) dataset(ctx context.Context, id models.ID) (*models.Dataset, error) {
	if d := store.DatasetOf(p.dispatcher.State(), id); d.ID.Valid() {
		return d, nil
	}

	items, _, err := connection.Send[*models.Dataset](p.conn, ctx, &connection.Request{
		Method:   http.MethodGet,
		Resource: constants.ResourceDatasets,
		Query:    url.Values{models.FieldSpaceID: {id.SpaceID()}, models.FieldItemID: {id.ItemID()}},
	})
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}
	for _, d := range items {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("load dataset %s: %w", id, constants.ErrEmptyResultSet)
}

// ContentPath is the REST path of a file's raw bytes.
func ContentPath(id models.ID) string {
	parts := strings.Split(id.Path(), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return constants.ResourceFiles + "/" + strings.Join(parts, "/") + "/content"
}

func entities[T models.Entity](items []T) []models.Entity {
	out := make([]models.Entity, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
