// Package hub wires the configured sources into a cached catalog and the
// engines that read it.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"fedramphub/internal"
	"fedramphub/internal/baseline"
	"fedramphub/internal/catalog"
	"fedramphub/internal/config"
	"fedramphub/internal/controlid"
	"fedramphub/internal/crosswalk"
	"fedramphub/internal/docstore"
	"fedramphub/internal/search"
	"fedramphub/internal/storage"
)

const metaFingerprint = "catalog.fingerprint"

// Snapshot is one consistent view of the sources and the catalog built from
// them.
type Snapshot struct {
	Catalog     *catalog.Catalog
	Workbook    *baseline.Workbook
	Indicators  []internal.RawToken
	Occurrences []internal.RawToken
}

type Service struct {
	cfg       config.Config
	logger    *slog.Logger
	extractor *controlid.Extractor
	cache     *catalog.Cache
	session   *storage.DB

	snapshot *Snapshot

	docsOnce sync.Once
	docs     *docstore.Store
	docsErr  error
}

func New(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := storage.Open(cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &Service{
		cfg:       cfg,
		logger:    logger,
		extractor: controlid.NewExtractor(cfg.ExtractProseOnly),
		cache:     catalog.NewCache(),
		session:   session,
	}, nil
}

func (s *Service) Close() error {
	return s.session.Close()
}

func (s *Service) Config() config.Config { return s.cfg }

func (s *Service) Session() *storage.DB { return s.session }

func (s *Service) Extractor() *controlid.Extractor { return s.extractor }

// Snapshot reads the workbook and indicator document and returns the catalog
// for their current contents, rebuilding only when either file changed.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := s.cfg.Require("BASELINE_XLSX", s.cfg.BaselineXLSX); err != nil {
		return nil, err
	}
	workbookRaw, err := os.ReadFile(s.cfg.BaselineXLSX)
	if err != nil {
		return nil, fmt.Errorf("read baseline workbook: %w", err)
	}
	ksiRaw, err := os.ReadFile(s.cfg.KSIDocument)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("indicator document not found", "path", s.cfg.KSIDocument)
		ksiRaw = nil
	} else if err != nil {
		return nil, fmt.Errorf("read indicator document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fp := catalog.Fingerprint(workbookRaw, ksiRaw)
	start := time.Now()
	var built *Snapshot
	cat, err := s.cache.GetOrBuild(fp, func() (*catalog.Catalog, error) {
		wb, err := baseline.ReadWorkbookBytes(workbookRaw)
		if err != nil {
			return nil, err
		}
		text := string(ksiRaw)
		tokens := s.extractor.Extract(s.cfg.KSIDocument, text)
		cat, err := catalog.NewBuilder(catalog.Options{
			DescriptionMaxChars: s.cfg.DescriptionMaxChars,
			Logger:              s.logger,
		}).Build(wb.Rows, tokens)
		if err != nil {
			return nil, err
		}
		built = &Snapshot{
			Catalog:     cat,
			Workbook:    wb,
			Indicators:  tokens,
			Occurrences: s.extractor.ExtractAll(s.cfg.KSIDocument, text),
		}
		return cat, nil
	})
	if err != nil {
		return nil, err
	}

	if built != nil {
		s.snapshot = built
		if err := s.session.SetMetadata(metaFingerprint, strconv.FormatUint(fp, 16)); err != nil {
			s.logger.Warn("could not record catalog fingerprint", "error", err)
		}
		_, err := s.session.InsertRun("catalog",
			map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
			map[string]int{"entries": cat.Len(), "warnings": len(cat.Warnings()), "rows": len(built.Workbook.Rows)},
		)
		if err != nil {
			s.logger.Warn("could not record catalog run", "error", err)
		}
		s.logger.Debug("catalog ready", "entries", cat.Len(), "fingerprint", fp)
	}
	return s.snapshot, nil
}

// Reload drops the cached catalog and builds it again from disk.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	s.cache.Invalidate()
	return s.Snapshot(ctx)
}

func (s *Service) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Catalog, nil
}

func (s *Service) Engine(ctx context.Context) (*search.Engine, error) {
	cat, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return search.NewEngine(cat, s.cfg.FuzzyThreshold), nil
}

// SearchOptions builds engine options from configuration.
func (s *Service) SearchOptions() (search.Options, error) {
	fields, err := search.ParseFields(s.cfg.SearchFields)
	if err != nil {
		return search.Options{}, err
	}
	return search.Options{Fields: fields, Fuzzy: s.cfg.SearchFuzzy, CaseSensitive: s.cfg.SearchCaseSensitive}, nil
}

// Search runs a query, applies the filter and records the query in the
// session history.
func (s *Service) Search(ctx context.Context, query string, opts search.Options, filter search.Filter) ([]internal.SearchResult, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	results := filter.Apply(engine.Search(query, opts))
	if err := s.session.AddHistory(query, len(results)); err != nil {
		s.logger.Warn("could not record search history", "error", err)
	}
	return results, nil
}

func (s *Service) Suggest(ctx context.Context, partial string, limit int) ([]string, error) {
	engine, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.SuggestLimit
	}
	return engine.Suggest(partial, limit), nil
}

// Crosswalk compares the controls referenced by the indicator document with
// the controls of one baseline sheet.
func (s *Service) Crosswalk(ctx context.Context, baselineName string) (crosswalk.Result, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return crosswalk.Result{}, err
	}
	right := crosswalk.BaselineIDs(snap.Workbook.Rows, baselineName)
	if len(right) == 0 {
		s.logger.Warn("baseline has no controls", "baseline", baselineName)
	}
	return crosswalk.Analyze(controlid.NormalizeAll(snap.Indicators), right), nil
}

// Indicators groups the indicator tags by category and lists the controls
// each tag references.
func (s *Service) Indicators(ctx context.Context) ([]internal.IndicatorCategory, map[string][]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	groups := crosswalk.GroupIndicators(controlid.Texts(snap.Indicators, internal.TokenIndicator))
	return groups, crosswalk.IndicatorControls(snap.Occurrences), nil
}

// Documents loads the document corpus once per service.
func (s *Service) Documents(ctx context.Context) (*docstore.Store, error) {
	s.docsOnce.Do(func() {
		manifest := docstore.DefaultManifest(s.cfg.DocsDir, s.cfg.RFCsDir, s.cfg.RoadmapDir)
		if s.cfg.DocsManifest != "" {
			manifest, s.docsErr = docstore.LoadManifest(s.cfg.DocsManifest)
			if s.docsErr != nil {
				return
			}
		}
		s.docs, s.docsErr = docstore.Load(ctx, manifest, docstore.LoadOptions{
			ProseOnly: s.cfg.ExtractProseOnly,
			Logger:    s.logger,
		})
	})
	return s.docs, s.docsErr
}
