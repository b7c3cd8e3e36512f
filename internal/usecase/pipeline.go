package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/homeo-ai-official/bse-auto/internal/domain"
	"github.com/homeo-ai-official/bse-auto/internal/infrastructure/bse"
	"github.com/homeo-ai-official/bse-auto/internal/ports"
	"github.com/homeo-ai-official/bse-auto/internal/summarize"
)

// SummaryDispatcher routes classified content to the summarization
// backend and always produces a terminal outcome.
type SummaryDispatcher interface {
	Summarize(ctx context.Context, content domain.ClassifiedContent, company, originalURL string) domain.SummaryResult
}

// PipelineDeps wires all driven adapters into the processing pipeline.
type PipelineDeps struct {
	Source     ports.AnnouncementSource
	Resolver   ports.AttachmentResolver
	Downloader ports.Downloader
	Extractor  ports.ContentExtractor
	Dispatcher SummaryDispatcher
	Store      ports.StateStore
	Logger     *slog.Logger

	// MaxNewItems caps how many previously unseen announcements one run
	// takes on. Zero means unlimited. Resumed items never count against
	// the cap.
	MaxNewItems int
}

// Pipeline implements one full processing run: fetch, dedup, download,
// classify, summarize, persist. Outbound messages are returned as an
// ordered task list; dispatch is the caller's concern so that nothing
// leaves the process before its outcome is recorded.
type Pipeline struct {
	source      ports.AnnouncementSource
	resolver    ports.AttachmentResolver
	downloader  ports.Downloader
	extractor   ports.ContentExtractor
	dispatcher  SummaryDispatcher
	store       ports.StateStore
	logger      *slog.Logger
	maxNewItems int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:      deps.Source,
		resolver:    deps.Resolver,
		downloader:  deps.Downloader,
		extractor:   deps.Extractor,
		dispatcher:  deps.Dispatcher,
		store:       deps.Store,
		logger:      deps.Logger,
		maxNewItems: deps.MaxNewItems,
	}
}

// Run processes the window once. The feed returns newest first; the
// walk goes oldest first so notifications preserve publication order.
// Per-item failures are logged and abandoned, never aborting the run.
func (p *Pipeline) Run(ctx context.Context, window domain.Window) ([]domain.NotificationTask, error) {
	announcements, err := p.source.FetchAll(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("fetch announcements: %w", err)
	}
	if len(announcements) == 0 {
		p.logger.Info("no announcements in window")
		return nil, nil
	}
	p.logger.Info("fetched announcements", "count", len(announcements))

	var tasks []domain.NotificationTask
	newTaken := 0

	for i := len(announcements) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return tasks, ctx.Err()
		}
		ann := announcements[i]
		log := p.logger.With("news_id", ann.NewsID, "company", ann.CompanyName)

		processed, err := p.store.IsProcessed(ctx, ann.NewsID)
		if err != nil {
			log.Error("dedup lookup failed", "error", err)
			continue
		}

		if processed {
			needs, err := p.store.NeedsSummarization(ctx, ann.NewsID)
			if err != nil {
				log.Error("status lookup failed", "error", err)
				continue
			}
			if !needs {
				continue
			}
			// Downloaded by an earlier run but never summarized.
			if task, ok := p.resume(ctx, ann, log); ok {
				tasks = append(tasks, task)
			}
			continue
		}

		if p.maxNewItems > 0 && newTaken >= p.maxNewItems {
			continue
		}
		newTaken++

		if task, ok := p.processNew(ctx, ann, log); ok {
			tasks = append(tasks, task)
		}
	}

	return tasks, nil
}

// processNew handles a previously unseen announcement end to end.
func (p *Pipeline) processNew(ctx context.Context, ann domain.Announcement, log *slog.Logger) (domain.NotificationTask, bool) {
	resolvedURL, err := p.resolver.ResolveAttachment(ctx, ann.NewsID, ann.ScripCode)
	if err != nil {
		if errors.Is(err, bse.ErrNoAttachment) {
			log.Info("announcement carries no attachment, skipping")
		} else {
			log.Error("attachment resolution failed", "error", err)
		}
		return domain.NotificationTask{}, false
	}
	ann.AttachmentURL = resolvedURL

	path, err := p.downloader.Download(ctx, ann, resolvedURL)
	if err != nil {
		log.Error("download failed", "url", resolvedURL, "error", err)
		return domain.NotificationTask{}, false
	}

	if err := p.store.RecordDownloaded(ctx, ann.NewsID, ann.ScripCode, ann.CompanyName, resolvedURL); err != nil {
		log.Error("recording download failed", "error", err)
		return domain.NotificationTask{}, false
	}

	if path == "" {
		// Dry run: URL logged by the downloader, nothing to summarize.
		return domain.NotificationTask{}, false
	}

	return p.summarizeFile(ctx, ann, path, resolvedURL, log)
}

// resume picks up an announcement whose document landed on disk in an
// earlier run. The persisted URL spares a second resolver round trip;
// a missing local file is re-downloaded from it.
func (p *Pipeline) resume(ctx context.Context, ann domain.Announcement, log *slog.Logger) (domain.NotificationTask, bool) {
	resolvedURL, err := p.store.ResolvedURL(ctx, ann.NewsID)
	if err != nil {
		log.Error("resolved url lookup failed", "error", err)
		return domain.NotificationTask{}, false
	}
	ann.AttachmentURL = resolvedURL

	path := p.downloader.LocalPath(ann)
	if _, statErr := os.Stat(path); statErr != nil {
		if resolvedURL == "" {
			log.Warn("local copy missing and no persisted url, skipping")
			return domain.NotificationTask{}, false
		}
		log.Info("local copy missing, re-downloading", "url", resolvedURL)
		path, err = p.downloader.Download(ctx, ann, resolvedURL)
		if err != nil {
			log.Error("re-download failed", "url", resolvedURL, "error", err)
			return domain.NotificationTask{}, false
		}
		if path == "" {
			return domain.NotificationTask{}, false
		}
	} else {
		log.Info("resuming from local copy", "path", path)
	}

	return p.summarizeFile(ctx, ann, path, resolvedURL, log)
}

// summarizeFile classifies the document and dispatches it. The outcome
// is always recorded and always turns into a notification task, the
// error variants included.
func (p *Pipeline) summarizeFile(ctx context.Context, ann domain.Announcement, path, resolvedURL string, log *slog.Logger) (domain.NotificationTask, bool) {
	var content domain.ClassifiedContent
	doc, err := p.extractor.Extract(ctx, path)
	if err != nil {
		log.Error("document extraction failed", "path", path, "error", err)
		content = domain.ContentError(fmt.Sprintf("failed to read document: %v", err))
	} else {
		content = summarize.Classify(doc)
	}

	result := p.dispatcher.Summarize(ctx, content, ann.CompanyName, resolvedURL)
	if err := p.store.RecordSummaryOutcome(ctx, ann.NewsID, result, result.Status()); err != nil {
		log.Error("recording outcome failed", "error", err)
	}
	log.Info("announcement processed", "kind", string(result.Kind), "status", string(result.Status()))

	return domain.NotificationTask{Result: result}, true
}
