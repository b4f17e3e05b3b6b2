// ABOUTME: Patient journey pipeline: listing, discovery, download, extraction, summarization
// ABOUTME: Model failures of any kind degrade to a labelled fallback instead of an error

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/clinicflow/patient-journey/backend/cache"
	"github.com/clinicflow/patient-journey/backend/models"
)

const (
	defaultSummaryTimeout      = 15 * time.Second
	defaultDownloadConcurrency = 4
	rawSampleKeys              = 5
	maxRawDebug                = 2000
)

// AppointmentLister returns a patient's raw appointment listing.
type AppointmentLister interface {
	FetchAppointments(ctx context.Context, patientID string, pageNo int) ([]byte, error)
}

// DocumentDownloader returns the raw bytes behind a document URL.
type DocumentDownloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TextExtractor turns document bytes into at most maxChars characters of text.
// It must not fail; problems are reported inline in the returned text.
type TextExtractor func(data []byte, maxChars int) string

// OrchestratorConfig tunes the pipeline.
type OrchestratorConfig struct {
	DemoMode            bool
	SummaryTimeout      time.Duration
	DownloadConcurrency int
	ListingCacheTTL     time.Duration
}

// listing is the per-page discovery result kept in the cache.
type listing struct {
	urls   []string
	keys   []string
	digest string
}

// Orchestrator produces patient journey summaries.
type Orchestrator struct {
	records  AppointmentLister
	fetcher  DocumentDownloader
	extract  TextExtractor
	backend  SummaryBackend
	cfg      OrchestratorConfig
	listings *cache.Cache[listing]
}

// NewOrchestrator wires the pipeline. backend may be nil, in which case every
// summary takes the fast path.
func NewOrchestrator(records AppointmentLister, fetcher DocumentDownloader, backend SummaryBackend, cfg OrchestratorConfig) *Orchestrator {
	if cfg.SummaryTimeout <= 0 {
		cfg.SummaryTimeout = defaultSummaryTimeout
	}
	if cfg.DownloadConcurrency < 1 {
		cfg.DownloadConcurrency = defaultDownloadConcurrency
	}
	return &Orchestrator{
		records:  records,
		fetcher:  fetcher,
		extract:  ExtractPDFText,
		backend:  backend,
		cfg:      cfg,
		listings: cache.New[listing](cfg.ListingCacheTTL),
	}
}

// SetExtractor overrides text extraction (useful for testing)
func (o *Orchestrator) SetExtractor(fn TextExtractor) {
	o.extract = fn
}

// BackendName returns the configured provider, or "unavailable".
func (o *Orchestrator) BackendName() string {
	if o.backend == nil {
		return "unavailable"
	}
	return o.backend.Name()
}

// DemoMode reports whether the fast path is forced.
func (o *Orchestrator) DemoMode() bool {
	return o.cfg.DemoMode
}

// Close releases the listing cache.
func (o *Orchestrator) Close() {
	o.listings.Close()
}

// DiscoverURLs lists document URLs for one appointment page.
func (o *Orchestrator) DiscoverURLs(ctx context.Context, patientID string, pageNo int) (*models.URLsResponse, error) {
	l, err := o.discover(ctx, patientID, pageNo)
	if err != nil {
		return nil, err
	}
	sample := l.keys
	if len(sample) > rawSampleKeys {
		sample = sample[:rawSampleKeys]
	}
	return &models.URLsResponse{
		PatientID: patientID,
		Count:     len(l.urls),
		URLs:      l.urls,
		RawSample: sample,
	}, nil
}

// Summarize runs the full pipeline. Only listing failures are returned as
// errors (*UpstreamError, ErrBadGateway, *AuthError).
func (o *Orchestrator) Summarize(ctx context.Context, req models.SummaryRequest) (*models.SummaryResult, error) {
	l, err := o.discover(ctx, req.PatientID, req.PageNo)
	if err != nil {
		return nil, err
	}

	if len(l.urls) == 0 {
		slog.Info("No documents discovered", "patient_id", req.PatientID, "page_no", req.PageNo)
		result := NoDocumentsSummary(req.PatientID, l.keys)
		result.Debug.ListingDigest = l.digest
		return result, nil
	}

	if o.backend == nil || o.cfg.DemoMode {
		reason := ReasonBackendUnavailable
		if o.cfg.DemoMode {
			reason = ReasonDemoMode
		}
		slog.Info("Summary fast path, skipping downloads",
			"patient_id", req.PatientID,
			"reason", reason,
			"source_count", len(l.urls),
		)
		result := FallbackSummary(req.PatientID, reason)
		result.IngestedDocs = 0
		result.SourceCount = len(l.urls)
		result.Debug.ListingDigest = l.digest
		return result, nil
	}

	urls := l.urls
	if req.MaxDocs > 0 && len(urls) > req.MaxDocs {
		urls = urls[:req.MaxDocs]
	}
	snippets := o.collectSnippets(ctx, urls, req.PerDocMaxChars)

	result := o.generate(ctx, req.PatientID, snippets)
	result.IngestedDocs = len(snippets)
	result.SourceCount = len(l.urls)
	result.Debug.ListingDigest = l.digest
	return result, nil
}

func (o *Orchestrator) discover(ctx context.Context, patientID string, pageNo int) (listing, error) {
	key := patientID + "|" + strconv.Itoa(pageNo)
	if l, ok := o.listings.Get(key); ok {
		return l, nil
	}

	raw, err := o.records.FetchAppointments(ctx, patientID, pageNo)
	if err != nil {
		slog.Error("Appointment listing failed", "patient_id", patientID, "error", err)
		return listing{}, err
	}

	l := listing{
		urls:   LocateDocumentsJSON(raw),
		keys:   topLevelKeys(raw),
		digest: listingDigest(raw),
	}
	o.listings.Set(key, l)
	if o.listings.Enabled() {
		slog.Debug("Listing cached", "patient_id", patientID, "cached_listings", o.listings.Len())
	}
	slog.Debug("Documents discovered", "patient_id", patientID, "count", len(l.urls))
	return l, nil
}

// collectSnippets downloads and extracts each URL. Results keep the order of
// urls; a failed document becomes an inline error snippet.
func (o *Orchestrator) collectSnippets(ctx context.Context, urls []string, maxChars int) []models.DocumentSnippet {
	snippets := make([]models.DocumentSnippet, len(urls))

	var g errgroup.Group
	g.SetLimit(o.cfg.DownloadConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			snippets[i] = models.DocumentSnippet{
				Name: fmt.Sprintf("doc_%d", i+1),
				Text: o.readDocument(ctx, u, maxChars),
			}
			return nil
		})
	}
	_ = g.Wait()

	return snippets
}

func (o *Orchestrator) readDocument(ctx context.Context, url string, maxChars int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("[Unhandled error retrieving %s: %v]", url, r)
		}
	}()

	data, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		slog.Warn("Document download failed", "url", url, "error", err)
		var dlErr *DownloadError
		if errors.As(err, &dlErr) {
			return fmt.Sprintf("[Download error for %s: %s]", url, dlErr.Error())
		}
		return fmt.Sprintf("[Unhandled error retrieving %s: %v]", url, err)
	}
	return o.extract(data, maxChars)
}

type generation struct {
	text string
	err  error
}

// generate runs the model call on its own goroutine and races it against the
// summary timeout. A lost race abandons the goroutine; it writes only to a
// buffered channel nobody reads.
func (o *Orchestrator) generate(ctx context.Context, patientID string, snippets []models.DocumentSnippet) *models.SummaryResult {
	prompt := BuildSummaryPrompt(patientID, snippets)
	promptTokens := countPromptTokens(prompt)
	provider := o.backend.Name()

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.SummaryTimeout)
	defer cancel()

	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		text, err := o.backend.Generate(callCtx, prompt)
		done <- generation{text: text, err: err}
	}()

	timer := time.NewTimer(o.cfg.SummaryTimeout)
	defer timer.Stop()

	var result *models.SummaryResult
	select {
	case <-timer.C:
		slog.Warn("Summarization timed out, using fallback",
			"patient_id", patientID,
			"provider", provider,
			"error", ErrModelTimeout,
			"timeout", o.cfg.SummaryTimeout,
		)
		result = FallbackSummary(patientID, ReasonTimeout)

	case out := <-done:
		switch {
		case out.err != nil:
			reason := ReasonModelError
			if errors.Is(out.err, context.DeadlineExceeded) {
				reason = ReasonTimeout
			}
			slog.Warn("Summarization failed, using fallback",
				"patient_id", patientID,
				"error", &ModelError{Provider: provider, Err: out.err},
			)
			result = FallbackSummary(patientID, reason)
		default:
			parsed, err := ParseModelOutput(out.text, patientID)
			if err != nil {
				slog.Warn("Summarization output rejected, using fallback", "patient_id", patientID, "error", err)
				result = FallbackSummary(patientID, ReasonInvalidOutput)
				result.Debug.Raw = truncate(out.text, maxRawDebug)
			} else {
				result = parsed
				result.Debug = &models.SummaryDebug{Source: models.SourceModel}
			}
		}
	}

	result.Debug.Provider = provider
	result.Debug.PromptTokens = promptTokens
	return result
}

func topLevelKeys(raw []byte) []string {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil
	}
	var keys []string
	root.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// listingDigest is a sha256 over the RFC 8785 canonical form, so equal
// listings hash equally regardless of key order or whitespace.
func listingDigest(raw []byte) string {
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
