package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultDuplicateWindow is the trailing period a matching record counts as
// a duplicate within.
const DefaultDuplicateWindow = 90 * 24 * time.Hour

// Extractor turns an image payload into a candidate record.
type Extractor interface {
	Extract(ctx context.Context, payload ImagePayload, filename string) (*ExtractedRecord, error)
}

// DuplicateChecker looks up whether an equivalent receipt already exists.
// Implementations query the persistence collaborator; the pipeline never
// writes.
type DuplicateChecker interface {
	FindDuplicate(ctx context.Context, userID, merchant string, amount float64, date string, since time.Time) (bool, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time { return time.Now() }

// Config holds the pipeline's tunables. It is constructed explicitly by the
// caller and passed in — there is no package-level credential or settings
// singleton.
type Config struct {
	DefaultCurrency string
	DuplicateWindow time.Duration
}

// Pipeline sequences fetch → vision extraction (→ pattern fallback) →
// normalization → duplicate check and assigns the review routing fields.
type Pipeline struct {
	fetcher    Fetcher
	extractor  Extractor
	duplicates DuplicateChecker
	cfg        Config
	timeSource TimeSource
}

// NewPipeline creates a Pipeline with the real clock.
func NewPipeline(fetcher Fetcher, extractor Extractor, duplicates DuplicateChecker, cfg Config) *Pipeline {
	return NewPipelineWithDeps(fetcher, extractor, duplicates, cfg, defaultTimeSource{})
}

// NewPipelineWithDeps creates a Pipeline with a custom time source for
// testing.
func NewPipelineWithDeps(fetcher Fetcher, extractor Extractor, duplicates DuplicateChecker, cfg Config, timeSource TimeSource) *Pipeline {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	if cfg.DuplicateWindow == 0 {
		cfg.DuplicateWindow = DefaultDuplicateWindow
	}
	return &Pipeline{
		fetcher:    fetcher,
		extractor:  extractor,
		duplicates: duplicates,
		cfg:        cfg,
		timeSource: timeSource,
	}
}

// Process runs one receipt through the pipeline and returns the
// persistence-ready record. Extraction-quality problems never surface as
// errors: every downgrade (fallback extraction, date regeneration,
// unknown-category coercion) is additive information loss. The only error
// returned is a caller-contract violation.
func (p *Pipeline) Process(ctx context.Context, fileURL, filename, userID string) (*NormalizedRecord, error) {
	if strings.TrimSpace(fileURL) == "" {
		return nil, fmt.Errorf("%w: file URL", ErrMissingInput)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user ID", ErrMissingInput)
	}

	now := p.timeSource.Now()
	rec := p.extract(ctx, fileURL, filename, now)

	merchant := NormalizeMerchant(rec.MerchantName)

	rawAmount := rec.AmountText
	if rawAmount == "" {
		rawAmount = strconv.FormatFloat(rec.Amount, 'f', -1, 64)
	}
	defaultCurrency := rec.Currency
	if defaultCurrency == "" {
		defaultCurrency = p.cfg.DefaultCurrency
	}
	amount, currencyCode, currencySymbol := NormalizeCurrency(rawAmount, defaultCurrency)

	// A second, independent parse of the reconciled date; on failure the
	// reconciled value is kept rather than overwritten.
	receiptDate := rec.ReceiptDate
	if t, ok := ReparseDate(receiptDate); ok {
		receiptDate = t.Format(dateLayout)
	}

	isDuplicate := false
	since := now.Add(-p.cfg.DuplicateWindow)
	if dup, err := p.duplicates.FindDuplicate(ctx, userID, merchant, amount, receiptDate, since); err != nil {
		// Fail open: an infrastructure hiccup must not block a submission.
		slog.Warn("Duplicate lookup failed, treating as new",
			"user_id", userID,
			"merchant", merchant,
			"error", err,
		)
	} else {
		isDuplicate = dup
	}

	score := rec.Confidence.Score()

	return &NormalizedRecord{
		UserID:          userID,
		FileURL:         fileURL,
		MerchantName:    merchant,
		Amount:          amount,
		CurrencyCode:    currencyCode,
		CurrencySymbol:  currencySymbol,
		Category:        rec.Category,
		ReceiptDate:     receiptDate,
		Confidence:      rec.Confidence,
		ConfidenceScore: score,
		NeedsReview:     score < ReviewThreshold,
		IsDuplicate:     isDuplicate,
		DateSource:      rec.DateSource,
		ExtractionNotes: rec.ExtractionNotes,
	}, nil
}

// extract runs the vision path and converts any failure — fetch error,
// unsupported media, model call failure, unparseable reply, or a deadline
// abort — into a pattern-fallback result.
func (p *Pipeline) extract(ctx context.Context, fileURL, filename string, now time.Time) *ExtractedRecord {
	payload, err := p.fetcher.Fetch(ctx, fileURL)
	if err == nil {
		var rec *ExtractedRecord
		rec, err = p.extractor.Extract(ctx, payload, filename)
		if err == nil && rec != nil {
			return ValidateRecord(rec, filename, now)
		}
	}

	slog.Warn("Vision extraction failed, falling back to filename heuristics",
		"file_url", fileURL,
		"filename", filename,
		"error", err,
	)
	return FallbackExtract(filename, now)
}
