package sheets

import (
	"context"
	"errors"
	"fmt"

	"calldata-platform/internal/calls"
	"calldata-platform/internal/sources"
	"calldata-platform/internal/tenants"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const defaultRange = "A1:Z"

// Config configures the spreadsheet client.
// Endpoint is optional and only needed for proxies and tests.
type Config struct {
	APIKey      string
	Endpoint    string
	PhoneRegion string
}

// Source is a sources.RecordSource backed by the Google Sheets values API.
//
// The first row of the range is a header row; columns are matched by name, so tenants
// can keep their own column order.
type Source struct {
	svc    *gsheets.Service
	region string
}

var _ sources.RecordSource = (*Source)(nil)

func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sheets: api key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: init client: %w", err)
	}
	return &Source{svc: svc, region: cfg.PhoneRegion}, nil
}

func (s *Source) FetchRecords(ctx context.Context, tenantID string, h tenants.RecordSourceHandle, f sources.Filters) ([]calls.CallRecord, error) {
	if h.SheetID == "" {
		return nil, sources.Unavailable(sources.KindRecord, sources.ErrNotConfigured)
	}
	rng := h.Range
	if rng == "" {
		rng = defaultRange
	}

	resp, err := s.svc.Spreadsheets.Values.Get(h.SheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, sources.Unavailable(sources.KindRecord, fmt.Errorf("sheets: values.get %s: %w", h.SheetID, err))
	}

	records := parseRows(tenantID, h.SheetID, resp.Values, s.region)
	return sources.FilterRecords(records, f), nil
}
