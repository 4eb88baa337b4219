// Package toolserver implements the tool surface described in spec §6: it
// decodes a tool name and JSON parameters, invokes the core (VcfStore and
// session.Manager), and returns a JSON-serializable result or a structured
// ToolError. Transport (stdio JSON-RPC or HTTP+SSE) lives alongside it in
// this package but is a thin adapter over Dispatch.
package toolserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/googlegenomics/vcfserve/internal/instrument"
	"github.com/googlegenomics/vcfserve/internal/session"
	"github.com/googlegenomics/vcfserve/internal/vcfstore"
)

// Server dispatches tool calls against a single open VcfStore.
type Server struct {
	store                 *vcfstore.Store
	sessions              *session.Manager
	recorder              *instrument.Recorder
	defaultMaxChromosomes int
}

// New returns a Server backed by store, with its own session manager using
// session.DefaultIdleTimeout.
func New(store *vcfstore.Store, recorder *instrument.Recorder, defaultMaxChromosomes int) *Server {
	return NewWithIdleTimeout(store, recorder, defaultMaxChromosomes, session.DefaultIdleTimeout)
}

// NewWithIdleTimeout returns a Server whose session manager evicts sessions
// idle past idleTimeout, per the config file's idle_timeout_minutes.
func NewWithIdleTimeout(store *vcfstore.Store, recorder *instrument.Recorder, defaultMaxChromosomes int, idleTimeout time.Duration) *Server {
	return &Server{
		store:                 store,
		sessions:              session.NewManagerWithIdleTimeout(idleTimeout),
		recorder:              recorder,
		defaultMaxChromosomes: defaultMaxChromosomes,
	}
}

// Dispatch decodes params for tool, invokes it, and logs the outcome.
func (s *Server) Dispatch(tool string, params json.RawMessage) (interface{}, *ToolError) {
	start := time.Now()
	result, toolErr := s.dispatch(tool, params)

	var size int
	if result != nil {
		if encoded, err := json.Marshal(result); err == nil {
			size = len(encoded)
		}
	}
	var recordErr error
	if toolErr != nil {
		recordErr = toolErr
	}
	s.recorder.Record(tool, start, size, recordErr)

	return result, toolErr
}

func (s *Server) dispatch(tool string, params json.RawMessage) (interface{}, *ToolError) {
	switch tool {
	case "query_by_position":
		var p QueryByPositionParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.queryByPosition(p)

	case "query_by_region":
		var p QueryByRegionParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.queryByRegion(p)

	case "query_by_id":
		var p QueryByIDParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.queryByID(p)

	case "get_vcf_header":
		var p GetVcfHeaderParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.getVcfHeader(p)

	case "start_region_query":
		var p StartRegionQueryParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.startRegionQuery(p)

	case "get_next_variant":
		var p GetNextVariantParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.getNextVariant(p)

	case "close_query_session":
		var p CloseQuerySessionParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.closeQuerySession(p)

	case "get_statistics":
		var p GetStatisticsParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return s.getStatistics(p)

	default:
		return nil, preconditionError(fmt.Errorf("unknown tool %q", tool))
	}
}

func unmarshal(params json.RawMessage, dst interface{}) *ToolError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return preconditionError(fmt.Errorf("malformed parameters: %w", err))
	}
	return nil
}

func (s *Server) queryByPosition(p QueryByPositionParams) (interface{}, *ToolError) {
	matched, variants, err := s.store.QueryPosition(p.Chrom, p.Position)
	if notFound, ok := asChromosomeNotFound(err); ok {
		return &QueryByPositionResult{NotFound: notFound}, nil
	}
	if err != nil {
		return nil, faultError(err)
	}

	_, _, build := s.store.GetHeader("")
	return &QueryByPositionResult{
		MatchedChrom:    matched,
		ReferenceGenome: &ReferenceBuildResult{Name: build.Name, Source: build.Source},
		Variants:        variants,
	}, nil
}

func (s *Server) queryByRegion(p QueryByRegionParams) (interface{}, *ToolError) {
	matched, variants, err := s.store.QueryRegion(p.Chrom, p.Start, p.End)
	if notFound, ok := asChromosomeNotFound(err); ok {
		return &QueryByRegionResult{NotFound: notFound}, nil
	}
	if isPrecondition(err) {
		return nil, preconditionError(err)
	}
	if err != nil {
		return nil, faultError(err)
	}

	if p.Filter != "" {
		variants, err = applyFilter(variants, p.Filter)
		if err != nil {
			return nil, preconditionError(err)
		}
	}

	return &QueryByRegionResult{MatchedChrom: matched, Variants: variants}, nil
}

func (s *Server) queryByID(p QueryByIDParams) (interface{}, *ToolError) {
	variants, err := s.store.QueryID(p.ID)
	if err != nil {
		return nil, faultError(err)
	}
	return &QueryByIDResult{Variants: variants}, nil
}

func (s *Server) getVcfHeader(p GetVcfHeaderParams) (interface{}, *ToolError) {
	text, lineCount, build := s.store.GetHeader(p.Substring)
	return &GetVcfHeaderResult{
		Text:           text,
		LineCount:      lineCount,
		ReferenceBuild: ReferenceBuildResult{Name: build.Name, Source: build.Source},
	}, nil
}

func (s *Server) startRegionQuery(p StartRegionQueryParams) (interface{}, *ToolError) {
	result, err := s.sessions.StartStream(s.store, p.Chrom, p.Start, p.End, p.Filter)
	if notFound, ok := asChromosomeNotFound(err); ok {
		return &StartRegionQueryResult{NotFound: notFound}, nil
	}
	if isPrecondition(err) {
		return nil, preconditionError(err)
	}
	if err != nil {
		return nil, faultError(err)
	}

	return &StartRegionQueryResult{
		Variant:      result.Variant,
		SessionKey:   result.SessionKey,
		More:         result.More,
		MatchedChrom: result.MatchedChrom,
	}, nil
}

func (s *Server) getNextVariant(p GetNextVariantParams) (interface{}, *ToolError) {
	result, err := s.sessions.Next(p.SessionKey)
	if errors.Is(err, session.ErrUnknownSession) {
		return nil, sessionError(err)
	}
	if err != nil {
		return nil, faultError(err)
	}

	return &GetNextVariantResult{
		Variant:    result.Variant,
		SessionKey: result.SessionKey,
		More:       result.More,
		Exhausted:  result.Variant == nil,
	}, nil
}

func (s *Server) closeQuerySession(p CloseQuerySessionParams) (interface{}, *ToolError) {
	return &CloseQuerySessionResult{Closed: s.sessions.Close(p.SessionKey)}, nil
}

func (s *Server) getStatistics(p GetStatisticsParams) (interface{}, *ToolError) {
	maxChromosomes := s.defaultMaxChromosomes
	if p.MaxChromosomes != nil {
		maxChromosomes = *p.MaxChromosomes
	}

	result, err := s.store.Statistics(maxChromosomes)
	if err != nil {
		return nil, faultError(err)
	}

	return &GetStatisticsResult{
		TotalRecords:     result.TotalRecords,
		TypeCounts:       result.TypeCounts,
		FilterCounts:     result.FilterCounts,
		QualityMin:       result.QualityMin,
		QualityMax:       result.QualityMax,
		QualityMean:      result.QualityMean,
		DepthMin:         result.DepthMin,
		DepthMax:         result.DepthMax,
		DepthMean:        result.DepthMean,
		ChromosomeCounts: result.ChromosomeCounts,
	}, nil
}

func asChromosomeNotFound(err error) (*ChromosomeNotFoundResult, bool) {
	var notFound *vcfstore.ChromosomeNotFound
	if !errors.As(err, &notFound) {
		return nil, false
	}
	return &ChromosomeNotFoundResult{
		Requested:  notFound.Requested,
		Sample:     notFound.Sample,
		Suggestion: notFound.Suggestion,
	}, true
}

func isPrecondition(err error) bool {
	var regionTooLarge *vcfstore.RegionTooLarge
	var invalidRegion *vcfstore.InvalidRegion
	return errors.As(err, &regionTooLarge) || errors.As(err, &invalidRegion)
}
