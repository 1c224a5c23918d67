package reporting

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"amd-webhook/internal/dispatch"
	"amd-webhook/internal/events"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Source abstracts journal access for reporting. events.Service satisfies it.
//
// List must return newest first.
type Source interface {
	List(ctx context.Context, f events.Filter) ([]events.Event, error)
}

type Service struct {
	src Source
}

func NewService(src Source) *Service { return &Service{src: src} }

func (s *Service) AMDSummary(ctx context.Context, req AMDSummaryRequest) (AMDSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return AMDSummary{}, ErrInvalidRequest
	}
	if s.src == nil {
		return AMDSummary{}, errors.New("reporting: source not configured")
	}

	evs, err := s.src.List(ctx, events.Filter{From: req.Range.From, To: req.Range.To, Limit: events.MaxListLimit})
	if err != nil {
		return AMDSummary{}, err
	}

	out := AMDSummary{
		Range:         req.Range,
		Events:        len(evs),
		Outcomes:      map[string]int{},
		FinalStatuses: map[string]int{},
		Truncated:     len(evs) >= events.MaxListLimit,
	}

	seenCall := map[string]bool{}
	seenOutcome := map[string]bool{}
	seenStatus := map[string]bool{}
	var detected, totalMS float64
	for _, e := range evs {
		if e.CallSID == "" {
			continue
		}
		if !seenCall[e.CallSID] {
			seenCall[e.CallSID] = true
			out.Calls++
		}
		if e.CallStatus != "" && !seenStatus[e.CallSID] {
			seenStatus[e.CallSID] = true
			out.FinalStatuses[e.CallStatus]++
		}
		if e.AnsweredBy == "" || seenOutcome[e.CallSID] {
			continue
		}
		seenOutcome[e.CallSID] = true
		detected++
		out.Outcomes[dispatch.Interpret(e.AnsweredBy).String()]++

		ms, err := strconv.ParseFloat(strings.TrimSpace(e.DetectionMS), 64)
		if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
			continue
		}
		if out.TimedCalls == 0 || ms < out.MinDetectionMS {
			out.MinDetectionMS = ms
		}
		if out.TimedCalls == 0 || ms > out.MaxDetectionMS {
			out.MaxDetectionMS = ms
		}
		out.TimedCalls++
		totalMS += ms
	}

	if detected > 0 {
		out.HumanRate = float64(out.Outcomes[dispatch.AnswerHuman.String()]) / detected
		out.MachineRate = float64(out.Outcomes[dispatch.AnswerMachine.String()]) / detected
	}
	if out.TimedCalls > 0 {
		out.AverageDetectionMS = totalMS / float64(out.TimedCalls)
	}
	return out, nil
}
