package engine

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"sprawlstats/domain/analysis"
	"sprawlstats/domain/core"
	"sprawlstats/domain/observation"
	"sprawlstats/internal/errors"
	"sprawlstats/ports"
)

// offloadPayload is the full request shipped to a worker
type offloadPayload struct {
	Config  *analysis.Config     `json:"config"`
	Dataset *observation.Dataset `json:"dataset"`
	Options *analysis.Options    `json:"options,omitempty"`
}

// offloadReply is what a worker sends back. Kernel failures travel in
// Error/ErrorCode; transport failures are reported by the pool itself.
type offloadReply struct {
	Data      *analysis.ResultData `json:"data,omitempty"`
	Summary   string               `json:"summary,omitempty"`
	Insights  []string             `json:"insights,omitempty"`
	Error     string               `json:"error,omitempty"`
	ErrorCode string               `json:"errorCode,omitempty"`
}

// HandleOffload is the worker-side entry point: it decodes a payload, runs
// the kernel and encodes the reply
func (e *Engine) HandleOffload(ctx context.Context, payload []byte) ([]byte, error) {
	_, span := tracer.Start(ctx, "Engine.HandleOffload")
	defer span.End()

	var req offloadPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, errors.Wrap(err, "decoding offload payload")
	}
	if req.Config == nil {
		return nil, core.ErrMissingConfig
	}
	if req.Dataset == nil {
		return nil, core.ErrMissingDataset
	}
	span.SetAttributes(attribute.String("analysis.type", string(req.Config.AnalysisType)), attribute.Int("analysis.points", req.Dataset.Len()))

	var reply offloadReply
	params, err := analysis.ParseParameters(req.Config, e.defaults)
	if err != nil {
		reply.Error, reply.ErrorCode = err.Error(), errors.GetCode(err)
		return json.Marshal(reply)
	}

	resolved := req.Options.Resolve(req.Dataset.Len(), req.Config.AnalysisType, e.defaults)
	out := execute(req.Config.AnalysisType, params, req.Dataset, resolved, analysis.ModeWorker)
	if out.err != nil {
		reply.Error, reply.ErrorCode = out.err.Error(), errors.GetCode(out.err)
	} else {
		reply.Data, reply.Summary, reply.Insights = out.data, out.summary, out.insights
	}
	return json.Marshal(reply)
}

// runOffloaded ships the request to the pool. A returned error means the
// offload itself failed; kernel failures come back inside the outcome.
func (e *Engine) runOffloaded(ctx context.Context, cfg *analysis.Config, ds *observation.Dataset, opts *analysis.Options) (*outcome, error) {
	ctx, span := tracer.Start(ctx, "Engine.Offload")
	defer span.End()

	payload, err := json.Marshal(offloadPayload{Config: cfg, Dataset: ds, Options: opts})
	if err != nil {
		return nil, errors.WorkerError(fmt.Errorf("encoding payload: %w", err))
	}

	req := ports.OffloadRequest{ID: core.NewID().String(), Payload: payload}
	e.log.Debug("offloading %s analysis %s (%d points, %d bytes)", cfg.AnalysisType, req.ID, ds.Len(), len(payload))
	resp, err := e.offload.Submit(ctx, req)
	if err != nil {
		if stderrors.Is(err, core.ErrTimeout) {
			return nil, err
		}
		return nil, errors.WorkerError(err)
	}
	if resp.Err != "" {
		return nil, errors.WorkerError(stderrors.New(resp.Err))
	}

	var reply offloadReply
	if err := json.Unmarshal(resp.Payload, &reply); err != nil {
		return nil, errors.WorkerError(fmt.Errorf("decoding reply: %w", err))
	}
	if reply.Error != "" {
		code := reply.ErrorCode
		if code == "" {
			code = errors.CodeInternalError
		}
		return &outcome{err: errors.New(code, reply.Error)}, nil
	}
	if reply.Data == nil {
		return nil, errors.WorkerError(stderrors.New("reply carried no data"))
	}
	return &outcome{data: reply.Data, summary: reply.Summary, insights: reply.Insights}, nil
}
