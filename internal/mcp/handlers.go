package mcp

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Laura-lc/AllenSDK/internal/frame"
	"github.com/Laura-lc/AllenSDK/internal/models"
	"github.com/Laura-lc/AllenSDK/internal/ratelimit"
)

// Paging bounds for vb_session_table. The curated tables can run to tens of
// thousands of rows; callers page through them.
const (
	defaultTableLimit = 50
	maxTableLimit     = 500
)

// registerTools registers the dataset query tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vb_manifest",
		Description: "List experiments in the project manifest, optionally filtered by container, behavior stage, or targeted structure",
	}, s.handleVBManifest)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vb_session_info",
		Description: "Get session metadata and behavioral task parameters for one experiment",
	}, s.handleVBSessionInfo)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vb_session_table",
		Description: "Read one curated session table (trials, stimulus presentations, licks, rewards, responses, ...) as row objects, paged",
	}, s.handleVBSessionTable)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "vb_validate",
		Description: "Check that every data file the manifest names exists on disk",
	}, s.handleVBValidate)
}

// registerResources registers the manifest overview resource.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         "vb://manifest",
		Name:        "vb-manifest",
		Description: "The experiment manifest: one row per two-photon imaging session.",
		MIMEType:    "text/markdown",
	}, s.handleManifestResource)
}

// handleManifestResource renders the manifest as a markdown table.
func (s *Server) handleManifestResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	experiments, err := s.cache.Manifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Visual Behavior Experiment Manifest\n\n")
	sb.WriteString(fmt.Sprintf("%d experiments.\n\n", len(experiments)))
	sb.WriteString("| experiment | container | stage | structure | depth | genotype |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, exp := range experiments {
		sb.WriteString(fmt.Sprintf("| %d | %d | %s | %s | %d | %s |\n",
			exp.OphysExperimentID, exp.ContainerID, exp.StageName,
			exp.TargetedStructure, exp.ImagingDepth, exp.FullGenotype))
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      "vb://manifest",
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

// handleVBManifest implements the vb_manifest tool.
func (s *Server) handleVBManifest(ctx context.Context, req *sdk.CallToolRequest, args VBManifestInput) (_ *sdk.CallToolResult, _ VBManifestOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("vb_manifest", start, retErr, sanitizeToolParams("vb_manifest", map[string]interface{}{
			"container_id": args.ContainerID, "stage": args.Stage, "targeted_structure": args.TargetedStructure,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "vb_manifest"); err != nil {
		return nil, VBManifestOutput{}, err
	}

	experiments, err := s.cache.Manifest(ctx)
	if err != nil {
		return nil, VBManifestOutput{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	matched := make([]models.Experiment, 0, len(experiments))
	for _, exp := range experiments {
		if args.ContainerID != 0 && exp.ContainerID != args.ContainerID {
			continue
		}
		if args.Stage != "" && exp.StageName != args.Stage {
			continue
		}
		if args.TargetedStructure != "" && exp.TargetedStructure != args.TargetedStructure {
			continue
		}
		matched = append(matched, exp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].OphysExperimentID < matched[j].OphysExperimentID
	})

	return nil, VBManifestOutput{Experiments: matched, Count: len(matched)}, nil
}

// handleVBSessionInfo implements the vb_session_info tool. The manifest row
// always comes back; metadata and task parameters require the session data
// file, so a read failure there is reported in DataError rather than
// failing the call.
func (s *Server) handleVBSessionInfo(ctx context.Context, req *sdk.CallToolRequest, args VBSessionInfoInput) (_ *sdk.CallToolResult, _ VBSessionInfoOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("vb_session_info", start, retErr, sanitizeToolParams("vb_session_info", map[string]interface{}{
			"ophys_experiment_id": args.OphysExperimentID,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "vb_session_info"); err != nil {
		return nil, VBSessionInfoOutput{}, err
	}

	exp, err := s.cache.Experiment(ctx, args.OphysExperimentID)
	if err != nil {
		return nil, VBSessionInfoOutput{}, fmt.Errorf("experiment %d: %w", args.OphysExperimentID, err)
	}

	out := VBSessionInfoOutput{Experiment: *exp}

	sess, err := s.cache.Session(ctx, args.OphysExperimentID)
	if err != nil {
		out.DataError = err.Error()
		return nil, out, nil
	}
	md, err := sess.Metadata(ctx)
	if err != nil {
		out.DataError = err.Error()
		return nil, out, nil
	}
	params, err := sess.TaskParameters(ctx)
	if err != nil {
		out.DataError = err.Error()
		return nil, out, nil
	}
	out.Metadata = &md
	out.TaskParameters = &params

	return nil, out, nil
}

// handleVBSessionTable implements the vb_session_table tool.
func (s *Server) handleVBSessionTable(ctx context.Context, req *sdk.CallToolRequest, args VBSessionTableInput) (_ *sdk.CallToolResult, _ VBSessionTableOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("vb_session_table", start, retErr, sanitizeToolParams("vb_session_table", map[string]interface{}{
			"ophys_experiment_id": args.OphysExperimentID, "table": args.Table,
			"limit": args.Limit, "offset": args.Offset,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "vb_session_table"); err != nil {
		return nil, VBSessionTableOutput{}, err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultTableLimit
	}
	if limit > maxTableLimit {
		limit = maxTableLimit
	}
	offset := args.Offset
	if offset < 0 {
		offset = 0
	}

	sess, err := s.cache.Session(ctx, args.OphysExperimentID)
	if err != nil {
		return nil, VBSessionTableOutput{}, fmt.Errorf("experiment %d: %w", args.OphysExperimentID, err)
	}

	rec, err := sess.Table(ctx, args.Table)
	if err != nil {
		return nil, VBSessionTableOutput{}, fmt.Errorf("failed to load table %q: %w", args.Table, err)
	}

	rows, err := frame.Rows(rec, offset, limit)
	if err != nil {
		return nil, VBSessionTableOutput{}, fmt.Errorf("failed to read table %q: %w", args.Table, err)
	}
	for _, row := range rows {
		for k, v := range row {
			row[k] = jsonSafe(v)
		}
	}

	return nil, VBSessionTableOutput{
		Table:   args.Table,
		Columns: frame.Names(rec),
		Rows:    rows,
		Total:   rec.NumRows(),
		Offset:  offset,
	}, nil
}

// jsonSafe replaces the float values JSON cannot carry (NaN, +-Inf) with
// strings. The reward_rate column legitimately holds +Inf on early trials.
func jsonSafe(v interface{}) interface{} {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) {
			return "NaN"
		}
		if math.IsInf(val, 1) {
			return "Infinity"
		}
		if math.IsInf(val, -1) {
			return "-Infinity"
		}
		return val
	case []float64:
		out := make([]interface{}, len(val))
		for i, f := range val {
			out[i] = jsonSafe(f)
		}
		return out
	default:
		return v
	}
}

// handleVBValidate implements the vb_validate tool.
func (s *Server) handleVBValidate(ctx context.Context, req *sdk.CallToolRequest, args VBValidateInput) (_ *sdk.CallToolResult, _ VBValidateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("vb_validate", start, retErr, sanitizeToolParams("vb_validate", map[string]interface{}{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "vb_validate"); err != nil {
		return nil, VBValidateOutput{}, err
	}

	report, err := s.cache.Validate(ctx)
	if err != nil {
		return nil, VBValidateOutput{}, fmt.Errorf("validation failed: %w", err)
	}

	msg := fmt.Sprintf("All %d data files present for %d experiments.", report.Checked, report.Experiments)
	if len(report.Missing) > 0 {
		msg = fmt.Sprintf("%d of %d data files missing.", len(report.Missing), report.Checked)
	}

	return nil, VBValidateOutput{
		Experiments:  report.Experiments,
		FilesChecked: report.Checked,
		MissingCount: len(report.Missing),
		Missing:      report.Missing,
		Message:      msg,
	}, nil
}
