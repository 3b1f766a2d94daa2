package daemon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/stencilworks/stencil/internal/compose"
	"github.com/stencilworks/stencil/internal/history"
	"github.com/stencilworks/stencil/pkg/protocol"
)

const (
	codeInvalidParams = -32602
	codeComposeFailed = -32000
)

type handler struct {
	daemon *Daemon
}

func (h *handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	switch req.Method {
	case "compose":
		h.handleCompose(ctx, conn, req)
	case "features":
		h.handleFeatures(ctx, conn, req)
	case "status":
		h.handleStatus(ctx, conn, req)
	default:
		if req.Notif {
			return
		}
		conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "method not found: " + req.Method,
		})
	}
}

func (h *handler) handleCompose(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var params protocol.ComposeParams
	if req.Params == nil {
		conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: codeInvalidParams, Message: "missing params"})
		return
	}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: codeInvalidParams, Message: err.Error()})
		return
	}
	if params.Target == "" {
		conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: codeInvalidParams, Message: "target is required"})
		return
	}

	cfg := h.daemon.cfg
	opts := compose.Options{
		TemplateRoot:  cfg.TemplateRoot,
		ModulesRoot:   cfg.ModulesRoot,
		TargetDir:     params.Target,
		ModuleDestDir: cfg.ModuleDestDir,
		Variables:     params.Variables,
		Exclude:       cfg.CopyExclusions,
		ReservedFiles: cfg.ReservedFiles,
		AllowExisting: params.AllowExisting,
	}

	started := time.Now()
	composer := compose.New(h.daemon.reg, opts)
	res, err := composer.Run(compose.Selection{Features: params.Features})

	if h.daemon.store != nil {
		run := history.Run{
			Project:   params.Project,
			Target:    params.Target,
			Features:  params.Features,
			Status:    history.StatusOK,
			StartedAt: started,
		}
		if err != nil {
			run.Status = history.StatusFailed
			run.Error = err.Error()
		} else {
			run.FilesCopied = res.FilesCopied
			run.InjectionsApplied = res.InjectionsApplied
			run.DurationMS = res.Duration.Milliseconds()
		}
		if _, recErr := h.daemon.store.Record(run); recErr != nil {
			log.Warn("failed to record run", "error", recErr)
		}
	}

	if err != nil {
		conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: codeComposeFailed, Message: err.Error()})
		return
	}

	conn.Reply(ctx, req.ID, protocol.ComposeResult{
		Target:            params.Target,
		FilesCopied:       res.FilesCopied,
		ModuleFiles:       res.ModuleFiles,
		InjectionsApplied: res.InjectionsApplied,
		InjectionsSkipped: res.InjectionsSkipped,
		DurationMS:        res.Duration.Milliseconds(),
	})
}

func (h *handler) handleFeatures(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	features := h.daemon.reg.List()

	infos := make([]protocol.FeatureInfo, 0, len(features))
	for _, feat := range features {
		infos = append(infos, protocol.FeatureInfo{
			Key:         feat.Key,
			Name:        feat.Name,
			Description: feat.Description,
		})
	}

	conn.Reply(ctx, req.ID, protocol.FeaturesResult{Features: infos})
}

func (h *handler) handleStatus(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	conn.Reply(ctx, req.ID, protocol.StatusResult{
		UptimeSeconds: int64(time.Since(h.daemon.startTime).Seconds()),
		FeatureCount:  h.daemon.reg.Len(),
	})
}
