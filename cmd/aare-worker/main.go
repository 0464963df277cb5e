// Command aare-worker is the optional NATS consumer described in
// SPEC_FULL.md §2: it pulls verification jobs off a subject and
// publishes reports to a results subject, letting independent worker
// processes scale across cores per spec.md §5's "scaling across cores
// is achieved by running independent verifier instances (process- or
// worker-level), not by sharing one."
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/aare-ai/aarecore/internal/config"
	"github.com/aare-ai/aarecore/internal/wire"
	"github.com/aare-ai/aarecore/pkg/aare"
	"github.com/aare-ai/aarecore/pkg/aare/ontology"
)

// jobRequest mirrors spec.md §6's verify request.
type jobRequest struct {
	LLMOutput string `json:"llm_output"`
	Ontology  string `json:"ontology"`
}

func main() {
	natsURL := flag.String("nats-url", nats.DefaultURL, "NATS server URL")
	jobsSubject := flag.String("jobs-subject", "aarecore.verify.jobs", "subject to consume verification jobs from")
	resultsSubject := flag.String("results-subject", "aarecore.verify.results", "subject to publish reports to")
	queueGroup := flag.String("queue-group", "aarecore-workers", "NATS queue group, so jobs load-balance across worker processes")
	configPath := flag.String("config", "", "path to aarecore config YAML")
	flag.Parse()

	logCfg := zap.NewProductionConfig()
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	registry := ontology.NewRegistry(cfg.OntologyDir)
	core := aare.NewCore(registry, cfg.SolverTimeoutMS)

	nc, err := nats.Connect(*natsURL, nats.Name("aare-worker"))
	if err != nil {
		logger.Fatal("connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	sub, err := nc.QueueSubscribe(*jobsSubject, *queueGroup, func(msg *nats.Msg) {
		handleJob(context.Background(), core, logger, nc, *resultsSubject, msg)
	})
	if err != nil {
		logger.Fatal("subscribe to jobs subject", zap.Error(err))
	}
	defer sub.Unsubscribe()

	logger.Info("aare-worker ready",
		zap.String("nats_url", *natsURL),
		zap.String("jobs_subject", *jobsSubject),
		zap.String("results_subject", *resultsSubject),
		zap.String("queue_group", *queueGroup),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
}

// handleJob runs one verification job and publishes its report (or an
// error envelope) to resultsSubject. A malformed job or unknown-
// ontology failure is reported as an error envelope rather than
// dropped, matching spec.md §7's "the core never swallows errors
// silently."
func handleJob(ctx context.Context, core *aare.Core, logger *zap.Logger, nc *nats.Conn, resultsSubject string, msg *nats.Msg) {
	// correlationID is a ULID minted per job for log correlation only,
	// mirroring internal/httpapi's per-request correlation key; it
	// never appears on the results subject.
	correlationID := ulid.Make().String()
	log := logger.With(zap.String("correlation_id", correlationID))

	var job jobRequest
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		log.Warn("malformed job", zap.Error(err))
		publishError(nc, resultsSubject, log, "", err)
		return
	}
	log = log.With(zap.String("ontology", job.Ontology))

	report, err := core.Verify(ctx, aare.Request{LLMOutput: job.LLMOutput, Ontology: job.Ontology})
	if err != nil {
		log.Warn("verify failed", zap.Error(err))
		publishError(nc, resultsSubject, log, job.Ontology, err)
		return
	}

	body, err := json.Marshal(wire.FromReport(report))
	if err != nil {
		log.Error("marshal report", zap.Error(err))
		publishError(nc, resultsSubject, log, job.Ontology, err)
		return
	}
	if err := nc.Publish(resultsSubject, body); err != nil {
		log.Warn("publish result", zap.Error(err))
		return
	}
	log.Info("job verified",
		zap.String("verification_id", report.VerificationID),
		zap.Bool("verified", report.Verified),
	)
}

func publishError(nc *nats.Conn, subject string, logger *zap.Logger, ontologyName string, jobErr error) {
	envelope := map[string]string{"error": jobErr.Error(), "ontology": ontologyName}
	body, err := json.Marshal(envelope)
	if err != nil {
		logger.Error("marshal error envelope", zap.Error(err))
		return
	}
	if err := nc.Publish(subject, body); err != nil {
		logger.Warn("publish error envelope", zap.Error(err))
	}
}
