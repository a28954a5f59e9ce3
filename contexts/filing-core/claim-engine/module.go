package claimengine

import (
	"log/slog"

	httpadapter "recoup/contexts/filing-core/claim-engine/adapters/http"
	"recoup/contexts/filing-core/claim-engine/adapters/memory"
	"recoup/contexts/filing-core/claim-engine/application/commands"
	"recoup/contexts/filing-core/claim-engine/application/gates"
	"recoup/contexts/filing-core/claim-engine/application/pacing"
	"recoup/contexts/filing-core/claim-engine/application/queries"
	"recoup/contexts/filing-core/claim-engine/application/quota"
	"recoup/contexts/filing-core/claim-engine/application/workers"
	"recoup/contexts/filing-core/claim-engine/domain/entities"
	"recoup/contexts/filing-core/claim-engine/ports"
)

type Module struct {
	Handler       httpadapter.Handler
	FilingJob     *workers.FilingJob
	StatusPollJob workers.StatusPollJob
	Store         *memory.Store
	FilingClient  *memory.FilingClient
}

type Dependencies struct {
	Claims          ports.ClaimRepository
	Submissions     ports.SubmissionRepository
	Evidence        ports.EvidenceReader
	Shipments       ports.ShipmentReader
	Finance         ports.FinanceReader
	Flags           ports.FeatureFlags
	Filing          ports.FilingClient
	Outbox          ports.OutboxWriter
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	SubmissionPacer ports.Pacer
	PollPacer       ports.Pacer
	GateConfig      gates.Config
	QuotaConfig     quota.Config
	MaxRetries      int
	PollBatchSize   int
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	governor := quota.Governor{
		Claims: deps.Claims,
		Flags:  deps.Flags,
		Clock:  deps.Clock,
		Config: deps.QuotaConfig,
		Logger: deps.Logger,
	}
	pipeline := gates.Pipeline{
		Claims:      deps.Claims,
		Evidence:    deps.Evidence,
		Finance:     deps.Finance,
		Shipments:   deps.Shipments,
		SellerQuota: governor,
		Clock:       deps.Clock,
		Config:      deps.GateConfig,
		Logger:      deps.Logger,
	}
	fileClaim := commands.FileClaimUseCase{
		Claims:      deps.Claims,
		Submissions: deps.Submissions,
		Filing:      deps.Filing,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Outbox:      deps.Outbox,
		MaxRetries:  deps.MaxRetries,
		Logger:      deps.Logger,
	}
	applyVerdict := commands.ApplyVerdictUseCase{
		Claims: deps.Claims,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Outbox: deps.Outbox,
		Logger: deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Claims:      deps.Claims,
		Submissions: deps.Submissions,
		Logger:      deps.Logger,
	}

	filingJob := &workers.FilingJob{
		Claims:       deps.Claims,
		Pipeline:     pipeline,
		Governor:     governor,
		FileClaim:    fileClaim,
		ApplyVerdict: applyVerdict,
		Pacer:        deps.SubmissionPacer,
		Logger:       deps.Logger,
	}
	// The ops entry points share the same use cases but never wait out a
	// jittered slot.
	opsJob := &workers.FilingJob{
		Claims:       deps.Claims,
		Pipeline:     pipeline,
		Governor:     governor,
		FileClaim:    fileClaim,
		ApplyVerdict: applyVerdict,
		Pacer:        pacing.ZeroPacer{},
		Logger:       deps.Logger,
	}
	statusPollJob := workers.StatusPollJob{
		Claims:      deps.Claims,
		Submissions: deps.Submissions,
		Filing:      deps.Filing,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Outbox:      deps.Outbox,
		Pacer:       deps.PollPacer,
		BatchSize:   deps.PollBatchSize,
		MaxRetries:  deps.MaxRetries,
		Logger:      deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			FilingJob: opsJob,
			Queries:   queryUseCase,
			Logger:    deps.Logger,
		},
		FilingJob:     filingJob,
		StatusPollJob: statusPollJob,
	}
}

// NewInMemoryModule wires the module against the memory store and the
// scripted filing client. Used by tests and local smoke runs.
func NewInMemoryModule(seed []entities.Claim, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	filing := memory.NewFilingClient()
	module := NewModule(Dependencies{
		Claims:          store,
		Submissions:     store,
		Evidence:        store,
		Shipments:       store,
		Finance:         store,
		Flags:           store,
		Filing:          filing,
		Outbox:          store,
		Clock:           store,
		IDGen:           store,
		SubmissionPacer: pacing.ZeroPacer{},
		PollPacer:       pacing.ZeroPacer{},
		Logger:          logger,
	})
	module.Store = store
	module.FilingClient = filing
	return module
}
