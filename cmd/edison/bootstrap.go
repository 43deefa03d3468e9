package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/edison-run/edison/internal/config"
	"github.com/edison-run/edison/internal/evidence"
	"github.com/edison-run/edison/internal/fsutil"
	"github.com/edison-run/edison/internal/guards"
	"github.com/edison-run/edison/internal/logging"
	"github.com/edison-run/edison/internal/repository"
	"github.com/edison-run/edison/internal/statemachine"
)

// app bundles the wiring every subcommand needs: the resolved project
// root, the layered config view, the three entity repositories, and the
// shared evidence store and logger. Subcommands build one of these first
// and otherwise contain no business logic of their own.
type app struct {
	root     string
	resolver *config.Resolver
	log      *logging.Logger

	tasks    *repository.TaskRepository
	qa       *repository.QARepository
	sessions *repository.SessionRepository

	evidence *evidence.Store
	workflow config.WorkflowConfig
	qaCfg    config.QAConfig
}

func loadApp() (*app, error) {
	root := rootFlags.root
	if root == "" {
		found, err := config.FindProjectRoot(".")
		if err != nil {
			return nil, err
		}
		root = found
	}

	resolver := config.NewResolver(root, config.DefaultLayers(root, nil))

	var workflow config.WorkflowConfig
	if err := resolver.Unmarshal("workflow", &workflow); err != nil {
		return nil, err
	}
	if workflow.ConcurrentModificationRetries == 0 {
		workflow = config.DefaultWorkflowConfig()
	}

	var qaCfg config.QAConfig
	if err := resolver.Unmarshal("qa", &qaCfg); err != nil {
		return nil, err
	}

	lockOpts := fsutil.LockOptions{Timeout: 10 * time.Second}

	registry := buildRegistry(qaCfg)

	taskRuntime, err := loadRuntime(root, "task", registry)
	if err != nil {
		return nil, err
	}
	qaRuntime, err := loadRuntime(root, "qa", registry)
	if err != nil {
		return nil, err
	}
	sessionRuntime, err := loadRuntime(root, "session", registry)
	if err != nil {
		return nil, err
	}

	audit, err := repository.NewAuditWriter(filepath.Join(root, ".project", "logs", "state-transitions.jsonl"))
	if err != nil {
		return nil, err
	}

	return &app{
		root:     root,
		resolver: resolver,
		log:      logging.Default().With("edison"),
		tasks:    repository.NewTaskRepository(root, taskRuntime, audit, lockOpts, "todo"),
		qa:       repository.NewQARepository(root, qaRuntime, audit, lockOpts),
		sessions: repository.NewSessionRepository(root, sessionRuntime, audit, lockOpts),
		evidence: evidence.NewStore(filepath.Join(root, ".edison")),
		workflow: workflow,
		qaCfg:    qaCfg,
	}, nil
}

// loadRuntime reads .edison/core/statemachines/<kind>.yml, the convention
// every pack's bundled spec follows alongside its other config layers.
func loadRuntime(root, kind string, registry *statemachine.Registry) (*statemachine.Runtime, error) {
	path := filepath.Join(root, ".edison", "core", "statemachines", kind+".yml")
	spec, err := statemachine.LoadSpec(path)
	if err != nil {
		return nil, fmt.Errorf("edison: load %s state machine: %w", kind, err)
	}
	return statemachine.NewRuntime(spec, registry)
}

// buildRegistry registers the named guard predicates, closing
// EvidencePresent over the configured required-evidence patterns so a
// pack's state_machine.yml can reference it by name alone.
func buildRegistry(qaCfg config.QAConfig) *statemachine.Registry {
	reg := statemachine.NewRegistry()
	reg.Guards["AllTasksReady"] = guards.AllTasksReady
	reg.Guards["ChildrenReady"] = guards.ChildrenReady
	reg.Guards["BundleApproved"] = guards.BundleApproved
	reg.Guards["TDDRefactorFollowsGreen"] = guards.TDDRefactorFollowsGreen
	reg.Guards["EvidencePresent"] = guards.EvidencePresent(qaCfg.RequiredEvidence)
	return reg
}
