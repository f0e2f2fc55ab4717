// cmd/strata/main.go
//
// This is the entry point for the strata CLI.
//
// Flow:
// 1. Initialize the .strata folder and runtime configuration
// 2. Load the goal record and the policy registry (builtins + plugins)
// 3. Execute the delegation, either headless or behind the live tree view

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/reedfield/strata/internal/bus"
	"github.com/reedfield/strata/internal/config"
	"github.com/reedfield/strata/internal/logbook"
	"github.com/reedfield/strata/internal/logging"
	"github.com/reedfield/strata/internal/spec"
	"github.com/reedfield/strata/internal/tui"
	"github.com/reedfield/strata/internal/walker"
	"github.com/reedfield/strata/plugins"
)

func main() {
	var (
		goalPath  = flag.String("goal", "", "path to a goal record file (yaml)")
		levelFlag = flag.String("level", "", "ladder tier to enter at (name or 1-6, default from config)")
		portfolio = flag.Int("portfolio", 0, "explore N candidate strategies instead of a single traversal")
		policyID  = flag.String("policy", "", "policy id to use at every tier (overrides config)")
		watch     = flag.Bool("watch", false, "show the live delegation tree while executing")
	)
	flag.Parse()

	if err := run(*goalPath, *levelFlag, *portfolio, *policyID, *watch); err != nil {
		fmt.Fprintf(os.Stderr, "strata: %v\n", err)
		os.Exit(1)
	}
}

func run(goalPath, levelFlag string, portfolio int, policyID string, watch bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if err := config.InitStrataDir(cwd); err != nil {
		return fmt.Errorf("initialize .strata directory: %w", err)
	}
	cfg, err := config.NewConfig(cwd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cwd)
	if err != nil {
		return err
	}
	defer logger.Close()
	journal, err := logbook.New(filepath.Join(cfg.JournalDir(), "journal.log"))
	if err != nil {
		return err
	}

	rec, err := loadGoal(goalPath)
	if err != nil {
		return err
	}

	level := cfg.DefaultLevel()
	if strings.TrimSpace(levelFlag) != "" {
		level, err = spec.ParseLevel(levelFlag)
		if err != nil {
			return err
		}
	}
	if assigned, ok := rec.Level(); ok {
		level = assigned
	} else {
		rec.AssignLevel(level)
	}

	registry := walker.NewRegistry()
	walker.RegisterBuiltins(registry)
	if defs, err := plugins.RegisterPolicyPlugins(registry, cfg); err != nil {
		return err
	} else if len(defs) > 0 {
		logger.Printf("loaded %d policy plugin(s)", len(defs))
	}

	opts := []walker.Option{walker.WithGround(walker.AnnounceGround)}
	if strings.TrimSpace(policyID) != "" {
		policy, err := registry.Resolve(strings.TrimSpace(policyID))
		if err != nil {
			return err
		}
		opts = append(opts, walker.WithPolicy(policy))
	} else {
		opts = append(opts, walker.WithPolicySelector(policySelector(registry, cfg, logger)))
	}
	root, err := walker.New(level, opts...)
	if err != nil {
		return err
	}

	router := bus.NewRouter(bus.RouterWithLogger(logger))
	journalSub := router.Subscribe(bus.TopicAll)
	journalDone := make(chan struct{})
	go func() {
		defer close(journalDone)
		for event := range journalSub.Events {
			journal.Event(event)
		}
	}()
	defer func() {
		journalSub.Close()
		<-journalDone
	}()

	session := walker.NewSession(root, router.Observer())

	if watch {
		return runWatched(session, router, journal, rec, portfolio)
	}
	return runHeadless(session, rec, portfolio, logger)
}

func runHeadless(session *walker.Session, rec *spec.Record, portfolio int, logger *logging.Logger) error {
	var (
		result any
		err    error
	)
	if portfolio > 0 {
		result, err = session.ExecutePortfolio(rec, portfolio)
	} else {
		result, err = session.Execute(rec)
	}
	if err != nil {
		logger.Printf("execution failed: %v", err)
		return err
	}
	fmt.Println(result)
	return nil
}

// runWatched executes the delegation on a background goroutine while the
// terminal shows the live tree. The TUI owns pause/resume once execution
// is interrupted.
func runWatched(session *walker.Session, router *bus.Router, journal *logbook.Logbook, rec *spec.Record, portfolio int) error {
	go func() {
		if portfolio > 0 {
			_, _ = session.ExecutePortfolio(rec, portfolio)
		} else {
			_, _ = session.Execute(rec)
		}
	}()
	program := tea.NewProgram(
		tui.NewApp(session, router, tui.WithLogbook(journal)),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run tree view: %w", err)
	}
	return nil
}

func loadGoal(path string) (*spec.Record, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("a goal file is required (-goal path/to/goal.yaml)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read goal file: %w", err)
	}
	rec, err := spec.DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("parse goal file %s: %w", path, err)
	}
	return rec, nil
}

// policySelector resolves the configured policy id per ladder tier.
// Resolution failures fall back to the walker's inherited policy so a bad
// plugin id never strands a traversal mid-tree.
func policySelector(registry *walker.Registry, cfg *config.Config, logger *logging.Logger) walker.PolicySelector {
	return func(level spec.Level) walker.Policy {
		id := cfg.PolicyFor(level)
		policy, err := registry.Resolve(id)
		if err != nil {
			logger.Printf("policy %s unavailable at %s: %v", id, level, err)
			return nil
		}
		return policy
	}
}
