// Command conductor drives the AI development workflow coordination
// engine: it decomposes issues into tasks, runs the supervisor loop that
// dispatches agents against ready tasks, and surfaces blockers for human
// answer. Structured the way the teacher's cmd/tarsy/main.go wires a
// single binary's subsystems together, generalized into cobra
// subcommands instead of one long-running HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taskforge/conductor/pkg/agentregistry"
	"github.com/taskforge/conductor/pkg/api"
	"github.com/taskforge/conductor/pkg/blocker"
	"github.com/taskforge/conductor/pkg/dependency"
	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/evidence"
	"github.com/taskforge/conductor/pkg/llm"
	"github.com/taskforge/conductor/pkg/metrics"
	"github.com/taskforge/conductor/pkg/qualitygate"
	"github.com/taskforge/conductor/pkg/store"
	"github.com/taskforge/conductor/pkg/supervisor"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	root := &cobra.Command{
		Use:   "conductor",
		Short: "AI development workflow coordination engine",
	}

	var configDir string
	root.PersistentFlags().StringVar(&configDir, "config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		envPath := filepath.Join(configDir, ".env")
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "err", err)
		}
	}

	root.AddCommand(newInitCmd(), newPRDCmd(), newTasksCmd(), newWorkCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := store.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	return store.New(ctx, cfg)
}

func newInitCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new project in the discovery phase",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if _, err := s.CreateProject(ctx, projectID); err != nil {
				return err
			}
			fmt.Printf("Project %s created\n", projectID)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project ID")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newPRDCmd() *cobra.Command {
	prd := &cobra.Command{Use: "prd", Short: "Manage issues"}

	var projectID, issueNumber, title, description string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an issue to a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			_, err = s.CreateIssue(ctx, domain.Issue{
				ProjectID:   projectID,
				IssueNumber: issueNumber,
				Title:       title,
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Issue %s added to project %s\n", issueNumber, projectID)
			return nil
		},
	}
	add.Flags().StringVar(&projectID, "project", "", "project ID")
	add.Flags().StringVar(&issueNumber, "issue", "", "issue number, e.g. 2.1")
	add.Flags().StringVar(&title, "title", "", "issue title")
	add.Flags().StringVar(&description, "description", "", "issue description")
	_ = add.MarkFlagRequired("project")
	_ = add.MarkFlagRequired("issue")
	_ = add.MarkFlagRequired("title")

	prd.AddCommand(add)
	return prd
}

func newTasksCmd() *cobra.Command {
	tasks := &cobra.Command{Use: "tasks", Short: "Manage tasks"}
	tasks.AddCommand(newTasksGenerateCmd(), newTasksSetStatusCmd())
	return tasks
}

func newTasksGenerateCmd() *cobra.Command {
	var projectID, issueNumber, llmAddr string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Decompose an issue into tasks via the LLM",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			iss, err := s.GetIssue(ctx, projectID, issueNumber)
			if err != nil {
				return err
			}
			issueID, err := s.GetIssueID(ctx, projectID, issueNumber)
			if err != nil {
				return err
			}

			adapter, err := newConfiguredAdapter(llmAddr)
			if err != nil {
				return err
			}

			tasks, err := decomposeIssue(ctx, adapter, iss)
			if err != nil {
				return fmt.Errorf("decompose issue %s: %w", issueNumber, err)
			}

			for _, t := range tasks {
				t.ProjectID = projectID
				t.IssueNumber = issueNumber
				t.Status = domain.StatusPending
				if len(t.DependsOn) == 0 {
					t.Status = domain.StatusReady
				}
				if _, err := s.CreateTaskWithIssue(ctx, t, issueID); err != nil {
					return fmt.Errorf("persist task %s: %w", t.TaskNumber, err)
				}
			}
			fmt.Printf("%d tasks generated for issue %s\n", len(tasks), issueNumber)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project ID")
	cmd.Flags().StringVar(&issueNumber, "issue", "", "issue number, e.g. 2.1")
	cmd.Flags().StringVar(&llmAddr, "llm-addr", getEnv("LLM_SERVICE_ADDR", ""), "gRPC address of the LLM service; if empty, uses CONDUCTOR_LLM_API_KEY")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("issue")
	return cmd
}

func newTasksSetStatusCmd() *cobra.Command {
	var projectID, taskNumber, status string
	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Transition a task's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.UpdateTaskStatus(ctx, projectID, taskNumber, domain.TaskStatus(status)); err != nil {
				return err
			}
			fmt.Printf("Task %s set to %s\n", taskNumber, status)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project ID")
	cmd.Flags().StringVar(&taskNumber, "task", "", "task number")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newWorkCmd() *cobra.Command {
	work := &cobra.Command{Use: "work", Short: "Run the supervisor loop"}

	var projectID, workDir, llmAddr, apiAddr string
	start := &cobra.Command{
		Use:   "start",
		Short: "Drive a project's dependency graph to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			tasks, err := s.ListTasksByProject(ctx, projectID, "")
			if err != nil {
				return err
			}

			resolver := dependency.NewResolver()
			if err := resolver.Build(tasks); err != nil {
				return fmt.Errorf("build dependency graph: %w", err)
			}

			registry := agentregistry.New()
			if err := registry.LoadDir(filepath.Join(configDirFromCmd(cmd), "agents")); err != nil {
				slog.Warn("no agent definitions loaded, continuing with an empty agent registry", "err", err)
			}
			selector := agentregistry.NewSelector(registry)

			adapter, err := newConfiguredAdapter(llmAddr)
			if err != nil {
				return err
			}

			hub := api.NewHub()
			blockers := blocker.New(hub)
			gates := qualitygate.NewRunner()
			verifier := evidence.New(evidence.DefaultThresholds())
			dispatcher := newAgentDispatcher(adapter, verifier, workDir)

			loop := supervisor.New(supervisor.Options{
				Resolver:   resolver,
				Selector:   selector,
				Dispatcher: dispatcher,
				Blockers:   blockers,
				Gates:      gates,
				Events:     metrics.NewPublisher(),
			})

			if apiAddr != "" {
				srv := api.NewServer(s, blockers, resolver)
				go func() {
					if err := srv.Run(ctx, apiAddr); err != nil {
						slog.Error("api server stopped", "err", err)
					}
				}()
			}

			if err := loop.Run(ctx); err != nil {
				if err == supervisor.ErrDeadlocked {
					fmt.Println("blocked: dependency graph deadlocked, awaiting blocker answers")
					return nil
				}
				fmt.Printf("failed: %v\n", err)
				return err
			}

			fmt.Println("Task completed successfully")
			return nil
		},
	}
	start.Flags().StringVar(&projectID, "project", "", "project ID")
	start.Flags().StringVar(&workDir, "work-dir", ".", "working directory tasks operate in")
	start.Flags().StringVar(&llmAddr, "llm-addr", getEnv("LLM_SERVICE_ADDR", ""), "gRPC address of the LLM service; if empty, uses CONDUCTOR_LLM_API_KEY")
	start.Flags().StringVar(&apiAddr, "api-addr", getEnv("API_ADDR", ""), "if set, serve status/health/blocker-answer HTTP on this address alongside the run")
	_ = start.MarkFlagRequired("project")

	work.AddCommand(start)
	return work
}

func configDirFromCmd(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("config-dir")
	if v == "" {
		return getEnv("CONFIG_DIR", "./deploy/config")
	}
	return v
}

func newConfiguredAdapter(grpcAddr string) (llm.Adapter, error) {
	if grpcAddr != "" {
		a, err := llm.NewGRPCAdapter(grpcAddr)
		if err != nil {
			return nil, err
		}
		return llm.NewBreakerAdapter("grpc-llm", a), nil
	}
	apiKey := os.Getenv("CONDUCTOR_LLM_API_KEY")
	if apiKey == "" {
		return nil, &ConfigError{
			Field: "CONDUCTOR_LLM_API_KEY",
			Err:   fmt.Errorf("neither --llm-addr nor CONDUCTOR_LLM_API_KEY is set"),
		}
	}
	a := llm.NewAnthropicAdapter(apiKey, "claude-sonnet-4-20250514")
	return llm.NewBreakerAdapter("anthropic-llm", a), nil
}
