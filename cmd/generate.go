package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/archloom/archloom/internal/accounting"
	"github.com/archloom/archloom/internal/artifacts"
	"github.com/archloom/archloom/internal/cluster"
	"github.com/archloom/archloom/internal/graph"
	"github.com/archloom/archloom/internal/llm"
	"github.com/archloom/archloom/internal/model"
	"github.com/archloom/archloom/internal/scheduler"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate architecture documentation for a repository",
	Long:  `Walks a repository, builds its component graph, clusters it into modules, and writes a Markdown documentation site describing the architecture.`,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().String("repo", "", "repository path to document (overrides config)")
	generateCmd.Flags().String("output", "", "output directory (overrides config)")
	generateCmd.Flags().Int("concurrency", 0, "max parallel analyzer workers (overrides config)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
		cfg.RepoPath = repo
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.OutputDir = output
	}
	if concurrency, _ := cmd.Flags().GetInt("concurrency"); concurrency > 0 {
		cfg.MaxConcurrency = concurrency
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	provider, err := llm.Dispatch(string(cfg.Provider), cfg.MainModel, cfg.LLMAPIKey, cfg.LLMBaseURL)
	if err != nil {
		return fmt.Errorf("creating LLM provider: %w", err)
	}

	acct := accounting.NewAccountant()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing %s...\n", cfg.RepoPath)
	}

	acct.SetStage("analyze")
	result, err := graph.Build(ctx, cfg.RepoPath, cfg.Include, cfg.Exclude, cfg.MaxConcurrency)
	if err != nil {
		return fmt.Errorf("building component graph: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Found %d components, %d leaf modules\n", len(result.Components), len(result.Leaves))
	}

	acct.SetStage("cluster")
	clusterModel := cfg.ClusterModel
	if clusterModel == "" {
		clusterModel = cfg.MainModel
	}
	tree := cluster.Cluster(ctx, provider, clusterModel, result.Components, result.Leaves, acct)

	if verbose {
		fmt.Fprintf(os.Stderr, "Clustered into %d top-level modules\n", len(tree))
	}

	acct.SetStage("document")
	sched := scheduler.New(cfg.OutputDir, result.Components, provider, cfg.MainModel, acct)
	if err := sched.Run(ctx, tree); err != nil {
		return fmt.Errorf("documenting modules: %w", err)
	}

	// tree's *model.Module entries are mutated in place by auto-split, so
	// it still reflects the final shape the scheduler settled on.
	if err := artifacts.WriteDependencyGraph(cfg.OutputDir, cfg.RepoPath, result.Graph); err != nil {
		return fmt.Errorf("writing dependency graph: %w", err)
	}

	generated, err := listGeneratedDocs(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("listing generated docs: %w", err)
	}

	metadata := artifacts.Metadata{
		GenerationInfo: artifacts.GenerationInfo{
			Timestamp: start,
			MainModel: cfg.MainModel,
			RepoPath:  cfg.RepoPath,
		},
		Statistics: artifacts.Statistics{
			TotalComponents: len(result.Components),
			LeafNodes:       len(result.Leaves),
			MaxDepth:        treeDepth(tree),
		},
		FilesGenerated: generated,
	}
	if err := artifacts.WriteMetadata(cfg.OutputDir, metadata); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	duration := time.Since(start)
	fmt.Println()
	fmt.Println("Documentation generation complete!")
	fmt.Printf("  Components found:  %d\n", len(result.Components))
	fmt.Printf("  Top-level modules: %d\n", len(tree))
	fmt.Printf("  Duration:          %s\n", duration.Round(time.Millisecond))
	fmt.Printf("  Output:            %s\n", cfg.OutputDir)
	fmt.Println()
	fmt.Print(acct.FormatSummary())

	return nil
}

// treeDepth returns the number of levels in tree, counting the top level
// as depth 1, for metadata.json's statistics.max_depth.
func treeDepth(tree model.ModuleTree) int {
	if len(tree) == 0 {
		return 0
	}
	max := 0
	for _, m := range tree {
		if d := treeDepth(m.Children); d > max {
			max = d
		}
	}
	return max + 1
}

// listGeneratedDocs returns the base names of every Markdown file written
// directly under dir, sorted, for metadata.json's files_generated list.
func listGeneratedDocs(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}
