package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/edison-run/edison/internal/composition"
	"github.com/edison-run/edison/internal/config"
	"github.com/edison-run/edison/internal/discovery"
)

// maxComposeWorkers bounds concurrent document renders to a fixed pool size
// rather than spawning one goroutine per name unconditionally regardless of
// how many were given.
const maxComposeWorkers = 4

var composeFlags struct {
	out    string
	layers []string
}

type composeOutcome struct {
	name   string
	result composition.Result
	err    error
}

var composeCmd = &cobra.Command{
	Use:   "compose <content-type> <name>...",
	Short: "Compose one or more documents of a content type across layers",
	Long: `Discovers every layer's definition and overlays for each named
document under <content-type>, composes them with the configured
strategy, and template-renders the result. Multiple names render
concurrently, at most four documents at a time.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := loadApp()
		if err != nil {
			fail(err)
		}
		contentType, names := args[0], args[1:]

		compCfg, err := a.resolver.UnmarshalComposition("composition")
		if err != nil {
			fail(err)
		}

		layers := composeLayers(a.root)
		idx, err := discovery.Discover(contentType, layers, compCfg.ExcludeGlobs, "")
		if err != nil {
			fail(err)
		}

		p := pool.NewWithResults[composeOutcome]().WithMaxGoroutines(maxComposeWorkers)
		for _, name := range names {
			name := name
			p.Go(func() composeOutcome {
				result, err := composeOne(idx, name, contentType, compCfg)
				return composeOutcome{name: name, result: result, err: err}
			})
		}
		outcomes := p.Wait()

		results := make(map[string]composition.Result, len(outcomes))
		for _, o := range outcomes {
			if o.err != nil {
				fail(fmt.Errorf("compose %s: %w", o.name, o.err))
			}
			results[o.name] = o.result
		}

		green := color.New(color.FgGreen).SprintFunc()
		for _, name := range names {
			result := results[name]
			if composeFlags.out == "" {
				fmt.Printf("=== %s ===\n%s\n", name, result.Content)
				continue
			}
			outPath := filepath.Join(composeFlags.out, name+".md")
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				fail(err)
			}
			if err := os.WriteFile(outPath, []byte(result.Content), 0o644); err != nil {
				fail(err)
			}
			fmt.Printf("%s wrote %s\n", green("✓"), outPath)
		}
	},
}

// composeOne gathers name's definition plus any overlays from idx in layer
// order, composes them, and template-renders the result.
func composeOne(idx *discovery.Index, name, contentType string, cfg config.CompositionConfig) (composition.Result, error) {
	var layerContents []composition.LayerContent
	for _, entry := range idx.Entries {
		if entry.ID != name {
			continue
		}
		data, err := os.ReadFile(entry.Path)
		if err != nil {
			return composition.Result{}, err
		}
		layerContents = append(layerContents, composition.LayerContent{Layer: entry.Layer.Name, Content: string(data)})
	}
	if len(layerContents) == 0 {
		return composition.Result{}, fmt.Errorf("no such document %q under content type %q", name, contentType)
	}

	strategy, err := composition.StrategyFor(cfg)
	if err != nil {
		return composition.Result{}, err
	}
	composed, err := strategy.Compose(layerContents, cfg)
	if err != nil {
		return composition.Result{}, err
	}

	include := &composition.DiscoveryInclude{Index: idx}
	engine := composition.NewEngine(include, filepath.Dir(idx.Entries[0].Path))
	vars := composition.BuildContextVars(composition.StandardContext{
		Name:        name,
		ContentType: contentType,
		Timestamp:   time.Now(),
	}, nil)
	rendered, diags, err := engine.Render(composed.Content, vars)
	if err != nil {
		return composition.Result{}, err
	}
	composed.Content = rendered
	composed.Diagnostics = append(composed.Diagnostics, diags...)
	return composed, nil
}

// composeLayers builds the Core -> Project discovery layer stack rooted at
// root; no pack or user layers are included.
func composeLayers(root string) []discovery.Layer {
	return []discovery.Layer{
		{Role: discovery.RoleCore, Root: filepath.Join(root, ".edison", "core")},
		{Role: discovery.RoleProject, Root: filepath.Join(root, ".edison", "project")},
	}
}

func init() {
	composeCmd.Flags().StringVar(&composeFlags.out, "out", "", "write composed documents under this directory instead of stdout")
	rootCmd.AddCommand(composeCmd)
}
