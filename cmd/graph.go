package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keshy/CodeSense/analytics"
	"github.com/keshy/CodeSense/graph/engine"
	"github.com/keshy/CodeSense/graph/lang"
	"github.com/keshy/CodeSense/graph/render"
	"github.com/keshy/CodeSense/output"

	// Register the language adapters.
	_ "github.com/keshy/CodeSense/graph/lang/javascript"
	_ "github.com/keshy/CodeSense/graph/lang/php"
	_ "github.com/keshy/CodeSense/graph/lang/python"
	_ "github.com/keshy/CodeSense/graph/lang/ruby"
)

var imageExtensions = map[string]bool{"png": true, "svg": true}
var textExtensions = map[string]bool{"dot": true, "gv": true, "json": true}

// graphConfig mirrors the graph command's filter and behavior flags so
// they can be kept in a project-level YAML file.
type graphConfig struct {
	ExcludeNamespaces     []string `yaml:"exclude_namespaces"`
	ExcludeFunctions      []string `yaml:"exclude_functions"`
	IncludeOnlyNamespaces []string `yaml:"include_only_namespaces"`
	IncludeOnlyFunctions  []string `yaml:"include_only_functions"`
	NoGrouping            bool     `yaml:"no_grouping"`
	NoTrimming            bool     `yaml:"no_trimming"`
	HideLegend            bool     `yaml:"hide_legend"`
	SkipParseErrors       bool     `yaml:"skip_parse_errors"`
	SkipLibFiles          bool     `yaml:"skip_lib_files"`
}

var graphCmd = &cobra.Command{
	Use:   "graph [sources...]",
	Short: "Generate a call-flow graph from source files or directories",
	Long: `Generate a call-flow graph from source files or directories.

Examples:
  # Graph a project into an image (requires graphviz)
  codesense graph ./myproject -o flow.png

  # Machine-readable output for downstream indexing
  codesense graph ./myproject -o graph.json

  # Only the neighborhood of one function
  codesense graph ./myproject -o flow.png --target-function login --upstream-depth 1 --downstream-depth 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")
		if verbose && quiet {
			return engine.Configf("passed both --verbose and --quiet flags")
		}
		logger := output.NewLogger(output.LevelFromFlags(verbose, quiet))

		opts, dotOpts, outputFile, err := buildOptions(cmd, args)
		if err != nil {
			return err
		}

		outputExt := outputExtension(outputFile)
		if !imageExtensions[outputExt] && !textExtensions[outputExt] {
			return engine.Configf("output filename must end in one of: png, svg, dot, gv, json")
		}

		gvFile := outputFile
		imageFile := ""
		if imageExtensions[outputExt] {
			if !render.IsDotInstalled() {
				return &engine.DependencyError{Msg: "can't generate an image because neither `dot` nor " +
					"`dot.exe` was found. Either install graphviz or set your --output " +
					"file to a text extension: dot, gv, json"}
			}
			imageFile = outputFile
			gvFile = strings.TrimSuffix(outputFile, "."+outputExt) + ".gv"
		}

		graph, err := engine.Run(context.Background(), *opts, logger)
		if err != nil {
			analytics.ReportEvent(analytics.ErrorBuildingGraph)
			return err
		}
		fileGroups, nodes, edges := render.SortGraph(graph.FileGroups, graph.Nodes, graph.Edges)

		logger.Progress("Generating output file...")
		out, err := os.Create(gvFile)
		if err != nil {
			analytics.ReportEvent(analytics.ErrorWritingOutput)
			return fmt.Errorf("could not create output file: %w", err)
		}
		if outputExt == "json" {
			err = render.WriteJSON(out, nodes, edges)
		} else {
			err = render.WriteDot(out, fileGroups, nodes, edges, *dotOpts)
		}
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			analytics.ReportEvent(analytics.ErrorWritingOutput)
			return fmt.Errorf("could not write output file: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Wrote output file %q with %d nodes and %d edges.\n",
			green("✓"), gvFile, len(nodes), len(edges))
		if outputExt != "json" {
			logger.Progress("For better machine readability, you can also try outputting in a json format.")
		}

		switch {
		case outputExt == "json":
			analytics.ReportEvent(analytics.GraphCommandJSON)
		case imageFile != "":
			analytics.ReportEvent(analytics.GraphCommandImage)
		default:
			analytics.ReportEvent(analytics.GraphCommand)
		}

		if imageFile != "" {
			if err := render.GenerateImage(context.Background(), gvFile, imageFile, outputExt, logger); err != nil {
				return err
			}
			logger.Progress("Completed your flowchart! To see it, open %q.", imageFile)
		}
		logger.PrintTimingSummary("parse", "resolve")
		return nil
	},
}

// buildOptions assembles the engine options from flags plus the optional
// YAML config file. File-supplied filter lists are appended to the flag
// lists; file-supplied booleans turn flags on but never off.
func buildOptions(cmd *cobra.Command, args []string) (*engine.Options, *render.DotOptions, string, error) {
	flags := cmd.Flags()
	outputFile, _ := flags.GetString("output")
	language, _ := flags.GetString("language")
	sourceType, _ := flags.GetString("source-type")
	rubyVersion, _ := flags.GetString("ruby-version")
	configFile, _ := flags.GetString("config")

	cfg := graphConfig{}
	if configFile != "" {
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return nil, nil, "", fmt.Errorf("could not read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, nil, "", fmt.Errorf("could not parse config file: %w", err)
		}
	}

	noGrouping, _ := flags.GetBool("no-grouping")
	noTrimming, _ := flags.GetBool("no-trimming")
	hideLegend, _ := flags.GetBool("hide-legend")
	skipParseErrors, _ := flags.GetBool("skip-parse-errors")
	skipLibFiles, _ := flags.GetBool("skip-lib-files")

	targetFunction, _ := flags.GetString("target-function")
	upstreamDepth, _ := flags.GetInt("upstream-depth")
	downstreamDepth, _ := flags.GetInt("downstream-depth")
	subset, err := engine.NewSubsetParams(targetFunction, upstreamDepth, downstreamDepth)
	if err != nil {
		return nil, nil, "", err
	}

	opts := &engine.Options{
		Sources:               args,
		Language:              language,
		NoTrimming:            noTrimming || cfg.NoTrimming,
		ExcludeNamespaces:     append(commaList(flags, "exclude-namespaces"), cfg.ExcludeNamespaces...),
		ExcludeFunctions:      append(commaList(flags, "exclude-functions"), cfg.ExcludeFunctions...),
		IncludeOnlyNamespaces: append(commaList(flags, "include-only-namespaces"), cfg.IncludeOnlyNamespaces...),
		IncludeOnlyFunctions:  append(commaList(flags, "include-only-functions"), cfg.IncludeOnlyFunctions...),
		SkipParseErrors:       skipParseErrors || cfg.SkipParseErrors,
		ExcludeLibFiles:       skipLibFiles || cfg.SkipLibFiles,
		LangParams:            lang.Params{SourceType: sourceType, RubyVersion: rubyVersion},
		Subset:                subset,
	}
	dotOpts := &render.DotOptions{
		HideLegend: hideLegend || cfg.HideLegend,
		NoGrouping: noGrouping || cfg.NoGrouping,
	}
	return opts, dotOpts, outputFile, nil
}

func commaList(flags interface{ GetString(string) (string, error) }, name string) []string {
	raw, _ := flags.GetString(name)
	var ret []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}

func outputExtension(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return ""
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("output", "o", "out.png", "Output file path (png, svg, dot, gv, json)")
	graphCmd.Flags().String("language", "", "Process this language and ignore all other files (py, js, mjs, rb, php). If omitted, use the suffix of the first source file")
	graphCmd.Flags().String("target-function", "", "Output a subset of the graph centered on this function. Valid formats include `func`, `class.func`, and `file::class.func`. Requires --upstream-depth and/or --downstream-depth")
	graphCmd.Flags().Int("upstream-depth", 0, "Include n nodes upstream of --target-function")
	graphCmd.Flags().Int("downstream-depth", 0, "Include n nodes downstream of --target-function")
	graphCmd.Flags().String("exclude-functions", "", "Exclude functions from the output. Comma delimited")
	graphCmd.Flags().String("exclude-namespaces", "", "Exclude namespaces (classes, modules, etc) from the output. Comma delimited")
	graphCmd.Flags().String("include-only-functions", "", "Include only functions in the output. Comma delimited")
	graphCmd.Flags().String("include-only-namespaces", "", "Include only namespaces (classes, modules, etc) in the output. Comma delimited")
	graphCmd.Flags().Bool("no-grouping", false, "Instead of grouping functions into namespaces, let functions float")
	graphCmd.Flags().Bool("no-trimming", false, "Show all functions/namespaces whether or not they connect to anything")
	graphCmd.Flags().Bool("hide-legend", false, "By default, a small legend is generated. This flag hides it")
	graphCmd.Flags().Bool("skip-parse-errors", false, "Skip files that the language parser fails on")
	graphCmd.Flags().Bool("skip-lib-files", false, "Skip files that are not part of user code and come from 3rd party libraries")
	graphCmd.Flags().String("source-type", "script", "js only. Parse the source as scripts (commonJS) or modules (es6)")
	graphCmd.Flags().String("ruby-version", "27", "ruby only. Which ruby version to parse? Use numbers like 25, 27, or 31")
	graphCmd.Flags().String("config", "", "Path to a YAML file carrying filter lists and flags")
}
