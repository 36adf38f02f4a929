package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/gy212/cheekai-detect/internal/config"
	"github.com/gy212/cheekai-detect/internal/detect"
	"github.com/gy212/cheekai-detect/internal/logging"
	"github.com/gy212/cheekai-detect/internal/remote"
	"github.com/gy212/cheekai-detect/internal/textnorm"
)

func main() {
	var (
		filePath      = flag.String("file", "", "path to the text file to analyze (required)")
		provider      = flag.String("provider", string(config.ProviderOpenAI), "remote provider: openai, gemini, glm, deepseek, anthropic")
		sensitivity   = flag.String("sensitivity", "medium", "detection sensitivity: low, medium, high")
		language      = flag.String("language", "en", "document language hint (e.g. en, zh)")
		localOnly     = flag.Bool("local-only", false, "skip every remote call and run the sync fallback path")
		usePerplexity = flag.Bool("perplexity", true, "include the perplexity surrogate signal")
		useStylometry = flag.Bool("stylometry", true, "include the repeat-ratio/n-gram/function-word/punctuation stylometry signals")
		logLevel      = flag.String("log-level", "info", "debug, info, warn, error")
		pretty        = flag.Bool("pretty-log", false, "use a human-readable console log writer")
	)
	flag.Parse()

	logging.Init(*logLevel, *pretty)
	config.LoadEnv()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: detect -file <path.txt> [-provider openai] [-sensitivity medium]")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("failed to read input file")
	}

	opts := detect.Options{
		Provider:      config.Provider(*provider),
		Sensitivity:   config.ParseSensitivity(*sensitivity),
		Language:      *language,
		UsePerplexity: *usePerplexity,
		UseStylometry: *useStylometry,
	}
	if !*localOnly {
		opts.Client = remote.NewClient(config.NoKeyStore)
		opts.Splitter = textnorm.NewSplitterClient()
	}

	result, err := detect.Analyze(context.Background(), string(raw), opts)
	if err != nil {
		log.Fatal().Err(err).Msg("detection pipeline failed")
	}

	out, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal result")
	}
	fmt.Println(string(out))
}
