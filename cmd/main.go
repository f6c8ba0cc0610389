package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/types"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/config"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/kb"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/llm"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/loader"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/pipeline"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/store"
)

type flags struct {
	configPath string
	process    bool
	rebuild    bool
	searchK    int
}

func main() {
	if err := run(parseFlags()); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.BoolVar(&f.process, "process", false, "Process PDFs in the source directory and add them to the knowledge base")
	flag.BoolVar(&f.rebuild, "rebuild", false, "Rebuild the knowledge base from the final JSON directory")
	flag.IntVar(&f.searchK, "k", 0, "Number of documents to retrieve per query (0 = config default)")
	flag.Parse()
	return f
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(f flags) error {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("Configuration error: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	ctx := context.Background()

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vectorStore.Close()

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.EmbeddingModel,
		BatchSize: cfg.Database.BatchSize,
		RateLimit: cfg.Pipeline.RateLimit,
	})
	if err != nil {
		return err
	}

	generator, err := llm.NewGenerator(llm.GeneratorConfig{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.Model,
		MaxTokens: cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		return err
	}

	managerCfg := kb.ManagerConfig{
		Collection: cfg.Database.Collection,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
		SearchK:    cfg.Database.SearchK,
	}

	var ingestBar *progressbar.ProgressBar
	if f.rebuild {
		ingestBar = getProgressBar(-1, "Indexing documents...")
		managerCfg.OnProgress = func(done, total int) {
			ingestBar.ChangeMax(total)
			ingestBar.Set(done)
		}
	}

	manager := kb.NewManager(managerCfg, embedder, vectorStore,
		loader.NewDirectorySource(cfg.Pipeline.FinalJSONDir))

	if f.process {
		if err := processPDFs(ctx, cfg, manager); err != nil {
			return err
		}
	}

	if f.rebuild {
		color.Blue("\nRebuilding knowledge base from %s\n", cfg.Pipeline.FinalJSONDir)
		added, err := manager.IngestAll(ctx, nil)
		ingestBar.Finish()
		if err != nil {
			return fmt.Errorf("ingestion failed after %d documents: %w", added, err)
		}
		if added == 0 {
			color.Yellow("\nNo documents to embed.\n")
		} else {
			color.Green("\n✓ Indexed %d documents\n", added)
		}
	}

	return chatLoop(ctx, manager, generator, f.searchK)
}

func processPDFs(ctx context.Context, cfg *config.Config, manager *kb.Manager) error {
	pdfs, err := filepath.Glob(filepath.Join(cfg.Pipeline.SourcePDFDir, "*.pdf"))
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		color.Yellow("No PDF files found in %s\n", cfg.Pipeline.SourcePDFDir)
		return nil
	}

	parser, err := pipeline.NewParserClient(pipeline.ParserConfig{
		URL:    cfg.Pipeline.ParserURL,
		APIKey: cfg.Pipeline.ParserAPIKey,
		OutDir: cfg.Pipeline.GenericJSONDir,
	})
	if err != nil {
		return err
	}

	structurer, err := pipeline.NewStructurer(pipeline.StructurerConfig{
		APIKey:     cfg.OpenAI.APIKey,
		Model:      cfg.OpenAI.Model,
		PromptFile: cfg.Pipeline.PromptFile,
		OutDir:     cfg.Pipeline.FinalJSONDir,
	})
	if err != nil {
		return err
	}

	qc := pipeline.NewQCChecker(pipeline.QCConfig{
		FinalJSONDir: cfg.Pipeline.FinalJSONDir,
		SourcePDFDir: cfg.Pipeline.SourcePDFDir,
		ReviewDir:    cfg.Pipeline.ReviewDir,
	})

	pipe := pipeline.New(parser, structurer, qc)

	color.Blue("\nFound %d PDF(s) to process\n", len(pdfs))
	bar := getProgressBar(len(pdfs), "Processing documents...")

	var records []models.DocumentRecord
	for _, pdfPath := range pdfs {
		record, err := pipe.ProcessPDF(ctx, pdfPath, func(msg string) {
			log.Printf("%s: %s", filepath.Base(pdfPath), msg)
		})
		if err != nil {
			color.Red("Error processing %s: %v\n", filepath.Base(pdfPath), err)
			bar.Add(1)
			continue
		}
		records = append(records, record)
		bar.Add(1)
	}
	bar.Finish()

	if len(records) == 0 {
		color.Yellow("\nNo documents were processed successfully.\n")
		return nil
	}

	color.Blue("\nUpdating knowledge base...\n")
	added, err := manager.IngestRecords(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to update knowledge base: %w", err)
	}
	color.Green("✓ Added %d new document(s) to knowledge base\n", added)

	return nil
}

func chatLoop(ctx context.Context, manager *kb.Manager, generator types.Generator, searchK int) error {
	color.Cyan("\nAsk questions about the ingested documents (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		querySpinner := getSpinner("Searching knowledge base...")
		contexts, err := manager.Retrieve(ctx, query, searchK)
		querySpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error searching knowledge base: %v\n", err)
			continue
		}

		responseSpinner := getSpinner("Generating answer...")
		answer, err := generator.Answer(ctx, query, contexts)
		responseSpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		assistantPrompt("\nAssistant: %s\n", answer)
	}

	return scanner.Err()
}
