package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"research-rag/internal/config"
	"research-rag/internal/embedding"
	"research-rag/internal/extractor"
	"research-rag/internal/helper"
	"research-rag/internal/llm"
	"research-rag/internal/models"
	"research-rag/internal/rag"
)

const configFilePath = "./configs/config.yaml"

// ragcli runs the pipelines against a local document or a URL without the
// server, which is handy for trying out prompts and chunking parameters.
func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on the environment")
	}

	configPath := flag.String("config", configFilePath, "Path to the configuration file")
	filePath := flag.String("file", "", "Path to a document file")
	rawURL := flag.String("url", "", "URL of a web page to extract")
	query := flag.String("query", "", "Question to answer about the document")
	numQuestions := flag.Int("questions", models.DefaultNumQuestions, "Number of questions to generate")
	flag.Parse()

	if *filePath == "" && *rawURL == "" {
		log.Fatal().Msg("Provide a document with -file or -url")
	}
	if *filePath != "" && *rawURL != "" {
		log.Fatal().Msg("Provide either -file or -url, not both")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	var extraction *extractor.Extraction
	if *filePath != "" {
		extraction, err = extractor.FromFile(*filePath)
	} else {
		extraction, err = extractor.FromURL(ctx, *rawURL)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to extract document")
	}
	log.Info().Str("title", extraction.Title).Int("chars", len(extraction.Text)).Msg("Extracted document")

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create embedder")
	}

	model, err := llm.Select(llm.Probes(cfg.Providers))
	if err != nil {
		log.Fatal().Err(err).Msg("No language model available")
	}

	pipeline := rag.NewRAG(embedder, model)

	if *query != "" {
		resp, err := pipeline.AnswerQuestion(ctx, models.AnswerQuestionRequest{
			Text:           extraction.Text,
			Question:       *query,
			ChunkSize:      cfg.RAG.ChunkSize,
			ChunkOverlap:   cfg.RAG.ChunkOverlap,
			TopK:           cfg.RAG.TopK,
			IncludeSources: true,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to answer question")
		}
		helper.PrettyPrint(resp)
		return
	}

	resp, err := pipeline.GenerateQuestions(ctx, models.GenerateQuestionsRequest{
		Text:         extraction.Text,
		NumQuestions: *numQuestions,
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate questions")
	}
	helper.PrettyPrint(resp)
}
