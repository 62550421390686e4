//go:build ignore

package main

import (
	"fmt"
	"log"

	"onco-advisor-be/internal/config"
	"onco-advisor-be/pkg/dataset"
	"onco-advisor-be/pkg/embedding"
)

// Manual probe: embeds the first study record from the dataset and checks the
// vector dimensionality matches the record_embeddings column (768).
// Run with: go run scripts/test_embedding.go
func main() {
	cfg := config.Load()
	fmt.Printf("Loaded Config > Embedding Provider: %s\n", cfg.Ai.EmbeddingProvider)
	fmt.Printf("Loaded Config > Dataset: %s\n", cfg.Dataset.CSVPath)

	records, err := dataset.NewLoader(cfg.Dataset.CSVPath).Load()
	if err != nil {
		log.Fatalf("Error loading dataset: %v", err)
	}
	if len(records) == 0 {
		log.Fatal("Dataset is empty")
	}

	text := records[0].DocumentText()
	fmt.Printf("\nEmbedding record 0 (%s):\n%s\n", records[0].DrugName(), text)

	provider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	resp, err := provider.Generate(text, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Fatalf("Error generating embedding: %v", err)
	}

	dims := len(resp.Embedding.Values)
	fmt.Printf("Generated Embedding Dimensions: %d\n", dims)
	if dims > 5 {
		fmt.Printf("First 5 values: %v...\n", resp.Embedding.Values[:5])
	}

	if dims == 768 {
		fmt.Println("Dimensions match the record_embeddings vector column (768).")
	} else {
		fmt.Printf("WARNING: dimensions %d do not match vector(768); pick a different model or alter the column.\n", dims)
	}
}
