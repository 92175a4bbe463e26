// Command schema-generator writes the JSON Schema reflected from
// config.Config to schema/moonsync.schema.json. Run it from the module root
// (go generate ./schema does).
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/moonsync/config"
)

func main() {
	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	outputDir := "schema"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	outputPath := filepath.Join(outputDir, "moonsync.schema.json")
	if err := os.WriteFile(outputPath, append(schemaBytes, '\n'), 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated schema at %s", outputPath)
}
