// Command recordform drives a dynamic record form from the terminal: it
// resolves the layout for a collection, prompts for each field, and submits
// the result. It can also export the resolved schema as OpenAPI or render it
// as HTML.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordform/internal/boardapi"
	"github.com/goliatone/go-recordform/pkg/board"
	"github.com/goliatone/go-recordform/pkg/codec"
	"github.com/goliatone/go-recordform/pkg/export"
	"github.com/goliatone/go-recordform/pkg/layout"
	"github.com/goliatone/go-recordform/pkg/render"
	"github.com/goliatone/go-recordform/pkg/submit"
)

func main() {
	configPath := flag.String("config", "recordform.yaml", "path to the YAML configuration")
	collection := flag.String("collection", "", "record collection id (overrides config)")
	itemID := flag.String("item", "", "item id to update instead of creating")
	exportPath := flag.String("export-openapi", "", "write the resolved schema as OpenAPI JSON and exit")
	renderPath := flag.String("render-html", "", "write the rendered HTML form and exit")
	rendererName := flag.String("renderer", "html", "renderer to use with -render-html")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *collection != "" {
		cfg.Collection = *collection
	}
	if err := cfg.validate(); err != nil {
		log.Fatal(err)
	}

	client := boardapi.New(board.NewClientOptions(
		board.WithEndpoint(cfg.Endpoint),
		board.WithToken(cfg.Token),
		board.WithPageLimit(cfg.PageLimit),
		board.WithLogger(log),
	))

	ctx := context.Background()
	if err := run(ctx, log, client, cfg, *itemID, *exportPath, *renderPath, *rendererName); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, log *logrus.Logger, client *boardapi.Client, cfg Config, itemID, exportPath, renderPath, rendererName string) error {
	source, err := layout.NewSource(client, cfg.MetadataCollection, layout.WithLogger(log))
	if err != nil {
		return err
	}
	docs, err := source.Documents(ctx, cfg.Collection)
	if err != nil {
		return fmt.Errorf("load layout documents: %w", err)
	}
	columns, err := client.Columns(ctx, cfg.Collection)
	if err != nil {
		return fmt.Errorf("load columns: %w", err)
	}

	sections := layout.Resolve(docs, columns)
	for _, section := range sections {
		if section.Error != "" {
			log.WithFields(logrus.Fields{
				"doc":   section.SourceDoc,
				"class": section.Error,
			}).Warn("layout section failed to resolve")
			continue
		}
		if !section.FullyValid {
			log.WithField("section", section.Definition.ID).Warn("section has invalid or duplicate fields; it will not be prompted")
		}
	}
	if len(layout.FullyValidSections(sections)) == 0 {
		return fmt.Errorf("no usable sections resolved for collection %s", cfg.Collection)
	}

	prefill, prefillName, err := loadPrefill(ctx, client, columns, itemID)
	if err != nil {
		return err
	}

	if exportPath != "" {
		return writeOpenAPI(ctx, sections, columns, cfg.Collection, exportPath, log)
	}
	if renderPath != "" {
		return writeForm(ctx, sections, columns, prefill, renderPath, rendererName, log)
	}

	values, err := promptForm(ctx, log, client, sections, columns, prefill, prefillName)
	if err != nil {
		return err
	}

	mode := submit.Create
	if itemID != "" {
		mode = submit.Update
	}
	orchestrator := submit.New(
		submit.WithColumnSource(client),
		submit.WithWriter(client),
		submit.WithFileTransport(client),
		submit.WithLogger(log),
	)
	result, err := orchestrator.Submit(ctx, submit.Request{
		Mode:         mode,
		CollectionID: cfg.Collection,
		TargetItemID: itemID,
		Values:       values,
		Schema:       sections,
	})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	report(log, result)
	if !result.Success {
		os.Exit(1)
	}
	return nil
}

// loadPrefill hydrates the record under edit into form values; create mode
// returns an empty map.
func loadPrefill(ctx context.Context, client *boardapi.Client, columns []board.ColumnDescriptor, itemID string) (map[string]codec.FormValue, string, error) {
	if itemID == "" {
		return map[string]codec.FormValue{}, "", nil
	}
	item, err := client.GetRecord(ctx, itemID)
	if err != nil {
		return nil, "", fmt.Errorf("load item %s: %w", itemID, err)
	}
	return codec.DecodeItem(item, columns), item.Name, nil
}

func writeOpenAPI(ctx context.Context, sections []layout.ValidatedSection, columns []board.ColumnDescriptor, collection, path string, log *logrus.Logger) error {
	doc, err := export.Document(ctx, sections, columns, export.Options{
		Title: "Record Form: " + collection,
	})
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode openapi document: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.WithField("path", path).Info("openapi document written")
	return nil
}

func writeForm(ctx context.Context, sections []layout.ValidatedSection, columns []board.ColumnDescriptor, prefill map[string]codec.FormValue, path, rendererName string, log *logrus.Logger) error {
	registry, err := buildRendererRegistry()
	if err != nil {
		return err
	}
	renderer, err := registry.Get(rendererName)
	if err != nil {
		return fmt.Errorf("unknown renderer %q (available: %v): %w", rendererName, registry.List(), err)
	}

	form := render.BuildForm("Record Form", sections, columns, render.Options{Values: prefill})
	output, err := renderer.Render(ctx, form, render.Options{})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, output, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.WithFields(logrus.Fields{
		"path":     path,
		"renderer": renderer.Name(),
	}).Info("form written")
	return nil
}

func buildRendererRegistry() (*render.Registry, error) {
	registry := render.NewRegistry()
	html, err := render.NewHTML()
	if err != nil {
		return nil, err
	}
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	return registry, nil
}

func report(log *logrus.Logger, result submit.Result) {
	if len(result.ValidationErrors) > 0 {
		for _, verr := range result.ValidationErrors {
			log.WithFields(logrus.Fields{
				"column": verr.ColumnID,
				"kind":   verr.Kind,
			}).Error(verr.Message)
		}
		return
	}
	if !result.Success {
		log.Error("submission failed")
		return
	}
	log.WithFields(logrus.Fields{
		"id":   result.ItemID,
		"name": result.ItemName,
	}).Info("record saved")
	if result.FilesUploaded > 0 {
		log.WithField("count", result.FilesUploaded).Info("files uploaded")
	}
	for _, failure := range result.FileFailures {
		log.WithFields(logrus.Fields{
			"column": failure.ColumnID,
			"file":   failure.FileName,
			"cause":  failure.Cause,
		}).Warn("file upload failed")
	}
}
