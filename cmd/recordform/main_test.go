package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-recordform/pkg/submit"
)

func TestReportSurfacesUploadFailureCause(t *testing.T) {
	log, hook := logrustest.NewNullLogger()

	report(log, submit.Result{
		Success:       true,
		ItemID:        "9",
		ItemName:      "Widget",
		FilesUploaded: 1,
		FileFailures: []submit.FileFailure{
			{ColumnID: "c_file", FileName: "b.png", Cause: "network down"},
		},
	})

	var warn *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warn = entry
		}
	}
	if warn == nil {
		t.Fatal("expected a warn entry for the failed upload")
	}
	if got := warn.Data["cause"]; got != "network down" {
		t.Errorf("cause field = %v, want the failure cause", got)
	}
	if got := warn.Data["file"]; got != "b.png" {
		t.Errorf("file field = %v", got)
	}
}

func TestRendererRegistryResolvesByName(t *testing.T) {
	registry, err := buildRendererRegistry()
	if err != nil {
		t.Fatalf("buildRendererRegistry: %v", err)
	}
	renderer, err := registry.Get("html")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if renderer.Name() != "html" {
		t.Errorf("renderer name = %q", renderer.Name())
	}
	if _, err := registry.Get("preact"); err == nil {
		t.Error("unregistered renderer name should fail")
	}
}

func TestReportListsValidationErrors(t *testing.T) {
	log, hook := logrustest.NewNullLogger()

	report(log, submit.Result{
		ValidationErrors: []submit.ValidationError{
			{ColumnID: "c1", Kind: submit.RequiredFieldMissing, Message: "Status is required"},
			{ColumnID: "c2", Kind: submit.TypeMismatch, Message: "not a number"},
		},
	})

	var errors int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			errors++
		}
	}
	if errors != 2 {
		t.Errorf("error entries = %d, want one per validation failure", errors)
	}
}
