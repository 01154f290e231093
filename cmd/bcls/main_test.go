package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bcls/bcls/pkg/compute"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"prd", "^store-lb"})
	if err != nil {
		t.Fatalf("parseArgs() failed: %v", err)
	}
	if opts.habitat != "prd" {
		t.Errorf("habitat = %q, want %q", opts.habitat, "prd")
	}
	if opts.pattern != "^store-lb" {
		t.Errorf("pattern = %q, want %q", opts.pattern, "^store-lb")
	}
	if opts.authMode != "gcloud" {
		t.Errorf("authMode = %q, want default %q", opts.authMode, "gcloud")
	}
}

func TestParseArgs_FlagsAfterHabitat(t *testing.T) {
	opts, err := parseArgs([]string{"int", "--long", "store"})
	if err != nil {
		t.Fatalf("parseArgs() failed: %v", err)
	}
	if !opts.long {
		t.Error("long = false, want true")
	}
	if opts.habitat != "int" || opts.pattern != "store" {
		t.Errorf("habitat/pattern = %q/%q, want int/store", opts.habitat, opts.pattern)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no habitat", []string{}, "habitat is required"},
		{"no pattern", []string{"prd"}, "pattern is required"},
		{"long and ip conflict", []string{"prd", "-l", "-i", "store"}, "mutually exclusive"},
		{"bad auth mode", []string{"prd", "--auth", "oidc", "store"}, "unknown auth mode"},
		{"trailing argument", []string{"prd", "store", "extra"}, "unexpected argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestParseArgs_AllWithoutPattern(t *testing.T) {
	opts, err := parseArgs([]string{"prd", "--all"})
	if err != nil {
		t.Fatalf("parseArgs() failed: %v", err)
	}
	if !opts.all || opts.pattern != "" {
		t.Errorf("all/pattern = %v/%q, want true/empty", opts.all, opts.pattern)
	}
}

func TestParseArgs_ZonesWithoutPattern(t *testing.T) {
	opts, err := parseArgs([]string{"stg", "--zones"})
	if err != nil {
		t.Fatalf("parseArgs() failed: %v", err)
	}
	if !opts.zones {
		t.Error("zones = false, want true")
	}
}

func sampleInstances() []compute.Instance {
	return []compute.Instance{
		{
			Name: "store-lb-001", IP: "10.20.0.5",
			Zone: "us-central1-a", Region: "us-central1",
			MachineType: "n2-standard-8", CPUPlatform: "Intel Cascade Lake",
			Status: "RUNNING", Cell: "cell-03",
		},
		{
			Name: "store-lb-002", IP: "10.20.0.6",
			Zone: "us-central1-b", Region: "us-central1",
			MachineType: "n2-standard-8", CPUPlatform: "Intel Cascade Lake",
			Status: "RUNNING", Cell: "cell-04",
		},
	}
}

func TestWriteTable_Short(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, sampleInstances(), false); err != nil {
		t.Fatalf("writeTable() failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want header + 2 rows:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "NAME") || strings.Contains(lines[0], "ZONE") {
		t.Errorf("Short header = %q, want NAME/IP only", lines[0])
	}
	if !strings.Contains(lines[1], "store-lb-001") || !strings.Contains(lines[1], "10.20.0.5") {
		t.Errorf("Row = %q, want name and IP", lines[1])
	}
}

func TestWriteTable_Long(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, sampleInstances(), true); err != nil {
		t.Fatalf("writeTable() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ZONE", "MACHINE TYPE", "CPU PLATFORM", "CELL", "us-central1-a", "n2-standard-8", "cell-03"} {
		if !strings.Contains(out, want) {
			t.Errorf("Long output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, nil, false); err != nil {
		t.Fatalf("writeTable() failed: %v", err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "NAME  IP" && !strings.HasPrefix(got, "NAME") {
		t.Errorf("Empty table = %q, want header only", got)
	}
}

func TestWriteIPs(t *testing.T) {
	var buf bytes.Buffer
	if err := writeIPs(&buf, sampleInstances()); err != nil {
		t.Fatalf("writeIPs() failed: %v", err)
	}
	if buf.String() != "10.20.0.5\n10.20.0.6\n" {
		t.Errorf("writeIPs() = %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, sampleInstances()); err != nil {
		t.Fatalf("writeJSON() failed: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Got %d objects, want 2", len(decoded))
	}
	if decoded[0]["name"] != "store-lb-001" || decoded[0]["ip"] != "10.20.0.5" {
		t.Errorf("decoded[0] = %v", decoded[0])
	}
}

func TestWriteZones(t *testing.T) {
	var buf bytes.Buffer
	if err := writeZones(&buf, []string{"us-central1-a", "us-central1-b"}); err != nil {
		t.Fatalf("writeZones() failed: %v", err)
	}
	if buf.String() != "us-central1-a\nus-central1-b\n" {
		t.Errorf("writeZones() = %q", buf.String())
	}
}
