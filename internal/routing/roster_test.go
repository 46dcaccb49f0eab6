package routing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const rosterYAML = `
agents:
  - id: ana
    name: Ana Lima
    email: ana@example.com
    active: true
    operations: [buy, rent]
    coverage_areas: [manaira, tambau]
    micro_location_tags: [beira_mar]
    price_min: 300000
    price_max: 1500000
    specialties: [alto_padrao]
    daily_capacity: 5
    tier: senior
  - id: bruno
    name: Bruno Costa
    active: true
    operations: [rent]
    daily_capacity: 8
    tier: junior
`

func TestFileRosterLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(rosterYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	agents, err := NewFileRoster(path).Roster(context.Background())
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("agents = %d, want 2", len(agents))
	}

	ana := agents[0]
	if ana.ID != "ana" || ana.Tier != TierSenior || !ana.Supports(OperationBuy) {
		t.Errorf("unexpected first agent: %+v", ana)
	}
	if !ana.HasSpecialty(SpecialtyHighEnd) {
		t.Error("specialty tag not parsed")
	}
	if ana.PriceMax != 1500000 {
		t.Errorf("price max = %d, want 1500000", ana.PriceMax)
	}

	bruno := agents[1]
	if !bruno.Generalist() {
		t.Error("agent without coverage should be a generalist")
	}
	if bruno.Supports(OperationBuy) {
		t.Error("rent-only agent reports buy support")
	}
}

func TestFileRosterRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte("agents:\n  - name: Sem ID\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileRoster(path).Roster(context.Background()); err == nil {
		t.Fatal("expected error for agent without id")
	}
}

func TestFileRosterMissingFile(t *testing.T) {
	if _, err := NewFileRoster("/nonexistent/roster.yaml").Roster(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
