package steward

import (
	"encoding/json"
	"log/slog"
	"os"
)

const maxRecords = 10

// CycleRecord captures what happened in a single steward cycle.
type CycleRecord struct {
	Tick        uint64 `json:"tick"`
	Action      string `json:"action"`
	Settlement  string `json:"settlement,omitempty"`
	Building    string `json:"building,omitempty"`
	Success     bool   `json:"success"`
	CrisisLevel string `json:"crisis_level"`
	Rationale   string `json:"rationale,omitempty"`
}

// CycleMemory keeps the most recent cycle records, optionally on disk.
type CycleMemory struct {
	Records []CycleRecord `json:"records"`

	path string
}

// LoadMemory reads the memory file. A missing or corrupt file gives empty
// memory; an empty path keeps memory in-process only.
func LoadMemory(path string) *CycleMemory {
	mem := &CycleMemory{path: path}
	if path == "" {
		return mem
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mem
	}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("steward memory corrupted, starting fresh", "error", err)
		return &CycleMemory{path: path}
	}
	return mem
}

// Save writes the memory to disk.
func (m *CycleMemory) Save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal steward memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		slog.Error("failed to write steward memory", "error", err)
	}
}

// Record adds a cycle record, trimming to maxRecords.
func (m *CycleMemory) Record(r CycleRecord) {
	m.Records = append(m.Records, r)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// RecentlyFailed reports whether the same build was rejected in a
// remembered cycle.
func (m *CycleMemory) RecentlyFailed(settlement, building string) bool {
	for _, r := range m.Records {
		if r.Action == "build" && !r.Success && r.Settlement == settlement && r.Building == building {
			return true
		}
	}
	return false
}
