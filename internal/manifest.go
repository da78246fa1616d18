package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the run manifest kept at the root of the data directory
const ManifestFile = "_manifest.yaml"

const manifestVersion = "1.0"

// ManifestMetadata stores metadata about the manifest
type ManifestMetadata struct {
	Version   string    `yaml:"version"`
	LastRunID string    `yaml:"last_run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// ManifestCharacter tracks the last known state of one character
type ManifestCharacter struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	File        string    `yaml:"file"`
	LastOutcome string    `yaml:"last_outcome"`
	LastChecked time.Time `yaml:"last_checked"`
	LastWritten time.Time `yaml:"last_written,omitempty"`
	LastLogin   string    `yaml:"last_login,omitempty"`
}

// ManifestAccount tracks one account across runs
type ManifestAccount struct {
	ID             string              `yaml:"id"`
	LastRunID      string              `yaml:"last_run_id"`
	LastFetched    time.Time           `yaml:"last_fetched"`
	SummaryMissing bool                `yaml:"summary_missing,omitempty"`
	Characters     []ManifestCharacter `yaml:"characters"`
}

// Manifest is the YAML index of fetched accounts and characters
type Manifest struct {
	Accounts []ManifestAccount `yaml:"accounts"`
	Metadata ManifestMetadata  `yaml:"metadata"`
}

// Account returns the entry for id, or nil
func (m *Manifest) Account(id string) *ManifestAccount {
	for i := range m.Accounts {
		if m.Accounts[i].ID == id {
			return &m.Accounts[i]
		}
	}
	return nil
}

// ManifestManager reads and updates the run manifest
type ManifestManager struct {
	dataDir string
	logger  *Logger
	now     func() time.Time
}

// NewManifestManager creates a manifest manager for dataDir
func NewManifestManager(dataDir string, logger *Logger) *ManifestManager {
	return &ManifestManager{
		dataDir: dataDir,
		logger:  logger,
		now:     time.Now,
	}
}

// Path returns the path to the manifest file
func (mm *ManifestManager) Path() string {
	return filepath.Join(mm.dataDir, ManifestFile)
}

// Load reads the manifest. A missing file yields os.ErrNotExist.
func (mm *ManifestManager) Load() (*Manifest, error) {
	data, err := os.ReadFile(mm.Path())
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, &ParseError{Source: "manifest", Key: mm.Path(), Err: fmt.Errorf("failed to unmarshal manifest: %w", err)}
	}
	return &manifest, nil
}

// Save writes the manifest atomically
func (mm *ManifestManager) Save(manifest *Manifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := writeFileAtomic(mm.Path(), data); err != nil {
		return &StorageError{Path: mm.Path(), Op: "write", Err: err}
	}
	return nil
}

// RecordAccount merges one account result into the manifest and saves it.
// An unreadable manifest is rebuilt from scratch.
func (mm *ManifestManager) RecordAccount(runID string, result *AccountResult) error {
	now := mm.now().UTC()

	manifest, err := mm.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			mm.logger.Warnf("rebuilding manifest: %v", err)
		}
		manifest = &Manifest{
			Metadata: ManifestMetadata{
				Version:   manifestVersion,
				CreatedAt: now,
			},
		}
	}
	manifest.Metadata.LastRunID = runID
	manifest.Metadata.UpdatedAt = now

	account := manifest.Account(result.AccountID)
	if account == nil {
		manifest.Accounts = append(manifest.Accounts, ManifestAccount{ID: result.AccountID})
		account = &manifest.Accounts[len(manifest.Accounts)-1]
	}
	account.LastRunID = runID
	account.LastFetched = now
	account.SummaryMissing = result.SummaryMissing

	for _, cr := range result.Characters {
		if cr.Ref.ID == "" {
			continue
		}
		entry := findManifestCharacter(account, cr.Ref.ID)
		entry.Name = cr.Ref.Name
		entry.File = mm.relative(cr.File)
		entry.LastOutcome = cr.Outcome
		entry.LastChecked = now
		if cr.Outcome == OutcomeWritten {
			entry.LastWritten = now
		}
		if cr.LastLogin != nil {
			entry.LastLogin = fmt.Sprint(cr.LastLogin)
		}
	}

	return mm.Save(manifest)
}

func findManifestCharacter(account *ManifestAccount, id string) *ManifestCharacter {
	for i := range account.Characters {
		if account.Characters[i].ID == id {
			return &account.Characters[i]
		}
	}
	account.Characters = append(account.Characters, ManifestCharacter{ID: id})
	return &account.Characters[len(account.Characters)-1]
}

func (mm *ManifestManager) relative(path string) string {
	rel, err := filepath.Rel(mm.dataDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
