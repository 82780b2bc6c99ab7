package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines an operator scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Store is the data directory state before the run.
	Store StoreSetup `yaml:"store"`

	// Backups lists backup file names present before the run.
	Backups []string `yaml:"backups,omitempty"`

	// Run names the lifecycle operation. Default: resolve.
	Run string `yaml:"run,omitempty"`

	// Answers are fed to the prompter in order. "^C" is an interrupt.
	Answers []string `yaml:"answers,omitempty"`

	// Expect is the expected outcome of the operation.
	Expect Expect `yaml:"expect"`

	// Assertions validate the files and transcript after the run.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Date pins the clock (YYYY-MM-DD). Default: 2026-10-19.
	Date string `yaml:"date,omitempty"`

	// Golden compares the transcript with testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`
}

// StoreSetup describes the store seeded before the run.
type StoreSetup struct {
	State  string `yaml:"state"`
	Secret string `yaml:"secret,omitempty"`
	Users  int    `yaml:"users,omitempty"`
}

// Expect is the expected result of the operation.
type Expect struct {
	// Outcome is credential, ok, quit or error.
	Outcome string `yaml:"outcome"`

	// Kind is the error kind when Outcome is error.
	Kind string `yaml:"kind,omitempty"`

	// Secret is the credential Resolve must return when Outcome is credential.
	Secret string `yaml:"secret,omitempty"`
}

// Assertion validates the state after the run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// State is the expected store state (store_state).
	State string `yaml:"state,omitempty"`

	// Secret opens the store (store_opens).
	Secret string `yaml:"secret,omitempty"`

	// Users is the expected users row count (store_opens).
	Users *int `yaml:"users,omitempty"`

	// Base restricts backup_count to one base name.
	Base string `yaml:"base,omitempty"`

	// Count is the expected number of backups (backup_count).
	Count *int `yaml:"count,omitempty"`

	// Text must appear in the transcript (output_contains).
	Text string `yaml:"text,omitempty"`
}

// Operations a scenario can run.
const (
	RunResolve   = "resolve"
	RunRotateKey = "rotate_key"
	RunDevBypass = "dev_bypass"
	RunBackupNow = "backup_now"
)

// Outcomes a scenario can expect.
const (
	OutcomeCredential = "credential"
	OutcomeOK         = "ok"
	OutcomeQuit       = "quit"
	OutcomeError      = "error"
)

// Assertion types.
const (
	AssertStoreState      = "store_state"
	AssertStoreOpens      = "store_opens"
	AssertStoreUnchanged  = "store_unchanged"
	AssertBackupCount     = "backup_count"
	AssertOutputContains  = "output_contains"
	AssertAnswersConsumed = "answers_consumed"
)

// InterruptAnswer is the answer text that stands for an interrupt.
const InterruptAnswer = "^C"

const dateLayout = "2006-01-02"

var defaultDate = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Run == "" {
		scenario.Run = RunResolve
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// clock returns the time the scenario's clock is fixed to.
func (s *Scenario) clock() time.Time {
	if s.Date == "" {
		return defaultDate
	}
	t, err := time.Parse(dateLayout, s.Date)
	if err != nil {
		return defaultDate
	}
	return t.Add(9*time.Hour + 30*time.Minute)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Store.State {
	case "absent":
		if s.Store.Users != 0 || s.Store.Secret != "" {
			return fmt.Errorf("store: an absent store takes no secret or users")
		}
	case "unencrypted":
		if s.Store.Secret != "" {
			return fmt.Errorf("store: an unencrypted store takes no secret")
		}
	case "encrypted":
		if s.Store.Secret == "" {
			return fmt.Errorf("store: an encrypted store needs a secret")
		}
	default:
		return fmt.Errorf("store.state must be absent, unencrypted or encrypted, got %q", s.Store.State)
	}
	if s.Store.Users < 0 {
		return fmt.Errorf("store.users must not be negative")
	}

	for i, name := range s.Backups {
		if name == "" || strings.ContainsRune(name, os.PathSeparator) {
			return fmt.Errorf("backups[%d]: must be a plain file name", i)
		}
	}

	switch s.Run {
	case RunResolve, RunRotateKey, RunDevBypass, RunBackupNow:
	default:
		return fmt.Errorf("unknown run %q", s.Run)
	}

	switch s.Expect.Outcome {
	case OutcomeCredential:
		if s.Run != RunResolve {
			return fmt.Errorf("expect: outcome credential only applies to resolve")
		}
	case OutcomeOK, OutcomeQuit:
	case OutcomeError:
		if s.Expect.Kind == "" {
			return fmt.Errorf("expect: outcome error needs a kind")
		}
	default:
		return fmt.Errorf("expect.outcome must be credential, ok, quit or error, got %q", s.Expect.Outcome)
	}

	if s.Date != "" {
		if _, err := time.Parse(dateLayout, s.Date); err != nil {
			return fmt.Errorf("date: %w", err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertStoreState:
		switch a.State {
		case "absent", "unencrypted", "encrypted":
		default:
			return fmt.Errorf("assertion[%d]: store_state needs state absent, unencrypted or encrypted", index)
		}
	case AssertStoreOpens:
		if a.Users == nil {
			return fmt.Errorf("assertion[%d]: store_opens needs users", index)
		}
	case AssertBackupCount:
		if a.Count == nil {
			return fmt.Errorf("assertion[%d]: backup_count needs count", index)
		}
	case AssertOutputContains:
		if a.Text == "" {
			return fmt.Errorf("assertion[%d]: output_contains needs text", index)
		}
	case AssertStoreUnchanged, AssertAnswersConsumed:
	case "":
		return fmt.Errorf("assertion[%d]: type is required", index)
	default:
		return fmt.Errorf("assertion[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
