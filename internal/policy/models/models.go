// Package models defines the versioned governance policy: the YAML document
// operators author (quorum rules per operation kind, renewal thresholds,
// batch limits) and the version records the store keeps. Exactly one
// version is active at a time; consumers read rules from the active
// version at operation time.
package models

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	dErrors "laurel/pkg/domain-errors"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// such as "72h" or "30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// QuorumRule is one operation kind's approval requirement: how many of
// which signers must sign, and how long a proposal stays open.
type QuorumRule struct {
	Threshold      int      `yaml:"threshold"`
	Signers        []string `yaml:"signers"`
	ProposalWindow Duration `yaml:"proposal_window"`
}

func (r QuorumRule) validate(kind string) error {
	if r.Threshold < 1 {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("multisig rule %q: threshold must be at least 1", kind))
	}
	if r.Threshold > len(r.Signers) {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("multisig rule %q: threshold exceeds the signer set size", kind))
	}
	if time.Duration(r.ProposalWindow) <= 0 {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("multisig rule %q: proposal window must be positive", kind))
	}
	seen := make(map[string]struct{}, len(r.Signers))
	for _, signer := range r.Signers {
		parsed, err := uuid.Parse(signer)
		if err != nil || parsed == uuid.Nil {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("multisig rule %q: signer %q is not a valid user ID", kind, signer))
		}
		if _, dup := seen[signer]; dup {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("multisig rule %q: signer set contains duplicates", kind))
		}
		seen[signer] = struct{}{}
	}
	return nil
}

// RenewalRule carries the renewal thresholds: extensions above the large
// threshold route through the approval workflow, extensions above the max
// are rejected outright. Zero disables the respective check.
type RenewalRule struct {
	LargeExtensionThreshold Duration `yaml:"large_extension_threshold"`
	MaxExtension            Duration `yaml:"max_extension"`
}

func (r RenewalRule) validate() error {
	threshold := time.Duration(r.LargeExtensionThreshold)
	max := time.Duration(r.MaxExtension)
	if threshold < 0 {
		return dErrors.New(dErrors.CodeValidation, "renewal: large extension threshold cannot be negative")
	}
	if max < 0 {
		return dErrors.New(dErrors.CodeValidation, "renewal: max extension cannot be negative")
	}
	if max > 0 && threshold > max {
		return dErrors.New(dErrors.CodeValidation,
			"renewal: large extension threshold exceeds the max extension")
	}
	return nil
}

// Limits bounds batch and graph sizes. Zero keeps the server default.
type Limits struct {
	MaxMintBatch      int `yaml:"max_mint_batch"`
	MaxBulkBatch      int `yaml:"max_bulk_batch"`
	MaxGraphNodes     int `yaml:"max_graph_nodes"`
	MaxTraversalDepth int `yaml:"max_traversal_depth"`
}

func (l Limits) validate() error {
	if l.MaxMintBatch < 0 || l.MaxBulkBatch < 0 || l.MaxGraphNodes < 0 || l.MaxTraversalDepth < 0 {
		return dErrors.New(dErrors.CodeValidation, "limits cannot be negative")
	}
	return nil
}

// Document is the governance policy as operators author it.
type Document struct {
	MultiSig map[string]QuorumRule `yaml:"multisig"`
	Renewal  RenewalRule           `yaml:"renewal"`
	Limits   Limits                `yaml:"limits"`
}

func (d *Document) Validate() error {
	for kind, rule := range d.MultiSig {
		if kind == "" {
			return dErrors.New(dErrors.CodeValidation, "multisig rule has an empty operation kind")
		}
		if err := rule.validate(kind); err != nil {
			return err
		}
	}
	if err := d.Renewal.validate(); err != nil {
		return err
	}
	return d.Limits.validate()
}

func (d *Document) clone() Document {
	out := Document{Renewal: d.Renewal, Limits: d.Limits}
	if d.MultiSig != nil {
		out.MultiSig = make(map[string]QuorumRule, len(d.MultiSig))
		for kind, rule := range d.MultiSig {
			cloned := rule
			cloned.Signers = append([]string(nil), rule.Signers...)
			out.MultiSig[kind] = cloned
		}
	}
	return out
}

// ParseDocument decodes and validates a YAML policy document. Unknown
// fields are rejected so an operator typo fails the load instead of
// silently configuring nothing.
func ParseDocument(source []byte) (*Document, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(source))
	decoder.KnownFields(true)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dErrors.New(dErrors.CodeValidation, "policy document is empty")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "parse policy document")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Version is one loaded policy document. Numbers are assigned
// sequentially at load; ActivatedAt records when the version last became
// active and survives deactivation so rollback can find its way back.
type Version struct {
	Number      int
	Document    Document
	Source      []byte
	Checksum    string
	CreatedAt   time.Time
	ActivatedAt *time.Time
	Active      bool
}

// NewVersion builds a version record around an already-parsed document.
func NewVersion(number int, doc *Document, source []byte, now time.Time) (*Version, error) {
	if number < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "policy version number must be positive")
	}
	if doc == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "policy document is required")
	}
	sum := sha256.Sum256(source)
	return &Version{
		Number:    number,
		Document:  doc.clone(),
		Source:    append([]byte(nil), source...),
		Checksum:  hex.EncodeToString(sum[:]),
		CreatedAt: now,
	}, nil
}

func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	out := *v
	out.Document = v.Document.clone()
	out.Source = append([]byte(nil), v.Source...)
	if v.ActivatedAt != nil {
		activatedAt := *v.ActivatedAt
		out.ActivatedAt = &activatedAt
	}
	return &out
}
