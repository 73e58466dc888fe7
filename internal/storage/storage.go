// Package storage archives generated insight reports so an organization's
// history survives cache expiry. Reports are kept either on the local
// filesystem or in AWS (S3 snapshot plus a DynamoDB history item).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ignite/campaign-intelligence/internal/config"
)

// Kind names the report being archived.
type Kind string

const (
	KindPatterns Kind = "patterns"
	KindForecast Kind = "forecast"
)

// ParseKind accepts "" (all kinds) or a known kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case "", KindPatterns, KindForecast:
		return k, true
	}
	return "", false
}

// Entry describes one archived report.
type Entry struct {
	OrganizationID string    `json:"organization_id" dynamodbav:"OrganizationID"`
	Kind           Kind      `json:"kind" dynamodbav:"Kind"`
	GeneratedAt    time.Time `json:"generated_at" dynamodbav:"GeneratedAt"`
	ObjectKey      string    `json:"object_key" dynamodbav:"ObjectKey"`
}

// envelope is the JSON document written for every report.
type envelope struct {
	Entry
	Report json.RawMessage `json:"report"`
}

// Archive stores reports and lists an organization's history newest first.
type Archive interface {
	Save(ctx context.Context, orgID string, kind Kind, at time.Time, report any) (Entry, error)
	History(ctx context.Context, orgID string, kind Kind, limit int) ([]Entry, error)
	Ping(ctx context.Context) error
}

// ObjectKey is the snapshot location: one object per org, kind and day.
func ObjectKey(orgID string, kind Kind, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s/%s.json", orgID, kind, at.UTC().Format("2006-01-02"))
}

func encode(orgID string, kind Kind, at time.Time, report any) (Entry, []byte, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("marshaling report: %w", err)
	}
	e := Entry{OrganizationID: orgID, Kind: kind, GeneratedAt: at.UTC(), ObjectKey: ObjectKey(orgID, kind, at)}
	data, err := json.MarshalIndent(envelope{Entry: e, Report: raw}, "", "  ")
	if err != nil {
		return Entry{}, nil, fmt.Errorf("marshaling envelope: %w", err)
	}
	return e, data, nil
}

// New builds the archive selected by cfg.Type ("local" or "aws").
func New(ctx context.Context, cfg config.StorageConfig) (Archive, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalArchive(cfg.LocalPath)
	case "aws":
		return NewAWSArchive(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// LocalArchive keeps report envelopes under a base directory using the
// same key layout as S3.
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates basePath if it does not exist.
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

func (a *LocalArchive) Save(_ context.Context, orgID string, kind Kind, at time.Time, report any) (Entry, error) {
	e, data, err := encode(orgID, kind, at, report)
	if err != nil {
		return Entry{}, err
	}
	path := filepath.Join(a.basePath, filepath.FromSlash(e.ObjectKey))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Entry{}, fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Entry{}, fmt.Errorf("writing report: %w", err)
	}
	return e, nil
}

func (a *LocalArchive) History(_ context.Context, orgID string, kind Kind, limit int) ([]Entry, error) {
	pattern := filepath.Join(a.basePath, "reports", orgID, "*", "*.json")
	if kind != "" {
		pattern = filepath.Join(a.basePath, "reports", orgID, string(kind), "*.json")
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading report: %w", err)
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", filepath.Base(p), err)
		}
		out = append(out, env.Entry)
	}
	slices.SortFunc(out, func(x, y Entry) int {
		if c := y.GeneratedAt.Compare(x.GeneratedAt); c != 0 {
			return c
		}
		return strings.Compare(string(x.Kind), string(y.Kind))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *LocalArchive) Ping(context.Context) error {
	info, err := os.Stat(a.basePath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("storage path is not a directory")
	}
	return nil
}
