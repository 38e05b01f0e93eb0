package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Mask replaces every redacted value.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks element properties whose
// keys match any of the patterns before a snapshot is saved.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, project string, snapshot domain.Snapshot) error {
	// Clone so the caller's live tree is never masked.
	masked := make(domain.Snapshot, len(snapshot))
	for id, el := range snapshot {
		c := el.Clone()
		maskMap(c.State.Properties, m.patterns)
		masked[id] = c
	}
	return m.next.Save(ctx, project, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, project string) (domain.Snapshot, error) {
	return m.next.Load(ctx, project)
}

func (m *piiMiddleware) Delete(ctx context.Context, project string) error {
	return m.next.Delete(ctx, project)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		masked := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				masked = true
				break
			}
		}
		if sub, ok := v.(map[string]any); ok && !masked {
			maskMap(sub, patterns)
		}
	}
}
