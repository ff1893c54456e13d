// Package detect turns repository metadata, file trees and manifest contents
// into raw technology detections. Every detector is pure except the ones that
// take a FileSource, which only read through it.
package detect

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"profily/internal/techstack"
	"profily/internal/techstack/mapping"
)

// FileSource reads one file of the repository under analysis. ok is false when
// the file is absent, too large or otherwise unreadable without error.
type FileSource func(ctx context.Context, path string) (content string, ok bool, err error)

// Detector runs the detection heuristics against one immutable mapping set.
type Detector struct {
	m   *mapping.Mappings
	log logrus.FieldLogger

	cargo []cargoMatcher
}

type cargoMatcher struct {
	re   *regexp.Regexp
	tech techstack.Technology
}

// New builds a Detector. A nil logger falls back to the logrus standard logger.
func New(m *mapping.Mappings, log logrus.FieldLogger) (*Detector, error) {
	if m == nil {
		return nil, fmt.Errorf("detect: mappings are required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := &Detector{m: m, log: log}
	for _, e := range m.Table(mapping.Cargo).Entries() {
		re, err := regexp.Compile(`(?mi)^\s*` + regexp.QuoteMeta(e.Key) + `\s*=`)
		if err != nil {
			return nil, fmt.Errorf("detect: cargo key %q: %w", e.Key, err)
		}
		d.cargo = append(d.cargo, cargoMatcher{re: re, tech: e.Tech})
	}
	return d, nil
}

// Mappings returns the mapping set the detector was built with.
func (d *Detector) Mappings() *mapping.Mappings { return d.m }

// seenSet dedupes technology names case-insensitively within one detector run.
type seenSet map[string]struct{}

func (s seenSet) add(name string) bool {
	k := strings.ToLower(name)
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}
