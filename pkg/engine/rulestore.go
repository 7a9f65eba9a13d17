package engine

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/user/policyrisk/pkg/adk"
)

// RuleStore holds the active rule set and swaps it when the rule directory changes
type RuleStore struct {
	mu  sync.RWMutex
	set *RuleSet
	dir string

	// OnReload, when set, is called after every reload attempt
	OnReload func(err error)
}

// NewRuleStore loads the built-in rules plus any overrides in dir
func NewRuleStore(dir string) (*RuleStore, error) {
	rs, err := LoadRuleDir(dir)
	if err != nil {
		return nil, err
	}
	return &RuleStore{set: rs, dir: dir}, nil
}

// Current returns the active rule set
func (s *RuleStore) Current() *RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

// Reload re-reads the rule directory. On error the previous rule set stays active.
func (s *RuleStore) Reload() error {
	rs, err := LoadRuleDir(s.dir)
	if err == nil {
		s.mu.Lock()
		s.set = rs
		s.mu.Unlock()
	}
	if s.OnReload != nil {
		s.OnReload(err)
	}
	return err
}

// Watch reloads the rules whenever a YAML file in the directory changes, until ctx ends
func (s *RuleStore) Watch(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isYAML(filepath.Base(event.Name)) {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Reload(); err != nil {
					adk.Warnf("rule reload after %s failed, keeping previous rules: %v", event, err)
					continue
				}
				adk.Infof("Reloaded rules from %s (%d rules)", s.dir, len(s.Current().Rules))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				adk.Warnf("rule watcher error: %v", err)
			}
		}
	}()
	return nil
}
