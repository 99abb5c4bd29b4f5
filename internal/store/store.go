// Package store implements the file-per-entity record store for clients and
// their projects. One subdirectory per client holds a client.json record plus
// zero or more project files; an in-memory summary index is rebuilt from the
// files after every index-relevant mutation. The directory tree is the only
// source of truth; the index is a disposable derivation of it.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/invoicer/internal/config"
	"github.com/diewo77/invoicer/internal/models"
)

// ErrNotFound is returned by write paths that require an existing record.
// Read paths report absence through their boolean result instead.
var ErrNotFound = errors.New("not found")

const (
	clientFileName    = "client.json"
	projectFilePrefix = "project_"
)

// ClientStore owns client and project persistence under a single root
// directory. It is not safe for concurrent use; the design assumes one
// interactive process owns the store.
type ClientStore struct {
	root        string
	hourlyRate  float64
	hoursPerDay float64
	log         *logrus.Logger

	index map[string]models.ClientSummary

	// retired holds ids of clients deleted during this process lifetime.
	// They are never handed out again, so a deleted client's id cannot
	// silently collide with a newly generated one.
	retired map[string]bool
}

// New opens (creating if needed) the store rooted at cfg.ClientsDir and
// builds the initial index from the files on disk.
func New(cfg config.Settings, log *logrus.Logger) (*ClientStore, error) {
	if log == nil {
		log = logrus.New()
	}
	s := &ClientStore{
		root:        cfg.ClientsDir,
		hourlyRate:  cfg.HourlyRate,
		hoursPerDay: cfg.HoursPerDay,
		log:         log,
		retired:     make(map[string]bool),
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create clients dir: %w", err)
	}
	s.rebuildIndex()
	return s, nil
}

func (s *ClientStore) clientDir(id string) string  { return filepath.Join(s.root, id) }
func (s *ClientStore) clientFile(id string) string { return filepath.Join(s.root, id, clientFileName) }

func (s *ClientStore) projectFile(clientID, local string) string {
	return filepath.Join(s.root, clientID, projectFilePrefix+local+".json")
}

// Slugify lowercases a name, replaces every run of non-alphanumeric
// characters with a single underscore and strips leading/trailing
// underscores. Used for both client and project identifiers.
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// uniqueSuffix appends _1, _2, ... to base until taken reports it free.
func uniqueSuffix(base string, taken func(string) bool) string {
	id := base
	for n := 1; taken(id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

// AddClient validates and persists a new client, returning its generated id.
// Name and email are required; the client code defaults to the first three
// letters of the name, uppercased.
func (s *ClientStore) AddClient(c models.Client) (string, error) {
	c.Normalize()
	if c.Name == "" {
		return "", fmt.Errorf("%w: missing required field: name", models.ErrValidation)
	}
	if c.Email == "" {
		return "", fmt.Errorf("%w: missing required field: email", models.ErrValidation)
	}
	if c.ClientCode == "" {
		c.ClientCode = models.DefaultClientCode(c.Name)
	}

	base := Slugify(c.Name)
	if base == "" {
		return "", fmt.Errorf("%w: name %q has no letters or digits to build an id from", models.ErrValidation, c.Name)
	}
	c.ID = uniqueSuffix(base, func(id string) bool {
		if s.retired[id] {
			return true
		}
		_, err := os.Stat(s.clientDir(id))
		return err == nil
	})
	c.CreatedDate = time.Now()
	c.LastInvoiceDate = nil
	c.TotalInvoices = 0
	c.TotalAmount = 0

	if err := c.Validate(); err != nil {
		return "", err
	}
	if err := s.writeClient(&c); err != nil {
		return "", err
	}
	s.rebuildIndex()
	return c.ID, nil
}

func (s *ClientStore) writeClient(c *models.Client) error {
	if err := os.MkdirAll(s.clientDir(c.ID), 0o755); err != nil {
		return fmt.Errorf("create client dir: %w", err)
	}
	return writeJSON(s.clientFile(c.ID), c)
}

// GetClient loads a client record. Absence, including a record that exists
// but fails to parse or validate, is reported as ok=false, never an error.
func (s *ClientStore) GetClient(id string) (*models.Client, bool) {
	c, err := s.readClient(id)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.WithFields(logrus.Fields{"module": "store", "client_id": id}).
				Warnf("skipping unreadable client record: %v", err)
		}
		return nil, false
	}
	return c, true
}

// GetClientStrict is the error-returning variant of GetClient for callers
// that need to distinguish absence explicitly.
func (s *ClientStore) GetClientStrict(id string) (*models.Client, error) {
	c, ok := s.GetClient(id)
	if !ok {
		return nil, fmt.Errorf("client %q: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *ClientStore) readClient(id string) (*models.Client, error) {
	data, err := os.ReadFile(s.clientFile(id))
	if err != nil {
		return nil, err
	}
	var c models.Client
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse client record: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err == nil {
		models.MigrateLegacyClient(raw, &c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListClients returns all client summaries sorted by name,
// case-insensitively.
func (s *ClientStore) ListClients() []models.ClientSummary {
	out := make([]models.ClientSummary, 0, len(s.index))
	for _, sum := range s.index {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// SearchClients filters the listing by a case-insensitive substring match
// against name and email. An empty query returns the full listing.
func (s *ClientStore) SearchClients(query string) []models.ClientSummary {
	all := s.ListClients()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}
	matched := all[:0]
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.Email), query) {
			matched = append(matched, c)
		}
	}
	return matched
}

// mutableClientFields are the keys UpdateClient will apply. id and
// created_date are immutable and silently skipped; anything else is ignored.
var mutableClientFields = map[string]func(*models.Client, any) bool{
	"name":        func(c *models.Client, v any) bool { return assignString(&c.Name, v) },
	"email":       func(c *models.Client, v any) bool { return assignString(&c.Email, v) },
	"client_code": func(c *models.Client, v any) bool { return assignString(&c.ClientCode, v) },
	"address":     func(c *models.Client, v any) bool { return assignString(&c.Address, v) },
	"phone":       func(c *models.Client, v any) bool { return assignString(&c.Phone, v) },
	"vat_number":  func(c *models.Client, v any) bool { return assignString(&c.VATNumber, v) },
	"notes":       func(c *models.Client, v any) bool { return assignString(&c.Notes, v) },
}

func assignString(dst *string, v any) bool {
	str, ok := v.(string)
	if ok {
		*dst = str
	}
	return ok
}

// indexedFields are the update keys that require an index rebuild.
var indexedFields = map[string]bool{"name": true, "email": true, "client_code": true}

// UpdateClient merges the given fields into an existing record, re-validates
// the result and writes it back. An invalid merge is rejected whole: nothing
// is partially applied.
func (s *ClientStore) UpdateClient(id string, updates map[string]any) error {
	c, err := s.GetClientStrict(id)
	if err != nil {
		return err
	}
	reindex := false
	for key, value := range updates {
		apply, ok := mutableClientFields[key]
		if !ok {
			continue
		}
		if apply(c, value) && indexedFields[key] {
			reindex = true
		}
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.writeClient(c); err != nil {
		return err
	}
	if reindex {
		s.rebuildIndex()
	}
	return nil
}

// DeleteClient removes the client's entire subtree, cascading to all of its
// projects. Returns false if there was nothing to delete. The id is retired
// for the rest of the process lifetime.
func (s *ClientStore) DeleteClient(id string) bool {
	dir := s.clientDir(id)
	if _, err := os.Stat(dir); err != nil {
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		s.log.WithFields(logrus.Fields{"module": "store", "client_id": id}).
			Errorf("delete client subtree: %v", err)
		return false
	}
	s.retired[id] = true
	s.rebuildIndex()
	return true
}

// RecordInvoice bumps the client's invoice counters: one more invoice, last
// invoice date now, total amount increased by daysWorked at the currently
// configured rates. Silently does nothing if the client is missing.
func (s *ClientStore) RecordInvoice(id string, daysWorked int) {
	c, ok := s.GetClient(id)
	if !ok {
		return
	}
	now := time.Now()
	c.TotalInvoices++
	c.LastInvoiceDate = &now
	c.TotalAmount += float64(daysWorked) * s.hoursPerDay * s.hourlyRate
	if err := s.writeClient(c); err != nil {
		s.log.WithFields(logrus.Fields{"module": "store", "client_id": id}).
			Errorf("record invoice: %v", err)
		return
	}
	s.rebuildIndex()
}

// AddProject creates a project under an existing client. The project id is
// the client id plus the slugged project name, with a numeric suffix on
// collision scoped to that client's projects.
func (s *ClientStore) AddProject(clientID, name string) (string, error) {
	if _, ok := s.GetClient(clientID); !ok {
		return "", fmt.Errorf("client %q: %w", clientID, ErrNotFound)
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: missing required field: name", models.ErrValidation)
	}
	base := Slugify(name)
	if base == "" {
		return "", fmt.Errorf("%w: name %q has no letters or digits to build an id from", models.ErrValidation, name)
	}

	local := uniqueSuffix(base, func(l string) bool {
		_, err := os.Stat(s.projectFile(clientID, l))
		return err == nil
	})
	p := models.Project{
		ID:          clientID + "_" + local,
		Name:        strings.TrimSpace(name),
		ClientID:    clientID,
		CreatedDate: time.Now(),
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	if err := writeJSON(s.projectFile(clientID, local), &p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// GetProject resolves a composite project id. The fast path splits on the
// first underscore and probes the expected file; because client ids usually
// contain underscores themselves, the full scan over every client subtree is
// the fallback that handles the general case.
func (s *ClientStore) GetProject(projectID string) (*models.Project, bool) {
	p, _, ok := s.resolveProject(projectID)
	return p, ok
}

func (s *ClientStore) resolveProject(projectID string) (*models.Project, string, bool) {
	if i := strings.Index(projectID, "_"); i > 0 {
		path := s.projectFile(projectID[:i], projectID[i+1:])
		if p, err := readProject(path); err == nil && p.ID == projectID {
			return p, path, true
		}
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, "", false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, path := range s.projectPaths(e.Name()) {
			p, err := readProject(path)
			if err != nil {
				s.log.WithFields(logrus.Fields{"module": "store", "file": path}).
					Warnf("skipping unreadable project record: %v", err)
				continue
			}
			if p.ID == projectID {
				return p, path, true
			}
		}
	}
	return nil, "", false
}

func (s *ClientStore) projectPaths(clientID string) []string {
	matches, err := filepath.Glob(filepath.Join(s.clientDir(clientID), projectFilePrefix+"*.json"))
	if err != nil {
		return nil
	}
	return matches
}

// ListProjects returns a client's projects sorted by creation date, newest
// first. A missing client yields an empty list, not an error.
func (s *ClientStore) ListProjects(clientID string) []models.Project {
	var out []models.Project
	for _, path := range s.projectPaths(clientID) {
		p, err := readProject(path)
		if err != nil {
			s.log.WithFields(logrus.Fields{"module": "store", "file": path}).
				Warnf("skipping unreadable project record: %v", err)
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedDate.After(out[j].CreatedDate)
	})
	return out
}

// DeleteProject removes a single project file, leaving siblings untouched.
func (s *ClientStore) DeleteProject(projectID string) bool {
	_, path, ok := s.resolveProject(projectID)
	if !ok {
		return false
	}
	if err := os.Remove(path); err != nil {
		s.log.WithFields(logrus.Fields{"module": "store", "project_id": projectID}).
			Errorf("delete project: %v", err)
		return false
	}
	return true
}

// rebuildIndex derives the summary index from the files on disk. It is a
// pure function of the directory tree: corrupt or invalid records are logged
// and skipped, never fatal.
func (s *ClientStore) rebuildIndex() {
	index := make(map[string]models.ClientSummary)
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.log.WithField("module", "store").Errorf("walk clients dir: %v", err)
		s.index = index
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		c, err := s.readClient(id)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				s.log.WithFields(logrus.Fields{"module": "store", "client_id": id}).
					Warnf("index rebuild: skipping client: %v", err)
			}
			continue
		}
		sum := c.Summary()
		if err := sum.Validate(); err != nil {
			s.log.WithFields(logrus.Fields{"module": "store", "client_id": id}).
				Warnf("index rebuild: skipping summary: %v", err)
			continue
		}
		index[id] = sum
	}
	s.index = index
}

func readProject(path string) (*models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project record: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
