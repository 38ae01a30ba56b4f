// Package documents supplies plain-text resume and job content to the core.
// Converting PDF/DOCX into text happens outside this program; only already
// extracted text files are read here.
package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mpresser/tailorbot/internal/matching"
)

var textExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
}

// Resume is one plain-text resume loaded from disk.
type Resume struct {
	// ID is the file name without extension.
	ID   string
	Text string
}

// Resumes is an ordered collection of loaded resumes. The order is the
// sorted file-name order, which keeps score ties deterministic.
type Resumes struct {
	Items []*Resume
}

// LoadResumes reads every .txt and .md file in the directory, sorted by file
// name. Files that contain only whitespace are skipped.
func LoadResumes(dir string) (*Resumes, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading resumes directory %q: %w", dir, err)
	}

	resumes := &Resumes{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if _, ok := textExtensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading resume %q: %w", name, err)
		}

		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}

		resumes.Items = append(resumes.Items, &Resume{
			ID:   strings.TrimSuffix(name, filepath.Ext(name)),
			Text: text,
		})
	}

	sort.Slice(resumes.Items, func(i, j int) bool {
		return resumes.Items[i].ID < resumes.Items[j].ID
	})

	return resumes, nil
}

// LoadJob reads the job description from a single text file.
func LoadJob(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading job description %q: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("job description %q is empty", path)
	}

	return text, nil
}

func (r *Resumes) Len() int {
	return len(r.Items)
}

func (r *Resumes) IDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, resume := range r.Items {
		ids = append(ids, resume.ID)
	}
	return ids
}

func (r *Resumes) FindByID(id string) *Resume {
	for _, resume := range r.Items {
		if resume.ID == id {
			return resume
		}
	}
	return nil
}

// Candidates adapts the collection for the ranking operation, preserving
// load order.
func (r *Resumes) Candidates() []matching.Candidate {
	candidates := make([]matching.Candidate, 0, len(r.Items))
	for _, resume := range r.Items {
		candidates = append(candidates, matching.Candidate{ID: resume.ID, Text: resume.Text})
	}
	return candidates
}
