package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"finsheets/internal/ingest"
)

// Plans holds the named download and upload plans of a plans file.
type Plans struct {
	Downloads []DownloadPlan `yaml:"downloads"`
	Uploads   []UploadPlan   `yaml:"uploads"`
}

// DownloadPlan ingests one folder, or a list of spreadsheet titles, into a
// single local file.
type DownloadPlan struct {
	Name     string   `yaml:"name"`
	Mode     string   `yaml:"mode"`
	FolderID string   `yaml:"folder_id,omitempty"`
	Sheets   []string `yaml:"sheets,omitempty"`
	Output   string   `yaml:"output"`
}

// UploadPlan pushes local files into sheets of one spreadsheet.
type UploadPlan struct {
	Name            string       `yaml:"name"`
	SpreadsheetID   string       `yaml:"spreadsheet_id"`
	CreateIfMissing *bool        `yaml:"create_if_missing,omitempty"`
	Overwrite       *bool        `yaml:"overwrite,omitempty"`
	Items           []UploadItem `yaml:"items"`
}

// UploadItem maps a local file to a target sheet.
type UploadItem struct {
	File  string `yaml:"csv"`
	Sheet string `yaml:"sheet"`
}

// LoadPlans reads a plans file from disk.
func LoadPlans(path string) (Plans, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plans{}, err
	}
	var p Plans
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plans{}, fmt.Errorf("parsing plans file %s: %w", path, err)
	}
	return p, nil
}

// Download returns the named download plan.
func (p Plans) Download(name string) (DownloadPlan, error) {
	for _, d := range p.Downloads {
		if d.Name == name {
			return d, nil
		}
	}
	return DownloadPlan{}, fmt.Errorf("unknown download plan %q", name)
}

// Upload returns the named upload plan.
func (p Plans) Upload(name string) (UploadPlan, error) {
	for _, u := range p.Uploads {
		if u.Name == name {
			return u, nil
		}
	}
	return UploadPlan{}, fmt.Errorf("unknown upload plan %q", name)
}

// CreateMissing defaults to true.
func (u UploadPlan) CreateMissing() bool {
	return u.CreateIfMissing == nil || *u.CreateIfMissing
}

// ShouldOverwrite defaults to true.
func (u UploadPlan) ShouldOverwrite() bool {
	return u.Overwrite == nil || *u.Overwrite
}

func (p Plans) problems() []string {
	var out []string
	seen := map[string]bool{}
	for i, d := range p.Downloads {
		label := fmt.Sprintf("download plan #%d (%s)", i+1, d.Name)
		switch {
		case d.Name == "":
			out = append(out, label+": name is required")
		case seen["d:"+d.Name]:
			out = append(out, label+": duplicate name")
		}
		seen["d:"+d.Name] = true
		if _, err := ingest.ParseMode(d.Mode); err != nil {
			out = append(out, fmt.Sprintf("%s: %v", label, err))
		}
		if (d.FolderID == "") == (len(d.Sheets) == 0) {
			out = append(out, label+": exactly one of folder_id or sheets is required")
		}
		if ext := strings.ToLower(filepath.Ext(d.Output)); ext != ".csv" && ext != ".xlsx" {
			out = append(out, fmt.Sprintf("%s: output '%s' must end in .csv or .xlsx", label, d.Output))
		}
	}
	for i, u := range p.Uploads {
		label := fmt.Sprintf("upload plan #%d (%s)", i+1, u.Name)
		switch {
		case u.Name == "":
			out = append(out, label+": name is required")
		case seen["u:"+u.Name]:
			out = append(out, label+": duplicate name")
		}
		seen["u:"+u.Name] = true
		if u.SpreadsheetID == "" {
			out = append(out, label+": spreadsheet_id is required")
		}
		for j, it := range u.Items {
			if it.File == "" || it.Sheet == "" {
				out = append(out, fmt.Sprintf("%s: item #%d needs both csv and sheet", label, j+1))
			}
		}
	}
	return out
}
