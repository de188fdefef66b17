package containers

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/iancoleman/strcase"
)

// Container is implemented by every attribute container held in the pipeline state
type Container interface {
	Validate() error
}

// TypeName returns the container type key for c, the snake case name of its Go type
// (e.g. *ThreatIntelligence -> "threat_intelligence")
func TypeName(c Container) string {
	t := reflect.TypeOf(c)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return strcase.ToSnake(t.Name())
}

// TypeNameOf returns the container type key for T
func TypeNameOf[T Container]() string {
	var empty T
	return TypeName(empty)
}

type TextFormat string

const (
	TextFormatPlainText TextFormat = "plaintext"
	TextFormatMarkdown  TextFormat = "markdown"
)

type ReportAttribute struct {
	Name   string
	Type   string
	Values []string
}

// Report is an analysis report produced by a module
type Report struct {
	// name of the module which generated the report
	ModuleName string
	Text       string
	TextFormat TextFormat
	Attributes []ReportAttribute
}

func NewReport(moduleName, text string, format TextFormat) *Report {
	return &Report{
		ModuleName: moduleName,
		Text:       text,
		TextFormat: format,
	}
}

func (r *Report) Validate() error {
	if r.ModuleName == "" {
		return errors.New("report module name is required")
	}
	switch r.TextFormat {
	case TextFormatPlainText, TextFormatMarkdown:
		return nil
	default:
		return fmt.Errorf("report text format must be either '%s' or '%s', got '%s'", TextFormatPlainText, TextFormatMarkdown, r.TextFormat)
	}
}

// ThreatIntelligence holds an indicator stored by an upstream module
type ThreatIntelligence struct {
	// name of the threat
	Name string
	// regular expression relevant to the threat
	Indicator string
	// path to the indicator data (e.g. file)
	Path string
}

func (t *ThreatIntelligence) Validate() error {
	if t.Indicator == "" {
		return errors.New("threat intelligence indicator is required")
	}
	return nil
}

// Disk is a cloud disk produced by an upstream collector module
type Disk struct {
	Name    string
	Project string
	Zone    string
}

func (d *Disk) Validate() error {
	if d.Name == "" {
		return errors.New("disk name is required")
	}
	return nil
}

// File is a generic file produced by a module
type File struct {
	// human-friendly name or short description of the file
	Name        string
	Path        string
	Description string
}

func (f *File) Validate() error {
	if f.Path == "" {
		return errors.New("file path is required")
	}
	return nil
}
