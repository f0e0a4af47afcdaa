// Package modsxml checks MODS documents for well-formedness and validates them
// against the schema they reference.
package modsxml

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"

	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// ErrNoSchemaLocation is returned when the root element carries no usable xsi:schemaLocation.
var ErrNoSchemaLocation = errors.New("no schema location found in XML")

// Result is the outcome of validating one file.
type Result struct {
	Path           string
	SchemaLocation string
	Valid          bool
	Errors         []string
}

// Validator validates MODS files, caching each schema it loads.
type Validator struct {
	http     *utils.HTTPClient
	override string

	mu      sync.Mutex
	schemas map[string][]byte
}

// NewValidator creates a validator. A non-empty schemaOverride is used instead of
// each document's own schema location.
func NewValidator(httpClient *utils.HTTPClient, schemaOverride string) *Validator {
	return &Validator{
		http:     httpClient,
		override: schemaOverride,
		schemas:  map[string][]byte{},
	}
}

// CheckWellFormed parses data and reports any syntax error.
func CheckWellFormed(data []byte) error {
	doc, err := libxml2.Parse(data)
	if err != nil {
		return fmt.Errorf("XML is not well-formed: %w", err)
	}
	doc.Free()
	return nil
}

// SchemaLocation returns the schema URL from the root element's xsi:schemaLocation,
// which holds namespace and location pairs. The first pair's location is returned.
func SchemaLocation(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no root element: %w", ErrNoSchemaLocation)
		}
		if err != nil {
			return "", fmt.Errorf("reading root element: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local != "schemaLocation" {
				continue
			}
			if attr.Name.Space != xsiNamespace && attr.Name.Space != "xsi" {
				continue
			}
			fields := strings.Fields(attr.Value)
			if len(fields) < 2 {
				return "", fmt.Errorf("%w: malformed value %q", ErrNoSchemaLocation, attr.Value)
			}
			return fields[1], nil
		}
		return "", ErrNoSchemaLocation
	}
}

// Validate checks the file at path against its schema. Malformed or invalid
// documents give a Result with Valid false; the error is reserved for files or
// schemas that cannot be loaded.
func (v *Validator) Validate(ctx context.Context, path string) (*Result, error) {
	res := &Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := libxml2.Parse(data)
	if err != nil {
		res.Errors = []string{err.Error()}
		return res, nil
	}
	defer doc.Free()

	location := v.override
	if location == "" {
		location, err = SchemaLocation(data)
		if err != nil {
			res.Errors = []string{err.Error()}
			return res, nil
		}
		if !isRemote(location) && !filepath.IsAbs(location) {
			location = filepath.Join(filepath.Dir(path), location)
		}
	}
	res.SchemaLocation = location

	schemaData, err := v.loadSchema(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("loading schema %s: %w", location, err)
	}
	schema, err := xsd.Parse(schemaData)
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", location, err)
	}
	defer schema.Free()

	if err := schema.Validate(doc); err != nil {
		res.Errors = validationMessages(err)
		logger.Debug("%s failed validation with %d errors", path, len(res.Errors))
		return res, nil
	}
	res.Valid = true
	return res, nil
}

func (v *Validator) loadSchema(ctx context.Context, location string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if data, ok := v.schemas[location]; ok {
		return data, nil
	}

	var (
		data []byte
		err  error
	)
	if isRemote(location) {
		logger.Debug("Fetching schema %s", location)
		err = utils.WithRetry(ctx, func() error {
			data, err = v.http.GetBytes(ctx, location)
			return err
		})
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, err
	}
	v.schemas[location] = data
	return data, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// validationMessages unpacks the individual errors libxml2 reports.
func validationMessages(err error) []string {
	var multi interface{ Errors() []error }
	if errors.As(err, &multi) && len(multi.Errors()) > 0 {
		msgs := make([]string, 0, len(multi.Errors()))
		for _, e := range multi.Errors() {
			msgs = append(msgs, strings.TrimSpace(e.Error()))
		}
		return msgs
	}
	return []string{err.Error()}
}
