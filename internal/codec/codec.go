// Package codec maps human-readable category strings to the integer codes the
// classifier was trained on, and class indices back to algorithm names.
//
// A Codec is built once from the encoder artifact and is read-only afterwards,
// so it is safe to share across request goroutines without locking.
package codec

import (
	"errors"
	"fmt"
)

// NumFeatures is the number of input columns the classifier expects.
const NumFeatures = 7

// LabelColumn is the encoder column holding the algorithm class names.
const LabelColumn = "Encryption Algorithm"

// Column pairs a model column name with the request field that feeds it.
type Column struct {
	Name  string `json:"column"`
	Field string `json:"field"`
}

// FeatureColumns lists the input columns in the order the trained model
// consumes them. The order is part of the model and must not change.
var FeatureColumns = [NumFeatures]Column{
	{Name: "File Size", Field: "file_size"},
	{Name: "Data Type", Field: "data_type"},
	{Name: "Required Speed", Field: "required_speed"},
	{Name: "Required Security Level", Field: "security_level"},
	{Name: "Real-Time Requirement", Field: "real_time"},
	{Name: "Connectivity Type", Field: "connectivity"},
	{Name: "Encryption Cost Sensitivity", Field: "cost_sensitivity"},
}

// ErrUnknownAlgorithm is returned by DecodeAlgorithm for a class index the
// label encoder never enumerated.
var ErrUnknownAlgorithm = errors.New("class index outside the trained label set")

// Encoder is the training-time class enumeration of a single column.
// Classes[i] was assigned code i.
type Encoder struct {
	Column  string   `json:"column"  yaml:"column"`
	Classes []string `json:"classes" yaml:"classes"`
}

// Mapping is the immutable category<->code table of one column.
type Mapping struct {
	column  string
	classes []string
	codes   map[string]int
}

// NewMapping builds a Mapping from classes in enumeration order.
func NewMapping(column string, classes []string) (*Mapping, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("column %q: no classes", column)
	}
	m := &Mapping{
		column:  column,
		classes: make([]string, len(classes)),
		codes:   make(map[string]int, len(classes)),
	}
	copy(m.classes, classes)
	for i, c := range classes {
		if _, dup := m.codes[c]; dup {
			return nil, fmt.Errorf("column %q: duplicate class %q", column, c)
		}
		m.codes[c] = i
	}
	return m, nil
}

// Column returns the column name the mapping belongs to.
func (m *Mapping) Column() string { return m.column }

// Len returns the number of known classes.
func (m *Mapping) Len() int { return len(m.classes) }

// Code returns the code for value, or false if value is not a known class.
func (m *Mapping) Code(value string) (int, bool) {
	code, ok := m.codes[value]
	return code, ok
}

// Category returns the class for code, or false if code is out of range.
func (m *Mapping) Category(code int) (string, bool) {
	if code < 0 || code >= len(m.classes) {
		return "", false
	}
	return m.classes[code], true
}

// Classes returns a copy of the classes in code order.
func (m *Mapping) Classes() []string {
	out := make([]string, len(m.classes))
	copy(out, m.classes)
	return out
}

// Codec holds one Mapping per feature column plus the algorithm mapping.
type Codec struct {
	features   map[string]*Mapping
	algorithms *Mapping
}

// New builds a Codec from encoder artifacts. Every feature column and the
// label column must be present exactly once; columns the model does not use
// are ignored.
func New(encoders []Encoder) (*Codec, error) {
	byColumn := make(map[string]*Mapping, len(encoders))
	for _, e := range encoders {
		if _, dup := byColumn[e.Column]; dup {
			return nil, fmt.Errorf("column %q declared twice", e.Column)
		}
		m, err := NewMapping(e.Column, e.Classes)
		if err != nil {
			return nil, err
		}
		byColumn[e.Column] = m
	}

	c := &Codec{features: make(map[string]*Mapping, NumFeatures)}
	for _, col := range FeatureColumns {
		m, ok := byColumn[col.Name]
		if !ok {
			return nil, fmt.Errorf("missing encoder for column %q", col.Name)
		}
		c.features[col.Name] = m
	}
	algos, ok := byColumn[LabelColumn]
	if !ok {
		return nil, fmt.Errorf("missing encoder for column %q", LabelColumn)
	}
	c.algorithms = algos
	return c, nil
}

// Encode looks up value in column's mapping. An unknown column or value
// yields false; deciding what that means is up to the caller.
func (c *Codec) Encode(column, value string) (int, bool) {
	m, ok := c.features[column]
	if !ok {
		return 0, false
	}
	return m.Code(value)
}

// DecodeCategory is the inverse of Encode.
func (c *Codec) DecodeCategory(column string, code int) (string, bool) {
	m, ok := c.features[column]
	if !ok {
		return "", false
	}
	return m.Category(code)
}

// DecodeAlgorithm maps a classifier output index to its algorithm name.
func (c *Codec) DecodeAlgorithm(index int) (string, error) {
	name, ok := c.algorithms.Category(index)
	if !ok {
		return "", fmt.Errorf("%w: %d (known 0..%d)", ErrUnknownAlgorithm, index, c.algorithms.Len()-1)
	}
	return name, nil
}

// Categories returns the known classes of column in code order, or nil for
// an unknown column.
func (c *Codec) Categories(column string) []string {
	m, ok := c.features[column]
	if !ok {
		return nil
	}
	return m.Classes()
}

// Algorithms returns the algorithm names in class-index order.
func (c *Codec) Algorithms() []string {
	return c.algorithms.Classes()
}
