// Package snapshot reads and writes captured target state: memory regions,
// registers, the run state and the symbols describing the memory.
package snapshot

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
	"github.com/itchyny/gojq"
	"github.com/scvdview/scvd/model"
	"github.com/scvdview/scvd/types"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the newest document format Decode reads and the one Save
// writes. Documents without a format field are read as format 1.
const FormatVersion = 1

// Snapshot is the document layout. JSON documents decode as well.
type Snapshot struct {
	Format    int               `yaml:"format,omitempty"`
	Running   bool              `yaml:"running"`
	Registers map[string]uint64 `yaml:"registers,omitempty"`
	Memory    []Region          `yaml:"memory,omitempty"`
	Types     []Decl            `yaml:"types,omitempty"`
	Symbols   []Decl            `yaml:"symbols,omitempty"`
}

// Region is memory at Address. Its bytes are Bytes (hex, spaces allowed),
// then Words as little-endian 32-bit values, then Text with a NUL, zero
// padded to Size.
type Region struct {
	Address uint64   `yaml:"address"`
	Bytes   string   `yaml:"bytes,omitempty"`
	Words   []uint32 `yaml:"words,omitempty,flow"`
	Text    string   `yaml:"text,omitempty"`
	Size    int      `yaml:"size,omitempty"`
}

// Decl declares a symbol, a member or a named type. Type is a scalar type
// name, "struct", or the name of a declared type. Count makes an array of
// Type, or with Kind "list" bounds a list read element by element. Enum
// names the values of a scalar.
type Decl struct {
	Name    string           `yaml:"name"`
	Type    string           `yaml:"type,omitempty"`
	Kind    string           `yaml:"kind,omitempty"`
	Address uint64           `yaml:"address,omitempty"`
	Offset  *int             `yaml:"offset,omitempty"`
	Count   int              `yaml:"count,omitempty"`
	Next    string           `yaml:"next,omitempty"`
	Limit   int              `yaml:"limit,omitempty"`
	Enum    map[string]int64 `yaml:"enum,omitempty"`
	Members []Decl           `yaml:"members,omitempty"`
}

// FormatError reports a malformed snapshot document.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "snapshot: " + e.Err.Error()
	}
	return fmt.Sprintf("snapshot %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Data returns the bytes of the region.
func (r Region) Data() ([]byte, error) {
	data, err := hex.DecodeString(strings.Join(strings.Fields(r.Bytes), ""))
	if err != nil {
		return nil, fmt.Errorf("region %#x: %w", r.Address, err)
	}
	for _, w := range r.Words {
		data = append(data, types.EncodeUint(uint64(w), 4)...)
	}
	if r.Text != "" {
		data = append(append(data, r.Text...), 0)
	}
	if len(data) < r.Size {
		data = append(data, make([]byte, r.Size-len(data))...)
	}
	return data, nil
}

// Decode parses a snapshot document. A non-empty query is a jq filter whose
// first result is taken as the snapshot.
func Decode(data []byte, query string) (*Snapshot, error) {
	if query != "" {
		selected, err := selectDoc(data, query)
		if err != nil {
			return nil, &FormatError{Err: err}
		}
		data = selected
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &FormatError{Err: err}
	}
	if s.Format > FormatVersion {
		return nil, &FormatError{Err: fmt.Errorf("format %d is newer than %d", s.Format, FormatVersion)}
	}
	return &s, nil
}

func selectDoc(data []byte, query string) ([]byte, error) {
	q, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", query, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	iter := q.Run(doc)
	v, ok := iter.Next()
	if !ok {
		return nil, fmt.Errorf("query %q selected nothing", query)
	}
	if err, isErr := v.(error); isErr {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	return yaml.Marshal(v)
}

func lockPath(path string) string {
	return path + ".lock"
}

// Load reads the snapshot at path under a shared lock.
func Load(path, query string) (*Snapshot, error) {
	lock := flock.New(lockPath(path))
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("acquire snapshot lock: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	s, err := Decode(data, query)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Save writes s to path under an exclusive lock.
func (s *Snapshot) Save(path string) error {
	s.Format = FormatVersion
	out, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	lock := flock.New(lockPath(path))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire snapshot lock: %w", err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Model builds the symbol model the snapshot declares. Types are resolved
// in declaration order, so a type may only use types declared before it.
func (s *Snapshot) Model() (*model.Model, error) {
	m := model.New()
	for _, d := range s.Types {
		t, err := build(m, d)
		if err != nil {
			return nil, &FormatError{Err: fmt.Errorf("type %s: %w", d.Name, err)}
		}
		m.AddType(t)
	}
	for _, d := range s.Symbols {
		sym, err := build(m, d)
		if err != nil {
			return nil, &FormatError{Err: fmt.Errorf("symbol %s: %w", d.Name, err)}
		}
		sym.Address = d.Address
		m.AddSymbol(sym)
	}
	return m, nil
}

// build turns a declaration into a laid out symbol.
func build(m *model.Model, d Decl) (*model.Symbol, error) {
	if d.Name == "" {
		return nil, errors.New("missing name")
	}
	base, err := buildBase(m, d)
	if err != nil {
		return nil, err
	}
	switch {
	case d.Kind == "list":
		if d.Count == 0 && d.Next == "" {
			return nil, errors.New("list needs count or next")
		}
		base.Ident = d.Name + "[]"
		return &model.Symbol{
			Ident: d.Name, Kind: model.ListKind, Elem: base,
			Len: d.Count, Next: d.Next, Limit: d.Limit,
		}, nil
	case d.Kind != "":
		return nil, fmt.Errorf("unknown kind %q", d.Kind)
	case d.Count > 0:
		base.Ident = d.Name + "[]"
		s := &model.Symbol{Ident: d.Name, Kind: model.ArrayKind, Elem: base, Len: d.Count}
		model.Layout(s)
		return s, nil
	}
	return base, nil
}

func buildBase(m *model.Model, d Decl) (*model.Symbol, error) {
	if sc, ok := types.LookupScalar(d.Type); ok {
		s := &model.Symbol{Ident: d.Name, Scalar: sc}
		for name, v := range d.Enum {
			if s.Enum == nil {
				s.Enum = make(map[int64]string, len(d.Enum))
			}
			if prev, dup := s.Enum[v]; dup {
				return nil, fmt.Errorf("enumerators %s and %s share value %d", prev, name, v)
			}
			s.Enum[v] = name
		}
		model.Layout(s)
		return s, nil
	}
	if len(d.Enum) > 0 {
		return nil, fmt.Errorf("enum on non-scalar type %q", d.Type)
	}
	if t, ok := m.Type(d.Type); ok {
		cp := *t
		cp.Ident = d.Name
		return &cp, nil
	}
	if d.Type != "struct" && !(d.Type == "" && len(d.Members) > 0) {
		return nil, fmt.Errorf("unknown type %q", d.Type)
	}

	s := &model.Symbol{Ident: d.Name, Kind: model.StructKind}
	end := 0
	for _, md := range d.Members {
		mem, err := build(m, md)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", md.Name, err)
		}
		if mem.Kind == model.ListKind {
			return nil, fmt.Errorf("member %s: lists must be symbols", md.Name)
		}
		if md.Offset != nil {
			mem.Offset = *md.Offset
		} else {
			mem.Offset = align(end, alignOf(mem))
		}
		end = mem.Offset + mem.Size
		s.Members = append(s.Members, mem)
	}
	model.Layout(s)
	return s, nil
}

// alignOf is the natural C alignment of a symbol.
func alignOf(s *model.Symbol) int {
	switch s.Kind {
	case model.ScalarKind:
		return max(s.Size, 1)
	case model.ArrayKind, model.ListKind:
		return alignOf(s.Elem)
	}
	a := 1
	for _, m := range s.Members {
		a = max(a, alignOf(m))
	}
	return a
}

func align(n, a int) int {
	return (n + a - 1) / a * a
}
