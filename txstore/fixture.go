// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package txstore

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotbitHQ/did-contracts-sub003/entity"
	"github.com/dotbitHQ/did-contracts-sub003/host"
	"gopkg.in/yaml.v3"
)

// HexBytes is a byte string written as 0x-prefixed hex in YAML
type HexBytes []byte

func (h HexBytes) MarshalYAML() (any, error) {
	return "0x" + hex.EncodeToString(h), nil
}

func (h *HexBytes) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid hex: %w", node.Line, err)
	}
	if len(b) == 0 {
		*h = nil
		return nil
	}
	*h = b
	return nil
}

type FixtureScript struct {
	CodeHash HexBytes `yaml:"codeHash"`
	Args     HexBytes `yaml:"args"`
	HashType uint8    `yaml:"hashType"`
}

type FixtureCell struct {
	Type     *FixtureScript `yaml:"type,omitempty"`
	Lock     FixtureScript  `yaml:"lock"`
	Data     HexBytes       `yaml:"data,omitempty"`
	Capacity uint64         `yaml:"capacity"`
}

// Fixture is the YAML form of a transaction
type Fixture struct {
	Name         string        `yaml:"name"`
	Witnesses    []HexBytes    `yaml:"witnesses"`
	Inputs       []FixtureCell `yaml:"inputs,omitempty"`
	Outputs      []FixtureCell `yaml:"outputs,omitempty"`
	CellDeps     []FixtureCell `yaml:"cellDeps,omitempty"`
	HeaderDeps   []HexBytes    `yaml:"headerDeps,omitempty"`
	GroupInputs  []int         `yaml:"groupInputs,omitempty"`
	GroupOutputs []int         `yaml:"groupOutputs,omitempty"`
}

// ReadFixture parses a YAML fixture
func ReadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// LoadFixture reads a YAML fixture from a file
func LoadFixture(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	f, err := ReadFixture(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(
			strings.TrimSuffix(filepath.Base(path), ".yaml"),
			".yml",
		)
	}
	return f, nil
}

// WriteFixture writes f as YAML
func WriteFixture(w io.Writer, f *Fixture) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

func (s FixtureScript) builder() (entity.ScriptBuilder, error) {
	var ret entity.ScriptBuilder
	if len(s.CodeHash) != len(ret.CodeHash) {
		return ret, fmt.Errorf(
			"code hash must be %d bytes, got %d",
			len(ret.CodeHash),
			len(s.CodeHash),
		)
	}
	copy(ret.CodeHash[:], s.CodeHash)
	ret.HashType = s.HashType
	ret.Args = s.Args
	return ret, nil
}

func fixtureScript(s entity.ScriptBuilder) FixtureScript {
	return FixtureScript{
		CodeHash: s.CodeHash[:],
		HashType: s.HashType,
		Args:     s.Args,
	}
}

func fixtureCells(name string, cells []FixtureCell) ([]host.Cell, error) {
	ret := make([]host.Cell, 0, len(cells))
	for i, c := range cells {
		lock, err := c.Lock.builder()
		if err != nil {
			return nil, fmt.Errorf("%s[%d].lock: %w", name, i, err)
		}
		cell := host.Cell{
			Capacity: c.Capacity,
			Lock:     lock,
			Data:     c.Data,
		}
		if c.Type != nil {
			typeScript, err := c.Type.builder()
			if err != nil {
				return nil, fmt.Errorf("%s[%d].type: %w", name, i, err)
			}
			cell.Type = &typeScript
		}
		ret = append(ret, cell)
	}
	return ret, nil
}

// Transaction converts the fixture into an in-memory host
func (f *Fixture) Transaction() (*host.Transaction, error) {
	var err error
	tx := &host.Transaction{
		GroupInputs:  f.GroupInputs,
		GroupOutputs: f.GroupOutputs,
	}
	for _, w := range f.Witnesses {
		tx.Witnesses = append(tx.Witnesses, []byte(w))
	}
	if tx.Inputs, err = fixtureCells("inputs", f.Inputs); err != nil {
		return nil, err
	}
	if tx.Outputs, err = fixtureCells("outputs", f.Outputs); err != nil {
		return nil, err
	}
	if tx.CellDeps, err = fixtureCells("cellDeps", f.CellDeps); err != nil {
		return nil, err
	}
	for i, h := range f.HeaderDeps {
		var tmp [32]byte
		if len(h) != len(tmp) {
			return nil, fmt.Errorf(
				"headerDeps[%d]: hash must be 32 bytes, got %d",
				i,
				len(h),
			)
		}
		copy(tmp[:], h)
		tx.HeaderDeps = append(tx.HeaderDeps, tmp)
	}
	return tx, nil
}

// NewFixture builds the YAML form of an in-memory transaction
func NewFixture(name string, tx *host.Transaction) *Fixture {
	f := &Fixture{
		Name:         name,
		GroupInputs:  tx.GroupInputs,
		GroupOutputs: tx.GroupOutputs,
	}
	for _, w := range tx.Witnesses {
		f.Witnesses = append(f.Witnesses, HexBytes(w))
	}
	convert := func(cells []host.Cell) []FixtureCell {
		var ret []FixtureCell
		for _, c := range cells {
			tmp := FixtureCell{
				Capacity: c.Capacity,
				Lock:     fixtureScript(c.Lock),
				Data:     c.Data,
			}
			if c.Type != nil {
				typeScript := fixtureScript(*c.Type)
				tmp.Type = &typeScript
			}
			ret = append(ret, tmp)
		}
		return ret
	}
	f.Inputs = convert(tx.Inputs)
	f.Outputs = convert(tx.Outputs)
	f.CellDeps = convert(tx.CellDeps)
	for _, h := range tx.HeaderDeps {
		f.HeaderDeps = append(f.HeaderDeps, HexBytes(h[:]))
	}
	return f
}
