package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines one tracked CSE run: the IR to build, the handles to
// track, the pass options, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialects lists CUE files with extra dialect traits.
	// Paths are relative to the scenario file location.
	Dialects []string `yaml:"dialects,omitempty"`

	// Options configures the pass.
	Options Options `yaml:"options,omitempty"`

	// IR is the body of the top-level module.
	IR []OpDecl `yaml:"ir"`

	// Handles maps each key to the labels of the operations it tracks.
	Handles map[string][]string `yaml:"handles,omitempty"`

	// Expect is checked against the run. Nil checks nothing.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Options mirrors the pass options a scenario may set.
type Options struct {
	EraseTriviallyDead bool `yaml:"erase_trivially_dead,omitempty"`

	// Exclude lists operation kinds the pass must leave alone.
	Exclude []string `yaml:"exclude,omitempty"`
}

// OpDecl declares one operation.
//
//	ir:
//	  - label: a1
//	    op: arith.addi
//	    operands: [x, x]
//	    results: ["a1:i32"]
type OpDecl struct {
	// Label names the operation for handles and expectations. Defaults to
	// the name of its first result.
	Label string `yaml:"label,omitempty"`

	// Op is the fully qualified kind, e.g. "arith.addi".
	Op string `yaml:"op"`

	// Operands name values defined earlier, or block arguments of the
	// enclosing regions.
	Operands []string `yaml:"operands,omitempty"`

	// Results declare "name:type" pairs.
	Results []string `yaml:"results,omitempty"`

	// Attrs become the operation's attribute dictionary.
	Attrs map[string]any `yaml:"attrs,omitempty"`

	// Successors name blocks of the enclosing region.
	Successors []string `yaml:"successors,omitempty"`

	Regions []RegionDecl `yaml:"regions,omitempty"`
}

// RegionDecl declares a region as an ordered list of blocks.
type RegionDecl struct {
	Blocks []BlockDecl `yaml:"blocks"`
}

// BlockDecl declares one block.
type BlockDecl struct {
	// Label names the block for successor lists.
	Label string `yaml:"label,omitempty"`

	// Args declare "name:type" block arguments.
	Args []string `yaml:"args,omitempty"`

	Ops []OpDecl `yaml:"ops"`
}

// Expect is the expected outcome of a scenario. Unset fields are not
// checked.
type Expect struct {
	Merged     *int `yaml:"merged,omitempty"`
	ErasedDead *int `yaml:"erased_dead,omitempty"`

	// Precondition is the engine error code the run must fail with.
	Precondition string `yaml:"precondition,omitempty"`

	// Tracking lists the tracking error codes, in order.
	Tracking []string `yaml:"tracking,omitempty"`

	// Handles is the exact expected mapping, by label.
	Handles map[string][]string `yaml:"handles,omitempty"`

	// Erased and Live list labels that must be erased or still present.
	Erased []string `yaml:"erased,omitempty"`
	Live   []string `yaml:"live,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Dialect paths are resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	for i, d := range s.Dialects {
		if !filepath.IsAbs(d) {
			s.Dialects[i] = filepath.Join(base, d)
		}
	}
	return s, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks required fields and the shape of declarations.
// Name resolution happens when the IR is built.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.IR) == 0 {
		return fmt.Errorf("ir list is required and must be non-empty")
	}
	if err := validateOps(s.IR, "ir"); err != nil {
		return err
	}
	for key, labels := range s.Handles {
		if key == "" {
			return fmt.Errorf("handles: empty key")
		}
		if len(labels) == 0 {
			return fmt.Errorf("handles[%s]: at least one label is required", key)
		}
	}
	return nil
}

func validateOps(ops []OpDecl, path string) error {
	for i, op := range ops {
		p := fmt.Sprintf("%s[%d]", path, i)
		if op.Op == "" {
			return fmt.Errorf("%s: op is required", p)
		}
		if !strings.Contains(op.Op, ".") {
			return fmt.Errorf("%s: op %q must be dialect-qualified", p, op.Op)
		}
		for j, r := range op.Results {
			if _, _, err := splitTyped(r); err != nil {
				return fmt.Errorf("%s.results[%d]: %w", p, j, err)
			}
		}
		for j, r := range op.Regions {
			for k, b := range r.Blocks {
				bp := fmt.Sprintf("%s.regions[%d].blocks[%d]", p, j, k)
				for l, a := range b.Args {
					if _, _, err := splitTyped(a); err != nil {
						return fmt.Errorf("%s.args[%d]: %w", bp, l, err)
					}
				}
				if err := validateOps(b.Ops, bp+".ops"); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// splitTyped parses "name:type".
func splitTyped(s string) (string, string, error) {
	name, typ, ok := strings.Cut(s, ":")
	name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
	if !ok || name == "" || typ == "" {
		return "", "", fmt.Errorf("want \"name:type\", got %q", s)
	}
	return name, typ, nil
}
