package loader

import "gopkg.in/yaml.v3"

// File is the decoded form of a program file.
type File struct {
	// Architecture names an architecture in the catalog, e.g. "x86-64".
	Architecture string `yaml:"architecture"`

	// Symbols name function entry addresses.
	Symbols []Symbol `yaml:"symbols,omitempty"`

	// Functions lists the program's functions. Every block belongs to
	// exactly one function.
	Functions []Function `yaml:"functions"`
}

// Symbol names the function entered at Address.
type Symbol struct {
	Address uint64 `yaml:"address"`
	Name    string `yaml:"name"`
}

// Function is one function definition.
type Function struct {
	Name string `yaml:"name"`

	// Entry defaults to the first block's address.
	Entry *uint64 `yaml:"entry,omitempty"`

	Blocks []Block `yaml:"blocks"`
}

// Block is one basic block. Statements are decoded lazily so that
// operands can be parsed with their position.
type Block struct {
	Address    uint64      `yaml:"address"`
	Statements []yaml.Node `yaml:"statements"`
}
