package lang

import (
	"github.com/smacker/go-tree-sitter/cpp"
)

// CPP is the name C++ headers are registered under.
const CPP = "cpp"

func init() {
	Languages[CPP] = &Language{
		Name:       CPP,
		Extensions: []string{".h", ".hh", ".hpp", ".hxx", ".h++", ".inl", ".ipp", ".tpp"},
		lang:       cpp.GetLanguage(),
	}
}
