package analyze

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/archloom/archloom/internal/model"
)

// RustAnalyzer extracts struct/trait/impl declarations and their
// functions, grounded in codenerd's rust_parser.go walk.
type RustAnalyzer struct{}

func (a *RustAnalyzer) Language() string { return "rust" }

func (a *RustAnalyzer) Analyze(filePath string, content []byte, repoRoot string) (components []model.Component, edges []model.Edge) {
	defer func() {
		if recover() != nil {
			components, edges = nil, nil
		}
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil
	}
	defer tree.Close()

	rel := relPath(filePath, repoRoot)
	getText := func(n *sitter.Node) string { return n.Content(content) }

	var walk func(n *sitter.Node, enclosingType string)
	walk = func(n *sitter.Node, enclosingType string) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "struct_item":
				name := fieldText(child, "name", getText)
				if name == "" {
					continue
				}
				id := relativeID(rel, name)
				components = append(components, model.Component{
					ID: id, Name: name, Kind: model.KindStruct,
					FilePath: filePath, RelativePath: rel,
					SourceCode: getText(child),
					StartLine:  int(child.StartPoint().Row) + 1,
					EndLine:    int(child.EndPoint().Row) + 1,
				})

			case "trait_item":
				name := fieldText(child, "name", getText)
				if name == "" {
					continue
				}
				id := relativeID(rel, name)
				components = append(components, model.Component{
					ID: id, Name: name, Kind: model.KindInterface,
					FilePath: filePath, RelativePath: rel,
					SourceCode: getText(child),
					StartLine:  int(child.StartPoint().Row) + 1,
					EndLine:    int(child.EndPoint().Row) + 1,
				})
				if body := child.ChildByFieldName("body"); body != nil {
					walk(body, name)
				}

			case "impl_item":
				typeName := fieldText(child, "type", getText)
				if trait := child.ChildByFieldName("trait"); trait != nil {
					edges = append(edges, model.Edge{
						CallerID: relativeID(rel, typeName), CalleeID: getText(trait),
						Line: int(trait.StartPoint().Row) + 1,
					})
				}
				if body := child.ChildByFieldName("body"); body != nil {
					walk(body, typeName)
				}

			case "function_item":
				name := fieldText(child, "name", getText)
				if name == "" {
					continue
				}
				kind := model.KindFunction
				qualified := name
				if enclosingType != "" {
					kind = model.KindMethod
					qualified = fmt.Sprintf("%s.%s", enclosingType, name)
				}
				id := relativeID(rel, qualified)
				components = append(components, model.Component{
					ID: id, Name: qualified, Kind: kind,
					FilePath: filePath, RelativePath: rel,
					SourceCode: getText(child),
					StartLine:  int(child.StartPoint().Row) + 1,
					EndLine:    int(child.EndPoint().Row) + 1,
				})
				collectRustCalls(child, getText, id, &edges)

			default:
				walk(child, enclosingType)
			}
		}
	}

	walk(tree.RootNode(), "")
	return components, edges
}

func fieldText(n *sitter.Node, field string, getText func(*sitter.Node) string) string {
	fn := n.ChildByFieldName(field)
	if fn == nil {
		return ""
	}
	return getText(fn)
}

func collectRustCalls(n *sitter.Node, getText func(*sitter.Node) string, callerID string, edges *[]model.Edge) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				var callee string
				switch fn.Type() {
				case "identifier":
					callee = getText(fn)
				case "field_expression":
					if field := fn.ChildByFieldName("field"); field != nil {
						callee = getText(field)
					}
				case "scoped_identifier":
					if name := fn.ChildByFieldName("name"); name != nil {
						callee = getText(name)
					}
				}
				if callee != "" {
					*edges = append(*edges, model.Edge{
						CallerID: callerID, CalleeID: callee,
						Line: int(n.StartPoint().Row) + 1,
					})
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
}
