package analyze

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/archloom/archloom/internal/model"
)

// PythonAnalyzer extracts classes, methods, and module-level functions
// from a Python source file, grounded in codenerd's PythonCodeParser
// (walkNode's class_definition/function_definition switch).
type PythonAnalyzer struct{}

func (a *PythonAnalyzer) Language() string { return "python" }

func (a *PythonAnalyzer) Analyze(filePath string, content []byte, repoRoot string) (components []model.Component, edges []model.Edge) {
	defer func() {
		if recover() != nil {
			components, edges = nil, nil
		}
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil
	}
	defer tree.Close()

	rel := relPath(filePath, repoRoot)
	getText := func(n *sitter.Node) string { return n.Content(content) }

	var walkBody func(n *sitter.Node, enclosingClass string)
	walkBody = func(n *sitter.Node, enclosingClass string) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "class_definition":
				nameNode := child.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				id := relativeID(rel, name)
				components = append(components, model.Component{
					ID: id, Name: name, Kind: model.KindClass,
					FilePath: filePath, RelativePath: rel,
					SourceCode: getText(child),
					StartLine:  int(child.StartPoint().Row) + 1,
					EndLine:    int(child.EndPoint().Row) + 1,
				})
				if super := child.ChildByFieldName("superclasses"); super != nil {
					for j := 0; j < int(super.NamedChildCount()); j++ {
						base := super.NamedChild(j)
						edges = append(edges, model.Edge{
							CallerID: id, CalleeID: getText(base),
							Line: int(base.StartPoint().Row) + 1,
						})
					}
				}
				if body := child.ChildByFieldName("body"); body != nil {
					walkBody(body, name)
				}

			case "function_definition":
				nameNode := child.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				kind := model.KindFunction
				qualified := name
				if enclosingClass != "" {
					kind = model.KindMethod
					qualified = fmt.Sprintf("%s.%s", enclosingClass, name)
				}
				id := relativeID(rel, qualified)
				components = append(components, model.Component{
					ID: id, Name: qualified, Kind: kind,
					FilePath: filePath, RelativePath: rel,
					SourceCode: getText(child),
					StartLine:  int(child.StartPoint().Row) + 1,
					EndLine:    int(child.EndPoint().Row) + 1,
				})
				collectPyCalls(child, getText, id, &edges)

			default:
				walkBody(child, enclosingClass)
			}
		}
	}

	walkBody(tree.RootNode(), "")
	return components, edges
}

func collectPyCalls(n *sitter.Node, getText func(*sitter.Node) string, callerID string, edges *[]model.Edge) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				var callee string
				switch fn.Type() {
				case "identifier":
					callee = getText(fn)
				case "attribute":
					if attr := fn.ChildByFieldName("attribute"); attr != nil {
						callee = getText(attr)
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
