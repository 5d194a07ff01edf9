package analyze

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/archloom/archloom/internal/model"
)

// TypeScriptAnalyzer and JavaScriptAnalyzer share a walk: both grammars
// expose class_declaration/method_definition/function_declaration nodes
// with the same field names, so one implementation parameterized by
// sitter.Language covers both, per spec §4.1.
type TypeScriptAnalyzer struct{}
type JavaScriptAnalyzer struct{}

func (a *TypeScriptAnalyzer) Language() string { return "typescript" }
func (a *JavaScriptAnalyzer) Language() string  { return "javascript" }

func (a *TypeScriptAnalyzer) Analyze(filePath string, content []byte, repoRoot string) ([]model.Component, []model.Edge) {
	return analyzeECMAScript(typescript.GetLanguage(), filePath, content, repoRoot)
}

func (a *JavaScriptAnalyzer) Analyze(filePath string, content []byte, repoRoot string) ([]model.Component, []model.Edge) {
	return analyzeECMAScript(javascript.GetLanguage(), filePath, content, repoRoot)
}

func analyzeECMAScript(lang *sitter.Language, filePath string, content []byte, repoRoot string) (components []model.Component, edges []model.Edge) {
	defer func() {
		if recover() != nil {
			components, edges = nil, nil
		}
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil
	}
	defer tree.Close()

	rel := relPath(filePath, repoRoot)
	getText := func(n *sitter.Node) string { return n.Content(content) }

	var walk func(n *sitter.Node, enclosingClass string)
	walk = func(n *sitter.Node, enclosingClass string) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "class_declaration":
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
				if heritage := child.ChildByFieldName("superclass"); heritage != nil {
					edges = append(edges, model.Edge{
						CallerID: id, CalleeID: getText(heritage),
						Line: int(heritage.StartPoint().Row) + 1,
					})
				}
				if body := child.ChildByFieldName("body"); body != nil {
					walk(body, name)
				}

			case "method_definition":
				nameNode := child.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				qualified := name
				if enclosingClass != "" {
					qualified = fmt.Sprintf("%s.%s", enclosingClass, name)
				}
				id := relativeID(rel, qualified)
				components = append(components, model.Component{
					ID: id, Name: qualified, Kind: model.KindMethod,
					FilePath: filePath, RelativePath: rel,
					SourceCode: getText(child),
					StartLine:  int(child.StartPoint().Row) + 1,
					EndLine:    int(child.EndPoint().Row) + 1,
				})
				collectJSCalls(child, getText, id, &edges)

			case "function_declaration":
				nameNode := child.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				id := relativeID(rel, name)
				components = append(components, model.Component{
					ID: id, Name: name, Kind: model.KindFunction,
					FilePath: filePath, RelativePath: rel,
					SourceCode: getText(child),
					StartLine:  int(child.StartPoint().Row) + 1,
					EndLine:    int(child.EndPoint().Row) + 1,
				})
				collectJSCalls(child, getText, id, &edges)

			case "interface_declaration":
				nameNode := child.ChildByFieldName("name")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				id := relativeID(rel, name)
				components = append(components, model.Component{
					ID: id, Name: name, Kind: model.KindInterface,
					FilePath: filePath, RelativePath: rel,
					SourceCode: getText(child),
					StartLine:  int(child.StartPoint().Row) + 1,
					EndLine:    int(child.EndPoint().Row) + 1,
				})

			default:
				walk(child, enclosingClass)
			}
		}
	}

	walk(tree.RootNode(), "")
	return components, edges
}

func collectJSCalls(n *sitter.Node, getText func(*sitter.Node) string, callerID string, edges *[]model.Edge) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				var callee string
				switch fn.Type() {
				case "identifier":
					callee = getText(fn)
				case "member_expression":
					if prop := fn.ChildByFieldName("property"); prop != nil {
						callee = getText(prop)
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
