package analyze

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/archloom/archloom/internal/model"
)

// GoAnalyzer extracts top-level functions, receiver-qualified methods,
// and type declarations (struct/interface) from a Go source file.
type GoAnalyzer struct{}

func (a *GoAnalyzer) Language() string { return "go" }

func (a *GoAnalyzer) Analyze(filePath string, content []byte, repoRoot string) (components []model.Component, edges []model.Edge) {
	defer func() {
		if recover() != nil {
			components, edges = nil, nil
		}
	}()

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, nil
	}
	defer tree.Close()

	rel := relPath(filePath, repoRoot)
	root := tree.RootNode()
	getText := func(n *sitter.Node) string { return n.Content(content) }

	var currentComponentID string

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode == nil {
				break
			}
			name := getText(nameNode)
			id := relativeID(rel, name)
			components = append(components, model.Component{
				ID:           id,
				Name:         name,
				Kind:         model.KindFunction,
				FilePath:     filePath,
				RelativePath: rel,
				SourceCode:   getText(n),
				StartLine:    int(n.StartPoint().Row) + 1,
				EndLine:      int(n.EndPoint().Row) + 1,
			})
			prev := currentComponentID
			currentComponentID = id
			walkCallsAndTypes(n, getText, rel, id, &edges)
			currentComponentID = prev
			return

		case "method_declaration":
			nameNode := n.ChildByFieldName("name")
			receiverNode := n.ChildByFieldName("receiver")
			if nameNode == nil || receiverNode == nil {
				break
			}
			name := getText(nameNode)
			receiver := receiverTypeName(receiverNode, getText)
			qualified := fmt.Sprintf("%s.%s", receiver, name)
			id := relativeID(rel, qualified)
			components = append(components, model.Component{
				ID:           id,
				Name:         qualified,
				Kind:         model.KindMethod,
				FilePath:     filePath,
				RelativePath: rel,
				SourceCode:   getText(n),
				StartLine:    int(n.StartPoint().Row) + 1,
				EndLine:      int(n.EndPoint().Row) + 1,
			})
			prev := currentComponentID
			currentComponentID = id
			walkCallsAndTypes(n, getText, rel, id, &edges)
			currentComponentID = prev
			return

		case "type_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(i)
				if spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				typeNode := spec.ChildByFieldName("type")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				kind := model.KindStruct
				if typeNode != nil && typeNode.Type() == "interface_type" {
					kind = model.KindInterface
				}
				id := relativeID(rel, name)
				components = append(components, model.Component{
					ID:           id,
					Name:         name,
					Kind:         kind,
					FilePath:     filePath,
					RelativePath: rel,
					SourceCode:   getText(spec),
					StartLine:    int(spec.StartPoint().Row) + 1,
					EndLine:      int(spec.EndPoint().Row) + 1,
				})

				if typeNode != nil && typeNode.Type() == "struct_type" {
					emitEmbeddedFieldEdges(typeNode, getText, rel, id, &edges)
				}
				if typeNode != nil && typeNode.Type() == "interface_type" {
					emitInterfaceEmbeddingEdges(typeNode, getText, rel, id, &edges)
				}
			}
			return
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}

	walk(root)
	return components, edges
}

// receiverTypeName extracts "T" from a receiver node like "(t *T)" or
// "(t T)".
func receiverTypeName(receiver *sitter.Node, getText func(*sitter.Node) string) string {
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		param := receiver.NamedChild(i)
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		text := getText(typeNode)
		return strings.TrimPrefix(text, "*")
	}
	return "?"
}

// walkCallsAndTypes scans a function/method body for call_expression nodes
// and emits an unresolved edge per callee name; internal/graph resolves
// them against the full component table by exact id match.
func walkCallsAndTypes(body *sitter.Node, getText func(*sitter.Node) string, rel, callerID string, edges *[]model.Edge) {
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				callee := calleeName(fn, getText)
				if callee != "" && !isBuiltin(callee) {
					*edges = append(*edges, model.Edge{
						CallerID: callerID,
						CalleeID: callee,
						Line:     int(n.StartPoint().Row) + 1,
						Resolved: false,
					})
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
}

func calleeName(fn *sitter.Node, getText func(*sitter.Node) string) string {
	switch fn.Type() {
	case "identifier":
		return getText(fn)
	case "selector_expression":
		field := fn.ChildByFieldName("field")
		if field != nil {
			return getText(field)
		}
	}
	return ""
}

var goBuiltins = map[string]bool{
	"len": true, "cap": true, "make": true, "new": true, "append": true,
	"copy": true, "delete": true, "panic": true, "recover": true,
	"print": true, "println": true, "close": true,
}

func isBuiltin(name string) bool { return goBuiltins[name] }

func emitEmbeddedFieldEdges(structType *sitter.Node, getText func(*sitter.Node) string, rel, ownerID string, edges *[]model.Edge) {
	for i := 0; i < int(structType.NamedChildCount()); i++ {
		fieldList := structType.NamedChild(i)
		if fieldList.Type() != "field_declaration_list" {
			continue
		}
		for j := 0; j < int(fieldList.NamedChildCount()); j++ {
			field := fieldList.NamedChild(j)
			if field.Type() != "field_declaration" {
				continue
			}
			// A field declaration with no "name" child is an embedded field.
			if field.ChildByFieldName("name") != nil {
				continue
			}
			typeNode := field.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			name := strings.TrimPrefix(getText(typeNode), "*")
			*edges = append(*edges, model.Edge{
				CallerID: ownerID,
				CalleeID: name,
				Line:     int(field.StartPoint().Row) + 1,
				Resolved: false,
			})
		}
	}
}

func emitInterfaceEmbeddingEdges(ifaceType *sitter.Node, getText func(*sitter.Node) string, rel, ownerID string, edges *[]model.Edge) {
	for i := 0; i < int(ifaceType.NamedChildCount()); i++ {
		child := ifaceType.NamedChild(i)
		if child.Type() == "type_identifier" || child.Type() == "qualified_type" {
			*edges = append(*edges, model.Edge{
				CallerID: ownerID,
				CalleeID: getText(child),
				Line:     int(child.StartPoint().Row) + 1,
				Resolved: false,
			})
		}
	}
}
