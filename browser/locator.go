package browser

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy selects how a Locator expression is interpreted.
type Strategy string

const (
	StrategyCSS   Strategy = "css"
	StrategyXPath Strategy = "xpath"
	StrategyName  Strategy = "name"
	StrategyID    Strategy = "id"
	StrategyClass Strategy = "class"
	StrategyTag   Strategy = "tag"
	StrategyText  Strategy = "text"
)

// Locator describes how to find elements. A scoped locator keeps its parent as
// a Locator, so every resolution queries the live DOM again.
type Locator struct {
	Strategy   Strategy
	Expression string
	Parent     *Locator
}

func CSS(expr string) Locator   { return Locator{Strategy: StrategyCSS, Expression: expr} }
func XPath(expr string) Locator { return Locator{Strategy: StrategyXPath, Expression: expr} }
func Name(name string) Locator  { return Locator{Strategy: StrategyName, Expression: name} }
func ID(id string) Locator      { return Locator{Strategy: StrategyID, Expression: id} }
func Class(cls string) Locator  { return Locator{Strategy: StrategyClass, Expression: cls} }
func Tag(tag string) Locator    { return Locator{Strategy: StrategyTag, Expression: tag} }

// Text matches elements by their exact visible text.
func Text(text string) Locator { return Locator{Strategy: StrategyText, Expression: text} }

// Within returns a copy of l scoped to the first match of parent.
func (l Locator) Within(parent Locator) Locator {
	p := parent
	l.Parent = &p
	return l
}

// Scoped reports whether the locator is resolved relative to a parent.
func (l Locator) Scoped() bool {
	return l.Parent != nil
}

// Selector returns the backend selector for the locator itself, ignoring the parent.
func (l Locator) Selector() string {
	switch l.Strategy {
	case StrategyXPath:
		expr := l.Expression
		// Absolute XPath in a scope would search the whole document
		if l.Parent != nil && strings.HasPrefix(expr, "/") {
			expr = "." + expr
		}
		return "xpath=" + expr
	case StrategyName:
		return "css=" + attrSelector("name", l.Expression)
	case StrategyID:
		return "css=" + attrSelector("id", l.Expression)
	case StrategyClass:
		classes := strings.Fields(l.Expression)
		return "css=." + strings.Join(classes, ".")
	case StrategyText:
		return "text=" + strconv.Quote(l.Expression)
	case StrategyTag, StrategyCSS:
		return "css=" + l.Expression
	default:
		return "css=" + l.Expression
	}
}

func (l Locator) String() string {
	if l.Parent != nil {
		return l.Parent.String() + " >> " + l.Selector()
	}
	return l.Selector()
}

func attrSelector(attr, value string) string {
	return fmt.Sprintf("[%s=%s]", attr, strconv.Quote(value))
}

// Resolve queries all elements currently matching the locator.
// A scoped locator with no parent match yields no elements.
func (l Locator) Resolve(page Page) ([]Element, error) {
	if l.Parent == nil {
		return page.QueryAll(l.Selector())
	}
	parents, err := l.Parent.Resolve(page)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return nil, nil
	}
	return parents[0].QueryAll(l.Selector())
}

// XPathLiteral quotes s for use inside an XPath expression, handling embedded quotes.
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if part != "" {
			quoted = append(quoted, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
