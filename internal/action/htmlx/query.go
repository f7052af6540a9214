// Package htmlx implements HTML structured-extraction operators:
// ElementQuery / ItemQuery select elements, and ElementDataQuery pulls
// text or an attribute out of each match.
//
// Grounded on hackclub-news's use of github.com/PuerkitoBio/goquery
// (itself built on github.com/andybalholm/cascadia) to walk and select
// HTML nodes — the same jQuery-like selection style is used here to
// express Tag/Class/Attr matching and descendant refinement.
package htmlx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ElementKind is the closed set of ways an ElementQuery can match.
type ElementKind int

const (
	KindTag ElementKind = iota
	KindClass
	KindAttr
)

// ElementQuery selects descendant elements matching Kind (and,
// optionally, excludes anything matching one of Ignore).
type ElementQuery struct {
	Kind ElementKind
	// Name is the tag or class name for KindTag/KindClass, or the
	// attribute name for KindAttr.
	Name string
	// Value is the attribute value to match, used only for KindAttr.
	Value  string
	Ignore []ElementQuery
}

func (q ElementQuery) selector() string {
	switch q.Kind {
	case KindTag:
		return q.Name
	case KindClass:
		return "." + q.Name
	case KindAttr:
		if q.Value == "" {
			return fmt.Sprintf("[%s]", q.Name)
		}
		return fmt.Sprintf(`[%s="%s"]`, q.Name, q.Value)
	default:
		return "*"
	}
}

// ItemQuery is a non-empty ordered list of ElementQuery applied as
// nested refinement: each subsequent query searches within the result
// set of the previous one.
type ItemQuery []ElementQuery

// Select runs the ItemQuery against doc and returns the matched items.
func Select(doc *goquery.Selection, query ItemQuery) (*goquery.Selection, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("htmlx: ItemQuery must not be empty")
	}
	cur := doc
	for _, eq := range query {
		cur = cur.Find(eq.selector())
		if len(eq.Ignore) > 0 {
			cur = applyIgnore(cur, eq.Ignore)
		}
	}
	return cur, nil
}

// applyIgnore drops any node that satisfies any ignore-kind, or is a
// descendant of one.
func applyIgnore(sel *goquery.Selection, ignore []ElementQuery) *goquery.Selection {
	var kept []int
	sel.Each(func(i int, s *goquery.Selection) {
		if matchesAnyOrDescendant(s, ignore) {
			return
		}
		kept = append(kept, i)
	})
	return sel.FilterFunction(func(i int, _ *goquery.Selection) bool {
		for _, k := range kept {
			if k == i {
				return true
			}
		}
		return false
	})
}

func matchesAnyOrDescendant(s *goquery.Selection, ignore []ElementQuery) bool {
	for _, ig := range ignore {
		if s.Is(ig.selector()) {
			return true
		}
		// descendant-of check: does this node have an ancestor matching ig?
		if s.Closest(ig.selector()).Length() > 0 {
			return true
		}
	}
	return false
}

// DataLocation chooses where ElementDataQuery reads its value from.
type DataLocation int

const (
	LocationText DataLocation = iota
	LocationAttr
)

// PostProcess optionally rewrites the extracted string with a regex
// replace before it's handed back to the caller. Re is compiled once
// at config build time (see internal/config.convertDataQuery), so a
// bad pattern fails the build instead of surfacing as a dropped entry
// at run time.
type PostProcess struct {
	Re          *regexp.Regexp
	ReplaceWith string
}

// ElementDataQuery reads one piece of data out of each element an
// ItemQuery selected.
type ElementDataQuery struct {
	Item         ItemQuery
	Location     DataLocation
	AttrName     string
	Optional     bool
	PostProcess  *PostProcess
}

// ExtractOne runs an ElementDataQuery against a single item node
// (already selected by the enclosing ItemQuery) and returns its value.
func ExtractOne(item *goquery.Selection, q ElementDataQuery) (string, error) {
	target := item
	if len(q.Item) > 0 {
		sel, err := Select(item, q.Item)
		if err != nil {
			return "", err
		}
		target = sel
	}

	var raw string
	var found bool
	switch q.Location {
	case LocationText:
		raw = strings.TrimSpace(target.First().Text())
		found = target.Length() > 0
	case LocationAttr:
		v, ok := target.First().Attr(q.AttrName)
		raw, found = v, ok
	}

	if !found {
		if q.Optional {
			return "", nil
		}
		return "", fmt.Errorf("htmlx: required value not found for query %+v", q)
	}

	if q.PostProcess != nil {
		raw = q.PostProcess.Re.ReplaceAllString(raw, q.PostProcess.ReplaceWith)
	}

	return raw, nil
}
