// Package xmlutil provides namespace-tolerant xpath helpers on top of
// xmlquery. Catalogue and capability documents bind the same schemas to
// wildly different prefixes, so element and attribute steps are matched on
// local names only.
package xmlutil

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// LocalPath rewrites a prefixed xpath such as
// ".//gmd:identificationInfo/srv:SV_ServiceIdentification" into an
// equivalent query matching on local names. Attribute steps ("@xlink:href")
// and predicates on unqualified attributes ("[@name='GetFeature']") are
// preserved.
func LocalPath(path string) string {
	var b strings.Builder
	steps := strings.Split(path, "/")
	for i, step := range steps {
		if i > 0 {
			b.WriteString("/")
		}
		b.WriteString(localStep(step))
	}
	return b.String()
}

func localStep(step string) string {
	if step == "" || step == "." || step == ".." || step == "*" {
		return step
	}
	name := step
	predicate := ""
	if idx := strings.Index(step, "["); idx >= 0 {
		name = step[:idx]
		predicate = step[idx:]
	}
	if strings.HasPrefix(name, "@") {
		attr := name[1:]
		if idx := strings.Index(attr, ":"); idx >= 0 {
			attr = attr[idx+1:]
		}
		return "@*[local-name()='" + attr + "']" + predicate
	}
	if idx := strings.Index(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}
	return "*[local-name()='" + name + "']" + predicate
}

// FindOne returns the first node matching the prefixed path, or nil.
func FindOne(n *xmlquery.Node, path string) *xmlquery.Node {
	if n == nil {
		return nil
	}
	return xmlquery.FindOne(n, LocalPath(path))
}

// FindAll returns every node matching the prefixed path.
func FindAll(n *xmlquery.Node, path string) []*xmlquery.Node {
	if n == nil {
		return nil
	}
	return xmlquery.Find(n, LocalPath(path))
}

// Text returns the trimmed inner text of the first match, or "".
func Text(n *xmlquery.Node, path string) string {
	found := FindOne(n, path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.InnerText())
}

// Texts returns the trimmed inner text of every match.
func Texts(n *xmlquery.Node, path string) []string {
	matches := FindAll(n, path)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m.InnerText()))
	}
	return out
}

// Attr returns the value of the attribute with the given local name on the
// first node matching path, or "".
func Attr(n *xmlquery.Node, path, name string) string {
	found := FindOne(n, path)
	if found == nil {
		return ""
	}
	return AttrOf(found, name)
}

// AttrOf returns the value of the attribute with the given local name, or "".
func AttrOf(n *xmlquery.Node, name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
