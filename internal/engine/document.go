package engine

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/jsonquery"
	"github.com/antchfx/xmlquery"

	"dynaform/internal/model"
)

// extractChoices pairs the nodes selected by the textPath and valuePath
// XPath expressions by position. Documents starting with '<' are XML,
// anything else JSON.
//
// Relative XML paths are evaluated against the root element first and then
// against the document, so both "country/name" and "countries/country/name"
// select from <countries>. JSON arrays are anonymous nodes: "states/*/name".
func extractChoices(body []byte, textPath, valuePath string) ([]model.Choice, error) {
	if textPath == "" {
		return nil, errors.New("text path is required for document sources")
	}

	var selectFn func(expr string) ([]string, error)
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '<' {
		doc, err := xmlquery.Parse(bytes.NewReader(trimmed))
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		selectFn = func(expr string) ([]string, error) { return selectXML(doc, expr) }
	} else {
		doc, err := jsonquery.Parse(bytes.NewReader(trimmed))
		if err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		selectFn = func(expr string) ([]string, error) { return selectJSON(doc, expr) }
	}

	texts, err := selectFn(textPath)
	if err != nil {
		return nil, err
	}
	values := texts
	if valuePath != "" {
		if values, err = selectFn(valuePath); err != nil {
			return nil, err
		}
	}
	if len(values) != len(texts) {
		return nil, fmt.Errorf("%d labels but %d values", len(texts), len(values))
	}

	choices := make([]model.Choice, 0, len(texts))
	for i := range texts {
		choices = append(choices, model.Choice{Label: texts[i], Value: values[i]})
	}
	return choices, nil
}

func selectXML(doc *xmlquery.Node, expr string) ([]string, error) {
	root, err := xmlquery.Query(doc, "/*")
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.New("empty xml document")
	}

	nodes, err := xmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	if len(nodes) == 0 && !strings.HasPrefix(expr, "/") {
		if nodes, err = xmlquery.QueryAll(doc, expr); err != nil {
			return nil, fmt.Errorf("xpath %q: %w", expr, err)
		}
	}

	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, strings.TrimSpace(n.InnerText()))
	}
	return out, nil
}

func selectJSON(doc *jsonquery.Node, expr string) ([]string, error) {
	nodes, err := jsonquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, strings.TrimSpace(n.InnerText()))
	}
	return out, nil
}
