package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// opportunityFields has the fields of Opportunity without its decoding methods.
type opportunityFields Opportunity

// UnmarshalJSON decodes a record leniently: budget and deadline may be
// numbers, timestamps or free text. Values that cannot be read degrade to
// absent rather than failing the record.
func (o *Opportunity) UnmarshalJSON(data []byte) error {
	aux := struct {
		*opportunityFields
		Budget   any `json:"budget"`
		Deadline any `json:"deadline"`
	}{opportunityFields: (*opportunityFields)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	o.Budget = nil
	switch v := aux.Budget.(type) {
	case float64:
		o.Budget = &v
	case string:
		o.Budget = looseBudget(v)
	}

	o.Deadline = nil
	if s, ok := aux.Deadline.(string); ok {
		o.setDeadline(s)
	}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML input.
func (o *Opportunity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: opportunity must be a mapping", node.Line)
	}

	rest := *node
	rest.Content = make([]*yaml.Node, 0, len(node.Content))
	var budget, deadline *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "budget":
			budget = value
		case "deadline":
			deadline = value
		default:
			rest.Content = append(rest.Content, key, value)
		}
	}
	if err := rest.Decode((*opportunityFields)(o)); err != nil {
		return err
	}

	o.Budget = nil
	if budget != nil && budget.Kind == yaml.ScalarNode {
		o.Budget = looseBudget(budget.Value)
	}
	o.Deadline = nil
	if deadline != nil && deadline.Kind == yaml.ScalarNode {
		o.setDeadline(deadline.Value)
	}
	return nil
}

func looseBudget(text string) *float64 {
	text = strings.TrimSpace(text)
	if v, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return &v
	}
	if v, ok := ParseBudget(text); ok {
		return &v
	}
	return nil
}

// setDeadline keeps unparseable text in DeadlineText so it is not lost.
func (o *Opportunity) setDeadline(text string) {
	text = strings.TrimSpace(text)
	if text == "" || text == "null" || text == "~" {
		return
	}
	if t, ok := ParseDeadline(text); ok {
		o.Deadline = &t
		return
	}
	if o.DeadlineText == "" {
		o.DeadlineText = text
	}
}
