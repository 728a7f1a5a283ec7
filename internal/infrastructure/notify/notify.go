// Package notify renders and delivers borrower notifications.
package notify

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

const FallbackTemplate = "status_changed"

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type Message struct {
	Recipient string         `json:"recipient"`
	Channel   Channel        `json:"channel"`
	Template  string         `json:"template"`
	Data      map[string]any `json:"data"`
}

// Rendered is what actually leaves the process.
type Rendered struct {
	Recipient string  `json:"recipient"`
	Channel   Channel `json:"channel"`
	Subject   string  `json:"subject"`
	Body      string  `json:"body"`
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

//go:embed templates.yaml
var templatesYAML []byte

type templateDef struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

// Templates is a parsed template set keyed by name.
type Templates struct{ byName map[string]compiled }

// DefaultTemplates parses the embedded set.
func DefaultTemplates() (*Templates, error) { return ParseTemplates(templatesYAML) }

func ParseTemplates(src []byte) (*Templates, error) {
	defs := map[string]templateDef{}
	if err := yaml.Unmarshal(src, &defs); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	out := &Templates{byName: make(map[string]compiled, len(defs))}
	for name, d := range defs {
		subj, err := template.New(name + ".subject").Option("missingkey=zero").Parse(d.Subject)
		if err != nil {
			return nil, fmt.Errorf("template %s subject: %w", name, err)
		}
		body, err := template.New(name + ".body").Option("missingkey=zero").Parse(d.Body)
		if err != nil {
			return nil, fmt.Errorf("template %s body: %w", name, err)
		}
		out.byName[name] = compiled{subject: subj, body: body}
	}
	return out, nil
}

// Render falls back to FallbackTemplate when msg.Template is unknown.
func (t *Templates) Render(msg Message) (Rendered, error) {
	c, ok := t.byName[msg.Template]
	if !ok {
		c, ok = t.byName[FallbackTemplate]
		if !ok {
			return Rendered{}, fmt.Errorf("unknown template %q", msg.Template)
		}
	}
	var subj, body bytes.Buffer
	if err := c.subject.Execute(&subj, msg.Data); err != nil {
		return Rendered{}, err
	}
	if err := c.body.Execute(&body, msg.Data); err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Recipient: msg.Recipient,
		Channel:   msg.Channel,
		Subject:   subj.String(),
		Body:      body.String(),
	}, nil
}
