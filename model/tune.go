package model

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

type Tune struct {
	Id       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Type     string `json:"type" yaml:"type"`
	Notation string `json:"notation" yaml:"notation"`
}

type TuneDocument struct {
	Tunes []Tune `json:"tunes" yaml:"tunes"`
}

// rawTune also accepts the older "abc" field used by early tune files.
type rawTune struct {
	Id       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Type     string `json:"type" yaml:"type"`
	Notation string `json:"notation" yaml:"notation"`
	Abc      string `json:"abc" yaml:"abc"`
}

func (r rawTune) tune() Tune {
	t := Tune{Id: r.Id, Title: r.Title, Type: r.Type, Notation: r.Notation}
	if t.Notation == "" {
		t.Notation = r.Abc
	}
	return t
}

func (t *Tune) UnmarshalJSON(data []byte) error {
	var r rawTune
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*t = r.tune()
	return nil
}

func (t *Tune) UnmarshalYAML(node *yaml.Node) error {
	var r rawTune
	if err := node.Decode(&r); err != nil {
		return err
	}
	*t = r.tune()
	return nil
}

// Normalize replaces a missing list with an empty one.
func (d TuneDocument) Normalize() TuneDocument {
	if d.Tunes == nil {
		d.Tunes = []Tune{}
	}
	return d
}
