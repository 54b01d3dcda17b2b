package persona

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var embeddedProfile []byte

type Skill struct {
	Label  string `yaml:"label" json:"label"`
	Value  int    `yaml:"value" json:"value"`
	Detail string `yaml:"detail" json:"detail"`
}

type Project struct {
	Title       string `yaml:"title" json:"title"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	Buff        string `yaml:"buff" json:"buff"`
	Link        string `yaml:"link" json:"link"`
}

// Quest is an internship or similar experience entry.
type Quest struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Role        string   `yaml:"role" json:"role"`
	Date        string   `yaml:"date" json:"date"`
	Description string   `yaml:"description" json:"description"`
	Stats       []string `yaml:"stats" json:"stats"`
	Loot        []string `yaml:"loot" json:"loot"`
}

// Profile is the biographical data injected into every chat request.
type Profile struct {
	Name      string    `yaml:"name" json:"name"`
	Roles     []string  `yaml:"roles" json:"roles"`
	Location  string    `yaml:"location" json:"location"`
	Education string    `yaml:"education" json:"education"`
	GradYear  string    `yaml:"gradYear" json:"gradYear"`
	Skills    []Skill   `yaml:"skills" json:"skills"`
	Quests    []Quest   `yaml:"quests" json:"quests"`
	Projects  []Project `yaml:"projects" json:"projects"`
}

// FirstName returns the first word of Name.
func (p Profile) FirstName() string {
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Parse decodes a YAML profile document.
func Parse(data []byte) (Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("persona: decode profile: %w", err)
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Profile{}, errors.New("persona: profile name is required")
	}
	if len(p.Roles) == 0 {
		return Profile{}, errors.New("persona: profile needs at least one role")
	}
	return p, nil
}

var loadDefault = sync.OnceValues(func() (Profile, error) {
	return Parse(embeddedProfile)
})

// Default returns the profile compiled into the binary. It panics if the
// embedded document is invalid, which is a build defect.
func Default() Profile {
	p, err := loadDefault()
	if err != nil {
		panic(err)
	}
	return p.clone()
}

func (p Profile) clone() Profile {
	out := p
	out.Roles = append([]string(nil), p.Roles...)
	out.Skills = append([]Skill(nil), p.Skills...)
	out.Projects = append([]Project(nil), p.Projects...)
	out.Quests = make([]Quest, len(p.Quests))
	for i, q := range p.Quests {
		q.Stats = append([]string(nil), q.Stats...)
		q.Loot = append([]string(nil), q.Loot...)
		out.Quests[i] = q
	}
	return out
}
