// Package syllabus imports course outlines from YAML files.
package syllabus

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"tutorkit/pkg/store"
)

// Syllabus is a course outline: one subject with its modules and topics.
type Syllabus struct {
	Subject     string   `yaml:"subject"`
	Description string   `yaml:"description"`
	Modules     []Module `yaml:"modules"`
}

type Module struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Topics      []Topic `yaml:"topics"`
}

type Topic struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Parse decodes and validates a syllabus document.
func Parse(data []byte) (*Syllabus, error) {
	var syl Syllabus
	if err := yaml.Unmarshal(data, &syl); err != nil {
		return nil, errors.Wrap(err, "decoding syllabus")
	}

	if strings.TrimSpace(syl.Subject) == "" {
		return nil, errors.New("syllabus must name a subject")
	}
	if len(syl.Modules) == 0 {
		return nil, errors.New("syllabus must contain at least one module")
	}
	for i, module := range syl.Modules {
		if strings.TrimSpace(module.Name) == "" {
			return nil, errors.Errorf("module %d has no name", i+1)
		}
		for j, topic := range module.Topics {
			if strings.TrimSpace(topic.Name) == "" {
				return nil, errors.Errorf("topic %d in module %q has no name", j+1, module.Name)
			}
		}
	}
	return &syl, nil
}

// ParseFile reads and parses a syllabus YAML file.
func ParseFile(path string) (*Syllabus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(data)
}

// Import creates the subject, modules and topics described by the
// syllabus, owned by the given teacher. It returns the new subject id.
func Import(repo *store.Repository, syl *Syllabus, teacherID int64) (int64, error) {
	subjectID, err := repo.CreateSubject(syl.Subject, syl.Description, teacherID)
	if err != nil {
		return 0, err
	}
	for moduleIndex, module := range syl.Modules {
		moduleID, err := repo.AddModule(subjectID, module.Name, module.Description, moduleIndex+1)
		if err != nil {
			return 0, err
		}
		for topicIndex, topic := range module.Topics {
			if _, err := repo.AddTopic(moduleID, topic.Name, topic.Description, topicIndex+1); err != nil {
				return 0, err
			}
		}
	}
	return subjectID, nil
}
