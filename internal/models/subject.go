package models

import "sort"

// SubjectQuestion is the denormalized entry a subject keeps per question.
type SubjectQuestion struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Subject groups questions by topic. Questions is kept sorted by name.
type Subject struct {
	Name      string            `json:"name"`
	Questions []SubjectQuestion `json:"questions"`
}

func (s *Subject) Defaults() {
	if s.Questions == nil {
		s.Questions = []SubjectQuestion{}
	}
	s.sortQuestions()
}

func (s *Subject) sortQuestions() {
	sort.SliceStable(s.Questions, func(i, j int) bool { return s.Questions[i].Name < s.Questions[j].Name })
}

// HasQuestion reports whether a question with the given name is listed.
func (s *Subject) HasQuestion(name string) bool {
	for _, q := range s.Questions {
		if q.Name == name {
			return true
		}
	}
	return false
}

// AddQuestion inserts the question keeping the list sorted. It returns false
// when the name is already listed.
func (s *Subject) AddQuestion(name string, level int) bool {
	if s.HasQuestion(name) {
		return false
	}
	s.Questions = append(s.Questions, SubjectQuestion{Name: name, Level: level})
	s.sortQuestions()
	return true
}

// RemoveQuestion drops the named question. It returns false when it was not listed.
func (s *Subject) RemoveQuestion(name string) bool {
	for i, q := range s.Questions {
		if q.Name == name {
			s.Questions = append(s.Questions[:i], s.Questions[i+1:]...)
			return true
		}
	}
	return false
}
