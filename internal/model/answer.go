package model

import "encoding/json"

// AnswerValue is the payload of an answer. It is either a SingleAnswer or a
// MultiAnswer; the question type decides which one is acceptable.
type AnswerValue interface {
	isAnswerValue()
}

// SingleAnswer answers CHOICE and TYPED questions.
type SingleAnswer struct {
	Value string
}

// MultiAnswer answers MULTISELECT questions.
type MultiAnswer struct {
	Values []string
}

func (SingleAnswer) isAnswerValue() {}
func (MultiAnswer) isAnswerValue()  {}

// Accepts reports whether v has the shape q's type requires.
func (q Question) Accepts(v AnswerValue) bool {
	switch v.(type) {
	case SingleAnswer:
		return q.Type == QuestionChoice || q.Type == QuestionTyped
	case MultiAnswer:
		return q.Type == QuestionMultiSelect
	default:
		return false
	}
}

// Answer is a registration's response to one question.
type Answer struct {
	ID             string
	RegistrationID string
	QuestionID     string
	Value          AnswerValue
}

type answerJSON struct {
	ID             string   `json:"id"`
	RegistrationID string   `json:"registration_id"`
	QuestionID     string   `json:"question_id"`
	SingleAnswer   *string  `json:"single_answer,omitempty"`
	MultiAnswer    []string `json:"multi_answer,omitempty"`
}

// MarshalJSON flattens the value into single_answer or multi_answer.
func (a Answer) MarshalJSON() ([]byte, error) {
	out := answerJSON{ID: a.ID, RegistrationID: a.RegistrationID, QuestionID: a.QuestionID}
	switch v := a.Value.(type) {
	case SingleAnswer:
		out.SingleAnswer = &v.Value
	case MultiAnswer:
		out.MultiAnswer = v.Values
		if out.MultiAnswer == nil {
			out.MultiAnswer = []string{}
		}
	}
	return json.Marshal(out)
}

// Parts splits the value back into the nullable column pair used by SQL
// stores.
func (a Answer) Parts() (single *string, multi []string) {
	switch v := a.Value.(type) {
	case SingleAnswer:
		s := v.Value
		return &s, nil
	case MultiAnswer:
		if v.Values == nil {
			return nil, []string{}
		}
		return nil, v.Values
	}
	return nil, nil
}

// AnswerFromParts is the inverse of Parts.
func AnswerFromParts(single *string, multi []string) AnswerValue {
	if single != nil {
		return SingleAnswer{Value: *single}
	}
	if multi != nil {
		return MultiAnswer{Values: multi}
	}
	return nil
}
