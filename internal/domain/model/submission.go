package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/okian/mdpsurvey/internal/domain/scoring"
)

// Rating bounds shared by core and function-specific ratings.
const (
	MinRating = 1
	MaxRating = 5
)

// Rating is an integer rating that decodes from a JSON number or numeric string.
// null and "" decode to 0, meaning unanswered. Fractional or unparsable
// values decode to InvalidRating. Both fail validation where a rating is required.
type Rating int

// InvalidRating marks a rating that was present but not a whole number.
const InvalidRating Rating = -1

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		*r = InvalidRating
		return nil
	}
	*r = ratingOf(raw)
	return nil
}

func ratingOf(raw any) Rating {
	switch v := raw.(type) {
	case json.Number:
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0
		}
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return InvalidRating
		}
	default:
		return InvalidRating
	}
	f := scoring.Coerce(raw)
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return InvalidRating
	}
	return Rating(f)
}

// Label is free text that also accepts a JSON number, e.g. rotation 3 or "3".
type Label string

// UnmarshalJSON implements json.Unmarshaler.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*l = Label(strconv.FormatInt(i, 10))
		return nil
	}
	*l = Label(n.String())
	return nil
}

// Submission is the raw field set captured by the evaluation form.
type Submission struct {
	MDPName           string   `json:"mdpName"`
	Function          Function `json:"function"`
	ManagerName       string   `json:"managerName"`
	Rotation          Label    `json:"rotation"`
	JobKnowledge      Rating   `json:"jobKnowledge"`
	QualityOfWork     Rating   `json:"qualityOfWork"`
	Communication     Rating   `json:"communication"`
	Initiative        Rating   `json:"initiative"`
	FunctionSpecific1 *Rating  `json:"functionSpecific1,omitempty"`
	FunctionSpecific2 *Rating  `json:"functionSpecific2,omitempty"`
}

// Normalize trims text fields and drops zero-valued optional ratings.
func (s *Submission) Normalize() {
	s.MDPName = strings.TrimSpace(s.MDPName)
	s.Function = Function(strings.TrimSpace(string(s.Function)))
	s.ManagerName = strings.TrimSpace(s.ManagerName)
	s.Rotation = Label(strings.TrimSpace(string(s.Rotation)))
	if s.FunctionSpecific1 != nil && *s.FunctionSpecific1 == 0 {
		s.FunctionSpecific1 = nil
	}
	if s.FunctionSpecific2 != nil && *s.FunctionSpecific2 == 0 {
		s.FunctionSpecific2 = nil
	}
}

// Validate reports every required field that is empty and every rating out of range.
// The returned error is a *ValidationError or nil.
func (s *Submission) Validate() error {
	verr := &ValidationError{}

	required := []struct {
		field string
		value string
	}{
		{"mdpName", s.MDPName},
		{"function", string(s.Function)},
		{"managerName", s.ManagerName},
		{"rotation", string(s.Rotation)},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			verr.add(r.field, "is required")
		}
	}
	if s.Function != "" && !s.Function.Valid() {
		verr.add("function", "is not a known function")
	}

	core := []struct {
		field string
		value Rating
	}{
		{"jobKnowledge", s.JobKnowledge},
		{"qualityOfWork", s.QualityOfWork},
		{"communication", s.Communication},
		{"initiative", s.Initiative},
	}
	for _, c := range core {
		if !inRange(c.value) {
			verr.add(c.field, "must be between 1 and 5")
		}
	}
	if s.FunctionSpecific1 != nil && !inRange(*s.FunctionSpecific1) {
		verr.add("functionSpecific1", "must be between 1 and 5")
	}
	if s.FunctionSpecific2 != nil && !inRange(*s.FunctionSpecific2) {
		verr.add("functionSpecific2", "must be between 1 and 5")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func inRange(r Rating) bool {
	return r >= MinRating && r <= MaxRating
}

func optionalInt(r *Rating) *int {
	if r == nil {
		return nil
	}
	v := int(*r)
	return &v
}
