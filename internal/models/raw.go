package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The remote API is schema-unstable: the same field may arrive as a string,
// a number, a boolean, or a nested {"name": ..., "id": ...} object depending
// on record age and API version. Text and Flag absorb those shapes at the
// ingestion boundary so the raw record structs stay strongly typed.

// Text is a string field tolerant of non-string JSON encodings.
type Text string

// UnmarshalJSON accepts strings, numbers, booleans, null, and lookup objects
// with a "name" or "id" member.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		for _, key := range []string{"name", "full_name", "id"} {
			if raw, ok := obj[key]; ok {
				var v Text
				if err := v.UnmarshalJSON(raw); err == nil && v != "" {
					*t = v
					return nil
				}
			}
		}
		*t = ""
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, raw := range list {
			var v Text
			if err := v.UnmarshalJSON(raw); err == nil && v != "" {
				parts = append(parts, string(v))
			}
		}
		*t = Text(strings.Join(parts, ", "))
		return nil
	}

	// Numbers and booleans keep their literal form.
	*t = Text(strings.Trim(trimmed, `"`))
	return nil
}

// String returns the field trimmed of surrounding whitespace.
func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Flag is a boolean field tolerant of string encodings ("true", "yes", "1").
type Flag bool

// UnmarshalJSON accepts booleans, strings, numbers, and null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "1":
			*f = true
		default:
			*f = false
		}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}

	*f = false
	return nil
}

// Bool returns the flag as a plain bool.
func (f Flag) Bool() bool { return bool(f) }

// Number is a numeric field tolerant of string encodings.
type Number float64

// UnmarshalJSON accepts numbers, numeric strings, and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number(parsed)
		} else {
			*n = 0
		}
		return nil
	}

	*n = 0
	return nil
}

// Int returns the number truncated to an int.
func (n Number) Int() int { return int(n) }

// RawCandidate is a candidate record as the remote API returns it.
type RawCandidate struct {
	ID               Text `json:"id"`
	FirstName        Text `json:"First_Name"`
	LastName         Text `json:"Last_Name"`
	FullName         Text `json:"Full_Name"`
	Email            Text `json:"Email"`
	Phone            Text `json:"Phone"`
	Mobile           Text `json:"Mobile"`
	City             Text `json:"City"`
	State            Text `json:"State"`
	Country          Text `json:"Country"`
	LeadStatus       Text `json:"Lead_Status"`
	Tier             Text `json:"Tier"`
	Languages        Text `json:"Languages"`
	Owner            Text `json:"Owner"`
	RecruitmentOwner Text `json:"Recruitment_Owner"`
	LeadSource       Text `json:"Lead_Source"`
	AssessmentPassed *Flag `json:"Assessment_Passed,omitempty"`
	AssessmentGrader Text `json:"Assessment_Graded_By"`
	AssessmentDate   Text `json:"Assessment_Date"`
	OfferSentDate    Text `json:"Offer_Sent_Date"`
	TrainingStart    Text `json:"Training_Start_Date"`
	Unresponsive     Flag `json:"Unresponsive"`
	LastActivityTime Text `json:"Last_Activity_Time"`
	CreatedTime      Text `json:"Created_Time"`
	ModifiedTime     Text `json:"Modified_Time"`
}

// RawInterview is a calendar/booking event as the remote API returns it.
// Whether the event is an interview at all is decided by title keywords.
type RawInterview struct {
	ID            Text   `json:"id"`
	Title         Text   `json:"Event_Title"`
	CandidateID   Text   `json:"Candidate_Id"`
	CandidateName Text   `json:"Candidate_Name"`
	WhoID         Text   `json:"Who_Id"`
	StartDateTime Text   `json:"Start_DateTime"`
	EndDateTime   Text   `json:"End_DateTime"`
	Duration      Number `json:"Duration_Min"`
	CheckInStatus Text   `json:"Check_In_Status"`
	Cancelled     Flag   `json:"Cancelled"`
	Interviewer   Text   `json:"Interviewer"`
	Description   Text   `json:"Description"`
	Outcome       Text   `json:"Outcome"`
}

// RawTask is a task record as the remote API returns it.
type RawTask struct {
	ID            Text `json:"id"`
	Subject       Text `json:"Subject"`
	Description   Text `json:"Description"`
	Status        Text `json:"Status"`
	Priority      Text `json:"Priority"`
	DueDate       Text `json:"Due_Date"`
	ClosedTime    Text `json:"Closed_Time"`
	WhoID         Text `json:"Who_Id"`
	CandidateName Text `json:"Candidate_Name"`
	Owner         Text `json:"Owner"`
	CreatedBy     Text `json:"Created_By"`
}

// RawNote is a note record as the remote API returns it.
type RawNote struct {
	ID          Text `json:"id"`
	Content     Text `json:"Note_Content"`
	Title       Text `json:"Note_Title"`
	ParentID    Text `json:"Parent_Id"`
	CreatedBy   Text `json:"Created_By"`
	CreatedTime Text `json:"Created_Time"`
}

// RawEmail is an email record as the remote API returns it.
type RawEmail struct {
	ID          Text `json:"id"`
	MessageID   Text `json:"Message_Id"`
	From        Text `json:"From"`
	To          Text `json:"To"`
	Subject     Text `json:"Subject"`
	Snippet     Text `json:"Content"`
	Sent        Flag `json:"Sent"`
	SentTime    Text `json:"Sent_Time"`
	ThreadID    Text `json:"Thread_Id"`
	CandidateID Text `json:"Candidate_Id"`
}
