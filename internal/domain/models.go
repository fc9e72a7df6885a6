package domain

import "time"

// Track distinguishes team (inter-school) from individual (intra-school)
// competition entries. Question records are tagged with the track they belong
// to; a participant only ever sees questions for their own track.
type Track string

const (
	TrackTeam       Track = "inter"
	TrackIndividual Track = "intra"
)

// Valid reports whether t is one of the known tracks.
func (t Track) Valid() bool {
	return t == TrackTeam || t == TrackIndividual
}

// Competition is a scheduled event participants enroll in. Immutable after
// creation except for IsOpened, which gates quiz starts.
type Competition struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsTeam   bool      `json:"isTeam"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	IsOpened bool      `json:"isOpened"`
}

// Answer is one option of a multiple-choice question.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a single quiz question tagged with its subject and track.
type Question struct {
	Subject  string   `json:"subject"`
	Track    Track    `json:"track"`
	Prompt   string   `json:"prompt"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Answers  []Answer `json:"answers"`
}

// QuestionGroup is the authoring unit: all questions one teacher submitted
// for one subject. A subject has at most one authoring teacher.
type QuestionGroup struct {
	Subject   string     `json:"subject"`
	AuthorID  string     `json:"authorId"`
	Questions []Question `json:"questions"`
}

// TeamMember pairs a participant with the subject assigned to them within
// their team's reservation.
type TeamMember struct {
	UserID  string `json:"userId"`
	Subject string `json:"subject"`
}

// TeamEnrollment is a team-track reservation made by a team leader.
type TeamEnrollment struct {
	ID            string       `json:"id"`
	CompetitionID string       `json:"competitionId"`
	LeaderID      string       `json:"leaderId"`
	Members       []TeamMember `json:"members"`
}

// IndividualEnrollment registers an anonymous-identity participant for an
// individual-track competition. Marks live in the IndividualMarkRecord keyed
// by the same (anon id, competition) pair.
type IndividualEnrollment struct {
	ID            string `json:"id"`
	AnonID        string `json:"anonId"`
	CompetitionID string `json:"competitionId"`
	Name          string `json:"name"`
	School        string `json:"school"`
}

// SubjectMark is one completed quiz outcome for an individual participant.
type SubjectMark struct {
	Subject string `json:"subject"`
	Marks   int    `json:"marks"`
	Seconds int    `json:"seconds"`
}

// TeamMark is one completed quiz outcome for a member of a team reservation.
type TeamMark struct {
	UserID  string `json:"userId"`
	Subject string `json:"subject"`
	Marks   int    `json:"marks"`
	Seconds int    `json:"seconds"`
}

// TeamMarkRecord holds all marks submitted against one reservation. Version
// is the optimistic-concurrency token: a write must carry the version it
// read, and the store rejects it if the record moved on since.
type TeamMarkRecord struct {
	ReservationID string     `json:"reservationId"`
	Version       int64      `json:"version"`
	Marks         []TeamMark `json:"marks"`
}

// IndividualMarkRecord holds all marks for one (anon id, competition) pair,
// versioned the same way as TeamMarkRecord.
type IndividualMarkRecord struct {
	AnonID        string        `json:"anonId"`
	CompetitionID string        `json:"competitionId"`
	Version       int64         `json:"version"`
	Marks         []SubjectMark `json:"marks"`
}

// MarkSubmittedEvent is published after a mark is durably persisted, for
// downstream leaderboard and voting consumers.
type MarkSubmittedEvent struct {
	CompetitionID string `json:"competitionId"`
	Track         Track  `json:"track"`
	UserID        string `json:"userId"`
	Subject       string `json:"subject"`
	Marks         int    `json:"marks"`
	Seconds       int    `json:"seconds"`
	SubmittedAt   int64  `json:"submittedAt"`
}
