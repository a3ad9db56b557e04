// Package assess holds the shared vocabulary of the assessment engine:
// track identifiers, statuses, trait and exam enumerations, and the
// validation-error taxonomy surfaced by every track service.
package assess

// Track identifies one of the three evaluation tracks a participant
// works through. Each track owns an independent sub-state in the
// participant's progress record.
type Track string

const (
	TrackBelbin  Track = "belbin"
	TrackNeo     Track = "neo"
	TrackGeneral Track = "general"
)

func (t Track) Valid() bool {
	switch t {
	case TrackBelbin, TrackNeo, TrackGeneral:
		return true
	}
	return false
}

// Status of a track (or of a single General exam inside the track).
// Expired applies to General exams only and is persisted on first
// observation of an elapsed time budget.
type Status string

const (
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
	StatusExpired  Status = "expired"
)

// Trait is one of the five Neo inventory scoring dimensions.
type Trait string

const (
	TraitExperience    Trait = "experience"
	TraitDutifulness   Trait = "dutifulness"
	TraitExtraversion  Trait = "extraversion"
	TraitAgreeableness Trait = "agreeableness"
	TraitNeuroticism   Trait = "neuroticism"
)

var Traits = []Trait{TraitExperience, TraitDutifulness, TraitExtraversion, TraitAgreeableness, TraitNeuroticism}

func (t Trait) Valid() bool {
	for _, k := range Traits {
		if t == k {
			return true
		}
	}
	return false
}

// ExamMode distinguishes open exams from project entrance exams.
type ExamMode string

const (
	ModePublic   ExamMode = "public"
	ModeEntrance ExamMode = "entrance"
)

// MaxBelbinScore is the point budget a participant distributes across
// the options of a single Belbin question.
const MaxBelbinScore = 10
