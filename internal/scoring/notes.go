package scoring

import "github.com/harrison/attune/internal/models"

// Note texts, appended in this order.
const (
	NoteAttentionFailed     = "Attention check failed - results may be unreliable"
	NoteDefensiveResponding = "Potential defensive responding detected"
	NoteHighDisorganization = "High disorganization score - may indicate push-pull dynamics"
)

// BuildNotes returns one message per raised flag: attention failure, then
// defensive responding, then disorganization. The slice is empty, never nil,
// when nothing is raised.
func BuildNotes(flags models.Flags, disorganizationFlag bool) []string {
	notes := []string{}
	if !flags.AttentionCheckPassed {
		notes = append(notes, NoteAttentionFailed)
	}
	if flags.DefensiveResponding {
		notes = append(notes, NoteDefensiveResponding)
	}
	if disorganizationFlag {
		notes = append(notes, NoteHighDisorganization)
	}
	return notes
}
