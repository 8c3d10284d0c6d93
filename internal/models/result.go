package models

import "fmt"

// AttachmentStyle is the primary classification derived from anxiety and avoidance.
type AttachmentStyle string

// Attachment style constants
const (
	StyleSecure   AttachmentStyle = "secure"   // low anxiety, low avoidance
	StyleAnxious  AttachmentStyle = "anxious"  // high anxiety, low avoidance
	StyleAvoidant AttachmentStyle = "avoidant" // low anxiety, high avoidance
	StyleFearful  AttachmentStyle = "fearful"  // high anxiety, high avoidance
)

// AttachmentStyles lists every style in reporting order.
var AttachmentStyles = []AttachmentStyle{StyleSecure, StyleAnxious, StyleAvoidant, StyleFearful}

// ParseAttachmentStyle converts a stored value back into an AttachmentStyle.
func ParseAttachmentStyle(s string) (AttachmentStyle, error) {
	for _, style := range AttachmentStyles {
		if string(style) == s {
			return style, nil
		}
	}
	return "", fmt.Errorf("unknown attachment style %q", s)
}

// SubscaleScores holds the mean (reverse-coded where configured) rating per subscale.
type SubscaleScores struct {
	Anxiety         float64 `json:"anxiety"`
	Avoidance       float64 `json:"avoidance"`
	Disorganization float64 `json:"disorganization"`
	Secure          float64 `json:"secure"`
}

// Classification is the categorical outcome of a scored submission.
type Classification struct {
	PrimaryStyle        AttachmentStyle `json:"primaryStyle"`
	DisorganizationFlag bool            `json:"disorganizationFlag"`
}

// Flags are the reliability signals. They never influence Classification.PrimaryStyle.
type Flags struct {
	AttentionCheckPassed bool `json:"attentionCheckPassed"`
	DefensiveResponding  bool `json:"defensiveResponding"`
}

// Result is everything the scoring engine derives from one complete response set.
type Result struct {
	SubscaleScores SubscaleScores `json:"subscaleScores"`
	Classification Classification `json:"classification"`
	Flags          Flags          `json:"flags"`
	Notes          []string       `json:"notes"` // never nil; empty when all checks pass
}
